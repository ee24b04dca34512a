//go:build windows

package jvm

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows/registry"
)

var registryPaths = []string{
	`SOFTWARE\JavaSoft\Java Runtime Environment`,
	`SOFTWARE\JavaSoft\JDK`,
	`SOFTWARE\Eclipse Adoptium\JDK`,
	`SOFTWARE\Eclipse Adoptium\JRE`,
}

func registryJavaHomes() []string {
	var homes []string
	for _, root := range []registry.Key{registry.LOCAL_MACHINE, registry.CURRENT_USER} {
		for _, path := range registryPaths {
			if home := readJavaHome(root, path); home != "" {
				homes = append(homes, home)
			}
		}
	}
	return homes
}

func readJavaHome(root registry.Key, path string) string {
	key, err := registry.OpenKey(root, path, registry.QUERY_VALUE|registry.ENUMERATE_SUB_KEYS)
	if err != nil {
		return ""
	}
	defer key.Close()

	current, _, err := key.GetStringValue("CurrentVersion")
	if err != nil {
		return ""
	}
	sub, err := registry.OpenKey(key, current, registry.QUERY_VALUE)
	if err != nil {
		return ""
	}
	defer sub.Close()

	home, _, err := sub.GetStringValue("JavaHome")
	if err != nil {
		return ""
	}
	return home
}

func prepareCommand(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: 0x08000000,
	}
}
