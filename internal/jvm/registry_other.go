//go:build !windows

package jvm

import "os/exec"

func registryJavaHomes() []string {
	return nil
}

func prepareCommand(cmd *exec.Cmd) {}
