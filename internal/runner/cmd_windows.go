//go:build windows

package runner

import (
	"os/exec"
	"syscall"
)

// CREATE_NO_WINDOW keeps the console of the java child hidden.
func prepareCommand(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CreationFlags: 0x08000000,
	}
}
