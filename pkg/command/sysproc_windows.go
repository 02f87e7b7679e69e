//go:build windows

package command

import (
	"os/exec"
	"syscall"
)

const createNoWindow = 0x08000000

// HideWindow keeps the child process from opening a console window
func HideWindow(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: createNoWindow}
}
