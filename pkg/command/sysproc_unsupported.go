//go:build !windows

package command

import "os/exec"

func HideWindow(cmd *exec.Cmd) {}
