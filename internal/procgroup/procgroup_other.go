//go:build !unix

package procgroup

import (
	"os"
	"os/exec"
)

func set(_ *exec.Cmd) {}

func terminate(pid int) error {
	return signalProcess(pid)
}

func kill(pid int) error {
	return signalProcess(pid)
}

func signalProcess(pid int) error {
	if pid <= 0 {
		return nil
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return nil
	}
	return proc.Kill()
}
