//go:build unix

package procgroup

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

func set(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Setpgid = true
}

func terminate(pid int) error {
	return signalGroup(pid, syscall.SIGTERM)
}

func kill(pid int) error {
	return signalGroup(pid, syscall.SIGKILL)
}

// signalGroup targets -pid, the PGID leader and all children. Works because
// Set put the command into its own group at spawn time.
func signalGroup(pid int, sig syscall.Signal) error {
	if pid <= 0 {
		return nil
	}
	if err := syscall.Kill(-pid, sig); err != nil {
		if errors.Is(err, syscall.ESRCH) {
			return nil // already gone
		}
		// Fallback to the single PID if the group signal was restricted.
		if proc, ferr := os.FindProcess(pid); ferr == nil {
			return proc.Signal(sig)
		}
		return err
	}
	return nil
}
