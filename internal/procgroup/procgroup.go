// Package procgroup starts external players in their own process group so
// the whole tree can be terminated when the sink closes. The caller owns
// waiting on the command; this package only delivers group signals.
package procgroup

import "os/exec"

// Set configures cmd to start in a new process group. Required for
// Terminate and Kill to reach the player's children.
func Set(cmd *exec.Cmd) {
	set(cmd)
}

// Terminate asks the process group led by pid to exit (SIGTERM on unix).
// A group that is already gone is not an error.
func Terminate(pid int) error {
	return terminate(pid)
}

// Kill forcibly ends the process group led by pid.
func Kill(pid int) error {
	return kill(pid)
}
