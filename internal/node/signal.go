package node

import "golang.org/x/sys/unix"

// Signaller delivers signals to native process handles. Signal 0 probes
// whether the process exists.
type Signaller interface {
	Signal(pid int, sig unix.Signal) error
}

// ProcessSignaller signals real processes with kill(2).
type ProcessSignaller struct{}

func (ProcessSignaller) Signal(pid int, sig unix.Signal) error {
	return unix.Kill(pid, sig)
}
