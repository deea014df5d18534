//go:build unix

package killer

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

var unixSignals = map[Signal]unix.Signal{
	Term: unix.SIGTERM,
	Kill: unix.SIGKILL,
	Int:  unix.SIGINT,
	Hup:  unix.SIGHUP,
}

type unixSignaler struct{}

func newPlatformSignaler() signaler {
	return unixSignaler{}
}

func (unixSignaler) send(pid int, sig Signal) error {
	s, ok := unixSignals[sig]
	if !ok {
		return fmt.Errorf("unknown signal %q", sig)
	}
	return translate(unix.Kill(pid, s))
}

// alive probes with signal 0. EPERM means the process exists but belongs to
// someone else; anything but ESRCH is treated as alive.
func (unixSignaler) alive(pid int) bool {
	err := unix.Kill(pid, 0)
	return !errors.Is(err, unix.ESRCH)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, unix.EPERM):
		return ErrPermissionDenied
	case errors.Is(err, unix.ESRCH):
		return ErrProcessVanished
	default:
		return err
	}
}
