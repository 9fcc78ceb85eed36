//go:build unix

package platform

import (
	"errors"

	"golang.org/x/sys/unix"
)

// ProcessAlive reports whether a process with the given PID exists.
// A permission error still means the process exists.
func ProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}
