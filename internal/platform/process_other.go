//go:build !unix

package platform

// ProcessAlive always reports true where liveness cannot be probed.
func ProcessAlive(pid int) bool {
	return pid > 0
}
