//go:build windows

package supervisor

import "os"

// Windows has no SIGTERM; TerminateProcess is the closest equivalent.
func terminate(p *os.Process) error {
	return p.Kill()
}
