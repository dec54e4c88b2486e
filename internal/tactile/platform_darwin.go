//go:build darwin

package tactile

import "syscall"

// getMaxRSSBytes returns Maxrss, already in bytes on macOS.
func getMaxRSSBytes(r *syscall.Rusage) int64 {
	return r.Maxrss
}
