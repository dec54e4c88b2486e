//go:build linux

package tactile

import "syscall"

// getMaxRSSBytes converts Maxrss, reported in kilobytes on Linux.
func getMaxRSSBytes(r *syscall.Rusage) int64 {
	return r.Maxrss * 1024
}
