//go:build !linux && !darwin

package tactile

import "os/exec"

// getProcessResourceUsage is not available on this platform.
func getProcessResourceUsage(cmd *exec.Cmd) *ResourceUsage {
	return nil
}
