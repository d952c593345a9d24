//go:build !linux

package platform

import "runtime"

// AvailableCPUs falls back to runtime.NumCPU() on platforms without a
// portable affinity-mask query.
func AvailableCPUs() int {
	return runtime.NumCPU()
}
