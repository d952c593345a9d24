//go:build linux

// Package platform detects how many CPUs this process may actually use,
// so cmd/bench can default its worker count to the scheduler's affinity
// mask rather than the full machine core count.
package platform

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// AvailableCPUs returns the number of CPUs in this process's current
// scheduling affinity mask, falling back to runtime.NumCPU() if the
// mask can't be read (containers/kernels that don't support it).
func AvailableCPUs() int {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return runtime.NumCPU()
	}
	n := set.Count()
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}
