//go:build linux || darwin

package pipeline

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// DescriptorCapacity is the default CapacityFunc. Every probe in flight holds
// one socket, so the soft RLIMIT_NOFILE limit, minus a reserve, bounds the
// useful concurrency. When the soft limit is too low it is raised toward the
// hard limit first.
func DescriptorCapacity(requested int) (int, error) {
	var lim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &lim); err != nil {
		return 0, fmt.Errorf("failed to read descriptor limit: %w", err)
	}

	need := uint64(requested) + descriptorReserve
	if lim.Cur < need && lim.Max > lim.Cur {
		raised := lim
		raised.Cur = min(need, lim.Max)
		if err := unix.Setrlimit(unix.RLIMIT_NOFILE, &raised); err == nil {
			lim = raised
		}
	}

	if lim.Cur <= descriptorReserve {
		return 0, fmt.Errorf("descriptor limit %d leaves no room for probes", lim.Cur)
	}
	available := lim.Cur - descriptorReserve
	if available >= uint64(requested) {
		return requested, nil
	}
	return int(available), nil
}
