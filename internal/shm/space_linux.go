//go:build linux

package shm

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/disk"
)

// checkFreeSpace refuses segment creation when the shm filesystem cannot
// hold the requested size. tmpfs reports exact usage, so the check is a
// reliable preflight rather than a heuristic.
func checkFreeSpace(dir string, size uint64) error {
	usage, err := disk.Usage(dir)
	if err != nil {
		// Unable to stat the filesystem: let the ftruncate fail instead.
		return nil
	}
	if usage.Free < size {
		return fmt.Errorf("%w: need %d bytes, %d free in %s", ErrNoSpace, size, usage.Free, dir)
	}
	return nil
}
