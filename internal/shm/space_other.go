//go:build !linux

package shm

// checkFreeSpace is a no-op off Linux; non-tmpfs backing filesystems
// allocate lazily and free-space numbers are not meaningful up front.
func checkFreeSpace(dir string, size uint64) error {
	return nil
}
