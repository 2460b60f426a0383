//go:build unix

package shm

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// Create creates a named segment of the given size and maps it read-write.
// A stale file left behind by a crashed process is removed first; creation
// is then retried once, and ErrNameCollision reported only if the retry
// itself fails.
func Create(name string, size int) (*Segment, error) {
	if size <= 0 {
		return nil, fmt.Errorf("shm: invalid segment size %d", size)
	}
	path := segmentPath(name)
	if err := checkFreeSpace(filepath.Dir(path), uint64(size)); err != nil {
		return nil, err
	}

	fd, err := unix.Open(path, unix.O_CREAT|unix.O_EXCL|unix.O_RDWR, 0o600)
	if err != nil {
		// Stale segment from a prior crash: unlink and recreate.
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: removing stale %s: %v", ErrNameCollision, path, err)
		}
		fd, err = unix.Open(path, unix.O_CREAT|unix.O_EXCL|unix.O_RDWR, 0o600)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrNameCollision, path, err)
		}
	}

	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		_ = unix.Close(fd)
		_ = os.Remove(path)
		return nil, fmt.Errorf("shm: ftruncate %s: %w", path, err)
	}
	mem, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Close(fd)
		_ = os.Remove(path)
		return nil, fmt.Errorf("shm: mmap %s: %w", path, err)
	}
	// The mapping keeps the region alive; the descriptor is not needed
	// past this point.
	_ = unix.Close(fd)

	for i := range mem {
		mem[i] = 0
	}
	return &Segment{name: name, path: path, mem: mem}, nil
}

// Attach maps an existing named segment read-write at its current size.
func Attach(name string) (*Segment, error) {
	path := segmentPath(name)
	fd, err := unix.Open(path, unix.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("shm: fstat %s: %w", path, err)
	}
	mem, err := unix.Mmap(fd, 0, int(st.Size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("shm: mmap %s: %w", path, err)
	}
	_ = unix.Close(fd)
	return &Segment{name: name, path: path, mem: mem}, nil
}

// Close releases this process's mapping. Idempotent.
func (s *Segment) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.mem == nil {
		return nil
	}
	mem := s.mem
	s.mem = nil
	if err := unix.Munmap(mem); err != nil {
		return fmt.Errorf("shm: munmap %s: %w", s.path, err)
	}
	return nil
}

// Unlink removes the backing file so no further Attach can find it.
// Mappings held by either process stay valid until their own Close.
// A second Unlink through the same handle fails with ErrAlreadyUnlinked.
func (s *Segment) Unlink() error {
	if s.unlinked {
		return ErrAlreadyUnlinked
	}
	s.unlinked = true
	if err := os.Remove(s.path); err != nil {
		if os.IsNotExist(err) {
			return ErrAlreadyUnlinked
		}
		return fmt.Errorf("shm: unlink %s: %w", s.path, err)
	}
	return nil
}

// Exists reports whether a segment with the given name is present.
func Exists(name string) bool {
	_, err := os.Stat(segmentPath(name))
	return err == nil
}

// segmentPath resolves the backing file path for a segment name.
func segmentPath(name string) string {
	return filepath.Join(defaultDir(), "memchan_"+name)
}

func defaultDir() string {
	if info, err := os.Stat("/dev/shm"); err == nil && info.IsDir() {
		return "/dev/shm"
	}
	return os.TempDir()
}
