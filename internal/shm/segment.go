// Package shm owns the OS-backed shared memory segment lifecycle:
// create, attach, close and unlink of mmap'd regions under /dev/shm
// (or the temp directory where /dev/shm is unavailable).
//
// A Segment is one process's local mapping of a named region. Close
// releases the mapping only; Unlink removes the backing file and is the
// creating side's explicit responsibility, never implicit.
package shm

import "errors"

var (
	// ErrNameCollision is returned when a segment cannot be created
	// because recreation after stale cleanup still failed.
	ErrNameCollision = errors.New("shm: segment name collision")

	// ErrNotFound is returned by Attach when no segment with the given
	// name exists.
	ErrNotFound = errors.New("shm: segment not found")

	// ErrAlreadyUnlinked is returned by Unlink when the backing file was
	// already removed through this handle.
	ErrAlreadyUnlinked = errors.New("shm: segment already unlinked")

	// ErrNoSpace is returned when the shm filesystem has not enough free
	// space left for the requested segment.
	ErrNoSpace = errors.New("shm: not enough space left on shm filesystem")
)

// Segment is a process-local mapping of a named shared memory region.
type Segment struct {
	name     string
	path     string
	mem      []byte
	closed   bool
	unlinked bool
}

// Name returns the segment name the region was created or attached with.
func (s *Segment) Name() string { return s.name }

// Path returns the backing file path.
func (s *Segment) Path() string { return s.path }

// Bytes returns the mapped region. The slice is only valid until Close.
func (s *Segment) Bytes() []byte { return s.mem }

// Size returns the mapped size in bytes.
func (s *Segment) Size() int { return len(s.mem) }
