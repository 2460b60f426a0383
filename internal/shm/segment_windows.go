//go:build windows

package shm

import "errors"

var errUnsupported = errors.New("shm: shared memory segments are not supported on windows")

// Create is not supported on windows.
func Create(name string, size int) (*Segment, error) { return nil, errUnsupported }

// Attach is not supported on windows.
func Attach(name string) (*Segment, error) { return nil, errUnsupported }

// Close releases the mapping. Idempotent.
func (s *Segment) Close() error { return nil }

// Unlink removes the backing file.
func (s *Segment) Unlink() error { return errUnsupported }

// Exists reports whether a segment with the given name is present.
func Exists(name string) bool { return false }
