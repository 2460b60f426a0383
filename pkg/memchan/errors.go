/*
 * Copyright 2026 Quantfabric Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package memchan

import (
	"errors"

	"github.com/quantfabric/memchan/internal/shm"
)

var (
	// ErrNameCollision reports that the producer could not (re)create the
	// backing segment even after removing a stale one.
	ErrNameCollision = shm.ErrNameCollision

	// ErrNotFound reports that no segment exists for the requested name.
	ErrNotFound = shm.ErrNotFound

	// ErrAlreadyUnlinked reports a repeated Unlink through the same handle.
	ErrAlreadyUnlinked = shm.ErrAlreadyUnlinked

	// ErrInvalidCapacity reports a capacity below MinCapacity at open time.
	ErrInvalidCapacity = errors.New("memchan: capacity below minimum")

	// ErrOversizedMessage reports a payload that can never fit the channel,
	// regardless of how much the consumer drains.
	ErrOversizedMessage = errors.New("memchan: message exceeds channel capacity")

	// ErrBufferFull reports transient back-pressure on a RingQueue channel.
	// The write left the header untouched; retrying after the consumer
	// drains is expected to succeed.
	ErrBufferFull = errors.New("memchan: ring buffer full")

	// ErrTornRead reports that the consumer raced a concurrent write and
	// discarded the payload. Benign; the caller decides whether to retry.
	ErrTornRead = errors.New("memchan: torn read")

	// ErrCorruptFrame reports a frame header that failed sanity checks.
	// The channel must be recreated; no retry will help.
	ErrCorruptFrame = errors.New("memchan: corrupt frame")

	// ErrSerialization reports a payload encode/decode failure. Channel
	// state is untouched.
	ErrSerialization = errors.New("memchan: serialization failed")

	// ErrClosed reports an operation on a closed channel.
	ErrClosed = errors.New("memchan: channel closed")
)

// IsRetryable reports whether err is a transient condition that a caller
// may retry with its own backoff. Lifecycle and construction errors are
// never retryable, and ErrCorruptFrame requires recreating the channel.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrBufferFull) || errors.Is(err, ErrTornRead)
}
