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
	"encoding/binary"
	"fmt"
	"sync/atomic"
	"time"
	"unsafe"
)

// LatestValue mode: a single slot holding the freshest value only.
//
// Slot layout: [startSeq u64][length u32][payload][endSeq u64]. The
// producer bumps startSeq first and writes the footer last, so matching
// sequence markers prove the payload between them belongs to one complete
// write. The sequence is a monotonic counter, not a timestamp: back-to-
// back writes must never reuse a sequence number or torn-read detection
// would pass by coincidence.

func (c *Channel) slot() []byte { return c.hdr.data() }

func (c *Channel) slotStartSeq() uint64 {
	return atomic.LoadUint64((*uint64)(unsafe.Pointer(&c.slot()[slotStart])))
}

func (c *Channel) setSlotStartSeq(v uint64) {
	atomic.StoreUint64((*uint64)(unsafe.Pointer(&c.slot()[slotStart])), v)
}

func (c *Channel) slotLen() uint32 {
	return atomic.LoadUint32((*uint32)(unsafe.Pointer(&c.slot()[slotLen])))
}

func (c *Channel) setSlotLen(v uint32) {
	atomic.StoreUint32((*uint32)(unsafe.Pointer(&c.slot()[slotLen])), v)
}

// writeLatest overwrites the slot. It always succeeds for payloads that
// fit; an unread predecessor is silently superseded. Write order is
// startSeq, length, payload, endSeq — the footer is the commit marker.
func (c *Channel) writeLatest(payload []byte) error {
	start := time.Now()
	n := uint32(len(payload))
	if n == 0 {
		return fmt.Errorf("%w: zero-length payload", ErrSerialization)
	}
	if n > c.capacity-SlotOverhead {
		return fmt.Errorf("%w: %d > %d", ErrOversizedMessage, n, c.capacity-SlotOverhead)
	}

	seq := c.localSeq.Add(1)
	slot := c.slot()

	c.setSlotStartSeq(seq)
	c.setSlotLen(n)
	copy(slot[slotData:], payload)
	binary.LittleEndian.PutUint64(slot[slotData+n:], seq)

	c.stats.recordWrite(time.Since(start))
	c.metrics.addWrite()
	return nil
}

// readLatest returns the slot value. The start sequence is loaded before
// the payload copy and again after the footer; any disagreement means the
// producer was mid-overwrite and the bytes are discarded as ErrTornRead.
// A slow consumer misses intermediate writes by design.
func (c *Channel) readLatest() ([]byte, uint64, error) {
	start := time.Now()

	s1 := c.slotStartSeq()
	if s1 == 0 {
		return nil, 0, nil
	}

	length := c.slotLen()
	if length == 0 || length > c.capacity-SlotOverhead {
		return nil, 0, fmt.Errorf("%w: slot length %d", ErrCorruptFrame, length)
	}

	slot := c.slot()
	payload := make([]byte, length)
	copy(payload, slot[slotData:slotData+length])
	footer := binary.LittleEndian.Uint64(slot[slotData+length:])

	if s2 := c.slotStartSeq(); s1 != footer || s1 != s2 {
		c.stats.recordTorn()
		c.metrics.addTorn()
		return nil, 0, ErrTornRead
	}

	c.stats.recordRead(time.Since(start))
	c.metrics.addRead()
	return payload, s1, nil
}
