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
	"fmt"
	"time"
)

// RingQueue mode: a FIFO byte queue over the circular data region.
//
// The producer owns writeOff and seq, the consumer owns readOff; that
// field ownership is the whole locking story. One byte of the region is
// kept reserved so writeOff == readOff always means empty.
//
// Frames are [seq u32][length u32][payload] and may straddle the wrap
// boundary; split copies are byte-identical to the contiguous case.

// writeRing appends one frame. Failure is atomic: on any error path the
// header has not been touched.
func (c *Channel) writeRing(payload []byte) error {
	start := time.Now()
	n := uint32(len(payload))
	if n == 0 {
		return fmt.Errorf("%w: zero-length payload", ErrSerialization)
	}
	if n > c.capacity-FrameOverhead {
		return fmt.Errorf("%w: %d > %d", ErrOversizedMessage, n, c.capacity-FrameOverhead)
	}
	required := n + FrameOverhead

	// Snapshot both offsets. No further synchronization is needed: the
	// consumer only ever moves readOff forward, which can only increase
	// the space computed below.
	w := c.hdr.writeOff()
	r := c.hdr.readOff()
	if required > available(w, r, c.capacity) {
		return ErrBufferFull
	}

	seq := c.hdr.seq() + 1
	region := c.hdr.data()
	pokeU32(region, w, seq)
	pokeU32(region, (w+4)%c.capacity, n)
	copyIn(region, (w+FrameOverhead)%c.capacity, payload)

	// Publishing the new offset and sequence is the last observable
	// effect; the atomic stores act as the release side of the pair.
	c.hdr.setWriteOff((w + required) % c.capacity)
	c.hdr.setSeq(seq)

	c.stats.recordWrite(time.Since(start))
	c.metrics.addWrite()
	return nil
}

// readRing consumes the frame at readOff, if any. A sequence snapshot is
// taken before and after the payload copy; disagreement means a write
// raced the read and the bytes cannot be trusted, so they are discarded
// and ErrTornRead returned. The caller decides whether to retry.
func (c *Channel) readRing() ([]byte, uint64, error) {
	start := time.Now()

	w1 := c.hdr.writeOff()
	r := c.hdr.readOff()
	seq1 := c.hdr.seq()
	if r == w1 {
		return nil, 0, nil
	}

	region := c.hdr.data()
	frameSeq := peekU32(region, r)
	length := peekU32(region, (r+4)%c.capacity)
	if length == 0 || length > c.capacity-FrameOverhead {
		return nil, 0, fmt.Errorf("%w: frame length %d at offset %d", ErrCorruptFrame, length, r)
	}

	payload := make([]byte, length)
	copyOut(payload, region, (r+FrameOverhead)%c.capacity, length)

	if seq2 := c.hdr.seq(); seq1 != seq2 {
		c.stats.recordTorn()
		c.metrics.addTorn()
		return nil, 0, ErrTornRead
	}

	c.hdr.setReadOff((r + FrameOverhead + length) % c.capacity)

	c.stats.recordRead(time.Since(start))
	c.metrics.addRead()
	return payload, uint64(frameSeq), nil
}
