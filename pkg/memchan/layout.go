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
	"sync/atomic"
	"unsafe"
)

// Segment layout, all little-endian.
//
// Header (32-byte aligned, both modes):
//
//	[0:4)   write offset (RingQueue only)
//	[4:8)   read offset  (RingQueue only)
//	[8:12)  sequence id  (RingQueue only)
//	[12:16) capacity of the data region
//	[16:20) magic 0xDEADBEEF
//
// RingQueue frame, stored in the circular data region and possibly
// straddling the wrap boundary: [0:4) sequence id, [4:8) length, payload.
//
// LatestValue slot, at the start of the data region:
// [0:8) start sequence, [8:12) length, payload, [12+len:20+len) end sequence.
const (
	headerSize = 32

	offWrite = 0
	offRead  = 4
	offSeq   = 8
	offCap   = 12
	offMagic = 16

	headerMagic uint32 = 0xDEADBEEF

	// FrameOverhead is the per-frame cost in a RingQueue data region.
	FrameOverhead = 8

	// SlotOverhead is the fixed cost of a LatestValue slot: start
	// sequence, length and end sequence.
	SlotOverhead = 8 + 4 + 8

	slotStart = 0
	slotLen   = 8
	slotData  = 12

	// MinCapacity is the smallest accepted data region size.
	MinCapacity = 64
)

// header is a view over the fixed-size segment header. Field ownership is
// strict: the producer mutates write offset and sequence id, the consumer
// mutates the read offset. Capacity and magic are written once at create
// time and read-only afterwards.
type header struct {
	mem []byte
}

func (h header) u32(off int) *uint32 {
	return (*uint32)(unsafe.Pointer(&h.mem[off]))
}

func (h header) writeOff() uint32     { return atomic.LoadUint32(h.u32(offWrite)) }
func (h header) setWriteOff(v uint32) { atomic.StoreUint32(h.u32(offWrite), v) }
func (h header) readOff() uint32      { return atomic.LoadUint32(h.u32(offRead)) }
func (h header) setReadOff(v uint32)  { atomic.StoreUint32(h.u32(offRead), v) }
func (h header) seq() uint32          { return atomic.LoadUint32(h.u32(offSeq)) }
func (h header) setSeq(v uint32)      { atomic.StoreUint32(h.u32(offSeq), v) }
func (h header) capacity() uint32     { return atomic.LoadUint32(h.u32(offCap)) }
func (h header) setCapacity(v uint32) { atomic.StoreUint32(h.u32(offCap), v) }
func (h header) magic() uint32        { return atomic.LoadUint32(h.u32(offMagic)) }
func (h header) setMagic(v uint32)    { atomic.StoreUint32(h.u32(offMagic), v) }

// data returns the circular data region following the header.
func (h header) data() []byte { return h.mem[headerSize:] }

// used reports the bytes currently occupied between the two offsets.
func used(w, r, capacity uint32) uint32 {
	return (w + capacity - r) % capacity
}

// available reports the bytes a producer may still write. One byte stays
// reserved so that writeOff == readOff always means empty, never full.
func available(w, r, capacity uint32) uint32 {
	return capacity - used(w, r, capacity) - 1
}

// copyIn copies src into the circular region at off, splitting the copy
// when it crosses the wrap boundary.
func copyIn(region []byte, off uint32, src []byte) {
	capacity := uint32(len(region))
	first := capacity - off
	if uint32(len(src)) <= first {
		copy(region[off:], src)
		return
	}
	copy(region[off:], src[:first])
	copy(region, src[first:])
}

// copyOut copies n bytes out of the circular region starting at off into
// dst, splitting when wrapped. The result is byte-identical to the
// non-wrapping case.
func copyOut(dst []byte, region []byte, off, n uint32) {
	capacity := uint32(len(region))
	first := capacity - off
	if n <= first {
		copy(dst, region[off:off+n])
		return
	}
	copy(dst, region[off:])
	copy(dst[first:], region[:n-first])
}

// peekU32 reads a little-endian uint32 from the circular region at off,
// wrap-aware.
func peekU32(region []byte, off uint32) uint32 {
	var scratch [4]byte
	copyOut(scratch[:], region, off, 4)
	return binary.LittleEndian.Uint32(scratch[:])
}

// pokeU32 writes a little-endian uint32 into the circular region at off,
// wrap-aware.
func pokeU32(region []byte, off uint32, v uint32) {
	var scratch [4]byte
	binary.LittleEndian.PutUint32(scratch[:], v)
	copyIn(region, off, scratch[:])
}
