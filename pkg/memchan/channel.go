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
	"context"
	"fmt"
	"io"
	"sync/atomic"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/quantfabric/memchan/internal/shm"
)

// Mode selects the channel's delivery semantics at open time.
type Mode uint8

const (
	// ModeRingQueue is a FIFO byte queue with wraparound. Writes fail
	// fast with ErrBufferFull under back-pressure.
	ModeRingQueue Mode = iota
	// ModeLatestValue is a single-slot overwrite channel: a write always
	// succeeds and silently supersedes any unread predecessor.
	ModeLatestValue
)

func (m Mode) String() string {
	switch m {
	case ModeRingQueue:
		return "ring_queue"
	case ModeLatestValue:
		return "latest_value"
	default:
		return "unknown"
	}
}

// Role declares which side of the channel this process is. The producer
// creates and owns the segment; the consumer attaches to it. Exactly one
// of each per name is a documented precondition, not runtime-checked.
type Role uint8

const (
	RoleProducer Role = iota
	RoleConsumer
)

func (r Role) String() string {
	if r == RoleProducer {
		return "producer"
	}
	return "consumer"
}

// Options configures a channel handle. The zero value is usable: no-op
// telemetry, JSON codec, stdout logger.
type Options struct {
	// Meter and Tracer instrument channel operations; nil means no-op.
	Meter  metric.Meter
	Tracer trace.Tracer
	// Codec converts messages for WriteMessage/ReadMessage. Defaults to
	// the pooled JSON codec.
	Codec Codec
	// LogOutput overrides the internal logger destination.
	LogOutput io.Writer
}

// Option mutates Options.
type Option func(*Options)

// WithMeter sets the OTel meter used for per-channel counters.
func WithMeter(m metric.Meter) Option { return func(o *Options) { o.Meter = m } }

// WithTracer sets the OTel tracer used for lifecycle spans.
func WithTracer(t trace.Tracer) Option { return func(o *Options) { o.Tracer = t } }

// WithCodec replaces the default JSON codec.
func WithCodec(c Codec) Option { return func(o *Options) { o.Codec = c } }

// WithLogOutput redirects the handle's internal logger.
func WithLogOutput(w io.Writer) Option { return func(o *Options) { o.LogOutput = w } }

// Channel is one process's handle on a named SPSC shared-memory channel.
//
// A channel has exactly one producer and one consumer process; under that
// discipline no operation takes a lock and none blocks. Write returns
// ErrBufferFull (RingQueue) or overwrites (LatestValue) immediately, Read
// returns an empty result immediately. Callers wanting blocking behavior
// loop externally with their own backoff (see pkg/retry).
type Channel struct {
	name     string
	mode     Mode
	role     Role
	capacity uint32

	seg *shm.Segment
	hdr header

	// localSeq mirrors the producer-owned sequence counter so writes do
	// not depend on reading back shared memory.
	localSeq atomic.Uint64

	stats   *stats
	metrics *instruments
	codec   Codec
	log     *logger
	closed  atomic.Bool
}

// Open creates (RoleProducer) or attaches to (RoleConsumer) the named
// channel. capacityBytes is the size of the data region; values below
// MinCapacity fail with ErrInvalidCapacity. The producer initializes the
// segment; the consumer validates magic and capacity before use.
func Open(name string, capacityBytes int, mode Mode, role Role, opts ...Option) (*Channel, error) {
	var o Options
	for _, fn := range opts {
		fn(&o)
	}
	if o.Codec == nil {
		o.Codec = jsonCodec{}
	}

	if capacityBytes < MinCapacity {
		return nil, fmt.Errorf("%w: %d < %d", ErrInvalidCapacity, capacityBytes, MinCapacity)
	}

	inst := newInstruments(o.Meter, o.Tracer, name)
	_, span := inst.tracer.Start(context.Background(), "memchan.Open")
	defer span.End()

	var (
		seg *shm.Segment
		err error
	)
	if role == RoleProducer {
		seg, err = shm.Create(name, headerSize+capacityBytes)
	} else {
		seg, err = shm.Attach(name)
	}
	if err != nil {
		return nil, err
	}

	c := &Channel{
		name:     name,
		mode:     mode,
		role:     role,
		capacity: uint32(capacityBytes),
		seg:      seg,
		hdr:      header{mem: seg.Bytes()},
		stats:    newStats(),
		metrics:  inst,
		codec:    o.Codec,
		log:      newLogger("memchan/"+name, o.LogOutput),
	}

	if role == RoleProducer {
		c.hdr.setWriteOff(0)
		c.hdr.setReadOff(0)
		c.hdr.setSeq(0)
		c.hdr.setCapacity(c.capacity)
		c.hdr.setMagic(headerMagic)
	} else {
		if seg.Size() < headerSize {
			_ = seg.Close()
			return nil, fmt.Errorf("%w: segment %q smaller than header", ErrCorruptFrame, name)
		}
		if m := c.hdr.magic(); m != headerMagic {
			_ = seg.Close()
			return nil, fmt.Errorf("%w: segment %q magic %#x", ErrCorruptFrame, name, m)
		}
		if got := c.hdr.capacity(); got != c.capacity {
			_ = seg.Close()
			return nil, fmt.Errorf("%w: segment %q holds %d bytes, caller expects %d",
				ErrInvalidCapacity, name, got, capacityBytes)
		}
	}

	if mode == ModeLatestValue {
		c.localSeq.Store(c.slotStartSeq())
	}

	c.log.debugf("opened %s channel %q as %s, capacity %d", mode, name, role, capacityBytes)
	return c, nil
}

// Name returns the channel name.
func (c *Channel) Name() string { return c.name }

// Mode returns the delivery mode selected at open time.
func (c *Channel) Mode() Mode { return c.mode }

// Role returns which side of the channel this handle is.
func (c *Channel) Role() Role { return c.role }

// Capacity returns the data region size in bytes.
func (c *Channel) Capacity() uint32 { return c.capacity }

// Write publishes payload according to the channel mode. It never blocks:
// a full RingQueue fails with ErrBufferFull and an untouched header, a
// LatestValue slot is overwritten unconditionally.
func (c *Channel) Write(payload []byte) error {
	if c.closed.Load() {
		return ErrClosed
	}
	if c.mode == ModeLatestValue {
		return c.writeLatest(payload)
	}
	return c.writeRing(payload)
}

// Read consumes the next message. An empty channel returns (nil, 0, nil);
// that is an ordinary result, not an error. The returned sequence number
// is the producer's per-message counter.
func (c *Channel) Read() ([]byte, uint64, error) {
	if c.closed.Load() {
		return nil, 0, ErrClosed
	}
	if c.mode == ModeLatestValue {
		return c.readLatest()
	}
	return c.readRing()
}

// WriteMessage encodes v with the channel codec and writes it.
func (c *Channel) WriteMessage(v interface{}) error {
	payload, err := c.codec.Marshal(v)
	if err != nil {
		return err
	}
	return c.Write(payload)
}

// ReadMessage reads and decodes the next message into v. It reports false
// with a nil error when the channel is empty.
func (c *Channel) ReadMessage(v interface{}) (bool, uint64, error) {
	payload, seq, err := c.Read()
	if err != nil {
		return false, 0, err
	}
	if payload == nil {
		return false, 0, nil
	}
	if err := c.codec.Unmarshal(payload, v); err != nil {
		return false, 0, err
	}
	return true, seq, nil
}

// Stats returns a diagnostics snapshot of the channel.
func (c *Channel) Stats() StatSnapshot {
	snap := StatSnapshot{
		Name:        c.name,
		Mode:        c.mode,
		Capacity:    c.capacity,
		TotalWrites: c.stats.totalWrites.Load(),
		TotalReads:  c.stats.totalReads.Load(),
		TornReads:   c.stats.tornReads.Load(),
		AvgLatency:  c.stats.avgLatency(),
	}
	if c.closed.Load() {
		return snap
	}
	if c.mode == ModeRingQueue {
		w, r := c.hdr.writeOff(), c.hdr.readOff()
		snap.Used = used(w, r, c.capacity)
		snap.Available = available(w, r, c.capacity)
		snap.SequenceID = uint64(c.hdr.seq())
	} else {
		snap.SequenceID = c.slotStartSeq()
		if snap.SequenceID > 0 {
			snap.Used = c.slotLen() + SlotOverhead
		}
		snap.Available = c.capacity - snap.Used
	}
	return snap
}

// Check reports whether the handle is usable: mapping alive and segment
// magic intact. Used by health probes.
func (c *Channel) Check() error {
	if c.closed.Load() {
		return ErrClosed
	}
	if m := c.hdr.magic(); m != headerMagic {
		return fmt.Errorf("%w: magic %#x", ErrCorruptFrame, m)
	}
	return nil
}

// Close releases this process's mapping. Idempotent; it never unlinks.
func (c *Channel) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	err := c.seg.Close()
	if err != nil {
		c.log.warnf("close channel %q: %v", c.name, err)
		return err
	}
	c.log.debugf("closed channel %q", c.name)
	return nil
}

// Unlink removes the backing segment so no further attach can find it.
// Only the owning producer should call it; it is never called implicitly,
// so a slower consumer keeps its mapping until its own Close.
func (c *Channel) Unlink() error {
	return c.seg.Unlink()
}
