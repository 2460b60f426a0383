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
	"sync/atomic"
	"time"

	"github.com/Workiva/go-datastructures/queue"
)

const latencyWindowSize = 1024

// stats tracks per-handle operation counters. Counters are process-local:
// each side of a channel observes its own operations. Latency samples are
// buffered in a bounded lock-free ring and folded into the running
// average when a snapshot is taken; when the ring is full, new samples
// are dropped rather than stalling the hot path.
type stats struct {
	totalWrites atomic.Uint64
	totalReads  atomic.Uint64
	tornReads   atomic.Uint64

	latencies *queue.RingBuffer

	latencySumNs atomic.Int64
	latencyCount atomic.Int64
}

func newStats() *stats {
	return &stats{latencies: queue.NewRingBuffer(latencyWindowSize)}
}

func (s *stats) recordWrite(d time.Duration) {
	s.totalWrites.Add(1)
	s.observe(d)
}

func (s *stats) recordRead(d time.Duration) {
	s.totalReads.Add(1)
	s.observe(d)
}

func (s *stats) recordTorn() {
	s.tornReads.Add(1)
}

func (s *stats) observe(d time.Duration) {
	// Sample is dropped when the window is full.
	_, _ = s.latencies.Offer(int64(d))
}

// drain folds buffered samples into the cumulative average.
func (s *stats) drain() {
	for n := s.latencies.Len(); n > 0; n-- {
		v, err := s.latencies.Get()
		if err != nil {
			return
		}
		ns, ok := v.(int64)
		if !ok {
			continue
		}
		s.latencySumNs.Add(ns)
		s.latencyCount.Add(1)
	}
}

func (s *stats) avgLatency() time.Duration {
	s.drain()
	count := s.latencyCount.Load()
	if count == 0 {
		return 0
	}
	return time.Duration(s.latencySumNs.Load() / count)
}

// StatSnapshot is the diagnostics view of a channel, as polled by the
// monitoring side (name, capacity, occupancy, sequencing and torn reads).
type StatSnapshot struct {
	Name        string
	Mode        Mode
	Capacity    uint32
	Used        uint32
	Available   uint32
	SequenceID  uint64
	TotalWrites uint64
	TotalReads  uint64
	TornReads   uint64
	AvgLatency  time.Duration
}
