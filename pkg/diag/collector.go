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

// Package diag exposes memchan channel diagnostics: a Prometheus
// collector, a liveness/readiness handler and a concurrent stats poller.
package diag

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/quantfabric/memchan/pkg/memchan"
)

// SnapshotSource yields channel stats. *memchan.Registry satisfies it.
type SnapshotSource interface {
	Snapshots() []memchan.StatSnapshot
}

var (
	descWrites = prometheus.NewDesc("memchan_writes_total",
		"Messages written to the channel.", []string{"channel", "mode"}, nil)
	descReads = prometheus.NewDesc("memchan_reads_total",
		"Messages read from the channel.", []string{"channel", "mode"}, nil)
	descTorn = prometheus.NewDesc("memchan_torn_reads_total",
		"Reads discarded by the consistency protocol.", []string{"channel", "mode"}, nil)
	descUsed = prometheus.NewDesc("memchan_used_bytes",
		"Bytes currently occupied in the data region.", []string{"channel", "mode"}, nil)
	descAvailable = prometheus.NewDesc("memchan_available_bytes",
		"Bytes still writable in the data region.", []string{"channel", "mode"}, nil)
	descSequence = prometheus.NewDesc("memchan_sequence_id",
		"Producer sequence counter.", []string{"channel", "mode"}, nil)
	descLatency = prometheus.NewDesc("memchan_avg_latency_seconds",
		"Rolling average channel operation latency.", []string{"channel", "mode"}, nil)
)

// Collector exports per-channel stats to Prometheus. Register it with a
// prometheus.Registerer; each scrape takes fresh snapshots.
type Collector struct {
	source SnapshotSource
}

// NewCollector builds a Collector over the given source.
func NewCollector(source SnapshotSource) *Collector {
	return &Collector{source: source}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- descWrites
	ch <- descReads
	ch <- descTorn
	ch <- descUsed
	ch <- descAvailable
	ch <- descSequence
	ch <- descLatency
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, s := range c.source.Snapshots() {
		labels := []string{s.Name, s.Mode.String()}
		ch <- prometheus.MustNewConstMetric(descWrites, prometheus.CounterValue, float64(s.TotalWrites), labels...)
		ch <- prometheus.MustNewConstMetric(descReads, prometheus.CounterValue, float64(s.TotalReads), labels...)
		ch <- prometheus.MustNewConstMetric(descTorn, prometheus.CounterValue, float64(s.TornReads), labels...)
		ch <- prometheus.MustNewConstMetric(descUsed, prometheus.GaugeValue, float64(s.Used), labels...)
		ch <- prometheus.MustNewConstMetric(descAvailable, prometheus.GaugeValue, float64(s.Available), labels...)
		ch <- prometheus.MustNewConstMetric(descSequence, prometheus.GaugeValue, float64(s.SequenceID), labels...)
		ch <- prometheus.MustNewConstMetric(descLatency, prometheus.GaugeValue, s.AvgLatency.Seconds(), labels...)
	}
}
