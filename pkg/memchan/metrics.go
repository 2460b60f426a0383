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

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// instruments carries the OTel counters for one channel handle. With no
// Meter configured everything below is a no-op and costs one interface
// call per operation.
type instruments struct {
	writes metric.Int64Counter
	reads  metric.Int64Counter
	torn   metric.Int64Counter
	attrs  metric.AddOption
	tracer trace.Tracer
}

func newInstruments(meter metric.Meter, tracer trace.Tracer, channel string) *instruments {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("memchan")
	}
	if tracer == nil {
		tracer = tracenoop.NewTracerProvider().Tracer("memchan")
	}
	writes, _ := meter.Int64Counter("memchan.writes",
		metric.WithDescription("Messages written to the channel"))
	reads, _ := meter.Int64Counter("memchan.reads",
		metric.WithDescription("Messages read from the channel"))
	torn, _ := meter.Int64Counter("memchan.torn_reads",
		metric.WithDescription("Reads discarded by the consistency protocol"))
	return &instruments{
		writes: writes,
		reads:  reads,
		torn:   torn,
		attrs:  metric.WithAttributes(attribute.String("channel", channel)),
		tracer: tracer,
	}
}

func (m *instruments) addWrite() { m.writes.Add(context.Background(), 1, m.attrs) }
func (m *instruments) addRead()  { m.reads.Add(context.Background(), 1, m.attrs) }
func (m *instruments) addTorn()  { m.torn.Add(context.Background(), 1, m.attrs) }
