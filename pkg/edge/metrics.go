/*
 * Copyright 2025 the EdgeFleet Authors.
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

package edge

import "sync/atomic"

// Metrics counts protocol-level outcomes.
type Metrics interface {
	EventPersisted()
	EventDropped()
	BatchSent(size int)
	BatchFailed()
	// QueueLag records how many events remain queued past the committed
	// offset, observed once per fetch.
	QueueLag(remaining int64)
	CycleDetected()
	UplinkApplied()
	UplinkConflict()
	RPCTimedOut()
}

// NoOpMetrics discards all observations.
type NoOpMetrics struct{}

func (NoOpMetrics) EventPersisted() {}
func (NoOpMetrics) EventDropped() {}
func (NoOpMetrics) BatchSent(int) {}
func (NoOpMetrics) BatchFailed() {}
func (NoOpMetrics) QueueLag(int64) {}
func (NoOpMetrics) CycleDetected() {}
func (NoOpMetrics) UplinkApplied() {}
func (NoOpMetrics) UplinkConflict() {}
func (NoOpMetrics) RPCTimedOut() {}

// InMemoryMetrics keeps atomic counters; snapshots are read with the
// getter methods.
type InMemoryMetrics struct {
	eventsPersisted atomic.Int64
	eventsDropped   atomic.Int64
	batchesSent     atomic.Int64
	eventsSent      atomic.Int64
	batchesFailed   atomic.Int64
	queueLag        atomic.Int64
	cyclesDetected  atomic.Int64
	uplinksApplied  atomic.Int64
	uplinkConflicts atomic.Int64
	rpcTimeouts     atomic.Int64
}

func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{}
}

func (m *InMemoryMetrics) EventPersisted() { m.eventsPersisted.Add(1) }
func (m *InMemoryMetrics) EventDropped() { m.eventsDropped.Add(1) }

func (m *InMemoryMetrics) BatchSent(size int) {
	m.batchesSent.Add(1)
	m.eventsSent.Add(int64(size))
}

func (m *InMemoryMetrics) BatchFailed() { m.batchesFailed.Add(1) }
func (m *InMemoryMetrics) QueueLag(remaining int64) { m.queueLag.Store(remaining) }
func (m *InMemoryMetrics) CycleDetected() { m.cyclesDetected.Add(1) }
func (m *InMemoryMetrics) UplinkApplied() { m.uplinksApplied.Add(1) }
func (m *InMemoryMetrics) UplinkConflict() { m.uplinkConflicts.Add(1) }
func (m *InMemoryMetrics) RPCTimedOut() { m.rpcTimeouts.Add(1) }

func (m *InMemoryMetrics) EventsPersisted() int64 { return m.eventsPersisted.Load() }
func (m *InMemoryMetrics) EventsDropped() int64 { return m.eventsDropped.Load() }
func (m *InMemoryMetrics) BatchesSent() int64 { return m.batchesSent.Load() }
func (m *InMemoryMetrics) EventsSent() int64 { return m.eventsSent.Load() }
func (m *InMemoryMetrics) BatchesFailed() int64 { return m.batchesFailed.Load() }
func (m *InMemoryMetrics) CurrentQueueLag() int64 { return m.queueLag.Load() }
func (m *InMemoryMetrics) CyclesDetected() int64 { return m.cyclesDetected.Load() }
func (m *InMemoryMetrics) UplinksApplied() int64 { return m.uplinksApplied.Load() }
func (m *InMemoryMetrics) UplinkConflicts() int64 { return m.uplinkConflicts.Load() }
func (m *InMemoryMetrics) RPCTimeouts() int64 { return m.rpcTimeouts.Load() }
