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

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/edgefleet/edgefleet/pkg/logger"
	"github.com/edgefleet/edgefleet/pkg/models"
)

// rpcPersistTimeout bounds the write of a synthetic timeout response.
const rpcPersistTimeout = 10 * time.Second

type pendingRPC struct {
	tenantID uuid.UUID
	edgeID   uuid.UUID
	deviceID uuid.UUID
	timer    Timer
}

// RPCCorrelator tracks outstanding device RPC calls routed through an
// edge. Each pending request carries a one-shot wall-clock timeout;
// when it fires before a response arrives, a synthetic terminal
// response event is queued so the edge never waits forever.
type RPCCorrelator struct {
	mu      sync.Mutex
	pending map[string]*pendingRPC

	events  EventStore
	clock   Clock
	timeout time.Duration
	metrics Metrics
	logger  zerolog.Logger
}

func NewRPCCorrelator(events EventStore, clock Clock, metrics Metrics,
	log logger.Logger, settings models.EdgeSyncSettings) *RPCCorrelator {
	return &RPCCorrelator{
		pending: make(map[string]*pendingRPC),
		events:  events,
		clock:   clock,
		timeout: time.Duration(settings.RPCTimeout),
		metrics: metrics,
		logger:  log.WithComponent("edge.rpc"),
	}
}

// Submit registers a forwarded RPC request and arms its timeout. A
// duplicate request id replaces the previous entry and disarms its
// timer.
func (c *RPCCorrelator) Submit(requestID string, tenantID, edgeID, deviceID uuid.UUID) {
	entry := &pendingRPC{
		tenantID: tenantID,
		edgeID:   edgeID,
		deviceID: deviceID,
	}

	c.mu.Lock()

	if previous, ok := c.pending[requestID]; ok {
		previous.timer.Stop()
	}

	c.pending[requestID] = entry
	entry.timer = c.clock.AfterFunc(c.timeout, func() {
		c.onTimeout(requestID)
	})

	c.mu.Unlock()
}

// Resolve removes a pending request when its response arrives. A late
// or duplicate response is a no-op, not an error.
func (c *RPCCorrelator) Resolve(requestID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.pending[requestID]
	if !ok {
		return false
	}

	entry.timer.Stop()
	delete(c.pending, requestID)

	return true
}

// Pending reports whether a request id is still outstanding.
func (c *RPCCorrelator) Pending(requestID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, ok := c.pending[requestID]

	return ok
}

// onTimeout removes the request if still present and queues a synthetic
// terminal response. Removal is atomic, so a racing Resolve makes this
// a no-op.
func (c *RPCCorrelator) onTimeout(requestID string) {
	c.mu.Lock()

	entry, ok := c.pending[requestID]
	if ok {
		delete(c.pending, requestID)
	}

	c.mu.Unlock()

	if !ok {
		return
	}

	c.metrics.RPCTimedOut()
	c.logger.Warn().
		Str("request_id", requestID).
		Str("device_id", entry.deviceID.String()).
		Msg("RPC request timed out")

	ctx, cancel := context.WithTimeout(context.Background(), rpcPersistTimeout)
	defer cancel()

	deviceID := entry.deviceID

	event := models.NewEdgeEvent(entry.tenantID, entry.edgeID, models.EdgeEventTypeDevice,
		models.ActionRPCCallResponse, &deviceID, nil)
	if _, err := c.events.SaveEdgeEvent(ctx, event); err != nil {
		c.logger.Error().Err(err).
			Str("request_id", requestID).
			Msg("Failed to queue synthetic RPC response")
	}
}
