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
	"sync"

	"github.com/google/uuid"

	"github.com/edgefleet/edgefleet/pkg/models"
)

// SessionState tracks one live or attempted edge connection. The
// transport layer owns the connected and syncInProgress flags; the
// dispatcher only reads them.
type SessionState struct {
	TenantID  uuid.UUID
	EdgeID    uuid.UUID
	SessionID uuid.UUID

	mu             sync.Mutex
	connected      bool
	syncInProgress bool
	highPriority   []*models.EdgeEvent
	maxQueueSize   int
}

// NewSessionState creates session state for one edge connection.
// maxQueueSize bounds the high priority queue; on overflow the oldest
// entry is dropped.
func NewSessionState(tenantID, edgeID uuid.UUID, maxQueueSize int) *SessionState {
	if maxQueueSize <= 0 {
		maxQueueSize = models.DefaultEdgeSyncSettings().MaxHighPriorityQueueSize
	}

	return &SessionState{
		TenantID:     tenantID,
		EdgeID:       edgeID,
		SessionID:    uuid.New(),
		maxQueueSize: maxQueueSize,
	}
}

func (s *SessionState) SetConnected(connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.connected = connected
}

func (s *SessionState) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.connected
}

func (s *SessionState) SetSyncInProgress(inProgress bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.syncInProgress = inProgress
}

func (s *SessionState) SyncInProgress() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.syncInProgress
}

// EnqueueHighPriority queues an event for delivery ahead of the durable
// log, bypassing the cursor. Used for latency-sensitive events such as
// RPC responses.
func (s *SessionState) EnqueueHighPriority(event *models.EdgeEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.highPriority) >= s.maxQueueSize {
		s.highPriority = s.highPriority[1:]
	}

	s.highPriority = append(s.highPriority, event)
}

// DrainHighPriority removes and returns all queued high priority
// events.
func (s *SessionState) DrainHighPriority() []*models.EdgeEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	drained := s.highPriority
	s.highPriority = nil

	return drained
}

// HighPriorityPending reports whether the queue is non-empty.
func (s *SessionState) HighPriorityPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.highPriority) > 0
}

// requeueFront puts drained events back at the head after a failed
// send, preserving order.
func (s *SessionState) requeueFront(events []*models.EdgeEvent) {
	if len(events) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.highPriority = append(events, s.highPriority...)

	if excess := len(s.highPriority) - s.maxQueueSize; excess > 0 {
		s.highPriority = s.highPriority[excess:]
	}
}
