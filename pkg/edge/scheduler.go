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

type scheduledSession struct {
	session *SessionState
	running bool
	rerun   bool
}

// Scheduler drives dispatch ticks. Distinct edges run concurrently but
// ticks for one edge are single-flight: a wake arriving while a tick
// loop is running marks the session for one more pass instead of
// starting a second loop.
type Scheduler struct {
	dispatcher *Dispatcher
	logger     zerolog.Logger
	retryDelay time.Duration

	mu       sync.Mutex
	sessions map[uuid.UUID]*scheduledSession

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewScheduler(dispatcher *Dispatcher, log logger.Logger, settings models.EdgeSyncSettings) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		dispatcher: dispatcher,
		logger:     log.WithComponent("edge.scheduler"),
		retryDelay: time.Duration(settings.SleepBetweenBatches),
		sessions:   make(map[uuid.UUID]*scheduledSession),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Register tracks a session and immediately wakes it so a reconnecting
// edge starts catching up.
func (s *Scheduler) Register(session *SessionState) {
	s.mu.Lock()
	s.sessions[session.EdgeID] = &scheduledSession{session: session}
	s.mu.Unlock()

	s.Wake(session.EdgeID)
}

// Unregister forgets a session. A loop already running finishes its
// current tick and stops.
func (s *Scheduler) Unregister(edgeID uuid.UUID) {
	s.mu.Lock()
	delete(s.sessions, edgeID)
	s.mu.Unlock()
}

// Wake requests a dispatch pass for an edge.
func (s *Scheduler) Wake(edgeID uuid.UUID) {
	s.mu.Lock()

	entry, ok := s.sessions[edgeID]
	if !ok {
		s.mu.Unlock()
		return
	}

	if entry.running {
		entry.rerun = true
		s.mu.Unlock()

		return
	}

	entry.running = true
	s.mu.Unlock()

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		s.run(entry)
	}()
}

// Close stops all loops and waits for them to finish their current
// tick.
func (s *Scheduler) Close() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) run(entry *scheduledSession) {
	for {
		if s.ctx.Err() != nil {
			s.finish(entry)
			return
		}

		result, err := s.dispatcher.ProcessTick(s.ctx, entry.session)
		if err != nil {
			// Failed rounds are re-attempted on the next wake; the offset
			// was not advanced, so nothing is lost.
			s.logger.Warn().Err(err).
				Str("edge_id", entry.session.EdgeID.String()).
				Msg("Dispatch tick failed")

			s.finish(entry)

			return
		}

		switch result {
		case TickMoreWork:
			continue
		case TickRetrySoon:
			if !s.sleep() {
				s.finish(entry)
				return
			}

			continue
		case TickNoWork, TickDone:
		}

		s.mu.Lock()

		if entry.rerun {
			entry.rerun = false
			s.mu.Unlock()

			continue
		}

		entry.running = false
		s.mu.Unlock()

		return
	}
}

func (s *Scheduler) finish(entry *scheduledSession) {
	s.mu.Lock()
	entry.running = false
	entry.rerun = false
	s.mu.Unlock()
}

func (s *Scheduler) sleep() bool {
	timer := time.NewTimer(s.retryDelay)
	defer timer.Stop()

	select {
	case <-s.ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
