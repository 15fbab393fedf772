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
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/edgefleet/edgefleet/pkg/db"
	"github.com/edgefleet/edgefleet/pkg/logger"
	"github.com/edgefleet/edgefleet/pkg/models"
)

// TickResult reports what a dispatch tick accomplished and whether
// another one should follow immediately.
type TickResult int

const (
	// TickNoWork means the edge is not connected; nothing was done.
	TickNoWork TickResult = iota
	// TickRetrySoon means a full resync is in progress; retry shortly.
	TickRetrySoon
	// TickMoreWork means a batch was delivered and more events are
	// already waiting.
	TickMoreWork
	// TickDone means the edge is caught up.
	TickDone
)

// errEventLogEmpty short-circuits a tick when the initial cursor cannot
// be derived because the edge has no events yet.
var errEventLogEmpty = errors.New("event log empty")

// Dispatcher runs the per-edge fetch-and-send control loop. One
// invocation of ProcessTick is one round; the caller serializes ticks
// per edge and is free to run distinct edges concurrently.
type Dispatcher struct {
	fetcher *Fetcher
	offsets *OffsetStore
	events  EventStore
	sender  DownlinkSender
	metrics Metrics
	logger  zerolog.Logger
}

func NewDispatcher(fetcher *Fetcher, offsets *OffsetStore, events EventStore,
	sender DownlinkSender, metrics Metrics, log logger.Logger) *Dispatcher {
	return &Dispatcher{
		fetcher: fetcher,
		offsets: offsets,
		events:  events,
		sender:  sender,
		metrics: metrics,
		logger:  log.WithComponent("edge.dispatcher"),
	}
}

// ProcessTick performs one fetch-and-send round for an edge session.
// The offset advances only after a confirmed send, so a crash between
// send and commit redelivers the batch (at-least-once).
func (d *Dispatcher) ProcessTick(ctx context.Context, session *SessionState) (TickResult, error) {
	if !session.Connected() {
		return TickNoWork, nil
	}

	if session.SyncInProgress() {
		return TickRetrySoon, nil
	}

	if err := d.flushHighPriority(ctx, session); err != nil {
		return TickDone, err
	}

	offset, err := d.loadOffset(ctx, session)
	if err != nil {
		if errors.Is(err, errEventLogEmpty) {
			return TickDone, nil
		}

		return TickDone, err
	}

	result, err := d.fetcher.FetchPage(ctx, session.TenantID, session.EdgeID, offset)
	if err != nil {
		return TickDone, fmt.Errorf("fetch batch: %w", err)
	}

	if result.NewCycleStarted {
		d.metrics.CycleDetected()
	}

	if !result.Found {
		d.metrics.QueueLag(0)

		if session.HighPriorityPending() {
			return TickMoreWork, nil
		}

		return TickDone, nil
	}

	if err := d.sender.SendDownlink(ctx, session.EdgeID, result.Events); err != nil {
		d.metrics.BatchFailed()

		return TickDone, fmt.Errorf("send batch of %d: %w", len(result.Events), err)
	}

	d.metrics.BatchSent(len(result.Events))
	d.metrics.QueueLag(result.TotalPending - int64(len(result.Events)))

	if err := d.offsets.Save(ctx, session.TenantID, session.EdgeID, result.NextOffset); err != nil {
		return TickDone, fmt.Errorf("commit offset: %w", err)
	}

	d.logger.Debug().
		Str("edge_id", session.EdgeID.String()).
		Int("batch_size", len(result.Events)).
		Int64("start_seq_id", result.NextOffset.StartSeqID).
		Msg("Delivered batch and advanced offset")

	if session.HighPriorityPending() {
		return TickMoreWork, nil
	}

	more, err := d.fetcher.MoreWorkAfter(ctx, session.TenantID, session.EdgeID,
		result.NextOffset, result.NewCycleStarted)
	if err != nil {
		return TickDone, err
	}

	if more {
		return TickMoreWork, nil
	}

	return TickDone, nil
}

// loadOffset reads the persisted cursor. A zero StartSeqID means the
// cursor was never committed; the initial position is derived from the
// oldest event in the log so the first delivered event is the oldest.
func (d *Dispatcher) loadOffset(ctx context.Context, session *SessionState) (models.Offset, error) {
	offset, err := d.offsets.Load(ctx, session.TenantID, session.EdgeID)
	if err != nil {
		return offset, fmt.Errorf("load offset: %w", err)
	}

	if offset.StartSeqID != 0 {
		return offset, nil
	}

	oldest, err := d.events.FindOldestEdgeEvent(ctx, session.TenantID, session.EdgeID)
	if err != nil {
		if errors.Is(err, db.ErrEntityNotFound) {
			return offset, errEventLogEmpty
		}

		return offset, fmt.Errorf("derive initial offset: %w", err)
	}

	offset.StartSeqID = oldest.SeqID - 1
	if offset.StartTs == 0 {
		offset.StartTs = oldest.CreatedTime
	}

	return offset, nil
}

// flushHighPriority delivers queued high priority events ahead of the
// durable log. Failed batches are requeued at the head.
func (d *Dispatcher) flushHighPriority(ctx context.Context, session *SessionState) error {
	pending := session.DrainHighPriority()
	if len(pending) == 0 {
		return nil
	}

	if err := d.sender.SendDownlink(ctx, session.EdgeID, pending); err != nil {
		session.requeueFront(pending)
		d.metrics.BatchFailed()

		return fmt.Errorf("send high priority batch of %d: %w", len(pending), err)
	}

	d.metrics.BatchSent(len(pending))

	return nil
}
