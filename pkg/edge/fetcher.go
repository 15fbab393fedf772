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
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/edgefleet/edgefleet/pkg/logger"
	"github.com/edgefleet/edgefleet/pkg/models"
)

// FetchResult is one batch of catch-up events for an edge.
type FetchResult struct {
	Events []*models.EdgeEvent
	// NextOffset is valid only when Found; it is persisted by the
	// dispatcher after a confirmed send.
	NextOffset models.Offset
	// NewCycleStarted reports that the sequence counter wrapped and this
	// batch restarted from the beginning of the new cycle.
	NewCycleStarted bool
	Found           bool
	// TotalPending counts every event past the offset in the fetch
	// window, this batch included.
	TotalPending int64
}

// Fetcher reads ordered batches from the durable event log starting at
// a persisted cursor. Reads are bounded by creation time with a
// backwards compensation window because createdTime ordering alone is
// not reliable across concurrent writers; seqId is the true order.
type Fetcher struct {
	events       EventStore
	clock        Clock
	logger       zerolog.Logger
	batchSize    int
	compensation time.Duration
}

func NewFetcher(events EventStore, clock Clock, log logger.Logger, settings models.EdgeSyncSettings) *Fetcher {
	return &Fetcher{
		events:       events,
		clock:        clock,
		logger:       log.WithComponent("edge.fetcher"),
		batchSize:    settings.MaxReadRecordsCount,
		compensation: time.Duration(settings.MisorderingCompensation),
	}
}

func (f *Fetcher) window(offset models.Offset) (int64, int64) {
	startTs := offset.StartTs - f.compensation.Milliseconds()
	if startTs < 0 {
		startTs = 0
	}

	return startTs, f.clock.Now().UnixMilli()
}

// FetchPage returns the next batch after the offset. When the normal
// read comes back empty it probes for a wrapped sequence counter and,
// if one is found, restarts the read from the beginning of the new
// cycle.
func (f *Fetcher) FetchPage(ctx context.Context, tenantID, edgeID uuid.UUID, offset models.Offset) (FetchResult, error) {
	var result FetchResult

	startTs, endTs := f.window(offset)

	page, err := f.events.FindEdgeEvents(ctx, tenantID, edgeID, models.EdgeEventQuery{
		StartTime: startTs,
		EndTime:   endTs,
		MinSeqID:  &offset.StartSeqID,
		Link:      models.NewPageLink(f.batchSize),
	})
	if err != nil {
		return result, err
	}

	if len(page.Data) == 0 && offset.StartSeqID > 0 {
		wrapped, err := f.HasSeqCycleStarted(ctx, tenantID, edgeID, offset)
		if err != nil {
			return result, err
		}

		if !wrapped {
			return result, nil
		}

		f.logger.Info().
			Str("edge_id", edgeID.String()).
			Int64("start_seq_id", offset.StartSeqID).
			Msg("Sequence counter wrapped, restarting from new cycle")

		var fromStart int64

		page, err = f.events.FindEdgeEvents(ctx, tenantID, edgeID, models.EdgeEventQuery{
			StartTime: startTs,
			EndTime:   endTs,
			MinSeqID:  &fromStart,
			Link:      models.NewPageLink(f.batchSize),
		})
		if err != nil {
			return result, err
		}

		result.NewCycleStarted = true
	}

	if len(page.Data) == 0 {
		return result, nil
	}

	last := page.Data[len(page.Data)-1]

	result.Events = page.Data
	result.NextOffset = models.Offset{StartTs: last.CreatedTime, StartSeqID: last.SeqID}
	result.Found = true
	result.TotalPending = page.TotalElements

	return result, nil
}

// HasNewEvents probes for events past the offset within the current
// window.
func (f *Fetcher) HasNewEvents(ctx context.Context, tenantID, edgeID uuid.UUID, offset models.Offset) (bool, error) {
	startTs, endTs := f.window(offset)

	return f.events.HasEdgeEvents(ctx, tenantID, edgeID, models.EdgeEventQuery{
		StartTime: startTs,
		EndTime:   endTs,
		MinSeqID:  &offset.StartSeqID,
	})
}

// HasSeqCycleStarted probes for events carrying a sequence number below
// the offset but created inside the current window, the signature of a
// wrapped counter.
func (f *Fetcher) HasSeqCycleStarted(ctx context.Context, tenantID, edgeID uuid.UUID, offset models.Offset) (bool, error) {
	if offset.StartSeqID <= 0 {
		return false, nil
	}

	startTs, endTs := f.window(offset)

	return f.events.HasEdgeEvents(ctx, tenantID, edgeID, models.EdgeEventQuery{
		StartTime: startTs,
		EndTime:   endTs,
		MaxSeqID:  &offset.StartSeqID,
	})
}

// MoreWorkAfter decides whether another dispatch iteration is warranted
// right after a confirmed send. Both availability probes are consulted;
// either one reporting events keeps the loop going. The order depends
// on whether the finished round already crossed a cycle boundary.
func (f *Fetcher) MoreWorkAfter(ctx context.Context, tenantID, edgeID uuid.UUID,
	offset models.Offset, cycleDetected bool) (bool, error) {
	if cycleDetected {
		return f.HasNewEvents(ctx, tenantID, edgeID, offset)
	}

	wrapped, err := f.HasSeqCycleStarted(ctx, tenantID, edgeID, offset)
	if err != nil {
		return false, err
	}

	if wrapped {
		return true, nil
	}

	return f.HasNewEvents(ctx, tenantID, edgeID, offset)
}
