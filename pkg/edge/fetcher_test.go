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
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgefleet/edgefleet/pkg/logger"
	"github.com/edgefleet/edgefleet/pkg/models"
)

// testSettings disables the compensation window so the fake clock can
// place each event at a distinct, tightly spaced timestamp.
func testSettings() models.EdgeSyncSettings {
	settings := models.DefaultEdgeSyncSettings()
	settings.MaxReadRecordsCount = 50
	settings.MisorderingCompensation = 0

	return settings
}

func appendEvents(t *testing.T, store *fakeEventStore, tenantID, edgeID uuid.UUID, n int) {
	t.Helper()

	for range n {
		_, err := store.SaveEdgeEvent(context.Background(),
			models.NewEdgeEvent(tenantID, edgeID, models.EdgeEventTypeDevice, models.ActionUpdated, nil, nil))
		require.NoError(t, err)

		store.clock.Advance(time.Millisecond)
	}
}

func TestFetchPage_OrderedNoDuplicatesNoGaps(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	store := newFakeEventStore(clock)
	fetcher := NewFetcher(store, clock, logger.NewTestLogger(), testSettings())

	tenantID := uuid.New()
	edgeID := uuid.New()
	appendEvents(t, store, tenantID, edgeID, 120)

	var (
		offset models.Offset
		seen   []int64
	)

	for {
		result, err := fetcher.FetchPage(context.Background(), tenantID, edgeID, offset)
		require.NoError(t, err)

		if !result.Found {
			break
		}

		require.LessOrEqual(t, len(result.Events), 50)

		for _, event := range result.Events {
			seen = append(seen, event.SeqID)
		}

		offset = result.NextOffset
	}

	require.Len(t, seen, 120)

	for i, seqID := range seen {
		assert.Equal(t, int64(i+1), seqID, "sequence must be gapless and strictly increasing")
	}
}

func TestFetchPage_RefetchWithoutAdvanceIsIdempotent(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	store := newFakeEventStore(clock)
	fetcher := NewFetcher(store, clock, logger.NewTestLogger(), testSettings())

	tenantID := uuid.New()
	edgeID := uuid.New()
	appendEvents(t, store, tenantID, edgeID, 10)

	var offset models.Offset

	first, err := fetcher.FetchPage(context.Background(), tenantID, edgeID, offset)
	require.NoError(t, err)
	require.True(t, first.Found)

	// Simulates a crash between send and commit: same offset, same batch.
	second, err := fetcher.FetchPage(context.Background(), tenantID, edgeID, offset)
	require.NoError(t, err)
	require.True(t, second.Found)

	require.Len(t, second.Events, len(first.Events))

	for i := range first.Events {
		assert.Equal(t, first.Events[i].SeqID, second.Events[i].SeqID)
	}
}

func TestFetchPage_DetectsWrappedSequenceCounter(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	store := newFakeEventStore(clock)
	store.maxSeqID = 1000
	fetcher := NewFetcher(store, clock, logger.NewTestLogger(), testSettings())

	tenantID := uuid.New()
	edgeID := uuid.New()

	// The cursor sits at 950 from the previous cycle; the counter has
	// since wrapped and new events restart from 1.
	store.counters[counterKey(tenantID, edgeID)] = 1000
	committedAt := clock.Now().UnixMilli()
	appendEvents(t, store, tenantID, edgeID, 3)

	offset := models.Offset{StartTs: committedAt, StartSeqID: 950}

	result, err := fetcher.FetchPage(context.Background(), tenantID, edgeID, offset)
	require.NoError(t, err)

	require.True(t, result.Found, "wrapped events must be delivered, not waited on forever")
	assert.True(t, result.NewCycleStarted)
	require.Len(t, result.Events, 3)
	assert.Equal(t, int64(1), result.Events[0].SeqID)
	assert.Equal(t, int64(3), result.NextOffset.StartSeqID)
}

func TestFetchPage_NoEventsNoAdvance(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	store := newFakeEventStore(clock)
	fetcher := NewFetcher(store, clock, logger.NewTestLogger(), testSettings())

	result, err := fetcher.FetchPage(context.Background(), uuid.New(), uuid.New(), models.Offset{})
	require.NoError(t, err)

	assert.False(t, result.Found)
	assert.Empty(t, result.Events)
}

func TestFetchPage_CompensationWindowToleratesClockSkew(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	store := newFakeEventStore(clock)

	tenantID := uuid.New()
	edgeID := uuid.New()
	appendEvents(t, store, tenantID, edgeID, 1)

	// The cursor timestamp is ahead of the event's creation time, as
	// happens when a slower writer commits late.
	offset := models.Offset{StartTs: clock.Now().UnixMilli() + 2000}

	settings := testSettings()
	settings.MisorderingCompensation = models.Duration(3 * time.Second)
	withCompensation := NewFetcher(store, clock, logger.NewTestLogger(), settings)

	clock.Advance(5 * time.Second)

	result, err := withCompensation.FetchPage(context.Background(), tenantID, edgeID, offset)
	require.NoError(t, err)
	assert.True(t, result.Found)

	settings.MisorderingCompensation = 0
	withoutCompensation := NewFetcher(store, clock, logger.NewTestLogger(), settings)

	result, err = withoutCompensation.FetchPage(context.Background(), tenantID, edgeID, offset)
	require.NoError(t, err)
	assert.False(t, result.Found)
}

func TestMoreWorkAfter(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	store := newFakeEventStore(clock)
	fetcher := NewFetcher(store, clock, logger.NewTestLogger(), testSettings())

	tenantID := uuid.New()
	edgeID := uuid.New()
	appendEvents(t, store, tenantID, edgeID, 5)

	all := store.eventsFor(tenantID, edgeID)

	caughtUp := models.Offset{StartTs: all[4].CreatedTime, StartSeqID: 5}

	more, err := fetcher.MoreWorkAfter(context.Background(), tenantID, edgeID, caughtUp, false)
	require.NoError(t, err)
	assert.False(t, more)

	behind := models.Offset{StartTs: all[1].CreatedTime, StartSeqID: 2}

	more, err = fetcher.MoreWorkAfter(context.Background(), tenantID, edgeID, behind, false)
	require.NoError(t, err)
	assert.True(t, more)

	// A cursor stranded in a previous cycle sees only low sequence
	// numbers ahead of it; those still count as pending work.
	wrapped := models.Offset{StartTs: all[0].CreatedTime, StartSeqID: 900}

	more, err = fetcher.MoreWorkAfter(context.Background(), tenantID, edgeID, wrapped, false)
	require.NoError(t, err)
	assert.True(t, more, "events below the cursor signal a new cycle")
}
