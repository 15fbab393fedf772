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

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/edgefleet/edgefleet/pkg/logger"
	"github.com/edgefleet/edgefleet/pkg/models"
)

type dispatcherFixture struct {
	clock      *fakeClock
	events     *fakeEventStore
	attrs      *fakeAttributeStore
	offsets    *OffsetStore
	sender     *fakeSender
	metrics    *InMemoryMetrics
	dispatcher *Dispatcher

	tenantID uuid.UUID
	edgeID   uuid.UUID
	session  *SessionState
}

func newDispatcherFixture() *dispatcherFixture {
	f := &dispatcherFixture{
		clock:    newFakeClock(),
		attrs:    newFakeAttributeStore(),
		sender:   &fakeSender{},
		metrics:  NewInMemoryMetrics(),
		tenantID: uuid.New(),
		edgeID:   uuid.New(),
	}
	f.events = newFakeEventStore(f.clock)
	f.offsets = NewOffsetStore(f.attrs, f.clock)

	log := logger.NewTestLogger()
	fetcher := NewFetcher(f.events, f.clock, log, testSettings())
	f.dispatcher = NewDispatcher(fetcher, f.offsets, f.events, f.sender, f.metrics, log)

	f.session = NewSessionState(f.tenantID, f.edgeID, 0)
	f.session.SetConnected(true)

	return f
}

func (f *dispatcherFixture) loadOffset(t *testing.T) models.Offset {
	t.Helper()

	offset, err := f.offsets.Load(context.Background(), f.tenantID, f.edgeID)
	require.NoError(t, err)

	return offset
}

func TestProcessTick_NotConnected(t *testing.T) {
	t.Parallel()

	f := newDispatcherFixture()
	f.session.SetConnected(false)

	result, err := f.dispatcher.ProcessTick(context.Background(), f.session)
	require.NoError(t, err)
	assert.Equal(t, TickNoWork, result)
	assert.Empty(t, f.sender.sentBatches())
}

func TestProcessTick_SyncInProgress(t *testing.T) {
	t.Parallel()

	f := newDispatcherFixture()
	f.session.SetSyncInProgress(true)

	result, err := f.dispatcher.ProcessTick(context.Background(), f.session)
	require.NoError(t, err)
	assert.Equal(t, TickRetrySoon, result)
}

func TestProcessTick_EmptyLog(t *testing.T) {
	t.Parallel()

	f := newDispatcherFixture()

	result, err := f.dispatcher.ProcessTick(context.Background(), f.session)
	require.NoError(t, err)
	assert.Equal(t, TickDone, result)
	assert.Empty(t, f.sender.sentBatches())
}

func TestProcessTick_DeliversAndAdvancesOffset(t *testing.T) {
	t.Parallel()

	f := newDispatcherFixture()
	appendEvents(t, f.events, f.tenantID, f.edgeID, 10)

	result, err := f.dispatcher.ProcessTick(context.Background(), f.session)
	require.NoError(t, err)
	assert.Equal(t, TickDone, result)

	batches := f.sender.sentBatches()
	require.Len(t, batches, 1)
	assert.Len(t, batches[0], 10)

	offset := f.loadOffset(t)
	assert.Equal(t, int64(10), offset.StartSeqID, "offset commits to the last delivered event")
	assert.Equal(t, int64(1), f.metrics.BatchesSent())
	assert.Equal(t, int64(10), f.metrics.EventsSent())
}

func TestProcessTick_ResumesAfterPartialDelivery(t *testing.T) {
	t.Parallel()

	f := newDispatcherFixture()
	appendEvents(t, f.events, f.tenantID, f.edgeID, 120)

	result, err := f.dispatcher.ProcessTick(context.Background(), f.session)
	require.NoError(t, err)
	assert.Equal(t, TickMoreWork, result)
	assert.Equal(t, int64(70), f.metrics.CurrentQueueLag())

	result, err = f.dispatcher.ProcessTick(context.Background(), f.session)
	require.NoError(t, err)
	assert.Equal(t, TickMoreWork, result)
	assert.Equal(t, int64(20), f.metrics.CurrentQueueLag())

	result, err = f.dispatcher.ProcessTick(context.Background(), f.session)
	require.NoError(t, err)
	assert.Equal(t, TickDone, result)
	assert.Equal(t, int64(0), f.metrics.CurrentQueueLag())

	batches := f.sender.sentBatches()
	require.Len(t, batches, 3)
	assert.Len(t, batches[0], 50)
	assert.Len(t, batches[1], 50)
	assert.Len(t, batches[2], 20)

	assert.Equal(t, int64(120), f.loadOffset(t).StartSeqID)
}

func TestProcessTick_SendFailureKeepsOffset(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	sender := NewMockDownlinkSender(ctrl)
	sender.EXPECT().
		SendDownlink(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(assert.AnError)

	f := newDispatcherFixture()
	log := logger.NewTestLogger()
	fetcher := NewFetcher(f.events, f.clock, log, testSettings())
	dispatcher := NewDispatcher(fetcher, f.offsets, f.events, sender, f.metrics, log)

	appendEvents(t, f.events, f.tenantID, f.edgeID, 5)

	_, err := dispatcher.ProcessTick(context.Background(), f.session)
	require.ErrorIs(t, err, assert.AnError)

	assert.Equal(t, int64(0), f.loadOffset(t).StartSeqID,
		"a failed send must not advance the cursor")
	assert.Equal(t, int64(1), f.metrics.BatchesFailed())
}

func TestProcessTick_RedeliversAfterFailure(t *testing.T) {
	t.Parallel()

	f := newDispatcherFixture()
	appendEvents(t, f.events, f.tenantID, f.edgeID, 5)

	f.sender.sendErr = assert.AnError

	_, err := f.dispatcher.ProcessTick(context.Background(), f.session)
	require.Error(t, err)

	f.sender.sendErr = nil

	result, err := f.dispatcher.ProcessTick(context.Background(), f.session)
	require.NoError(t, err)
	assert.Equal(t, TickDone, result)

	batches := f.sender.sentBatches()
	require.Len(t, batches, 1)
	require.Len(t, batches[0], 5)
	assert.Equal(t, int64(1), batches[0][0].SeqID, "the full batch is redelivered from the uncommitted cursor")
}

func TestProcessTick_HighPriorityFlushedFirst(t *testing.T) {
	t.Parallel()

	f := newDispatcherFixture()
	appendEvents(t, f.events, f.tenantID, f.edgeID, 3)

	urgent := models.NewEdgeEvent(f.tenantID, f.edgeID,
		models.EdgeEventTypeDevice, models.ActionRPCCallResponse, nil, nil)
	f.session.EnqueueHighPriority(urgent)

	result, err := f.dispatcher.ProcessTick(context.Background(), f.session)
	require.NoError(t, err)
	assert.Equal(t, TickDone, result)

	batches := f.sender.sentBatches()
	require.Len(t, batches, 2)
	require.Len(t, batches[0], 1)
	assert.Equal(t, models.ActionRPCCallResponse, batches[0][0].Action)
	assert.Len(t, batches[1], 3)
	assert.False(t, f.session.HighPriorityPending())
}

func TestProcessTick_HighPriorityRequeuedOnFailure(t *testing.T) {
	t.Parallel()

	f := newDispatcherFixture()
	f.sender.sendErr = assert.AnError

	urgent := models.NewEdgeEvent(f.tenantID, f.edgeID,
		models.EdgeEventTypeDevice, models.ActionRPCCallResponse, nil, nil)
	f.session.EnqueueHighPriority(urgent)

	_, err := f.dispatcher.ProcessTick(context.Background(), f.session)
	require.Error(t, err)

	assert.True(t, f.session.HighPriorityPending(), "failed urgent events go back to the head of the queue")
}

func TestProcessTick_WrappedCounterRestartsCycle(t *testing.T) {
	t.Parallel()

	f := newDispatcherFixture()
	f.events.maxSeqID = 1000
	f.events.counters[counterKey(f.tenantID, f.edgeID)] = 1000
	committedAt := f.clock.Now().UnixMilli()
	appendEvents(t, f.events, f.tenantID, f.edgeID, 3)

	require.NoError(t, f.offsets.Save(context.Background(), f.tenantID, f.edgeID,
		models.Offset{StartTs: committedAt, StartSeqID: 950}))

	result, err := f.dispatcher.ProcessTick(context.Background(), f.session)
	require.NoError(t, err)
	assert.Equal(t, TickDone, result)

	batches := f.sender.sentBatches()
	require.Len(t, batches, 1)
	require.Len(t, batches[0], 3)
	assert.Equal(t, int64(1), batches[0][0].SeqID)

	assert.Equal(t, int64(3), f.loadOffset(t).StartSeqID)
	assert.Equal(t, int64(1), f.metrics.CyclesDetected())
}

func TestProcessTick_DerivesInitialOffsetFromOldestEvent(t *testing.T) {
	t.Parallel()

	f := newDispatcherFixture()

	// An edge provisioned long after the tenant started has no cursor;
	// delivery must begin at its oldest event, not at sequence zero of
	// some unrelated epoch.
	f.events.counters[counterKey(f.tenantID, f.edgeID)] = 40
	appendEvents(t, f.events, f.tenantID, f.edgeID, 4)

	result, err := f.dispatcher.ProcessTick(context.Background(), f.session)
	require.NoError(t, err)
	assert.Equal(t, TickDone, result)

	batches := f.sender.sentBatches()
	require.Len(t, batches, 1)
	require.Len(t, batches[0], 4)
	assert.Equal(t, int64(41), batches[0][0].SeqID)
	assert.Equal(t, int64(44), f.loadOffset(t).StartSeqID)
}
