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
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/edgefleet/edgefleet/pkg/db"
	"github.com/edgefleet/edgefleet/pkg/models"
)

// fakeClock is a manually advanced clock with deterministic timers.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Time
	f       func()
	stopped bool
	fired   bool
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	timer := &fakeTimer{clock: c, at: c.now.Add(d), f: f}
	c.timers = append(c.timers, timer)

	return timer
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	if t.fired || t.stopped {
		return false
	}

	t.stopped = true

	return true
}

// Advance moves the clock forward and fires due timers in order.
func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)

	var due []*fakeTimer

	for _, timer := range c.timers {
		if !timer.stopped && !timer.fired && !timer.at.After(c.now) {
			timer.fired = true

			due = append(due, timer)
		}
	}

	c.mu.Unlock()

	for _, timer := range due {
		timer.f()
	}
}

// fakeEventStore is an in-memory durable event log with the same
// wrapping sequence allocation as the real store.
type fakeEventStore struct {
	mu       sync.Mutex
	events   []*models.EdgeEvent
	counters map[string]int64
	maxSeqID int64
	clock    *fakeClock
	saveErr  error
}

func newFakeEventStore(clock *fakeClock) *fakeEventStore {
	return &fakeEventStore{
		counters: make(map[string]int64),
		maxSeqID: models.DefaultEdgeSyncSettings().MaxSeqID,
		clock:    clock,
	}
}

func counterKey(tenantID, edgeID uuid.UUID) string {
	return tenantID.String() + "/" + edgeID.String()
}

func (s *fakeEventStore) SaveEdgeEvent(_ context.Context, event *models.EdgeEvent) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saveErr != nil {
		return 0, s.saveErr
	}

	key := counterKey(event.TenantID, event.EdgeID)

	seq := s.counters[key]
	if seq >= s.maxSeqID {
		seq = 1
	} else {
		seq++
	}

	s.counters[key] = seq

	stored := *event
	stored.SeqID = seq
	stored.CreatedTime = s.clock.Now().UnixMilli()
	s.events = append(s.events, &stored)

	event.SeqID = stored.SeqID
	event.CreatedTime = stored.CreatedTime

	return seq, nil
}

func (s *fakeEventStore) matching(tenantID, edgeID uuid.UUID, q models.EdgeEventQuery) []*models.EdgeEvent {
	var out []*models.EdgeEvent

	for _, e := range s.events {
		if e.TenantID != tenantID || e.EdgeID != edgeID {
			continue
		}

		if q.StartTime > 0 && e.CreatedTime < q.StartTime {
			continue
		}

		if q.EndTime > 0 && e.CreatedTime > q.EndTime {
			continue
		}

		if q.MinSeqID != nil && e.SeqID <= *q.MinSeqID {
			continue
		}

		if q.MaxSeqID != nil && e.SeqID >= *q.MaxSeqID {
			continue
		}

		out = append(out, e)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].SeqID < out[j].SeqID })

	return out
}

func (s *fakeEventStore) FindEdgeEvents(_ context.Context, tenantID, edgeID uuid.UUID,
	q models.EdgeEventQuery) (models.PageData[*models.EdgeEvent], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.matching(tenantID, edgeID, q)

	link := q.Link
	if link.PageSize <= 0 {
		link = models.NewPageLink(models.DefaultPageSize)
	}

	start := link.Offset()
	if start > len(all) {
		start = len(all)
	}

	end := start + link.PageSize
	if end > len(all) {
		end = len(all)
	}

	return models.PageData[*models.EdgeEvent]{
		Data:          all[start:end],
		TotalElements: int64(len(all)),
		HasNext:       end < len(all),
	}, nil
}

func (s *fakeEventStore) HasEdgeEvents(_ context.Context, tenantID, edgeID uuid.UUID,
	q models.EdgeEventQuery) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.matching(tenantID, edgeID, q)) > 0, nil
}

func (s *fakeEventStore) FindOldestEdgeEvent(_ context.Context, tenantID, edgeID uuid.UUID) (*models.EdgeEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var oldest *models.EdgeEvent

	for _, e := range s.events {
		if e.TenantID != tenantID || e.EdgeID != edgeID {
			continue
		}

		if oldest == nil || e.CreatedTime < oldest.CreatedTime ||
			(e.CreatedTime == oldest.CreatedTime && e.SeqID < oldest.SeqID) {
			oldest = e
		}
	}

	if oldest == nil {
		return nil, db.ErrEntityNotFound
	}

	return oldest, nil
}

// eventsFor snapshots all events persisted for one edge ordered by
// sequence number.
func (s *fakeEventStore) eventsFor(tenantID, edgeID uuid.UUID) []*models.EdgeEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.matching(tenantID, edgeID, models.EdgeEventQuery{})
}

// fakeAttributeStore is an in-memory server-scope attribute store.
type fakeAttributeStore struct {
	mu      sync.Mutex
	attrs   map[string]models.AttributeKvEntry
	getErr  error
	saveErr error
}

func newFakeAttributeStore() *fakeAttributeStore {
	return &fakeAttributeStore{attrs: make(map[string]models.AttributeKvEntry)}
}

func attrKey(entityID uuid.UUID, key string) string {
	return entityID.String() + "/" + key
}

func (s *fakeAttributeStore) GetAttribute(_ context.Context, _, entityID uuid.UUID, key string) (*models.AttributeKvEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.getErr != nil {
		return nil, s.getErr
	}

	entry, ok := s.attrs[attrKey(entityID, key)]
	if !ok {
		return nil, nil
	}

	return &entry, nil
}

func (s *fakeAttributeStore) SaveAttributes(_ context.Context, _, entityID uuid.UUID, entries []models.AttributeKvEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.saveErr != nil {
		return s.saveErr
	}

	for _, entry := range entries {
		s.attrs[attrKey(entityID, entry.Key)] = entry
	}

	return nil
}

func (s *fakeAttributeStore) setActive(entityID uuid.UUID, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attrs[attrKey(entityID, ActivityAttributeKey)] = models.NewBoolAttribute(ActivityAttributeKey, active, 0)
}

// fakeEdgeLookup resolves edges from in-memory fixtures.
type fakeEdgeLookup struct {
	mu           sync.Mutex
	edges        []*models.Edge
	related      map[uuid.UUID][]uuid.UUID
	edgeEntities map[uuid.UUID]map[models.EdgeEventType][]uuid.UUID
}

func newFakeEdgeLookup() *fakeEdgeLookup {
	return &fakeEdgeLookup{
		related:      make(map[uuid.UUID][]uuid.UUID),
		edgeEntities: make(map[uuid.UUID]map[models.EdgeEventType][]uuid.UUID),
	}
}

func paginateIDs(ids []uuid.UUID, link models.PageLink) models.PageData[uuid.UUID] {
	start := link.Offset()
	if start > len(ids) {
		start = len(ids)
	}

	end := start + link.PageSize
	if end > len(ids) {
		end = len(ids)
	}

	return models.PageData[uuid.UUID]{
		Data:          ids[start:end],
		TotalElements: int64(len(ids)),
		HasNext:       end < len(ids),
	}
}

func (l *fakeEdgeLookup) FindEdgeByID(_ context.Context, _, edgeID uuid.UUID) (*models.Edge, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, e := range l.edges {
		if e.ID == edgeID {
			return e, nil
		}
	}

	return nil, db.ErrEdgeNotFound
}

func (l *fakeEdgeLookup) FindEdgesByTenantID(_ context.Context, tenantID uuid.UUID,
	link models.PageLink) (models.PageData[*models.Edge], error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var all []*models.Edge

	for _, e := range l.edges {
		if e.TenantID == tenantID {
			all = append(all, e)
		}
	}

	start := link.Offset()
	if start > len(all) {
		start = len(all)
	}

	end := start + link.PageSize
	if end > len(all) {
		end = len(all)
	}

	return models.PageData[*models.Edge]{
		Data:          all[start:end],
		TotalElements: int64(len(all)),
		HasNext:       end < len(all),
	}, nil
}

func (l *fakeEdgeLookup) FindRelatedEdgeIDs(_ context.Context, _, entityID uuid.UUID,
	link models.PageLink) (models.PageData[uuid.UUID], error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return paginateIDs(l.related[entityID], link), nil
}

func (l *fakeEdgeLookup) FindEdgeEntityIDs(_ context.Context, _, edgeID uuid.UUID,
	entityType models.EdgeEventType, link models.PageLink) (models.PageData[uuid.UUID], error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	return paginateIDs(l.edgeEntities[edgeID][entityType], link), nil
}

// fakeEntityStore is an in-memory central entity store.
type fakeEntityStore struct {
	mu          sync.Mutex
	devices     map[uuid.UUID]*models.Device
	assets      map[uuid.UUID]*models.Asset
	credentials map[uuid.UUID]*models.DeviceCredentials
	relations   map[string]*models.EntityRelation
	alarms      map[uuid.UUID]*models.Alarm
	ruleChains  map[uuid.UUID]*models.RuleChain
	connections map[uuid.UUID][]models.RuleChainConnection
}

func newFakeEntityStore() *fakeEntityStore {
	return &fakeEntityStore{
		devices:     make(map[uuid.UUID]*models.Device),
		assets:      make(map[uuid.UUID]*models.Asset),
		credentials: make(map[uuid.UUID]*models.DeviceCredentials),
		relations:   make(map[string]*models.EntityRelation),
		alarms:      make(map[uuid.UUID]*models.Alarm),
		ruleChains:  make(map[uuid.UUID]*models.RuleChain),
		connections: make(map[uuid.UUID][]models.RuleChainConnection),
	}
}

func relationKey(rel *models.EntityRelation) string {
	return fmt.Sprintf("%s/%s/%s/%s/%s", rel.From.ID, rel.To.ID, rel.Type, rel.TypeGroup, rel.From.Type)
}

func (s *fakeEntityStore) SaveDevice(_ context.Context, device *models.Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *device
	copied.Version++
	s.devices[device.ID] = &copied
	device.Version = copied.Version

	return nil
}

func (s *fakeEntityStore) FindDeviceByID(_ context.Context, _, deviceID uuid.UUID) (*models.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	device, ok := s.devices[deviceID]
	if !ok {
		return nil, db.ErrDeviceNotFound
	}

	copied := *device

	return &copied, nil
}

func (s *fakeEntityStore) FindDeviceByName(_ context.Context, _ uuid.UUID, name string) (*models.Device, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, device := range s.devices {
		if device.Name == name {
			copied := *device

			return &copied, nil
		}
	}

	return nil, db.ErrDeviceNotFound
}

func (s *fakeEntityStore) SaveDeviceCredentials(_ context.Context, creds *models.DeviceCredentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *creds
	s.credentials[creds.DeviceID] = &copied

	return nil
}

func (s *fakeEntityStore) FindDeviceCredentials(_ context.Context, deviceID uuid.UUID) (*models.DeviceCredentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	creds, ok := s.credentials[deviceID]
	if !ok {
		return nil, db.ErrDeviceNotFound
	}

	copied := *creds

	return &copied, nil
}

func (s *fakeEntityStore) SaveAsset(_ context.Context, asset *models.Asset) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *asset
	copied.Version++
	s.assets[asset.ID] = &copied
	asset.Version = copied.Version

	return nil
}

func (s *fakeEntityStore) FindAssetByID(_ context.Context, _, assetID uuid.UUID) (*models.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	asset, ok := s.assets[assetID]
	if !ok {
		return nil, db.ErrAssetNotFound
	}

	copied := *asset

	return &copied, nil
}

func (s *fakeEntityStore) FindAssetByName(_ context.Context, _ uuid.UUID, name string) (*models.Asset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, asset := range s.assets {
		if asset.Name == name {
			copied := *asset

			return &copied, nil
		}
	}

	return nil, db.ErrAssetNotFound
}

func (s *fakeEntityStore) SaveRelation(_ context.Context, _ uuid.UUID, rel *models.EntityRelation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *rel
	s.relations[relationKey(rel)] = &copied

	return nil
}

func (s *fakeEntityStore) DeleteRelation(_ context.Context, _ uuid.UUID, rel *models.EntityRelation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.relations, relationKey(rel))

	return nil
}

func (s *fakeEntityStore) RelationExists(_ context.Context, _ uuid.UUID, rel *models.EntityRelation) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.relations[relationKey(rel)]

	return ok, nil
}

func (s *fakeEntityStore) SaveAlarm(_ context.Context, alarm *models.Alarm) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *alarm
	copied.Version++
	s.alarms[alarm.ID] = &copied
	alarm.Version = copied.Version

	return nil
}

func (s *fakeEntityStore) FindAlarmByID(_ context.Context, _, alarmID uuid.UUID) (*models.Alarm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	alarm, ok := s.alarms[alarmID]
	if !ok {
		return nil, db.ErrAlarmNotFound
	}

	copied := *alarm

	return &copied, nil
}

func (s *fakeEntityStore) FindLatestAlarm(_ context.Context, _, originatorID uuid.UUID,
	alarmType string) (*models.Alarm, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest *models.Alarm

	for _, alarm := range s.alarms {
		if alarm.OriginatorID != originatorID || alarm.Type != alarmType {
			continue
		}

		if latest == nil || alarm.StartTime > latest.StartTime {
			latest = alarm
		}
	}

	if latest == nil {
		return nil, db.ErrAlarmNotFound
	}

	copied := *latest

	return &copied, nil
}

func (s *fakeEntityStore) FindRuleChainByID(_ context.Context, _, chainID uuid.UUID) (*models.RuleChain, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chain, ok := s.ruleChains[chainID]
	if !ok {
		return nil, db.ErrRuleChainNotFound
	}

	copied := *chain

	return &copied, nil
}

func (s *fakeEntityStore) FindRuleChainConnections(_ context.Context, chainID uuid.UUID) ([]models.RuleChainConnection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.connections[chainID], nil
}

// fakeSender records downlink batches and can be told to fail.
type fakeSender struct {
	mu      sync.Mutex
	batches [][]*models.EdgeEvent
	sendErr error
}

func (f *fakeSender) SendDownlink(_ context.Context, _ uuid.UUID, events []*models.EdgeEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sendErr != nil {
		return f.sendErr
	}

	batch := make([]*models.EdgeEvent, len(events))
	copy(batch, events)
	f.batches = append(f.batches, batch)

	return nil
}

func (f *fakeSender) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.sendErr = err
}

func (f *fakeSender) sentBatches() [][]*models.EdgeEvent {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.batches
}

// fakeNotifier counts best-effort notifications.
type fakeNotifier struct {
	mu             sync.Mutex
	entityChanges  []models.EdgeEventAction
	pendingSignals int
	err            error
}

func (f *fakeNotifier) NotifyEntityChange(_ context.Context, _ uuid.UUID, _ models.EdgeEventType,
	_ uuid.UUID, action models.EdgeEventAction) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.entityChanges = append(f.entityChanges, action)

	return f.err
}

func (f *fakeNotifier) NotifyEdgeEventsPending(_ context.Context, _, _ uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.pendingSignals++

	return f.err
}
