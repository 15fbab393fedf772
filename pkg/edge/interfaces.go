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

// Package edge implements the cloud-to-edge synchronization protocol:
// fan-out of entity changes into the durable per-edge event log, the
// cursor-based catch-up fetcher with wraparound detection, the per-edge
// dispatch loop, reconciliation of edge-originated mutations into the
// central store, and correlation of device RPC calls.
package edge

//go:generate mockgen -destination=mock_edge.go -package=edge github.com/edgefleet/edgefleet/pkg/edge DownlinkSender,LifecycleNotifier

import (
	"context"

	"github.com/google/uuid"

	"github.com/edgefleet/edgefleet/pkg/models"
)

// EventStore is the durable event log surface consumed by the producer,
// fetcher and correlator.
type EventStore interface {
	SaveEdgeEvent(ctx context.Context, event *models.EdgeEvent) (int64, error)
	FindEdgeEvents(ctx context.Context, tenantID, edgeID uuid.UUID, q models.EdgeEventQuery) (models.PageData[*models.EdgeEvent], error)
	HasEdgeEvents(ctx context.Context, tenantID, edgeID uuid.UUID, q models.EdgeEventQuery) (bool, error)
	FindOldestEdgeEvent(ctx context.Context, tenantID, edgeID uuid.UUID) (*models.EdgeEvent, error)
}

// AttributeStore persists server-scope attributes; the offset cursor
// and the edge activity flag live here.
type AttributeStore interface {
	GetAttribute(ctx context.Context, tenantID, entityID uuid.UUID, key string) (*models.AttributeKvEntry, error)
	SaveAttributes(ctx context.Context, tenantID, entityID uuid.UUID, entries []models.AttributeKvEntry) error
}

// EdgeLookup resolves target edges during fan-out.
type EdgeLookup interface {
	FindEdgeByID(ctx context.Context, tenantID, edgeID uuid.UUID) (*models.Edge, error)
	FindEdgesByTenantID(ctx context.Context, tenantID uuid.UUID, link models.PageLink) (models.PageData[*models.Edge], error)
	FindRelatedEdgeIDs(ctx context.Context, tenantID, entityID uuid.UUID, link models.PageLink) (models.PageData[uuid.UUID], error)
	FindEdgeEntityIDs(ctx context.Context, tenantID, edgeID uuid.UUID, entityType models.EdgeEventType, link models.PageLink) (models.PageData[uuid.UUID], error)
}

// EntityStore is the central-store surface the uplink reconciler
// mutates.
type EntityStore interface {
	SaveDevice(ctx context.Context, device *models.Device) error
	FindDeviceByID(ctx context.Context, tenantID, deviceID uuid.UUID) (*models.Device, error)
	FindDeviceByName(ctx context.Context, tenantID uuid.UUID, name string) (*models.Device, error)
	SaveDeviceCredentials(ctx context.Context, creds *models.DeviceCredentials) error
	FindDeviceCredentials(ctx context.Context, deviceID uuid.UUID) (*models.DeviceCredentials, error)

	SaveAsset(ctx context.Context, asset *models.Asset) error
	FindAssetByID(ctx context.Context, tenantID, assetID uuid.UUID) (*models.Asset, error)
	FindAssetByName(ctx context.Context, tenantID uuid.UUID, name string) (*models.Asset, error)

	SaveRelation(ctx context.Context, tenantID uuid.UUID, rel *models.EntityRelation) error
	DeleteRelation(ctx context.Context, tenantID uuid.UUID, rel *models.EntityRelation) error
	RelationExists(ctx context.Context, tenantID uuid.UUID, rel *models.EntityRelation) (bool, error)

	SaveAlarm(ctx context.Context, alarm *models.Alarm) error
	FindAlarmByID(ctx context.Context, tenantID, alarmID uuid.UUID) (*models.Alarm, error)
	FindLatestAlarm(ctx context.Context, tenantID, originatorID uuid.UUID, alarmType string) (*models.Alarm, error)

	FindRuleChainByID(ctx context.Context, tenantID, chainID uuid.UUID) (*models.RuleChain, error)
	FindRuleChainConnections(ctx context.Context, chainID uuid.UUID) ([]models.RuleChainConnection, error)
}

// DownlinkSender transmits a fetched batch over the edge's live
// connection. An error is a negative acknowledgement; the batch will be
// refetched on the next tick.
type DownlinkSender interface {
	SendDownlink(ctx context.Context, edgeID uuid.UUID, events []*models.EdgeEvent) error
}

// LifecycleNotifier publishes best-effort notifications: entity
// mutations into the business-rule pipeline and wake signals for edge
// dispatch loops. Failures are logged, never propagated.
type LifecycleNotifier interface {
	NotifyEntityChange(ctx context.Context, tenantID uuid.UUID, entityType models.EdgeEventType, entityID uuid.UUID, action models.EdgeEventAction) error
	NotifyEdgeEventsPending(ctx context.Context, tenantID, edgeID uuid.UUID) error
}
