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

package db

//go:generate mockgen -destination=mock_db.go -package=db github.com/edgefleet/edgefleet/pkg/db Service

import (
	"context"

	"github.com/google/uuid"

	"github.com/edgefleet/edgefleet/pkg/models"
)

// Service is the full persistence surface consumed by the
// synchronization core.
type Service interface {
	// Durable event log.
	SaveEdgeEvent(ctx context.Context, event *models.EdgeEvent) (int64, error)
	FindEdgeEvents(ctx context.Context, tenantID, edgeID uuid.UUID, q models.EdgeEventQuery) (models.PageData[*models.EdgeEvent], error)
	HasEdgeEvents(ctx context.Context, tenantID, edgeID uuid.UUID, q models.EdgeEventQuery) (bool, error)
	FindOldestEdgeEvent(ctx context.Context, tenantID, edgeID uuid.UUID) (*models.EdgeEvent, error)

	// Server-scope attributes.
	GetAttribute(ctx context.Context, tenantID, entityID uuid.UUID, key string) (*models.AttributeKvEntry, error)
	SaveAttributes(ctx context.Context, tenantID, entityID uuid.UUID, entries []models.AttributeKvEntry) error

	// Edges.
	FindEdgeByID(ctx context.Context, tenantID, edgeID uuid.UUID) (*models.Edge, error)
	FindEdgesByTenantID(ctx context.Context, tenantID uuid.UUID, link models.PageLink) (models.PageData[*models.Edge], error)
	FindRelatedEdgeIDs(ctx context.Context, tenantID, entityID uuid.UUID, link models.PageLink) (models.PageData[uuid.UUID], error)
	FindEdgeEntityIDs(ctx context.Context, tenantID, edgeID uuid.UUID, entityType models.EdgeEventType, link models.PageLink) (models.PageData[uuid.UUID], error)

	// Devices and credentials.
	SaveDevice(ctx context.Context, device *models.Device) error
	FindDeviceByID(ctx context.Context, tenantID, deviceID uuid.UUID) (*models.Device, error)
	FindDeviceByName(ctx context.Context, tenantID uuid.UUID, name string) (*models.Device, error)
	SaveDeviceCredentials(ctx context.Context, creds *models.DeviceCredentials) error
	FindDeviceCredentials(ctx context.Context, deviceID uuid.UUID) (*models.DeviceCredentials, error)

	// Assets.
	SaveAsset(ctx context.Context, asset *models.Asset) error
	FindAssetByID(ctx context.Context, tenantID, assetID uuid.UUID) (*models.Asset, error)
	FindAssetByName(ctx context.Context, tenantID uuid.UUID, name string) (*models.Asset, error)

	// Relations.
	SaveRelation(ctx context.Context, tenantID uuid.UUID, rel *models.EntityRelation) error
	DeleteRelation(ctx context.Context, tenantID uuid.UUID, rel *models.EntityRelation) error
	RelationExists(ctx context.Context, tenantID uuid.UUID, rel *models.EntityRelation) (bool, error)

	// Rule chains.
	FindRuleChainByID(ctx context.Context, tenantID, chainID uuid.UUID) (*models.RuleChain, error)
	FindRuleChainConnections(ctx context.Context, chainID uuid.UUID) ([]models.RuleChainConnection, error)

	// Alarms.
	SaveAlarm(ctx context.Context, alarm *models.Alarm) error
	FindAlarmByID(ctx context.Context, tenantID, alarmID uuid.UUID) (*models.Alarm, error)
	FindLatestAlarm(ctx context.Context, tenantID, originatorID uuid.UUID, alarmType string) (*models.Alarm, error)

	Close()
}
