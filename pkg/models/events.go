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

package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EdgeEventType is the domain-entity category an edge event targets.
type EdgeEventType string

const (
	EdgeEventTypeDevice               EdgeEventType = "DEVICE"
	EdgeEventTypeAsset                EdgeEventType = "ASSET"
	EdgeEventTypeEntityView           EdgeEventType = "ENTITY_VIEW"
	EdgeEventTypeDashboard            EdgeEventType = "DASHBOARD"
	EdgeEventTypeAlarm                EdgeEventType = "ALARM"
	EdgeEventTypeAlarmComment         EdgeEventType = "ALARM_COMMENT"
	EdgeEventTypeRelation             EdgeEventType = "RELATION"
	EdgeEventTypeUser                 EdgeEventType = "USER"
	EdgeEventTypeCustomer             EdgeEventType = "CUSTOMER"
	EdgeEventTypeTenant               EdgeEventType = "TENANT"
	EdgeEventTypeTenantProfile        EdgeEventType = "TENANT_PROFILE"
	EdgeEventTypeRuleChain            EdgeEventType = "RULE_CHAIN"
	EdgeEventTypeRuleChainMetadata    EdgeEventType = "RULE_CHAIN_METADATA"
	EdgeEventTypeWidgetsBundle        EdgeEventType = "WIDGETS_BUNDLE"
	EdgeEventTypeWidgetType           EdgeEventType = "WIDGET_TYPE"
	EdgeEventTypeAdminSettings        EdgeEventType = "ADMIN_SETTINGS"
	EdgeEventTypeOTAPackage           EdgeEventType = "OTA_PACKAGE"
	EdgeEventTypeQueue                EdgeEventType = "QUEUE"
	EdgeEventTypeCalculatedField      EdgeEventType = "CALCULATED_FIELD"
	EdgeEventTypeAIModel              EdgeEventType = "AI_MODEL"
	EdgeEventTypeNotificationTemplate EdgeEventType = "NOTIFICATION_TEMPLATE"
	EdgeEventTypeNotificationTarget   EdgeEventType = "NOTIFICATION_TARGET"
	EdgeEventTypeNotificationRule     EdgeEventType = "NOTIFICATION_RULE"
	EdgeEventTypeEdge                 EdgeEventType = "EDGE"
)

// AllEdgesRelated reports whether a change to an entity of this type is
// relevant to every edge of the tenant rather than to related edges only.
func (t EdgeEventType) AllEdgesRelated() bool {
	switch t {
	case EdgeEventTypeTenant, EdgeEventTypeTenantProfile, EdgeEventTypeCustomer,
		EdgeEventTypeWidgetsBundle, EdgeEventTypeWidgetType, EdgeEventTypeAdminSettings,
		EdgeEventTypeQueue, EdgeEventTypeNotificationTemplate,
		EdgeEventTypeNotificationTarget, EdgeEventTypeNotificationRule:
		return true
	default:
		return false
	}
}

// EdgeEventAction is the mutation kind an edge event describes.
type EdgeEventAction string

const (
	ActionAdded                  EdgeEventAction = "ADDED"
	ActionUpdated                EdgeEventAction = "UPDATED"
	ActionDeleted                EdgeEventAction = "DELETED"
	ActionAssignedToEdge         EdgeEventAction = "ASSIGNED_TO_EDGE"
	ActionUnassignedFromEdge     EdgeEventAction = "UNASSIGNED_FROM_EDGE"
	ActionAssignedToCustomer     EdgeEventAction = "ASSIGNED_TO_CUSTOMER"
	ActionUnassignedFromCustomer EdgeEventAction = "UNASSIGNED_FROM_CUSTOMER"
	ActionCredentialsUpdated     EdgeEventAction = "CREDENTIALS_UPDATED"
	ActionCredentialsRequest     EdgeEventAction = "CREDENTIALS_REQUEST"
	ActionRPCCallRequest         EdgeEventAction = "RPC_CALL_REQUEST"
	ActionRPCCallResponse        EdgeEventAction = "RPC_CALL_RESPONSE"
	ActionEntityMergeRequest     EdgeEventAction = "ENTITY_MERGE_REQUEST"
	ActionAlarmAck               EdgeEventAction = "ALARM_ACK"
	ActionAlarmClear             EdgeEventAction = "ALARM_CLEAR"
	ActionAlarmAssigned          EdgeEventAction = "ALARM_ASSIGNED"
	ActionAlarmUnassigned        EdgeEventAction = "ALARM_UNASSIGNED"
	ActionTimeseriesUpdated      EdgeEventAction = "TIMESERIES_UPDATED"
	ActionAttributesUpdated      EdgeEventAction = "ATTRIBUTES_UPDATED"
	ActionAttributesDeleted      EdgeEventAction = "ATTRIBUTES_DELETED"
	ActionCommentAdded           EdgeEventAction = "ADDED_COMMENT"
	ActionCommentUpdated         EdgeEventAction = "UPDATED_COMMENT"
	ActionRelationAddOrUpdate    EdgeEventAction = "RELATION_ADD_OR_UPDATE"
	ActionRelationDeleted        EdgeEventAction = "RELATION_DELETED"
)

// EdgeEvent is an immutable fact describing one change relevant to one
// edge. SeqID and CreatedTime are assigned by the event log at write
// time; events are never mutated afterwards.
type EdgeEvent struct {
	ID          uuid.UUID       `json:"id"`
	TenantID    uuid.UUID       `json:"tenant_id"`
	EdgeID      uuid.UUID       `json:"edge_id"`
	SeqID       int64           `json:"seq_id"`
	CreatedTime int64           `json:"created_time"` // unix millis
	Type        EdgeEventType   `json:"type"`
	Action      EdgeEventAction `json:"action"`
	EntityID    *uuid.UUID      `json:"entity_id,omitempty"`
	Body        json.RawMessage `json:"body,omitempty"`
}

// NewEdgeEvent builds an event ready for appending to the log.
func NewEdgeEvent(tenantID, edgeID uuid.UUID, eventType EdgeEventType, action EdgeEventAction,
	entityID *uuid.UUID, body json.RawMessage) *EdgeEvent {
	return &EdgeEvent{
		ID:       uuid.New(),
		TenantID: tenantID,
		EdgeID:   edgeID,
		Type:     eventType,
		Action:   action,
		EntityID: entityID,
		Body:     body,
	}
}

// CloudEvent is the JSON envelope used when publishing lifecycle
// notifications to the business-rule pipeline.
type CloudEvent struct {
	SpecVersion     string      `json:"specversion"`
	ID              string      `json:"id"`
	Source          string      `json:"source"`
	Type            string      `json:"type"`
	DataContentType string      `json:"datacontenttype"`
	Subject         string      `json:"subject,omitempty"`
	Time            *time.Time  `json:"time,omitempty"`
	Data            interface{} `json:"data,omitempty"`
}
