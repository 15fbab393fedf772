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

	"github.com/google/uuid"
)

// Edge is a semi-autonomous gateway registered with the control plane.
type Edge struct {
	ID              uuid.UUID  `json:"id"`
	TenantID        uuid.UUID  `json:"tenant_id"`
	CustomerID      *uuid.UUID `json:"customer_id,omitempty"`
	RootRuleChainID *uuid.UUID `json:"root_rule_chain_id,omitempty"`
	Name            string     `json:"name"`
	Type            string     `json:"type"`
	RoutingKey      string     `json:"routing_key"`
	Secret          string     `json:"secret"`
	CreatedTime     int64      `json:"created_time"`
}

// Device is a connected thing, either cloud-native or provisioned
// behind an edge.
type Device struct {
	ID             uuid.UUID       `json:"id"`
	TenantID       uuid.UUID       `json:"tenant_id"`
	CustomerID     *uuid.UUID      `json:"customer_id,omitempty"`
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	Label          string          `json:"label,omitempty"`
	AdditionalInfo json.RawMessage `json:"additional_info,omitempty"`
	CreatedTime    int64           `json:"created_time"`
	// Version is the optimistic-lock marker. It is cleared before
	// content comparison when reconciling edge-originated copies.
	Version int64 `json:"version,omitempty"`
}

// DeviceCredentialsType enumerates supported device credential kinds.
type DeviceCredentialsType string

const (
	CredentialsTypeAccessToken DeviceCredentialsType = "ACCESS_TOKEN"
	CredentialsTypeX509        DeviceCredentialsType = "X509_CERTIFICATE"
)

// DeviceCredentials holds the access credentials of one device.
type DeviceCredentials struct {
	ID               uuid.UUID             `json:"id"`
	DeviceID         uuid.UUID             `json:"device_id"`
	CredentialsType  DeviceCredentialsType `json:"credentials_type"`
	CredentialsID    string                `json:"credentials_id"`
	CredentialsValue string                `json:"credentials_value,omitempty"`
}

// Asset is a logical grouping entity (building, pump, vehicle).
type Asset struct {
	ID             uuid.UUID       `json:"id"`
	TenantID       uuid.UUID       `json:"tenant_id"`
	CustomerID     *uuid.UUID      `json:"customer_id,omitempty"`
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	Label          string          `json:"label,omitempty"`
	AdditionalInfo json.RawMessage `json:"additional_info,omitempty"`
	CreatedTime    int64           `json:"created_time"`
	Version        int64           `json:"version,omitempty"`
}

// RelationTypeGroup scopes relations; edge assignment relations use the
// COMMON group.
const (
	RelationTypeGroupCommon = "COMMON"
	RelationTypeContains    = "Contains"
	RelationTypeManages     = "Manages"
	EdgeRelationType        = "ManagedByEdge"
)

// EntityRef points at a domain entity of a known category.
type EntityRef struct {
	Type EdgeEventType `json:"type"`
	ID   uuid.UUID     `json:"id"`
}

// EntityRelation links two entities; both endpoints must exist before a
// relation may be persisted.
type EntityRelation struct {
	From           EntityRef       `json:"from"`
	To             EntityRef       `json:"to"`
	Type           string          `json:"type"`
	TypeGroup      string          `json:"type_group"`
	AdditionalInfo json.RawMessage `json:"additional_info,omitempty"`
}

// RuleChain is the rule-engine processing pipeline metadata relevant to
// edge assignment.
type RuleChain struct {
	ID          uuid.UUID `json:"id"`
	TenantID    uuid.UUID `json:"tenant_id"`
	Name        string    `json:"name"`
	Root        bool      `json:"root"`
	CreatedTime int64     `json:"created_time"`
}

// RuleChainConnection references a target rule chain wired from a node
// of another chain.
type RuleChainConnection struct {
	FromIndex         int             `json:"from_index"`
	TargetRuleChainID uuid.UUID       `json:"target_rule_chain_id"`
	Type              string          `json:"type"`
	AdditionalInfo    json.RawMessage `json:"additional_info,omitempty"`
}

// AlarmStatus tracks acknowledgement/clear state of an alarm.
type AlarmStatus string

const (
	AlarmStatusActiveUnack  AlarmStatus = "ACTIVE_UNACK"
	AlarmStatusActiveAck    AlarmStatus = "ACTIVE_ACK"
	AlarmStatusClearedUnack AlarmStatus = "CLEARED_UNACK"
	AlarmStatusClearedAck   AlarmStatus = "CLEARED_ACK"
)

// Alarm is a raised condition on an originator entity.
type Alarm struct {
	ID           uuid.UUID     `json:"id"`
	TenantID     uuid.UUID     `json:"tenant_id"`
	OriginatorID uuid.UUID     `json:"originator_id"`
	Originator   EdgeEventType `json:"originator_type"`
	Type         string        `json:"type"`
	Severity     string        `json:"severity"`
	Status       AlarmStatus   `json:"status"`
	StartTime    int64         `json:"start_time"`
	AckTime      int64         `json:"ack_time,omitempty"`
	ClearTime    int64         `json:"clear_time,omitempty"`
	Version      int64         `json:"version,omitempty"`
}
