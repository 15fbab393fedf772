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

// UpdateMsgType is the mutation kind declared by an inbound edge
// message.
type UpdateMsgType string

const (
	MsgTypeEntityCreated UpdateMsgType = "ENTITY_CREATED"
	MsgTypeEntityUpdated UpdateMsgType = "ENTITY_UPDATED"
	MsgTypeEntityDeleted UpdateMsgType = "ENTITY_DELETED"
	MsgTypeAlarmAck      UpdateMsgType = "ALARM_ACK"
	MsgTypeAlarmClear    UpdateMsgType = "ALARM_CLEAR"
)

// DeviceUpdateMsg is an edge-originated device mutation. The ID is
// edge-local and may collide with unrelated central entities; lookups
// go by name first.
type DeviceUpdateMsg struct {
	MsgType        UpdateMsgType   `json:"msg_type"`
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	Label          string          `json:"label,omitempty"`
	AdditionalInfo json.RawMessage `json:"additional_info,omitempty"`
	Version        int64           `json:"version,omitempty"`
}

// AssetUpdateMsg is an edge-originated asset mutation.
type AssetUpdateMsg struct {
	MsgType        UpdateMsgType   `json:"msg_type"`
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	Label          string          `json:"label,omitempty"`
	AdditionalInfo json.RawMessage `json:"additional_info,omitempty"`
	Version        int64           `json:"version,omitempty"`
}

// RelationUpdateMsg is an edge-originated relation mutation. Both
// endpoints must already exist centrally.
type RelationUpdateMsg struct {
	MsgType  UpdateMsgType  `json:"msg_type"`
	Relation EntityRelation `json:"relation"`
}

// AlarmUpdateMsg is an edge-originated alarm mutation, addressed by the
// originator's name rather than id.
type AlarmUpdateMsg struct {
	MsgType        UpdateMsgType `json:"msg_type"`
	ID             uuid.UUID     `json:"id"`
	OriginatorName string        `json:"originator_name"`
	OriginatorType EdgeEventType `json:"originator_type"`
	Type           string        `json:"type"`
	Severity       string        `json:"severity"`
	Status         AlarmStatus   `json:"status"`
	StartTime      int64         `json:"start_time"`
	AckTime        int64         `json:"ack_time,omitempty"`
	ClearTime      int64         `json:"clear_time,omitempty"`
	Version        int64         `json:"version,omitempty"`
}

// DeviceCredentialsUpdateMsg carries credential state reported by an
// edge for a device it manages.
type DeviceCredentialsUpdateMsg struct {
	DeviceID         uuid.UUID             `json:"device_id"`
	CredentialsType  DeviceCredentialsType `json:"credentials_type"`
	CredentialsID    string                `json:"credentials_id"`
	CredentialsValue string                `json:"credentials_value,omitempty"`
}

// DeviceRPCCallMsg is a remote procedure call routed to a device behind
// an edge, or its response on the way back.
type DeviceRPCCallMsg struct {
	RequestID string          `json:"request_id"`
	DeviceID  uuid.UUID       `json:"device_id"`
	Oneway    bool            `json:"oneway,omitempty"`
	Method    string          `json:"method,omitempty"`
	Params    json.RawMessage `json:"params,omitempty"`
	Response  json.RawMessage `json:"response,omitempty"`
	Error     string          `json:"error,omitempty"`
}
