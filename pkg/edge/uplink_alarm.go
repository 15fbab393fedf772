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
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/edgefleet/edgefleet/pkg/models"
)

// saveAlarm reconciles an edge-originated alarm create or update. The
// originator is addressed by name because originator ids are
// edge-local.
func (r *Reconciler) saveAlarm(ctx context.Context, session *SessionState, payload json.RawMessage) error {
	var msg models.AlarmUpdateMsg
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("decode alarm msg: %w", err)
	}

	msg.Version = 0

	originatorID, err := r.resolveOriginator(ctx, session, &msg)
	if err != nil {
		return err
	}

	alarm := &models.Alarm{
		ID:           msg.ID,
		TenantID:     session.TenantID,
		OriginatorID: originatorID,
		Originator:   msg.OriginatorType,
		Type:         msg.Type,
		Severity:     msg.Severity,
		Status:       msg.Status,
		StartTime:    msg.StartTime,
		AckTime:      msg.AckTime,
		ClearTime:    msg.ClearTime,
	}
	if alarm.ID == uuid.Nil {
		alarm.ID = uuid.New()
	}

	if err := r.entities.SaveAlarm(ctx, alarm); err != nil {
		return err
	}

	r.notifyLifecycle(ctx, session, models.EdgeEventTypeAlarm, alarm.ID, models.ActionUpdated)

	return nil
}

// ackAlarm acknowledges the latest alarm of the reported type on the
// originator.
func (r *Reconciler) ackAlarm(ctx context.Context, session *SessionState, payload json.RawMessage) error {
	return r.transitionAlarm(ctx, session, payload, models.ActionAlarmAck)
}

// clearAlarm clears the latest alarm of the reported type on the
// originator.
func (r *Reconciler) clearAlarm(ctx context.Context, session *SessionState, payload json.RawMessage) error {
	return r.transitionAlarm(ctx, session, payload, models.ActionAlarmClear)
}

func (r *Reconciler) transitionAlarm(ctx context.Context, session *SessionState,
	payload json.RawMessage, action models.EdgeEventAction) error {
	var msg models.AlarmUpdateMsg
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("decode alarm msg: %w", err)
	}

	originatorID, err := r.resolveOriginator(ctx, session, &msg)
	if err != nil {
		return err
	}

	alarm, err := r.entities.FindLatestAlarm(ctx, session.TenantID, originatorID, msg.Type)
	if err != nil {
		return fmt.Errorf("alarm %q on %s: %w", msg.Type, originatorID, err)
	}

	now := r.clock.Now().UnixMilli()

	switch action {
	case models.ActionAlarmAck:
		alarm.AckTime = now

		if alarm.Status == models.AlarmStatusClearedUnack {
			alarm.Status = models.AlarmStatusClearedAck
		} else {
			alarm.Status = models.AlarmStatusActiveAck
		}
	case models.ActionAlarmClear:
		alarm.ClearTime = now

		if alarm.Status == models.AlarmStatusActiveAck {
			alarm.Status = models.AlarmStatusClearedAck
		} else {
			alarm.Status = models.AlarmStatusClearedUnack
		}
	}

	if err := r.entities.SaveAlarm(ctx, alarm); err != nil {
		return err
	}

	r.notifyLifecycle(ctx, session, models.EdgeEventTypeAlarm, alarm.ID, action)

	return nil
}

func (r *Reconciler) resolveOriginator(ctx context.Context, session *SessionState,
	msg *models.AlarmUpdateMsg) (uuid.UUID, error) {
	switch msg.OriginatorType {
	case models.EdgeEventTypeDevice:
		device, err := r.entities.FindDeviceByName(ctx, session.TenantID, msg.OriginatorName)
		if err != nil {
			return uuid.Nil, fmt.Errorf("alarm originator %q: %w", msg.OriginatorName, err)
		}

		return device.ID, nil
	case models.EdgeEventTypeAsset:
		asset, err := r.entities.FindAssetByName(ctx, session.TenantID, msg.OriginatorName)
		if err != nil {
			return uuid.Nil, fmt.Errorf("alarm originator %q: %w", msg.OriginatorName, err)
		}

		return asset.ID, nil
	default:
		return uuid.Nil, fmt.Errorf("%w: %s", ErrUnknownEntityType, msg.OriginatorType)
	}
}
