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
	"errors"
	"fmt"

	"github.com/edgefleet/edgefleet/pkg/db"
	"github.com/edgefleet/edgefleet/pkg/models"
)

const deviceCreationLock = "device-creation"

// createDevice reconciles an edge-originated device creation. Ids are
// edge-local, so the lookup goes by name first; a same-named central
// device not managed by this edge is a conflict resolved by creating a
// disambiguated copy and queueing a merge request back to the edge.
func (r *Reconciler) createDevice(ctx context.Context, session *SessionState, payload json.RawMessage) error {
	var msg models.DeviceUpdateMsg
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("decode device msg: %w", err)
	}

	msg.Version = 0

	unlock := r.locks.Lock(deviceCreationLock)
	defer unlock()

	existing, err := r.entities.FindDeviceByName(ctx, session.TenantID, msg.Name)

	switch {
	case errors.Is(err, db.ErrDeviceNotFound):
		device := deviceFromMsg(session, &msg)
		if err := r.provisionDevice(ctx, session, device, false); err != nil {
			return err
		}

		// The edge still holds its locally generated credentials; push
		// the provisioned ones back.
		return r.queueCredentialsRequest(ctx, session, models.EdgeEventTypeDevice, device.ID)

	case err != nil:
		return fmt.Errorf("lookup device %q: %w", msg.Name, err)
	}

	related, err := r.relatedToEdge(ctx, session, models.EdgeEventTypeDevice, existing.ID)
	if err != nil {
		return err
	}

	if related {
		return r.applyDeviceFields(ctx, session, existing, &msg)
	}

	device := deviceFromMsg(session, &msg)
	device.Name = conflictName(msg.Name)

	r.logger.Info().
		Str("edge_id", session.EdgeID.String()).
		Str("conflict_name", msg.Name).
		Str("new_name", device.Name).
		Msg("Device name conflict, creating disambiguated copy")

	if err := r.provisionDevice(ctx, session, device, true); err != nil {
		return err
	}

	return r.queueMergeRequest(ctx, session, models.EdgeEventTypeDevice, device.ID, msg.Name)
}

// updateDevice applies field-level updates by id. A missing device is
// an error, never an implicit create; credentials state is re-synced
// afterwards.
func (r *Reconciler) updateDevice(ctx context.Context, session *SessionState, payload json.RawMessage) error {
	var msg models.DeviceUpdateMsg
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("decode device msg: %w", err)
	}

	msg.Version = 0

	device, err := r.entities.FindDeviceByID(ctx, session.TenantID, msg.ID)
	if err != nil {
		return fmt.Errorf("device %s: %w", msg.ID, err)
	}

	return r.applyDeviceFields(ctx, session, device, &msg)
}

// detachDevice unassigns the device from the edge. The device may
// still be owned elsewhere, so it is never hard-deleted here.
func (r *Reconciler) detachDevice(ctx context.Context, session *SessionState, payload json.RawMessage) error {
	var msg models.DeviceUpdateMsg
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("decode device msg: %w", err)
	}

	err := r.entities.DeleteRelation(ctx, session.TenantID, &models.EntityRelation{
		From:      models.EntityRef{Type: models.EdgeEventTypeEdge, ID: session.EdgeID},
		To:        models.EntityRef{Type: models.EdgeEventTypeDevice, ID: msg.ID},
		Type:      models.EdgeRelationType,
		TypeGroup: models.RelationTypeGroupCommon,
	})
	if err != nil {
		return err
	}

	r.notifyLifecycle(ctx, session, models.EdgeEventTypeDevice, msg.ID, models.ActionUnassignedFromEdge)

	return nil
}

// provisionDevice persists a new device, relates it to the edge,
// provisions default access-token credentials and announces the
// creation. conflicted suppresses the creation notification until the
// merge request settles.
func (r *Reconciler) provisionDevice(ctx context.Context, session *SessionState,
	device *models.Device, conflicted bool) error {
	device.CreatedTime = r.clock.Now().UnixMilli()

	if err := r.entities.SaveDevice(ctx, device); err != nil {
		return fmt.Errorf("save device %q: %w", device.Name, err)
	}

	if err := r.relateToEdge(ctx, session, models.EdgeEventTypeDevice, device.ID); err != nil {
		return fmt.Errorf("relate device %s to edge: %w", device.ID, err)
	}

	creds := &models.DeviceCredentials{
		DeviceID:        device.ID,
		CredentialsType: models.CredentialsTypeAccessToken,
		CredentialsID:   newAccessToken(),
	}
	if err := r.entities.SaveDeviceCredentials(ctx, creds); err != nil {
		return fmt.Errorf("provision credentials for device %s: %w", device.ID, err)
	}

	if !conflicted {
		r.notifyLifecycle(ctx, session, models.EdgeEventTypeDevice, device.ID, models.ActionAdded)
	}

	return nil
}

func (r *Reconciler) applyDeviceFields(ctx context.Context, session *SessionState,
	device *models.Device, msg *models.DeviceUpdateMsg) error {
	device.Name = msg.Name
	device.Type = msg.Type
	device.Label = msg.Label
	device.AdditionalInfo = msg.AdditionalInfo

	if err := r.entities.SaveDevice(ctx, device); err != nil {
		return fmt.Errorf("save device %s: %w", device.ID, err)
	}

	r.notifyLifecycle(ctx, session, models.EdgeEventTypeDevice, device.ID, models.ActionUpdated)

	return r.queueCredentialsRequest(ctx, session, models.EdgeEventTypeDevice, device.ID)
}

func deviceFromMsg(session *SessionState, msg *models.DeviceUpdateMsg) *models.Device {
	return &models.Device{
		ID:             msg.ID,
		TenantID:       session.TenantID,
		Name:           msg.Name,
		Type:           msg.Type,
		Label:          msg.Label,
		AdditionalInfo: msg.AdditionalInfo,
	}
}

// ApplyDeviceCredentials stores credential state reported by the edge
// for a device it manages. An existing record is updated in place so
// its identity survives rotations.
func (r *Reconciler) ApplyDeviceCredentials(ctx context.Context, session *SessionState,
	msg *models.DeviceCredentialsUpdateMsg) error {
	if _, err := r.entities.FindDeviceByID(ctx, session.TenantID, msg.DeviceID); err != nil {
		return fmt.Errorf("device %s: %w", msg.DeviceID, err)
	}

	creds, err := r.entities.FindDeviceCredentials(ctx, msg.DeviceID)
	if err != nil {
		if !errors.Is(err, db.ErrDeviceNotFound) {
			return fmt.Errorf("credentials for device %s: %w", msg.DeviceID, err)
		}

		creds = &models.DeviceCredentials{DeviceID: msg.DeviceID}
	}

	creds.CredentialsType = msg.CredentialsType
	creds.CredentialsID = msg.CredentialsID
	creds.CredentialsValue = msg.CredentialsValue

	if err := r.entities.SaveDeviceCredentials(ctx, creds); err != nil {
		return fmt.Errorf("save credentials for device %s: %w", msg.DeviceID, err)
	}

	r.notifyLifecycle(ctx, session, models.EdgeEventTypeDevice, msg.DeviceID, models.ActionCredentialsUpdated)

	return nil
}
