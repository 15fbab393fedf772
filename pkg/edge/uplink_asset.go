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

const assetCreationLock = "asset-creation"

// createAsset mirrors the device creation flow for assets, minus
// credential provisioning.
func (r *Reconciler) createAsset(ctx context.Context, session *SessionState, payload json.RawMessage) error {
	var msg models.AssetUpdateMsg
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("decode asset msg: %w", err)
	}

	msg.Version = 0

	unlock := r.locks.Lock(assetCreationLock)
	defer unlock()

	existing, err := r.entities.FindAssetByName(ctx, session.TenantID, msg.Name)

	switch {
	case errors.Is(err, db.ErrAssetNotFound):
		return r.provisionAsset(ctx, session, assetFromMsg(session, &msg), false)

	case err != nil:
		return fmt.Errorf("lookup asset %q: %w", msg.Name, err)
	}

	related, err := r.relatedToEdge(ctx, session, models.EdgeEventTypeAsset, existing.ID)
	if err != nil {
		return err
	}

	if related {
		return r.applyAssetFields(ctx, session, existing, &msg)
	}

	asset := assetFromMsg(session, &msg)
	asset.Name = conflictName(msg.Name)

	r.logger.Info().
		Str("edge_id", session.EdgeID.String()).
		Str("conflict_name", msg.Name).
		Str("new_name", asset.Name).
		Msg("Asset name conflict, creating disambiguated copy")

	if err := r.provisionAsset(ctx, session, asset, true); err != nil {
		return err
	}

	return r.queueMergeRequest(ctx, session, models.EdgeEventTypeAsset, asset.ID, msg.Name)
}

func (r *Reconciler) updateAsset(ctx context.Context, session *SessionState, payload json.RawMessage) error {
	var msg models.AssetUpdateMsg
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("decode asset msg: %w", err)
	}

	msg.Version = 0

	asset, err := r.entities.FindAssetByID(ctx, session.TenantID, msg.ID)
	if err != nil {
		return fmt.Errorf("asset %s: %w", msg.ID, err)
	}

	return r.applyAssetFields(ctx, session, asset, &msg)
}

func (r *Reconciler) detachAsset(ctx context.Context, session *SessionState, payload json.RawMessage) error {
	var msg models.AssetUpdateMsg
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("decode asset msg: %w", err)
	}

	err := r.entities.DeleteRelation(ctx, session.TenantID, &models.EntityRelation{
		From:      models.EntityRef{Type: models.EdgeEventTypeEdge, ID: session.EdgeID},
		To:        models.EntityRef{Type: models.EdgeEventTypeAsset, ID: msg.ID},
		Type:      models.EdgeRelationType,
		TypeGroup: models.RelationTypeGroupCommon,
	})
	if err != nil {
		return err
	}

	r.notifyLifecycle(ctx, session, models.EdgeEventTypeAsset, msg.ID, models.ActionUnassignedFromEdge)

	return nil
}

func (r *Reconciler) provisionAsset(ctx context.Context, session *SessionState,
	asset *models.Asset, conflicted bool) error {
	asset.CreatedTime = r.clock.Now().UnixMilli()

	if err := r.entities.SaveAsset(ctx, asset); err != nil {
		return fmt.Errorf("save asset %q: %w", asset.Name, err)
	}

	if err := r.relateToEdge(ctx, session, models.EdgeEventTypeAsset, asset.ID); err != nil {
		return fmt.Errorf("relate asset %s to edge: %w", asset.ID, err)
	}

	if !conflicted {
		r.notifyLifecycle(ctx, session, models.EdgeEventTypeAsset, asset.ID, models.ActionAdded)
	}

	return nil
}

func (r *Reconciler) applyAssetFields(ctx context.Context, session *SessionState,
	asset *models.Asset, msg *models.AssetUpdateMsg) error {
	asset.Name = msg.Name
	asset.Type = msg.Type
	asset.Label = msg.Label
	asset.AdditionalInfo = msg.AdditionalInfo

	if err := r.entities.SaveAsset(ctx, asset); err != nil {
		return fmt.Errorf("save asset %s: %w", asset.ID, err)
	}

	r.notifyLifecycle(ctx, session, models.EdgeEventTypeAsset, asset.ID, models.ActionUpdated)

	return nil
}

func assetFromMsg(session *SessionState, msg *models.AssetUpdateMsg) *models.Asset {
	return &models.Asset{
		ID:             msg.ID,
		TenantID:       session.TenantID,
		Name:           msg.Name,
		Type:           msg.Type,
		Label:          msg.Label,
		AdditionalInfo: msg.AdditionalInfo,
	}
}
