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

	"github.com/edgefleet/edgefleet/pkg/models"
)

// saveRelation validates both endpoints centrally before persisting an
// edge-originated relation. Unknown entity categories are a hard
// validation error.
func (r *Reconciler) saveRelation(ctx context.Context, session *SessionState, payload json.RawMessage) error {
	var msg models.RelationUpdateMsg
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("decode relation msg: %w", err)
	}

	if err := r.verifyEndpoint(ctx, session, msg.Relation.From); err != nil {
		return err
	}

	if err := r.verifyEndpoint(ctx, session, msg.Relation.To); err != nil {
		return err
	}

	if err := r.entities.SaveRelation(ctx, session.TenantID, &msg.Relation); err != nil {
		return err
	}

	r.notifyLifecycle(ctx, session, models.EdgeEventTypeRelation, msg.Relation.From.ID,
		models.ActionRelationAddOrUpdate)

	return nil
}

func (r *Reconciler) deleteRelation(ctx context.Context, session *SessionState, payload json.RawMessage) error {
	var msg models.RelationUpdateMsg
	if err := json.Unmarshal(payload, &msg); err != nil {
		return fmt.Errorf("decode relation msg: %w", err)
	}

	if err := r.entities.DeleteRelation(ctx, session.TenantID, &msg.Relation); err != nil {
		return err
	}

	r.notifyLifecycle(ctx, session, models.EdgeEventTypeRelation, msg.Relation.From.ID,
		models.ActionRelationDeleted)

	return nil
}

func (r *Reconciler) verifyEndpoint(ctx context.Context, session *SessionState, ref models.EntityRef) error {
	var err error

	switch ref.Type {
	case models.EdgeEventTypeDevice:
		_, err = r.entities.FindDeviceByID(ctx, session.TenantID, ref.ID)
	case models.EdgeEventTypeAsset:
		_, err = r.entities.FindAssetByID(ctx, session.TenantID, ref.ID)
	case models.EdgeEventTypeEdge:
		// The session edge is known to exist; any other edge id is not a
		// valid relation endpoint from this edge.
		if ref.ID != session.EdgeID {
			return fmt.Errorf("%w: edge %s", ErrRelationEndpointMissing, ref.ID)
		}

		return nil
	default:
		return fmt.Errorf("%w: %s", ErrUnknownEntityType, ref.Type)
	}

	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrRelationEndpointMissing, ref.Type, ref.ID, err)
	}

	return nil
}
