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
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/edgefleet/edgefleet/pkg/logger"
	"github.com/edgefleet/edgefleet/pkg/models"
)

var (
	// ErrUnsupportedUplink is returned for (entity type, message type)
	// pairs with no registered handler.
	ErrUnsupportedUplink = errors.New("unsupported uplink message")
	// ErrRelationEndpointMissing is returned when a relation references
	// an entity that does not exist centrally.
	ErrRelationEndpointMissing = errors.New("relation endpoint does not exist")
	// ErrUnknownEntityType is returned for relation endpoints of a
	// category the reconciler cannot verify.
	ErrUnknownEntityType = errors.New("unknown entity type")
)

const (
	conflictSuffixLen = 15
	accessTokenLen    = 20
)

// UplinkMsg is one edge-originated mutation awaiting reconciliation.
type UplinkMsg struct {
	EntityType models.EdgeEventType
	MsgType    models.UpdateMsgType
	Payload    json.RawMessage
}

type handlerKey struct {
	entityType models.EdgeEventType
	msgType    models.UpdateMsgType
}

type uplinkHandler func(ctx context.Context, session *SessionState, payload json.RawMessage) error

// Reconciler applies edge-originated mutations to the central store.
// Handlers are registered in a closed dispatch table keyed by entity
// category and declared mutation kind; entity creation is serialized
// per category through a keyed mutex table.
type Reconciler struct {
	entities EntityStore
	events   EventStore
	notifier LifecycleNotifier
	clock    Clock
	locks    *keyMutex
	metrics  Metrics
	logger   zerolog.Logger
	handlers map[handlerKey]uplinkHandler
}

func NewReconciler(entities EntityStore, events EventStore, notifier LifecycleNotifier,
	clock Clock, metrics Metrics, log logger.Logger) *Reconciler {
	r := &Reconciler{
		entities: entities,
		events:   events,
		notifier: notifier,
		clock:    clock,
		locks:    newKeyMutex(),
		metrics:  metrics,
		logger:   log.WithComponent("edge.reconciler"),
	}

	r.handlers = map[handlerKey]uplinkHandler{
		{models.EdgeEventTypeDevice, models.MsgTypeEntityCreated}: r.createDevice,
		{models.EdgeEventTypeDevice, models.MsgTypeEntityUpdated}: r.updateDevice,
		{models.EdgeEventTypeDevice, models.MsgTypeEntityDeleted}: r.detachDevice,

		{models.EdgeEventTypeAsset, models.MsgTypeEntityCreated}: r.createAsset,
		{models.EdgeEventTypeAsset, models.MsgTypeEntityUpdated}: r.updateAsset,
		{models.EdgeEventTypeAsset, models.MsgTypeEntityDeleted}: r.detachAsset,

		{models.EdgeEventTypeRelation, models.MsgTypeEntityCreated}: r.saveRelation,
		{models.EdgeEventTypeRelation, models.MsgTypeEntityUpdated}: r.saveRelation,
		{models.EdgeEventTypeRelation, models.MsgTypeEntityDeleted}: r.deleteRelation,

		{models.EdgeEventTypeAlarm, models.MsgTypeEntityCreated}: r.saveAlarm,
		{models.EdgeEventTypeAlarm, models.MsgTypeEntityUpdated}: r.saveAlarm,
		{models.EdgeEventTypeAlarm, models.MsgTypeAlarmAck}:      r.ackAlarm,
		{models.EdgeEventTypeAlarm, models.MsgTypeAlarmClear}:    r.clearAlarm,
	}

	return r
}

// Apply dispatches one uplink message to its handler.
func (r *Reconciler) Apply(ctx context.Context, session *SessionState, msg UplinkMsg) error {
	handler, ok := r.handlers[handlerKey{msg.EntityType, msg.MsgType}]
	if !ok {
		return fmt.Errorf("%w: %s/%s", ErrUnsupportedUplink, msg.EntityType, msg.MsgType)
	}

	if err := handler(ctx, session, msg.Payload); err != nil {
		return err
	}

	r.metrics.UplinkApplied()

	return nil
}

// queueMergeRequest emits the name-conflict pair back to the
// originating edge: a merge request carrying the conflicting name,
// followed by a credentials request for the disambiguated entity.
func (r *Reconciler) queueMergeRequest(ctx context.Context, session *SessionState,
	entityType models.EdgeEventType, entityID uuid.UUID, conflictName string) error {
	body, err := json.Marshal(map[string]string{"conflictName": conflictName})
	if err != nil {
		return fmt.Errorf("encode conflict body: %w", err)
	}

	id := entityID

	merge := models.NewEdgeEvent(session.TenantID, session.EdgeID, entityType,
		models.ActionEntityMergeRequest, &id, body)
	if _, err := r.events.SaveEdgeEvent(ctx, merge); err != nil {
		return fmt.Errorf("queue merge request: %w", err)
	}

	r.metrics.UplinkConflict()

	return r.queueCredentialsRequest(ctx, session, entityType, entityID)
}

func (r *Reconciler) queueCredentialsRequest(ctx context.Context, session *SessionState,
	entityType models.EdgeEventType, entityID uuid.UUID) error {
	id := entityID

	event := models.NewEdgeEvent(session.TenantID, session.EdgeID, entityType,
		models.ActionCredentialsRequest, &id, nil)
	if _, err := r.events.SaveEdgeEvent(ctx, event); err != nil {
		return fmt.Errorf("queue credentials request: %w", err)
	}

	return nil
}

// relateToEdge records that the edge manages the entity.
func (r *Reconciler) relateToEdge(ctx context.Context, session *SessionState,
	entityType models.EdgeEventType, entityID uuid.UUID) error {
	return r.entities.SaveRelation(ctx, session.TenantID, &models.EntityRelation{
		From:      models.EntityRef{Type: models.EdgeEventTypeEdge, ID: session.EdgeID},
		To:        models.EntityRef{Type: entityType, ID: entityID},
		Type:      models.EdgeRelationType,
		TypeGroup: models.RelationTypeGroupCommon,
	})
}

func (r *Reconciler) relatedToEdge(ctx context.Context, session *SessionState,
	entityType models.EdgeEventType, entityID uuid.UUID) (bool, error) {
	return r.entities.RelationExists(ctx, session.TenantID, &models.EntityRelation{
		From:      models.EntityRef{Type: models.EdgeEventTypeEdge, ID: session.EdgeID},
		To:        models.EntityRef{Type: entityType, ID: entityID},
		Type:      models.EdgeRelationType,
		TypeGroup: models.RelationTypeGroupCommon,
	})
}

func (r *Reconciler) notifyLifecycle(ctx context.Context, session *SessionState,
	entityType models.EdgeEventType, entityID uuid.UUID, action models.EdgeEventAction) {
	if err := r.notifier.NotifyEntityChange(ctx, session.TenantID, entityType, entityID, action); err != nil {
		r.logger.Warn().Err(err).
			Str("entity_id", entityID.String()).
			Str("action", string(action)).
			Msg("Failed to publish lifecycle notification")
	}
}

const (
	alphabetic   = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	alphanumeric = alphabetic + "0123456789"
)

func randomString(alphabet string, length int) string {
	out := make([]byte, length)
	limit := big.NewInt(int64(len(alphabet)))

	for i := range out {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			panic(err)
		}

		out[i] = alphabet[n.Int64()]
	}

	return string(out)
}

// conflictName disambiguates a colliding natural key.
func conflictName(name string) string {
	return name + "_" + randomString(alphabetic, conflictSuffixLen)
}

// newAccessToken provisions a default device credential value.
func newAccessToken() string {
	return randomString(alphanumeric, accessTokenLen)
}
