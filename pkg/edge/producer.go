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

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/edgefleet/edgefleet/pkg/logger"
	"github.com/edgefleet/edgefleet/pkg/models"
)

// ErrTargetEdgeRequired is returned when an edge assignment change
// arrives without the target edge id.
var ErrTargetEdgeRequired = errors.New("target edge id is required for assignment actions")

// fanOutConcurrency bounds concurrent per-edge writes within one page.
const fanOutConcurrency = 8

// EntityChange describes one central-store mutation to fan out.
type EntityChange struct {
	TenantID   uuid.UUID
	EntityID   uuid.UUID
	EntityType models.EdgeEventType
	Action     models.EdgeEventAction
	// EdgeID is the target edge for assignment actions. For every other
	// action it marks the originating edge, which is excluded from the
	// fan-out so changes do not echo back to their source.
	EdgeID *uuid.UUID
	Body   json.RawMessage
}

// Producer turns one entity mutation into durable events for every
// interested edge.
type Producer struct {
	events   EventStore
	attrs    AttributeStore
	edges    EdgeLookup
	entities EntityStore
	notifier LifecycleNotifier
	metrics  Metrics
	logger   zerolog.Logger
	pageSize int
}

func NewProducer(events EventStore, attrs AttributeStore, edges EdgeLookup, entities EntityStore,
	notifier LifecycleNotifier, metrics Metrics, log logger.Logger, pageSize int) *Producer {
	if pageSize <= 0 {
		pageSize = models.DefaultPageSize
	}

	return &Producer{
		events:   events,
		attrs:    attrs,
		edges:    edges,
		entities: entities,
		notifier: notifier,
		metrics:  metrics,
		logger:   log.WithComponent("edge.producer"),
		pageSize: pageSize,
	}
}

// RecordEntityChange resolves the interested edge set and appends one
// event per edge, subject to the offline persistence policy. Failures
// are isolated per edge; the first one is returned after all targets
// have been attempted.
func (p *Producer) RecordEntityChange(ctx context.Context, change EntityChange) error {
	switch change.Action {
	case models.ActionAssignedToEdge, models.ActionUnassignedFromEdge:
		return p.recordAssignment(ctx, change)
	}

	if change.EntityType.AllEdgesRelated() {
		return p.fanOutTenantWide(ctx, change)
	}

	return p.fanOutRelated(ctx, change)
}

// recordAssignment targets exactly the assignment's edge. Rule chain
// assignments additionally refresh metadata of every chain on that edge
// whose connections reference the assigned chain.
func (p *Producer) recordAssignment(ctx context.Context, change EntityChange) error {
	if change.EdgeID == nil {
		return ErrTargetEdgeRequired
	}

	edgeID := *change.EdgeID

	if err := p.saveForEdge(ctx, edgeID, change); err != nil {
		return err
	}

	if change.EntityType != models.EdgeEventTypeRuleChain {
		return nil
	}

	return p.refreshDependentRuleChains(ctx, edgeID, change)
}

func (p *Producer) refreshDependentRuleChains(ctx context.Context, edgeID uuid.UUID, change EntityChange) error {
	chains := models.Paginate(p.pageSize, func(link models.PageLink) (models.PageData[uuid.UUID], error) {
		return p.edges.FindEdgeEntityIDs(ctx, change.TenantID, edgeID, models.EdgeEventTypeRuleChain, link)
	})

	for chainID, err := range chains {
		if err != nil {
			return fmt.Errorf("list rule chains of edge %s: %w", edgeID, err)
		}

		if chainID == change.EntityID {
			continue
		}

		connections, err := p.entities.FindRuleChainConnections(ctx, chainID)
		if err != nil {
			return err
		}

		for _, conn := range connections {
			if conn.TargetRuleChainID != change.EntityID {
				continue
			}

			dependent := EntityChange{
				TenantID:   change.TenantID,
				EntityID:   chainID,
				EntityType: models.EdgeEventTypeRuleChainMetadata,
				Action:     models.ActionUpdated,
			}
			if err := p.saveForEdge(ctx, edgeID, dependent); err != nil {
				return err
			}

			break
		}
	}

	return nil
}

func (p *Producer) fanOutTenantWide(ctx context.Context, change EntityChange) error {
	edges := models.Paginate(p.pageSize, func(link models.PageLink) (models.PageData[*models.Edge], error) {
		return p.edges.FindEdgesByTenantID(ctx, change.TenantID, link)
	})

	var g errgroup.Group

	g.SetLimit(fanOutConcurrency)

	for e, err := range edges {
		if err != nil {
			saveErr := g.Wait()

			scanErr := fmt.Errorf("scan tenant edges: %w", err)
			if saveErr != nil {
				return errors.Join(scanErr, saveErr)
			}

			return scanErr
		}

		if change.EdgeID != nil && e.ID == *change.EdgeID {
			continue
		}

		edgeID := e.ID

		g.Go(func() error {
			return p.saveForEdge(ctx, edgeID, change)
		})
	}

	return g.Wait()
}

func (p *Producer) fanOutRelated(ctx context.Context, change EntityChange) error {
	related := models.Paginate(p.pageSize, func(link models.PageLink) (models.PageData[uuid.UUID], error) {
		return p.edges.FindRelatedEdgeIDs(ctx, change.TenantID, change.EntityID, link)
	})

	var g errgroup.Group

	g.SetLimit(fanOutConcurrency)

	for edgeID, err := range related {
		if err != nil {
			saveErr := g.Wait()

			scanErr := fmt.Errorf("scan related edges: %w", err)
			if saveErr != nil {
				return errors.Join(scanErr, saveErr)
			}

			return scanErr
		}

		if change.EdgeID != nil && edgeID == *change.EdgeID {
			continue
		}

		g.Go(func() error {
			return p.saveForEdge(ctx, edgeID, change)
		})
	}

	return g.Wait()
}

// saveForEdge applies the offline persistence policy and appends the
// event. A pending-events wake signal is published best effort.
func (p *Producer) saveForEdge(ctx context.Context, edgeID uuid.UUID, change EntityChange) error {
	attr, err := p.attrs.GetAttribute(ctx, change.TenantID, edgeID, ActivityAttributeKey)
	if err != nil {
		return fmt.Errorf("read activity of edge %s: %w", edgeID, err)
	}

	var active *bool
	if attr != nil {
		active = attr.BoolValue
	}

	if !PersistDecision(active, change.EntityType, change.Action) {
		p.metrics.EventDropped()
		p.logger.Trace().
			Str("edge_id", edgeID.String()).
			Str("type", string(change.EntityType)).
			Str("action", string(change.Action)).
			Msg("Dropped event for offline edge")

		return nil
	}

	var entityID *uuid.UUID
	if change.EntityID != uuid.Nil {
		id := change.EntityID
		entityID = &id
	}

	event := models.NewEdgeEvent(change.TenantID, edgeID, change.EntityType, change.Action, entityID, change.Body)

	if _, err := p.events.SaveEdgeEvent(ctx, event); err != nil {
		return fmt.Errorf("save event for edge %s: %w", edgeID, err)
	}

	p.metrics.EventPersisted()

	if err := p.notifier.NotifyEdgeEventsPending(ctx, change.TenantID, edgeID); err != nil {
		p.logger.Warn().Err(err).
			Str("edge_id", edgeID.String()).
			Msg("Failed to publish pending-events signal")
	}

	return nil
}
