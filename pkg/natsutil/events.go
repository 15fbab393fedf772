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

// Package natsutil publishes protocol notifications to NATS JetStream:
// entity lifecycle events for the business-rule pipeline and wake
// signals for edge dispatch loops.
package natsutil

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/edgefleet/edgefleet/pkg/models"
)

const (
	eventSource         = "edgefleet/core"
	entityChangeType    = "com.edgefleet.entity.change"
	eventsPendingType   = "com.edgefleet.edge.events-pending"
	entityChangeSubject = "edge.entity.change"
	pendingSubjectFmt   = "edge.pending.%s"
)

// EventPublisher publishes CloudEvents to a JetStream stream.
type EventPublisher struct {
	js     jetstream.JetStream
	stream string
}

// NewEventPublisher wraps an existing JetStream context.
func NewEventPublisher(js jetstream.JetStream, streamName string) *EventPublisher {
	return &EventPublisher{
		js:     js,
		stream: streamName,
	}
}

type entityChangeData struct {
	TenantID   uuid.UUID              `json:"tenant_id"`
	EntityType models.EdgeEventType   `json:"entity_type"`
	EntityID   uuid.UUID              `json:"entity_id"`
	Action     models.EdgeEventAction `json:"action"`
}

// NotifyEntityChange publishes an "entity mutated" event into the
// business-rule pipeline.
func (p *EventPublisher) NotifyEntityChange(ctx context.Context, tenantID uuid.UUID,
	entityType models.EdgeEventType, entityID uuid.UUID, action models.EdgeEventAction) error {
	return p.publish(ctx, entityChangeSubject, entityChangeType, entityChangeData{
		TenantID:   tenantID,
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
	})
}

type eventsPendingData struct {
	TenantID uuid.UUID `json:"tenant_id"`
	EdgeID   uuid.UUID `json:"edge_id"`
}

// NotifyEdgeEventsPending publishes a wake signal for one edge's
// dispatch loop.
func (p *EventPublisher) NotifyEdgeEventsPending(ctx context.Context, tenantID, edgeID uuid.UUID) error {
	subject := fmt.Sprintf(pendingSubjectFmt, edgeID)

	return p.publish(ctx, subject, eventsPendingType, eventsPendingData{
		TenantID: tenantID,
		EdgeID:   edgeID,
	})
}

func (p *EventPublisher) publish(ctx context.Context, subject, eventType string, data interface{}) error {
	event := models.CloudEvent{
		SpecVersion:     "1.0",
		ID:              uuid.New().String(),
		Source:          eventSource,
		Type:            eventType,
		DataContentType: "application/json",
		Subject:         subject,
		Data:            data,
	}

	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", eventType, err)
	}

	if _, err := p.js.Publish(ctx, subject, eventBytes); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", eventType, err)
	}

	return nil
}

// ConnectWithEventPublisher connects to NATS, ensures the stream exists
// and returns a publisher bound to it.
func ConnectWithEventPublisher(ctx context.Context, cfg *models.NATSConfig, opts ...nats.Option) (*EventPublisher, *nats.Conn, error) {
	if cfg.CertFile != "" {
		tlsConf, err := TLSConfig(cfg)
		if err != nil {
			return nil, nil, err
		}

		opts = append(opts, nats.Secure(tlsConf))
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	if _, err := js.Stream(ctx, cfg.StreamName); err != nil {
		streamConfig := jetstream.StreamConfig{
			Name:     cfg.StreamName,
			Subjects: []string{"edge.>"},
		}

		if _, err := js.CreateOrUpdateStream(ctx, streamConfig); err != nil {
			nc.Close()
			return nil, nil, fmt.Errorf("failed to create or get stream %s: %w", cfg.StreamName, err)
		}
	}

	return NewEventPublisher(js, cfg.StreamName), nc, nil
}
