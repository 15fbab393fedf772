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

package natsutil

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/edgefleet/edgefleet/pkg/models"
)

const downlinkSubjectFmt = "edge.downlink.%s"

// DownlinkPublisher delivers event batches to edge transport bridges
// over JetStream. A failed publish is a negative acknowledgement; the
// dispatcher refetches the batch on its next tick.
type DownlinkPublisher struct {
	js jetstream.JetStream
}

func NewDownlinkPublisher(js jetstream.JetStream) *DownlinkPublisher {
	return &DownlinkPublisher{js: js}
}

// SendDownlink publishes one batch on the edge's downlink subject.
func (p *DownlinkPublisher) SendDownlink(ctx context.Context, edgeID uuid.UUID, events []*models.EdgeEvent) error {
	payload, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("failed to marshal downlink batch: %w", err)
	}

	subject := fmt.Sprintf(downlinkSubjectFmt, edgeID)

	if _, err := p.js.Publish(ctx, subject, payload); err != nil {
		return fmt.Errorf("failed to publish downlink batch: %w", err)
	}

	return nil
}

// JetStream exposes the underlying JetStream context for callers that
// need to build additional publishers on the same connection.
func (p *EventPublisher) JetStream() jetstream.JetStream {
	return p.js
}
