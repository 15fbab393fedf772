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

	"github.com/google/uuid"

	"github.com/edgefleet/edgefleet/pkg/models"
)

// Fixed attribute keys of the per-edge delivery cursor.
const (
	OffsetStartTsKey    = "queueStartTs"
	OffsetStartSeqIDKey = "queueStartSeqId"
)

// OffsetStore reads and writes the durable per-edge cursor, stored as
// two server-scope attributes on the edge entity.
type OffsetStore struct {
	attrs AttributeStore
	clock Clock
}

func NewOffsetStore(attrs AttributeStore, clock Clock) *OffsetStore {
	return &OffsetStore{attrs: attrs, clock: clock}
}

// Load reads the persisted cursor. Missing attributes read as zero;
// callers treat a zero StartSeqID as "derive from the oldest event".
func (s *OffsetStore) Load(ctx context.Context, tenantID, edgeID uuid.UUID) (models.Offset, error) {
	var offset models.Offset

	tsAttr, err := s.attrs.GetAttribute(ctx, tenantID, edgeID, OffsetStartTsKey)
	if err != nil {
		return offset, err
	}

	if tsAttr != nil && tsAttr.LongValue != nil {
		offset.StartTs = *tsAttr.LongValue
	}

	seqAttr, err := s.attrs.GetAttribute(ctx, tenantID, edgeID, OffsetStartSeqIDKey)
	if err != nil {
		return offset, err
	}

	if seqAttr != nil && seqAttr.LongValue != nil {
		offset.StartSeqID = *seqAttr.LongValue
	}

	return offset, nil
}

// Save persists the cursor. Called only after a confirmed send.
func (s *OffsetStore) Save(ctx context.Context, tenantID, edgeID uuid.UUID, offset models.Offset) error {
	ts := s.clock.Now().UnixMilli()

	return s.attrs.SaveAttributes(ctx, tenantID, edgeID, []models.AttributeKvEntry{
		models.NewLongAttribute(OffsetStartTsKey, offset.StartTs, ts),
		models.NewLongAttribute(OffsetStartSeqIDKey, offset.StartSeqID, ts),
	})
}
