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

package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/edgefleet/edgefleet/pkg/models"
)

// GetAttribute reads one server-scope attribute of an entity. Returns
// (nil, nil) when the attribute is absent; absence is a normal state,
// not an error.
func (db *DB) GetAttribute(ctx context.Context, tenantID, entityID uuid.UUID, key string) (*models.AttributeKvEntry, error) {
	if key == "" {
		return nil, ErrAttributeKeyEmpty
	}

	var entry models.AttributeKvEntry

	err := db.pool.QueryRow(ctx,
		`SELECT attribute_key, str_value, long_value, bool_value, last_update_ts
		 FROM attributes
		 WHERE tenant_id = $1 AND entity_id = $2 AND attribute_key = $3`,
		tenantID, entityID, key,
	).Scan(&entry.Key, &entry.StrValue, &entry.LongValue, &entry.BoolValue, &entry.LastUpdateTs)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}

		return nil, fmt.Errorf("%w: attribute %s: %w", ErrFailedToQuery, key, err)
	}

	return &entry, nil
}

// SaveAttributes upserts server-scope attributes of an entity in a
// single batch.
func (db *DB) SaveAttributes(ctx context.Context, tenantID, entityID uuid.UUID, entries []models.AttributeKvEntry) error {
	if len(entries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}

	for _, entry := range entries {
		if entry.Key == "" {
			return ErrAttributeKeyEmpty
		}

		batch.Queue(
			`INSERT INTO attributes
				(tenant_id, entity_id, attribute_key, str_value, long_value, bool_value, last_update_ts)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (tenant_id, entity_id, attribute_key) DO UPDATE SET
				str_value = EXCLUDED.str_value,
				long_value = EXCLUDED.long_value,
				bool_value = EXCLUDED.bool_value,
				last_update_ts = EXCLUDED.last_update_ts`,
			tenantID, entityID, entry.Key,
			entry.StrValue, entry.LongValue, entry.BoolValue, entry.LastUpdateTs)
	}

	results := db.pool.SendBatch(ctx, batch)
	defer func() { _ = results.Close() }()

	for range entries {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("%w: attributes: %w", ErrFailedToInsert, err)
		}
	}

	return nil
}
