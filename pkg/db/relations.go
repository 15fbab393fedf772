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

	"github.com/edgefleet/edgefleet/pkg/models"
)

// SaveRelation upserts a directed relation between two entities.
func (db *DB) SaveRelation(ctx context.Context, tenantID uuid.UUID, rel *models.EntityRelation) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO relations
			(tenant_id, from_id, from_type, to_id, to_type, relation_type, relation_type_group, additional_info)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (tenant_id, from_id, from_type, to_id, to_type, relation_type, relation_type_group)
		 DO UPDATE SET additional_info = EXCLUDED.additional_info`,
		tenantID, rel.From.ID, string(rel.From.Type), rel.To.ID, string(rel.To.Type),
		rel.Type, rel.TypeGroup, rel.AdditionalInfo)
	if err != nil {
		return fmt.Errorf("%w: relation: %w", ErrFailedToInsert, err)
	}

	return nil
}

// DeleteRelation removes a relation; missing rows are not an error.
func (db *DB) DeleteRelation(ctx context.Context, tenantID uuid.UUID, rel *models.EntityRelation) error {
	_, err := db.pool.Exec(ctx,
		`DELETE FROM relations
		 WHERE tenant_id = $1 AND from_id = $2 AND from_type = $3
			AND to_id = $4 AND to_type = $5
			AND relation_type = $6 AND relation_type_group = $7`,
		tenantID, rel.From.ID, string(rel.From.Type), rel.To.ID, string(rel.To.Type),
		rel.Type, rel.TypeGroup)
	if err != nil {
		return fmt.Errorf("%w: relation: %w", ErrFailedToQuery, err)
	}

	return nil
}

// RelationExists reports whether a relation row is present.
func (db *DB) RelationExists(ctx context.Context, tenantID uuid.UUID, rel *models.EntityRelation) (bool, error) {
	var exists bool

	err := db.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM relations
		 WHERE tenant_id = $1 AND from_id = $2 AND from_type = $3
			AND to_id = $4 AND to_type = $5
			AND relation_type = $6 AND relation_type_group = $7)`,
		tenantID, rel.From.ID, string(rel.From.Type), rel.To.ID, string(rel.To.Type),
		rel.Type, rel.TypeGroup,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: relation existence: %w", ErrFailedToQuery, err)
	}

	return exists, nil
}
