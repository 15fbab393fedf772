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
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/edgefleet/edgefleet/pkg/models"
)

const edgeColumns = `id, tenant_id, customer_id, root_rule_chain_id, name, type, routing_key, secret, created_time`

// FindEdgeByID loads one edge by id.
func (db *DB) FindEdgeByID(ctx context.Context, tenantID, edgeID uuid.UUID) (*models.Edge, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+edgeColumns+` FROM edges WHERE tenant_id = $1 AND id = $2`,
		tenantID, edgeID)

	return scanEdge(row)
}

// FindEdgesByTenantID reads one page of a tenant's edges ordered by
// creation time.
func (db *DB) FindEdgesByTenantID(ctx context.Context, tenantID uuid.UUID,
	link models.PageLink) (models.PageData[*models.Edge], error) {
	var page models.PageData[*models.Edge]

	var total int64
	if err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM edges WHERE tenant_id = $1`, tenantID).Scan(&total); err != nil {
		return page, fmt.Errorf("%w: count edges: %w", ErrFailedToQuery, err)
	}

	rows, err := db.pool.Query(ctx,
		`SELECT `+edgeColumns+` FROM edges
		 WHERE tenant_id = $1
		 ORDER BY created_time ASC, id ASC
		 LIMIT $2 OFFSET $3`,
		tenantID, link.PageSize, link.Offset())
	if err != nil {
		return page, fmt.Errorf("%w: edges: %w", ErrFailedToQuery, err)
	}
	defer rows.Close()

	edges := make([]*models.Edge, 0, link.PageSize)

	for rows.Next() {
		edge, err := scanEdge(rows)
		if err != nil {
			return page, err
		}

		edges = append(edges, edge)
	}

	if err := rows.Err(); err != nil {
		return page, fmt.Errorf("%w: edges: %w", ErrFailedToQuery, err)
	}

	page.Data = edges
	page.TotalElements = total
	page.HasNext = int64(link.Offset()+len(edges)) < total

	return page, nil
}

// FindRelatedEdgeIDs reads one page of edge ids managing an entity,
// resolved through ManagedByEdge relations.
func (db *DB) FindRelatedEdgeIDs(ctx context.Context, tenantID, entityID uuid.UUID,
	link models.PageLink) (models.PageData[uuid.UUID], error) {
	var page models.PageData[uuid.UUID]

	var total int64
	if err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM relations
		 WHERE tenant_id = $1 AND to_id = $2
			AND from_type = 'EDGE' AND relation_type = $3 AND relation_type_group = $4`,
		tenantID, entityID, models.EdgeRelationType, models.RelationTypeGroupCommon).Scan(&total); err != nil {
		return page, fmt.Errorf("%w: count related edges: %w", ErrFailedToQuery, err)
	}

	rows, err := db.pool.Query(ctx,
		`SELECT from_id FROM relations
		 WHERE tenant_id = $1 AND to_id = $2
			AND from_type = 'EDGE' AND relation_type = $3 AND relation_type_group = $4
		 ORDER BY from_id ASC
		 LIMIT $5 OFFSET $6`,
		tenantID, entityID, models.EdgeRelationType, models.RelationTypeGroupCommon,
		link.PageSize, link.Offset())
	if err != nil {
		return page, fmt.Errorf("%w: related edges: %w", ErrFailedToQuery, err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0, link.PageSize)

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return page, fmt.Errorf("%w: related edge id: %w", ErrFailedToScan, err)
		}

		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return page, fmt.Errorf("%w: related edges: %w", ErrFailedToQuery, err)
	}

	page.Data = ids
	page.TotalElements = total
	page.HasNext = int64(link.Offset()+len(ids)) < total

	return page, nil
}

// FindEdgeEntityIDs reads one page of entity ids of one category
// managed by an edge, the reverse direction of FindRelatedEdgeIDs.
func (db *DB) FindEdgeEntityIDs(ctx context.Context, tenantID, edgeID uuid.UUID,
	entityType models.EdgeEventType, link models.PageLink) (models.PageData[uuid.UUID], error) {
	var page models.PageData[uuid.UUID]

	var total int64
	if err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM relations
		 WHERE tenant_id = $1 AND from_id = $2 AND from_type = 'EDGE'
			AND to_type = $3 AND relation_type = $4 AND relation_type_group = $5`,
		tenantID, edgeID, string(entityType),
		models.EdgeRelationType, models.RelationTypeGroupCommon).Scan(&total); err != nil {
		return page, fmt.Errorf("%w: count edge entities: %w", ErrFailedToQuery, err)
	}

	rows, err := db.pool.Query(ctx,
		`SELECT to_id FROM relations
		 WHERE tenant_id = $1 AND from_id = $2 AND from_type = 'EDGE'
			AND to_type = $3 AND relation_type = $4 AND relation_type_group = $5
		 ORDER BY to_id ASC
		 LIMIT $6 OFFSET $7`,
		tenantID, edgeID, string(entityType),
		models.EdgeRelationType, models.RelationTypeGroupCommon,
		link.PageSize, link.Offset())
	if err != nil {
		return page, fmt.Errorf("%w: edge entities: %w", ErrFailedToQuery, err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0, link.PageSize)

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return page, fmt.Errorf("%w: edge entity id: %w", ErrFailedToScan, err)
		}

		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return page, fmt.Errorf("%w: edge entities: %w", ErrFailedToQuery, err)
	}

	page.Data = ids
	page.TotalElements = total
	page.HasNext = int64(link.Offset()+len(ids)) < total

	return page, nil
}

func scanEdge(row pgx.Row) (*models.Edge, error) {
	var edge models.Edge

	err := row.Scan(&edge.ID, &edge.TenantID, &edge.CustomerID, &edge.RootRuleChainID,
		&edge.Name, &edge.Type, &edge.RoutingKey, &edge.Secret, &edge.CreatedTime)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEdgeNotFound
		}

		return nil, fmt.Errorf("%w: edge: %w", ErrFailedToScan, err)
	}

	return &edge, nil
}
