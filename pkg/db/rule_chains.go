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

// FindRuleChainByID loads one rule chain.
func (db *DB) FindRuleChainByID(ctx context.Context, tenantID, chainID uuid.UUID) (*models.RuleChain, error) {
	var chain models.RuleChain

	err := db.pool.QueryRow(ctx,
		`SELECT id, tenant_id, name, root, created_time
		 FROM rule_chains WHERE tenant_id = $1 AND id = $2`,
		tenantID, chainID,
	).Scan(&chain.ID, &chain.TenantID, &chain.Name, &chain.Root, &chain.CreatedTime)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRuleChainNotFound
		}

		return nil, fmt.Errorf("%w: rule chain: %w", ErrFailedToScan, err)
	}

	return &chain, nil
}

// FindRuleChainConnections lists the target chains wired from a chain's
// nodes. Assigned chains drag their connected chains onto the edge.
func (db *DB) FindRuleChainConnections(ctx context.Context, chainID uuid.UUID) ([]models.RuleChainConnection, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT from_index, target_rule_chain_id, type, additional_info
		 FROM rule_chain_connections WHERE rule_chain_id = $1
		 ORDER BY from_index ASC, target_rule_chain_id ASC`, chainID)
	if err != nil {
		return nil, fmt.Errorf("%w: rule chain connections: %w", ErrFailedToQuery, err)
	}
	defer rows.Close()

	var connections []models.RuleChainConnection

	for rows.Next() {
		var conn models.RuleChainConnection
		if err := rows.Scan(&conn.FromIndex, &conn.TargetRuleChainID, &conn.Type, &conn.AdditionalInfo); err != nil {
			return nil, fmt.Errorf("%w: rule chain connection: %w", ErrFailedToScan, err)
		}

		connections = append(connections, conn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: rule chain connections: %w", ErrFailedToQuery, err)
	}

	return connections, nil
}
