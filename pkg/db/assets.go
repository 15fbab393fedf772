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

const assetColumns = `id, tenant_id, customer_id, name, type, label, additional_info, created_time, version`

// SaveAsset upserts an asset, bumping its version marker.
func (db *DB) SaveAsset(ctx context.Context, asset *models.Asset) error {
	err := db.pool.QueryRow(ctx,
		`INSERT INTO assets (`+assetColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1)
		 ON CONFLICT (id) DO UPDATE SET
			customer_id = EXCLUDED.customer_id,
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			label = EXCLUDED.label,
			additional_info = EXCLUDED.additional_info,
			version = assets.version + 1
		 RETURNING version`,
		asset.ID, asset.TenantID, asset.CustomerID, asset.Name, asset.Type,
		nullableStr(asset.Label), asset.AdditionalInfo, asset.CreatedTime,
	).Scan(&asset.Version)
	if err != nil {
		return fmt.Errorf("%w: asset: %w", ErrFailedToInsert, err)
	}

	return nil
}

// FindAssetByID loads one asset by id.
func (db *DB) FindAssetByID(ctx context.Context, tenantID, assetID uuid.UUID) (*models.Asset, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+assetColumns+` FROM assets WHERE tenant_id = $1 AND id = $2`,
		tenantID, assetID)

	return scanAsset(row)
}

// FindAssetByName resolves an asset by its tenant-unique name.
func (db *DB) FindAssetByName(ctx context.Context, tenantID uuid.UUID, name string) (*models.Asset, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+assetColumns+` FROM assets WHERE tenant_id = $1 AND name = $2`,
		tenantID, name)

	return scanAsset(row)
}

func scanAsset(row pgx.Row) (*models.Asset, error) {
	var (
		asset models.Asset
		label *string
	)

	err := row.Scan(&asset.ID, &asset.TenantID, &asset.CustomerID, &asset.Name,
		&asset.Type, &label, &asset.AdditionalInfo, &asset.CreatedTime, &asset.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAssetNotFound
		}

		return nil, fmt.Errorf("%w: asset: %w", ErrFailedToScan, err)
	}

	if label != nil {
		asset.Label = *label
	}

	return &asset, nil
}
