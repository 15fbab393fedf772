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

const deviceColumns = `id, tenant_id, customer_id, name, type, label, additional_info, created_time, version`

// SaveDevice upserts a device, bumping its version marker.
func (db *DB) SaveDevice(ctx context.Context, device *models.Device) error {
	err := db.pool.QueryRow(ctx,
		`INSERT INTO devices (`+deviceColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1)
		 ON CONFLICT (id) DO UPDATE SET
			customer_id = EXCLUDED.customer_id,
			name = EXCLUDED.name,
			type = EXCLUDED.type,
			label = EXCLUDED.label,
			additional_info = EXCLUDED.additional_info,
			version = devices.version + 1
		 RETURNING version`,
		device.ID, device.TenantID, device.CustomerID, device.Name, device.Type,
		nullableStr(device.Label), device.AdditionalInfo, device.CreatedTime,
	).Scan(&device.Version)
	if err != nil {
		return fmt.Errorf("%w: device: %w", ErrFailedToInsert, err)
	}

	return nil
}

// FindDeviceByID loads one device by id.
func (db *DB) FindDeviceByID(ctx context.Context, tenantID, deviceID uuid.UUID) (*models.Device, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE tenant_id = $1 AND id = $2`,
		tenantID, deviceID)

	return scanDevice(row)
}

// FindDeviceByName resolves a device by its tenant-unique name.
func (db *DB) FindDeviceByName(ctx context.Context, tenantID uuid.UUID, name string) (*models.Device, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE tenant_id = $1 AND name = $2`,
		tenantID, name)

	return scanDevice(row)
}

// SaveDeviceCredentials upserts credentials keyed by device id.
func (db *DB) SaveDeviceCredentials(ctx context.Context, creds *models.DeviceCredentials) error {
	if creds.ID == uuid.Nil {
		creds.ID = uuid.New()
	}

	_, err := db.pool.Exec(ctx,
		`INSERT INTO device_credentials (id, device_id, credentials_type, credentials_id, credentials_value)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (device_id) DO UPDATE SET
			credentials_type = EXCLUDED.credentials_type,
			credentials_id = EXCLUDED.credentials_id,
			credentials_value = EXCLUDED.credentials_value`,
		creds.ID, creds.DeviceID, string(creds.CredentialsType),
		creds.CredentialsID, nullableStr(creds.CredentialsValue))
	if err != nil {
		return fmt.Errorf("%w: device credentials: %w", ErrFailedToInsert, err)
	}

	return nil
}

// FindDeviceCredentials loads the credentials of a device.
func (db *DB) FindDeviceCredentials(ctx context.Context, deviceID uuid.UUID) (*models.DeviceCredentials, error) {
	var (
		creds     models.DeviceCredentials
		credsType string
		value     *string
	)

	err := db.pool.QueryRow(ctx,
		`SELECT id, device_id, credentials_type, credentials_id, credentials_value
		 FROM device_credentials WHERE device_id = $1`, deviceID,
	).Scan(&creds.ID, &creds.DeviceID, &credsType, &creds.CredentialsID, &value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}

		return nil, fmt.Errorf("%w: device credentials: %w", ErrFailedToScan, err)
	}

	creds.CredentialsType = models.DeviceCredentialsType(credsType)
	if value != nil {
		creds.CredentialsValue = *value
	}

	return &creds, nil
}

func scanDevice(row pgx.Row) (*models.Device, error) {
	var (
		device models.Device
		label  *string
	)

	err := row.Scan(&device.ID, &device.TenantID, &device.CustomerID, &device.Name,
		&device.Type, &label, &device.AdditionalInfo, &device.CreatedTime, &device.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}

		return nil, fmt.Errorf("%w: device: %w", ErrFailedToScan, err)
	}

	if label != nil {
		device.Label = *label
	}

	return &device, nil
}

func nullableStr(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}
