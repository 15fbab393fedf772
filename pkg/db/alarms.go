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

const alarmColumns = `id, tenant_id, originator_id, originator_type, type, severity, status, start_time, ack_time, clear_time, version`

// SaveAlarm upserts an alarm, bumping its version marker.
func (db *DB) SaveAlarm(ctx context.Context, alarm *models.Alarm) error {
	err := db.pool.QueryRow(ctx,
		`INSERT INTO alarms (`+alarmColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 1)
		 ON CONFLICT (id) DO UPDATE SET
			severity = EXCLUDED.severity,
			status = EXCLUDED.status,
			ack_time = EXCLUDED.ack_time,
			clear_time = EXCLUDED.clear_time,
			version = alarms.version + 1
		 RETURNING version`,
		alarm.ID, alarm.TenantID, alarm.OriginatorID, string(alarm.Originator),
		alarm.Type, alarm.Severity, string(alarm.Status),
		alarm.StartTime, nullableTs(alarm.AckTime), nullableTs(alarm.ClearTime),
	).Scan(&alarm.Version)
	if err != nil {
		return fmt.Errorf("%w: alarm: %w", ErrFailedToInsert, err)
	}

	return nil
}

// FindAlarmByID loads one alarm.
func (db *DB) FindAlarmByID(ctx context.Context, tenantID, alarmID uuid.UUID) (*models.Alarm, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+alarmColumns+` FROM alarms WHERE tenant_id = $1 AND id = $2`,
		tenantID, alarmID)

	return scanAlarm(row)
}

// FindLatestAlarm resolves the most recent alarm of a type on an
// originator. Edge-originated alarm updates address alarms this way.
func (db *DB) FindLatestAlarm(ctx context.Context, tenantID, originatorID uuid.UUID,
	alarmType string) (*models.Alarm, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+alarmColumns+` FROM alarms
		 WHERE tenant_id = $1 AND originator_id = $2 AND type = $3
		 ORDER BY start_time DESC
		 LIMIT 1`, tenantID, originatorID, alarmType)

	return scanAlarm(row)
}

func scanAlarm(row pgx.Row) (*models.Alarm, error) {
	var (
		alarm              models.Alarm
		origType, status   string
		ackTime, clearTime *int64
	)

	err := row.Scan(&alarm.ID, &alarm.TenantID, &alarm.OriginatorID, &origType,
		&alarm.Type, &alarm.Severity, &status, &alarm.StartTime, &ackTime, &clearTime,
		&alarm.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAlarmNotFound
		}

		return nil, fmt.Errorf("%w: alarm: %w", ErrFailedToScan, err)
	}

	alarm.Originator = models.EdgeEventType(origType)
	alarm.Status = models.AlarmStatus(status)

	if ackTime != nil {
		alarm.AckTime = *ackTime
	}

	if clearTime != nil {
		alarm.ClearTime = *clearTime
	}

	return &alarm, nil
}

func nullableTs(ts int64) *int64 {
	if ts == 0 {
		return nil
	}

	return &ts
}
