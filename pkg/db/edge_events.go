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
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/edgefleet/edgefleet/pkg/models"
)

// SaveEdgeEvent appends one event to the durable log. The per-edge
// sequence number is allocated transactionally from a wrapping counter
// and the creation time is stamped at write time. Returns the assigned
// sequence number.
func (db *DB) SaveEdgeEvent(ctx context.Context, event *models.EdgeEvent) (int64, error) {
	if event == nil {
		return 0, ErrEdgeEventNil
	}

	if event.TenantID == uuid.Nil {
		return 0, ErrTenantIDRequired
	}

	if event.EdgeID == uuid.Nil {
		return 0, ErrEdgeIDRequired
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: begin: %w", ErrFailedToInsert, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var seqID int64

	err = tx.QueryRow(ctx,
		`INSERT INTO edge_event_counters (tenant_id, edge_id, seq_id)
		 VALUES ($1, $2, 1)
		 ON CONFLICT (tenant_id, edge_id) DO UPDATE SET
			seq_id = CASE
				WHEN edge_event_counters.seq_id >= $3 THEN 1
				ELSE edge_event_counters.seq_id + 1
			END
		 RETURNING seq_id`,
		event.TenantID, event.EdgeID, db.maxSeqID,
	).Scan(&seqID)
	if err != nil {
		return 0, fmt.Errorf("%w: allocate seq id: %w", ErrFailedToInsert, err)
	}

	createdTime := time.Now().UnixMilli()

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO edge_events
			(id, tenant_id, edge_id, seq_id, created_time, event_type, event_action, entity_id, body)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		event.ID, event.TenantID, event.EdgeID, seqID, createdTime,
		string(event.Type), string(event.Action), event.EntityID, event.Body,
	)
	if err != nil {
		return 0, fmt.Errorf("%w: edge event: %w", ErrFailedToInsert, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("%w: commit: %w", ErrFailedToInsert, err)
	}

	event.SeqID = seqID
	event.CreatedTime = createdTime

	return seqID, nil
}

// FindEdgeEvents reads one page of events for an edge, time-bounded and
// ordered by sequence number.
func (db *DB) FindEdgeEvents(ctx context.Context, tenantID, edgeID uuid.UUID,
	q models.EdgeEventQuery) (models.PageData[*models.EdgeEvent], error) {
	var page models.PageData[*models.EdgeEvent]

	where, args := edgeEventFilter(tenantID, edgeID, q)

	var total int64
	if err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM edge_events WHERE `+where, args...).Scan(&total); err != nil {
		return page, fmt.Errorf("%w: count edge events: %w", ErrFailedToQuery, err)
	}

	link := q.Link
	if link.PageSize <= 0 {
		link = models.NewPageLink(models.DefaultPageSize)
	}

	query := fmt.Sprintf(
		`SELECT id, tenant_id, edge_id, seq_id, created_time, event_type, event_action, entity_id, body
		 FROM edge_events WHERE %s
		 ORDER BY seq_id ASC
		 LIMIT %d OFFSET %d`, where, link.PageSize, link.Offset())

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return page, fmt.Errorf("%w: edge events: %w", ErrFailedToQuery, err)
	}
	defer rows.Close()

	events := make([]*models.EdgeEvent, 0, link.PageSize)

	for rows.Next() {
		event, err := scanEdgeEvent(rows)
		if err != nil {
			return page, err
		}

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return page, fmt.Errorf("%w: edge events: %w", ErrFailedToQuery, err)
	}

	page.Data = events
	page.TotalElements = total
	page.HasNext = int64(link.Offset()+len(events)) < total

	return page, nil
}

// HasEdgeEvents reports whether at least one event matches the query.
func (db *DB) HasEdgeEvents(ctx context.Context, tenantID, edgeID uuid.UUID,
	q models.EdgeEventQuery) (bool, error) {
	where, args := edgeEventFilter(tenantID, edgeID, q)

	var exists bool
	if err := db.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM edge_events WHERE `+where+`)`, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("%w: edge events existence: %w", ErrFailedToQuery, err)
	}

	return exists, nil
}

// FindOldestEdgeEvent returns the oldest event in the log for an edge,
// or ErrEntityNotFound when the log is empty.
func (db *DB) FindOldestEdgeEvent(ctx context.Context, tenantID, edgeID uuid.UUID) (*models.EdgeEvent, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT id, tenant_id, edge_id, seq_id, created_time, event_type, event_action, entity_id, body
		 FROM edge_events
		 WHERE tenant_id = $1 AND edge_id = $2
		 ORDER BY created_time ASC, seq_id ASC
		 LIMIT 1`, tenantID, edgeID)

	event, err := scanEdgeEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEntityNotFound
		}

		return nil, err
	}

	return event, nil
}

func edgeEventFilter(tenantID, edgeID uuid.UUID, q models.EdgeEventQuery) (string, []interface{}) {
	clauses := []string{"tenant_id = $1", "edge_id = $2"}
	args := []interface{}{tenantID, edgeID}

	if q.StartTime > 0 {
		args = append(args, q.StartTime)
		clauses = append(clauses, fmt.Sprintf("created_time >= $%d", len(args)))
	}

	if q.EndTime > 0 {
		args = append(args, q.EndTime)
		clauses = append(clauses, fmt.Sprintf("created_time <= $%d", len(args)))
	}

	if q.MinSeqID != nil {
		args = append(args, *q.MinSeqID)
		clauses = append(clauses, fmt.Sprintf("seq_id > $%d", len(args)))
	}

	if q.MaxSeqID != nil {
		args = append(args, *q.MaxSeqID)
		clauses = append(clauses, fmt.Sprintf("seq_id < $%d", len(args)))
	}

	return strings.Join(clauses, " AND "), args
}

func scanEdgeEvent(row pgx.Row) (*models.EdgeEvent, error) {
	var (
		event             models.EdgeEvent
		eventType, action string
	)

	err := row.Scan(&event.ID, &event.TenantID, &event.EdgeID, &event.SeqID,
		&event.CreatedTime, &eventType, &action, &event.EntityID, &event.Body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}

		return nil, fmt.Errorf("%w: edge event: %w", ErrFailedToScan, err)
	}

	event.Type = models.EdgeEventType(eventType)
	event.Action = models.EdgeEventAction(action)

	return &event, nil
}
