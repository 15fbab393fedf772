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

// Package db implements the PostgreSQL persistence layer: the durable
// edge event log, the server-scope attribute store, and the entity
// stores consumed by the synchronization core.
package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/edgefleet/edgefleet/pkg/logger"
	"github.com/edgefleet/edgefleet/pkg/models"
)

// DB is the pgx-backed implementation of Service.
type DB struct {
	pool     *pgxpool.Pool
	logger   logger.Logger
	maxSeqID int64
}

// New connects to PostgreSQL, runs migrations and returns the store.
func New(ctx context.Context, cfg *models.DatabaseConfig, sync models.EdgeSyncSettings, log logger.Logger) (*DB, error) {
	pool, err := NewPool(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, pool, log); err != nil {
		pool.Close()
		return nil, err
	}

	return NewWithPool(pool, sync, log), nil
}

// NewWithPool wraps an existing pool; used by tests and callers that
// manage the pool lifecycle themselves.
func NewWithPool(pool *pgxpool.Pool, sync models.EdgeSyncSettings, log logger.Logger) *DB {
	return &DB{
		pool:     pool,
		logger:   log,
		maxSeqID: sync.MaxSeqID,
	}
}

// Close releases the underlying pool.
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}
