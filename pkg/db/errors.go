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

import "errors"

var (

	// Core database errors.

	ErrDatabaseNotInitialized = errors.New("database not initialized")
	ErrFailedToScan           = errors.New("failed to scan")
	ErrFailedToQuery          = errors.New("failed to query")
	ErrFailedToInsert         = errors.New("failed to insert")
	ErrFailedOpenDB           = errors.New("failed to open database")

	// Entity lookups.

	ErrEdgeNotFound      = errors.New("edge not found")
	ErrDeviceNotFound    = errors.New("device not found")
	ErrAssetNotFound     = errors.New("asset not found")
	ErrAlarmNotFound     = errors.New("alarm not found")
	ErrRuleChainNotFound = errors.New("rule chain not found")
	ErrEntityNotFound    = errors.New("entity not found")

	// Validation.

	ErrEdgeEventNil      = errors.New("edge event is nil")
	ErrTenantIDRequired  = errors.New("tenant id is required")
	ErrEdgeIDRequired    = errors.New("edge id is required")
	ErrAttributeKeyEmpty = errors.New("attribute key is required")
)
