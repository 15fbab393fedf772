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

package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/edgefleet/edgefleet/pkg/logger"
)

var (
	errInvalidDuration   = errors.New("invalid duration")
	ErrDatabaseRequired  = errors.New("database configuration is required")
	ErrDatabaseHost      = errors.New("database host is required")
	ErrDatabaseName      = errors.New("database name is required")
	ErrBatchSizeInvalid  = errors.New("max_read_records_count must be positive")
	ErrMaxSeqIDInvalid   = errors.New("max_seq_id must be positive")
	ErrRPCTimeoutInvalid = errors.New("rpc_timeout must be positive")
)

// Duration wraps time.Duration to accept both numeric nanoseconds and
// Go duration strings in JSON.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		// parse numeric as nanoseconds
		*d = Duration(time.Duration(value))
		return nil
	case string:
		dur, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration: %w", err)
		}

		*d = Duration(dur)

		return nil
	default:
		return errInvalidDuration
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// DatabaseConfig describes the PostgreSQL cluster backing the durable
// event log and entity stores.
type DatabaseConfig struct {
	Host               string            `json:"host"`
	Port               int               `json:"port"`
	Database           string            `json:"database"`
	Username           string            `json:"username"`
	Password           string            `json:"password"`
	SSLMode            string            `json:"ssl_mode"`
	ApplicationName    string            `json:"application_name"`
	MaxConnections     int32             `json:"max_connections"`
	MinConnections     int32             `json:"min_connections"`
	MaxConnLifetime    Duration          `json:"max_conn_lifetime"`
	HealthCheckPeriod  Duration          `json:"health_check_period"`
	ExtraRuntimeParams map[string]string `json:"extra_runtime_params,omitempty"`
}

// NATSConfig describes the JetStream broker used for lifecycle
// notifications and edge wake signals.
type NATSConfig struct {
	URL        string `json:"url"`
	StreamName string `json:"stream_name"`
	Subject    string `json:"subject"`
	CertFile   string `json:"cert_file,omitempty"`
	KeyFile    string `json:"key_file,omitempty"`
	CAFile     string `json:"ca_file,omitempty"`
}

// EdgeSyncSettings tunes the synchronization protocol.
type EdgeSyncSettings struct {
	// MaxReadRecordsCount bounds one fetch batch.
	MaxReadRecordsCount int `json:"max_read_records_count"`
	// MisorderingCompensation widens the fetch time window backwards to
	// tolerate wall-clock skew between concurrent writers.
	MisorderingCompensation Duration `json:"misordering_compensation"`
	// SleepBetweenBatches delays retries of an unacknowledged batch.
	SleepBetweenBatches Duration `json:"sleep_between_batches"`
	// RPCTimeout bounds the life of a pending device RPC request.
	RPCTimeout Duration `json:"rpc_timeout"`
	// MaxSeqID is the exclusive wrap bound of the per-edge sequence
	// counter. Configurable so the wrap path is testable.
	MaxSeqID int64 `json:"max_seq_id"`
	// MaxHighPriorityQueueSize bounds the per-session high priority
	// queue; the oldest entry is dropped on overflow.
	MaxHighPriorityQueueSize int `json:"max_high_priority_queue_size"`
}

// DefaultEdgeSyncSettings mirrors the reference deployment policy.
func DefaultEdgeSyncSettings() EdgeSyncSettings {
	return EdgeSyncSettings{
		MaxReadRecordsCount:      50,
		MisorderingCompensation:  Duration(3 * time.Second),
		SleepBetweenBatches:      Duration(time.Second),
		RPCTimeout:               Duration(60 * time.Second),
		MaxSeqID:                 math.MaxInt32,
		MaxHighPriorityQueueSize: 10000,
	}
}

func (s *EdgeSyncSettings) Validate() error {
	if s.MaxReadRecordsCount <= 0 {
		return ErrBatchSizeInvalid
	}

	if s.MaxSeqID <= 0 {
		return ErrMaxSeqIDInvalid
	}

	if s.RPCTimeout <= 0 {
		return ErrRPCTimeoutInvalid
	}

	return nil
}

// CoreConfig is the root configuration of the core service.
type CoreConfig struct {
	Database *DatabaseConfig  `json:"database"`
	NATS     *NATSConfig      `json:"nats,omitempty"`
	EdgeSync EdgeSyncSettings `json:"edge_sync"`
	Logging  *logger.Config   `json:"logging,omitempty"`
}

func (c *CoreConfig) Validate() error {
	if c.Database == nil {
		return ErrDatabaseRequired
	}

	if c.Database.Host == "" {
		return ErrDatabaseHost
	}

	if c.Database.Database == "" {
		return ErrDatabaseName
	}

	if c.EdgeSync.MaxReadRecordsCount == 0 {
		c.EdgeSync = DefaultEdgeSyncSettings()
	}

	return c.EdgeSync.Validate()
}
