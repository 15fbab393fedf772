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

// Package config loads service configuration from a JSON file with
// environment variable overrides for deployment-specific values.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/edgefleet/edgefleet/pkg/logger"
	"github.com/edgefleet/edgefleet/pkg/models"
)

// LoadAndValidate reads the core configuration from path, applies
// environment overrides and validates the result.
func LoadAndValidate(path string, log logger.Logger) (*models.CoreConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg models.CoreConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config %s: %w", path, err)
	}

	log.Info().Str("path", path).Msg("Loaded configuration")

	return &cfg, nil
}

func applyEnvOverrides(cfg *models.CoreConfig) {
	if cfg.Database != nil {
		overrideString(&cfg.Database.Host, "DB_HOST")
		overrideInt(&cfg.Database.Port, "DB_PORT")
		overrideString(&cfg.Database.Database, "DB_NAME")
		overrideString(&cfg.Database.Username, "DB_USER")
		overrideString(&cfg.Database.Password, "DB_PASSWORD")
	}

	if cfg.NATS != nil {
		overrideString(&cfg.NATS.URL, "NATS_URL")
		overrideString(&cfg.NATS.StreamName, "NATS_STREAM")
	}
}

func overrideString(target *string, key string) {
	if value := os.Getenv(key); value != "" {
		*target = value
	}
}

func overrideInt(target *int, key string) {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}
