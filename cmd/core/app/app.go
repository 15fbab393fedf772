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

// Package app wires the core synchronization service: PostgreSQL
// stores, the NATS notification plane and the edge protocol components.
package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/edgefleet/edgefleet/pkg/config"
	"github.com/edgefleet/edgefleet/pkg/db"
	"github.com/edgefleet/edgefleet/pkg/edge"
	"github.com/edgefleet/edgefleet/pkg/logger"
	"github.com/edgefleet/edgefleet/pkg/natsutil"
)

// Options controls service startup.
type Options struct {
	ConfigPath string
}

var errNATSRequired = errors.New("nats configuration is required")

// Run starts the core service and blocks until SIGINT or SIGTERM.
func Run(ctx context.Context, opts Options) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log, err := logger.New(logger.DefaultConfig())
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	cfg, err := config.LoadAndValidate(opts.ConfigPath, log)
	if err != nil {
		return err
	}

	if cfg.Logging != nil {
		if log, err = logger.New(cfg.Logging); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
	}

	if cfg.NATS == nil {
		return errNATSRequired
	}

	store, err := db.New(ctx, cfg.Database, cfg.EdgeSync, log)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer store.Close()

	publisher, nc, err := natsutil.ConnectWithEventPublisher(ctx, cfg.NATS)
	if err != nil {
		return fmt.Errorf("connect NATS: %w", err)
	}
	defer nc.Close()

	service := NewService(store, publisher, cfg.EdgeSync, log)

	sub, err := subscribeWakeSignals(nc, service.Scheduler, log)
	if err != nil {
		return err
	}
	defer func() { _ = sub.Unsubscribe() }()

	log.Info().Msg("Core synchronization service started")

	<-ctx.Done()

	log.Info().Msg("Shutting down")
	service.Scheduler.Close()

	return nil
}

// subscribeWakeSignals routes pending-event notifications to the
// per-edge dispatch scheduler.
func subscribeWakeSignals(nc *nats.Conn, scheduler *edge.Scheduler, log logger.Logger) (*nats.Subscription, error) {
	sub, err := nc.Subscribe("edge.pending.*", func(msg *nats.Msg) {
		parts := strings.Split(msg.Subject, ".")

		edgeID, err := uuid.Parse(parts[len(parts)-1])
		if err != nil {
			log.Warn().Str("subject", msg.Subject).Msg("Ignoring malformed wake signal")
			return
		}

		scheduler.Wake(edgeID)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe wake signals: %w", err)
	}

	return sub, nil
}
