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

package app

import (
	"github.com/edgefleet/edgefleet/pkg/db"
	"github.com/edgefleet/edgefleet/pkg/edge"
	"github.com/edgefleet/edgefleet/pkg/logger"
	"github.com/edgefleet/edgefleet/pkg/models"
	"github.com/edgefleet/edgefleet/pkg/natsutil"
)

// Service bundles the protocol components. The transport layer calls
// into Producer, Reconciler and Correlator; the Scheduler drives
// downlink delivery.
type Service struct {
	Producer   *edge.Producer
	Dispatcher *edge.Dispatcher
	Scheduler  *edge.Scheduler
	Reconciler *edge.Reconciler
	Correlator *edge.RPCCorrelator
	Metrics    *edge.InMemoryMetrics
	Settings   models.EdgeSyncSettings
}

// NewService wires the protocol components on top of the store and the
// notification plane.
func NewService(store *db.DB, publisher *natsutil.EventPublisher,
	settings models.EdgeSyncSettings, log logger.Logger) *Service {
	clock := edge.SystemClock()
	metrics := edge.NewInMemoryMetrics()

	fetcher := edge.NewFetcher(store, clock, log, settings)
	offsets := edge.NewOffsetStore(store, clock)
	sender := natsutil.NewDownlinkPublisher(publisher.JetStream())
	dispatcher := edge.NewDispatcher(fetcher, offsets, store, sender, metrics, log)

	return &Service{
		Producer: edge.NewProducer(store, store, store, store, publisher, metrics, log,
			settings.MaxReadRecordsCount),
		Dispatcher: dispatcher,
		Scheduler:  edge.NewScheduler(dispatcher, log, settings),
		Reconciler: edge.NewReconciler(store, store, publisher, clock, metrics, log),
		Correlator: edge.NewRPCCorrelator(store, clock, metrics, log, settings),
		Metrics:    metrics,
		Settings:   settings,
	}
}
