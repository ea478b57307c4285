// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

// Package metrics exposes Prometheus counters/histograms for the game-phase
// state machine, token store, and HTTP edge via promauto.With(Registry).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "santa_ring"

// Registry is the process-wide collector registry every metric in this
// package registers against, and what Handler()/StartServer() serve.
var Registry = prometheus.NewRegistry()

var (
	// PhaseTransitions counts every Game Phase transition, labeled by the
	// phase transitioned into.
	PhaseTransitions = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "phase_transitions_total",
			Help:      "Total number of game-phase transitions, by resulting phase",
		},
		[]string{"phase"},
	)

	// RoomsCreated counts rooms created.
	RoomsCreated = promauto.With(Registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "rooms_created_total",
			Help:      "Total number of rooms created",
		},
	)

	// TokensIssued counts tokens issued, labeled by kind.
	TokensIssued = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "tokens_issued_total",
			Help:      "Total number of tokens issued, by kind",
		},
		[]string{"kind"},
	)

	// VerificationOutcomes counts verify() calls, labeled by outcome
	// (accept, reject_valid, reject_invalid).
	VerificationOutcomes = promauto.With(Registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "game",
			Name:      "verification_outcomes_total",
			Help:      "Total number of verification decisions, by outcome",
		},
		[]string{"outcome"},
	)

	// HTTPRequestDuration tracks request latency by route and status.
	HTTPRequestDuration = promauto.With(Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route", "method", "status"},
	)

	// BroadcastSubscribers tracks the current number of websocket
	// subscribers per room.
	BroadcastSubscribers = promauto.With(Registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "broadcast",
			Name:      "subscribers",
			Help:      "Current number of websocket subscribers, by room",
		},
		[]string{"room_id"},
	)
)
