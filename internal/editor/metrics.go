// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package editor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// movesTotal counts move requests by intent and result.
	movesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "categorytree_moves_total",
		Help: "Move requests by intent and result",
	}, []string{"intent", "result"})

	// commitsTotal counts overlay commits by result.
	commitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "categorytree_commits_total",
		Help: "Overlay commits by result",
	}, []string{"result"})

	// commitDuration tracks the time spent persisting a batch.
	commitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "categorytree_commit_duration_seconds",
		Help:    "Overlay commit duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
	})

	// commitBatchSize tracks the number of reassignments per commit.
	commitBatchSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "categorytree_commit_batch_size",
		Help:    "Reassignments persisted per commit",
		Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
	})

	// workspacesActive is the number of editor overlays held in memory.
	workspacesActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "categorytree_workspaces_active",
		Help: "Editor overlays currently held in memory",
	})

	// canonicalLoads counts canonical list loads by source.
	canonicalLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "categorytree_canonical_loads_total",
		Help: "Canonical list loads by source (cache or store)",
	}, []string{"source"})
)
