// Copyright 2026 The wallettrust Authors
//
// Licensed under the GNU Lesser General Public License, version 3 or
// (at your option) any later version. See LICENSE for details.

// Package budget implements the Budget Governor: a process-scoped
// tracker of RPC compute-unit usage that warns at 80% of a configured
// monthly budget and sets a one-way terminal stop flag at 90%. Every
// scanner polls ShouldStop before each batch.
package budget

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// MonthlyStore persists the running monthly CU total so a budget
// crossing observed by one process run is honored by the next run
// within the same calendar month. The Redis-backed implementation
// lives in redisstore.go; tests use an in-memory fake.
type MonthlyStore interface {
	// Add atomically adds delta to the counter for the given month key
	// (format "2006-01") and returns the new total.
	Add(monthKey string, delta int64) (int64, error)
}

// Snapshot is the totals-and-breakdown report used in run summaries.
type Snapshot struct {
	RunTotalCU     int64
	MonthlyTotalCU int64
	PerMethod      map[string]int64
	WarnedThisRun  bool
	Stopped        bool
}

// Governor is the single injected collaborator every scanner observes.
// The process root owns its one instance.
type Governor struct {
	mu sync.Mutex

	monthlyBudget int64
	warnFraction  float64
	stopFraction  float64

	monthly MonthlyStore
	log     *zap.SugaredLogger

	runTotal  int64
	perMethod map[string]int64
	warned    bool
	stopped   bool

	cuGauge prometheus.Gauge
}

// New constructs a Governor. monthlyBudget is denominated in compute
// units; warnFraction/stopFraction are the 0.80/0.90 thresholds from
// the spec.
func New(monthlyBudget int64, warnFraction, stopFraction float64, monthly MonthlyStore, log *zap.SugaredLogger) *Governor {
	g := &Governor{
		monthlyBudget: monthlyBudget,
		warnFraction:  warnFraction,
		stopFraction:  stopFraction,
		monthly:       monthly,
		log:           log,
		perMethod:     map[string]int64{},
		cuGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wallettrust_cu_consumed_total",
			Help: "Compute units consumed by this process run.",
		}),
	}
	return g
}

// Collector exposes the Governor's CU gauge to a prometheus registry.
func (g *Governor) Collector() prometheus.Collector { return g.cuGauge }

// Record adds the cost of n calls to method to the running totals. It
// never returns an error: an unreachable monthly store degrades to
// run-scoped enforcement only, logged once.
func (g *Governor) Record(method string, n int) {
	if n <= 0 {
		n = 1
	}
	cost := int64(CostOf(method)) * int64(n)

	g.mu.Lock()
	defer g.mu.Unlock()

	g.runTotal += cost
	g.perMethod[method] += cost
	g.cuGauge.Add(float64(cost))

	monthlyTotal := g.runTotal
	if g.monthly != nil {
		total, err := g.monthly.Add(monthKey(time.Now()), cost)
		if err != nil {
			g.log.Warnw("monthly budget store unavailable, falling back to run-scoped enforcement", "error", err)
		} else {
			monthlyTotal = total
		}
	}

	if g.monthlyBudget <= 0 {
		return
	}
	fraction := float64(monthlyTotal) / float64(g.monthlyBudget)

	if !g.warned && fraction >= g.warnFraction {
		g.warned = true
		g.log.Warnw("monthly compute-unit budget warning", "fraction", fraction, "monthlyTotalCU", monthlyTotal, "budget", g.monthlyBudget)
	}
	if !g.stopped && fraction >= g.stopFraction {
		g.stopped = true
		g.log.Errorw("monthly compute-unit budget stop threshold crossed, scanners will stop cleanly", "fraction", fraction, "monthlyTotalCU", monthlyTotal, "budget", g.monthlyBudget)
	}
}

// ShouldStop reports the one-way terminal flag. Once true within a
// run it never reverts.
func (g *Governor) ShouldStop() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stopped
}

// Snapshot returns the current totals and per-method breakdown for a
// run summary.
func (g *Governor) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()

	perMethod := make(map[string]int64, len(g.perMethod))
	for k, v := range g.perMethod {
		perMethod[k] = v
	}

	monthlyTotal := g.runTotal
	if g.monthly != nil {
		if total, err := g.monthly.Add(monthKey(time.Now()), 0); err == nil {
			monthlyTotal = total
		}
	}

	return Snapshot{
		RunTotalCU:     g.runTotal,
		MonthlyTotalCU: monthlyTotal,
		PerMethod:      perMethod,
		WarnedThisRun:  g.warned,
		Stopped:        g.stopped,
	}
}

// Reset zeroes every counter. Used in tests only.
func (g *Governor) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.runTotal = 0
	g.perMethod = map[string]int64{}
	g.warned = false
	g.stopped = false
}

func monthKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}
