// Copyright 2026 The wallettrust Authors
//
// Licensed under the GNU Lesser General Public License, version 3 or
// (at your option) any later version. See LICENSE for details.

package budget

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeMonthlyStore struct {
	mu     sync.Mutex
	totals map[string]int64
}

func newFakeMonthlyStore() *fakeMonthlyStore {
	return &fakeMonthlyStore{totals: map[string]int64{}}
}

func (f *fakeMonthlyStore) Add(monthKey string, delta int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.totals[monthKey] += delta
	return f.totals[monthKey], nil
}

func testLogger(t *testing.T) *zap.SugaredLogger {
	t.Helper()
	l, err := zap.NewDevelopment()
	require.NoError(t, err)
	return l.Sugar()
}

func TestGovernorStopIsOneWay(t *testing.T) {
	g := New(1000, 0.80, 0.90, newFakeMonthlyStore(), testLogger(t))

	g.Record("eth_getLogs", 1) // 75 CU, 7.5%
	require.False(t, g.ShouldStop())

	g.Record("eth_getLogs", 11) // +825 CU => 900 CU total, 90%
	require.True(t, g.ShouldStop())

	// Stop flag must never clear within the same run.
	g.Record("eth_blockNumber", 0)
	require.True(t, g.ShouldStop())
}

func TestGovernorWarnAt80Percent(t *testing.T) {
	g := New(1000, 0.80, 0.90, newFakeMonthlyStore(), testLogger(t))
	g.Record("eth_getLogs", 10) // 750 CU, 75%
	require.False(t, g.Snapshot().WarnedThisRun)

	g.Record("eth_blockNumber", 1) // +10 CU => 760 CU, 76% — still below
	require.False(t, g.Snapshot().WarnedThisRun)

	g.Record("eth_getLogs", 1) // +75 => 835 CU, 83.5% — crosses 80%
	require.True(t, g.Snapshot().WarnedThisRun)
	require.False(t, g.ShouldStop())
}

func TestGovernorUnknownMethodUsesDefaultCost(t *testing.T) {
	g := New(1000, 0.80, 0.90, newFakeMonthlyStore(), testLogger(t))
	g.Record("some_unlisted_method", 1)
	require.EqualValues(t, defaultCost, g.Snapshot().RunTotalCU)
}

func TestGovernorResetZeroesEverything(t *testing.T) {
	g := New(1000, 0.80, 0.90, newFakeMonthlyStore(), testLogger(t))
	g.Record("eth_getLogs", 20) // force stop
	require.True(t, g.ShouldStop())

	g.Reset()
	snap := g.Snapshot()
	require.False(t, snap.Stopped)
	require.False(t, snap.WarnedThisRun)
	require.Zero(t, snap.RunTotalCU)
}

func TestGovernorMonthlyTotalSurvivesAcrossInstances(t *testing.T) {
	shared := newFakeMonthlyStore()

	first := New(1_000_000, 0.80, 0.90, shared, testLogger(t))
	first.Record("eth_getLogs", 100) // 7500 CU

	second := New(1_000_000, 0.80, 0.90, shared, testLogger(t))
	snap := second.Snapshot()
	require.EqualValues(t, 7500, snap.MonthlyTotalCU)
	require.Zero(t, snap.RunTotalCU) // run-scoped counter is fresh
}
