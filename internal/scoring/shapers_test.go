// Copyright 2026 The wallettrust Authors
//
// Licensed under the GNU Lesser General Public License, version 3 or
// (at your option) any later version. See LICENSE for details.

package scoring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }

func TestShapersStayInBounds(t *testing.T) {
	require.GreaterOrEqual(t, ActivityScore(1_000_000), 0.0)
	require.LessOrEqual(t, ActivityScore(1_000_000), 100.0)
	require.Equal(t, 0.0, ActivityScore(0))
	require.Equal(t, 0.0, ActivityScore(-5))

	require.Equal(t, 0.0, DiversityScore(0))
	require.LessOrEqual(t, DiversityScore(1000), 100.0)

	require.Equal(t, 0.0, LoyaltyScore(1, 5))
	require.Equal(t, 0.0, LoyaltyScore(10, 0))

	require.Equal(t, 50.0, FeedbackScore(nil, 0))
	require.GreaterOrEqual(t, VolumeScore(100, 2), 0.0)
	require.LessOrEqual(t, VolumeScore(100, 2), 100.0)
}

func TestAgeLogCurveAnchors(t *testing.T) {
	require.InDelta(t, 0, AgeScore(0), 1)
	require.InDelta(t, 44, AgeScore(10), 5)
	require.InDelta(t, 86, AgeScore(90), 2)
	require.Equal(t, 100.0, AgeScore(180))
	require.Equal(t, 100.0, AgeScore(365))
}

func TestAgeScoreRejectsInvalidInput(t *testing.T) {
	require.Equal(t, 0.0, AgeScore(-1))
}

func TestRecencyScoreWindow(t *testing.T) {
	require.Equal(t, 100.0, RecencyScore(-1)) // last seen "in the future"
	require.Equal(t, 100.0, RecencyScore(0))
	require.Equal(t, 100.0, RecencyScore(7))
	require.Equal(t, 0.0, RecencyScore(90))
	require.Equal(t, 0.0, RecencyScore(200))

	mid := RecencyScore(48.5) // halfway across the 7..90 window
	require.InDelta(t, 50, mid, 1)
}

func TestSybilCapScenarios(t *testing.T) {
	require.LessOrEqual(t, LoyaltyScore(100, 2), 40.0)
	require.Equal(t, 100.0, LoyaltyScore(60, 3))
	require.Equal(t, 100.0, LoyaltyScore(50, 10))
	require.Equal(t, 25.0, LoyaltyScore(10, 5))
}

func TestFeedbackConfidenceScenarios(t *testing.T) {
	require.Equal(t, 55.0, FeedbackScore(f64(5), 1))
	require.Equal(t, 100.0, FeedbackScore(f64(5), 10))
	require.Equal(t, 50.0, FeedbackScore(nil, 0))
	require.Equal(t, 0.0, FeedbackScore(f64(0), 10))
}

func TestActivityDiversityAgeMonotoneNonDecreasing(t *testing.T) {
	prevActivity, prevDiversity, prevAge := -1.0, -1.0, -1.0
	for n := 0; n <= 200; n += 5 {
		a := ActivityScore(int64(n))
		require.GreaterOrEqual(t, a, prevActivity)
		prevActivity = a

		d := DiversityScore(n)
		require.GreaterOrEqual(t, d, prevDiversity)
		prevDiversity = d

		age := AgeScore(float64(n))
		require.GreaterOrEqual(t, age, prevAge)
		prevAge = age
	}
}

func TestRecencyScoreMonotoneNonIncreasing(t *testing.T) {
	prev := 101.0
	for d := 0.0; d <= 200; d += 2 {
		r := RecencyScore(d)
		require.LessOrEqual(t, r, prev)
		prev = r
	}
}

func TestRegistrationBonusClampedAt100(t *testing.T) {
	b := Bundle{
		Address:              "0xabc",
		TxCount:              1000,
		FirstSeenAt:          timeDaysAgo(365),
		LastSeenAt:           timeDaysAgo(0),
		UniqueCounterparties: 30,
		AvgFeedback:          f64(5),
		FeedbackCount:        100,
		TotalVolumeUSDC:      1_000_000,
		VolumeCounterparties: 30,
		IsRegistered:         true,
	}
	result := Compose(b, timeNow())
	require.Equal(t, 100, result.Score)
	require.Equal(t, 5, result.Breakdown["registered_bonus"])
}
