// Copyright 2026 The wallettrust Authors
//
// Licensed under the GNU Lesser General Public License, version 3 or
// (at your option) any later version. See LICENSE for details.

package scoring

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWeightsSumToExactlyOne(t *testing.T) {
	sum := WeightLoyalty + WeightActivity + WeightDiversity + WeightFeedback +
		WeightVolume + WeightRecency + WeightAge
	require.InDelta(t, 1.0, sum, 1e-9)
}

func TestFullCompositionWorkedExample(t *testing.T) {
	// Spec's worked example: given shaper outputs
	// activity=50, diversity=47, loyalty=25, feedback=80, volume=75,
	// age=86, recency=100, unregistered wallet.
	// 25*.30 + 50*.18 + 47*.16 + 80*.15 + 75*.10 + 100*.06 + 86*.05
	// = 7.5+9.0+7.52+12.0+7.5+6.0+4.3 = 53.82 -> rounds to 54.
	result := composeWeighted("0xabc", 25, 50, 47, 80, 75, 86, 100, false)
	require.Equal(t, 54, result.Score)
	require.Equal(t, 0, result.Breakdown["registered_bonus"])
}

func TestBreakdownContractHasExactlyEightKeys(t *testing.T) {
	result := composeWeighted("0xabc", 10, 10, 10, 10, 10, 10, 10, true)
	require.Len(t, result.Breakdown, 8)
	for _, key := range []string{"loyalty", "activity", "diversity", "feedback", "volume", "age", "recency", "registered_bonus"} {
		_, ok := result.Breakdown[key]
		require.True(t, ok, "missing breakdown key %s", key)
	}
}

func TestTierClassification(t *testing.T) {
	require.Equal(t, "HIGH", Tier(80))
	require.Equal(t, "HIGH", Tier(100))
	require.Equal(t, "MEDIUM", Tier(79))
	require.Equal(t, "MEDIUM", Tier(50))
	require.Equal(t, "LOW", Tier(49))
	require.Equal(t, "LOW", Tier(20))
	require.Equal(t, "MINIMAL", Tier(19))
	require.Equal(t, "MINIMAL", Tier(0))
}

func TestScoreNeverExceedsBoundsWithBonus(t *testing.T) {
	result := composeWeighted("0xabc", 100, 100, 100, 100, 100, 100, 100, true)
	require.Equal(t, 100, result.Score)
}
