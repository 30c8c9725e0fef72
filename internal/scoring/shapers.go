// Copyright 2026 The wallettrust Authors
//
// Licensed under the GNU Lesser General Public License, version 3 or
// (at your option) any later version. See LICENSE for details.

// Package scoring implements the per-signal shaping functions, the
// weighted composition, the Sybil caps, and the registration bonus
// that together produce a wallet's bounded trust score.
package scoring

import "math"

// clamp01to100 bounds x to [0, 100].
func clamp01to100(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 100 {
		return 100
	}
	return x
}

// ActivityScore rewards early activity with a log curve that
// saturates at ~100 transactions.
func ActivityScore(txCount int64) float64 {
	if txCount <= 0 {
		return 0
	}
	return clamp01to100(100 * math.Log10(float64(txCount)+1) / math.Log10(101))
}

// DiversityScore caps at 30 distinct counterparties.
func DiversityScore(uniqueCounterparties int) float64 {
	if uniqueCounterparties <= 0 {
		return 0
	}
	return clamp01to100(100 * math.Log10(float64(uniqueCounterparties)+1) / math.Log10(31))
}

// LoyaltyScore is the Sybil shield: hyper-concentrated transaction
// patterns (few counterparties, many transactions each) are capped at
// 40 regardless of how high the raw ratio would otherwise score.
func LoyaltyScore(txCount int64, counterparties int) float64 {
	if txCount <= 1 || counterparties <= 0 {
		return 0
	}
	r := float64(txCount) / float64(counterparties)
	score := clamp01to100(100 * (r - 1) / 4)
	if r > 20 && counterparties < 3 {
		if score > 40 {
			score = 40
		}
	}
	return score
}

// FeedbackScore is confidence-weighted: a single review cannot push
// the score to an extreme, only a sustained record of feedback can.
func FeedbackScore(avgFeedback *float64, feedbackCount int) float64 {
	if feedbackCount == 0 || avgFeedback == nil {
		return 50
	}
	raw := math.Min(100, *avgFeedback/5*100)
	if raw < 0 {
		raw = 0
	}
	c := math.Min(1, float64(feedbackCount)/10)
	return c*raw + (1-c)*50
}

// VolumeScore uses average deal size as an economic-commitment proxy.
func VolumeScore(totalVolumeUSDC float64, counterparties int) float64 {
	if totalVolumeUSDC <= 0 || counterparties <= 0 {
		return 50
	}
	d := totalVolumeUSDC / float64(counterparties)
	return clamp01to100(100 * math.Log10(d+1) / math.Log10(10001))
}

// AgeScore rewards early days most, saturating at 180 days.
func AgeScore(daysSinceFirstSeen float64) float64 {
	if daysSinceFirstSeen < 0 || math.IsNaN(daysSinceFirstSeen) {
		return 0
	}
	return clamp01to100(100 * math.Log10(daysSinceFirstSeen+1) / math.Log10(181))
}

// RecencyScore penalizes staleness: full marks within a week, zero
// past 90 days, linear across the window between.
func RecencyScore(daysSinceLastSeen float64) float64 {
	if math.IsNaN(daysSinceLastSeen) {
		return 0
	}
	if daysSinceLastSeen < 0 {
		return 100
	}
	if daysSinceLastSeen <= 7 {
		return 100
	}
	if daysSinceLastSeen >= 90 {
		return 0
	}
	// Linear 100 -> 0 across the 83-day window from day 7 to day 90.
	return 100 * (90 - daysSinceLastSeen) / 83
}
