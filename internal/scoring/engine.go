// Copyright 2026 The wallettrust Authors
//
// Licensed under the GNU Lesser General Public License, version 3 or
// (at your option) any later version. See LICENSE for details.

package scoring

import (
	"time"

	"go.uber.org/zap"

	"github.com/wallettrust/core/internal/aggregator"
	"github.com/wallettrust/core/internal/store"
)

// Weights sum to exactly 1.0. Listed from heaviest to lightest.
const (
	WeightLoyalty   = 0.30
	WeightActivity  = 0.18
	WeightDiversity = 0.16
	WeightFeedback  = 0.15
	WeightVolume    = 0.10
	WeightRecency   = 0.06
	WeightAge       = 0.05

	RegistrationBonus = 5
)

// Bundle is the full per-wallet signal input to the composition step.
type Bundle struct {
	Address              string
	TxCount              int64
	FirstSeenAt          time.Time
	LastSeenAt           time.Time
	UniqueCounterparties int
	AvgFeedback          *float64
	FeedbackCount        int
	TotalVolumeUSDC      float64
	VolumeCounterparties int
	IsRegistered         bool
}

// Result is one wallet's scored outcome.
type Result struct {
	Address   string
	Score     int
	Breakdown map[string]int
	Role      *string
}

// Compose applies the seven shapers, the weighted sum, rounding, the
// registration bonus, and the final clamp — in that order, per the
// spec's composition rule.
func Compose(b Bundle, now time.Time) Result {
	daysSinceFirstSeen := now.Sub(b.FirstSeenAt).Hours() / 24
	daysSinceLastSeen := now.Sub(b.LastSeenAt).Hours() / 24

	activity := ActivityScore(b.TxCount)
	diversity := DiversityScore(b.UniqueCounterparties)
	loyalty := LoyaltyScore(b.TxCount, b.UniqueCounterparties)
	feedback := FeedbackScore(b.AvgFeedback, b.FeedbackCount)
	volume := VolumeScore(b.TotalVolumeUSDC, b.VolumeCounterparties)
	age := AgeScore(daysSinceFirstSeen)
	recency := RecencyScore(daysSinceLastSeen)

	return composeWeighted(b.Address, loyalty, activity, diversity, feedback, volume, age, recency, b.IsRegistered)
}

// composeWeighted applies the weighted sum, rounding, registration
// bonus, and final clamp to already-computed shaper outputs. Split
// out from Compose so the composition arithmetic itself — independent
// of the shaper formulas — is directly testable against the spec's
// worked example.
func composeWeighted(address string, loyalty, activity, diversity, feedback, volume, age, recency float64, isRegistered bool) Result {
	weighted := loyalty*WeightLoyalty +
		activity*WeightActivity +
		diversity*WeightDiversity +
		feedback*WeightFeedback +
		volume*WeightVolume +
		recency*WeightRecency +
		age*WeightAge

	rounded := roundToInt(weighted)

	bonus := 0
	if isRegistered {
		bonus = RegistrationBonus
	}

	final := rounded + bonus
	if final < 0 {
		final = 0
	}
	if final > 100 {
		final = 100
	}

	breakdown := map[string]int{
		"loyalty":          roundToInt(loyalty),
		"activity":         roundToInt(activity),
		"diversity":        roundToInt(diversity),
		"feedback":         roundToInt(feedback),
		"volume":           roundToInt(volume),
		"age":              roundToInt(age),
		"recency":          roundToInt(recency),
		"registered_bonus": bonus,
	}

	return Result{Address: address, Score: final, Breakdown: breakdown}
}

func roundToInt(x float64) int {
	if x >= 0 {
		return int(x + 0.5)
	}
	return -int(-x + 0.5)
}

// Tier classifies a stored trust_score into its human-readable band.
// Derived on read, never stored.
func Tier(score int) string {
	switch {
	case score >= 80:
		return "HIGH"
	case score >= 50:
		return "MEDIUM"
	case score >= 20:
		return "LOW"
	default:
		return "MINIMAL"
	}
}

// Store is the subset of *store.Store the Engine depends on.
type Store interface {
	WalletsNeedingRescore() ([]store.Wallet, error)
	AllWallets() ([]store.Wallet, error)
	ApplyScore(address string, score int, breakdown map[string]int, role *string, computedAt time.Time) error
	WithScoringLock(fn func() error) (held bool, err error)
}

// Summary is the run summary the CLI prints, per the spec's
// user-visible behavior requirement.
type Summary struct {
	WalletsConsidered int
	WalletsScored     int
	WalletsFailed     int
	TierCounts        map[string]int
	ComputedAt        time.Time
}

// Engine runs the Signal Aggregator's output through Compose and
// persists each result, selecting wallets per the incremental/full
// mode, guarded by the store's single-writer scoring lock.
type Engine struct {
	store Store
	agg   *aggregator.Aggregate
	log   *zap.SugaredLogger
	now   func() time.Time
}

// New builds an Engine. agg is the already-computed aggregation pass
// (the caller runs aggregator.Run once, ahead of scoring).
func New(s Store, agg *aggregator.Aggregate, log *zap.SugaredLogger) *Engine {
	return &Engine{store: s, agg: agg, log: log, now: time.Now}
}

// Run scores wallets selected by full (every wallet) or incremental
// (only needs_rescore = true). It must not overlap with a concurrent
// run: the store's scoring lock makes a second run wait until the
// first one's transaction ends. If the lock's sentinel row is missing,
// Run returns a Summary with zero wallets considered and no error,
// logging that this run is a no-op.
func (e *Engine) Run(full bool) (*Summary, error) {
	summary := &Summary{TierCounts: map[string]int{}}

	held, err := e.store.WithScoringLock(func() error {
		var wallets []store.Wallet
		var err error
		if full {
			wallets, err = e.store.AllWallets()
		} else {
			wallets, err = e.store.WalletsNeedingRescore()
		}
		if err != nil {
			return err
		}
		summary.WalletsConsidered = len(wallets)

		now := e.now()
		summary.ComputedAt = now
		for _, w := range wallets {
			bundle := e.bundleFor(w)
			result := Compose(bundle, now)
			result.Role = roleFor(bundle, e.agg)

			if err := e.store.ApplyScore(w.Address, result.Score, result.Breakdown, result.Role, now); err != nil {
				summary.WalletsFailed++
				e.log.Errorw("failed to persist score for wallet, skipping", "address", w.Address, "error", err)
				continue
			}
			summary.WalletsScored++
			summary.TierCounts[Tier(result.Score)]++
		}
		return nil
	})
	if err != nil {
		return summary, err
	}
	if !held {
		e.log.Infow("scoring lock row not found, this invocation is a no-op")
	}
	return summary, nil
}

func (e *Engine) bundleFor(w store.Wallet) Bundle {
	sig := e.agg.ByAddress[w.Address]

	var avgFeedback *float64
	feedbackCount := 0
	if w.Erc8004ID != nil {
		if fb, ok := e.agg.ByAgentID[agentIDKey(*w.Erc8004ID)]; ok {
			avgFeedback = fb.AvgFeedback
			feedbackCount = fb.FeedbackCount
		}
	}

	return Bundle{
		Address:              w.Address,
		TxCount:              w.TxCount,
		FirstSeenAt:          w.FirstSeenAt,
		LastSeenAt:           w.LastSeenAt,
		UniqueCounterparties: sig.UniqueCounterparties,
		AvgFeedback:          avgFeedback,
		FeedbackCount:        feedbackCount,
		TotalVolumeUSDC:      sig.TotalVolumeUSDC,
		VolumeCounterparties: sig.VolumeCounterparties,
		IsRegistered:         w.Erc8004ID != nil,
	}
}

func roleFor(b Bundle, agg *aggregator.Aggregate) *string {
	sig := agg.ByAddress[b.Address]
	return sig.Role()
}

func agentIDKey(id int64) string {
	return store.AgentIDKey(id)
}
