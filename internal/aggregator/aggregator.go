// Copyright 2026 The wallettrust Authors
//
// Licensed under the GNU Lesser General Public License, version 3 or
// (at your option) any later version. See LICENSE for details.

// Package aggregator derives per-wallet signals from the Event Store
// in a single pass using set-oriented queries — never per-wallet
// round trips. The four passes (counterparty, feedback, volume, role)
// are independent and read-only, so they run concurrently.
package aggregator

import (
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/wallettrust/core/internal/store"
)

// Queryer is the subset of *store.Store the aggregator needs —
// narrowed to an interface so tests can supply a fake.
type Queryer interface {
	CounterpartyStats() ([]store.CounterpartyRow, error)
	VolumeStats() ([]store.VolumeRow, error)
	FeedbackStats() ([]store.FeedbackRow, error)
	RoleStats() ([]store.RoleRow, error)
}

// Signals is everything the Scoring Engine needs about one address,
// keyed by address for the wallet-level maps and additionally
// resolvable by erc8004 agent id for the feedback map.
type Signals struct {
	UniqueCounterparties int
	TotalVolumeUSDC      float64
	VolumeCounterparties int
	EverPayer            bool
	EverRecipient        bool
}

// FeedbackSignals is keyed by agent_id rather than address, since
// feedback is addressed to an identity token, not a wallet directly.
type FeedbackSignals struct {
	FeedbackCount int
	AvgFeedback   *float64
}

// Aggregate is the full result of one aggregation pass.
type Aggregate struct {
	ByAddress  map[string]Signals
	ByAgentID  map[string]FeedbackSignals
}

// Role derives the spec's role classification for one address.
func (a Signals) Role() *string {
	var role string
	switch {
	case a.EverPayer && a.EverRecipient:
		role = store.RoleBoth
	case a.EverPayer:
		role = store.RoleBuyer
	case a.EverRecipient:
		role = store.RoleSeller
	default:
		return nil
	}
	return &role
}

// Run executes the four set-oriented passes concurrently and merges
// them into one Aggregate.
func Run(q Queryer) (*Aggregate, error) {
	var (
		counterparties []store.CounterpartyRow
		volumes        []store.VolumeRow
		feedback       []store.FeedbackRow
		roles          []store.RoleRow
	)

	var g errgroup.Group
	g.Go(func() (err error) {
		counterparties, err = q.CounterpartyStats()
		return err
	})
	g.Go(func() (err error) {
		volumes, err = q.VolumeStats()
		return err
	})
	g.Go(func() (err error) {
		feedback, err = q.FeedbackStats()
		return err
	})
	g.Go(func() (err error) {
		roles, err = q.RoleStats()
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byAddress := map[string]Signals{}

	for _, row := range counterparties {
		s := byAddress[row.Address]
		s.UniqueCounterparties = row.UniqueCounterparties
		byAddress[row.Address] = s
	}
	for _, row := range volumes {
		s := byAddress[row.Address]
		s.VolumeCounterparties = row.VolumeCounterparties
		if f, err := strconv.ParseFloat(row.TotalVolumeUSDC, 64); err == nil {
			s.TotalVolumeUSDC = f
		}
		byAddress[row.Address] = s
	}
	for _, row := range roles {
		s := byAddress[row.Address]
		s.EverPayer = row.EverPayer
		s.EverRecipient = row.EverRecipient
		byAddress[row.Address] = s
	}

	byAgentID := map[string]FeedbackSignals{}
	for _, row := range feedback {
		avg := row.AvgValue
		byAgentID[row.AgentID] = FeedbackSignals{
			FeedbackCount: row.FeedbackCount,
			AvgFeedback:   &avg,
		}
	}

	return &Aggregate{ByAddress: byAddress, ByAgentID: byAgentID}, nil
}
