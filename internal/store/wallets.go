// Copyright 2026 The wallettrust Authors
//
// Licensed under the GNU Lesser General Public License, version 3 or
// (at your option) any later version. See LICENSE for details.

package store

import (
	"strings"
	"time"

	"github.com/jinzhu/gorm"
	"github.com/pkg/errors"
)

// WalletObservation is one scanner's sighting of a wallet within a
// batch: enough to create the row if absent, or apply the promotion
// rule if present.
type WalletObservation struct {
	Address   string
	Source    string // erc8004 or x402 — never "both"; promotion is derived
	Chain     string
	Erc8004ID *int64 // set only by the identity scanner
	SeenAt    time.Time
	BumpTxCount bool
}

// UpsertWallet applies one observation using the promotion rule from
// the spec: a wallet seen under both families transitions source to
// "both"; first_seen_at never decreases; last_seen_at is
// monotonically non-decreasing; needs_rescore is always set true on
// any mutating observation.
func (s *Store) UpsertWallet(obs WalletObservation) error {
	address := strings.ToLower(obs.Address)

	return s.db.Transaction(func(tx *gorm.DB) error {
		var existing Wallet
		err := tx.Where("address = ?", address).First(&existing).Error

		if err == gorm.ErrRecordNotFound {
			w := Wallet{
				Address:      address,
				Source:       obs.Source,
				Chain:        obs.Chain,
				Erc8004ID:    obs.Erc8004ID,
				FirstSeenAt:  obs.SeenAt,
				LastSeenAt:   obs.SeenAt,
				NeedsRescore: true,
			}
			if obs.BumpTxCount {
				w.TxCount = 1
			}
			return tx.Create(&w).Error
		}
		if err != nil {
			return errors.Wrap(err, "loading wallet")
		}

		updates := map[string]interface{}{
			"needs_rescore": true,
		}

		if existing.Source != obs.Source && existing.Source != SourceBoth {
			updates["source"] = SourceBoth
		}
		if existing.Erc8004ID == nil && obs.Erc8004ID != nil {
			updates["erc8004_id"] = *obs.Erc8004ID
		}
		if obs.SeenAt.Before(existing.FirstSeenAt) {
			updates["first_seen_at"] = obs.SeenAt
		}
		if obs.SeenAt.After(existing.LastSeenAt) {
			updates["last_seen_at"] = obs.SeenAt
		}
		if obs.BumpTxCount {
			updates["tx_count"] = gorm.Expr("tx_count + 1")
		}

		return tx.Model(&existing).Where("address = ?", address).Updates(updates).Error
	})
}

// DedupeObservations collapses multiple observations of the same
// address within one batch (e.g. several NFTs minted to one wallet)
// before insert, keeping the earliest erc8004_id and earliest SeenAt.
func DedupeObservations(obs []WalletObservation) []WalletObservation {
	byAddress := map[string]WalletObservation{}
	order := make([]string, 0, len(obs))

	for _, o := range obs {
		addr := strings.ToLower(o.Address)
		existing, ok := byAddress[addr]
		if !ok {
			o.Address = addr
			byAddress[addr] = o
			order = append(order, addr)
			continue
		}
		if o.SeenAt.Before(existing.SeenAt) {
			existing.SeenAt = o.SeenAt
		}
		if existing.Erc8004ID == nil && o.Erc8004ID != nil {
			existing.Erc8004ID = o.Erc8004ID
		}
		byAddress[addr] = existing
	}

	out := make([]WalletObservation, 0, len(order))
	for _, addr := range order {
		out = append(out, byAddress[addr])
	}
	return out
}

// GetWallet fetches one wallet by address, or gorm.ErrRecordNotFound.
func (s *Store) GetWallet(address string) (*Wallet, error) {
	var w Wallet
	if err := s.db.Where("address = ?", strings.ToLower(address)).First(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

// WalletsNeedingRescore returns every wallet with needs_rescore = true,
// for incremental scoring selection.
func (s *Store) WalletsNeedingRescore() ([]Wallet, error) {
	var wallets []Wallet
	err := s.db.Where("needs_rescore = ?", true).Find(&wallets).Error
	return wallets, err
}

// AllWallets returns every wallet, for full rescoring.
func (s *Store) AllWallets() ([]Wallet, error) {
	var wallets []Wallet
	err := s.db.Find(&wallets).Error
	return wallets, err
}

// ApplyScore persists one scoring pass's result for a wallet: it
// writes the snapshot row first (so history never misses a persisted
// score) and then updates the wallet's scoring columns and clears
// needs_rescore, all inside one transaction.
func (s *Store) ApplyScore(address string, score int, breakdown map[string]int, role *string, computedAt time.Time) error {
	encoded, err := EncodeBreakdown(breakdown)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		snapshot := ScoreSnapshot{
			Address:    strings.ToLower(address),
			Score:      score,
			Breakdown:  encoded,
			ComputedAt: computedAt,
		}
		if err := tx.Create(&snapshot).Error; err != nil {
			return errors.Wrap(err, "writing score snapshot")
		}

		updates := map[string]interface{}{
			"trust_score":     score,
			"score_breakdown": encoded,
			"scored_at":       computedAt,
			"needs_rescore":   false,
		}
		if role != nil {
			updates["role"] = *role
		}

		return tx.Model(&Wallet{}).Where("address = ?", strings.ToLower(address)).Updates(updates).Error
	})
}

// SnapshotsAt returns every score_history row stamped with exactly
// computedAt — the full set of wallets touched by one scoring pass,
// since Engine.Run stamps every row it writes with the same instant.
func (s *Store) SnapshotsAt(computedAt time.Time) ([]ScoreSnapshot, error) {
	var snaps []ScoreSnapshot
	err := s.db.Where("computed_at = ?", computedAt).Find(&snaps).Error
	return snaps, err
}

// LatestSnapshotBefore returns the most recent snapshot for address
// strictly before cutoff, or nil if none exists — used by the
// Dispatcher to find the "previous" score for delta computation.
func (s *Store) LatestSnapshotBefore(address string, cutoff time.Time) (*ScoreSnapshot, error) {
	var snap ScoreSnapshot
	err := s.db.Where("address = ? AND computed_at < ?", strings.ToLower(address), cutoff).
		Order("computed_at desc").First(&snap).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &snap, nil
}
