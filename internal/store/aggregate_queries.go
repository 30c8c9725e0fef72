// Copyright 2026 The wallettrust Authors
//
// Licensed under the GNU Lesser General Public License, version 3 or
// (at your option) any later version. See LICENSE for details.

package store

// CounterpartyRow is one row of the counterparty-stats pass: for
// address, the number of distinct counterparties seen across all
// transactions in either direction.
type CounterpartyRow struct {
	Address              string `gorm:"column:addr"`
	UniqueCounterparties int    `gorm:"column:cnt"`
}

// CounterpartyStats runs the set-oriented counterparty query over the
// whole transactions table in one pass — never per-wallet.
func (s *Store) CounterpartyStats() ([]CounterpartyRow, error) {
	var rows []CounterpartyRow
	err := s.db.Raw(`
		SELECT addr, COUNT(DISTINCT counterparty) AS cnt FROM (
			SELECT payer AS addr, recipient AS counterparty FROM transactions
				WHERE payer IS NOT NULL AND recipient IS NOT NULL
			UNION ALL
			SELECT recipient AS addr, payer AS counterparty FROM transactions
				WHERE payer IS NOT NULL AND recipient IS NOT NULL
		) pairs
		GROUP BY addr
	`).Scan(&rows).Error
	return rows, err
}

// VolumeRow is one row of the volume-stats pass.
type VolumeRow struct {
	Address               string `gorm:"column:addr"`
	TotalVolumeUSDC        string `gorm:"column:total_volume"`
	VolumeCounterparties   int    `gorm:"column:cnt"`
}

// VolumeStats sums amount_usdc per address and counts the distinct
// counterparties that contributed to that sum.
func (s *Store) VolumeStats() ([]VolumeRow, error) {
	var rows []VolumeRow
	err := s.db.Raw(`
		SELECT addr, COALESCE(SUM(amount), '0') AS total_volume, COUNT(DISTINCT counterparty) AS cnt FROM (
			SELECT payer AS addr, recipient AS counterparty, amount_usdc AS amount FROM transactions
				WHERE payer IS NOT NULL AND recipient IS NOT NULL
			UNION ALL
			SELECT recipient AS addr, payer AS counterparty, amount_usdc AS amount FROM transactions
				WHERE payer IS NOT NULL AND recipient IS NOT NULL
		) pairs
		GROUP BY addr
	`).Scan(&rows).Error
	return rows, err
}

// FeedbackRow is one row of the feedback-stats pass, keyed by the
// agent_id a wallet was registered under.
type FeedbackRow struct {
	AgentID       string  `gorm:"column:agent_id"`
	FeedbackCount int     `gorm:"column:cnt"`
	AvgValue      float64 `gorm:"column:avg_value"`
}

// FeedbackStats averages the normalized feedback value per agent_id.
// ValueNormalized is a float64 summary column maintained alongside the
// exact ValueRaw/ValueDecimals pair (see Feedback.ValueNormalized):
// feedback scores are a coarse reputation signal, not a ledger amount,
// so averaging in floating point here does not violate the core's
// decimal-exactness requirement, which binds money fields.
func (s *Store) FeedbackStats() ([]FeedbackRow, error) {
	var rows []FeedbackRow
	err := s.db.Raw(`
		SELECT agent_id, COUNT(*) AS cnt, AVG(value_normalized) AS avg_value
		FROM feedback
		GROUP BY agent_id
	`).Scan(&rows).Error
	return rows, err
}

// RoleRow is one row of the role-derivation pass.
type RoleRow struct {
	Address      string `gorm:"column:addr"`
	EverPayer    bool   `gorm:"column:ever_payer"`
	EverRecipient bool  `gorm:"column:ever_recipient"`
}

// RoleStats determines, per address, whether it ever appeared as
// payer, recipient, or both.
func (s *Store) RoleStats() ([]RoleRow, error) {
	var rows []RoleRow
	err := s.db.Raw(`
		SELECT addr, MAX(is_payer) AS ever_payer, MAX(is_recipient) AS ever_recipient FROM (
			SELECT payer AS addr, 1 AS is_payer, 0 AS is_recipient FROM transactions WHERE payer IS NOT NULL
			UNION ALL
			SELECT recipient AS addr, 0 AS is_payer, 1 AS is_recipient FROM transactions WHERE recipient IS NOT NULL
		) sightings
		GROUP BY addr
	`).Scan(&rows).Error
	return rows, err
}
