// Copyright 2026 The wallettrust Authors
//
// Licensed under the GNU Lesser General Public License, version 3 or
// (at your option) any later version. See LICENSE for details.

// Package store is the durable relational store: wallets, transactions,
// feedback, scanner cursors, score snapshots, API keys, and webhook
// registrations. Built on jinzhu/gorm, the teacher's declared ORM.
package store

import "time"

// Source values for Wallet.Source.
const (
	SourceERC8004 = "erc8004"
	SourceX402    = "x402"
	SourceBoth    = "both"
)

// Role values for Wallet.Role.
const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
	RoleBoth   = "both"
)

// Feedback.Source values.
const (
	FeedbackSourceChain = "chain"
	FeedbackSourceAPI   = "api"
)

// Webhook.EventType values.
const (
	EventScoreChange = "score_change"
	EventScoreDrop   = "score_drop"
	EventScoreRise   = "score_rise"
)

// Wallet is identified by a lowercased 20-byte address.
type Wallet struct {
	Address string `gorm:"primary_key;size:42;column:address"`

	Source    string `gorm:"size:16;index:idx_wallets_source"`
	Chain     string `gorm:"size:20"`
	Erc8004ID *int64 `gorm:"column:erc8004_id"`

	TxCount int64 `gorm:"not null;default:0"`

	FirstSeenAt time.Time `gorm:"not null"`
	LastSeenAt  time.Time `gorm:"not null"`

	TrustScore     *int
	ScoreBreakdown string // JSON-encoded map[string]int, see breakdown.go
	ScoredAt       *time.Time
	Role           *string `gorm:"size:8"`

	NeedsRescore bool `gorm:"not null;default:true"`
}

func (Wallet) TableName() string { return "wallets" }

// Transaction is keyed by (tx_hash, chain).
type Transaction struct {
	ID uint64 `gorm:"primary_key"`

	TxHash string `gorm:"size:66;not null;unique_index:idx_transactions_hash_chain"`
	Chain  string `gorm:"size:20;not null;unique_index:idx_transactions_hash_chain"`

	BlockNumber uint64 `gorm:"index:idx_transactions_block_number"`

	Authorizer *string `gorm:"size:42;index:idx_transactions_authorizer"`
	Payer      *string `gorm:"size:42;index:idx_transactions_payer"`
	Recipient  *string `gorm:"size:42;index:idx_transactions_recipient"`

	AmountRaw  string `gorm:"type:varchar(100)"`
	AmountUSDC Money  `gorm:"type:decimal(30,6)"`

	Facilitator string `gorm:"size:42"`
	IsX402      bool

	BlockTimestamp time.Time
}

func (Transaction) TableName() string { return "transactions" }

// Feedback is keyed by (tx_hash, feedback_index).
type Feedback struct {
	ID uint64 `gorm:"primary_key"`

	TxHash        string `gorm:"size:66;not null;unique_index:idx_feedback_tx_index"`
	FeedbackIndex int    `gorm:"not null;unique_index:idx_feedback_tx_index"`

	AgentID       string `gorm:"size:42;index:idx_feedback_agent_id"`
	ClientAddress string `gorm:"size:42;index:idx_feedback_client_address"`

	ValueRaw        string  `gorm:"type:varchar(100)"`
	ValueDecimals   int
	ValueNormalized float64 // ValueRaw scaled by 10^-ValueDecimals, for aggregation only

	Tag1        *string `gorm:"size:64"`
	Tag2        *string `gorm:"size:64"`
	Endpoint    *string
	FeedbackURI *string
	ContentHash string `gorm:"size:66"`

	BlockNumber    uint64
	BlockTimestamp time.Time

	Source string `gorm:"size:8;not null"`
}

func (Feedback) TableName() string { return "feedback" }

// ScannerCursor is keyed by scanner id, e.g. "identity_base".
type ScannerCursor struct {
	ScannerID string `gorm:"primary_key;size:64;column:scanner_id"`
	LastBlock uint64 `gorm:"not null"`
	UpdatedAt time.Time
}

func (ScannerCursor) TableName() string { return "indexer_state" }

// ScoreSnapshot is an append-only log keyed by address.
type ScoreSnapshot struct {
	ID         uint64 `gorm:"primary_key"`
	Address    string `gorm:"size:42;index:idx_score_history_address"`
	Score      int
	Breakdown  string // JSON-encoded map[string]int
	ComputedAt time.Time `gorm:"index:idx_score_history_computed_at"`
}

func (ScoreSnapshot) TableName() string { return "score_history" }

// APIKey carries a tier and a daily request quota.
type APIKey struct {
	ID         uint64 `gorm:"primary_key"`
	KeyHash    string `gorm:"size:128;unique_index"`
	Tier       string `gorm:"size:16"`
	DailyQuota int
	CreatedAt  time.Time
}

func (APIKey) TableName() string { return "api_keys" }

// APIUsage is keyed by (key_id, date).
type APIUsage struct {
	ID           uint64 `gorm:"primary_key"`
	KeyID        uint64 `gorm:"unique_index:idx_api_usage_key_date"`
	Date         string `gorm:"size:10;unique_index:idx_api_usage_key_date"`
	RequestCount int
}

func (APIUsage) TableName() string { return "api_usage" }

// Webhook belongs to an API key.
type Webhook struct {
	ID        uint64 `gorm:"primary_key"`
	APIKeyID  uint64 `gorm:"index:idx_webhooks_api_key_id"`
	TargetURL string `gorm:"size:2048"`

	WalletFilter *string `gorm:"size:42;index:idx_webhooks_wallet_address"`
	EventType    string  `gorm:"size:16"`
	Threshold    *int

	ConsecutiveFailures int
	Disabled            bool

	CreatedAt time.Time
}

func (Webhook) TableName() string { return "webhooks" }

// ScoringLock is a single sentinel row the Scoring Engine locks with
// SELECT ... FOR UPDATE to enforce the single-writer discipline.
type ScoringLock struct {
	ID uint `gorm:"primary_key"`
}

func (ScoringLock) TableName() string { return "scoring_locks" }
