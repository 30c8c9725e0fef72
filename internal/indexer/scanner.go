// Copyright 2026 The wallettrust Authors
//
// Licensed under the GNU Lesser General Public License, version 3 or
// (at your option) any later version. See LICENSE for details.

// Package indexer implements the resumable per-(chain, event-source)
// scanner loop: read cursor, fetch logs in bounded batches, decode and
// persist idempotently, advance the cursor, pace, repeat.
package indexer

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/wallettrust/core/internal/chain"
)

// BatchBlocks is the hard per-call log window imposed by the RPC
// provider. Exceeding it is a configuration error, never attempted.
const BatchBlocks = 10

// SourceHandler decodes and persists one batch's worth of already
// topic-filtered logs for one event family. found is the number of
// rows actually decoded and persisted — it does not include rows
// skipped as malformed, per the decoding failure semantics.
type SourceHandler interface {
	DecodeAndPersist(ctx context.Context, logs []chain.LogRecord) (found int, err error)
}

// Governor is the subset of the Budget Governor the Scanner polls
// between batches.
type Governor interface {
	ShouldStop() bool
}

// CursorStore is the subset of *store.Store the Scanner needs to read
// and advance its cursor. Kept narrow so tests can fake it.
type CursorStore interface {
	GetCursor(scannerID string) (last uint64, found bool, err error)
	AdvanceCursor(scannerID string, batchEnd uint64) error
}

// Scanner runs one (chain, event-source) scan to completion — either
// "up to date", a configured block limit reached, or the Budget
// Governor signaling a monthly stop.
type Scanner struct {
	ID              string
	ContractAddress common.Address
	Topics          [][]common.Hash
	GenesisBlock    uint64
	Pacing          time.Duration

	// DefaultWindowDays and AvgBlockTimeSecs together give the
	// operator's --days override: when no cursor exists yet, scanning
	// starts this many days back from the chain head instead of from
	// GenesisBlock. Either left zero falls back to GenesisBlock.
	DefaultWindowDays int
	AvgBlockTimeSecs  float64

	Gateway  chain.Gateway
	Governor Governor
	Cursor   CursorStore
	Handler  SourceHandler
	Log      *zap.SugaredLogger

	sleep func(time.Duration)
}

// Summary reports one Run's outcome for the operator CLI to print.
type Summary struct {
	ScannerID       string
	BatchesRun      int
	EventsFound     int
	StartBlock      uint64
	EndBlock        uint64
	StopReason      string
}

// Run drives the batch loop described in the indexer's batch-loop
// algorithm: determine the starting block from the cursor (or
// genesis), determine the ceiling from the chain head or an
// operator-supplied limit, then walk BatchBlocks-sized windows until
// caught up, limited, or budget-stopped.
func (s *Scanner) Run(ctx context.Context, limit *uint64) (Summary, error) {
	summary := Summary{ScannerID: s.ID}

	last, found, err := s.Cursor.GetCursor(s.ID)
	if err != nil {
		return summary, err
	}

	head, err := s.Gateway.GetHead(ctx)
	if err != nil {
		return summary, err
	}

	from := s.GenesisBlock
	if found {
		from = last + 1
	} else if windowStart, ok := s.defaultWindowStart(head); ok && windowStart > from {
		from = windowStart
	}
	summary.StartBlock = from

	to := head
	if limit != nil {
		capped := from + *limit - 1
		if capped < to {
			to = capped
		}
	}

	if from > to {
		summary.StopReason = "up-to-date"
		summary.EndBlock = from - 1
		return summary, nil
	}

	cur := from
	for cur <= to {
		if s.Governor.ShouldStop() {
			s.Log.Infow("budget governor stop reached, halting scan", "scanner_id", s.ID, "last_block", cur-1)
			summary.StopReason = "budget_stop"
			break
		}

		batchEnd := cur + BatchBlocks - 1
		if batchEnd > to {
			batchEnd = to
		}

		logs, err := s.Gateway.GetLogs(ctx, s.ContractAddress, s.Topics, cur, batchEnd)
		if err != nil {
			return summary, err
		}

		foundN, err := s.Handler.DecodeAndPersist(ctx, logs)
		if err != nil {
			return summary, err
		}
		summary.EventsFound += foundN
		summary.BatchesRun++

		if err := s.Cursor.AdvanceCursor(s.ID, batchEnd); err != nil {
			return summary, err
		}
		summary.EndBlock = batchEnd

		cur = batchEnd + 1

		if cur <= to {
			s.pace()
		}
	}

	if summary.StopReason == "" {
		summary.StopReason = "up-to-date"
	}
	return summary, nil
}

// defaultWindowStart translates DefaultWindowDays into a starting
// block relative to head, using AvgBlockTimeSecs. ok is false when no
// --days override is configured, leaving the caller to fall back to
// GenesisBlock.
func (s *Scanner) defaultWindowStart(head uint64) (uint64, bool) {
	if s.DefaultWindowDays <= 0 || s.AvgBlockTimeSecs <= 0 {
		return 0, false
	}
	windowBlocks := uint64(float64(s.DefaultWindowDays) * 86400 / s.AvgBlockTimeSecs)
	if windowBlocks >= head {
		return 0, false
	}
	return head - windowBlocks, true
}

func (s *Scanner) pace() {
	if s.Pacing <= 0 {
		return
	}
	if s.sleep != nil {
		s.sleep(s.Pacing)
		return
	}
	time.Sleep(s.Pacing)
}
