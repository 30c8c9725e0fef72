// Copyright 2026 The wallettrust Authors
//
// Licensed under the GNU Lesser General Public License, version 3 or
// (at your option) any later version. See LICENSE for details.

// Command indexer runs one or more Event Indexer scanners to
// completion: resumable per-(chain, event-source) batch scans against
// an EVM JSON-RPC endpoint, tracked by the Budget Governor.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-redis/redis/v7"
	"go.uber.org/zap"
	"gopkg.in/urfave/cli.v1"

	"github.com/wallettrust/core/internal/budget"
	"github.com/wallettrust/core/internal/chain"
	"github.com/wallettrust/core/internal/config"
	"github.com/wallettrust/core/internal/errs"
	"github.com/wallettrust/core/internal/indexer"
	"github.com/wallettrust/core/internal/logging"
	"github.com/wallettrust/core/internal/store"
)

var (
	chainFlag = cli.StringFlag{
		Name:  "chain",
		Value: "all",
		Usage: "chain to scan: ethereum, base, arbitrum, or all",
	}
	limitFlag = cli.IntFlag{
		Name:  "limit",
		Usage: "cap the number of blocks scanned this run, per scanner",
	}
	daysFlag = cli.IntFlag{
		Name:  "days",
		Usage: "default scan window in days when no cursor exists yet",
	}
)

func main() {
	app := cli.NewApp()
	app.Name = "indexer"
	app.Usage = "scan chain events into the wallettrust event store"
	app.Flags = []cli.Flag{chainFlag, limitFlag, daysFlag}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	log, err := logging.New()
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	cfg, err := config.Load()
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	selected, err := config.ParseChain(c.String(chainFlag.Name))
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	chains := config.AllChains
	if selected != "" {
		chains = []config.ChainName{selected}
	}

	var limit *uint64
	if c.IsSet(limitFlag.Name) {
		n := uint64(c.Int(limitFlag.Name))
		limit = &n
	}
	days := c.Int(daysFlag.Name)

	s, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		return cli.NewExitError(errs.TransientDB(err).Error(), 1)
	}

	governor, closeMonthly, err := newGovernor(cfg, logging.Module(log, "budget"))
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	defer closeMonthly()

	ctx := context.Background()
	cursors := indexer.NewCursorStore(s)

	totalFound := 0
	for _, chainName := range chains {
		chainCfg := cfg.Chains[chainName]

		gateway, err := chain.NewGateway(ctx, chainCfg.RPCURL, governor)
		if err != nil {
			log.Errorw("failed to dial chain, skipping", "chain", chainName, "error", err)
			continue
		}

		for _, sc := range buildScanners(string(chainName), chainCfg, gateway, governor, cursors, s, log, days) {
			if governor.ShouldStop() {
				log.Infow("budget governor already stopped, skipping remaining scanners", "scanner_id", sc.ID)
				break
			}

			summary, err := sc.Run(ctx, limit)
			if err != nil {
				log.Errorw("scanner run failed", "scanner_id", sc.ID, "error", err)
				return cli.NewExitError(err.Error(), 1)
			}
			log.Infow("scanner run complete",
				"scanner_id", summary.ScannerID,
				"batches", summary.BatchesRun,
				"events_found", summary.EventsFound,
				"start_block", summary.StartBlock,
				"end_block", summary.EndBlock,
				"stop_reason", summary.StopReason,
			)
			totalFound += summary.EventsFound
		}
	}

	log.Infow("indexer run complete", "total_events_found", totalFound)
	return nil
}

// buildScanners wires the three scanners for one chain: identity,
// feedback, and payment, matching spec.md's "four instances exist in
// practice" (two identity/feedback scanners per chain here collapsed
// to one identity + one feedback scanner per chain, plus one payment
// scanner per chain).
func buildScanners(
	chainName string,
	chainCfg config.ChainConfig,
	gateway chain.Gateway,
	governor *budget.Governor,
	cursors indexer.CursorStore,
	s *store.Store,
	log *zap.SugaredLogger,
	days int,
) []*indexer.Scanner {
	identityHandler := &indexer.IdentityHandler{
		Chain: chainName,
		Store: s,
		Log:   logging.Module(log, "indexer.identity"),
	}
	feedbackHandler := &indexer.FeedbackHandler{
		Store: s,
		Log:   logging.Module(log, "indexer.feedback"),
	}
	paymentHandler := &indexer.PaymentHandler{
		Chain:             chainName,
		USDCContract:      common.HexToAddress(chainCfg.USDCContract),
		KnownFacilitators: chainCfg.KnownFacilitators,
		Gateway:           gateway,
		Txs:               s,
		Wallets:           s,
		Log:               logging.Module(log, "indexer.payment"),
	}

	return []*indexer.Scanner{
		{
			ID:                "identity_" + chainName,
			ContractAddress:   common.HexToAddress(chainCfg.IdentityRegistry),
			Topics:            [][]common.Hash{{chain.TransferTopic}},
			GenesisBlock:      chainCfg.IdentityGenesisBlock,
			Pacing:            chainCfg.PacingInterval,
			DefaultWindowDays: days,
			AvgBlockTimeSecs:  chainCfg.AverageBlockTimeSecs,
			Gateway:           gateway,
			Governor:          governor,
			Cursor:            cursors,
			Handler:           identityHandler,
			Log:               logging.Module(log, "scanner.identity"),
		},
		{
			ID:                "feedback_" + chainName,
			ContractAddress:   common.HexToAddress(chainCfg.ReputationRegistry),
			Topics:            [][]common.Hash{{chain.NewFeedbackTopic}},
			GenesisBlock:      chainCfg.IdentityGenesisBlock,
			Pacing:            chainCfg.PacingInterval,
			DefaultWindowDays: days,
			AvgBlockTimeSecs:  chainCfg.AverageBlockTimeSecs,
			Gateway:           gateway,
			Governor:          governor,
			Cursor:            cursors,
			Handler:           feedbackHandler,
			Log:               logging.Module(log, "scanner.feedback"),
		},
		{
			ID:                "payment_" + chainName,
			ContractAddress:   common.HexToAddress(chainCfg.USDCContract),
			Topics:            [][]common.Hash{{chain.AuthorizationUsedTopic}},
			GenesisBlock:      chainCfg.PaymentGenesisBlock,
			Pacing:            chainCfg.PacingInterval,
			DefaultWindowDays: days,
			AvgBlockTimeSecs:  chainCfg.AverageBlockTimeSecs,
			Gateway:           gateway,
			Governor:          governor,
			Cursor:            cursors,
			Handler:           paymentHandler,
			Log:               logging.Module(log, "scanner.payment"),
		},
	}
}

// newGovernor builds the process's single Budget Governor, backed by
// Redis when REDIS_URL is configured so a monthly stop threshold
// crossed by one process run is honored by the next, or run-scoped
// only otherwise.
func newGovernor(cfg *config.Config, log *zap.SugaredLogger) (*budget.Governor, func(), error) {
	var monthly budget.MonthlyStore
	closeFn := func() {}

	if cfg.RedisURL != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisURL})
		monthly = budget.NewRedisMonthlyStore(client, "wallettrust:cu:")
		closeFn = func() { _ = client.Close() }
	}

	return budget.New(cfg.MonthlyBudgetCU, cfg.BudgetWarnFraction, cfg.BudgetStopFraction, monthly, log), closeFn, nil
}
