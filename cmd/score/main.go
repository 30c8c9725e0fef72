// Copyright 2026 The wallettrust Authors
//
// Licensed under the GNU Lesser General Public License, version 3 or
// (at your option) any later version. See LICENSE for details.

// Command score runs one Signal Aggregator + Scoring Engine pass,
// then dispatches any resulting score-change webhooks.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/urfave/cli.v1"

	"github.com/wallettrust/core/internal/aggregator"
	"github.com/wallettrust/core/internal/config"
	"github.com/wallettrust/core/internal/logging"
	"github.com/wallettrust/core/internal/notify"
	"github.com/wallettrust/core/internal/scoring"
	"github.com/wallettrust/core/internal/store"
)

// defaultWebhookTimeout bounds a single webhook delivery attempt.
const defaultWebhookTimeout = 10 * time.Second

var fullFlag = cli.BoolFlag{
	Name:  "full",
	Usage: "rescore every wallet instead of only those flagged needs_rescore",
}

func main() {
	app := cli.NewApp()
	app.Name = "score"
	app.Usage = "aggregate signals, compute trust scores, dispatch webhooks"
	app.Flags = []cli.Flag{fullFlag}
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

	s, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	defer s.Close() //nolint:errcheck

	agg, err := aggregator.Run(s)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	engine := scoring.New(s, agg, logging.Module(log, "scoring"))
	scoreSummary, err := engine.Run(c.Bool(fullFlag.Name))
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	log.Infow("scoring pass complete",
		"wallets_considered", scoreSummary.WalletsConsidered,
		"wallets_scored", scoreSummary.WalletsScored,
		"wallets_failed", scoreSummary.WalletsFailed,
		"tier_counts", scoreSummary.TierCounts,
	)

	if scoreSummary.WalletsScored == 0 {
		log.Infow("no wallets scored this run, skipping dispatch")
		return nil
	}

	updates, err := scoreUpdatesFrom(s, scoreSummary.ComputedAt)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	publisher, closePublisher := newPublisher(cfg, log)
	defer closePublisher()

	dispatcher := notify.New(s, notify.NewHTTPDelivery(defaultWebhookTimeout), publisher, cfg.WebhookFailureThreshold, logging.Module(log, "notify"))
	dispatchSummary, err := dispatcher.Run(context.Background(), updates)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	log.Infow("dispatch pass complete",
		"updates_processed", dispatchSummary.UpdatesProcessed,
		"webhooks_matched", dispatchSummary.WebhooksMatched,
		"deliveries_ok", dispatchSummary.DeliveriesOK,
		"deliveries_failed", dispatchSummary.DeliveriesFailed,
	)
	return nil
}

// scoreUpdatesFrom loads every score_history row this pass wrote —
// all stamped with the same computedAt — and shapes them into the
// Dispatcher's unit of work.
func scoreUpdatesFrom(s *store.Store, computedAt time.Time) ([]notify.ScoreUpdate, error) {
	snaps, err := s.SnapshotsAt(computedAt)
	if err != nil {
		return nil, err
	}
	updates := make([]notify.ScoreUpdate, 0, len(snaps))
	for _, snap := range snaps {
		updates = append(updates, notify.ScoreUpdate{
			Address:    snap.Address,
			NewScore:   snap.Score,
			ComputedAt: snap.ComputedAt,
		})
	}
	return updates, nil
}

// newPublisher builds the optional Kafka score-changed publisher.
// Callers that never configure KAFKA_BROKERS run with a nil
// Publisher, which Dispatcher.Run treats as an additive no-op.
func newPublisher(cfg *config.Config, log *zap.SugaredLogger) (notify.Publisher, func()) {
	if len(cfg.KafkaBrokers) == 0 {
		return nil, func() {}
	}
	publisher, err := notify.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaScoreTopic)
	if err != nil {
		log.Errorw("failed to dial kafka, continuing without secondary event stream", "error", err)
		return nil, func() {}
	}
	return publisher, func() { _ = publisher.Close() }
}
