// Copyright 2026 The wallettrust Authors
//
// Licensed under the GNU Lesser General Public License, version 3 or
// (at your option) any later version. See LICENSE for details.

// Package notify implements the Notification Dispatcher: delta
// computation against the prior snapshot, webhook matching, and
// at-least-once delivery with retry and consecutive-failure disable.
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/wallettrust/core/internal/scoring"
	"github.com/wallettrust/core/internal/store"
)

// ScoreUpdate is one wallet's outcome from a completed scoring pass —
// the Dispatcher's unit of work.
type ScoreUpdate struct {
	Address    string
	NewScore   int
	ComputedAt time.Time
}

// Store is the subset of *store.Store the Dispatcher depends on.
type Store interface {
	ActiveWebhooks() ([]store.Webhook, error)
	LatestSnapshotBefore(address string, cutoff time.Time) (*store.ScoreSnapshot, error)
	RecordDeliverySuccess(id uint64) error
	RecordDeliveryFailure(id uint64, threshold int) error
}

// Delivery sends one webhook payload, returning an error only when
// every retry attempt failed.
type Delivery interface {
	Deliver(ctx context.Context, url string, payload Payload) error
}

// Publisher is an optional secondary event-stream sink (Kafka). Run
// calls it best-effort, synchronously before the webhook deliveries
// for the same update: a publish failure is logged, never fatal, and
// never prevents webhook delivery.
type Publisher interface {
	Publish(ctx context.Context, payload Payload) error
}

// Payload is the wire shape POSTed to every matched webhook, per the
// spec's exact field list.
type Payload struct {
	Event     string    `json:"event"`
	Address   string    `json:"address"`
	OldScore  *int      `json:"old_score"`
	NewScore  int       `json:"new_score"`
	Tier      string    `json:"tier"`
	Threshold *int      `json:"threshold"`
	Timestamp time.Time `json:"timestamp"`
}

// Summary reports one Run's delivery outcome for the operator CLI.
type Summary struct {
	UpdatesProcessed int
	WebhooksMatched  int
	DeliveriesOK     int
	DeliveriesFailed int
}

// Dispatcher runs after a completed scoring pass.
type Dispatcher struct {
	FailureThreshold int

	store     Store
	delivery  Delivery
	publisher Publisher
	log       *zap.SugaredLogger
}

// New builds a Dispatcher. publisher may be nil — the Kafka publish
// path is additive, not required.
func New(s Store, delivery Delivery, publisher Publisher, failureThreshold int, log *zap.SugaredLogger) *Dispatcher {
	return &Dispatcher{FailureThreshold: failureThreshold, store: s, delivery: delivery, publisher: publisher, log: log}
}

// Run processes every score update: compute the delta against the
// prior snapshot, match it against every active webhook, and deliver.
func (d *Dispatcher) Run(ctx context.Context, updates []ScoreUpdate) (Summary, error) {
	summary := Summary{}

	hooks, err := d.store.ActiveWebhooks()
	if err != nil {
		return summary, err
	}

	for _, u := range updates {
		summary.UpdatesProcessed++

		prior, err := d.store.LatestSnapshotBefore(u.Address, u.ComputedAt)
		if err != nil {
			d.log.Errorw("failed to load prior snapshot, skipping dispatch for wallet", "address", u.Address, "error", err)
			continue
		}

		var old *int
		if prior != nil {
			old = &prior.Score
		}

		eventType, ok := changeEventType(old, u.NewScore)
		if !ok {
			continue
		}

		payload := Payload{
			Event:     eventType,
			Address:   u.Address,
			OldScore:  old,
			NewScore:  u.NewScore,
			Tier:      scoring.Tier(u.NewScore),
			Timestamp: u.ComputedAt,
		}

		if d.publisher != nil {
			if err := d.publisher.Publish(ctx, payload); err != nil {
				d.log.Warnw("secondary event stream publish failed, continuing", "address", u.Address, "error", err)
			}
		}

		for _, hook := range hooks {
			if !matches(hook, u.Address, old, u.NewScore) {
				continue
			}
			summary.WebhooksMatched++

			hookPayload := payload
			hookPayload.Event = hook.EventType
			hookPayload.Threshold = hook.Threshold

			if err := d.delivery.Deliver(ctx, hook.TargetURL, hookPayload); err != nil {
				summary.DeliveriesFailed++
				d.log.Warnw("webhook delivery failed", "webhook_id", hook.ID, "url", hook.TargetURL, "error", err)
				if err := d.store.RecordDeliveryFailure(hook.ID, d.FailureThreshold); err != nil {
					d.log.Errorw("failed to record webhook delivery failure", "webhook_id", hook.ID, "error", err)
				}
				continue
			}
			summary.DeliveriesOK++
			if err := d.store.RecordDeliverySuccess(hook.ID); err != nil {
				d.log.Errorw("failed to record webhook delivery success", "webhook_id", hook.ID, "error", err)
			}
		}
	}

	return summary, nil
}

// changeEventType names the generic event fired for this delta — the
// per-webhook EventType substitution happens in Run. ok is false
// when the score did not change and there was a prior score (nothing
// to report).
func changeEventType(old *int, newScore int) (string, bool) {
	if old == nil {
		return store.EventScoreChange, true
	}
	if *old == newScore {
		return "", false
	}
	return store.EventScoreChange, true
}

// matches implements the spec's webhook matching rules: address
// filter, event-type filter (with its own delta-sign requirement), and
// threshold-crossing test.
func matches(hook store.Webhook, address string, old *int, newScore int) bool {
	if hook.WalletFilter != nil && *hook.WalletFilter != address {
		return false
	}

	switch hook.EventType {
	case store.EventScoreDrop:
		if old == nil || newScore-*old >= 0 {
			return false
		}
		return crossesThreshold(hook.Threshold, *old, newScore, false)
	case store.EventScoreRise:
		if old == nil || newScore-*old <= 0 {
			return false
		}
		return crossesThreshold(hook.Threshold, *old, newScore, true)
	case store.EventScoreChange:
		if old == nil {
			return true
		}
		if newScore == *old {
			return false
		}
		if hook.Threshold == nil {
			return true
		}
		rising := newScore > *old
		return crossesThreshold(hook.Threshold, *old, newScore, rising)
	default:
		return false
	}
}

// crossesThreshold requires old and new to be on opposite sides of
// threshold in the given direction. A nil threshold always matches.
func crossesThreshold(threshold *int, old, newScore int, rising bool) bool {
	if threshold == nil {
		return true
	}
	t := *threshold
	if rising {
		return old < t && newScore >= t
	}
	return old >= t && newScore < t
}
