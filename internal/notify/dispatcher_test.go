// Copyright 2026 The wallettrust Authors
//
// Licensed under the GNU Lesser General Public License, version 3 or
// (at your option) any later version. See LICENSE for details.

package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wallettrust/core/internal/store"
)

type fakeStore struct {
	hooks      []store.Webhook
	snapshots  map[string]*store.ScoreSnapshot
	successIDs []uint64
	failIDs    []uint64
}

func (f *fakeStore) ActiveWebhooks() ([]store.Webhook, error) { return f.hooks, nil }

func (f *fakeStore) LatestSnapshotBefore(address string, cutoff time.Time) (*store.ScoreSnapshot, error) {
	return f.snapshots[address], nil
}

func (f *fakeStore) RecordDeliverySuccess(id uint64) error {
	f.successIDs = append(f.successIDs, id)
	return nil
}

func (f *fakeStore) RecordDeliveryFailure(id uint64, threshold int) error {
	f.failIDs = append(f.failIDs, id)
	return nil
}

type fakeDelivery struct {
	delivered []Payload
	fail      bool
}

func (f *fakeDelivery) Deliver(ctx context.Context, url string, payload Payload) error {
	if f.fail {
		return errDeliveryFailed
	}
	f.delivered = append(f.delivered, payload)
	return nil
}

var errDeliveryFailed = fakeNotifyErr("delivery failed")

type fakeNotifyErr string

func (e fakeNotifyErr) Error() string { return string(e) }

func testLogger(t *testing.T) *zap.SugaredLogger {
	t.Helper()
	l, err := zap.NewDevelopment()
	require.NoError(t, err)
	return l.Sugar()
}

func intPtr(v int) *int { return &v }

func TestScoreDropWebhookFiresOnlyWhenScoreFalls(t *testing.T) {
	fs := &fakeStore{
		hooks: []store.Webhook{
			{ID: 1, TargetURL: "https://example.com/hook", EventType: store.EventScoreDrop},
		},
		snapshots: map[string]*store.ScoreSnapshot{
			"0xabc": {Score: 80},
		},
	}
	delivery := &fakeDelivery{}
	d := New(fs, delivery, nil, 5, testLogger(t))

	summary, err := d.Run(context.Background(), []ScoreUpdate{
		{Address: "0xabc", NewScore: 60, ComputedAt: time.Now()},
	})
	require.NoError(t, err)
	require.Equal(t, 1, summary.WebhooksMatched)
	require.Equal(t, 1, summary.DeliveriesOK)
	require.Len(t, delivery.delivered, 1)
	require.Equal(t, store.EventScoreDrop, delivery.delivered[0].Event)
}

func TestScoreRiseWebhookIgnoresDrops(t *testing.T) {
	fs := &fakeStore{
		hooks: []store.Webhook{
			{ID: 1, TargetURL: "https://example.com/hook", EventType: store.EventScoreRise},
		},
		snapshots: map[string]*store.ScoreSnapshot{
			"0xabc": {Score: 80},
		},
	}
	delivery := &fakeDelivery{}
	d := New(fs, delivery, nil, 5, testLogger(t))

	summary, err := d.Run(context.Background(), []ScoreUpdate{
		{Address: "0xabc", NewScore: 60, ComputedAt: time.Now()},
	})
	require.NoError(t, err)
	require.Equal(t, 0, summary.WebhooksMatched)
}

func TestThresholdCrossingRequiredForMatch(t *testing.T) {
	fs := &fakeStore{
		hooks: []store.Webhook{
			{ID: 1, TargetURL: "https://example.com/hook", EventType: store.EventScoreDrop, Threshold: intPtr(50)},
		},
		snapshots: map[string]*store.ScoreSnapshot{
			"0xabc": {Score: 55}, // drops to 52: still above threshold, no cross
			"0xdef": {Score: 55}, // drops to 45: crosses 50, matches
		},
	}
	delivery := &fakeDelivery{}
	d := New(fs, delivery, nil, 5, testLogger(t))

	_, err := d.Run(context.Background(), []ScoreUpdate{
		{Address: "0xabc", NewScore: 52, ComputedAt: time.Now()},
		{Address: "0xdef", NewScore: 45, ComputedAt: time.Now()},
	})
	require.NoError(t, err)
	require.Len(t, delivery.delivered, 1)
	require.Equal(t, "0xdef", delivery.delivered[0].Address)
}

func TestWalletFilterRestrictsMatch(t *testing.T) {
	fs := &fakeStore{
		hooks: []store.Webhook{
			{ID: 1, TargetURL: "https://example.com/hook", EventType: store.EventScoreChange, WalletFilter: strPtr("0xabc")},
		},
		snapshots: map[string]*store.ScoreSnapshot{},
	}
	delivery := &fakeDelivery{}
	d := New(fs, delivery, nil, 5, testLogger(t))

	_, err := d.Run(context.Background(), []ScoreUpdate{
		{Address: "0xdef", NewScore: 10, ComputedAt: time.Now()},
	})
	require.NoError(t, err)
	require.Empty(t, delivery.delivered)
}

func TestScoreChangeFiresOnFirstScoreEvenWithoutPrior(t *testing.T) {
	fs := &fakeStore{
		hooks: []store.Webhook{
			{ID: 1, TargetURL: "https://example.com/hook", EventType: store.EventScoreChange},
		},
		snapshots: map[string]*store.ScoreSnapshot{},
	}
	delivery := &fakeDelivery{}
	d := New(fs, delivery, nil, 5, testLogger(t))

	_, err := d.Run(context.Background(), []ScoreUpdate{
		{Address: "0xabc", NewScore: 40, ComputedAt: time.Now()},
	})
	require.NoError(t, err)
	require.Len(t, delivery.delivered, 1)
	require.Nil(t, delivery.delivered[0].OldScore)
}

func TestFailedDeliveryRecordsFailureNotSuccess(t *testing.T) {
	fs := &fakeStore{
		hooks: []store.Webhook{
			{ID: 7, TargetURL: "https://example.com/hook", EventType: store.EventScoreChange},
		},
		snapshots: map[string]*store.ScoreSnapshot{"0xabc": {Score: 10}},
	}
	delivery := &fakeDelivery{fail: true}
	d := New(fs, delivery, nil, 5, testLogger(t))

	summary, err := d.Run(context.Background(), []ScoreUpdate{
		{Address: "0xabc", NewScore: 20, ComputedAt: time.Now()},
	})
	require.NoError(t, err)
	require.Equal(t, 1, summary.DeliveriesFailed)
	require.Equal(t, []uint64{7}, fs.failIDs)
	require.Empty(t, fs.successIDs)
}

func strPtr(v string) *string { return &v }
