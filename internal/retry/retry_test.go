// Copyright 2026 The wallettrust Authors
//
// Licensed under the GNU Lesser General Public License, version 3 or
// (at your option) any later version. See LICENSE for details.

package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDoSucceedsWithoutRetry(t *testing.T) {
	calls := 0
	p := Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}
	err := p.Do(context.Background(), func(error) Outcome { return Retryable }, func() error {
		calls++
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 1, calls)
}

func TestDoRetriesThenSucceeds(t *testing.T) {
	calls := 0
	p := Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}
	err := p.Do(context.Background(), func(error) Outcome { return Retryable }, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestDoStopsAfterMaxAttempts(t *testing.T) {
	calls := 0
	p := Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}
	err := p.Do(context.Background(), func(error) Outcome { return Retryable }, func() error {
		calls++
		return errors.New("always fails")
	})
	require.Error(t, err)
	require.Equal(t, 3, calls)
}

func TestDoFatalStopsImmediately(t *testing.T) {
	calls := 0
	p := Policy{MaxAttempts: 3, BaseDelay: time.Millisecond}
	err := p.Do(context.Background(), func(error) Outcome { return Fatal }, func() error {
		calls++
		return errors.New("bad request")
	})
	require.Error(t, err)
	require.Equal(t, 1, calls)
}

func TestDoRespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{MaxAttempts: 3, BaseDelay: 50 * time.Millisecond}
	calls := 0
	cancel()
	err := p.Do(ctx, func(error) Outcome { return Retryable }, func() error {
		calls++
		return errors.New("transient")
	})
	require.Error(t, err)
	require.Equal(t, 1, calls)
}
