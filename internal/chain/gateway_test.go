// Copyright 2026 The wallettrust Authors
//
// Licensed under the GNU Lesser General Public License, version 3 or
// (at your option) any later version. See LICENSE for details.

package chain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wallettrust/core/internal/retry"
)

func TestClassifyRetryableClasses(t *testing.T) {
	cases := []string{
		"429 Too Many Requests",
		"502 Bad Gateway",
		"503 Service Unavailable",
		"read tcp: connection reset by peer",
		"dial tcp: i/o timeout",
		"unexpected EOF",
	}
	for _, msg := range cases {
		require.Equal(t, retry.Retryable, classify(errors.New(msg)), msg)
	}
}

func TestClassifyFatalClasses(t *testing.T) {
	cases := []string{
		"400 bad request",
		"invalid argument",
		"abi: cannot unmarshal",
	}
	for _, msg := range cases {
		require.Equal(t, retry.Fatal, classify(errors.New(msg)), msg)
	}
}

func TestClassifyNilIsOk(t *testing.T) {
	require.Equal(t, retry.Ok, classify(nil))
}
