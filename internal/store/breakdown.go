// Copyright 2026 The wallettrust Authors
//
// Licensed under the GNU Lesser General Public License, version 3 or
// (at your option) any later version. See LICENSE for details.

package store

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// BreakdownKeys is the exact, fixed key set the breakdown contract
// requires — nothing more, nothing less.
var BreakdownKeys = []string{
	"loyalty", "activity", "diversity", "feedback", "volume", "age", "recency", "registered_bonus",
}

// EncodeBreakdown serializes a per-signal score map to the JSON form
// persisted in wallets.score_breakdown and score_history.breakdown.
func EncodeBreakdown(breakdown map[string]int) (string, error) {
	b, err := json.Marshal(breakdown)
	if err != nil {
		return "", errors.Wrap(err, "encoding score breakdown")
	}
	return string(b), nil
}

// DecodeBreakdown is the inverse of EncodeBreakdown. An empty string
// decodes to an empty, non-nil map.
func DecodeBreakdown(raw string) (map[string]int, error) {
	if raw == "" {
		return map[string]int{}, nil
	}
	var m map[string]int
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, errors.Wrap(err, "decoding score breakdown")
	}
	return m, nil
}
