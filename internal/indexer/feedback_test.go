// Copyright 2026 The wallettrust Authors
//
// Licensed under the GNU Lesser General Public License, version 3 or
// (at your option) any later version. See LICENSE for details.

package indexer

import (
	"context"
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/wallettrust/core/internal/chain"
	"github.com/wallettrust/core/internal/store"
)

type fakeFeedbackInserter struct {
	rows       []*store.Feedback
	insertedOk bool
}

func (f *fakeFeedbackInserter) InsertFeedbackIdempotent(fb *store.Feedback) (bool, error) {
	f.rows = append(f.rows, fb)
	return true, nil
}

func packNewFeedbackData(t *testing.T, feedbackIndex uint64, value *big.Int, valueDecimals uint8, tag1, tag2 [32]byte, endpoint, feedbackURI string, contentHash [32]byte) []byte {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(reputationABIJSON))
	require.NoError(t, err)
	event := parsed.Events["NewFeedback"]
	packed, err := event.Inputs.NonIndexed().Pack(feedbackIndex, value, valueDecimals, tag1, tag2, endpoint, feedbackURI, contentHash)
	require.NoError(t, err)
	return packed
}

func TestFeedbackHandlerDecodesAndInserts(t *testing.T) {
	inserter := &fakeFeedbackInserter{}
	h := &FeedbackHandler{Store: inserter, Log: testLog(t)}

	client := common.HexToAddress("0x00000000000000000000000000000000000abc")
	agentID := big.NewInt(42)

	var tag1, tag2, contentHash [32]byte
	copy(tag1[:], "quality")
	copy(tag2[:], "speed")
	copy(contentHash[:], "hash-of-review-body")

	data := packNewFeedbackData(t, 3, big.NewInt(450000), 6, tag1, tag2, "https://agent.example/endpoint", "ipfs://feedback-uri", contentHash)

	log := chain.LogRecord{
		Topics: []common.Hash{
			chain.NewFeedbackTopic,
			common.BigToHash(agentID),
			common.BytesToHash(client.Bytes()),
		},
		Data:        data,
		TxHash:      common.HexToHash("0x01"),
		BlockNumber: 100,
	}

	found, err := h.DecodeAndPersist(context.Background(), []chain.LogRecord{log})
	require.NoError(t, err)
	require.Equal(t, 1, found)
	require.Len(t, inserter.rows, 1)

	fb := inserter.rows[0]
	require.Equal(t, "42", fb.AgentID)
	require.Equal(t, 3, fb.FeedbackIndex)
	require.Equal(t, "450000", fb.ValueRaw)
	require.Equal(t, 6, fb.ValueDecimals)
	require.InDelta(t, 0.45, fb.ValueNormalized, 1e-9)
	require.Equal(t, "quality", *fb.Tag1)
	require.Equal(t, "speed", *fb.Tag2)
	require.Equal(t, "https://agent.example/endpoint", *fb.Endpoint)
	require.Equal(t, "ipfs://feedback-uri", *fb.FeedbackURI)
}

func TestFeedbackHandlerSkipsWrongTopicCount(t *testing.T) {
	inserter := &fakeFeedbackInserter{}
	h := &FeedbackHandler{Store: inserter, Log: testLog(t)}

	log := chain.LogRecord{Topics: []common.Hash{chain.NewFeedbackTopic}}
	found, err := h.DecodeAndPersist(context.Background(), []chain.LogRecord{log})
	require.NoError(t, err)
	require.Equal(t, 0, found)
	require.Empty(t, inserter.rows)
}
