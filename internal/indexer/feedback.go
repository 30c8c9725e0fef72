// Copyright 2026 The wallettrust Authors
//
// Licensed under the GNU Lesser General Public License, version 3 or
// (at your option) any later version. See LICENSE for details.

package indexer

import (
	"context"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/wallettrust/core/internal/chain"
	"github.com/wallettrust/core/internal/store"
)

// reputationABIJSON is the minimal ABI fragment for NewFeedback,
// declared inline rather than loaded from a build artifact, matching
// the corpus's convention for events it only ever consumes. agentId
// and client are indexed (carried in topics); the rest rides in data.
const reputationABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true,  "name": "agentId",       "type": "uint256"},
      {"indexed": true,  "name": "client",         "type": "address"},
      {"indexed": false, "name": "feedbackIndex",  "type": "uint64"},
      {"indexed": false, "name": "value",          "type": "uint256"},
      {"indexed": false, "name": "valueDecimals",  "type": "uint8"},
      {"indexed": false, "name": "tag1",           "type": "bytes32"},
      {"indexed": false, "name": "tag2",           "type": "bytes32"},
      {"indexed": false, "name": "endpoint",       "type": "string"},
      {"indexed": false, "name": "feedbackURI",    "type": "string"},
      {"indexed": false, "name": "contentHash",    "type": "bytes32"}
    ],
    "name": "NewFeedback",
    "type": "event"
  }
]`

// FeedbackInserter is the subset of *store.Store the feedback handler
// needs.
type FeedbackInserter interface {
	InsertFeedbackIdempotent(fb *store.Feedback) (inserted bool, err error)
}

// FeedbackHandler decodes NewFeedback events on the reputation
// registry. No wallet mutation happens here — feedback joins to
// wallets by erc8004_id at aggregation time.
type FeedbackHandler struct {
	Store FeedbackInserter
	Log   *zap.SugaredLogger

	parsed *abi.ABI
}

func (h *FeedbackHandler) abi() (*abi.ABI, error) {
	if h.parsed != nil {
		return h.parsed, nil
	}
	parsed, err := abi.JSON(strings.NewReader(reputationABIJSON))
	if err != nil {
		return nil, err
	}
	h.parsed = &parsed
	return h.parsed, nil
}

// DecodeAndPersist implements SourceHandler.
func (h *FeedbackHandler) DecodeAndPersist(ctx context.Context, logs []chain.LogRecord) (int, error) {
	parsed, err := h.abi()
	if err != nil {
		return 0, err
	}

	found := 0
	for _, l := range logs {
		if l.Removed {
			continue
		}
		if len(l.Topics) != 3 || l.Topics[0] != chain.NewFeedbackTopic {
			h.Log.Warnw("skipping malformed feedback log", "tx_hash", l.TxHash.Hex())
			continue
		}

		fields := map[string]interface{}{}
		if err := parsed.UnpackIntoMap(fields, "NewFeedback", l.Data); err != nil {
			h.Log.Warnw("skipping undecodable feedback payload", "tx_hash", l.TxHash.Hex(), "error", err)
			continue
		}

		fb, err := feedbackFromLog(l, fields)
		if err != nil {
			h.Log.Warnw("skipping malformed feedback payload", "tx_hash", l.TxHash.Hex(), "error", err)
			continue
		}

		inserted, err := h.Store.InsertFeedbackIdempotent(fb)
		if err != nil {
			h.Log.Errorw("failed to insert feedback, skipping", "tx_hash", fb.TxHash, "error", err)
			continue
		}
		if inserted {
			found++
		}
	}
	return found, nil
}

func feedbackFromLog(l chain.LogRecord, fields map[string]interface{}) (*store.Feedback, error) {
	agentID := new(big.Int).SetBytes(l.Topics[1].Bytes()).String()
	client := common.HexToAddress(l.Topics[2].Hex())

	feedbackIndex := int(fields["feedbackIndex"].(uint64))
	value := fields["value"].(*big.Int)
	valueDecimals := int(fields["valueDecimals"].(uint8))
	tag1 := bytes32ToString(fields["tag1"].([32]byte))
	tag2 := bytes32ToString(fields["tag2"].([32]byte))
	endpoint := fields["endpoint"].(string)
	feedbackURI := fields["feedbackURI"].(string)
	contentHash := "0x" + common.Bytes2Hex(fields["contentHash"].([32]byte)[:])

	normalized := store.MoneyFromRawUnits(value, valueDecimals).Float64()

	fb := &store.Feedback{
		TxHash:          strings.ToLower(l.TxHash.Hex()),
		FeedbackIndex:   feedbackIndex,
		AgentID:         agentID,
		ClientAddress:   strings.ToLower(client.Hex()),
		ValueRaw:        value.String(),
		ValueDecimals:   valueDecimals,
		ValueNormalized: normalized,
		ContentHash:     contentHash,
		BlockNumber:     l.BlockNumber,
		Source:          store.FeedbackSourceChain,
	}
	if tag1 != "" {
		fb.Tag1 = &tag1
	}
	if tag2 != "" {
		fb.Tag2 = &tag2
	}
	if endpoint != "" {
		fb.Endpoint = &endpoint
	}
	if feedbackURI != "" {
		fb.FeedbackURI = &feedbackURI
	}
	return fb, nil
}

// bytes32ToString renders a fixed bytes32 tag as a trimmed UTF-8
// string, the convention short string tags are packed with on-chain.
func bytes32ToString(b [32]byte) string {
	end := len(b)
	for end > 0 && b[end-1] == 0 {
		end--
	}
	return string(b[:end])
}
