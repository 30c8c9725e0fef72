// Copyright 2026 The wallettrust Authors
//
// Licensed under the GNU Lesser General Public License, version 3 or
// (at your option) any later version. See LICENSE for details.

package indexer

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/wallettrust/core/internal/chain"
	"github.com/wallettrust/core/internal/store"
)

// WalletUpserter is the subset of *store.Store the identity and
// payment handlers need.
type WalletUpserter interface {
	UpsertWallet(obs store.WalletObservation) error
}

// IdentityHandler decodes Transfer events emitted by an identity
// registry where from = the zero address (a mint), each one assigning
// an erc8004 identity token id to a wallet.
type IdentityHandler struct {
	Chain  string
	Store  WalletUpserter
	Log    *zap.SugaredLogger
	NowFn  func() time.Time
}

func (h *IdentityHandler) now() time.Time {
	if h.NowFn != nil {
		return h.NowFn()
	}
	return time.Now().UTC()
}

// DecodeAndPersist implements SourceHandler. Transfer(address indexed
// from, address indexed to, uint256 indexed tokenId): a mint has
// topics[1] == zero address; topics[2] is the new owner; topics[3] is
// the token id.
func (h *IdentityHandler) DecodeAndPersist(ctx context.Context, logs []chain.LogRecord) (int, error) {
	observations := make([]store.WalletObservation, 0, len(logs))
	seenAt := h.now()

	for _, l := range logs {
		if l.Removed {
			continue
		}
		if len(l.Topics) != 4 || l.Topics[0] != chain.TransferTopic {
			h.Log.Warnw("skipping malformed identity transfer log", "tx_hash", l.TxHash.Hex())
			continue
		}
		from := common.HexToAddress(l.Topics[1].Hex())
		if from != chain.ZeroAddress {
			continue
		}
		to := common.HexToAddress(l.Topics[2].Hex())
		tokenID := new(big.Int).SetBytes(l.Topics[3].Bytes()).Int64()

		observations = append(observations, store.WalletObservation{
			Address:   to.Hex(),
			Source:    store.SourceERC8004,
			Chain:     h.Chain,
			Erc8004ID: &tokenID,
			SeenAt:    seenAt,
		})
	}

	deduped := store.DedupeObservations(observations)
	found := 0
	for _, obs := range deduped {
		if err := h.Store.UpsertWallet(obs); err != nil {
			h.Log.Errorw("failed to upsert identity wallet, skipping", "address", obs.Address, "error", err)
			continue
		}
		found++
	}
	return found, nil
}
