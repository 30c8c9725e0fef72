// Copyright 2026 The wallettrust Authors
//
// Licensed under the GNU Lesser General Public License, version 3 or
// (at your option) any later version. See LICENSE for details.

package indexer

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/wallettrust/core/internal/chain"
	"github.com/wallettrust/core/internal/store"
)

// usdcDecimals is the known constant from the spec: USDC is always
// 6 decimals.
const usdcDecimals = 6

// TransactionInserter is the subset of *store.Store the payment
// handler needs for transaction persistence.
type TransactionInserter interface {
	InsertTransactionIdempotent(tx *store.Transaction) (inserted bool, err error)
}

// PaymentHandler decodes AuthorizationUsed events on a chain's USDC
// contract. For every distinct transaction hash in the batch it fetches
// the receipt and envelope once, pulls every USDC Transfer out of the
// receipt's logs, and records one Transaction row plus both wallets per
// transfer.
type PaymentHandler struct {
	Chain             string
	USDCContract      common.Address
	KnownFacilitators map[string]bool

	Gateway chain.Gateway
	Txs     TransactionInserter
	Wallets WalletUpserter
	Log     *zap.SugaredLogger
	NowFn   func() time.Time
}

func (h *PaymentHandler) now() time.Time {
	if h.NowFn != nil {
		return h.NowFn()
	}
	return time.Now().UTC()
}

// DecodeAndPersist implements SourceHandler.
func (h *PaymentHandler) DecodeAndPersist(ctx context.Context, logs []chain.LogRecord) (int, error) {
	authorizers := map[common.Hash]common.Address{}
	txHashes := make([]common.Hash, 0, len(logs))
	seen := map[common.Hash]bool{}

	for _, l := range logs {
		if l.Removed {
			continue
		}
		if len(l.Topics) != 3 || l.Topics[0] != chain.AuthorizationUsedTopic {
			continue
		}
		if !seen[l.TxHash] {
			seen[l.TxHash] = true
			txHashes = append(txHashes, l.TxHash)
			authorizers[l.TxHash] = common.HexToAddress(l.Topics[1].Hex())
		}
	}

	seenAt := h.now()
	found := 0

	for _, txHash := range txHashes {
		receipt, err := h.Gateway.GetReceipt(ctx, txHash)
		if err != nil {
			return found, err
		}
		envelope, err := h.Gateway.GetTransaction(ctx, txHash)
		if err != nil {
			return found, err
		}

		for _, l := range receipt.Logs {
			if l.Removed {
				continue
			}
			if len(l.Topics) != 3 || l.Topics[0] != chain.TransferTopic {
				continue
			}
			if l.Address != h.USDCContract {
				continue
			}

			n, err := h.persistTransfer(txHash, l, envelope, authorizers, seenAt)
			if err != nil {
				h.Log.Warnw("skipping malformed usdc transfer", "tx_hash", txHash.Hex(), "error", err)
				continue
			}
			found += n
		}
	}

	return found, nil
}

func (h *PaymentHandler) persistTransfer(
	txHash common.Hash,
	l chain.LogRecord,
	envelope *chain.TxEnvelope,
	authorizers map[common.Hash]common.Address,
	seenAt time.Time,
) (int, error) {
	if len(l.Topics) != 3 || len(l.Data) < 32 {
		return 0, errMalformedTransfer
	}

	payer := common.HexToAddress(l.Topics[1].Hex())
	recipient := common.HexToAddress(l.Topics[2].Hex())
	amountRaw := new(big.Int).SetBytes(l.Data[len(l.Data)-32:])
	amountUSDC := store.MoneyFromRawUnits(amountRaw, usdcDecimals)

	facilitator := envelope.From
	isX402 := h.KnownFacilitators[strings.ToLower(facilitator.Hex())]

	// "first-match then fall back to payer": prefer the authorizer
	// paired to this transaction hash by AuthorizationUsed; if this
	// transaction carried no such event, the payer is the authorizer.
	authorizer := payer
	if a, ok := authorizers[txHash]; ok {
		authorizer = a
	}

	payerStr := strings.ToLower(payer.Hex())
	recipientStr := strings.ToLower(recipient.Hex())
	authorizerStr := strings.ToLower(authorizer.Hex())

	tx := &store.Transaction{
		TxHash:         strings.ToLower(txHash.Hex()),
		Chain:          h.Chain,
		BlockNumber:    l.BlockNumber,
		Authorizer:     &authorizerStr,
		Payer:          &payerStr,
		Recipient:      &recipientStr,
		AmountRaw:      amountRaw.String(),
		AmountUSDC:     amountUSDC,
		Facilitator:    strings.ToLower(facilitator.Hex()),
		IsX402:         isX402,
	}

	inserted, err := h.Txs.InsertTransactionIdempotent(tx)
	if err != nil {
		return 0, err
	}
	if !inserted {
		return 0, nil
	}

	for _, obs := range []store.WalletObservation{
		{Address: payerStr, Source: store.SourceX402, Chain: h.Chain, SeenAt: seenAt, BumpTxCount: true},
		{Address: recipientStr, Source: store.SourceX402, Chain: h.Chain, SeenAt: seenAt, BumpTxCount: true},
	} {
		if err := h.Wallets.UpsertWallet(obs); err != nil {
			h.Log.Errorw("failed to upsert payment wallet, skipping", "address", obs.Address, "error", err)
		}
	}

	return 1, nil
}

var errMalformedTransfer = errors.New("malformed usdc transfer log")
