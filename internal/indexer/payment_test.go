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
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/wallettrust/core/internal/chain"
	"github.com/wallettrust/core/internal/store"
)

type fakeTxInserter struct {
	rows []*store.Transaction
}

func (f *fakeTxInserter) InsertTransactionIdempotent(tx *store.Transaction) (bool, error) {
	f.rows = append(f.rows, tx)
	return true, nil
}

type fakePaymentGateway struct {
	receipt  *chain.Receipt
	envelope *chain.TxEnvelope
}

func (g *fakePaymentGateway) GetHead(ctx context.Context) (uint64, error) { return 0, nil }
func (g *fakePaymentGateway) GetLogs(ctx context.Context, address common.Address, topics [][]common.Hash, from, to uint64) ([]chain.LogRecord, error) {
	return nil, nil
}
func (g *fakePaymentGateway) GetReceipt(ctx context.Context, txHash common.Hash) (*chain.Receipt, error) {
	return g.receipt, nil
}
func (g *fakePaymentGateway) GetTransaction(ctx context.Context, txHash common.Hash) (*chain.TxEnvelope, error) {
	return g.envelope, nil
}

func usdcTransferLog(usdc, payer, recipient common.Address, amount *big.Int) chain.LogRecord {
	data := make([]byte, 32)
	amount.FillBytes(data)
	return chain.LogRecord{
		Address: usdc,
		Topics: []common.Hash{
			chain.TransferTopic,
			common.BytesToHash(payer.Bytes()),
			common.BytesToHash(recipient.Bytes()),
		},
		Data: data,
	}
}

func TestPaymentHandlerPairsAuthorizerWithTransfer(t *testing.T) {
	usdc := common.HexToAddress("0x00000000000000000000000000000000005ce6")
	payer := common.HexToAddress("0x000000000000000000000000000000000000a1")
	recipient := common.HexToAddress("0x000000000000000000000000000000000000b2")
	authorizer := common.HexToAddress("0x000000000000000000000000000000000000c3")
	facilitator := common.HexToAddress("0x000000000000000000000000000000000000f4")

	txHash := common.HexToHash("0xabc")
	transferLog := usdcTransferLog(usdc, payer, recipient, big.NewInt(2_000_000))

	gw := &fakePaymentGateway{
		receipt:  &chain.Receipt{TxHash: txHash, Logs: []chain.LogRecord{transferLog}},
		envelope: &chain.TxEnvelope{Hash: txHash, From: facilitator},
	}
	txs := &fakeTxInserter{}
	wallets := &fakeWalletUpserter{}

	h := &PaymentHandler{
		Chain:             "ethereum",
		USDCContract:      usdc,
		KnownFacilitators: map[string]bool{strings.ToLower(facilitator.Hex()): true},
		Gateway:           gw,
		Txs:               txs,
		Wallets:           wallets,
		Log:               testLog(t),
		NowFn:             func() time.Time { return time.Date(2026, 7, 30, 0, 0, 0, 0, time.UTC) },
	}

	authLog := chain.LogRecord{
		TxHash: txHash,
		Topics: []common.Hash{
			chain.AuthorizationUsedTopic,
			common.BytesToHash(authorizer.Bytes()),
			common.HexToHash("0x01"),
		},
	}

	found, err := h.DecodeAndPersist(context.Background(), []chain.LogRecord{authLog})
	require.NoError(t, err)
	require.Equal(t, 1, found)
	require.Len(t, txs.rows, 1)

	tx := txs.rows[0]
	require.Equal(t, strings.ToLower(authorizer.Hex()), *tx.Authorizer)
	require.Equal(t, strings.ToLower(payer.Hex()), *tx.Payer)
	require.Equal(t, strings.ToLower(recipient.Hex()), *tx.Recipient)
	require.True(t, tx.IsX402)
	require.Equal(t, "2000000", tx.AmountRaw)
	require.Len(t, wallets.observations, 2)
}

func TestPaymentHandlerRecordsPayerNamedByAuthorizationEvent(t *testing.T) {
	usdc := common.HexToAddress("0x00000000000000000000000000000000005ce6")
	payer := common.HexToAddress("0x000000000000000000000000000000000000a1")
	recipient := common.HexToAddress("0x000000000000000000000000000000000000b2")

	txHash := common.HexToHash("0xdef")
	transferLog := usdcTransferLog(usdc, payer, recipient, big.NewInt(1_000_000))

	gw := &fakePaymentGateway{
		receipt:  &chain.Receipt{TxHash: txHash, Logs: []chain.LogRecord{transferLog}},
		envelope: &chain.TxEnvelope{Hash: txHash, From: payer},
	}
	txs := &fakeTxInserter{}
	wallets := &fakeWalletUpserter{}

	h := &PaymentHandler{
		Chain:        "ethereum",
		USDCContract: usdc,
		Gateway:      gw,
		Txs:          txs,
		Wallets:      wallets,
		Log:          testLog(t),
	}

	// The handler only processes receipts for tx hashes it saw an
	// AuthorizationUsed event for, so the event here names the payer
	// itself as authorizer, and no known facilitator is configured.
	authLog := chain.LogRecord{
		TxHash: txHash,
		Topics: []common.Hash{
			chain.AuthorizationUsedTopic,
			common.BytesToHash(payer.Bytes()),
			common.HexToHash("0x01"),
		},
	}

	found, err := h.DecodeAndPersist(context.Background(), []chain.LogRecord{authLog})
	require.NoError(t, err)
	require.Equal(t, 1, found)
	require.Equal(t, strings.ToLower(payer.Hex()), *txs.rows[0].Authorizer)
	require.False(t, txs.rows[0].IsX402)
}
