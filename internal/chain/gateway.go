// Copyright 2026 The wallettrust Authors
//
// Licensed under the GNU Lesser General Public License, version 3 or
// (at your option) any later version. See LICENSE for details.

// Package chain is a thin, typed adapter over one EVM chain's JSON-RPC
// endpoint. Every call is recorded with the Budget Governor before the
// network round-trip, and retried per the exponential-backoff
// discipline on the transient error classes named in the spec.
package chain

import (
	"context"
	"errors"
	"math/big"
	"net"
	"strings"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/wallettrust/core/internal/retry"
)

// Recorder is the subset of the Budget Governor the Gateway needs.
type Recorder interface {
	Record(method string, n int)
	ShouldStop() bool
}

// Gateway is the interface the Event Indexer depends on. GetLogs is
// deliberately the only bulk operation — the spec's 10-block batch
// ceiling is enforced by the Indexer, not the Gateway.
type Gateway interface {
	GetHead(ctx context.Context) (uint64, error)
	GetLogs(ctx context.Context, address common.Address, topics [][]common.Hash, from, to uint64) ([]LogRecord, error)
	GetReceipt(ctx context.Context, txHash common.Hash) (*Receipt, error)
	GetTransaction(ctx context.Context, txHash common.Hash) (*TxEnvelope, error)
}

// ethGateway is the production Gateway, backed by go-ethereum's
// ethclient against a single chain's JSON-RPC endpoint.
type ethGateway struct {
	client   *ethclient.Client
	governor Recorder
	policy   retry.Policy
}

// NewGateway dials rpcURL and returns a Gateway tracked by governor.
func NewGateway(ctx context.Context, rpcURL string, governor Recorder) (Gateway, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, err
	}
	return &ethGateway{client: client, governor: governor, policy: retry.Default}, nil
}

func (g *ethGateway) GetHead(ctx context.Context) (uint64, error) {
	if g.governor.ShouldStop() {
		return 0, ErrBudgetStopped
	}
	g.governor.Record("eth_blockNumber", 1)

	var head uint64
	err := g.policy.Do(ctx, classify, func() error {
		n, err := g.client.BlockNumber(ctx)
		if err != nil {
			return err
		}
		head = n
		return nil
	})
	return head, err
}

func (g *ethGateway) GetLogs(ctx context.Context, address common.Address, topics [][]common.Hash, from, to uint64) ([]LogRecord, error) {
	if g.governor.ShouldStop() {
		return nil, ErrBudgetStopped
	}
	g.governor.Record("eth_getLogs", 1)

	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: []common.Address{address},
		Topics:    topics,
	}

	var logs []types.Log
	err := g.policy.Do(ctx, classify, func() error {
		l, err := g.client.FilterLogs(ctx, query)
		if err != nil {
			return err
		}
		logs = l
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]LogRecord, 0, len(logs))
	for _, l := range logs {
		out = append(out, LogRecord{
			Address:     l.Address,
			Topics:      l.Topics,
			Data:        l.Data,
			BlockNumber: l.BlockNumber,
			BlockHash:   l.BlockHash,
			TxHash:      l.TxHash,
			LogIndex:    l.Index,
			Removed:     l.Removed,
		})
	}
	return out, nil
}

func (g *ethGateway) GetReceipt(ctx context.Context, txHash common.Hash) (*Receipt, error) {
	if g.governor.ShouldStop() {
		return nil, ErrBudgetStopped
	}
	g.governor.Record("eth_getTransactionReceipt", 1)

	var receipt *types.Receipt
	err := g.policy.Do(ctx, classify, func() error {
		r, err := g.client.TransactionReceipt(ctx, txHash)
		if err != nil {
			return err
		}
		receipt = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	logs := make([]LogRecord, 0, len(receipt.Logs))
	for _, l := range receipt.Logs {
		logs = append(logs, LogRecord{
			Address:     l.Address,
			Topics:      l.Topics,
			Data:        l.Data,
			BlockNumber: l.BlockNumber,
			BlockHash:   l.BlockHash,
			TxHash:      l.TxHash,
			LogIndex:    l.Index,
			Removed:     l.Removed,
		})
	}
	return &Receipt{TxHash: receipt.TxHash, Status: receipt.Status, Logs: logs}, nil
}

func (g *ethGateway) GetTransaction(ctx context.Context, txHash common.Hash) (*TxEnvelope, error) {
	if g.governor.ShouldStop() {
		return nil, ErrBudgetStopped
	}
	g.governor.Record("eth_getTransactionByHash", 1)

	var tx *types.Transaction
	err := g.policy.Do(ctx, classify, func() error {
		t, isPending, err := g.client.TransactionByHash(ctx, txHash)
		if err != nil {
			return err
		}
		if isPending {
			return retryablePendingErr
		}
		tx = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	from, err := senderOf(tx)
	if err != nil {
		return nil, err
	}

	return &TxEnvelope{Hash: tx.Hash(), From: from, To: tx.To()}, nil
}

// senderOf recovers the EOA that signed tx using the signature itself,
// so no chain-ID round trip or external signer state is required.
func senderOf(tx *types.Transaction) (common.Address, error) {
	signer := types.LatestSignerForChainID(tx.ChainId())
	return types.Sender(signer, tx)
}

var (
	// ErrBudgetStopped is returned by every Gateway call once the
	// Governor's terminal flag is set, so a scanner mid-batch observes
	// it as an ordinary error rather than needing to poll separately.
	ErrBudgetStopped    = errors.New("budget governor: monthly stop threshold reached")
	retryablePendingErr = errors.New("transaction still pending")
)

// classify maps a raw client error onto a retry.Outcome using the
// transient classes named in the spec: HTTP 429, 502/503, connection
// timeout, connection reset, and other socket-level errors. Anything
// else (bad request, decoding failure, 4xx non-429) fails fast.
func classify(err error) retry.Outcome {
	if err == nil {
		return retry.Ok
	}
	if errors.Is(err, retryablePendingErr) {
		return retry.Retryable
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return retry.Retryable
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "429"),
		strings.Contains(msg, "too many requests"),
		strings.Contains(msg, "502"),
		strings.Contains(msg, "503"),
		strings.Contains(msg, "bad gateway"),
		strings.Contains(msg, "service unavailable"),
		strings.Contains(msg, "connection reset"),
		strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "timeout"),
		strings.Contains(msg, "eof"),
		strings.Contains(msg, "i/o timeout"):
		return retry.Retryable
	default:
		return retry.Fatal
	}
}
