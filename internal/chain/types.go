// Copyright 2026 The wallettrust Authors
//
// Licensed under the GNU Lesser General Public License, version 3 or
// (at your option) any later version. See LICENSE for details.

package chain

import "github.com/ethereum/go-ethereum/common"

// LogRecord is the Gateway's typed view of one EVM log entry — the
// subset the Event Indexer needs, independent of go-ethereum's wire
// representation.
type LogRecord struct {
	Address     common.Address
	Topics      []common.Hash
	Data        []byte
	BlockNumber uint64
	BlockHash   common.Hash
	TxHash      common.Hash
	LogIndex    uint
	Removed     bool
}

// Receipt is the typed view of a transaction receipt.
type Receipt struct {
	TxHash common.Hash
	Status uint64
	Logs   []LogRecord
}

// TxEnvelope is the typed view of a transaction: who sent it and who
// (if anyone) it was addressed to.
type TxEnvelope struct {
	Hash common.Hash
	From common.Address
	To   *common.Address
}
