// Copyright 2026 The wallettrust Authors
//
// Licensed under the GNU Lesser General Public License, version 3 or
// (at your option) any later version. See LICENSE for details.

package store

import (
	"strings"

	"github.com/jinzhu/gorm"
)

// InsertTransactionIdempotent inserts tx, treating a duplicate key
// violation on (tx_hash, chain) as success — a per-row failure mode
// callers should not retry or abort the batch over.
func (s *Store) InsertTransactionIdempotent(tx *Transaction) (inserted bool, err error) {
	tx.TxHash = strings.ToLower(tx.TxHash)
	if tx.Authorizer != nil {
		lower := strings.ToLower(*tx.Authorizer)
		tx.Authorizer = &lower
	}
	if tx.Payer != nil {
		lower := strings.ToLower(*tx.Payer)
		tx.Payer = &lower
	}
	if tx.Recipient != nil {
		lower := strings.ToLower(*tx.Recipient)
		tx.Recipient = &lower
	}
	tx.Facilitator = strings.ToLower(tx.Facilitator)

	var existing Transaction
	err = s.db.Where("tx_hash = ? AND chain = ?", tx.TxHash, tx.Chain).First(&existing).Error
	if err == nil {
		return false, nil
	}
	if err != gorm.ErrRecordNotFound {
		return false, err
	}

	if err := s.db.Create(tx).Error; err != nil {
		// A concurrent insert of the same unique key races the prior
		// lookup; treat it the same as "already present".
		if isDuplicateKeyErr(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// TransactionsInvolving returns every transaction where address
// appears as payer or recipient. It is a per-wallet lookup; the
// aggregator does not use it and issues set-oriented SQL instead.
func (s *Store) TransactionsInvolving(address string) ([]Transaction, error) {
	address = strings.ToLower(address)
	var txs []Transaction
	err := s.db.Where("payer = ? OR recipient = ?", address, address).Find(&txs).Error
	return txs, err
}

func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint") || strings.Contains(msg, "1062")
}
