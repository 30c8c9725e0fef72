// Copyright 2026 The wallettrust Authors
//
// Licensed under the GNU Lesser General Public License, version 3 or
// (at your option) any later version. See LICENSE for details.

package store

import (
	"time"

	"github.com/jinzhu/gorm"
)

// GetCursor returns the cursor for scannerID, or nil if none exists
// yet (the scanner should fall back to its configured genesis block).
func (s *Store) GetCursor(scannerID string) (*ScannerCursor, error) {
	var c ScannerCursor
	err := s.db.Where("scanner_id = ?", scannerID).First(&c).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// AdvanceCursor upserts scannerID's cursor to batchEnd. This is called
// once per successfully committed batch regardless of whether any
// events were found in it, so the cursor advances monotonically.
func (s *Store) AdvanceCursor(scannerID string, batchEnd uint64) error {
	now := time.Now().UTC()
	return s.db.Exec(
		`INSERT INTO indexer_state (scanner_id, last_block, updated_at)
		 VALUES (?, ?, ?)
		 ON DUPLICATE KEY UPDATE last_block = GREATEST(last_block, VALUES(last_block)), updated_at = VALUES(updated_at)`,
		scannerID, batchEnd, now,
	).Error
}
