// Copyright 2026 The wallettrust Authors
//
// Licensed under the GNU Lesser General Public License, version 3 or
// (at your option) any later version. See LICENSE for details.

package indexer

import "github.com/wallettrust/core/internal/store"

// storeCursors adapts *store.Store's ScannerCursor row into the narrow
// CursorStore shape the Scanner depends on.
type storeCursors struct {
	s *store.Store
}

// NewCursorStore wraps s for use as a Scanner's CursorStore.
func NewCursorStore(s *store.Store) CursorStore {
	return storeCursors{s: s}
}

func (c storeCursors) GetCursor(scannerID string) (uint64, bool, error) {
	cursor, err := c.s.GetCursor(scannerID)
	if err != nil {
		return 0, false, err
	}
	if cursor == nil {
		return 0, false, nil
	}
	return cursor.LastBlock, true, nil
}

func (c storeCursors) AdvanceCursor(scannerID string, batchEnd uint64) error {
	return c.s.AdvanceCursor(scannerID, batchEnd)
}
