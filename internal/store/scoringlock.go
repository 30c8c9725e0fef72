// Copyright 2026 The wallettrust Authors
//
// Licensed under the GNU Lesser General Public License, version 3 or
// (at your option) any later version. See LICENSE for details.

package store

import "github.com/jinzhu/gorm"

// WithScoringLock runs fn while holding an exclusive row lock on the
// sentinel scoring_locks row, enforcing the spec's single-writer
// discipline for the Scoring Engine. If a concurrent run holds the
// lock, this call waits until that run's transaction ends and then
// proceeds. held reports false, and fn is not invoked, only when the
// sentinel row does not exist — an operational no-op, not an error.
func (s *Store) WithScoringLock(fn func() error) (held bool, err error) {
	tx := s.db.Begin()
	if tx.Error != nil {
		return false, tx.Error
	}

	var lock ScoringLock
	// NOWAIT would be ideal but jinzhu/gorm's raw dialect support
	// varies by driver; a plain FOR UPDATE blocks briefly under
	// contention which is acceptable since scoring runs are
	// infrequent batch jobs, not a request path.
	lockErr := tx.Set("gorm:query_option", "FOR UPDATE").
		Where("id = ?", 1).First(&lock).Error
	if lockErr != nil {
		tx.Rollback()
		if lockErr == gorm.ErrRecordNotFound {
			return false, nil
		}
		return false, lockErr
	}

	if err := fn(); err != nil {
		tx.Rollback()
		return true, err
	}

	if err := tx.Commit().Error; err != nil {
		return true, err
	}
	return true, nil
}
