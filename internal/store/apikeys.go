// Copyright 2026 The wallettrust Authors
//
// Licensed under the GNU Lesser General Public License, version 3 or
// (at your option) any later version. See LICENSE for details.

package store

import (
	"time"

	"github.com/jinzhu/gorm"
)

// CreateAPIKey registers a new key.
func (s *Store) CreateAPIKey(k *APIKey) error {
	return s.db.Create(k).Error
}

// GetAPIKeyByHash looks up a key by its stored hash, or
// gorm.ErrRecordNotFound.
func (s *Store) GetAPIKeyByHash(hash string) (*APIKey, error) {
	var k APIKey
	if err := s.db.Where("key_hash = ?", hash).First(&k).Error; err != nil {
		return nil, err
	}
	return &k, nil
}

// IncrementUsage bumps today's request count for keyID and returns the
// new total, upserting the (key_id, date) row.
func (s *Store) IncrementUsage(keyID uint64, day time.Time) (int, error) {
	date := day.UTC().Format("2006-01-02")

	var usage APIUsage
	err := s.db.Where("key_id = ? AND date = ?", keyID, date).First(&usage).Error
	if err == gorm.ErrRecordNotFound {
		usage = APIUsage{KeyID: keyID, Date: date, RequestCount: 1}
		if err := s.db.Create(&usage).Error; err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err != nil {
		return 0, err
	}

	if err := s.db.Model(&APIUsage{}).Where("id = ?", usage.ID).
		Update("request_count", gorm.Expr("request_count + 1")).Error; err != nil {
		return 0, err
	}
	return usage.RequestCount + 1, nil
}
