// Copyright 2026 The wallettrust Authors
//
// Licensed under the GNU Lesser General Public License, version 3 or
// (at your option) any later version. See LICENSE for details.

package store

import (
	"strings"

	"github.com/jinzhu/gorm"
)

// InsertFeedbackIdempotent inserts fb, treating a duplicate on
// (tx_hash, feedback_index) as success.
func (s *Store) InsertFeedbackIdempotent(fb *Feedback) (inserted bool, err error) {
	fb.TxHash = strings.ToLower(fb.TxHash)
	fb.AgentID = strings.ToLower(fb.AgentID)
	fb.ClientAddress = strings.ToLower(fb.ClientAddress)

	var existing Feedback
	err = s.db.Where("tx_hash = ? AND feedback_index = ?", fb.TxHash, fb.FeedbackIndex).First(&existing).Error
	if err == nil {
		return false, nil
	}
	if err != gorm.ErrRecordNotFound {
		return false, err
	}

	if err := s.db.Create(fb).Error; err != nil {
		if isDuplicateKeyErr(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// FeedbackForAgent returns every feedback row addressed to agentID
// (an erc8004 identity id rendered as its decimal string, the form
// AgentIDKey produces).
func (s *Store) FeedbackForAgent(agentID string) ([]Feedback, error) {
	var rows []Feedback
	err := s.db.Where("agent_id = ?", strings.ToLower(agentID)).Find(&rows).Error
	return rows, err
}
