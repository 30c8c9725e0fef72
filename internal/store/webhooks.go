// Copyright 2026 The wallettrust Authors
//
// Licensed under the GNU Lesser General Public License, version 3 or
// (at your option) any later version. See LICENSE for details.

package store

import "strings"

// ActiveWebhooks returns every webhook that is not disabled, for the
// Dispatcher's per-delta matching pass.
func (s *Store) ActiveWebhooks() ([]Webhook, error) {
	var hooks []Webhook
	err := s.db.Where("disabled = ?", false).Find(&hooks).Error
	return hooks, err
}

// CreateWebhook registers a new webhook for an API key.
func (s *Store) CreateWebhook(w *Webhook) error {
	if w.WalletFilter != nil {
		lower := strings.ToLower(*w.WalletFilter)
		w.WalletFilter = &lower
	}
	return s.db.Create(w).Error
}

// WebhooksForKey lists every webhook belonging to apiKeyID, for
// operator tooling.
func (s *Store) WebhooksForKey(apiKeyID uint64) ([]Webhook, error) {
	var hooks []Webhook
	err := s.db.Where("api_key_id = ?", apiKeyID).Find(&hooks).Error
	return hooks, err
}

// RecordDeliverySuccess clears a webhook's consecutive-failure count.
func (s *Store) RecordDeliverySuccess(id uint64) error {
	return s.db.Model(&Webhook{}).Where("id = ?", id).Update("consecutive_failures", 0).Error
}

// RecordDeliveryFailure bumps a webhook's consecutive-failure count
// and disables it once threshold is crossed.
func (s *Store) RecordDeliveryFailure(id uint64, threshold int) error {
	var hook Webhook
	if err := s.db.Where("id = ?", id).First(&hook).Error; err != nil {
		return err
	}
	updates := map[string]interface{}{
		"consecutive_failures": hook.ConsecutiveFailures + 1,
	}
	if hook.ConsecutiveFailures+1 >= threshold {
		updates["disabled"] = true
	}
	return s.db.Model(&Webhook{}).Where("id = ?", id).Updates(updates).Error
}

// SetWebhookDisabled is the operator control used by cmd/webhookctl to
// disable or re-enable a webhook, resetting its failure count on
// re-enable.
func (s *Store) SetWebhookDisabled(id uint64, disabled bool) error {
	updates := map[string]interface{}{"disabled": disabled}
	if !disabled {
		updates["consecutive_failures"] = 0
	}
	return s.db.Model(&Webhook{}).Where("id = ?", id).Updates(updates).Error
}
