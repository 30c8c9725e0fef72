// Copyright 2026 The wallettrust Authors
//
// Licensed under the GNU Lesser General Public License, version 3 or
// (at your option) any later version. See LICENSE for details.

package budget

import (
	"time"

	"github.com/go-redis/redis/v7"
)

// RedisMonthlyStore persists the running monthly CU total in Redis
// under a month-scoped key, so a budget threshold crossed by one
// process run is honored by the next run within the same month.
type RedisMonthlyStore struct {
	client *redis.Client
	prefix string
}

// NewRedisMonthlyStore wraps an existing redis client. keyPrefix
// namespaces the counter, e.g. "wallettrust:cu:".
func NewRedisMonthlyStore(client *redis.Client, keyPrefix string) *RedisMonthlyStore {
	return &RedisMonthlyStore{client: client, prefix: keyPrefix}
}

// Add atomically increments the monthly counter and sets a generous
// expiry so a stale key from a dead month is eventually reclaimed.
func (s *RedisMonthlyStore) Add(monthKey string, delta int64) (int64, error) {
	key := s.prefix + monthKey
	pipe := s.client.TxPipeline()
	incr := pipe.IncrBy(key, delta)
	pipe.Expire(key, 40*24*time.Hour)
	if _, err := pipe.Exec(); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}
