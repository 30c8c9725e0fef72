// Copyright 2026 The wallettrust Authors
//
// Licensed under the GNU Lesser General Public License, version 3 or
// (at your option) any later version. See LICENSE for details.

package store

import (
	"github.com/jinzhu/gorm"
	_ "github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
)

// Store wraps the gorm handle and groups every repository the core
// writes to, partitioned the way the spec assigns write ownership:
// Indexers own wallets/transactions/feedback/indexer_state, the
// Scoring Engine owns the scoring columns on wallets plus
// score_history, the Dispatcher owns webhook delivery metadata.
type Store struct {
	db *gorm.DB
}

// Open connects to databaseURL (a go-sql-driver/mysql DSN such as
// "user:pass@tcp(host:port)/db", with no URL scheme, as gorm's mysql
// dialect expects) and runs the schema migration.
func Open(databaseURL string) (*Store, error) {
	db, err := gorm.Open("mysql", databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	if err := s.db.AutoMigrate(
		&Wallet{},
		&Transaction{},
		&Feedback{},
		&ScannerCursor{},
		&ScoreSnapshot{},
		&APIKey{},
		&APIUsage{},
		&Webhook{},
		&ScoringLock{},
	).Error; err != nil {
		return errors.Wrap(err, "migrating schema")
	}

	// Seed the single sentinel row the Scoring Engine's advisory lock
	// acquires. FirstOrCreate makes this idempotent across restarts.
	if err := s.db.FirstOrCreate(&ScoringLock{}, ScoringLock{ID: 1}).Error; err != nil {
		return errors.Wrap(err, "seeding scoring lock row")
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying gorm handle. The aggregator does not use
// it; its set queries are the Store methods in aggregate_queries.go.
func (s *Store) DB() *gorm.DB { return s.db }
