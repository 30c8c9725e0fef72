// Copyright 2026 The wallettrust Authors
//
// Licensed under the GNU Lesser General Public License, version 3 or
// (at your option) any later version. See LICENSE for details.

// Package config loads the process environment into a validated,
// immutable configuration snapshot. Every required value is checked at
// startup; nothing is lazily validated later in the run.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ChainName identifies one of the supported EVM chains.
type ChainName string

const (
	Ethereum ChainName = "ethereum"
	Base     ChainName = "base"
	Arbitrum ChainName = "arbitrum"
)

// AllChains is the fixed set this pipeline knows how to scan.
var AllChains = []ChainName{Ethereum, Base, Arbitrum}

// ChainConfig holds everything the Gateway and Indexer need for one chain.
type ChainConfig struct {
	Name                  ChainName
	RPCURL                string
	IdentityRegistry      string
	ReputationRegistry    string
	USDCContract          string
	IdentityGenesisBlock  uint64
	PaymentGenesisBlock   uint64
	AverageBlockTimeSecs  float64
	PacingInterval        time.Duration
	KnownFacilitators     map[string]bool
}

// Config is the fully resolved process configuration.
type Config struct {
	Chains map[ChainName]ChainConfig

	DatabaseURL string
	RedisURL    string

	AdminListenAddr string

	MonthlyBudgetCU   int64
	BudgetWarnFraction float64
	BudgetStopFraction float64

	DefaultScanDays int
	BatchBlockSize  uint64

	WebhookFailureThreshold int
	KafkaBrokers            []string
	KafkaScoreTopic         string
}

// Load reads the process environment and returns a validated Config, or
// a wrapped *errors fault describing the first missing/invalid value.
func Load() (*Config, error) {
	cfg := &Config{
		Chains:                  map[ChainName]ChainConfig{},
		DefaultScanDays:         30,
		BatchBlockSize:          10,
		MonthlyBudgetCU:         1_000_000,
		BudgetWarnFraction:      0.80,
		BudgetStopFraction:      0.90,
		WebhookFailureThreshold: 5,
	}

	dbURL, err := requireEnv("DATABASE_URL")
	if err != nil {
		return nil, err
	}
	cfg.DatabaseURL = dbURL

	cfg.RedisURL = os.Getenv("REDIS_URL")
	cfg.AdminListenAddr = envOr("ADMIN_LISTEN_ADDR", ":9191")

	if v := os.Getenv("MONTHLY_BUDGET_CU"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, errors.Wrap(err, "MONTHLY_BUDGET_CU")
		}
		cfg.MonthlyBudgetCU = n
	}

	cfg.KafkaBrokers = splitNonEmpty(os.Getenv("KAFKA_BROKERS"))
	cfg.KafkaScoreTopic = envOr("KAFKA_SCORE_TOPIC", "wallettrust.score-changed")

	for _, chain := range AllChains {
		cc, err := loadChain(chain)
		if err != nil {
			return nil, err
		}
		cfg.Chains[chain] = *cc
	}

	return cfg, nil
}

func loadChain(name ChainName) (*ChainConfig, error) {
	prefix := strings.ToUpper(string(name))

	rpcURL, err := requireEnv(prefix + "_RPC_URL")
	if err != nil {
		return nil, err
	}
	identity, err := requireEnv(prefix + "_IDENTITY_REGISTRY")
	if err != nil {
		return nil, err
	}
	reputation, err := requireEnv(prefix + "_REPUTATION_REGISTRY")
	if err != nil {
		return nil, err
	}
	usdc, err := requireEnv(prefix + "_USDC_CONTRACT")
	if err != nil {
		return nil, err
	}

	identityGenesis, err := envUint64(prefix+"_IDENTITY_GENESIS_BLOCK", 0)
	if err != nil {
		return nil, err
	}
	paymentGenesis, err := envUint64(prefix+"_PAYMENT_GENESIS_BLOCK", 0)
	if err != nil {
		return nil, err
	}

	blockTime := defaultBlockTime(name)
	if v := os.Getenv(prefix + "_AVG_BLOCK_TIME_SECS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, errors.Wrap(err, prefix+"_AVG_BLOCK_TIME_SECS")
		}
		blockTime = f
	}

	pacing := defaultPacing(name)
	if v := os.Getenv(prefix + "_PACING_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.Wrap(err, prefix+"_PACING_MS")
		}
		pacing = time.Duration(ms) * time.Millisecond
	}

	facilitators := map[string]bool{}
	for _, addr := range splitNonEmpty(os.Getenv(prefix + "_FACILITATORS")) {
		facilitators[strings.ToLower(addr)] = true
	}

	return &ChainConfig{
		Name:                 name,
		RPCURL:               rpcURL,
		IdentityRegistry:     strings.ToLower(identity),
		ReputationRegistry:   strings.ToLower(reputation),
		USDCContract:         strings.ToLower(usdc),
		IdentityGenesisBlock: identityGenesis,
		PaymentGenesisBlock:  paymentGenesis,
		AverageBlockTimeSecs: blockTime,
		PacingInterval:       pacing,
		KnownFacilitators:    facilitators,
	}, nil
}

func defaultBlockTime(name ChainName) float64 {
	switch name {
	case Arbitrum:
		return 0.25
	default:
		return 12.0
	}
}

func defaultPacing(name ChainName) time.Duration {
	switch name {
	case Arbitrum:
		return 40 * time.Millisecond
	default:
		return 100 * time.Millisecond
	}
}

func requireEnv(key string) (string, error) {
	v := os.Getenv(key)
	if v == "" {
		return "", errors.Errorf("missing required environment variable %s", key)
	}
	return v, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envUint64(key string, fallback uint64) (uint64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, key)
	}
	return n, nil
}

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ParseChain validates an operator-supplied --chain flag value.
func ParseChain(s string) (ChainName, error) {
	switch ChainName(s) {
	case Ethereum, Base, Arbitrum:
		return ChainName(s), nil
	case "all", "":
		return "", nil
	default:
		return "", fmt.Errorf("unknown chain %q", s)
	}
}
