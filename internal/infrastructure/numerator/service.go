// Package numerator provides PostgreSQL implementation of sequential
// numbering. It implements core/numerator.Generator.
package numerator

import (
	"context"
	"fmt"
	"sync"
	"time"

	corenumerator "kitchenledger/internal/core/numerator"
	"kitchenledger/internal/core/tenant"
	"kitchenledger/internal/infrastructure/storage/postgres"
)

// Strategy defines the numbering generation strategy.
type Strategy int

const (
	// StrategyStrict increments the sequence row for every number.
	// Gap-free while transactions commit.
	StrategyStrict Strategy = iota

	// StrategyCached reserves ranges of numbers in memory.
	// May produce gaps if the process restarts.
	StrategyCached
)

const defaultRangeSize = 50

type cachedRange struct {
	current int64
	max     int64
}

// Service hands out numbers from sys_sequences, one sequence per tenant and key.
type Service struct {
	txManager *postgres.TxManager
	strategy  Strategy
	rangeSize int64

	// cacheMu protects ranges
	cacheMu sync.Mutex
	// ranges is keyed by tenant and sequence key
	ranges map[string]*cachedRange
}

var _ corenumerator.Generator = (*Service)(nil)

// New creates a numerator service. rangeSize is used by StrategyCached only.
func New(txManager *postgres.TxManager, strategy Strategy, rangeSize int64) *Service {
	if rangeSize <= 0 {
		rangeSize = defaultRangeSize
	}
	return &Service{
		txManager: txManager,
		strategy:  strategy,
		rangeSize: rangeSize,
		ranges:    make(map[string]*cachedRange),
	}
}

// Next returns the next number of cfg's sequence for period.
func (s *Service) Next(ctx context.Context, cfg corenumerator.Config, period time.Time) (string, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return "", err
	}
	key := cfg.Key(period)

	var num int64
	switch s.strategy {
	case StrategyCached:
		num, err = s.nextCached(ctx, tenantID, key)
	default:
		num, err = s.reserve(ctx, tenantID, key, 1)
	}
	if err != nil {
		return "", err
	}
	return cfg.Format(period, num), nil
}

// reserve advances the sequence by n and returns its new value.
func (s *Service) reserve(ctx context.Context, tenantID, key string, n int64) (int64, error) {
	var val int64
	err := s.txManager.GetQuerier(ctx).QueryRow(ctx, `
		INSERT INTO sys_sequences (tenant_id, key, current_val)
		VALUES ($1, $2, $3)
		ON CONFLICT (tenant_id, key) DO UPDATE SET current_val = sys_sequences.current_val + $3
		RETURNING current_val
	`, tenantID, key, n).Scan(&val)
	if err != nil {
		return 0, fmt.Errorf("advance sequence %s: %w", key, err)
	}
	return val, nil
}

func (s *Service) nextCached(ctx context.Context, tenantID, key string) (int64, error) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()

	cacheKey := tenantID + ":" + key
	rng, ok := s.ranges[cacheKey]
	if !ok {
		rng = &cachedRange{}
		s.ranges[cacheKey] = rng
	}

	if rng.current >= rng.max {
		newMax, err := s.reserve(ctx, tenantID, key, s.rangeSize)
		if err != nil {
			return 0, err
		}
		// Range is (newMax - rangeSize, newMax].
		rng.current = newMax - s.rangeSize
		rng.max = newMax
	}

	rng.current++
	return rng.current, nil
}
