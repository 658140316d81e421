package memory

import (
	"context"
	"time"

	"kitchenledger/internal/core/numerator"
)

var _ numerator.Generator = (*Store)(nil)

// Next implements numerator.Generator with a per-tenant counter.
func (s *Store) Next(ctx context.Context, cfg numerator.Config, period time.Time) (string, error) {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return "", err
	}
	if err := s.injected("Next"); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := tenantID + ":" + cfg.Key(period)
	s.data.sequences[key]++
	return cfg.Format(period, s.data.sequences[key]), nil
}
