// Package cache stores computed read models (P&L reports, suggested orders)
// as JSON for a short TTL.
package cache

import (
	"context"
	"time"
)

// Noop never hits. Used when Redis is not configured.
type Noop struct{}

func (Noop) Get(_ context.Context, _ string, _ any) (bool, error) {
	return false, nil
}

func (Noop) Set(_ context.Context, _ string, _ any, _ time.Duration) error {
	return nil
}
