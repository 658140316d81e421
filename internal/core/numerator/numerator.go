// Package numerator provides contracts for human-readable sequential numbers
// such as ORD-2026-00042. Implementations live in infrastructure layer.
package numerator

import (
	"context"
	"fmt"
	"time"
)

// ResetPeriod controls when a sequence restarts from 1.
type ResetPeriod string

const (
	ResetYearly  ResetPeriod = "year"
	ResetMonthly ResetPeriod = "month"
	ResetNever   ResetPeriod = "never"
)

// Config holds numbering configuration.
type Config struct {
	// Prefix added to all numbers (e.g., "ORD")
	Prefix string

	// IncludeYear adds year to the number
	IncludeYear bool

	// PadWidth is the minimum number width (default 5)
	PadWidth int

	Reset ResetPeriod
}

// OrderConfig numbers orders entered without a point-of-sale number.
func OrderConfig() Config {
	return Config{
		Prefix:      "ORD",
		IncludeYear: true,
		PadWidth:    5,
		Reset:       ResetYearly,
	}
}

// Key identifies the sequence that period draws from.
func (c Config) Key(period time.Time) string {
	switch c.Reset {
	case ResetMonthly:
		return fmt.Sprintf("%s_%s", c.Prefix, period.Format("2006_01"))
	case ResetYearly:
		return fmt.Sprintf("%s_%s", c.Prefix, period.Format("2006"))
	default:
		return c.Prefix
	}
}

// Format renders n, e.g. ORD-2026-00042.
func (c Config) Format(period time.Time, n int64) string {
	padWidth := c.PadWidth
	if padWidth == 0 {
		padWidth = 5
	}
	if c.IncludeYear {
		return fmt.Sprintf("%s-%s-%0*d", c.Prefix, period.Format("2006"), padWidth, n)
	}
	return fmt.Sprintf("%s-%0*d", c.Prefix, padWidth, n)
}

// ParseNumber extracts the numeric part of a formatted number.
// Returns -1 if parsing fails.
func ParseNumber(formatted string) int64 {
	var num int64
	patterns := []string{
		"%*[^-]-%*d-%d",
		"%*[^-]-%d",
	}
	for _, pattern := range patterns {
		if _, err := fmt.Sscanf(formatted, pattern, &num); err == nil {
			return num
		}
	}
	return -1
}

// Generator hands out the next number of a tenant's sequence.
type Generator interface {
	Next(ctx context.Context, cfg Config, period time.Time) (string, error)
}
