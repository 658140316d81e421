package dto

import (
	"time"

	"kitchenledger/internal/core/apperror"
)

// ProfitLossRequest holds the inclusive day range of a P&L query.
type ProfitLossRequest struct {
	From string `form:"from" binding:"required"`
	To   string `form:"to" binding:"required"`
}

// Range parses From and To as calendar days (2006-01-02) or RFC3339 in loc.
func (r ProfitLossRequest) Range(loc *time.Location) (time.Time, time.Time, error) {
	from, err := parseDay("from", r.From, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := parseDay("to", r.To, loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

func parseDay(field, raw string, loc *time.Location) (time.Time, error) {
	if t, err := time.ParseInLocation("2006-01-02", raw, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	return time.Time{}, apperror.NewValidation("invalid date").
		WithDetail("field", field).
		WithDetail("value", raw)
}
