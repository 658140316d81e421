// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"kitchenledger/internal/core/apperror"
	"kitchenledger/internal/core/id"
	"kitchenledger/internal/core/types"
)

// IDResponse is returned by create endpoints.
type IDResponse struct {
	ID string `json:"id"`
}

// ErrorResponse mirrors the body written by middleware.ErrorHandler.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ParseID parses a path or body identifier into an id.ID.
func ParseID(field, raw string) (id.ID, error) {
	v, err := id.Parse(raw)
	if err != nil {
		return id.Nil(), apperror.NewValidation("invalid id").
			WithDetail("field", field).
			WithDetail("value", raw)
	}
	return v, nil
}

// ParseOptionalID parses raw when set.
func ParseOptionalID(field string, raw *string) (*id.ID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	v, err := ParseID(field, *raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// ParseMoney parses a decimal string amount.
func ParseMoney(field, raw string) (types.Money, error) {
	m, err := types.NewMoneyFromString(raw)
	if err != nil {
		return types.Zero(), apperror.NewValidation("invalid amount").
			WithDetail("field", field).
			WithDetail("value", raw)
	}
	return m, nil
}
