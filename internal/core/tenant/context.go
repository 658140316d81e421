// Package tenant carries the opaque tenant identifier through request context.
// Every repository query is scoped by it; there is no compiled-in default tenant.
package tenant

import (
	"context"
	"errors"
	"strings"

	"kitchenledger/internal/core/apperror"
)

// ErrNoTenantInContext is returned when an operation runs without a tenant.
var ErrNoTenantInContext = errors.New("tenant not found in context")

type tenantKey struct{}

// WithTenantID stores the tenant identifier in context.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantKey{}, strings.TrimSpace(tenantID))
}

// GetTenantID returns tenant ID or empty string.
func GetTenantID(ctx context.Context) string {
	v, _ := ctx.Value(tenantKey{}).(string)
	return v
}

// RequireTenantID returns the tenant ID or a TENANT_REQUIRED AppError.
func RequireTenantID(ctx context.Context) (string, error) {
	if v := GetTenantID(ctx); v != "" {
		return v, nil
	}
	return "", apperror.NewTenantRequired().WithCause(ErrNoTenantInContext)
}

// MustGetTenantID retrieves tenant ID or panics.
// Use in places where missing tenant is a programming error.
func MustGetTenantID(ctx context.Context) string {
	v := GetTenantID(ctx)
	if v == "" {
		panic("tenant not in context: " + ErrNoTenantInContext.Error())
	}
	return v
}
