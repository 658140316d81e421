package tenant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitchenledger/internal/core/apperror"
)

func TestRequireTenantID(t *testing.T) {
	_, err := RequireTenantID(context.Background())
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeTenantRequired, appErr.Code)

	ctx := WithTenantID(context.Background(), "  bistro-1 ")
	got, err := RequireTenantID(ctx)
	require.NoError(t, err)
	assert.Equal(t, "bistro-1", got)
}

func TestMustGetTenantIDPanicsWithoutTenant(t *testing.T) {
	assert.Panics(t, func() { MustGetTenantID(context.Background()) })
}
