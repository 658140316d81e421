package recipe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitchenledger/internal/core/apperror"
	"kitchenledger/internal/core/id"
	"kitchenledger/internal/core/types"
)

func TestRequirementsMergesDuplicateIngredients(t *testing.T) {
	flour, cheese := id.New(), id.New()
	r := &ProductRecipe{
		Product: NewProduct("bistro", "Pizza", types.MustMoney("12")),
		Items: []Item{
			{RawMaterialID: flour, Amount: types.MustQuantity("0.2")},
			{RawMaterialID: cheese, Amount: types.MustQuantity("0.15")},
			{RawMaterialID: flour, Amount: types.MustQuantity("0.05")},
		},
	}

	req, err := r.Requirements(3)
	require.NoError(t, err)

	assert.Len(t, req, 2)
	assert.Equal(t, types.MustQuantity("0.75"), req[flour])
	assert.Equal(t, types.MustQuantity("0.45"), req[cheese])
}

func TestRequirementsEmptyRecipe(t *testing.T) {
	r := &ProductRecipe{Product: NewProduct("bistro", "Bottled water", types.MustMoney("2"))}
	req, err := r.Requirements(5)
	require.NoError(t, err)
	assert.Empty(t, req)
}

func TestRequirementsOutOfRange(t *testing.T) {
	r := &ProductRecipe{
		Product: NewProduct("bistro", "Pizza", types.MustMoney("12")),
		Items:   []Item{{RawMaterialID: id.New(), Amount: types.MustQuantity("0.25")}},
	}

	_, err := r.Requirements(4_000_000_000_000_000)
	assert.ErrorIs(t, err, types.ErrQuantityOutOfRange)
}

func TestProductValidate(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, NewProduct("bistro", "Pizza", types.MustMoney("12")).Validate(ctx))

	err := NewProduct("bistro", "", types.MustMoney("12")).Validate(ctx)
	assert.True(t, apperror.IsAppError(err))

	err = NewProduct("bistro", "Pizza", types.MustMoney("-1")).Validate(ctx)
	appErr, ok := apperror.AsAppError(err)
	assert.True(t, ok)
	assert.Equal(t, "price", appErr.Details["field"])

	err = NewProduct("", "Pizza", types.MustMoney("1")).Validate(ctx)
	appErr, ok = apperror.AsAppError(err)
	assert.True(t, ok)
	assert.Equal(t, apperror.CodeTenantRequired, appErr.Code)
}
