package reports

import (
	"context"
	"time"

	"kitchenledger/internal/core/id"
	"kitchenledger/internal/core/types"
)

// Repository reads historical sales. Ranges are half-open [from, to) and
// scoped to the tenant in ctx.
type Repository interface {
	// ListPaidOrders returns paid orders created in range
	ListPaidOrders(ctx context.Context, from, to time.Time) ([]PaidOrder, error)

	// SoldProducts aggregates paid order lines per product
	SoldProducts(ctx context.Context, from, to time.Time) ([]ProductSales, error)
}

// UnitCostSource prices one unit of each product at current recipe cost.
// Products without cost data may be absent from the result.
type UnitCostSource interface {
	CurrentUnitCosts(ctx context.Context, productIDs []id.ID) (map[id.ID]types.Money, error)
}

// LaborCostSource returns labor cost per calendar day (DayLayout keys) in loc.
type LaborCostSource interface {
	DailyLaborCost(ctx context.Context, from, to time.Time, loc *time.Location) (map[string]types.Money, error)
}

// Cache stores computed reports. A miss returns false with no error.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}
