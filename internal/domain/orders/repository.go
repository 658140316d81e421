package orders

import (
	"context"

	"kitchenledger/internal/core/id"
)

// Repository reads orders and writes the fields checkout owns. Scoped to the
// tenant in ctx.
type Repository interface {
	// Create inserts an order with its items. Order entry lives outside this
	// engine; Create exists for seeding and tests.
	Create(ctx context.Context, o *Order) error

	// GetWithItems returns NotFound AppError when missing
	GetWithItems(ctx context.Context, orderID id.ID) (*Order, error)

	// GetWithItemsForUpdate locks the order row for the enclosing transaction
	GetWithItemsForUpdate(ctx context.Context, orderID id.ID) (*Order, error)

	// SaveStatus persists status and paid_at
	SaveStatus(ctx context.Context, o *Order) error

	// SaveCosting persists total_cost, net_profit and stock_processed_at
	SaveCosting(ctx context.Context, o *Order) error
}
