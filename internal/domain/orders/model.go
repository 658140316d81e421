// Package orders is the read model of customer orders plus the cost and
// profit fields written back at checkout.
package orders

import (
	"time"

	"kitchenledger/internal/core/apperror"
	"kitchenledger/internal/core/entity"
	"kitchenledger/internal/core/id"
	"kitchenledger/internal/core/types"
)

// Status of an order.
type Status string

const (
	StatusOpen      Status = "open"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

// Order is a customer order. TotalAmount is set by order entry (after any
// loyalty adjustment); TotalCost and NetProfit are owned by costing.
type Order struct {
	entity.BaseEntity

	Number string `db:"number" json:"number"`
	Status Status `db:"status" json:"status"`

	TotalAmount types.Money `db:"total_amount" json:"totalAmount"`
	TotalCost   types.Money `db:"total_cost" json:"totalCost"`
	NetProfit   types.Money `db:"net_profit" json:"netProfit"`

	PaidAt *time.Time `db:"paid_at" json:"paidAt,omitempty"`
	// StockProcessedAt is set once stock has been deducted for this order.
	StockProcessedAt *time.Time `db:"stock_processed_at" json:"stockProcessedAt,omitempty"`

	Items []Item `db:"-" json:"items"`
}

// Item is one order line.
type Item struct {
	ID        id.ID       `db:"id" json:"id"`
	OrderID   id.ID       `db:"order_id" json:"orderId"`
	ProductID id.ID       `db:"product_id" json:"productId"`
	Quantity  int64       `db:"quantity" json:"quantity"`
	UnitPrice types.Money `db:"unit_price" json:"unitPrice"`
}

// MaxItemQuantity is the largest portion count one order line may carry.
const MaxItemQuantity int64 = 10_000

// NewOrder creates an open order.
func NewOrder(tenantID, number string, totalAmount types.Money) *Order {
	return &Order{
		BaseEntity:  entity.NewBaseEntity(tenantID),
		Number:      number,
		Status:      StatusOpen,
		TotalAmount: totalAmount,
		TotalCost:   types.Zero(),
		NetProfit:   types.Zero(),
	}
}

// AddItem appends a line.
func (o *Order) AddItem(productID id.ID, quantity int64, unitPrice types.Money) {
	o.Items = append(o.Items, Item{
		ID:        id.New(),
		OrderID:   o.ID,
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
	})
}

// ProductIDs returns the distinct products referenced by the lines.
func (o *Order) ProductIDs() []id.ID {
	seen := make(map[id.ID]struct{}, len(o.Items))
	out := make([]id.ID, 0, len(o.Items))
	for _, it := range o.Items {
		if _, ok := seen[it.ProductID]; ok {
			continue
		}
		seen[it.ProductID] = struct{}{}
		out = append(out, it.ProductID)
	}
	return out
}

// CanCheckout reports whether the order may transition to paid.
func (o *Order) CanCheckout() error {
	switch o.Status {
	case StatusOpen:
		return nil
	case StatusPaid:
		return apperror.NewConflict("order is already paid").
			WithDetail("order_id", o.ID).
			WithDetail("number", o.Number)
	default:
		return apperror.NewBusinessRule(apperror.CodeOrderNotPayable, "order cannot be paid").
			WithDetail("order_id", o.ID).
			WithDetail("status", o.Status)
	}
}

// MarkPaid moves the order to paid.
func (o *Order) MarkPaid(at time.Time) {
	o.Status = StatusPaid
	o.PaidAt = &at
	o.Touch()
}

// ApplyCosting records the cost of goods sold and the resulting profit.
func (o *Order) ApplyCosting(totalCost types.Money, at time.Time) {
	o.TotalCost = totalCost
	o.NetProfit = o.TotalAmount.Sub(totalCost)
	o.StockProcessedAt = &at
	o.Touch()
}

// IsStockProcessed reports whether stock has already been deducted.
func (o *Order) IsStockProcessed() bool {
	return o.StockProcessedAt != nil
}

// MarginPercent returns NetProfit / TotalAmount * 100, zero when there is no revenue.
func (o *Order) MarginPercent() types.Money {
	return types.Percent(o.NetProfit, o.TotalAmount)
}
