package dto

import (
	"fmt"

	"kitchenledger/internal/core/apperror"
	"kitchenledger/internal/core/types"
	"kitchenledger/internal/domain/orders"
)

// CreateOrderRequest is the body of POST /orders. Order entry belongs to the
// point of sale; this endpoint exists for integration and demo data.
// An empty Number is filled from the tenant's order sequence.
type CreateOrderRequest struct {
	Number      string             `json:"number"`
	TotalAmount string             `json:"totalAmount" binding:"required"`
	Items       []OrderItemRequest `json:"items"`
}

// OrderItemRequest is one order line.
type OrderItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int64  `json:"quantity"`
	UnitPrice string `json:"unitPrice" binding:"required"`
}

// ToEntity builds the open order for tenantID.
func (r CreateOrderRequest) ToEntity(tenantID string) (*orders.Order, error) {
	total, err := ParseMoney("totalAmount", r.TotalAmount)
	if err != nil {
		return nil, err
	}
	if total.IsNegative() {
		return nil, apperror.NewValidation("total amount cannot be negative").WithDetail("field", "totalAmount")
	}
	o := orders.NewOrder(tenantID, r.Number, total)
	for i, it := range r.Items {
		productID, err := ParseID("productId", it.ProductID)
		if err != nil {
			return nil, err
		}
		if it.Quantity <= 0 || it.Quantity > orders.MaxItemQuantity {
			return nil, apperror.NewValidation(fmt.Sprintf("quantity must be between 1 and %d", orders.MaxItemQuantity)).
				WithDetail("line", i)
		}
		price, err := ParseMoney("unitPrice", it.UnitPrice)
		if err != nil {
			return nil, err
		}
		o.AddItem(productID, it.Quantity, price)
	}
	return o, nil
}

// OrderResponse is an order with its margin.
type OrderResponse struct {
	*orders.Order
	MarginPercent types.Money `json:"marginPercent"`
}

// FromOrder wraps o for the API.
func FromOrder(o *orders.Order) OrderResponse {
	return OrderResponse{Order: o, MarginPercent: o.MarginPercent()}
}
