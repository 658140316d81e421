// Package reports builds the profit and loss report from paid orders,
// current recipe costs and labor cost.
package reports

import (
	"time"

	"kitchenledger/internal/core/id"
	"kitchenledger/internal/core/types"
)

// DayLayout formats calendar days in the report timezone.
const DayLayout = "2006-01-02"

// PaidOrder holds the figures costing wrote on a paid order.
type PaidOrder struct {
	OrderID     id.ID       `db:"id"`
	CreatedAt   time.Time   `db:"created_at"`
	TotalAmount types.Money `db:"total_amount"`
	TotalCost   types.Money `db:"total_cost"`
	NetProfit   types.Money `db:"net_profit"`
}

// ProductSales aggregates one product's paid order lines in range.
type ProductSales struct {
	ProductID   id.ID       `db:"product_id"`
	ProductName string      `db:"product_name"`
	Quantity    int64       `db:"quantity"`
	Revenue     types.Money `db:"revenue"`
}

// DailyProfit is one day of the P&L series.
type DailyProfit struct {
	Date          string      `json:"date"`
	Orders        int         `json:"orders"`
	Revenue       types.Money `json:"revenue"`
	Cost          types.Money `json:"cost"`
	LaborCost     types.Money `json:"laborCost"`
	NetProfit     types.Money `json:"netProfit"`
	MarginPercent types.Money `json:"marginPercent"`
}

// ProductProfit values a product's sales at today's recipe cost.
type ProductProfit struct {
	ProductID     id.ID       `json:"productId"`
	ProductName   string      `json:"productName"`
	QuantitySold  int64       `json:"quantitySold"`
	Revenue       types.Money `json:"revenue"`
	UnitCost      types.Money `json:"unitCost"`
	TotalCost     types.Money `json:"totalCost"`
	Profit        types.Money `json:"profit"`
	MarginPercent types.Money `json:"marginPercent"`
}

// Totals are summed from the daily series so labor is deducted once.
type Totals struct {
	Revenue       types.Money `json:"revenue"`
	CostOfGoods   types.Money `json:"costOfGoods"`
	LaborCost     types.Money `json:"laborCost"`
	NetProfit     types.Money `json:"netProfit"`
	MarginPercent types.Money `json:"marginPercent"`
	Orders        int         `json:"orders"`
}

// ProfitLossReport is the full report for an inclusive day range.
type ProfitLossReport struct {
	From        string          `json:"from"`
	To          string          `json:"to"`
	Timezone    string          `json:"timezone"`
	GeneratedAt time.Time       `json:"generatedAt"`
	Daily       []DailyProfit   `json:"daily"`
	Products    []ProductProfit `json:"products"`
	Totals      Totals          `json:"totals"`
}
