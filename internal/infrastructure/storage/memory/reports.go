package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"kitchenledger/internal/core/id"
	"kitchenledger/internal/core/types"
	"kitchenledger/internal/domain/orders"
	"kitchenledger/internal/domain/reports"
)

var (
	_ reports.Repository      = (*Store)(nil)
	_ reports.UnitCostSource  = (*Store)(nil)
	_ reports.LaborCostSource = (*Store)(nil)
)

func (s *Store) ListPaidOrders(ctx context.Context, from, to time.Time) ([]reports.PaidOrder, error) {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []reports.PaidOrder
	for _, o := range s.data.orders {
		if !paidInRange(&o, tenantID, from, to) {
			continue
		}
		out = append(out, reports.PaidOrder{
			OrderID:     o.ID,
			CreatedAt:   o.CreatedAt,
			TotalAmount: o.TotalAmount,
			TotalCost:   o.TotalCost,
			NetProfit:   o.NetProfit,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) SoldProducts(ctx context.Context, from, to time.Time) ([]reports.ProductSales, error) {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	byProduct := map[id.ID]*reports.ProductSales{}
	for _, o := range s.data.orders {
		if !paidInRange(&o, tenantID, from, to) {
			continue
		}
		for _, it := range o.Items {
			ps, ok := byProduct[it.ProductID]
			if !ok {
				ps = &reports.ProductSales{ProductID: it.ProductID, Revenue: types.Zero()}
				if p, found := s.data.products[it.ProductID]; found {
					ps.ProductName = p.Name
				}
				byProduct[it.ProductID] = ps
			}
			ps.Quantity += it.Quantity
			ps.Revenue = ps.Revenue.Add(it.UnitPrice.Mul(decimal.NewFromInt(it.Quantity)))
		}
	}
	out := make([]reports.ProductSales, 0, len(byProduct))
	for _, ps := range byProduct {
		out = append(out, *ps)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductName < out[j].ProductName })
	return out, nil
}

func paidInRange(o *orders.Order, tenantID string, from, to time.Time) bool {
	return o.TenantID == tenantID &&
		o.Status == orders.StatusPaid &&
		!o.CreatedAt.Before(from) &&
		o.CreatedAt.Before(to)
}

var nanosPerHour = decimal.NewFromInt(int64(time.Hour))

// DailyLaborCost prices each shift at hours worked times hourly rate and
// books it on the day the shift started, in loc.
func (s *Store) DailyLaborCost(ctx context.Context, from, to time.Time, loc *time.Location) (map[string]types.Money, error) {
	tenantID, err := tenantOf(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]types.Money{}
	for _, sh := range s.data.shifts {
		if sh.TenantID != tenantID || sh.ClockIn.Before(from) || !sh.ClockIn.Before(to) {
			continue
		}
		worked := decimal.NewFromInt(int64(sh.ClockOut.Sub(sh.ClockIn)))
		day := sh.ClockIn.In(loc).Format(reports.DayLayout)
		cur, ok := out[day]
		if !ok {
			cur = types.Zero()
		}
		out[day] = cur.Add(sh.HourlyRate.Mul(worked).Div(nanosPerHour))
	}
	return out, nil
}
