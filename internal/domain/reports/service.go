package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"kitchenledger/internal/core/apperror"
	"kitchenledger/internal/core/id"
	"kitchenledger/internal/core/tenant"
	"kitchenledger/internal/core/types"
	"kitchenledger/pkg/logger"
)

// MaxRangeDays bounds the number of days one report may span.
const MaxRangeDays = 366

// Service is the profit and loss aggregator.
type Service struct {
	repo     Repository
	costs    UnitCostSource
	labor    LaborCostSource
	cache    Cache
	cacheTTL time.Duration
	loc      *time.Location
	now      func() time.Time
}

// NewService creates a new reports service. All day bucketing happens in loc.
// cache may be nil.
func NewService(repo Repository, costs UnitCostSource, labor LaborCostSource, loc *time.Location, cache Cache, cacheTTL time.Duration) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		repo:     repo,
		costs:    costs,
		labor:    labor,
		cache:    cache,
		cacheTTL: cacheTTL,
		loc:      loc,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Location returns the report timezone.
func (s *Service) Location() *time.Location {
	return s.loc
}

// GetProfitLossReport reports the inclusive calendar days containing start
// and end, both taken in the report timezone. Days without sales are
// present with zero figures.
func (s *Service) GetProfitLossReport(ctx context.Context, start, end time.Time) (*ProfitLossReport, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}

	from := startOfDay(start, s.loc)
	to := startOfDay(end, s.loc)
	if to.Before(from) {
		return nil, apperror.NewValidation("from must not be after to").
			WithDetail("from", from.Format(DayLayout)).
			WithDetail("to", to.Format(DayLayout))
	}
	toExclusive := to.AddDate(0, 0, 1)
	if days := dayCount(from, toExclusive); days > MaxRangeDays {
		return nil, apperror.NewValidation(fmt.Sprintf("range cannot exceed %d days", MaxRangeDays)).
			WithDetail("days", days)
	}

	key := fmt.Sprintf("reports:pl:%s:%s:%s:%s", tenantID, s.loc.String(), from.Format(DayLayout), to.Format(DayLayout))
	if s.cache != nil {
		var cached ProfitLossReport
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			logger.Warn(ctx, "report cache read failed", "error", err)
		} else if hit {
			return &cached, nil
		}
	}

	paid, err := s.repo.ListPaidOrders(ctx, from, toExclusive)
	if err != nil {
		return nil, fmt.Errorf("list paid orders: %w", err)
	}
	labor, err := s.labor.DailyLaborCost(ctx, from, toExclusive, s.loc)
	if err != nil {
		return nil, fmt.Errorf("daily labor cost: %w", err)
	}
	sales, err := s.repo.SoldProducts(ctx, from, toExclusive)
	if err != nil {
		return nil, fmt.Errorf("sold products: %w", err)
	}

	productIDs := make([]id.ID, 0, len(sales))
	for _, ps := range sales {
		productIDs = append(productIDs, ps.ProductID)
	}
	unitCosts := map[id.ID]types.Money{}
	if len(productIDs) > 0 {
		unitCosts, err = s.costs.CurrentUnitCosts(ctx, productIDs)
		if err != nil {
			return nil, fmt.Errorf("current unit costs: %w", err)
		}
	}

	daily := BuildDailySeries(from, toExclusive, s.loc, paid, labor)
	report := &ProfitLossReport{
		From:        from.Format(DayLayout),
		To:          to.Format(DayLayout),
		Timezone:    s.loc.String(),
		GeneratedAt: s.now(),
		Daily:       daily,
		Products:    BuildProductProfits(sales, unitCosts),
		Totals:      SumTotals(daily),
	}

	if s.cache != nil && s.cacheTTL > 0 {
		if err := s.cache.Set(ctx, key, report, s.cacheTTL); err != nil {
			logger.Warn(ctx, "report cache write failed", "error", err)
		}
	}

	return report, nil
}

// BuildDailySeries buckets paid orders and labor cost by calendar day in loc
// over [from, toExclusive). Orders outside the range are ignored.
func BuildDailySeries(from, toExclusive time.Time, loc *time.Location, paid []PaidOrder, labor map[string]types.Money) []DailyProfit {
	var daily []DailyProfit
	index := make(map[string]int)
	for d := from; d.Before(toExclusive); d = d.AddDate(0, 0, 1) {
		key := d.Format(DayLayout)
		index[key] = len(daily)
		daily = append(daily, DailyProfit{
			Date:          key,
			Revenue:       types.Zero(),
			Cost:          types.Zero(),
			LaborCost:     types.Zero(),
			NetProfit:     types.Zero(),
			MarginPercent: types.Zero(),
		})
	}

	for _, o := range paid {
		i, ok := index[o.CreatedAt.In(loc).Format(DayLayout)]
		if !ok {
			continue
		}
		daily[i].Orders++
		daily[i].Revenue = daily[i].Revenue.Add(o.TotalAmount)
		daily[i].Cost = daily[i].Cost.Add(o.TotalCost)
	}

	for day, amount := range labor {
		if i, ok := index[day]; ok {
			daily[i].LaborCost = daily[i].LaborCost.Add(amount)
		}
	}

	for i := range daily {
		d := &daily[i]
		d.NetProfit = d.Revenue.Sub(d.Cost).Sub(d.LaborCost)
		d.MarginPercent = types.Percent(d.NetProfit, d.Revenue)
	}

	return daily
}

// BuildProductProfits values each product's sales at its current unit cost,
// zero when no cost data exists. Most profitable first.
func BuildProductProfits(sales []ProductSales, unitCosts map[id.ID]types.Money) []ProductProfit {
	out := make([]ProductProfit, 0, len(sales))
	for _, ps := range sales {
		unitCost, ok := unitCosts[ps.ProductID]
		if !ok {
			unitCost = types.Zero()
		}
		totalCost := unitCost.Mul(decimal.NewFromInt(ps.Quantity))
		profit := ps.Revenue.Sub(totalCost)
		out = append(out, ProductProfit{
			ProductID:     ps.ProductID,
			ProductName:   ps.ProductName,
			QuantitySold:  ps.Quantity,
			Revenue:       ps.Revenue,
			UnitCost:      unitCost,
			TotalCost:     totalCost,
			Profit:        profit,
			MarginPercent: types.Percent(profit, ps.Revenue),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Profit.Equal(out[j].Profit) {
			return out[i].Profit.GreaterThan(out[j].Profit)
		}
		return out[i].ProductName < out[j].ProductName
	})
	return out
}

// SumTotals adds up the daily series.
func SumTotals(daily []DailyProfit) Totals {
	t := Totals{
		Revenue:     types.Zero(),
		CostOfGoods: types.Zero(),
		LaborCost:   types.Zero(),
		NetProfit:   types.Zero(),
	}
	for _, d := range daily {
		t.Orders += d.Orders
		t.Revenue = t.Revenue.Add(d.Revenue)
		t.CostOfGoods = t.CostOfGoods.Add(d.Cost)
		t.LaborCost = t.LaborCost.Add(d.LaborCost)
		t.NetProfit = t.NetProfit.Add(d.NetProfit)
	}
	t.MarginPercent = types.Percent(t.NetProfit, t.Revenue)
	return t
}

func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func dayCount(from, toExclusive time.Time) int {
	n := 0
	for d := from; d.Before(toExclusive); d = d.AddDate(0, 0, 1) {
		n++
		if n > MaxRangeDays {
			break
		}
	}
	return n
}
