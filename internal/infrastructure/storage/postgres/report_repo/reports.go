// Package report_repo reads paid sales and labor shifts for the profit and loss report.
package report_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"kitchenledger/internal/core/tenant"
	"kitchenledger/internal/core/types"
	"kitchenledger/internal/domain/orders"
	"kitchenledger/internal/domain/reports"
	"kitchenledger/internal/infrastructure/storage/postgres"
)

// ReportRepo implements reports.Repository and reports.LaborCostSource.
type ReportRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var (
	_ reports.Repository      = (*ReportRepo)(nil)
	_ reports.LaborCostSource = (*ReportRepo)(nil)
)

// NewReportRepo creates a new report repository.
func NewReportRepo(txManager *postgres.TxManager) *ReportRepo {
	return &ReportRepo{
		txManager: txManager,
		builder:   postgres.Builder(),
	}
}

func (r *ReportRepo) ListPaidOrders(ctx context.Context, from, to time.Time) ([]reports.PaidOrder, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}

	sql, args, err := r.paidOrdersSelect(tenantID, from, to).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var out []reports.PaidOrder
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("select paid orders: %w", err)
	}
	return out, nil
}

func (r *ReportRepo) paidOrdersSelect(tenantID string, from, to time.Time) squirrel.SelectBuilder {
	return r.builder.Select("id", "created_at", "total_amount", "total_cost", "net_profit").
		From("orders").
		Where(squirrel.Eq{"tenant_id": tenantID, "status": orders.StatusPaid}).
		Where(squirrel.GtOrEq{"created_at": from}).
		Where(squirrel.Lt{"created_at": to}).
		OrderBy("created_at", "id")
}

func (r *ReportRepo) SoldProducts(ctx context.Context, from, to time.Time) ([]reports.ProductSales, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}

	sql, args, err := r.soldProductsSelect(tenantID, from, to).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var out []reports.ProductSales
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("select sold products: %w", err)
	}
	return out, nil
}

func (r *ReportRepo) soldProductsSelect(tenantID string, from, to time.Time) squirrel.SelectBuilder {
	return r.builder.Select(
		"oi.product_id",
		"COALESCE(p.name, '') AS product_name",
		"SUM(oi.quantity)::BIGINT AS quantity",
		"SUM(oi.quantity * oi.unit_price) AS revenue",
	).
		From("order_items oi").
		Join("orders o ON o.id = oi.order_id").
		LeftJoin("products p ON p.id = oi.product_id AND p.tenant_id = o.tenant_id").
		Where(squirrel.Eq{"o.tenant_id": tenantID, "o.status": orders.StatusPaid}).
		Where(squirrel.GtOrEq{"o.created_at": from}).
		Where(squirrel.Lt{"o.created_at": to}).
		GroupBy("oi.product_id", "p.name").
		OrderBy("product_name", "oi.product_id")
}

type laborRow struct {
	Day  string      `db:"day"`
	Cost types.Money `db:"cost"`
}

// DailyLaborCost books each shift on the day it started in loc, priced at
// hours worked times hourly rate.
func (r *ReportRepo) DailyLaborCost(ctx context.Context, from, to time.Time, loc *time.Location) (map[string]types.Money, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}

	sql, args, err := r.laborSelect(tenantID, from, to, loc).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var rows []laborRow
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select labor cost: %w", err)
	}
	out := make(map[string]types.Money, len(rows))
	for _, row := range rows {
		out[row.Day] = row.Cost
	}
	return out, nil
}

func (r *ReportRepo) laborSelect(tenantID string, from, to time.Time, loc *time.Location) squirrel.SelectBuilder {
	day := squirrel.Expr("to_char(clock_in AT TIME ZONE ?, 'YYYY-MM-DD')", loc.String())
	return r.builder.Select().
		Column(squirrel.Alias(day, "day")).
		Column("SUM(EXTRACT(EPOCH FROM (clock_out - clock_in)) / 3600 * hourly_rate) AS cost").
		From("staff_shifts").
		Where(squirrel.Eq{"tenant_id": tenantID}).
		Where(squirrel.GtOrEq{"clock_in": from}).
		Where(squirrel.Lt{"clock_in": to}).
		GroupBy("1").
		OrderBy("1")
}
