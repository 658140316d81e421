// Package document_repo stores customer orders and their lines.
package document_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"kitchenledger/internal/core/apperror"
	"kitchenledger/internal/core/id"
	"kitchenledger/internal/core/tenant"
	"kitchenledger/internal/domain/orders"
	"kitchenledger/internal/infrastructure/storage/postgres"
)

const (
	ordersTable     = "orders"
	orderItemsTable = "order_items"
)

var (
	orderColumns     = postgres.ExtractDBColumns[orders.Order]()
	orderItemColumns = postgres.ExtractDBColumns[orders.Item]()
)

// OrderRepo implements orders.Repository.
type OrderRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ orders.Repository = (*OrderRepo)(nil)

// NewOrderRepo creates a new order repository.
func NewOrderRepo(txManager *postgres.TxManager) *OrderRepo {
	return &OrderRepo{
		txManager: txManager,
		builder:   postgres.Builder(),
	}
}

// Create inserts the order header and its lines.
func (r *OrderRepo) Create(ctx context.Context, o *orders.Order) error {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return err
	}
	o.TenantID = tenantID

	return r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		querier := r.txManager.GetQuerier(ctx)

		sql, args, err := r.builder.Insert(ordersTable).
			SetMap(postgres.FilterColumns(postgres.StructToMap(o), orderColumns)).
			ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}
		if _, err := querier.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		if len(o.Items) == 0 {
			return nil
		}
		q := r.builder.Insert(orderItemsTable).Columns(append([]string{"tenant_id"}, orderItemColumns...)...)
		for _, it := range o.Items {
			q = q.Values(tenantID, it.ID, o.ID, it.ProductID, it.Quantity, it.UnitPrice)
		}
		sql, args, err = q.ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}
		if _, err := querier.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("insert order items: %w", err)
		}
		return nil
	})
}

func (r *OrderRepo) GetWithItems(ctx context.Context, orderID id.ID) (*orders.Order, error) {
	return r.getWithItems(ctx, orderID, false)
}

// GetWithItemsForUpdate locks the order header; lines are immutable once
// the order exists, so they are read without a lock.
func (r *OrderRepo) GetWithItemsForUpdate(ctx context.Context, orderID id.ID) (*orders.Order, error) {
	return r.getWithItems(ctx, orderID, true)
}

func (r *OrderRepo) getWithItems(ctx context.Context, orderID id.ID, forUpdate bool) (*orders.Order, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}
	querier := r.txManager.GetQuerier(ctx)

	sql, args, err := r.orderSelect(tenantID, orderID, forUpdate).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var o orders.Order
	if err := pgxscan.Get(ctx, querier, &o, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("order", orderID)
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	sql, args, err = r.builder.Select(orderItemColumns...).
		From(orderItemsTable).
		Where(squirrel.Eq{"order_id": orderID, "tenant_id": tenantID}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	if err := pgxscan.Select(ctx, querier, &o.Items, sql, args...); err != nil {
		return nil, fmt.Errorf("select order items: %w", err)
	}
	return &o, nil
}

func (r *OrderRepo) orderSelect(tenantID string, orderID id.ID, forUpdate bool) squirrel.SelectBuilder {
	q := r.builder.Select(orderColumns...).
		From(ordersTable).
		Where(squirrel.Eq{"id": orderID, "tenant_id": tenantID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}
	return q
}

// SaveStatus persists status and paid_at.
func (r *OrderRepo) SaveStatus(ctx context.Context, o *orders.Order) error {
	return r.update(ctx, o, map[string]any{
		"status":  o.Status,
		"paid_at": o.PaidAt,
	})
}

// SaveCosting persists the figures costing owns.
func (r *OrderRepo) SaveCosting(ctx context.Context, o *orders.Order) error {
	return r.update(ctx, o, map[string]any{
		"total_cost":         o.TotalCost,
		"net_profit":         o.NetProfit,
		"stock_processed_at": o.StockProcessedAt,
	})
}

func (r *OrderRepo) update(ctx context.Context, o *orders.Order, fields map[string]any) error {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return err
	}

	sql, args, err := r.orderUpdate(tenantID, o, fields).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("order", o.ID)
	}
	return nil
}

// orderUpdate writes fields of an order that was touched once since it was
// loaded; the row must still carry the loaded version.
func (r *OrderRepo) orderUpdate(tenantID string, o *orders.Order, fields map[string]any) squirrel.UpdateBuilder {
	return r.builder.Update(ordersTable).
		SetMap(fields).
		Set("version", o.Version).
		Set("updated_at", o.UpdatedAt).
		Where(squirrel.Eq{"id": o.ID, "tenant_id": tenantID}).
		Where(squirrel.Eq{"version": o.Version - 1})
}
