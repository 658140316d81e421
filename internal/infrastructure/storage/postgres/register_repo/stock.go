// Package register_repo stores the stock ledger: raw materials, purchase
// lots and the movement register. Every query is filtered by the tenant in
// context.
package register_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"kitchenledger/internal/core/apperror"
	"kitchenledger/internal/core/id"
	"kitchenledger/internal/core/tenant"
	"kitchenledger/internal/core/types"
	"kitchenledger/internal/domain/inventory"
	"kitchenledger/internal/infrastructure/storage/postgres"
)

const (
	rawMaterialsTable = "raw_materials"
	stockLotsTable    = "stock_lots"
)

var (
	rawMaterialColumns = postgres.ExtractDBColumns[inventory.RawMaterial]()
	stockLotColumns    = postgres.ExtractDBColumns[inventory.StockLot]()
)

// StockRepo implements inventory.Repository and inventory.TenantLister.
type StockRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
	inserter  *postgres.BatchInserter
	executor  *postgres.BatchExecutor
}

var (
	_ inventory.Repository   = (*StockRepo)(nil)
	_ inventory.TenantLister = (*StockRepo)(nil)
)

// NewStockRepo creates a new stock ledger repository.
func NewStockRepo(txManager *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txManager: txManager,
		builder:   postgres.Builder(),
		inserter:  postgres.NewBatchInserter(txManager),
		executor:  postgres.NewBatchExecutor(txManager),
	}
}

// --- Raw materials ---

func (r *StockRepo) CreateRawMaterial(ctx context.Context, m *inventory.RawMaterial) error {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return err
	}
	m.TenantID = tenantID

	sql, args, err := r.builder.Insert(rawMaterialsTable).
		SetMap(postgres.FilterColumns(postgres.StructToMap(m), rawMaterialColumns)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert raw material: %w", err)
	}
	return nil
}

func (r *StockRepo) GetRawMaterial(ctx context.Context, rawMaterialID id.ID) (*inventory.RawMaterial, error) {
	return r.getRawMaterial(ctx, rawMaterialID, false)
}

// GetRawMaterialForUpdate takes a row lock held until the transaction ends.
func (r *StockRepo) GetRawMaterialForUpdate(ctx context.Context, rawMaterialID id.ID) (*inventory.RawMaterial, error) {
	return r.getRawMaterial(ctx, rawMaterialID, true)
}

func (r *StockRepo) getRawMaterial(ctx context.Context, rawMaterialID id.ID, forUpdate bool) (*inventory.RawMaterial, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}

	q := r.rawMaterialSelect(tenantID).Where(squirrel.Eq{"id": rawMaterialID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var m inventory.RawMaterial
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &m, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("raw material", rawMaterialID)
		}
		return nil, fmt.Errorf("get raw material: %w", err)
	}
	return &m, nil
}

func (r *StockRepo) ListRawMaterials(ctx context.Context) ([]*inventory.RawMaterial, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}
	return r.listRawMaterials(ctx, r.rawMaterialSelect(tenantID).OrderBy("name", "id"))
}

func (r *StockRepo) ListBelowAlertLevel(ctx context.Context) ([]*inventory.RawMaterial, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}
	return r.listRawMaterials(ctx, r.belowAlertLevelSelect(tenantID))
}

func (r *StockRepo) listRawMaterials(ctx context.Context, q squirrel.SelectBuilder) ([]*inventory.RawMaterial, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var out []*inventory.RawMaterial
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list raw materials: %w", err)
	}
	return out, nil
}

func (r *StockRepo) rawMaterialSelect(tenantID string) squirrel.SelectBuilder {
	return r.builder.Select(rawMaterialColumns...).
		From(rawMaterialsTable).
		Where(squirrel.Eq{"tenant_id": tenantID})
}

func (r *StockRepo) belowAlertLevelSelect(tenantID string) squirrel.SelectBuilder {
	return r.rawMaterialSelect(tenantID).
		Where("current_stock <= minimum_alert_level").
		OrderBy("name", "id")
}

// UpdateStockCounters writes the counters owned by the ledger.
func (r *StockRepo) UpdateStockCounters(ctx context.Context, m *inventory.RawMaterial) error {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return err
	}

	sql, args, err := r.stockCountersUpdate(tenantID, m).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update stock counters: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("raw material", m.ID)
	}
	return nil
}

func (r *StockRepo) stockCountersUpdate(tenantID string, m *inventory.RawMaterial) squirrel.UpdateBuilder {
	return r.builder.Update(rawMaterialsTable).
		Set("current_stock", m.CurrentStock).
		Set("shortfall_quantity", m.ShortfallQuantity).
		Set("cost_per_unit", m.CostPerUnit).
		Set("version", m.Version).
		Set("updated_at", m.UpdatedAt).
		Where(squirrel.Eq{"id": m.ID, "tenant_id": tenantID})
}

// --- Lots ---

func (r *StockRepo) CreateLot(ctx context.Context, lot *inventory.StockLot) error {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return err
	}
	lot.TenantID = tenantID

	sql, args, err := r.builder.Insert(stockLotsTable).
		SetMap(postgres.FilterColumns(postgres.StructToMap(lot), stockLotColumns)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert stock lot: %w", err)
	}
	return nil
}

// ListOpenLotsForUpdate locks open lots oldest first. Lock order matches
// FIFO order so two deductions of the same material never deadlock on lots.
func (r *StockRepo) ListOpenLotsForUpdate(ctx context.Context, rawMaterialID id.ID) ([]*inventory.StockLot, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}

	sql, args, err := r.openLotsSelect(tenantID, rawMaterialID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var lots []*inventory.StockLot
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &lots, sql, args...); err != nil {
		return nil, fmt.Errorf("list open lots: %w", err)
	}
	return lots, nil
}

func (r *StockRepo) openLotsSelect(tenantID string, rawMaterialID id.ID) squirrel.SelectBuilder {
	return r.builder.Select(stockLotColumns...).
		From(stockLotsTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "raw_material_id": rawMaterialID}).
		Where(squirrel.Gt{"remaining_quantity": 0}).
		OrderBy("created_at", "id").
		Suffix("FOR UPDATE")
}

// UpdateLotRemaining sends one UPDATE per lot in a single batch.
func (r *StockRepo) UpdateLotRemaining(ctx context.Context, lots []*inventory.StockLot) error {
	if len(lots) == 0 {
		return nil
	}
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return err
	}

	queries := make([]postgres.BatchQuery, 0, len(lots))
	for _, lot := range lots {
		sql, args, err := r.builder.Update(stockLotsTable).
			Set("remaining_quantity", lot.RemainingQuantity).
			Where(squirrel.Eq{"id": lot.ID, "tenant_id": tenantID}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build update: %w", err)
		}
		queries = append(queries, postgres.BatchQuery{SQL: sql, Args: args, ExpectRows: 1})
	}

	if err := r.executor.ExecuteBatch(ctx, queries); err != nil {
		return fmt.Errorf("update lot remaining: %w", err)
	}
	return nil
}

type lotSumRow struct {
	RawMaterialID id.ID          `db:"raw_material_id"`
	Remaining     types.Quantity `db:"remaining"`
}

func (r *StockRepo) SumLotRemaining(ctx context.Context) (map[id.ID]types.Quantity, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}

	sql, args, err := r.builder.
		Select("raw_material_id", "COALESCE(SUM(remaining_quantity), 0)::BIGINT AS remaining").
		From(stockLotsTable).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		GroupBy("raw_material_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []lotSumRow
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("sum lot remaining: %w", err)
	}
	out := make(map[id.ID]types.Quantity, len(rows))
	for _, row := range rows {
		out[row.RawMaterialID] = row.Remaining
	}
	return out, nil
}

// ListTenantIDs returns every tenant that owns a raw material.
func (r *StockRepo) ListTenantIDs(ctx context.Context) ([]string, error) {
	var out []string
	err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out,
		`SELECT DISTINCT tenant_id FROM raw_materials ORDER BY tenant_id`)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	return out, nil
}
