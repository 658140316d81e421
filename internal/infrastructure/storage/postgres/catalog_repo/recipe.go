// Package catalog_repo stores menu products and their recipes.
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"kitchenledger/internal/core/apperror"
	"kitchenledger/internal/core/id"
	"kitchenledger/internal/core/tenant"
	"kitchenledger/internal/core/types"
	"kitchenledger/internal/domain/recipe"
	"kitchenledger/internal/infrastructure/storage/postgres"
)

const (
	productsTable    = "products"
	recipeItemsTable = "recipe_items"
)

var (
	productColumns    = postgres.ExtractDBColumns[recipe.Product]()
	recipeItemColumns = postgres.ExtractDBColumns[recipe.Item]()
)

// RecipeRepo implements recipe.Repository.
type RecipeRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

var _ recipe.Repository = (*RecipeRepo)(nil)

// NewRecipeRepo creates a new product and recipe repository.
func NewRecipeRepo(txManager *postgres.TxManager) *RecipeRepo {
	return &RecipeRepo{
		txManager: txManager,
		builder:   postgres.Builder(),
	}
}

func (r *RecipeRepo) CreateProduct(ctx context.Context, p *recipe.Product) error {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return err
	}
	p.TenantID = tenantID

	sql, args, err := r.builder.Insert(productsTable).
		SetMap(postgres.FilterColumns(postgres.StructToMap(p), productColumns)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *RecipeRepo) GetProduct(ctx context.Context, productID id.ID) (*recipe.Product, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}

	sql, args, err := r.builder.Select(productColumns...).
		From(productsTable).
		Where(squirrel.Eq{"id": productID, "tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p recipe.Product
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("product", productID)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

// GetProductRecipes loads products and items in two queries.
func (r *RecipeRepo) GetProductRecipes(ctx context.Context, productIDs []id.ID) (map[id.ID]*recipe.ProductRecipe, error) {
	out := make(map[id.ID]*recipe.ProductRecipe, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}
	querier := r.txManager.GetQuerier(ctx)

	sql, args, err := r.builder.Select(productColumns...).
		From(productsTable).
		Where(squirrel.Eq{"id": productIDs, "tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var products []*recipe.Product
	if err := pgxscan.Select(ctx, querier, &products, sql, args...); err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	for _, p := range products {
		out[p.ID] = &recipe.ProductRecipe{Product: p}
	}

	sql, args, err = r.itemsSelect(tenantID, productIDs).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var items []recipe.Item
	if err := pgxscan.Select(ctx, querier, &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select recipe items: %w", err)
	}
	for _, item := range items {
		if pr, ok := out[item.ProductID]; ok {
			pr.Items = append(pr.Items, item)
		}
	}
	return out, nil
}

func (r *RecipeRepo) itemsSelect(tenantID string, productIDs []id.ID) squirrel.SelectBuilder {
	return r.builder.Select(recipeItemColumns...).
		From(recipeItemsTable).
		Where(squirrel.Eq{"product_id": productIDs, "tenant_id": tenantID}).
		OrderBy("product_id", "raw_material_id")
}

// ReplaceItems deletes the current recipe and inserts items.
func (r *RecipeRepo) ReplaceItems(ctx context.Context, productID id.ID, items []recipe.Item) error {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return err
	}
	querier := r.txManager.GetQuerier(ctx)

	sql, args, err := r.builder.Delete(recipeItemsTable).
		Where(squirrel.Eq{"product_id": productID, "tenant_id": tenantID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("delete recipe items: %w", err)
	}
	if len(items) == 0 {
		return nil
	}

	q := r.builder.Insert(recipeItemsTable).Columns(recipeItemColumns...)
	for _, it := range items {
		q = q.Values(it.ID, tenantID, productID, it.RawMaterialID, it.Amount)
	}
	sql, args, err = q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert recipe items: %w", err)
	}
	return nil
}

type unitCostRow struct {
	ProductID id.ID       `db:"product_id"`
	UnitCost  types.Money `db:"unit_cost"`
}

// CurrentUnitCosts prices one portion at the raw materials' current cost_per_unit.
// Quantities are stored scaled by 10^4.
func (r *RecipeRepo) CurrentUnitCosts(ctx context.Context, productIDs []id.ID) (map[id.ID]types.Money, error) {
	out := make(map[id.ID]types.Money, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}

	sql, args, err := r.unitCostSelect(tenantID, productIDs).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var rows []unitCostRow
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select unit costs: %w", err)
	}
	for _, row := range rows {
		out[row.ProductID] = row.UnitCost
	}
	return out, nil
}

func (r *RecipeRepo) unitCostSelect(tenantID string, productIDs []id.ID) squirrel.SelectBuilder {
	return r.builder.
		Select("ri.product_id", "SUM(ri.amount * rm.cost_per_unit / 10000) AS unit_cost").
		From(recipeItemsTable + " ri").
		Join("raw_materials rm ON rm.id = ri.raw_material_id AND rm.tenant_id = ri.tenant_id").
		Where(squirrel.Eq{"ri.product_id": productIDs, "ri.tenant_id": tenantID}).
		GroupBy("ri.product_id")
}
