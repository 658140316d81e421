// Package main seeds a tenant with demo menu, stock, orders and shifts.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"kitchenledger/internal/config"
	appctx "kitchenledger/internal/core/context"
	"kitchenledger/internal/core/id"
	"kitchenledger/internal/core/tenant"
	"kitchenledger/internal/core/types"
	"kitchenledger/internal/domain/costing"
	"kitchenledger/internal/domain/inventory"
	"kitchenledger/internal/domain/orders"
	"kitchenledger/internal/domain/recipe"
	"kitchenledger/internal/infrastructure/storage/postgres"
	"kitchenledger/internal/infrastructure/storage/postgres/catalog_repo"
	"kitchenledger/internal/infrastructure/storage/postgres/document_repo"
	"kitchenledger/internal/infrastructure/storage/postgres/register_repo"
	"kitchenledger/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	tenantID := os.Getenv("SEED_TENANT_ID")
	if tenantID == "" {
		tenantID = id.New().String()
	}

	ctx := logger.WithLogger(context.Background(), log)
	ctx = tenant.WithTenantID(ctx, tenantID)
	ctx = appctx.WithActor(ctx, appctx.SystemActor)

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL, 4))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		log.Fatalw("failed to apply schema", "error", err)
	}

	txManager := postgres.NewTxManager(pool)
	s := &seeder{
		pool:      pool,
		inventory: inventory.NewService(register_repo.NewStockRepo(txManager), txManager, postgres.NewOutboxPublisher(txManager)),
		recipes:   recipe.NewService(catalog_repo.NewRecipeRepo(txManager), txManager),
		orders:    document_repo.NewOrderRepo(txManager),
	}
	s.costing = costing.NewService(s.orders, catalog_repo.NewRecipeRepo(txManager), s.inventory, txManager, postgres.NewOutboxPublisher(txManager), costing.DefaultConfig())

	if err := s.run(ctx); err != nil {
		log.Fatalw("seeding failed", "tenant_id", tenantID, "error", err)
	}

	log.Infow("seeding completed successfully", "tenant_id", tenantID)
}

type seeder struct {
	pool      *postgres.Pool
	inventory *inventory.Service
	recipes   *recipe.Service
	orders    orders.Repository
	costing   *costing.Service
}

type materialSeed struct {
	name  string
	unit  inventory.Unit
	cost  string
	alert string
	lots  []lotSeed
}

type lotSeed struct {
	qty, cost string
	age       time.Duration
}

type productSeed struct {
	name   string
	price  string
	recipe map[string]string // material name -> amount per portion
}

var materials = []materialSeed{
	{"Flour", inventory.UnitKilogram, "1.20", "5", []lotSeed{{"10", "0.90", 72 * time.Hour}, {"25", "1.10", 24 * time.Hour}}},
	{"Mozzarella", inventory.UnitKilogram, "9.50", "2", []lotSeed{{"4", "8.80", 48 * time.Hour}}},
	{"Tomato sauce", inventory.UnitLiter, "3.00", "3", []lotSeed{{"6", "2.70", 48 * time.Hour}}},
	{"Basil", inventory.UnitGram, "0.05", "100", []lotSeed{{"150", "0.04", 12 * time.Hour}}},
	{"Espresso beans", inventory.UnitKilogram, "22.00", "1", []lotSeed{{"1.5", "20.00", 96 * time.Hour}}},
}

var products = []productSeed{
	{"Margherita", "11.50", map[string]string{"Flour": "0.25", "Mozzarella": "0.15", "Tomato sauce": "0.1", "Basil": "5"}},
	{"Marinara", "9.00", map[string]string{"Flour": "0.25", "Tomato sauce": "0.15", "Basil": "3"}},
	{"Espresso", "2.50", map[string]string{"Espresso beans": "0.018"}},
}

func (s *seeder) run(ctx context.Context) error {
	now := time.Now().UTC()
	log := logger.FromContext(ctx)

	materialIDs := make(map[string]id.ID, len(materials))
	for _, ms := range materials {
		m := inventory.NewRawMaterial("", ms.name, ms.unit, types.MustMoney(ms.cost), types.MustQuantity(ms.alert))
		if err := s.inventory.CreateRawMaterial(ctx, m); err != nil {
			return fmt.Errorf("raw material %s: %w", ms.name, err)
		}
		materialIDs[ms.name] = m.ID

		for _, ls := range ms.lots {
			receivedAt := now.Add(-ls.age)
			if _, err := s.inventory.ReceiveLot(ctx, inventory.ReceiveLotInput{
				RawMaterialID: m.ID,
				Quantity:      types.MustQuantity(ls.qty),
				UnitCost:      types.MustMoney(ls.cost),
				ReceivedAt:    &receivedAt,
			}); err != nil {
				return fmt.Errorf("lot for %s: %w", ms.name, err)
			}
		}
	}
	log.Infow("seeded raw materials", "count", len(materialIDs))

	productIDs := make([]id.ID, 0, len(products))
	prices := make([]types.Money, 0, len(products))
	for _, ps := range products {
		p := recipe.NewProduct("", ps.name, types.MustMoney(ps.price))
		if err := s.recipes.CreateProduct(ctx, p); err != nil {
			return fmt.Errorf("product %s: %w", ps.name, err)
		}
		items := make([]recipe.ItemInput, 0, len(ps.recipe))
		for name, amount := range ps.recipe {
			items = append(items, recipe.ItemInput{RawMaterialID: materialIDs[name], Amount: types.MustQuantity(amount)})
		}
		if _, err := s.recipes.SetRecipe(ctx, p.ID, items); err != nil {
			return fmt.Errorf("recipe %s: %w", ps.name, err)
		}
		productIDs = append(productIDs, p.ID)
		prices = append(prices, p.Price)
	}
	log.Infow("seeded products", "count", len(productIDs))

	tenantID := tenant.GetTenantID(ctx)
	for i := 0; i < 6; i++ {
		o := orders.NewOrder(tenantID, fmt.Sprintf("DEMO-%03d", i+1), types.Zero())
		total := types.Zero()
		for j, productID := range productIDs {
			qty := int64((i+j)%3 + 1)
			o.AddItem(productID, qty, prices[j])
			total = total.Add(prices[j].Mul(types.NewMoney(float64(qty))))
		}
		o.TotalAmount = total
		if err := s.orders.Create(ctx, o); err != nil {
			return fmt.Errorf("order %s: %w", o.Number, err)
		}
		if _, err := s.costing.Checkout(ctx, o.ID); err != nil {
			return fmt.Errorf("checkout %s: %w", o.Number, err)
		}
	}
	log.Info("seeded and checked out demo orders")

	for i, staff := range []string{"chef-1", "server-1", "server-2"} {
		clockIn := now.Add(-10 * time.Hour)
		_, err := s.pool.Exec(ctx, `
			INSERT INTO staff_shifts (id, tenant_id, staff_id, clock_in, clock_out, hourly_rate)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, id.New(), tenantID, staff, clockIn, clockIn.Add(8*time.Hour), types.NewMoney(float64(14+i*2)))
		if err != nil {
			return fmt.Errorf("shift %s: %w", staff, err)
		}
	}
	log.Info("seeded staff shifts")

	return nil
}
