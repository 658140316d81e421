// Package costing turns a paid order into stock consumption and cost of goods
// sold, and owns the checkout transaction boundary.
package costing

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"kitchenledger/internal/core/apperror"
	"kitchenledger/internal/core/id"
	"kitchenledger/internal/core/tenant"
	"kitchenledger/internal/core/tx"
	"kitchenledger/internal/core/types"
	"kitchenledger/internal/domain/events"
	"kitchenledger/internal/domain/inventory"
	"kitchenledger/internal/domain/orders"
	"kitchenledger/internal/domain/recipe"
	"kitchenledger/pkg/logger"
)

var tracer = otel.Tracer("kitchenledger/costing")

// LowMarginThreshold is the margin percentage under which an order raises an alert.
var LowMarginThreshold = decimal.NewFromInt(20)

// Config controls costing behaviour.
type Config struct {
	// Idempotent skips orders whose stock was already deducted. When false a
	// second run deducts again and overwrites the order's figures.
	Idempotent bool

	// MaxRetries bounds checkout attempts on serialization conflicts.
	MaxRetries int

	// RetryBackoff is multiplied by the attempt number between retries.
	RetryBackoff time.Duration
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		Idempotent:   true,
		MaxRetries:   3,
		RetryBackoff: 25 * time.Millisecond,
	}
}

// Result describes what costing did for one order.
type Result struct {
	OrderID id.ID `json:"orderId"`

	// OrderFound is false when the order does not exist; nothing was changed.
	OrderFound bool `json:"orderFound"`
	// AlreadyProcessed is true when an idempotent run found the order costed.
	AlreadyProcessed bool `json:"alreadyProcessed"`

	TotalAmount   types.Money `json:"totalAmount"`
	TotalCost     types.Money `json:"totalCost"`
	NetProfit     types.Money `json:"netProfit"`
	MarginPercent types.Money `json:"marginPercent"`
	LowMargin     bool        `json:"lowMargin"`

	Deductions []inventory.Deduction `json:"deductions"`

	// SkippedItems are order lines whose product no longer exists.
	SkippedItems []id.ID `json:"skippedItems,omitempty"`
	// SkippedRawMaterials are recipe ingredients that no longer exist.
	SkippedRawMaterials []id.ID `json:"skippedRawMaterials,omitempty"`
}

// Service is the order costing orchestrator.
type Service struct {
	orders    orders.Repository
	recipes   recipe.Repository
	inventory *inventory.Service
	txManager tx.Manager
	publisher events.Publisher
	cfg       Config
	now       func() time.Time
}

// NewService creates a new costing service.
func NewService(
	orderRepo orders.Repository,
	recipeRepo recipe.Repository,
	inventoryService *inventory.Service,
	txManager tx.Manager,
	publisher events.Publisher,
	cfg Config,
) *Service {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	return &Service{
		orders:    orderRepo,
		recipes:   recipeRepo,
		inventory: inventoryService,
		txManager: txManager,
		publisher: publisher,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ProcessOrderStock deducts stock for every recipe ingredient of a paid
// order and writes the order's total cost and net profit.
//
// Data gaps never fail the call: a missing order, product or raw material is
// logged at WARN and reported in the Result. An order that is not paid is
// refused with ORDER_NOT_PAID and nothing is deducted. Otherwise only storage
// failures return an error. Run it inside the checkout transaction; on its own it opens one.
func (s *Service) ProcessOrderStock(ctx context.Context, orderID id.ID) (*Result, error) {
	ctx, span := tracer.Start(ctx, "costing.ProcessOrderStock")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID.String()))

	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}

	var result *Result
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		result, err = s.processOrderStock(ctx, tenantID, orderID)
		return err
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String("order.total_cost", result.TotalCost.String()),
		attribute.Bool("order.low_margin", result.LowMargin),
	)
	return result, nil
}

func (s *Service) processOrderStock(ctx context.Context, tenantID string, orderID id.ID) (*Result, error) {
	result := &Result{OrderID: orderID, TotalCost: types.Zero()}

	order, err := s.orders.GetWithItemsForUpdate(ctx, orderID)
	if err != nil {
		if apperror.IsNotFound(err) {
			logger.Warn(ctx, "order not found for costing, nothing deducted", "order_id", orderID)
			return result, nil
		}
		return nil, fmt.Errorf("load order: %w", err)
	}
	result.OrderFound = true

	if order.Status != orders.StatusPaid {
		logger.Warn(ctx, "order is not paid, stock not deducted",
			"order_id", orderID,
			"status", order.Status,
		)
		return nil, apperror.NewBusinessRule(apperror.CodeOrderNotPaid, "order must be paid before stock is deducted").
			WithDetail("order_id", orderID).
			WithDetail("status", order.Status)
	}

	if s.cfg.Idempotent && order.IsStockProcessed() {
		logger.Info(ctx, "order stock already processed, skipping",
			"order_id", orderID,
			"stock_processed_at", order.StockProcessedAt,
		)
		result.AlreadyProcessed = true
		fillFigures(result, order)
		return result, nil
	}

	recipes, err := s.recipes.GetProductRecipes(ctx, order.ProductIDs())
	if err != nil {
		return nil, fmt.Errorf("load recipes: %w", err)
	}

	required := make(map[id.ID]types.Quantity)
	for _, line := range order.Items {
		r, ok := recipes[line.ProductID]
		if !ok {
			logger.Warn(ctx, "product not found for order line, line costs nothing",
				"order_id", orderID,
				"order_item_id", line.ID,
				"product_id", line.ProductID,
			)
			result.SkippedItems = append(result.SkippedItems, line.ID)
			continue
		}
		needs, err := r.Requirements(line.Quantity)
		if err != nil {
			return nil, lineOutOfRange(line, err)
		}
		for rawMaterialID, qty := range needs {
			if required[rawMaterialID], err = required[rawMaterialID].Add(qty); err != nil {
				return nil, lineOutOfRange(line, err)
			}
		}
	}

	// Consistent lock order across concurrent checkouts.
	materialIDs := make([]id.ID, 0, len(required))
	for rawMaterialID := range required {
		materialIDs = append(materialIDs, rawMaterialID)
	}
	sort.Slice(materialIDs, func(i, j int) bool { return id.Less(materialIDs[i], materialIDs[j]) })

	totalCost := types.Zero()
	for _, rawMaterialID := range materialIDs {
		d, err := s.inventory.DeductStock(ctx, rawMaterialID, required[rawMaterialID], order.ID)
		if err != nil {
			if apperror.IsNotFound(err) {
				logger.Warn(ctx, "raw material not found for recipe, ingredient costs nothing",
					"order_id", orderID,
					"raw_material_id", rawMaterialID,
				)
				result.SkippedRawMaterials = append(result.SkippedRawMaterials, rawMaterialID)
				continue
			}
			return nil, fmt.Errorf("deduct stock %s: %w", rawMaterialID, err)
		}
		totalCost = totalCost.Add(d.TotalCost)
		result.Deductions = append(result.Deductions, *d)
	}

	order.ApplyCosting(totalCost, s.now())
	if err := s.orders.SaveCosting(ctx, order); err != nil {
		return nil, fmt.Errorf("save order costing: %w", err)
	}
	fillFigures(result, order)

	if IsLowMargin(order.TotalAmount, order.NetProfit) {
		result.LowMargin = true
		logger.Warn(ctx, "low margin order",
			"order_id", order.ID,
			"order_number", order.Number,
			"margin_percent", result.MarginPercent,
			"net_profit", order.NetProfit,
		)
		err := s.publisher.Publish(ctx, events.LowMarginAlert{
			TenantID:      tenantID,
			OrderID:       order.ID,
			OrderNumber:   order.Number,
			MarginPercent: result.MarginPercent,
			NetProfit:     order.NetProfit,
			TotalAmount:   order.TotalAmount,
			TotalCost:     order.TotalCost,
		})
		if err != nil {
			return nil, fmt.Errorf("publish low margin alert: %w", err)
		}
	}

	logger.Info(ctx, "order costed",
		"order_id", order.ID,
		"total_amount", order.TotalAmount,
		"total_cost", order.TotalCost,
		"net_profit", order.NetProfit,
		"materials", len(result.Deductions),
	)

	return result, nil
}

func lineOutOfRange(line orders.Item, err error) error {
	return apperror.NewValidation("order line quantity is out of range").
		WithDetail("order_item_id", line.ID).
		WithDetail("quantity", line.Quantity).
		WithCause(err)
}

// IsLowMargin reports whether netProfit/totalAmount*100 is under the
// threshold. Orders without revenue never alert.
func IsLowMargin(totalAmount, netProfit types.Money) bool {
	if !totalAmount.IsPositive() {
		return false
	}
	margin := netProfit.Div(totalAmount).Mul(decimal.NewFromInt(100))
	return margin.LessThan(LowMarginThreshold)
}

func fillFigures(r *Result, o *orders.Order) {
	r.TotalAmount = o.TotalAmount
	r.TotalCost = o.TotalCost
	r.NetProfit = o.NetProfit
	r.MarginPercent = o.MarginPercent()
}

// Checkout marks an order paid and costs it in one transaction. Either both
// happen or neither does. Serialization conflicts and deadlocks are retried;
// any other storage failure surfaces as CHECKOUT_FAILED.
func (s *Service) Checkout(ctx context.Context, orderID id.ID) (*Result, error) {
	ctx, span := tracer.Start(ctx, "costing.Checkout")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID.String()))

	if _, err := tenant.RequireTenantID(ctx); err != nil {
		return nil, err
	}

	var lastErr error
retry:
	for attempt := 1; attempt <= s.cfg.MaxRetries; attempt++ {
		result, err := s.checkoutOnce(ctx, orderID)
		if err == nil {
			span.SetAttributes(attribute.Int("checkout.attempts", attempt))
			return result, nil
		}
		lastErr = err

		if appErr, ok := apperror.AsAppError(err); ok && appErr.HTTPStatus < 500 {
			return nil, err
		}
		if !tx.IsRetryable(err) || attempt == s.cfg.MaxRetries {
			break retry
		}

		logger.Warn(ctx, "checkout conflict, retrying",
			"order_id", orderID,
			"attempt", attempt,
			"error", err,
		)
		select {
		case <-ctx.Done():
			lastErr = ctx.Err()
			break retry
		case <-time.After(s.cfg.RetryBackoff * time.Duration(attempt)):
		}
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, lastErr.Error())
	logger.Error(ctx, "checkout failed", "order_id", orderID, "error", lastErr)
	return nil, apperror.NewCheckoutFailed(orderID, lastErr)
}

func (s *Service) checkoutOnce(ctx context.Context, orderID id.ID) (*Result, error) {
	var result *Result
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		order, err := s.orders.GetWithItemsForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := order.CanCheckout(); err != nil {
			return err
		}

		order.MarkPaid(s.now())
		if err := s.orders.SaveStatus(ctx, order); err != nil {
			return fmt.Errorf("mark order paid: %w", err)
		}

		result, err = s.ProcessOrderStock(ctx, orderID)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "order checked out", "order_id", orderID, "total_cost", result.TotalCost)
	return result, nil
}
