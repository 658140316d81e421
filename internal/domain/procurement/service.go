// Package procurement proposes purchase quantities for raw materials that
// have fallen to their alert level.
package procurement

import (
	"context"
	"fmt"
	"sort"
	"time"

	"kitchenledger/internal/core/id"
	"kitchenledger/internal/core/tenant"
	"kitchenledger/internal/core/types"
	"kitchenledger/internal/domain/inventory"
	"kitchenledger/pkg/logger"
)

// DefaultTargetStock is the reorder target for materials without an alert level.
var DefaultTargetStock = types.NewQuantity(10)

// SuggestedOrder is one replenishment proposal.
type SuggestedOrder struct {
	RawMaterialID     id.ID          `json:"rawMaterialId"`
	Name              string         `json:"name"`
	Unit              inventory.Unit `json:"unit"`
	CurrentStock      types.Quantity `json:"currentStock"`
	MinimumAlertLevel types.Quantity `json:"minimumAlertLevel"`
	TargetStock       types.Quantity `json:"targetStock"`
	SuggestedQuantity types.Quantity `json:"suggestedQuantity"`
	CostPerUnit       types.Money    `json:"costPerUnit"`
	EstimatedCost     types.Money    `json:"estimatedCost"`
}

// Repository lists raw materials where current_stock <= minimum_alert_level.
type Repository interface {
	ListBelowAlertLevel(ctx context.Context) ([]*inventory.RawMaterial, error)
}

// Cache stores computed suggestions. A miss returns false with no error.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// Service is the replenishment advisor.
type Service struct {
	repo     Repository
	cache    Cache
	cacheTTL time.Duration
}

// NewService creates a new procurement service. cache may be nil.
func NewService(repo Repository, cache Cache, cacheTTL time.Duration) *Service {
	return &Service{repo: repo, cache: cache, cacheTTL: cacheTTL}
}

// GetSuggestedOrders proposes reorder quantities, highest estimated cost first.
func (s *Service) GetSuggestedOrders(ctx context.Context) ([]SuggestedOrder, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}

	key := "procurement:suggestions:" + tenantID
	if s.cache != nil {
		var cached []SuggestedOrder
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			logger.Warn(ctx, "suggestion cache read failed", "error", err)
		} else if hit {
			return cached, nil
		}
	}

	materials, err := s.repo.ListBelowAlertLevel(ctx)
	if err != nil {
		return nil, fmt.Errorf("list materials below alert level: %w", err)
	}

	suggestions := BuildSuggestions(materials)

	if s.cache != nil && s.cacheTTL > 0 {
		if err := s.cache.Set(ctx, key, suggestions, s.cacheTTL); err != nil {
			logger.Warn(ctx, "suggestion cache write failed", "error", err)
		}
	}

	return suggestions, nil
}

// BuildSuggestions targets twice the alert level (DefaultTargetStock when the
// level is zero) and drops materials already at or above target.
func BuildSuggestions(materials []*inventory.RawMaterial) []SuggestedOrder {
	suggestions := make([]SuggestedOrder, 0, len(materials))
	for _, m := range materials {
		if m.CurrentStock > m.MinimumAlertLevel {
			continue
		}

		// alert levels are bounded by types.MaxQuantity
		target := m.MinimumAlertLevel * 2
		if m.MinimumAlertLevel.IsZero() {
			target = DefaultTargetStock
		}

		qty := target - m.CurrentStock
		if !qty.IsPositive() {
			continue
		}

		suggestions = append(suggestions, SuggestedOrder{
			RawMaterialID:     m.ID,
			Name:              m.Name,
			Unit:              m.Unit,
			CurrentStock:      m.CurrentStock,
			MinimumAlertLevel: m.MinimumAlertLevel,
			TargetStock:       target,
			SuggestedQuantity: qty,
			CostPerUnit:       m.CostPerUnit,
			EstimatedCost:     qty.Cost(m.CostPerUnit),
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		if !suggestions[i].EstimatedCost.Equal(suggestions[j].EstimatedCost) {
			return suggestions[i].EstimatedCost.GreaterThan(suggestions[j].EstimatedCost)
		}
		return suggestions[i].Name < suggestions[j].Name
	})

	return suggestions
}
