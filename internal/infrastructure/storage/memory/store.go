// Package memory is an in-process implementation of every repository and of
// tx.Manager. It backs domain tests and the development server when no
// database is configured.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"kitchenledger/internal/core/entity"
	"kitchenledger/internal/core/id"
	"kitchenledger/internal/core/tenant"
	"kitchenledger/internal/core/types"
	"kitchenledger/internal/domain/inventory"
	"kitchenledger/internal/domain/orders"
	"kitchenledger/internal/domain/recipe"
)

// Shift is a worked staff shift, the labor cost input of the P&L report.
type Shift struct {
	TenantID   string
	StaffID    string
	ClockIn    time.Time
	ClockOut   time.Time
	HourlyRate types.Money
}

type state struct {
	rawMaterials map[id.ID]inventory.RawMaterial
	lots         map[id.ID]inventory.StockLot
	movements    []entity.StockMovement
	products     map[id.ID]recipe.Product
	recipeItems  map[id.ID][]recipe.Item
	orders       map[id.ID]orders.Order
	shifts       []Shift
	sequences    map[string]int64
}

func newState() state {
	return state{
		rawMaterials: map[id.ID]inventory.RawMaterial{},
		lots:         map[id.ID]inventory.StockLot{},
		products:     map[id.ID]recipe.Product{},
		recipeItems:  map[id.ID][]recipe.Item{},
		orders:       map[id.ID]orders.Order{},
		sequences:    map[string]int64{},
	}
}

func (s state) clone() state {
	c := newState()
	for k, v := range s.rawMaterials {
		c.rawMaterials[k] = v
	}
	for k, v := range s.lots {
		c.lots[k] = v
	}
	c.movements = append([]entity.StockMovement(nil), s.movements...)
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.recipeItems {
		c.recipeItems[k] = append([]recipe.Item(nil), v...)
	}
	for k, v := range s.orders {
		v.Items = append([]orders.Item(nil), v.Items...)
		c.orders[k] = v
	}
	c.shifts = append([]Shift(nil), s.shifts...)
	for k, v := range s.sequences {
		c.sequences[k] = v
	}
	return c
}

// Store holds all data in memory. Transactions are serialized and roll back
// to a snapshot on error, which stands in for row locks.
type Store struct {
	mu   sync.Mutex
	data state

	txMu sync.Mutex

	failMu   sync.Mutex
	failures map[string][]error
}

// New creates an empty store.
func New() *Store {
	return &Store{data: newState(), failures: map[string][]error{}}
}

// FailNext makes the next call of op return err. Ops are repository method
// names, e.g. "SaveCosting".
func (s *Store) FailNext(op string, err error) {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	s.failures[op] = append(s.failures[op], err)
}

func (s *Store) injected(op string) error {
	s.failMu.Lock()
	defer s.failMu.Unlock()
	queue := s.failures[op]
	if len(queue) == 0 {
		return nil
	}
	s.failures[op] = queue[1:]
	return queue[0]
}

func tenantOf(ctx context.Context) (string, error) {
	tenantID := tenant.GetTenantID(ctx)
	if tenantID == "" {
		return "", fmt.Errorf("memory store: %w", tenant.ErrNoTenantInContext)
	}
	return tenantID, nil
}

// AddShift records a worked shift for labor cost.
func (s *Store) AddShift(sh Shift) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.shifts = append(s.data.shifts, sh)
}
