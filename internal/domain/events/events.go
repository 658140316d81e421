// Package events defines the notifications the costing engine emits and the
// sink they are published to.
package events

import (
	"context"
	"sync"

	"kitchenledger/internal/core/id"
	"kitchenledger/internal/core/types"
)

// Event type names, used as outbox event_type and Pub/Sub attribute.
const (
	TypeLowMarginAlert = "LowMarginAlert"
	TypeStockCritical  = "StockCritical"
)

// Event is a domain event destined for an external notification sink.
type Event interface {
	EventType() string
	AggregateType() string
	AggregateID() id.ID
}

// Publisher delivers events. The postgres implementation writes to the
// outbox inside the caller's transaction.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// LowMarginAlert is raised when an order's profit ratio is under the threshold.
type LowMarginAlert struct {
	TenantID      string      `json:"tenantId"`
	OrderID       id.ID       `json:"orderId"`
	OrderNumber   string      `json:"orderNumber"`
	MarginPercent types.Money `json:"marginPercent"`
	NetProfit     types.Money `json:"netProfit"`
	TotalAmount   types.Money `json:"totalAmount"`
	TotalCost     types.Money `json:"totalCost"`
}

func (LowMarginAlert) EventType() string     { return TypeLowMarginAlert }
func (LowMarginAlert) AggregateType() string { return "Order" }
func (e LowMarginAlert) AggregateID() id.ID  { return e.OrderID }

// StockCritical is raised when a deduction leaves a raw material at or below
// its minimum alert level.
type StockCritical struct {
	TenantID          string         `json:"tenantId"`
	RawMaterialID     id.ID          `json:"rawMaterialId"`
	Name              string         `json:"name"`
	CurrentStock      types.Quantity `json:"currentStock"`
	MinimumAlertLevel types.Quantity `json:"minimumAlertLevel"`
}

func (StockCritical) EventType() string     { return TypeStockCritical }
func (StockCritical) AggregateType() string { return "RawMaterial" }
func (e StockCritical) AggregateID() id.ID  { return e.RawMaterialID }

// NoopPublisher drops every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(_ context.Context, _ Event) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// OfType filters recorded events by type name.
func (r *Recorder) OfType(eventType string) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}

// Reset drops recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
