// Package entity provides core domain entities.
package entity

import (
	"context"
	"time"

	"kitchenledger/internal/core/apperror"
	"kitchenledger/internal/core/id"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants (without database access).
type Validatable interface {
	// Validate checks entity invariants.
	// Returns nil if valid, AppError with details otherwise.
	Validate(ctx context.Context) error
}

// BaseEntity contains common fields for all tenant-owned entities.
type BaseEntity struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// TenantID is the opaque owner of the row. Every query filters on it.
	TenantID string `db:"tenant_id" json:"tenantId"`

	// Version for optimistic locking (incremented on each update)
	Version int `db:"version" json:"version"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewBaseEntity creates a new BaseEntity with generated ID.
func NewBaseEntity(tenantID string) BaseEntity {
	now := time.Now().UTC()
	return BaseEntity{
		ID:        id.New(),
		TenantID:  tenantID,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch increments version and refreshes UpdatedAt.
func (b *BaseEntity) Touch() {
	b.Version++
	b.UpdatedAt = time.Now().UTC()
}

// Validate checks the fields every tenant-owned row must carry.
func (b *BaseEntity) Validate(_ context.Context) error {
	if b.TenantID == "" {
		return apperror.NewTenantRequired()
	}
	if id.IsNil(b.ID) {
		return apperror.NewValidation("id is required").WithDetail("field", "id")
	}
	return nil
}
