package shared

import (
	"time"

	"github.com/google/uuid"
)

// TenantAggregateRoot carries the identity and bookkeeping fields shared by every
// dealer-scoped aggregate.
type TenantAggregateRoot struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewTenantAggregateRoot creates a new tenant-scoped aggregate root with a fresh ID
func NewTenantAggregateRoot(tenantID uuid.UUID) TenantAggregateRoot {
	now := time.Now()
	return TenantAggregateRoot{
		ID:        uuid.New(),
		TenantID:  tenantID,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch bumps the version and update timestamp after a state change
func (a *TenantAggregateRoot) Touch() {
	a.Version++
	a.UpdatedAt = time.Now()
}
