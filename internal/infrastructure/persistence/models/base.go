package models

import (
	"time"

	"github.com/dealerflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AggregateModel provides the identity, version and timestamp columns of an aggregate root.
// Tenant-scoped models declare TenantID themselves so it can lead their composite indexes.
type AggregateModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Version   int       `gorm:"not null;default:1"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// FromDomainTenantAggregateRoot populates AggregateModel from domain TenantAggregateRoot
func (m *AggregateModel) FromDomainTenantAggregateRoot(t shared.TenantAggregateRoot) {
	m.ID = t.ID
	m.Version = t.Version
	m.CreatedAt = t.CreatedAt
	m.UpdatedAt = t.UpdatedAt
}

// ToDomainTenantAggregateRoot converts the persistence fields back to the domain root
func (m *AggregateModel) ToDomainTenantAggregateRoot(tenantID uuid.UUID) shared.TenantAggregateRoot {
	return shared.TenantAggregateRoot{
		ID:        m.ID,
		TenantID:  tenantID,
		Version:   m.Version,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
