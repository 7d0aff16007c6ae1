package models

import (
	"time"

	"github.com/dealerflow/backend/internal/domain/sales"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SequenceCounterModel is the persistence model for a per-tenant numbering sequence.
// The composite primary key is the conflict target of the atomic upsert.
type SequenceCounterModel struct {
	TenantID     uuid.UUID          `gorm:"type:uuid;primaryKey"`
	DocumentType sales.DocumentType `gorm:"type:varchar(30);primaryKey"`
	NextNumber   int64              `gorm:"not null"`
	Prefix       string             `gorm:"type:varchar(10);not null"`
	CreatedAt    time.Time          `gorm:"not null"`
	UpdatedAt    time.Time          `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SequenceCounterModel) TableName() string {
	return "sequence_counters"
}

// ToDomain converts the persistence model to a domain SequenceCounter
func (m *SequenceCounterModel) ToDomain() *sales.SequenceCounter {
	return &sales.SequenceCounter{
		TenantID:     m.TenantID,
		DocumentType: m.DocumentType,
		NextNumber:   m.NextNumber,
		Prefix:       m.Prefix,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

// SalesDocumentModel is the persistence model for the SalesDocument aggregate root.
// Document numbers are unique per tenant and type among non-voided rows only.
type SalesDocumentModel struct {
	AggregateModel
	TenantID       uuid.UUID            `gorm:"type:uuid;not null;index;uniqueIndex:idx_sales_documents_active_number,priority:1,where:status <> 'voided'"`
	DocumentType   sales.DocumentType   `gorm:"type:varchar(30);not null;uniqueIndex:idx_sales_documents_active_number,priority:2"`
	DocumentNumber string               `gorm:"type:varchar(50);not null;index;uniqueIndex:idx_sales_documents_active_number,priority:3"`
	SequenceNumber int64                `gorm:"not null"`
	Status         sales.DocumentStatus `gorm:"type:varchar(20);not null;default:'issued';index"`
	CustomerName   string               `gorm:"type:varchar(200);not null"`
	VehicleVRM     string               `gorm:"column:vehicle_vrm;type:varchar(20);index"`
	Amount         decimal.Decimal      `gorm:"type:decimal(18,2);not null"`
	Notes          string               `gorm:"type:text"`
	IssuedBy       *uuid.UUID           `gorm:"type:uuid"`
	IssuedAt       time.Time            `gorm:"not null;index"`
	VoidedAt       *time.Time
	VoidReason     string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (SalesDocumentModel) TableName() string {
	return "sales_documents"
}

// ToDomain converts the persistence model to a domain SalesDocument
func (m *SalesDocumentModel) ToDomain() *sales.SalesDocument {
	return &sales.SalesDocument{
		TenantAggregateRoot: m.ToDomainTenantAggregateRoot(m.TenantID),
		DocumentType:        m.DocumentType,
		DocumentNumber:      m.DocumentNumber,
		SequenceNumber:      m.SequenceNumber,
		Status:              m.Status,
		CustomerName:        m.CustomerName,
		VehicleVRM:          m.VehicleVRM,
		Amount:              m.Amount,
		Notes:               m.Notes,
		IssuedBy:            m.IssuedBy,
		IssuedAt:            m.IssuedAt,
		VoidedAt:            m.VoidedAt,
		VoidReason:          m.VoidReason,
	}
}

// FromDomain populates the persistence model from a domain SalesDocument
func (m *SalesDocumentModel) FromDomain(d *sales.SalesDocument) {
	m.FromDomainTenantAggregateRoot(d.TenantAggregateRoot)
	m.TenantID = d.TenantID
	m.DocumentType = d.DocumentType
	m.DocumentNumber = d.DocumentNumber
	m.SequenceNumber = d.SequenceNumber
	m.Status = d.Status
	m.CustomerName = d.CustomerName
	m.VehicleVRM = d.VehicleVRM
	m.Amount = d.Amount
	m.Notes = d.Notes
	m.IssuedBy = d.IssuedBy
	m.IssuedAt = d.IssuedAt
	m.VoidedAt = d.VoidedAt
	m.VoidReason = d.VoidReason
}

// SalesDocumentModelFromDomain creates a new persistence model from a domain SalesDocument
func SalesDocumentModelFromDomain(d *sales.SalesDocument) *SalesDocumentModel {
	m := &SalesDocumentModel{}
	m.FromDomain(d)
	return m
}
