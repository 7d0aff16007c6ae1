package sales

import (
	"fmt"
	"strings"
	"time"

	"github.com/dealerflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DocumentStatus represents the lifecycle status of an issued sales document
type DocumentStatus string

const (
	DocumentStatusIssued DocumentStatus = "issued"
	DocumentStatusVoided DocumentStatus = "voided"
)

// IsValid checks if the status is a valid DocumentStatus
func (s DocumentStatus) IsValid() bool {
	switch s {
	case DocumentStatusIssued, DocumentStatusVoided:
		return true
	}
	return false
}

// String returns the string representation of DocumentStatus
func (s DocumentStatus) String() string {
	return string(s)
}

// SalesDocument is an invoice, deposit receipt or credit note issued by a dealer.
// DocumentNumber is assigned once at issue time and never changes.
type SalesDocument struct {
	shared.TenantAggregateRoot
	DocumentType   DocumentType
	DocumentNumber string
	SequenceNumber int64
	Status         DocumentStatus
	CustomerName   string
	VehicleVRM     string
	Amount         decimal.Decimal
	Notes          string
	IssuedBy       *uuid.UUID
	IssuedAt       time.Time
	VoidedAt       *time.Time
	VoidReason     string
}

// NewSalesDocument creates an issued sales document carrying an allocated number
func NewSalesDocument(tenantID uuid.UUID, docType DocumentType, documentNumber string, sequenceNumber int64, customerName string, amount decimal.Decimal) (*SalesDocument, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Tenant ID is required")
	}
	if !docType.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Unknown document type: "+docType.String())
	}
	if documentNumber == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Document number is required")
	}
	customerName = strings.TrimSpace(customerName)
	if customerName == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Customer name is required")
	}
	if len(customerName) > 200 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Customer name cannot exceed 200 characters")
	}
	if amount.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Amount cannot be negative")
	}

	root := shared.NewTenantAggregateRoot(tenantID)
	return &SalesDocument{
		TenantAggregateRoot: root,
		DocumentType:        docType,
		DocumentNumber:      documentNumber,
		SequenceNumber:      sequenceNumber,
		Status:              DocumentStatusIssued,
		CustomerName:        customerName,
		Amount:              amount.Round(2),
		IssuedAt:            root.CreatedAt,
	}, nil
}

// SetVehicle records the registration mark of the vehicle the document relates to
func (d *SalesDocument) SetVehicle(vrm string) {
	d.VehicleVRM = NormalizeVRM(vrm)
}

// SetNotes sets free-text notes
func (d *SalesDocument) SetNotes(notes string) {
	d.Notes = notes
}

// SetIssuedBy records the user who issued the document
func (d *SalesDocument) SetIssuedBy(userID uuid.UUID) {
	d.IssuedBy = &userID
}

// IsVoided reports whether the document has been cancelled
func (d *SalesDocument) IsVoided() bool {
	return d.Status == DocumentStatusVoided
}

// Void cancels an issued document. The number stays attached to the document.
func (d *SalesDocument) Void(reason string) error {
	if d.Status != DocumentStatusIssued {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot void document in %s status", d.Status))
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Void reason is required")
	}

	now := time.Now()
	d.Status = DocumentStatusVoided
	d.VoidedAt = &now
	d.VoidReason = reason
	d.Touch()
	return nil
}

// NormalizeVRM upper-cases a vehicle registration mark and strips whitespace
func NormalizeVRM(vrm string) string {
	return strings.ToUpper(strings.Join(strings.Fields(vrm), ""))
}
