package sales

import (
	"time"

	"github.com/dealerflow/backend/internal/domain/sales"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// ==================== Sales Document DTOs ====================

// IssueDocumentRequest represents a request to issue a new sales document
type IssueDocumentRequest struct {
	DocumentType string          `json:"document_type" binding:"required,document_type"`
	CustomerName string          `json:"customer_name" binding:"required,min=1,max=200"`
	VehicleVRM   string          `json:"vehicle_vrm" binding:"max=20"`
	Amount       decimal.Decimal `json:"amount"`
	Notes        string          `json:"notes" binding:"max=2000"`
	IssuedBy     *uuid.UUID      `json:"issued_by"`
}

// VoidDocumentRequest represents a request to void an issued document
type VoidDocumentRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// SalesDocumentListFilter represents filter options for the document list
type SalesDocumentListFilter struct {
	Search       string     `form:"search"`
	DocumentType string     `form:"document_type" binding:"omitempty,document_type"`
	Status       string     `form:"status" binding:"omitempty,oneof=issued voided"`
	VehicleVRM   string     `form:"vehicle_vrm"`
	IssuedFrom   *time.Time `form:"issued_from" time_format:"2006-01-02"`
	IssuedTo     *time.Time `form:"issued_to" time_format:"2006-01-02"`
	Page         int        `form:"page" binding:"omitempty,min=1"`
	PageSize     int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy      string     `form:"order_by"`
	OrderDir     string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// SalesDocumentResponse represents a sales document in API responses
type SalesDocumentResponse struct {
	ID             uuid.UUID       `json:"id"`
	TenantID       uuid.UUID       `json:"tenant_id"`
	DocumentType   string          `json:"document_type"`
	DocumentNumber string          `json:"document_number"`
	SequenceNumber int64           `json:"sequence_number"`
	Status         string          `json:"status"`
	CustomerName   string          `json:"customer_name"`
	VehicleVRM     string          `json:"vehicle_vrm,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	Notes          string          `json:"notes,omitempty"`
	IssuedBy       *uuid.UUID      `json:"issued_by,omitempty"`
	IssuedAt       time.Time       `json:"issued_at"`
	VoidedAt       *time.Time      `json:"voided_at,omitempty"`
	VoidReason     string          `json:"void_reason,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Version        int             `json:"version"`
}

// SalesDocumentListItemResponse represents a document in list responses
type SalesDocumentListItemResponse struct {
	ID             uuid.UUID       `json:"id"`
	DocumentType   string          `json:"document_type"`
	DocumentNumber string          `json:"document_number"`
	Status         string          `json:"status"`
	CustomerName   string          `json:"customer_name"`
	VehicleVRM     string          `json:"vehicle_vrm,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	IssuedAt       time.Time       `json:"issued_at"`
}

// ToSalesDocumentResponse converts a domain document to its API shape
func ToSalesDocumentResponse(doc *sales.SalesDocument) SalesDocumentResponse {
	return SalesDocumentResponse{
		ID:             doc.ID,
		TenantID:       doc.TenantID,
		DocumentType:   doc.DocumentType.String(),
		DocumentNumber: doc.DocumentNumber,
		SequenceNumber: doc.SequenceNumber,
		Status:         doc.Status.String(),
		CustomerName:   doc.CustomerName,
		VehicleVRM:     doc.VehicleVRM,
		Amount:         doc.Amount,
		Notes:          doc.Notes,
		IssuedBy:       doc.IssuedBy,
		IssuedAt:       doc.IssuedAt,
		VoidedAt:       doc.VoidedAt,
		VoidReason:     doc.VoidReason,
		CreatedAt:      doc.CreatedAt,
		UpdatedAt:      doc.UpdatedAt,
		Version:        doc.Version,
	}
}

// ToSalesDocumentListItemResponses converts documents to list items
func ToSalesDocumentListItemResponses(docs []sales.SalesDocument) []SalesDocumentListItemResponse {
	return lo.Map(docs, func(doc sales.SalesDocument, _ int) SalesDocumentListItemResponse {
		return SalesDocumentListItemResponse{
			ID:             doc.ID,
			DocumentType:   doc.DocumentType.String(),
			DocumentNumber: doc.DocumentNumber,
			Status:         doc.Status.String(),
			CustomerName:   doc.CustomerName,
			VehicleVRM:     doc.VehicleVRM,
			Amount:         doc.Amount,
			IssuedAt:       doc.IssuedAt,
		}
	})
}

// ==================== Sequence Counter DTOs ====================

// InitializeCounterRequest seeds a counter, typically when migrating historical documents.
// A nil prefix selects the document type's default.
type InitializeCounterRequest struct {
	StartNumber int64   `json:"start_number" binding:"required,min=1"`
	Prefix      *string `json:"prefix" binding:"omitempty,doc_prefix"`
}

// UpdatePrefixRequest changes the display prefix of a counter
type UpdatePrefixRequest struct {
	Prefix string `json:"prefix" binding:"doc_prefix"`
}

// SequenceCounterResponse represents a counter in API responses
type SequenceCounterResponse struct {
	DocumentType       string    `json:"document_type"`
	Prefix             string    `json:"prefix"`
	NextNumber         int64     `json:"next_number"`
	LastAllocated      int64     `json:"last_allocated"`
	NextDocumentNumber string    `json:"next_document_number"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// InitializeCounterResponse reports whether the counter was created by the call
type InitializeCounterResponse struct {
	Created bool                    `json:"created"`
	Counter SequenceCounterResponse `json:"counter"`
}

// ToSequenceCounterResponse converts a counter to its API shape.
// NextDocumentNumber is a preview; collisions may cause a later number to be issued.
func ToSequenceCounterResponse(c *sales.SequenceCounter) SequenceCounterResponse {
	return SequenceCounterResponse{
		DocumentType:       c.DocumentType.String(),
		Prefix:             c.Prefix,
		NextNumber:         c.NextNumber,
		LastAllocated:      c.LastAllocated(),
		NextDocumentNumber: sales.FormatDocumentNumber(c.Prefix, c.NextNumber),
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}

// ToSequenceCounterResponses converts a slice of counters
func ToSequenceCounterResponses(counters []sales.SequenceCounter) []SequenceCounterResponse {
	return lo.Map(counters, func(c sales.SequenceCounter, _ int) SequenceCounterResponse {
		return ToSequenceCounterResponse(&c)
	})
}
