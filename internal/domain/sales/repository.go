package sales

import (
	"context"

	"github.com/dealerflow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// SequenceCounterRepository is the durable store behind document numbering.
// IncrementAndGet is the only operation that must be atomic under concurrent callers.
type SequenceCounterRepository interface {
	// FindByKey returns the counter for (tenant, type), or nil if none exists yet
	FindByKey(ctx context.Context, tenantID uuid.UUID, docType DocumentType) (*SequenceCounter, error)

	// FindAllForTenant returns every counter a tenant has
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]SequenceCounter, error)

	// IncrementAndGet atomically advances NextNumber by one and returns the post-increment
	// counter. A missing counter is created with NextNumber=2 and the given prefix,
	// which consumes the value 1.
	IncrementAndGet(ctx context.Context, tenantID uuid.UUID, docType DocumentType, defaultPrefix string) (*SequenceCounter, error)

	// Initialize creates the counter with NextNumber=startNumber if none exists.
	// Returns false without changes when the counter already exists.
	Initialize(ctx context.Context, tenantID uuid.UUID, docType DocumentType, startNumber int64, prefix string) (bool, error)

	// UpdatePrefix changes the display prefix of an existing counter
	UpdatePrefix(ctx context.Context, tenantID uuid.UUID, docType DocumentType, prefix string) (*SequenceCounter, error)
}

// SalesDocumentRepository defines the interface for sales document persistence
type SalesDocumentRepository interface {
	// FindByIDForTenant finds a document by ID for a specific tenant
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*SalesDocument, error)

	// FindByNumber finds the non-voided document carrying a number, falling back to a voided one.
	// An empty docType matches every type.
	FindByNumber(ctx context.Context, tenantID uuid.UUID, documentNumber string, docType DocumentType) (*SalesDocument, error)

	// FindAllForTenant finds documents for a tenant with filtering and pagination
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]SalesDocument, error)

	// CountForTenant counts documents for a tenant with the same filters as FindAllForTenant
	CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error)

	// ExistsActiveNumber reports whether a non-voided document already carries the number
	ExistsActiveNumber(ctx context.Context, tenantID uuid.UUID, docType DocumentType, documentNumber string) (bool, error)

	// ListNumbers returns every document number issued for (tenant, type), voided included
	ListNumbers(ctx context.Context, tenantID uuid.UUID, docType DocumentType) ([]string, error)

	// Save creates or updates a document
	Save(ctx context.Context, doc *SalesDocument) error
}
