package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dealerflow/backend/internal/application/numbering"
	"github.com/dealerflow/backend/internal/domain/sales"
	"github.com/dealerflow/backend/internal/domain/shared"
	"github.com/dealerflow/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NumberAllocator reserves document numbers
type NumberAllocator interface {
	Allocate(ctx context.Context, tenantID uuid.UUID, docType sales.DocumentType, defaultPrefix string, opts ...numbering.Option) (*numbering.Allocation, error)
}

// IssueResult is the outcome of an issue request.
// Replayed is true when an Idempotency-Key matched an earlier request.
type IssueResult struct {
	Document SalesDocumentResponse
	Replayed bool
}

// DocumentService handles issuing and voiding sales documents
type DocumentService struct {
	docRepo     sales.SalesDocumentRepository
	allocator   NumberAllocator
	idempotency shared.IdempotencyStore
	idemTTL     time.Duration
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(docRepo sales.SalesDocumentRepository, allocator NumberAllocator) *DocumentService {
	return &DocumentService{
		docRepo:   docRepo,
		allocator: allocator,
	}
}

// SetIdempotencyStore enables Idempotency-Key handling on Issue
func (s *DocumentService) SetIdempotencyStore(store shared.IdempotencyStore, ttl time.Duration) {
	if ttl <= 0 {
		ttl = shared.DefaultIdempotencyConfig().TTL
	}
	s.idempotency = store
	s.idemTTL = ttl
}

// Issue allocates a number and issues a new document.
// With a non-empty idempotencyKey, a repeated request returns the document issued the first time.
func (s *DocumentService) Issue(ctx context.Context, tenantID uuid.UUID, req IssueDocumentRequest, idempotencyKey string) (*IssueResult, error) {
	docType, err := sales.ParseDocumentType(req.DocumentType)
	if err != nil {
		return nil, err
	}

	key := s.idempotencyKey(tenantID, idempotencyKey)
	if key != "" {
		if replay, err := s.replay(ctx, tenantID, key); err != nil || replay != nil {
			return replay, err
		}
	}

	alloc, err := s.allocator.Allocate(ctx, tenantID, docType, docType.DefaultPrefix())
	if err != nil {
		return nil, err
	}

	doc, err := sales.NewSalesDocument(tenantID, docType, alloc.DocumentNumber, alloc.Number, req.CustomerName, req.Amount)
	if err != nil {
		return nil, err
	}
	if req.VehicleVRM != "" {
		doc.SetVehicle(req.VehicleVRM)
	}
	if req.Notes != "" {
		doc.SetNotes(req.Notes)
	}
	if req.IssuedBy != nil {
		doc.SetIssuedBy(*req.IssuedBy)
	}

	if err := s.docRepo.Save(ctx, doc); err != nil {
		return nil, err
	}

	logger.L(ctx).Info("Sales document issued",
		zap.String("document_id", doc.ID.String()),
		zap.String("document_number", doc.DocumentNumber),
		zap.String("document_type", docType.String()),
		zap.Int("allocation_attempts", alloc.Attempts),
	)

	if key != "" {
		s.remember(ctx, tenantID, key, doc)
	}

	return &IssueResult{Document: ToSalesDocumentResponse(doc)}, nil
}

// Void cancels an issued document. The number it carried becomes free for reissue.
func (s *DocumentService) Void(ctx context.Context, tenantID, documentID uuid.UUID, req VoidDocumentRequest) (*SalesDocumentResponse, error) {
	doc, err := s.docRepo.FindByIDForTenant(ctx, tenantID, documentID)
	if err != nil {
		return nil, err
	}

	if err := doc.Void(req.Reason); err != nil {
		return nil, err
	}

	if err := s.docRepo.Save(ctx, doc); err != nil {
		if errors.Is(err, shared.ErrConcurrentModification) {
			return nil, s.voidConflict(ctx, tenantID, documentID, req.Reason, err)
		}
		return nil, err
	}

	logger.L(ctx).Info("Sales document voided",
		zap.String("document_id", doc.ID.String()),
		zap.String("document_number", doc.DocumentNumber),
	)

	response := ToSalesDocumentResponse(doc)
	return &response, nil
}

// voidConflict reports a lost void race as INVALID_STATE when the winner already voided the document
func (s *DocumentService) voidConflict(ctx context.Context, tenantID, documentID uuid.UUID, reason string, saveErr error) error {
	current, err := s.docRepo.FindByIDForTenant(ctx, tenantID, documentID)
	if err != nil {
		return saveErr
	}
	if voidErr := current.Void(reason); errors.Is(voidErr, shared.ErrInvalidState) {
		return voidErr
	}
	return saveErr
}

// GetByID retrieves a document by ID
func (s *DocumentService) GetByID(ctx context.Context, tenantID, documentID uuid.UUID) (*SalesDocumentResponse, error) {
	doc, err := s.docRepo.FindByIDForTenant(ctx, tenantID, documentID)
	if err != nil {
		return nil, err
	}
	response := ToSalesDocumentResponse(doc)
	return &response, nil
}

// GetByNumber retrieves a document by its number, preferring the live one.
// documentType is optional and narrows the lookup when two types share a prefix.
func (s *DocumentService) GetByNumber(ctx context.Context, tenantID uuid.UUID, documentNumber, documentType string) (*SalesDocumentResponse, error) {
	documentNumber = strings.TrimSpace(documentNumber)
	if documentNumber == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Document number is required")
	}
	var docType sales.DocumentType
	if strings.TrimSpace(documentType) != "" {
		parsed, err := sales.ParseDocumentType(documentType)
		if err != nil {
			return nil, err
		}
		docType = parsed
	}
	doc, err := s.docRepo.FindByNumber(ctx, tenantID, documentNumber, docType)
	if err != nil {
		return nil, err
	}
	response := ToSalesDocumentResponse(doc)
	return &response, nil
}

// List retrieves documents with filtering and pagination
func (s *DocumentService) List(ctx context.Context, tenantID uuid.UUID, filter SalesDocumentListFilter) ([]SalesDocumentListItemResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.OrderBy == "" {
		filter.OrderBy = "issued_at"
	}
	if filter.OrderDir == "" {
		filter.OrderDir = "desc"
	}

	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  filter.OrderBy,
		OrderDir: filter.OrderDir,
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}

	if filter.DocumentType != "" {
		docType, err := sales.ParseDocumentType(filter.DocumentType)
		if err != nil {
			return nil, 0, err
		}
		domainFilter.Filters["document_type"] = docType.String()
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}
	if filter.VehicleVRM != "" {
		domainFilter.Filters["vehicle_vrm"] = sales.NormalizeVRM(filter.VehicleVRM)
	}
	if filter.IssuedFrom != nil {
		domainFilter.Filters["issued_from"] = *filter.IssuedFrom
	}
	if filter.IssuedTo != nil {
		domainFilter.Filters["issued_to"] = *filter.IssuedTo
	}

	docs, err := s.docRepo.FindAllForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	total, err := s.docRepo.CountForTenant(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	return ToSalesDocumentListItemResponses(docs), total, nil
}

func (s *DocumentService) idempotencyKey(tenantID uuid.UUID, key string) string {
	key = strings.TrimSpace(key)
	if s.idempotency == nil || key == "" {
		return ""
	}
	return fmt.Sprintf("sales-document:issue:%s:%s", tenantID, key)
}

// replay returns the document recorded under key, or nil when the key is unknown
func (s *DocumentService) replay(ctx context.Context, tenantID uuid.UUID, key string) (*IssueResult, error) {
	stored, err := s.idempotency.Lookup(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("idempotency lookup: %w", err)
	}
	if stored == "" {
		return nil, nil
	}

	documentID, err := uuid.Parse(stored)
	if err != nil {
		return nil, fmt.Errorf("idempotency record %q is corrupt: %w", stored, err)
	}
	doc, err := s.docRepo.FindByIDForTenant(ctx, tenantID, documentID)
	if err != nil {
		return nil, err
	}

	logger.L(ctx).Info("Idempotent replay of sales document issue",
		zap.String("document_id", doc.ID.String()),
		zap.String("document_number", doc.DocumentNumber),
	)
	return &IssueResult{Document: ToSalesDocumentResponse(doc), Replayed: true}, nil
}

// remember records the issued document under key. The document is already durable,
// so a store failure is logged rather than returned.
func (s *DocumentService) remember(ctx context.Context, tenantID uuid.UUID, key string, doc *sales.SalesDocument) {
	existing, stored, err := s.idempotency.Remember(ctx, key, doc.ID.String(), s.idemTTL)
	if err != nil {
		logger.L(ctx).Warn("Failed to record idempotency key", zap.Error(err))
		return
	}
	if !stored && existing != doc.ID.String() {
		logger.L(ctx).Warn("Concurrent requests shared an idempotency key; both issued a document",
			zap.String("tenant_id", tenantID.String()),
			zap.String("kept_document_id", existing),
			zap.String("extra_document_id", doc.ID.String()),
		)
	}
}
