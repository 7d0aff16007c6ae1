package sales

import (
	"context"
	"fmt"

	"github.com/dealerflow/backend/internal/domain/sales"
	"github.com/dealerflow/backend/internal/domain/shared"
	"github.com/dealerflow/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CounterService administers numbering counters. It never moves a counter backwards.
type CounterService struct {
	counterRepo sales.SequenceCounterRepository
}

// NewCounterService creates a new CounterService
func NewCounterService(counterRepo sales.SequenceCounterRepository) *CounterService {
	return &CounterService{counterRepo: counterRepo}
}

// Get returns the counter for a document type.
// A type that has never issued a document has no counter and is reported as not found.
func (s *CounterService) Get(ctx context.Context, tenantID uuid.UUID, docType sales.DocumentType) (*SequenceCounterResponse, error) {
	counter, err := s.counterRepo.FindByKey(ctx, tenantID, docType)
	if err != nil {
		return nil, err
	}
	if counter == nil {
		return nil, counterNotFound(docType)
	}
	response := ToSequenceCounterResponse(counter)
	return &response, nil
}

// List returns every counter the tenant has
func (s *CounterService) List(ctx context.Context, tenantID uuid.UUID) ([]SequenceCounterResponse, error) {
	counters, err := s.counterRepo.FindAllForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return ToSequenceCounterResponses(counters), nil
}

// Initialize creates a counter starting at req.StartNumber. Calling it for an existing
// counter changes nothing and reports Created=false.
func (s *CounterService) Initialize(ctx context.Context, tenantID uuid.UUID, docType sales.DocumentType, req InitializeCounterRequest) (*InitializeCounterResponse, error) {
	if req.StartNumber < 1 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Start number must be at least 1")
	}
	prefix := docType.DefaultPrefix()
	if req.Prefix != nil {
		prefix = *req.Prefix
	}
	if err := sales.ValidatePrefix(prefix); err != nil {
		return nil, err
	}

	created, err := s.counterRepo.Initialize(ctx, tenantID, docType, req.StartNumber, prefix)
	if err != nil {
		return nil, err
	}

	counter, err := s.counterRepo.FindByKey(ctx, tenantID, docType)
	if err != nil {
		return nil, err
	}
	if counter == nil {
		return nil, fmt.Errorf("counter %s missing after initialize", docType)
	}

	if created {
		logger.L(ctx).Info("Sequence counter initialized",
			zap.String("document_type", docType.String()),
			zap.Int64("start_number", req.StartNumber),
			zap.String("prefix", prefix),
		)
	}

	return &InitializeCounterResponse{
		Created: created,
		Counter: ToSequenceCounterResponse(counter),
	}, nil
}

// UpdatePrefix changes the display prefix used for future numbers
func (s *CounterService) UpdatePrefix(ctx context.Context, tenantID uuid.UUID, docType sales.DocumentType, req UpdatePrefixRequest) (*SequenceCounterResponse, error) {
	if err := sales.ValidatePrefix(req.Prefix); err != nil {
		return nil, err
	}

	counter, err := s.counterRepo.UpdatePrefix(ctx, tenantID, docType, req.Prefix)
	if err != nil {
		return nil, err
	}

	logger.L(ctx).Info("Sequence counter prefix updated",
		zap.String("document_type", docType.String()),
		zap.String("prefix", req.Prefix),
	)

	response := ToSequenceCounterResponse(counter)
	return &response, nil
}

func counterNotFound(docType sales.DocumentType) error {
	return shared.NewDomainError("NOT_FOUND", fmt.Sprintf("No %s has been numbered yet", docType))
}
