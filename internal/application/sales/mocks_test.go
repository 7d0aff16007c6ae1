package sales

import (
	"context"
	"time"

	"github.com/dealerflow/backend/internal/application/numbering"
	"github.com/dealerflow/backend/internal/domain/sales"
	"github.com/dealerflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockSalesDocumentRepository is a mock implementation of SalesDocumentRepository
type MockSalesDocumentRepository struct {
	mock.Mock
}

func (m *MockSalesDocumentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*sales.SalesDocument, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.SalesDocument), args.Error(1)
}

func (m *MockSalesDocumentRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, documentNumber string, docType sales.DocumentType) (*sales.SalesDocument, error) {
	args := m.Called(ctx, tenantID, documentNumber, docType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.SalesDocument), args.Error(1)
}

func (m *MockSalesDocumentRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]sales.SalesDocument, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sales.SalesDocument), args.Error(1)
}

func (m *MockSalesDocumentRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSalesDocumentRepository) ExistsActiveNumber(ctx context.Context, tenantID uuid.UUID, docType sales.DocumentType, documentNumber string) (bool, error) {
	args := m.Called(ctx, tenantID, docType, documentNumber)
	return args.Bool(0), args.Error(1)
}

func (m *MockSalesDocumentRepository) ListNumbers(ctx context.Context, tenantID uuid.UUID, docType sales.DocumentType) ([]string, error) {
	args := m.Called(ctx, tenantID, docType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockSalesDocumentRepository) Save(ctx context.Context, doc *sales.SalesDocument) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

// MockSequenceCounterRepository is a mock implementation of SequenceCounterRepository
type MockSequenceCounterRepository struct {
	mock.Mock
}

func (m *MockSequenceCounterRepository) FindByKey(ctx context.Context, tenantID uuid.UUID, docType sales.DocumentType) (*sales.SequenceCounter, error) {
	args := m.Called(ctx, tenantID, docType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.SequenceCounter), args.Error(1)
}

func (m *MockSequenceCounterRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]sales.SequenceCounter, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]sales.SequenceCounter), args.Error(1)
}

func (m *MockSequenceCounterRepository) IncrementAndGet(ctx context.Context, tenantID uuid.UUID, docType sales.DocumentType, defaultPrefix string) (*sales.SequenceCounter, error) {
	args := m.Called(ctx, tenantID, docType, defaultPrefix)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.SequenceCounter), args.Error(1)
}

func (m *MockSequenceCounterRepository) Initialize(ctx context.Context, tenantID uuid.UUID, docType sales.DocumentType, startNumber int64, prefix string) (bool, error) {
	args := m.Called(ctx, tenantID, docType, startNumber, prefix)
	return args.Bool(0), args.Error(1)
}

func (m *MockSequenceCounterRepository) UpdatePrefix(ctx context.Context, tenantID uuid.UUID, docType sales.DocumentType, prefix string) (*sales.SequenceCounter, error) {
	args := m.Called(ctx, tenantID, docType, prefix)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.SequenceCounter), args.Error(1)
}

// MockNumberAllocator is a mock implementation of NumberAllocator
type MockNumberAllocator struct {
	mock.Mock
}

func (m *MockNumberAllocator) Allocate(ctx context.Context, tenantID uuid.UUID, docType sales.DocumentType, defaultPrefix string, _ ...numbering.Option) (*numbering.Allocation, error) {
	args := m.Called(ctx, tenantID, docType, defaultPrefix)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*numbering.Allocation), args.Error(1)
}

// MockIdempotencyStore is a mock implementation of shared.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) Remember(ctx context.Context, key, value string, ttl time.Duration) (string, bool, error) {
	args := m.Called(ctx, key, value, ttl)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockIdempotencyStore) Lookup(ctx context.Context, key string) (string, error) {
	args := m.Called(ctx, key)
	return args.String(0), args.Error(1)
}

func (m *MockIdempotencyStore) Close() error {
	return m.Called().Error(0)
}
