// Package numbering allocates human-readable document numbers such as INV00042.
//
// Numbers come from a per-tenant, per-type counter that is advanced atomically in the
// database. Because documents may also have been numbered by other means (imports,
// manual entry, earlier systems), every candidate is checked against the live documents
// and skipped if already taken.
package numbering

import (
	"context"
	"fmt"
	"math"

	"github.com/dealerflow/backend/internal/domain/sales"
	"github.com/dealerflow/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// DefaultMaxRetries is the number of collisions tolerated before Allocate gives up
const DefaultMaxRetries = 5

// IssuedNumbers is the read side of the issued-document store the allocator consults
type IssuedNumbers interface {
	ExistsActiveNumber(ctx context.Context, tenantID uuid.UUID, docType sales.DocumentType, documentNumber string) (bool, error)
	ListNumbers(ctx context.Context, tenantID uuid.UUID, docType sales.DocumentType) ([]string, error)
}

// Metrics receives allocation outcomes. Implementations must be safe for concurrent use.
type Metrics interface {
	RecordAllocation(ctx context.Context, docType sales.DocumentType, attempts int)
	RecordCollision(ctx context.Context, docType sales.DocumentType)
	RecordExhausted(ctx context.Context, docType sales.DocumentType)
}

// Allocation is a number reserved for a new document
type Allocation struct {
	Number         int64
	Prefix         string
	DocumentNumber string
	Attempts       int
}

type allocateOptions struct {
	maxRetries int
}

// Option adjusts a single Allocate call
type Option func(*allocateOptions)

// WithMaxRetries overrides the collision budget for one call. Values below 1 are ignored.
func WithMaxRetries(n int) Option {
	return func(o *allocateOptions) {
		if n >= 1 {
			o.maxRetries = n
		}
	}
}

// Allocator hands out document numbers that are unique among live documents
type Allocator struct {
	counters   sales.SequenceCounterRepository
	issued     IssuedNumbers
	maxRetries int
	metrics    Metrics
}

// NewAllocator creates an Allocator. maxRetries <= 0 selects DefaultMaxRetries.
func NewAllocator(counters sales.SequenceCounterRepository, issued IssuedNumbers, maxRetries int) *Allocator {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &Allocator{
		counters:   counters,
		issued:     issued,
		maxRetries: maxRetries,
	}
}

// SetMetrics attaches a metrics recorder
func (a *Allocator) SetMetrics(m Metrics) {
	a.metrics = m
}

// Allocate reserves the next free number for (tenant, type).
//
// The counter is advanced once per attempt and never rolled back, so an allocation
// that is abandoned (collision, cancellation, failed save) leaves a gap. Numbers are
// unique and increasing, not contiguous.
func (a *Allocator) Allocate(ctx context.Context, tenantID uuid.UUID, docType sales.DocumentType, defaultPrefix string, opts ...Option) (*Allocation, error) {
	o := allocateOptions{maxRetries: a.maxRetries}
	for _, opt := range opts {
		opt(&o)
	}

	log := logger.L(ctx).With(
		zap.String("tenant_id", tenantID.String()),
		zap.String("document_type", docType.String()),
	)

	if err := a.bootstrap(ctx, tenantID, docType, defaultPrefix); err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= o.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		counter, err := a.counters.IncrementAndGet(ctx, tenantID, docType, defaultPrefix)
		if err != nil {
			return nil, fmt.Errorf("allocate %s number: %w", docType, err)
		}

		number := counter.LastAllocated()
		documentNumber := sales.FormatDocumentNumber(counter.Prefix, number)

		taken, err := a.issued.ExistsActiveNumber(ctx, tenantID, docType, documentNumber)
		if err != nil {
			return nil, fmt.Errorf("check %s number %s: %w", docType, documentNumber, err)
		}
		if taken {
			log.Warn("Document number already in use, retrying",
				zap.String("document_number", documentNumber),
				zap.Int("attempt", attempt),
			)
			a.recordCollision(ctx, docType)
			continue
		}

		a.recordAllocation(ctx, docType, attempt)
		log.Debug("Document number allocated",
			zap.String("document_number", documentNumber),
			zap.Int("attempts", attempt),
		)
		return &Allocation{
			Number:         number,
			Prefix:         counter.Prefix,
			DocumentNumber: documentNumber,
			Attempts:       attempt,
		}, nil
	}

	log.Error("Document number allocation exhausted; counter and issued documents disagree",
		zap.Int("attempts", o.maxRetries),
	)
	if a.metrics != nil {
		a.metrics.RecordExhausted(ctx, docType)
	}
	return nil, sales.NewAllocationExhaustedError(docType, o.maxRetries)
}

// bootstrap seeds a missing counter from the highest number already issued, so that a
// tenant migrating existing documents continues after them instead of starting at 1.
func (a *Allocator) bootstrap(ctx context.Context, tenantID uuid.UUID, docType sales.DocumentType, defaultPrefix string) error {
	counter, err := a.counters.FindByKey(ctx, tenantID, docType)
	if err != nil {
		return fmt.Errorf("load %s counter: %w", docType, err)
	}
	if counter != nil {
		return nil
	}

	numbers, err := a.issued.ListNumbers(ctx, tenantID, docType)
	if err != nil {
		return fmt.Errorf("list issued %s numbers: %w", docType, err)
	}

	highest, found := HighestSuffix(numbers)
	if !found {
		return nil
	}
	if highest == math.MaxInt64 {
		logger.L(ctx).Error("Issued document suffix leaves no room for the sequence",
			zap.String("document_type", docType.String()),
			zap.Int64("highest_suffix", highest),
		)
		if a.metrics != nil {
			a.metrics.RecordExhausted(ctx, docType)
		}
		return sales.NewSequenceOverflowError(docType, highest)
	}

	created, err := a.counters.Initialize(ctx, tenantID, docType, highest+1, defaultPrefix)
	if err != nil {
		return fmt.Errorf("seed %s counter: %w", docType, err)
	}
	if created {
		logger.L(ctx).Info("Sequence counter seeded from issued documents",
			zap.String("document_type", docType.String()),
			zap.Int64("next_number", highest+1),
		)
	}
	return nil
}

// HighestSuffix returns the largest trailing number among the given document numbers.
// Numbers without trailing digits are ignored.
func HighestSuffix(documentNumbers []string) (int64, bool) {
	suffixes := lo.FilterMap(documentNumbers, func(n string, _ int) (int64, bool) {
		return sales.ParseTrailingNumber(n)
	})
	if len(suffixes) == 0 {
		return 0, false
	}
	return lo.Max(suffixes), true
}

func (a *Allocator) recordAllocation(ctx context.Context, docType sales.DocumentType, attempts int) {
	if a.metrics != nil {
		a.metrics.RecordAllocation(ctx, docType, attempts)
	}
}

func (a *Allocator) recordCollision(ctx context.Context, docType sales.DocumentType) {
	if a.metrics != nil {
		a.metrics.RecordCollision(ctx, docType)
	}
}
