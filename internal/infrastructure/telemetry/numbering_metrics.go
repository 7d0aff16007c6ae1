package telemetry

import (
	"context"

	"github.com/dealerflow/backend/internal/application/numbering"
	"github.com/dealerflow/backend/internal/domain/sales"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// AttrDocumentType labels numbering metrics
var AttrDocumentType = attribute.Key("document_type")

// attemptBuckets fit the allocator's small retry budget
var attemptBuckets = []float64{1, 2, 3, 5, 10, 20, 50}

// NumberingMetrics records document number allocation outcomes.
// A non-zero collision rate means numbers are being assigned outside the allocator;
// any exhaustion needs a data audit.
type NumberingMetrics struct {
	allocations *Counter
	collisions  *Counter
	exhausted   *Counter
	attempts    *Histogram
}

// NewNumberingMetrics creates the numbering instruments on meter
func NewNumberingMetrics(meter metric.Meter) (*NumberingMetrics, error) {
	allocations, err := NewCounter(meter, "numbering_allocations_total", "Document numbers allocated", "{allocation}")
	if err != nil {
		return nil, err
	}
	collisions, err := NewCounter(meter, "numbering_collisions_total", "Allocated numbers skipped because a live document already had them", "{collision}")
	if err != nil {
		return nil, err
	}
	exhausted, err := NewCounter(meter, "numbering_exhausted_total", "Allocations that ran out of retries", "{allocation}")
	if err != nil {
		return nil, err
	}
	attempts, err := NewHistogram(meter, HistogramOpts{
		Name:        "numbering_allocation_attempts",
		Description: "Counter increments needed per successful allocation",
		Unit:        "{attempt}",
		Boundaries:  attemptBuckets,
	})
	if err != nil {
		return nil, err
	}

	return &NumberingMetrics{
		allocations: allocations,
		collisions:  collisions,
		exhausted:   exhausted,
		attempts:    attempts,
	}, nil
}

func (m *NumberingMetrics) RecordAllocation(ctx context.Context, docType sales.DocumentType, attempts int) {
	attr := AttrDocumentType.String(docType.String())
	m.allocations.Inc(ctx, attr)
	m.attempts.Record(ctx, int64(attempts), attr)
}

func (m *NumberingMetrics) RecordCollision(ctx context.Context, docType sales.DocumentType) {
	m.collisions.Inc(ctx, AttrDocumentType.String(docType.String()))
}

func (m *NumberingMetrics) RecordExhausted(ctx context.Context, docType sales.DocumentType) {
	m.exhausted.Inc(ctx, AttrDocumentType.String(docType.String()))
}

var _ numbering.Metrics = (*NumberingMetrics)(nil)
