package telemetry

import (
	"context"
	"testing"

	"github.com/dealerflow/backend/internal/domain/sales"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func sumFor(t *testing.T, m metricdata.Metrics, docType string) int64 {
	t.Helper()
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "%s is not an int64 sum", m.Name)
	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value(attribute.Key("document_type")); ok && v.AsString() == docType {
			return dp.Value
		}
	}
	return 0
}

func TestNumberingMetrics(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(ctx) })

	metrics, err := NewNumberingMetrics(NewMeterProviderFromSDK(provider).Meter("numbering"))
	require.NoError(t, err)

	metrics.RecordAllocation(ctx, sales.DocumentTypeInvoice, 1)
	metrics.RecordCollision(ctx, sales.DocumentTypeInvoice)
	metrics.RecordAllocation(ctx, sales.DocumentTypeInvoice, 2)
	metrics.RecordAllocation(ctx, sales.DocumentTypeCreditNote, 1)
	metrics.RecordExhausted(ctx, sales.DocumentTypeDepositReceipt)

	got := collect(t, reader)

	assert.Equal(t, int64(2), sumFor(t, got["numbering_allocations_total"], "INVOICE"))
	assert.Equal(t, int64(1), sumFor(t, got["numbering_allocations_total"], "CREDIT_NOTE"))
	assert.Equal(t, int64(1), sumFor(t, got["numbering_collisions_total"], "INVOICE"))
	assert.Equal(t, int64(1), sumFor(t, got["numbering_exhausted_total"], "DEPOSIT_RECEIPT"))

	hist, ok := got["numbering_allocation_attempts"].Data.(metricdata.Histogram[int64])
	require.True(t, ok)
	var count uint64
	var total int64
	for _, dp := range hist.DataPoints {
		count += dp.Count
		total += dp.Sum
	}
	assert.Equal(t, uint64(3), count)
	assert.Equal(t, int64(4), total)
}

func TestMeterProvider_DisabledFallsBackToGlobal(t *testing.T) {
	var mp *MeterProvider
	assert.NotNil(t, mp.Meter("x"))
	assert.NotNil(t, (&MeterProvider{}).Meter("x"))

	_, err := NewNumberingMetrics((&MeterProvider{}).Meter("numbering"))
	assert.NoError(t, err)
}
