package telemetry

import (
	"context"
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool // include bound values in db.statement; development only
	SlowQueryThresh time.Duration
	DBName          string
}

type queryStartKey struct{}

// RegisterDBTracing installs the otelgorm plugin, which records one span per statement
// (errors included), and flags statements slower than the threshold on that span.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		logger.Debug("Database tracing disabled")
		return nil
	}
	if cfg.SlowQueryThresh <= 0 {
		cfg.SlowQueryThresh = 200 * time.Millisecond
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBName)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}

	before := func(tx *gorm.DB) {
		if tx.Statement.Context != nil {
			tx.Statement.Context = context.WithValue(tx.Statement.Context, queryStartKey{}, time.Now())
		}
	}
	after := func(tx *gorm.DB) { markSlowQuery(tx, cfg.SlowQueryThresh) }

	// the slow-query check must see the statement span before otelgorm ends it
	cb := db.Callback()
	err := errors.Join(
		cb.Create().Before("gorm:create").Register("dealerflow:timing_create", before),
		cb.Query().Before("gorm:query").Register("dealerflow:timing_query", before),
		cb.Update().Before("gorm:update").Register("dealerflow:timing_update", before),
		cb.Delete().Before("gorm:delete").Register("dealerflow:timing_delete", before),
		cb.Row().Before("gorm:row").Register("dealerflow:timing_row", before),
		cb.Raw().Before("gorm:raw").Register("dealerflow:timing_raw", before),
		cb.Create().After("gorm:create").Before("otel:after:create").Register("dealerflow:slow_create", after),
		cb.Query().After("gorm:query").Before("otel:after:select").Register("dealerflow:slow_query", after),
		cb.Update().After("gorm:update").Before("otel:after:update").Register("dealerflow:slow_update", after),
		cb.Delete().After("gorm:delete").Before("otel:after:delete").Register("dealerflow:slow_delete", after),
		cb.Row().After("gorm:row").Before("otel:after:row").Register("dealerflow:slow_row", after),
		cb.Raw().After("gorm:raw").Before("otel:after:raw").Register("dealerflow:slow_raw", after),
	)
	if err != nil {
		return err
	}

	logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh),
	)
	return nil
}

func markSlowQuery(tx *gorm.DB, slowThreshold time.Duration) {
	ctx := tx.Statement.Context
	if ctx == nil {
		return
	}
	start, ok := ctx.Value(queryStartKey{}).(time.Time)
	if !ok {
		return
	}
	elapsed := time.Since(start)
	if elapsed <= slowThreshold {
		return
	}
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(
		attribute.Bool("db.slow_query", true),
		attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
	)
}
