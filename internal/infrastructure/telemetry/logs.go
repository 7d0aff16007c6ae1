package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/log/global"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.uber.org/zap/zapcore"
)

// LoggerProvider exports zap entries to the collector through the otelzap bridge
type LoggerProvider struct {
	provider *sdklog.LoggerProvider
}

// NewLoggerProviderFromSDK wraps an existing SDK provider
func NewLoggerProviderFromSDK(provider *sdklog.LoggerProvider) *LoggerProvider {
	return &LoggerProvider{provider: provider}
}

func newLoggerProvider(ctx context.Context, cfg Config, res *resource.Resource) (*LoggerProvider, error) {
	if !cfg.LogsEnabled {
		return &LoggerProvider{}, nil
	}

	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(cfg.CollectorEndpoint)}
	if cfg.Insecure {
		opts = append(opts, otlploggrpc.WithInsecure())
	}
	exporter, err := otlploggrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP logs exporter: %w", err)
	}

	provider := sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
	)
	global.SetLoggerProvider(provider)
	return &LoggerProvider{provider: provider}, nil
}

// ZapCore returns a core that forwards entries at or above level to OpenTelemetry.
// It is a no-op core when log export is disabled. Tee it with the stdout core via
// logger.New(cfg, core).
func (lp *LoggerProvider) ZapCore(name string, level zapcore.Level) zapcore.Core {
	if lp == nil || lp.provider == nil {
		return zapcore.NewNopCore()
	}
	return &levelFilterCore{
		Core:     otelzap.NewCore(name, otelzap.WithLoggerProvider(lp.provider)),
		minLevel: level,
	}
}

func (lp *LoggerProvider) shutdown(ctx context.Context) error {
	if lp.provider == nil {
		return nil
	}
	return lp.provider.Shutdown(ctx)
}

// levelFilterCore drops entries below minLevel; the otelzap core accepts everything
type levelFilterCore struct {
	zapcore.Core
	minLevel zapcore.Level
}

func (c *levelFilterCore) Enabled(lvl zapcore.Level) bool {
	return lvl >= c.minLevel && c.Core.Enabled(lvl)
}

func (c *levelFilterCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(entry.Level) {
		return ce
	}
	return c.Core.Check(entry, ce)
}

func (c *levelFilterCore) With(fields []zapcore.Field) zapcore.Core {
	return &levelFilterCore{Core: c.Core.With(fields), minLevel: c.minLevel}
}
