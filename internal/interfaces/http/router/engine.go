package router

import (
	"fmt"

	"github.com/dealerflow/backend/internal/infrastructure/logger"
	"github.com/dealerflow/backend/internal/interfaces/http/handler"
	"github.com/dealerflow/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers are the HTTP handlers mounted by NewEngine. Vehicles may be nil when
// the vehicle-data integration is disabled.
type Handlers struct {
	Documents *handler.SalesDocumentHandler
	Counters  *handler.SequenceCounterHandler
	Vehicles  *handler.VehicleHandler
	Health    *handler.HealthHandler
}

// EngineConfig holds the engine-level settings
type EngineConfig struct {
	Mode           string // gin mode; empty keeps the current one
	TrustedProxies []string
	MaxBodySize    int64
	CORS           middleware.CORSConfig
	Tracing        middleware.TracingConfig
	Tenant         middleware.TenantConfig
	// Metrics is an optional request metrics middleware
	Metrics gin.HandlerFunc
}

// NewEngine builds the gin engine with the full middleware chain and every route.
//
// Order matters: RequestID runs before the request logger so log lines carry the ID,
// and SpanAttributes runs after Tenant, inside the otelgin span.
func NewEngine(cfg EngineConfig, log *zap.Logger, h Handlers) (*gin.Engine, error) {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		middleware.Tracing(cfg.Tracing),
		logger.GinMiddleware(log),
	)
	if cfg.Metrics != nil {
		engine.Use(cfg.Metrics)
	}
	engine.Use(
		middleware.Secure(),
		middleware.CORSWithConfig(cfg.CORS),
	)
	if cfg.MaxBodySize > 0 {
		engine.Use(middleware.BodyLimit(cfg.MaxBodySize))
	}

	if h.Health != nil {
		engine.GET("/health", h.Health.Live)
		engine.GET("/health/ready", h.Health.Ready)
	}

	r := NewRouter(engine, WithGroupMiddleware(
		middleware.Tenant(cfg.Tenant),
		middleware.SpanAttributes(),
	))

	if h.Health != nil {
		r.Register(NewDomainGroup("health", "/health").
			GET("", h.Health.Live).
			GET("/ready", h.Health.Ready))
	}

	if h.Documents != nil {
		r.Register(NewDomainGroup("sales-documents", "/sales-documents").
			POST("", h.Documents.Issue).
			GET("", h.Documents.List).
			GET("/number/:number", h.Documents.GetByNumber).
			GET("/:id", h.Documents.GetByID).
			POST("/:id/void", h.Documents.Void))
	}

	if h.Counters != nil {
		r.Register(NewDomainGroup("sequence-counters", "/sequence-counters").
			GET("", h.Counters.List).
			GET("/:type", h.Counters.Get).
			POST("/:type/initialize", h.Counters.Initialize).
			PUT("/:type/prefix", h.Counters.UpdatePrefix))
	}

	if h.Vehicles != nil {
		r.Register(NewDomainGroup("vehicles", "/vehicles").
			GET("/:vrm", h.Vehicles.Lookup))
	}

	r.Setup()
	return engine, nil
}
