package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dealerflow/backend/internal/application/numbering"
	salesapp "github.com/dealerflow/backend/internal/application/sales"
	"github.com/dealerflow/backend/internal/infrastructure/cache"
	"github.com/dealerflow/backend/internal/infrastructure/config"
	"github.com/dealerflow/backend/internal/infrastructure/logger"
	"github.com/dealerflow/backend/internal/infrastructure/persistence"
	"github.com/dealerflow/backend/internal/infrastructure/telemetry"
	"github.com/dealerflow/backend/internal/infrastructure/vehicledata"
	"github.com/dealerflow/backend/internal/interfaces/http/handler"
	"github.com/dealerflow/backend/internal/interfaces/http/middleware"
	"github.com/dealerflow/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

//	@title			Dealerflow API
//	@version		1.0
//	@description	Sales document numbering for vehicle dealerships: invoices, deposit receipts and credit notes.

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	TenantID
//	@in							header
//	@name						X-Tenant-ID

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	log, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	providers, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:               cfg.Telemetry.Enabled,
		CollectorEndpoint:     cfg.Telemetry.CollectorEndpoint,
		Insecure:              cfg.Telemetry.Insecure,
		ServiceName:           cfg.Telemetry.ServiceName,
		ServiceVersion:        version,
		SamplingRatio:         cfg.Telemetry.SamplingRatio,
		MetricsExportInterval: cfg.Telemetry.MetricsExportInterval,
		LogsEnabled:           cfg.Telemetry.LogsEnabled,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		_ = providers.Shutdown(context.Background())
	}()

	// Re-create the logger so every entry is also exported over OTLP
	if cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled {
		level, _ := logger.ParseLevel(cfg.Log.Level)
		exported, err := logger.New(logCfg, providers.Logs.ZapCore(cfg.Telemetry.ServiceName, level))
		if err != nil {
			log.Fatal("Failed to attach OTLP log exporter", zap.Error(err))
		}
		log = exported
	}
	defer logger.Sync(log)

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Profiling.Enabled,
		ServerAddress:     cfg.Profiling.ServerAddress,
		ApplicationName:   cfg.Telemetry.ServiceName,
		BasicAuthUser:     cfg.Profiling.BasicAuthUser,
		BasicAuthPassword: cfg.Profiling.BasicAuthPassword,
		ProfileTypes:      cfg.Profiling.ProfileTypes,
		Tags:              map[string]string{"env": cfg.App.Env, "version": version},
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			log.Error("Error stopping profiler", zap.Error(err))
		}
	}()

	log.Info("Starting dealerflow",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh),
		logger.WithSQL(cfg.Telemetry.DBLogFullSQL),
	)
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected", zap.String("host", cfg.Database.Host), zap.String("db", cfg.Database.DBName))

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBName:          cfg.Database.DBName,
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	meter := providers.Meter.Meter("github.com/dealerflow/backend")

	counterRepo := persistence.NewGormSequenceCounterRepository(db.DB)
	documentRepo := persistence.NewGormSalesDocumentRepository(db.DB)

	allocator := numbering.NewAllocator(counterRepo, documentRepo, cfg.Numbering.MaxRetries)
	numberingMetrics, err := telemetry.NewNumberingMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create numbering metrics", zap.Error(err))
	}
	allocator.SetMetrics(numberingMetrics)

	documentService := salesapp.NewDocumentService(documentRepo, allocator)
	counterService := salesapp.NewCounterService(counterRepo)

	checks := map[string]handler.Pinger{"database": db}

	if cfg.Idempotency.Enabled {
		store, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
			cache.WithLogger(log),
			cache.WithInMemoryFallback(cfg.App.Env != "production"),
		).CreateStore(ctx)
		if err != nil {
			log.Fatal("Failed to create idempotency store", zap.Error(err))
		}
		defer func() {
			if err := store.Close(); err != nil {
				log.Error("Error closing idempotency store", zap.Error(err))
			}
		}()
		documentService.SetIdempotencyStore(store, cfg.Idempotency.TTL)
		if pinger, ok := store.(handler.Pinger); ok {
			checks["redis"] = pinger
		}
	}

	handlers := router.Handlers{
		Documents: handler.NewSalesDocumentHandler(documentService),
		Counters:  handler.NewSequenceCounterHandler(counterService),
		Health:    handler.NewHealthHandler(cfg.App.Name, version, checks),
	}

	if cfg.VehicleData.Enabled {
		vehicles := vehicledata.NewClient(vehicledata.Config{
			BaseURL:        cfg.VehicleData.BaseURL,
			TokenURL:       cfg.VehicleData.TokenURL,
			ClientID:       cfg.VehicleData.ClientID,
			ClientSecret:   cfg.VehicleData.ClientSecret,
			Timeout:        cfg.VehicleData.Timeout,
			RetryMax:       cfg.VehicleData.RetryMax,
			LookupCacheTTL: cfg.VehicleData.LookupCacheTTL,
		}, log)
		handlers.Vehicles = handler.NewVehicleHandler(vehicles)
		log.Info("Vehicle data lookups enabled", zap.String("base_url", cfg.VehicleData.BaseURL))
	}

	httpMetrics, err := middleware.HTTPMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create HTTP metrics", zap.Error(err))
	}

	mode := gin.DebugMode
	if cfg.App.Env == "production" {
		mode = gin.ReleaseMode
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsCfg.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsCfg.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine, err := router.NewEngine(router.EngineConfig{
		Mode:           mode,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		CORS:           corsCfg,
		Tracing: middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		},
		Tenant:  middleware.DefaultTenantConfig(),
		Metrics: httpMetrics,
	}, log, handlers)
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
