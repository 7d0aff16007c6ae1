package router

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dealerflow/backend/internal/interfaces/http/dto"
	"github.com/dealerflow/backend/internal/interfaces/http/handler"
	"github.com/dealerflow/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)
	assert.Empty(t, r.middleware)
}

func TestRouterWithAPIVersion(t *testing.T) {
	r := NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	var order []string
	r := NewRouter(engine, WithGroupMiddleware(func(c *gin.Context) {
		order = append(order, "group")
		c.Next()
	}))

	group := NewDomainGroup("test", "/test").
		Use(func(c *gin.Context) {
			order = append(order, "domain")
			c.Next()
		}).
		GET("/ping", func(c *gin.Context) {
			order = append(order, "handler")
			c.String(http.StatusOK, "pong")
		})
	r.Register(group).Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/test/ping", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
	assert.Equal(t, []string{"group", "domain", "handler"}, order)
}

func TestDomainGroup(t *testing.T) {
	g := NewDomainGroup("counters", "/sequence-counters")
	assert.Equal(t, "counters", g.Name())
	assert.Equal(t, "/sequence-counters", g.Prefix())

	respond := func(status int) gin.HandlerFunc {
		return func(c *gin.Context) { c.Status(status) }
	}
	g.GET("/:type", respond(http.StatusOK)).
		POST("/:type/initialize", respond(http.StatusCreated)).
		PUT("/:type/prefix", respond(http.StatusAccepted))

	engine := gin.New()
	g.RegisterRoutes(engine.Group("/api/v1"))

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/api/v1/sequence-counters/INVOICE", http.StatusOK},
		{http.MethodPost, "/api/v1/sequence-counters/INVOICE/initialize", http.StatusCreated},
		{http.MethodPut, "/api/v1/sequence-counters/INVOICE/prefix", http.StatusAccepted},
		{http.MethodDelete, "/api/v1/sequence-counters/INVOICE", http.StatusNotFound},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
		assert.Equal(t, tt.want, w.Code, "%s %s", tt.method, tt.path)
	}
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func newTestEngine(t *testing.T, cfg EngineConfig) (*gin.Engine, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.InfoLevel)

	engine, err := NewEngine(cfg, zap.New(core), Handlers{
		// services are never reached in these tests
		Documents: handler.NewSalesDocumentHandler(nil),
		Counters:  handler.NewSequenceCounterHandler(nil),
		Health:    handler.NewHealthHandler("dealerflow", "test", map[string]handler.Pinger{"database": stubPinger{}}),
	})
	require.NoError(t, err)
	return engine, logs
}

func defaultEngineConfig() EngineConfig {
	return EngineConfig{
		MaxBodySize: 1024,
		CORS:        middleware.DefaultCORSConfig(),
		Tenant:      middleware.DefaultTenantConfig(),
	}
}

func TestNewEngine_Health(t *testing.T) {
	engine, _ := newTestEngine(t, defaultEngineConfig())

	for _, path := range []string{"/health", "/health/ready", "/api/v1/health", "/api/v1/health/ready"} {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader), path)
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"), path)
	}
}

func TestNewEngine_RequiresTenant(t *testing.T) {
	engine, logs := newTestEngine(t, defaultEngineConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sales-documents", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-tenantless")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, dto.ErrCodeTenantRequired, resp.Error.Code)
	assert.Equal(t, "req-tenantless", resp.Error.RequestID)

	entries := logs.FilterMessage("HTTP Request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "req-tenantless", entries[0].ContextMap()["request_id"])
	assert.Equal(t, int64(http.StatusBadRequest), entries[0].ContextMap()["status"])
}

func TestNewEngine_BodyLimit(t *testing.T) {
	engine, _ := newTestEngine(t, defaultEngineConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sales-documents", strings.NewReader(strings.Repeat("x", 4096)))
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestNewEngine_VehiclesOptional(t *testing.T) {
	engine, _ := newTestEngine(t, defaultEngineConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/vehicles/AB12CDE", nil)
	req.Header.Set(middleware.TenantHeaderKey, "4b1d7d0e-2c53-4f0c-9a56-8f5d3c1e9b20")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNewEngine_ReadinessFailure(t *testing.T) {
	engine, err := NewEngine(defaultEngineConfig(), zap.NewNop(), Handlers{
		Health: handler.NewHealthHandler("dealerflow", "test", map[string]handler.Pinger{
			"database": stubPinger{err: errors.New("connection refused")},
		}),
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestNewEngine_InvalidTrustedProxy(t *testing.T) {
	cfg := defaultEngineConfig()
	cfg.TrustedProxies = []string{"not-an-ip"}

	_, err := NewEngine(cfg, zap.NewNop(), Handlers{})
	assert.Error(t, err)
}
