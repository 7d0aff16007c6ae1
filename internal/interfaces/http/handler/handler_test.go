package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dealerflow/backend/internal/application/numbering"
	salesapp "github.com/dealerflow/backend/internal/application/sales"
	"github.com/dealerflow/backend/internal/infrastructure/cache"
	"github.com/dealerflow/backend/internal/infrastructure/persistence"
	"github.com/dealerflow/backend/internal/infrastructure/persistence/models"
	"github.com/dealerflow/backend/internal/interfaces/http/dto"
	"github.com/dealerflow/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// testAPI wires real services over an in-memory SQLite database
type testAPI struct {
	engine   *gin.Engine
	tenantID uuid.UUID
}

func newTestAPI(t *testing.T, vehicles VehicleLookup) *testAPI {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.SequenceCounterModel{}, &models.SalesDocumentModel{}))

	counterRepo := persistence.NewGormSequenceCounterRepository(db)
	documentRepo := persistence.NewGormSalesDocumentRepository(db)

	allocator := numbering.NewAllocator(counterRepo, documentRepo, numbering.DefaultMaxRetries)
	documentService := salesapp.NewDocumentService(documentRepo, allocator)
	store := cache.NewInMemoryIdempotencyStore(time.Minute)
	t.Cleanup(func() { _ = store.Close() })
	documentService.SetIdempotencyStore(store, time.Hour)
	counterService := salesapp.NewCounterService(counterRepo)

	documents := NewSalesDocumentHandler(documentService)
	counters := NewSequenceCounterHandler(counterService)

	r := gin.New()
	r.Use(middleware.RequestID())
	api := r.Group("/api/v1")
	api.Use(middleware.Tenant(middleware.DefaultTenantConfig()))

	api.POST("/sales-documents", documents.Issue)
	api.GET("/sales-documents", documents.List)
	api.GET("/sales-documents/number/:number", documents.GetByNumber)
	api.GET("/sales-documents/:id", documents.GetByID)
	api.POST("/sales-documents/:id/void", documents.Void)

	api.GET("/sequence-counters", counters.List)
	api.GET("/sequence-counters/:type", counters.Get)
	api.POST("/sequence-counters/:type/initialize", counters.Initialize)
	api.PUT("/sequence-counters/:type/prefix", counters.UpdatePrefix)

	if vehicles != nil {
		api.GET("/vehicles/:vrm", NewVehicleHandler(vehicles).Lookup)
	}

	return &testAPI{engine: r, tenantID: uuid.New()}
}

func (a *testAPI) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.TenantHeaderKey, a.tenantID.String())
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

// envelope mirrors dto.Response with the data left raw for typed decoding
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *dto.ErrorInfo  `json:"error"`
	Meta    *dto.Meta       `json:"meta"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func issueInvoice(t *testing.T, api *testAPI, customer string) salesapp.SalesDocumentResponse {
	t.Helper()
	w := api.do(t, http.MethodPost, "/api/v1/sales-documents", map[string]any{
		"document_type": "INVOICE",
		"customer_name": customer,
		"amount":        "1250.00",
	}, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var doc salesapp.SalesDocumentResponse
	decode(t, w, &doc)
	return doc
}
