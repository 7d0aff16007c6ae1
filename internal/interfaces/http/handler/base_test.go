package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dealerflow/backend/internal/domain/sales"
	"github.com/dealerflow/backend/internal/domain/shared"
	"github.com/dealerflow/backend/internal/infrastructure/logger"
	"github.com/dealerflow/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Set(logger.RequestIDContextKey, "req-123")
	return c, w
}

func TestBaseHandler_HandleError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantStatus  int
		wantCode    string
		wantMessage string
	}{
		{
			name:        "not found",
			err:         shared.ErrNotFound,
			wantStatus:  http.StatusNotFound,
			wantCode:    dto.ErrCodeNotFound,
			wantMessage: "Resource not found",
		},
		{
			name:        "wrapped domain error",
			err:         fmt.Errorf("load document: %w", shared.NewDomainError("INVALID_STATE", "Cannot void document in voided status")),
			wantStatus:  http.StatusUnprocessableEntity,
			wantCode:    dto.ErrCodeInvalidState,
			wantMessage: "Cannot void document in voided status",
		},
		{
			name:        "concurrent modification is a conflict",
			err:         shared.NewDomainError("CONCURRENT_MODIFICATION", "Document INV00004 has been modified by another request"),
			wantStatus:  http.StatusConflict,
			wantCode:    dto.ErrCodeConflict,
			wantMessage: "Document INV00004 has been modified by another request",
		},
		{
			name:        "allocation exhausted hides internals",
			err:         sales.NewAllocationExhaustedError(sales.DocumentTypeInvoice, 5),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    dto.ErrCodeDocumentNumberExhausted,
			wantMessage: dto.ClientMessage(dto.ErrCodeDocumentNumberExhausted, ""),
		},
		{
			name:        "plain error",
			err:         errors.New("pq: connection reset by peer"),
			wantStatus:  http.StatusInternalServerError,
			wantCode:    dto.ErrCodeInternal,
			wantMessage: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			c, w := newTestContext()

			h.HandleError(c, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
			assert.Equal(t, tt.wantMessage, resp.Error.Message)
			assert.Len(t, c.Errors, 1)
		})
	}
}

func TestBaseHandler_HandleError_Nil(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()

	h.HandleError(c, nil)

	assert.Empty(t, c.Errors)
	assert.Equal(t, 0, w.Body.Len())
}

func TestBaseHandler_Responses(t *testing.T) {
	h := &BaseHandler{}

	t.Run("created", func(t *testing.T) {
		c, w := newTestContext()
		h.Created(c, map[string]string{"id": "1"})
		require.Equal(t, http.StatusCreated, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Nil(t, resp.Error)
		assert.Equal(t, map[string]any{"id": "1"}, resp.Data)
	})

	t.Run("success with meta", func(t *testing.T) {
		c, w := newTestContext()
		h.SuccessWithMeta(c, []int{1, 2}, 45, 2, 20)
		require.Equal(t, http.StatusOK, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotNil(t, resp.Meta)
		assert.Equal(t, int64(45), resp.Meta.Total)
		assert.Equal(t, 3, resp.Meta.TotalPages)
	})

	t.Run("bad request carries request id", func(t *testing.T) {
		c, w := newTestContext()
		h.BadRequest(c, "Invalid id format")
		require.Equal(t, http.StatusBadRequest, w.Code)

		var resp dto.Response
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "req-123", resp.Error.RequestID)
	})
}

func TestBaseHandler_TenantID_Missing(t *testing.T) {
	h := &BaseHandler{}
	c, w := newTestContext()

	_, ok := h.tenantID(c)

	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
