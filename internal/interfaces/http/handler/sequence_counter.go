package handler

import (
	"net/http"

	salesapp "github.com/dealerflow/backend/internal/application/sales"
	"github.com/dealerflow/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// SequenceCounterHandler exposes numbering counter administration
type SequenceCounterHandler struct {
	BaseHandler
	counterService *salesapp.CounterService
}

// NewSequenceCounterHandler creates a new SequenceCounterHandler
func NewSequenceCounterHandler(counterService *salesapp.CounterService) *SequenceCounterHandler {
	return &SequenceCounterHandler{counterService: counterService}
}

// List godoc
// @Summary      List numbering counters
// @Tags         sequence-counters
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID"
// @Success      200 {object} dto.Response{data=[]salesapp.SequenceCounterResponse}
// @Router       /sequence-counters [get]
func (h *SequenceCounterHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	counters, err := h.counterService.List(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, counters)
}

// Get godoc
// @Summary      Get a numbering counter
// @Tags         sequence-counters
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID"
// @Param        type        path   string true "Document type"
// @Success      200 {object} dto.Response{data=salesapp.SequenceCounterResponse}
// @Failure      404 {object} dto.Response
// @Router       /sequence-counters/{type} [get]
func (h *SequenceCounterHandler) Get(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	docType, ok := h.pathDocumentType(c)
	if !ok {
		return
	}

	counter, err := h.counterService.Get(c.Request.Context(), tenantID, docType)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, counter)
}

// Initialize godoc
// @Summary      Initialize a numbering counter
// @Description  Seeds the counter for a document type. Returns 201 when created and
// @Description  200 with the existing counter unchanged when it already exists.
// @Tags         sequence-counters
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID"
// @Param        type        path   string true "Document type"
// @Param        request body salesapp.InitializeCounterRequest true "Start number and optional prefix"
// @Success      201 {object} dto.Response{data=salesapp.InitializeCounterResponse}
// @Success      200 {object} dto.Response{data=salesapp.InitializeCounterResponse}
// @Failure      400 {object} dto.Response
// @Router       /sequence-counters/{type}/initialize [post]
func (h *SequenceCounterHandler) Initialize(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	docType, ok := h.pathDocumentType(c)
	if !ok {
		return
	}

	var req salesapp.InitializeCounterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.counterService.Initialize(c.Request.Context(), tenantID, docType, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	c.JSON(status, dto.NewSuccessResponse(result))
}

// UpdatePrefix godoc
// @Summary      Change a counter's prefix
// @Description  Affects numbers allocated from now on. Issued documents keep their numbers.
// @Tags         sequence-counters
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID"
// @Param        type        path   string true "Document type"
// @Param        request body salesapp.UpdatePrefixRequest true "New prefix"
// @Success      200 {object} dto.Response{data=salesapp.SequenceCounterResponse}
// @Failure      404 {object} dto.Response
// @Router       /sequence-counters/{type}/prefix [put]
func (h *SequenceCounterHandler) UpdatePrefix(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	docType, ok := h.pathDocumentType(c)
	if !ok {
		return
	}

	var req salesapp.UpdatePrefixRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	counter, err := h.counterService.UpdatePrefix(c.Request.Context(), tenantID, docType, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, counter)
}
