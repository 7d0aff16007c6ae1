package handler

import (
	salesapp "github.com/dealerflow/backend/internal/application/sales"
	"github.com/dealerflow/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// SalesDocumentHandler handles sales document endpoints
type SalesDocumentHandler struct {
	BaseHandler
	documentService *salesapp.DocumentService
}

// NewSalesDocumentHandler creates a new SalesDocumentHandler
func NewSalesDocumentHandler(documentService *salesapp.DocumentService) *SalesDocumentHandler {
	return &SalesDocumentHandler{documentService: documentService}
}

// Issue godoc
// @Summary      Issue a sales document
// @Description  Allocates the next document number for the type and issues the document.
// @Description  A repeated Idempotency-Key returns the original document with 200.
// @Tags         sales-documents
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID     header string true  "Tenant ID"
// @Param        Idempotency-Key header string false "Client-chosen key for safe retries"
// @Param        request body salesapp.IssueDocumentRequest true "Document to issue"
// @Success      201 {object} dto.Response{data=salesapp.SalesDocumentResponse}
// @Success      200 {object} dto.Response{data=salesapp.SalesDocumentResponse}
// @Failure      400 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Failure      500 {object} dto.Response
// @Router       /sales-documents [post]
func (h *SalesDocumentHandler) Issue(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	var req salesapp.IssueDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.documentService.Issue(c.Request.Context(), tenantID, req, c.GetHeader(middleware.IdempotencyKeyHeader))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if result.Replayed {
		c.Header(middleware.IdempotentReplayHeader, "true")
		h.Success(c, result.Document)
		return
	}
	h.Created(c, result.Document)
}

// List godoc
// @Summary      List sales documents
// @Tags         sales-documents
// @Produce      json
// @Param        X-Tenant-ID   header string true  "Tenant ID"
// @Param        document_type query  string false "INVOICE, DEPOSIT_RECEIPT or CREDIT_NOTE"
// @Param        status        query  string false "issued or voided"
// @Param        search        query  string false "Number, customer or VRM"
// @Param        page          query  int    false "Page number" default(1)
// @Param        page_size     query  int    false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]salesapp.SalesDocumentListItemResponse}
// @Router       /sales-documents [get]
func (h *SalesDocumentHandler) List(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	var filter salesapp.SalesDocumentListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	items, total, err := h.documentService.List(c.Request.Context(), tenantID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// GetByID godoc
// @Summary      Get a sales document
// @Tags         sales-documents
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID"
// @Param        id          path   string true "Document ID"
// @Success      200 {object} dto.Response{data=salesapp.SalesDocumentResponse}
// @Failure      404 {object} dto.Response
// @Router       /sales-documents/{id} [get]
func (h *SalesDocumentHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	documentID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	doc, err := h.documentService.GetByID(c.Request.Context(), tenantID, documentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// GetByNumber godoc
// @Summary      Get a sales document by number
// @Description  Returns the live document carrying the number, or the most recent voided one.
// @Tags         sales-documents
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID"
// @Param        number      path   string true "Document number, e.g. INV00042"
// @Param        document_type query string false "Restrict the lookup to one document type"
// @Success      200 {object} dto.Response{data=salesapp.SalesDocumentResponse}
// @Failure      400 {object} dto.Response
// @Failure      404 {object} dto.Response
// @Router       /sales-documents/number/{number} [get]
func (h *SalesDocumentHandler) GetByNumber(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}

	doc, err := h.documentService.GetByNumber(c.Request.Context(), tenantID, c.Param("number"), c.Query("document_type"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}

// Void godoc
// @Summary      Void a sales document
// @Tags         sales-documents
// @Accept       json
// @Produce      json
// @Param        X-Tenant-ID header string true "Tenant ID"
// @Param        id          path   string true "Document ID"
// @Param        request body salesapp.VoidDocumentRequest true "Void reason"
// @Success      200 {object} dto.Response{data=salesapp.SalesDocumentResponse}
// @Failure      404 {object} dto.Response
// @Failure      422 {object} dto.Response
// @Failure      409 {object} dto.Response
// @Router       /sales-documents/{id}/void [post]
func (h *SalesDocumentHandler) Void(c *gin.Context) {
	tenantID, ok := h.tenantID(c)
	if !ok {
		return
	}
	documentID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}

	var req salesapp.VoidDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	doc, err := h.documentService.Void(c.Request.Context(), tenantID, documentID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, doc)
}
