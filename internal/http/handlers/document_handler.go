// Document HTTP handlers.
//
// This file exposes REST endpoints for registry documents:
//   - POST   /documents              (create)
//   - GET    /documents              (search, paginated)
//   - GET    /documents/{id}         (fetch, deleted rows included)
//   - PUT    /documents/{id}         (update all mutable fields)
//   - DELETE /documents/{id}         (soft delete)
//   - POST   /documents/{id}/restore (clear the deletion mark)
//
// Handlers are transport-thin: they validate input, call the document
// service, and translate results into HTTP responses. List responses carry a
// read model that truncates résumé and job-description text for tabular
// display; truncation is never applied to stored data.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aliciadata/docstore/internal/domain"
	"github.com/aliciadata/docstore/internal/services"
	"github.com/aliciadata/docstore/internal/utils"
)

// DocumentService defines the document lifecycle operations consumed by the
// HTTP layer. Implementations must be safe for concurrent use and honor the
// provided context for cancellation and timeouts.
type DocumentService interface {
	// Create registers a new document under a unique active name.
	Create(ctx context.Context, name, resume, jd, summary string) (*domain.Document, error)
	// Update overwrites the four mutable fields of the document with id.
	Update(ctx context.Context, id uint, name, resume, jd, summary string) (*domain.Document, error)
	// Get fetches a document by id regardless of deletion state.
	Get(ctx context.Context, id uint) (*domain.Document, error)
	// Delete soft-deletes the document with id (idempotent).
	Delete(ctx context.Context, id uint) error
	// Restore clears the deletion mark, guarded by active-name uniqueness.
	Restore(ctx context.Context, id uint) error
	// SearchPage returns a page of name matches plus the total match count.
	SearchPage(ctx context.Context, query string, includeDeleted bool, page, pageSize int) ([]domain.Document, int64, error)
}

// Handlers groups the HTTP endpoints for documents. It depends on the
// abstract service interface to keep transport concerns separate from
// business logic.
type Handlers struct {
	docSvc     DocumentService
	previewLen int
}

// New constructs a Handlers instance bound to the given service. previewLen
// caps résumé/JD previews in list responses (values <= 0 fall back to 100).
func New(docSvc DocumentService, previewLen int) *Handlers {
	if previewLen <= 0 {
		previewLen = 100
	}
	return &Handlers{docSvc: docSvc, previewLen: previewLen}
}

//
// DTOs
//

// DocumentRequest is the JSON payload for creating or updating a document.
// The name is required by the registry; the remaining fields may be blank.
type DocumentRequest struct {
	Name    string `json:"name" example:"Alice Resume 2024"`
	Resume  string `json:"resume" example:"Experienced backend engineer…"`
	JD      string `json:"jd" example:"We are hiring a Go developer…"`
	Summary string `json:"summary" example:"Tailored for the platform team"`
}

// DocumentSummary is the tabular read model for list responses. Resume and
// JD are truncated previews; fetch the document by id for the full text.
type DocumentSummary struct {
	ID            uint       `json:"id"`
	Name          string     `json:"name"`
	ResumePreview string     `json:"resume_preview"`
	JDPreview     string     `json:"jd_preview"`
	Summary       string     `json:"summary"`
	UpdatedAt     time.Time  `json:"updated_at"`
	DeletedAt     *time.Time `json:"deleted_at,omitempty"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListDocumentsResponse wraps a page of document summaries and pagination
// information.
type ListDocumentsResponse struct {
	Documents  []DocumentSummary `json:"documents"`
	Pagination Pagination        `json:"pagination"`
}

//
// Helpers
//

// pathID parses the :id route parameter. A zero or malformed id aborts the
// request with 400 and returns ok=false.
func pathID(c *gin.Context) (uint, bool) {
	raw := c.Param("id")
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid document id")
		return 0, false
	}
	return uint(id), true
}

// clampPagination parses and bounds page and page_size query params.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = defaultPage
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}

// summarize converts a document into its tabular read model.
func (h *Handlers) summarize(d domain.Document) DocumentSummary {
	s := DocumentSummary{
		ID:            d.ID,
		Name:          d.Name,
		ResumePreview: utils.TruncateRunes(d.Resume, h.previewLen),
		JDPreview:     utils.TruncateRunes(d.JD, h.previewLen),
		Summary:       d.Summary,
		UpdatedAt:     d.UpdatedAt,
	}
	if lc := d.Lifecycle(); lc.Deleted {
		at := lc.At
		s.DeletedAt = &at
	}
	return s
}

// svcFail translates service-level sentinel errors into HTTP responses.
func svcFail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNameRequired):
		fail(c, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, services.ErrNameTaken):
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, services.ErrDocumentNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, services.ErrStorageUnavailable):
		fail(c, http.StatusServiceUnavailable, ErrCodeStorageUnavailable, "document store unavailable, retry shortly")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
	}
}

//
// Endpoints
//

// CreateDocument handles POST /documents.
//
// Responds 201 with the persisted document, 400 when the name is blank,
// 409 when an active document already holds the name.
func (h *Handlers) CreateDocument(c *gin.Context) {
	var req DocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
		return
	}

	doc, err := h.docSvc.Create(c.Request.Context(), req.Name, req.Resume, req.JD, req.Summary)
	if err != nil {
		svcFail(c, err)
		return
	}
	ok(c, http.StatusCreated, doc)
}

// GetDocument handles GET /documents/:id. Soft-deleted documents remain
// fetchable so they can be inspected and restored.
func (h *Handlers) GetDocument(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}

	doc, err := h.docSvc.Get(c.Request.Context(), id)
	if err != nil {
		svcFail(c, err)
		return
	}
	ok(c, http.StatusOK, doc)
}

// UpdateDocument handles PUT /documents/:id. All four mutable fields are
// overwritten with the request values; updated_at is refreshed by the store.
// Soft-deleted documents respond 404 and must be restored before editing.
func (h *Handlers) UpdateDocument(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	var req DocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid request body")
		return
	}

	doc, err := h.docSvc.Update(c.Request.Context(), id, req.Name, req.Resume, req.JD, req.Summary)
	if err != nil {
		svcFail(c, err)
		return
	}
	ok(c, http.StatusOK, doc)
}

// DeleteDocument handles DELETE /documents/:id. Repeat deletions are
// idempotent; 404 is returned only when the id never existed.
func (h *Handlers) DeleteDocument(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	if err := h.docSvc.Delete(c.Request.Context(), id); err != nil {
		svcFail(c, err)
		return
	}
	noContent(c)
}

// RestoreDocument handles POST /documents/:id/restore. Fails with 409 when
// another active document claimed the name while this row was deleted.
func (h *Handlers) RestoreDocument(c *gin.Context) {
	id, valid := pathID(c)
	if !valid {
		return
	}
	if err := h.docSvc.Restore(c.Request.Context(), id); err != nil {
		svcFail(c, err)
		return
	}
	noContent(c)
}

// ListDocuments handles GET /documents.
//
// Query parameters:
//   - q:               case-insensitive substring filter on name (empty = all)
//   - include_deleted: "true" to include soft-deleted rows (default false)
//   - page, page_size: pagination (defaults 1 / 20, page_size capped at 100)
func (h *Handlers) ListDocuments(c *gin.Context) {
	page, pageSize := clampPagination(c)
	query := c.Query("q")
	includeDeleted := c.Query("include_deleted") == "true"

	items, total, err := h.docSvc.SearchPage(c.Request.Context(), query, includeDeleted, page, pageSize)
	if err != nil {
		svcFail(c, err)
		return
	}

	summaries := make([]DocumentSummary, 0, len(items))
	for _, d := range items {
		summaries = append(summaries, h.summarize(d))
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	ok(c, http.StatusOK, ListDocumentsResponse{
		Documents: summaries,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	})
}
