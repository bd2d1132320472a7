package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/aliciadata/docstore/internal/config"
	"github.com/aliciadata/docstore/internal/domain"
	"github.com/aliciadata/docstore/internal/repo"
)

func newTestAPI(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("router_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}

	cfg := config.Config{
		APIBasePath: "/api/v1",
		PreviewLen:  100,
		RateRPS:     1000,
		RateBurst:   1000,
	}
	cfg.OTEL.ServiceName = "docstore-test"

	r := gin.New()
	RegisterRoutes(r, db, cfg)
	return r
}

func do(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth_OK(t *testing.T) {
	r := newTestAPI(t)
	w := do(t, r, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("health = %d; want 200 (body %s)", w.Code, w.Body.String())
	}
}

func TestNoRouteAndNoMethod(t *testing.T) {
	r := newTestAPI(t)

	if w := do(t, r, http.MethodGet, "/nope", ""); w.Code != http.StatusNotFound {
		t.Fatalf("unknown route = %d; want 404", w.Code)
	}
	if w := do(t, r, http.MethodPatch, "/api/v1/documents", ""); w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("bad method = %d; want 405", w.Code)
	}
}

func TestRequestIDHeaderPresent(t *testing.T) {
	r := newTestAPI(t)
	w := do(t, r, http.MethodGet, "/health", "")
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("X-Request-ID missing from response")
	}
}

// End-to-end walk of the documented lifecycle: create, duplicate-create
// conflict, soft delete, name reuse, blocked restore, and search visibility.
func TestDocumentLifecycle_EndToEnd(t *testing.T) {
	r := newTestAPI(t)
	const payload = `{"name":"Alice Resume 2024","resume":"resume body","jd":"jd body","summary":""}`

	// Create succeeds.
	w := do(t, r, http.MethodPost, "/api/v1/documents", payload)
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d; want 201 (body %s)", w.Code, w.Body.String())
	}
	var first domain.Document
	if err := json.Unmarshal(w.Body.Bytes(), &first); err != nil {
		t.Fatalf("json: %v", err)
	}
	if first.ID == 0 || !first.CreatedAt.Equal(first.UpdatedAt) {
		t.Fatalf("unexpected created document: %+v", first)
	}

	// Second create with the same active name conflicts.
	if w := do(t, r, http.MethodPost, "/api/v1/documents", payload); w.Code != http.StatusConflict {
		t.Fatalf("duplicate create = %d; want 409", w.Code)
	}

	// Blank name is a validation failure.
	if w := do(t, r, http.MethodPost, "/api/v1/documents", `{"name":"   "}`); w.Code != http.StatusBadRequest {
		t.Fatalf("blank name = %d; want 400", w.Code)
	}

	// Soft delete, then the row is still fetchable with its deletion instant.
	if w := do(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/documents/%d", first.ID), ""); w.Code != http.StatusNoContent {
		t.Fatalf("delete = %d; want 204", w.Code)
	}
	w = do(t, r, http.MethodGet, fmt.Sprintf("/api/v1/documents/%d", first.ID), "")
	if w.Code != http.StatusOK {
		t.Fatalf("get after delete = %d; want 200", w.Code)
	}
	var deleted domain.Document
	if err := json.Unmarshal(w.Body.Bytes(), &deleted); err != nil {
		t.Fatalf("json: %v", err)
	}
	if deleted.IsActive() {
		t.Fatalf("deleted_at not set after delete: %+v", deleted)
	}

	// The name is free again: a third create succeeds with a fresh id.
	w = do(t, r, http.MethodPost, "/api/v1/documents", payload)
	if w.Code != http.StatusCreated {
		t.Fatalf("recreate after delete = %d; want 201 (body %s)", w.Code, w.Body.String())
	}
	var second domain.Document
	if err := json.Unmarshal(w.Body.Bytes(), &second); err != nil {
		t.Fatalf("json: %v", err)
	}
	if second.ID == first.ID {
		t.Fatalf("recreate reused id %d", first.ID)
	}

	// Restoring the original row now collides with the new holder.
	if w := do(t, r, http.MethodPost, fmt.Sprintf("/api/v1/documents/%d/restore", first.ID), ""); w.Code != http.StatusConflict {
		t.Fatalf("blocked restore = %d; want 409", w.Code)
	}

	// Default search hides the deleted row; include_deleted shows both.
	w = do(t, r, http.MethodGet, "/api/v1/documents?q=alice", "")
	var active listResponse
	if err := json.Unmarshal(w.Body.Bytes(), &active); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(active.Documents) != 1 || active.Documents[0].ID != second.ID {
		t.Fatalf("active search = %+v; want only id %d", active.Documents, second.ID)
	}

	w = do(t, r, http.MethodGet, "/api/v1/documents?q=ALICE&include_deleted=true", "")
	var all listResponse
	if err := json.Unmarshal(w.Body.Bytes(), &all); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(all.Documents) != 2 {
		t.Fatalf("include_deleted search returned %d rows; want 2", len(all.Documents))
	}
	// id ASC ordering
	if all.Documents[0].ID != first.ID || all.Documents[1].ID != second.ID {
		t.Fatalf("results out of id order: %+v", all.Documents)
	}
}

func TestUpdateThroughAPI_RefreshesUpdatedAt(t *testing.T) {
	r := newTestAPI(t)

	w := do(t, r, http.MethodPost, "/api/v1/documents", `{"name":"draft","resume":"v1"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create = %d", w.Code)
	}
	var doc domain.Document
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("json: %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	w = do(t, r, http.MethodPut, fmt.Sprintf("/api/v1/documents/%d", doc.ID), `{"name":"final","resume":"v2"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("update = %d; want 200 (body %s)", w.Code, w.Body.String())
	}
	var updated domain.Document
	if err := json.Unmarshal(w.Body.Bytes(), &updated); err != nil {
		t.Fatalf("json: %v", err)
	}
	if updated.Name != "final" || updated.Resume != "v2" {
		t.Fatalf("fields not updated: %+v", updated)
	}
	if !updated.UpdatedAt.After(updated.CreatedAt) {
		t.Fatalf("updated_at not refreshed: %+v", updated)
	}
	if !updated.CreatedAt.Equal(doc.CreatedAt) {
		t.Fatalf("created_at drifted: %v -> %v", doc.CreatedAt, updated.CreatedAt)
	}
}

// listResponse mirrors handlers.ListDocumentsResponse closely enough for
// decoding without importing the handlers package.
type listResponse struct {
	Documents []struct {
		ID        uint       `json:"id"`
		Name      string     `json:"name"`
		DeletedAt *time.Time `json:"deleted_at,omitempty"`
	} `json:"documents"`
}
