// Package httpapi wires the HTTP transport (Gin) to the document service,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging, panic recovery, metrics, CORS,
// security headers, and rate limiting.
//
// Design goals:
//   - Observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/aliciadata/docstore/internal/config"
	"github.com/aliciadata/docstore/internal/domain"
	"github.com/aliciadata/docstore/internal/http/handlers"
	"github.com/aliciadata/docstore/internal/http/middleware"
	"github.com/aliciadata/docstore/internal/repo"
	"github.com/aliciadata/docstore/internal/services"
)

// docRepoShim adapts the repository free functions to the
// services.DocumentRepo interface expected by the DocumentService. This keeps
// the service decoupled from the concrete repo package while reusing the
// existing functions.
type docRepoShim struct{}

func (docRepoShim) CreateDocument(ctx context.Context, db *gorm.DB, name, resume, jd, summary string) (*domain.Document, error) {
	return repo.CreateDocument(ctx, db, name, resume, jd, summary)
}

func (docRepoShim) GetDocument(ctx context.Context, db *gorm.DB, id uint) (*domain.Document, error) {
	return repo.GetDocument(ctx, db, id)
}

func (docRepoShim) UpdateDocument(ctx context.Context, db *gorm.DB, id uint, name, resume, jd, summary string) (*domain.Document, error) {
	return repo.UpdateDocument(ctx, db, id, name, resume, jd, summary)
}

func (docRepoShim) SoftDeleteDocument(ctx context.Context, db *gorm.DB, id uint) error {
	return repo.SoftDeleteDocument(ctx, db, id)
}

func (docRepoShim) RestoreDocument(ctx context.Context, db *gorm.DB, id uint) error {
	return repo.RestoreDocument(ctx, db, id)
}

func (docRepoShim) NameTaken(ctx context.Context, db *gorm.DB, name string, excludeID uint) (bool, error) {
	return repo.NameTaken(ctx, db, name, excludeID)
}

func (docRepoShim) SearchDocuments(ctx context.Context, db *gorm.DB, query string, includeDeleted bool) ([]domain.Document, error) {
	return repo.SearchDocuments(ctx, db, query, includeDeleted)
}

func (docRepoShim) CountDocuments(ctx context.Context, db *gorm.DB, query string, includeDeleted bool) (int64, error) {
	return repo.CountDocuments(ctx, db, query, includeDeleted)
}

func (docRepoShim) SearchDocumentsPage(ctx context.Context, db *gorm.DB, query string, includeDeleted bool, offset, limit int) ([]domain.Document, error) {
	return repo.SearchDocumentsPage(ctx, db, query, includeDeleted, offset, limit)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine: observability, rate limiting, CORS and security headers, health and
// metrics endpoints, and the versioned document API.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Structured access logging
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. Rate limiter (per client IP)
//  8. CORS and security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging (metadata only; résumé bodies are never logged)
	r.Use(middleware.Logger())

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (4 MiB: room for large résumé + JD payloads)
	r.Use(limitBody(4 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Token-bucket rate limiter per client IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByClientIP())
	r.Use(rl.Handler())

	// 8) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health: verifies the documents table is reachable so storage
	// outages surface here instead of on the next user action.
	r.GET("/health", func(c *gin.Context) {
		if err := repo.Ping(c.Request.Context(), db); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "storage": "unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Dependency injection: service ← repo/db
	docSvc := services.NewDocumentService(db, docRepoShim{})
	h := handlers.New(docSvc, cfg.PreviewLen)

	// Public API
	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		api.POST("/documents", h.CreateDocument)
		api.GET("/documents", h.ListDocuments)
		api.GET("/documents/:id", h.GetDocument)
		api.PUT("/documents/:id", h.UpdateDocument)
		api.DELETE("/documents/:id", h.DeleteDocument)
		api.POST("/documents/:id/restore", h.RestoreDocument)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
