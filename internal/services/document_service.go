// Package services – DocumentService
//
// This file implements the DocumentService, which owns the lifecycle of
// registry documents. It normalizes and validates input (trimming, Unicode
// NFC folding of names), coordinates repository operations for create,
// update, search, soft delete, and restore, and maps persistence failures to
// stable service-level errors (ErrDocumentNotFound, ErrNameRequired,
// ErrNameTaken, ErrStorageUnavailable) so handlers can translate them to
// HTTP results consistently.
//
// Active-name uniqueness is never checked-then-acted at this layer: the
// partial unique index in the store is the authority, and constraint
// violations are classified after the fact. The one read-before-write
// (Restore) runs inside a transaction with the index as backstop.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
	"gorm.io/gorm"

	"github.com/aliciadata/docstore/internal/domain"
	"github.com/aliciadata/docstore/internal/repo"
)

// DocumentRepo defines the repository contract required by DocumentService.
// Implementations are responsible for persistence of document rows.
type DocumentRepo interface {
	// CreateDocument inserts a new row with system-assigned id and timestamps.
	CreateDocument(ctx context.Context, db *gorm.DB, name, resume, jd, summary string) (*domain.Document, error)

	// GetDocument fetches a row by id regardless of deletion state.
	GetDocument(ctx context.Context, db *gorm.DB, id uint) (*domain.Document, error)

	// UpdateDocument overwrites the four mutable fields and refreshes updated_at.
	UpdateDocument(ctx context.Context, db *gorm.DB, id uint, name, resume, jd, summary string) (*domain.Document, error)

	// SoftDeleteDocument stamps deleted_at; idempotent for already-deleted rows.
	SoftDeleteDocument(ctx context.Context, db *gorm.DB, id uint) error

	// RestoreDocument clears deleted_at, returning the row to the active set.
	RestoreDocument(ctx context.Context, db *gorm.DB, id uint) error

	// NameTaken reports whether an active row other than excludeID holds name.
	NameTaken(ctx context.Context, db *gorm.DB, name string, excludeID uint) (bool, error)

	// SearchDocuments returns all rows matching query under the deleted filter.
	SearchDocuments(ctx context.Context, db *gorm.DB, query string, includeDeleted bool) ([]domain.Document, error)

	// CountDocuments returns the total matching rows for pagination.
	CountDocuments(ctx context.Context, db *gorm.DB, query string, includeDeleted bool) (int64, error)

	// SearchDocumentsPage returns a page of matching rows ordered by id.
	SearchDocumentsPage(ctx context.Context, db *gorm.DB, query string, includeDeleted bool, offset, limit int) ([]domain.Document, error)
}

// DocumentService provides document-level operations: create, update, fetch,
// search, soft delete, and restore. It is stateless between calls; identity
// always travels explicitly as the document id, never as ambient selection.
type DocumentService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Repo is the document repository used by this service.
	Repo DocumentRepo
}

// NewDocumentService constructs a DocumentService bound to db and r.
func NewDocumentService(db *gorm.DB, r DocumentRepo) *DocumentService {
	return &DocumentService{DB: db, Repo: r}
}

// Create inserts a new document. The name is trimmed and NFC-normalized and
// must be non-empty; resume, jd, and summary are trimmed and may be blank.
// Returns ErrNameRequired for a blank name and ErrNameTaken when an active
// document already holds the name.
func (s *DocumentService) Create(ctx context.Context, name, resume, jd, summary string) (*domain.Document, error) {
	name = normalizeName(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	doc, err := s.Repo.CreateDocument(ctx, s.DB, name, strings.TrimSpace(resume), strings.TrimSpace(jd), strings.TrimSpace(summary))
	if err != nil {
		if isDuplicate(err) {
			return nil, ErrNameTaken
		}
		return nil, storageErr(err)
	}
	return doc, nil
}

// Update overwrites the four mutable fields of the active document with id
// and refreshes updated_at. created_at and deleted_at are untouched. Returns
// ErrDocumentNotFound when id is absent or soft-deleted (deleted rows must be
// restored before editing), ErrNameRequired for a blank name, and
// ErrNameTaken when the new name collides with another active document.
func (s *DocumentService) Update(ctx context.Context, id uint, name, resume, jd, summary string) (*domain.Document, error) {
	name = normalizeName(name)
	if name == "" {
		return nil, ErrNameRequired
	}
	doc, err := s.Repo.UpdateDocument(ctx, s.DB, id, name, strings.TrimSpace(resume), strings.TrimSpace(jd), strings.TrimSpace(summary))
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return nil, ErrDocumentNotFound
		case isDuplicate(err):
			return nil, ErrNameTaken
		default:
			return nil, storageErr(err)
		}
	}
	return doc, nil
}

// Get fetches a document by id, deleted or not. Returns ErrDocumentNotFound
// when no row has that id.
func (s *DocumentService) Get(ctx context.Context, id uint) (*domain.Document, error) {
	doc, err := s.Repo.GetDocument(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, storageErr(err)
	}
	return doc, nil
}

// Delete soft-deletes the document with id. Deleting an already-deleted row
// is a no-op that keeps the original deletion instant. Returns
// ErrDocumentNotFound only when no row with id exists.
func (s *DocumentService) Delete(ctx context.Context, id uint) error {
	if err := s.Repo.SoftDeleteDocument(ctx, s.DB, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrDocumentNotFound
		}
		return storageErr(err)
	}
	return nil
}

// Restore clears the deletion mark on the document with id, subject to the
// active-name uniqueness invariant: if another active document claimed the
// name while this row was deleted, Restore fails with ErrNameTaken and the
// row stays soft-deleted.
//
// The existence check, name guard, and write run in one transaction; the
// partial unique index still backstops the guard against concurrent writers.
func (s *DocumentService) Restore(ctx context.Context, id uint) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc, err := s.Repo.GetDocument(ctx, tx, id)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrDocumentNotFound
			}
			return err
		}
		if doc.IsActive() {
			return nil // nothing to restore
		}
		taken, err := s.Repo.NameTaken(ctx, tx, doc.Name, id)
		if err != nil {
			return err
		}
		if taken {
			return ErrNameTaken
		}
		return s.Repo.RestoreDocument(ctx, tx, id)
	})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrDocumentNotFound), errors.Is(err, ErrNameTaken):
		return err
	case isDuplicate(err):
		return ErrNameTaken
	default:
		return storageErr(err)
	}
}

// Search returns all documents whose name contains query (case-insensitive),
// ordered by id ascending. An empty query matches everything; soft-deleted
// rows appear only when includeDeleted is set.
func (s *DocumentService) Search(ctx context.Context, query string, includeDeleted bool) ([]domain.Document, error) {
	out, err := s.Repo.SearchDocuments(ctx, s.DB, strings.TrimSpace(query), includeDeleted)
	if err != nil {
		return nil, storageErr(err)
	}
	return out, nil
}

// SearchPage returns a page of matching documents plus the total match count.
// It applies defaults for invalid page/pageSize.
func (s *DocumentService) SearchPage(ctx context.Context, query string, includeDeleted bool, page, pageSize int) ([]domain.Document, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize
	query = strings.TrimSpace(query)

	total, err := s.Repo.CountDocuments(ctx, s.DB, query, includeDeleted)
	if err != nil {
		return nil, 0, storageErr(err)
	}
	if total == 0 {
		return []domain.Document{}, 0, nil
	}

	items, err := s.Repo.SearchDocumentsPage(ctx, s.DB, query, includeDeleted, offset, pageSize)
	if err != nil {
		return nil, 0, storageErr(err)
	}
	return items, total, nil
}

// normalizeName trims whitespace and folds the name to Unicode NFC so that
// visually identical names cannot coexist as distinct active rows.
func normalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// isDuplicate detects unique-constraint violations across drivers that may
// not map to gorm.ErrDuplicatedKey.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	// SQLite typically: "UNIQUE constraint failed"
	// Postgres typically: "duplicate key value violates unique constraint"
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}

// storageErr tags an unexpected persistence failure so handlers can surface
// a retryable connectivity message instead of a generic 500.
func storageErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}
