// Package repo implements the data persistence layer for the document
// registry, backed by GORM. This file provides repository functions for the
// Document model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a document is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - Violations of the active-name unique index and other DB errors are
//     propagated raw; the service layer maps them to stable sentinels.
//
// Visibility rules:
//   - GORM's default soft-delete scope hides deleted rows, which matches the
//     registry's default "active documents" view.
//   - GetDocument and the includeDeleted search variants use Unscoped() so
//     soft-deleted rows stay reachable (they can still be inspected and
//     restored; soft delete never makes a row disappear from the store).
package repo

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/aliciadata/docstore/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CreateDocument inserts a new document row. CreatedAt and UpdatedAt are set
// to the same UTC instant, so a freshly created document always satisfies
// created_at == updated_at. The active-name unique index rejects the insert
// when another active document already holds the name; that error is
// propagated raw for the service layer to classify.
func CreateDocument(ctx context.Context, db *gorm.DB, name, resume, jd, summary string) (*domain.Document, error) {
	now := time.Now().UTC()
	d := &domain.Document{
		Name:      name,
		Resume:    resume,
		JD:        jd,
		Summary:   summary,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(d).Error; err != nil {
		return nil, err
	}
	return d, nil
}

// GetDocument fetches a document by ID regardless of deletion state.
// Returns ErrNotFound if the row does not exist.
func GetDocument(ctx context.Context, db *gorm.DB, id uint) (*domain.Document, error) {
	var d domain.Document
	err := db.WithContext(ctx).Unscoped().
		Where("id = ?", id).
		First(&d).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// UpdateDocument overwrites the four mutable fields of the active document
// with id. The updated_at refresh is applied by GORM inside the same UPDATE
// statement; created_at and deleted_at are never touched. Soft-deleted rows
// are not updatable (restore first), so the default scope applies and a
// deleted id reports ErrNotFound the same as a missing one.
func UpdateDocument(ctx context.Context, db *gorm.DB, id uint, name, resume, jd, summary string) (*domain.Document, error) {
	res := db.WithContext(ctx).
		Model(&domain.Document{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"name":    name,
			"resume":  resume,
			"jd":      jd,
			"summary": summary,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return GetDocument(ctx, db, id)
}

// SoftDeleteDocument marks the document as deleted by stamping deleted_at.
// Deleting an already-deleted row is an idempotent no-op that preserves the
// original deletion instant (the UPDATE only targets active rows). Returns
// ErrNotFound only when no row with id exists at all.
func SoftDeleteDocument(ctx context.Context, db *gorm.DB, id uint) error {
	res := db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&domain.Document{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Either the row is already soft-deleted (fine) or it never existed.
		if _, err := GetDocument(ctx, db, id); err != nil {
			return err
		}
	}
	return nil
}

// RestoreDocument clears deleted_at on the row with id, returning it to the
// active set. UpdateColumns is used deliberately: restoring is not a content
// mutation, so updated_at is left alone. The active-name unique index rejects
// the restore when another active document took the name in the meantime.
// Returns ErrNotFound when no row has that id.
func RestoreDocument(ctx context.Context, db *gorm.DB, id uint) error {
	res := db.WithContext(ctx).Unscoped().
		Model(&domain.Document{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{"deleted_at": nil})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// NameTaken reports whether an active document other than excludeID currently
// holds name (exact match). Pass excludeID = 0 to consider all active rows.
func NameTaken(ctx context.Context, db *gorm.DB, name string, excludeID uint) (bool, error) {
	var count int64
	q := db.WithContext(ctx).
		Model(&domain.Document{}).
		Where("name = ?", name)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// SearchDocuments returns documents whose name contains query
// (case-insensitive), ordered by id ascending for deterministic display.
// An empty query matches everything. Soft-deleted rows are included only
// when includeDeleted is true.
func SearchDocuments(ctx context.Context, db *gorm.DB, query string, includeDeleted bool) ([]domain.Document, error) {
	var out []domain.Document
	err := searchScope(db.WithContext(ctx), query, includeDeleted).
		Order("id ASC").
		Find(&out).Error
	return out, err
}

// CountDocuments returns the total number of documents matching query under
// the includeDeleted filter. Used for pagination metadata.
func CountDocuments(ctx context.Context, db *gorm.DB, query string, includeDeleted bool) (int64, error) {
	var total int64
	err := searchScope(db.WithContext(ctx), query, includeDeleted).
		Count(&total).Error
	return total, err
}

// SearchDocumentsPage returns a paginated slice of matching documents ordered
// by id ascending. The caller computes offset and limit (e.g., (page-1)*pageSize).
func SearchDocumentsPage(ctx context.Context, db *gorm.DB, query string, includeDeleted bool, offset, limit int) ([]domain.Document, error) {
	var out []domain.Document
	err := searchScope(db.WithContext(ctx), query, includeDeleted).
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// searchScope composes the shared WHERE clause for search and count queries.
// lower() keeps the substring match case-insensitive across storage engines
// instead of relying on SQLite's LIKE defaults.
func searchScope(db *gorm.DB, query string, includeDeleted bool) *gorm.DB {
	q := db.Model(&domain.Document{})
	if includeDeleted {
		q = q.Unscoped()
	}
	if query != "" {
		q = q.Where("lower(name) LIKE ?", "%"+strings.ToLower(query)+"%")
	}
	return q
}
