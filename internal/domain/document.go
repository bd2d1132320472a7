// Package domain defines the persistence model for the document registry.
// A Document bundles a résumé, a job description, and a free-form summary
// under a unique human-chosen name. The type is mapped with GORM and forms
// the core data layer of the application.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Document is the sole entity of the registry.
//
// Fields:
//   - ID: auto-increment integer primary key, system-assigned and immutable.
//   - Name: required lookup key; unique among active (non-deleted) rows only.
//     Uniqueness is enforced by a partial unique index so a name can be reused
//     after its previous holder has been soft-deleted.
//   - Resume / JD / Summary: optional free-form text (resumes and job
//     descriptions average a few KB; no length cap is imposed).
//   - CreatedAt: set once at insert, never modified afterwards.
//   - UpdatedAt: set at insert and refreshed by GORM on every mutating write.
//   - DeletedAt: soft deletion marker; null means active. The row doubles as
//     an audit record of when the deletion happened.
type Document struct {
	ID        uint           `json:"id"         gorm:"primaryKey"`
	Name      string         `json:"name"       gorm:"type:text;not null;uniqueIndex:ux_documents_active_name,where:deleted_at IS NULL"`
	Resume    string         `json:"resume"     gorm:"type:text"`
	JD        string         `json:"jd"         gorm:"column:jd;type:text"`
	Summary   string         `json:"summary"    gorm:"type:text"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}

// TableName returns the database table name for Document.
func (Document) TableName() string { return "documents" }

// Lifecycle is the tagged deletion state of a document: either active, or
// deleted at a known instant. Callers should branch on this type instead of
// inspecting the nullable DeletedAt column directly.
type Lifecycle struct {
	Deleted bool
	At      time.Time // deletion instant; zero unless Deleted
}

// Lifecycle reports the document's current state.
func (d *Document) Lifecycle() Lifecycle {
	if d.DeletedAt.Valid {
		return Lifecycle{Deleted: true, At: d.DeletedAt.Time}
	}
	return Lifecycle{}
}

// IsActive reports whether the document has not been soft-deleted.
func (d *Document) IsActive() bool { return !d.DeletedAt.Valid }
