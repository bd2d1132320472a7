// Package services defines the business logic for the document registry.
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer; translation
// into user-facing messages or HTTP status codes is performed at the
// handler layer.
package services

import "errors"

var (
	// ErrDocumentNotFound indicates that no document exists with the requested
	// id. It usually means the caller is acting on stale state.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrNameRequired is returned when a create or update request carries an
	// empty (or whitespace-only) name. The name is the canonical lookup key
	// and may never be blank.
	ErrNameRequired = errors.New("name is required")

	// ErrNameTaken is returned when an operation would leave two active
	// documents holding the same name: creating under a held name, renaming
	// onto one, or restoring a row whose name was claimed in the meantime.
	ErrNameTaken = errors.New("name already in use by an active document")

	// ErrStorageUnavailable wraps unexpected persistence failures. The
	// operation in flight is lost but the process stays up; the next user
	// action retries against the store.
	ErrStorageUnavailable = errors.New("document store unavailable")
)
