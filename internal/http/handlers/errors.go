// Package handlers defines HTTP-layer error codes used across all API
// endpoints. The codes form a stable, machine-readable taxonomy that
// supplements human-readable messages; handlers pass the most specific code
// to fail() together with the HTTP status.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "conflict",
//	  "message": "name already in use by an active document"
//	}
package handlers

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeValidation       = "validation_failed"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"

	// ErrCodeStorageUnavailable signals the persistent store could not be
	// reached; the condition is retryable on the next request.
	ErrCodeStorageUnavailable = "storage_unavailable"
)
