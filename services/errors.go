package services

import "errors"

// Case lifecycle errors. Handlers map them to HTTP statuses with errors.Is.
var (
	// ErrCaseNotFound is returned both for missing cases and for cases outside the
	// caller's scope so the response never reveals another tenant's records
	ErrCaseNotFound        = errors.New("case not found")
	ErrClientNotFound      = errors.New("client not found")
	ErrAssigneeNotFound    = errors.New("assigned user not found")
	ErrInvalidCaseField    = errors.New("invalid case field")
	ErrConcurrencyConflict = errors.New("case number allocation conflict, please retry")
)
