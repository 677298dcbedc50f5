package models

import (
	"fmt"
	"strings"
)

// AuthenticationError indicates no verified principal was attached to the call.
type AuthenticationError struct {
	Reason string
}

func (e *AuthenticationError) Error() string {
	if e.Reason == "" {
		return "authentication required"
	}
	return "authentication required: " + e.Reason
}

// AuthorizationError indicates the principal is out of scope for the target row.
// The operation is aborted with no partial effect.
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string {
	if e.Reason == "" {
		return "permission denied"
	}
	return "permission denied: " + e.Reason
}

// ValidationError carries the full ordered list of violated rules.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}

// NotFoundError indicates the target entity does not exist (or is invisible).
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

// ConflictError indicates a precondition or unique-key conflict, surfaced
// distinctly from generic persistence failure (e.g. delete of a POSTED row).
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string {
	return "conflict: " + e.Reason
}
