// Package core holds the error taxonomy shared by the rule engine.
// Validation and guard errors are resolved at the boundary with no partial
// writes; concurrency conflicts propagate up for retry; collaborator
// failures are logged at the point of use and never unwind committed state.
package core

import (
	"fmt"

	"pmes/internal/model"
)

// FieldError describes one invalid field in a request.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError rejects malformed input before any state mutation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 1 {
		return fmt.Sprintf("validation failed: %s: %s", e.Fields[0].Field, e.Fields[0].Message)
	}
	return fmt.Sprintf("validation failed: %d invalid fields", len(e.Fields))
}

func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// GuardViolation rejects a review transition attempted by the wrong actor
// role, or any transition on a submission already in a terminal state.
// Reason, when set, names a guard beyond the role/status pair, such as the
// milestone already being approved.
type GuardViolation struct {
	Role   model.Role
	From   model.SubmissionStatus
	Action string
	Reason string
}

func (e *GuardViolation) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("role %q may not %s: %s", e.Role, e.Action, e.Reason)
	}
	return fmt.Sprintf("role %q may not %s a submission in state %q", e.Role, e.Action, e.From)
}

// NotFoundError indicates a referenced entity does not exist.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// ConcurrencyConflict indicates a row-lock or version conflict. The whole
// operation is safe to retry: every core operation is idempotent given the
// same inputs.
type ConcurrencyConflict struct {
	Resource string
}

func (e *ConcurrencyConflict) Error() string {
	return fmt.Sprintf("concurrent modification of %s, retry the operation", e.Resource)
}

// CollaboratorFailure wraps a failure of a best-effort side channel such as
// the notification recorder. It must not unwind an already-committed status
// or progress change.
type CollaboratorFailure struct {
	Collaborator string
	Err          error
}

func (e *CollaboratorFailure) Error() string {
	return fmt.Sprintf("collaborator %s failed: %v", e.Collaborator, e.Err)
}

func (e *CollaboratorFailure) Unwrap() error {
	return e.Err
}
