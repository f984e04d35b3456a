// Package apperrors defines the error taxonomy recovered at the HTTP boundary.
package apperrors

import "fmt"

// ValidationError reports bad input shape or range, naming the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidation creates a ValidationError for a field.
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// AuthorizationError reports a role or ownership check failure within the caller's tenant.
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string { return e.Message }

// NewAuthorization creates an AuthorizationError.
func NewAuthorization(message string) *AuthorizationError {
	return &AuthorizationError{Message: message}
}

// NotFoundError reports a resource that is absent or outside the caller's tenant.
// Cross-tenant access surfaces as NotFound, never as a distinct forbidden.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " not found" }

// NewNotFound creates a NotFoundError for a resource name.
func NewNotFound(resource string) *NotFoundError {
	return &NotFoundError{Resource: resource}
}

// StateConflictError reports a transition guard failure. CurrentStatus is the
// persisted status at the time of rejection so the caller can react.
type StateConflictError struct {
	Action        string
	CurrentStatus string
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("cannot %s: report status is %q", e.Action, e.CurrentStatus)
}

// NewStateConflict creates a StateConflictError.
func NewStateConflict(action, currentStatus string) *StateConflictError {
	return &StateConflictError{Action: action, CurrentStatus: currentStatus}
}

// QuotaExceededError reports a seat or storage plan limit. It always carries the
// upgrade-required signal, distinct from a generic validation failure.
type QuotaExceededError struct {
	Message string
}

func (e *QuotaExceededError) Error() string { return e.Message }

// NewQuotaExceeded creates a QuotaExceededError.
func NewQuotaExceeded(message string) *QuotaExceededError {
	return &QuotaExceededError{Message: message}
}

// StorageBackendError reports an upload/download I/O failure against the storage backend.
type StorageBackendError struct {
	Op  string
	Err error
}

func (e *StorageBackendError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageBackendError) Unwrap() error { return e.Err }

// NewStorageBackend wraps a storage I/O error.
func NewStorageBackend(op string, err error) *StorageBackendError {
	return &StorageBackendError{Op: op, Err: err}
}
