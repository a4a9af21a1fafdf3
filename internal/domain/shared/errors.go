// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrNegativeValue   = errors.New("value cannot be negative")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState     = errors.New("invalid state")
	ErrStateTransition  = errors.New("invalid state transition")
	ErrAlreadyProcessed = errors.New("already processed")
	ErrExpired          = errors.New("expired")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrRateLimited        = errors.New("rate limited")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "task", "learner", "quiz"
	Op      string // Operation that failed, e.g., "Advance", "RecordCompletion"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Learner domain errors
var (
	ErrLearnerNotFound      = NewDomainError("learner", "Find", ErrNotFound, "learner not found")
	ErrLearnerAlreadyExists = NewDomainError("learner", "Create", ErrAlreadyExists, "learner already exists")
	ErrInvalidTelegramID    = NewDomainError("learner", "Validate", ErrInvalidID, "invalid Telegram ID")
	ErrBadgeAlreadyHeld     = NewDomainError("learner", "GrantBadge", ErrAlreadyExists, "badge already held")
	ErrMilestoneAwarded     = NewDomainError("learner", "MarkMilestone", ErrAlreadyExists, "milestone already awarded")
)

// Task domain errors
var (
	ErrTaskNotFound         = NewDomainError("task", "Find", ErrNotFound, "task not found")
	ErrInvalidTaskID        = NewDomainError("task", "Validate", ErrInvalidID, "invalid task ID")
	ErrTaskAlreadyCompleted = NewDomainError("task", "RecordCompletion", ErrAlreadyExists, "task already completed")
	ErrNoItemsAvailable     = NewDomainError("task", "Find", ErrNotFound, "no items available for selection")
)

// Quiz domain errors — the selection/session taxonomy.
// InvalidSelection and StaleSession are recoverable by re-prompting;
// EmptyQueue clears the session; RepositoryUnavailable is retryable.
var (
	ErrInvalidSelection       = NewDomainError("quiz", "Advance", ErrInvalidInput, "choice is not valid for the current step")
	ErrEmptyQueue             = NewDomainError("quiz", "BuildQueue", ErrNotFound, "no items for the chosen topic and level")
	ErrStaleSession           = NewDomainError("quiz", "Resolve", ErrInvalidState, "session was never started or already ended")
	ErrRepositoryUnavailable  = NewDomainError("quiz", "Repository", ErrServiceUnavailable, "item repository is unavailable")
	ErrQueueExhausted         = NewDomainError("quiz", "AdvanceQueue", ErrInvalidState, "queue index past the last item")
	ErrDailyAlreadyTakenToday = NewDomainError("quiz", "StartDaily", ErrAlreadyProcessed, "daily task already taken today")
)

// External service errors
var (
	ErrTelegramAPIFailed = NewDomainError("telegram", "Send", ErrExternalService, "Telegram API request failed")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsInvalidSelection reports whether the caller should re-prompt with the
// same option set. A stale session is handled the same way: restart selection.
func IsInvalidSelection(err error) bool {
	return errors.Is(err, ErrInvalidSelection) || errors.Is(err, ErrStaleSession)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout)
}
