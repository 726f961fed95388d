// Package shared contains common domain types, errors and events that are
// used across all domain packages. This package has zero external dependencies.
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

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrValueOutOfRange = errors.New("value out of range")

	// State errors
	ErrInvalidState    = errors.New("invalid state")
	ErrStateTransition = errors.New("invalid state transition")
	ErrRateLimited     = errors.New("rate limited")

	// Integrity errors
	ErrInvariantViolation = errors.New("invariant violation")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Persistence errors
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrPersistence            = errors.New("persistence failure")
	ErrServiceUnavailable     = errors.New("service unavailable")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "student", "school", "progression"
	Op      string // Operation that failed, e.g., "SettleActivity"
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

// Validationf builds a validation error with a formatted message.
func Validationf(domain, op, format string, args ...any) *DomainError {
	return NewDomainError(domain, op, ErrValidation, fmt.Sprintf(format, args...))
}

// Student domain errors
var (
	ErrStudentNotFound      = NewDomainError("student", "Find", ErrNotFound, "student not found")
	ErrStudentAlreadyExists = NewDomainError("student", "Create", ErrAlreadyExists, "student already exists")
	ErrActivityNotFound     = NewDomainError("student", "FindActivity", ErrNotFound, "activity not found")
	ErrNoVerification       = NewDomainError("student", "SettleActivity", ErrStateTransition, "activity kind has no verification workflow")
	ErrNotAGoal             = NewDomainError("student", "CompleteGoal", ErrStateTransition, "activity is not a goal")
	ErrQuestNotClaimable    = NewDomainError("student", "SubmitQuest", ErrStateTransition, "daily quest is not open for submission")
	ErrNoDailyQuest         = NewDomainError("student", "SubmitQuest", ErrNotFound, "no daily quest assigned")
	ErrQuestNotPending      = NewDomainError("student", "SettleQuest", ErrStateTransition, "daily quest is not awaiting review")
	ErrQuestNotFound        = NewDomainError("student", "SettleQuest", ErrNotFound, "quest not found")
	ErrPendingSubmission    = NewDomainError("student", "SubmitProject", ErrAlreadyExists, "a submission for this project is already awaiting review")
	ErrNameChangeTooSoon    = NewDomainError("student", "ChangeName", ErrRateLimited, "name can only be changed once every 30 days")
	ErrPointsDrift          = NewDomainError("student", "CheckPoints", ErrInvariantViolation, "points do not match the ledger")
)

// School domain errors
var (
	ErrProjectNotFound  = NewDomainError("school", "FindProject", ErrNotFound, "project not found")
	ErrQuizNotFound     = NewDomainError("school", "FindQuiz", ErrNotFound, "quiz not found")
	ErrEventNotFound    = NewDomainError("school", "FindEvent", ErrNotFound, "event not found")
	ErrTemplateNotFound = NewDomainError("school", "FindQuestTemplate", ErrNotFound, "quest template not found")
	ErrAppealNotFound   = NewDomainError("school", "FindAppeal", ErrNotFound, "appeal not found")
	ErrAppealResolved   = NewDomainError("school", "ResolveAppeal", ErrStateTransition, "appeal is already resolved")
	ErrNotProjectMember = NewDomainError("school", "SubmitProject", ErrStateTransition, "join the project before submitting work")
)

// Persistence errors
var (
	ErrVersionConflict = NewDomainError("store", "Put", ErrConcurrentModification, "document version changed since it was read")
	ErrDocumentMissing = NewDomainError("store", "Get", ErrNotFound, "document not found")
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
		errors.Is(err, ErrValueOutOfRange)
}

// IsConflict checks if the error is a compare-and-swap conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

// IsStateTransition checks if the error rejects an operation for the current state.
func IsStateTransition(err error) bool {
	return errors.Is(err, ErrStateTransition) || errors.Is(err, ErrInvalidState)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrConcurrentModification)
}
