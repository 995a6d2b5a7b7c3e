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
	ErrFutureTimestamp = errors.New("timestamp cannot be in the future")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState     = errors.New("invalid state")
	ErrAlreadyProcessed = errors.New("already processed")
	ErrExpired          = errors.New("expired")

	// Concurrency errors
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrOptimisticLock         = errors.New("optimistic lock failure")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
	ErrRateLimited        = errors.New("rate limited")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "progress", "gamification", "leaderboard"
	Op      string // Operation that failed, e.g., "Record", "Update"
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

// Progress domain errors
var (
	ErrCompletionNotFound = NewDomainError("progress", "Find", ErrNotFound, "completion record not found")
	ErrReviewNotFound     = NewDomainError("progress", "FindReview", ErrNotFound, "flashcard review not found")
	ErrInvalidUserID      = NewDomainError("progress", "Validate", ErrInvalidID, "invalid user ID")
	ErrInvalidAudibleID   = NewDomainError("progress", "Validate", ErrInvalidID, "invalid audible ID")
	ErrInvalidCardID      = NewDomainError("progress", "Validate", ErrInvalidID, "invalid card ID")
	ErrInvalidTopicID     = NewDomainError("progress", "Validate", ErrInvalidID, "invalid topic ID")
	ErrInvalidQuizScore   = NewDomainError("progress", "Validate", ErrValueOutOfRange, "quiz score out of range")
	ErrCompletionInFuture = NewDomainError("progress", "Validate", ErrFutureTimestamp, "completion timestamp is in the future")
)

// Gamification domain errors
var (
	ErrStreakNotFound      = NewDomainError("gamification", "FindStreak", ErrNotFound, "streak not found")
	ErrAchievementNotFound = NewDomainError("gamification", "FindAchievement", ErrNotFound, "achievement record not found")
	ErrStaleStreak         = NewDomainError("gamification", "UpdateStreak", ErrConcurrentModification, "streak modified concurrently")
	ErrStaleAchievement    = NewDomainError("gamification", "UpdateAchievement", ErrConcurrentModification, "achievement record modified concurrently")
	ErrNegativeXP          = NewDomainError("gamification", "AwardXP", ErrNegativeValue, "XP amount cannot be negative")
	ErrInvalidBadge        = NewDomainError("gamification", "GrantBadge", ErrInvalidInput, "invalid badge")
	ErrBadgeAlreadyGranted = NewDomainError("gamification", "GrantBadge", ErrAlreadyExists, "badge already granted")
)

// Leaderboard domain errors
var (
	ErrLeaderboardNotFound = NewDomainError("leaderboard", "Find", ErrNotFound, "leaderboard not found")
	ErrInvalidBoardKind    = NewDomainError("leaderboard", "Validate", ErrInvalidInput, "invalid leaderboard kind")
	ErrInvalidRank         = NewDomainError("leaderboard", "Validate", ErrValueOutOfRange, "invalid rank")
	ErrLeaderboardStale    = NewDomainError("leaderboard", "Refresh", ErrExpired, "leaderboard data is stale")
)

// Infrastructure errors
var (
	ErrDatabaseUnavailable = NewDomainError("storage", "Connect", ErrServiceUnavailable, "database is unavailable")
	ErrCacheUnavailable    = NewDomainError("cache", "Connect", ErrServiceUnavailable, "cache is unavailable")
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
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrFutureTimestamp)
}

// IsConflict checks if the error is a concurrency conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConcurrentModification) ||
		errors.Is(err, ErrOptimisticLock)
}

// IsExternalService checks if the error is from an external service.
func IsExternalService(err error) bool {
	return errors.Is(err, ErrExternalService) ||
		errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrRateLimited)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrConcurrentModification)
}
