/*
errors.go - Centralized error types for the SLA engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers branch with errors.Is / errors.As; packages above this one
  wrap these errors with additional context.

ERROR CATEGORIES:
  1. Configuration errors - Invalid policy or calendar shape
  2. Calendar errors      - No reachable business time
  3. Ordering errors      - Timestamps that contradict each other

RETRY SEMANTICS:
  Nothing here is retryable. Every computation is deterministic, so an
  identical input produces an identical error. Configuration errors mean
  "fix the policy"; ErrNoBusinessTime means "fix the calendar" and should
  be treated as an operational alert, not a transient fault.

SEE ALSO:
  - types.go: Validation that raises PolicyError
  - calendar.go: Raises NoBusinessTimeError
  - classify.go: Raises OrderingError
*/
package sla

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidPolicy is returned when a policy or calendar fails
	// validation (negative targets, inverted window, unknown zone).
	// Raised before any deadline computation; never silently clamped.
	ErrInvalidPolicy = errors.New("invalid policy configuration")

	// ErrNoBusinessTime is returned when the calendar offers no business
	// window within the bounded lookahead. Retrying cannot help: the
	// calendar is static.
	ErrNoBusinessTime = errors.New("no business time available")

	// ErrTimestampOrdering is returned when supplied timestamps contradict
	// each other (completion before creation, "now" before the budget start).
	ErrTimestampOrdering = errors.New("timestamp ordering violation")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// PolicyError identifies which configuration field failed validation.
type PolicyError struct {
	Field  string
	Reason string
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("invalid policy: %s: %s", e.Field, e.Reason)
}

func (e *PolicyError) Unwrap() error { return ErrInvalidPolicy }

// NoBusinessTimeError reports the instant from which the bounded search
// started and how far it looked.
type NoBusinessTimeError struct {
	From          time.Time
	LookaheadDays int
}

func (e *NoBusinessTimeError) Error() string {
	return fmt.Sprintf("no business time within %d days of %s", e.LookaheadDays, e.From.Format(time.RFC3339))
}

func (e *NoBusinessTimeError) Unwrap() error { return ErrNoBusinessTime }

// OrderingError describes a pair of timestamps in the wrong order.
type OrderingError struct {
	What    string // e.g., "completed_at before budget start"
	Earlier time.Time
	Later   time.Time
}

func (e *OrderingError) Error() string {
	return fmt.Sprintf("timestamp ordering: %s (%s is before %s)",
		e.What, e.Earlier.Format(time.RFC3339), e.Later.Format(time.RFC3339))
}

func (e *OrderingError) Unwrap() error { return ErrTimestampOrdering }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsConfigError returns true if the error means the policy or calendar
// itself must be fixed before any computation can succeed.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrInvalidPolicy) || errors.Is(err, ErrNoBusinessTime)
}

// IsInputError returns true if the error is due to invalid caller input
// rather than configuration.
func IsInputError(err error) bool {
	return errors.Is(err, ErrTimestampOrdering)
}
