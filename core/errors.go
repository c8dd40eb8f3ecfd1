/*
errors.go - Centralized error taxonomy for the governance engine

PURPOSE:
  All error categories in one place for consistency and discoverability.
  Domain packages wrap these errors with additional context; the API layer
  maps them to HTTP statuses with the classifier helpers.

ERROR CATEGORIES:
  1. InvalidConfiguration - malformed rule config, rejected at write time
  2. Blocked              - business invariant refused an operation
  3. AlreadyTerminal      - transition attempted on a terminal state
  4. NotFound             - referenced entity does not exist

  UnconfiguredInput is NOT an error: quota computation surfaces it as a
  diagnostic alongside a usable result (see quota package). External
  service failures never escape the report package.

USAGE:
  if core.IsBlocked(err) {
      // expected business outcome, render the reason to the user
  }

SEE ALSO:
  - fee/arrears.go: produces Blocked errors for the arrears gate
  - rules/validate.go: produces InvalidConfiguration errors
*/
package core

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidConfiguration is returned when a rule-config write would
	// leave the configuration inconsistent. Detected eagerly at write time
	// so computations can assume a valid config.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrBlocked is returned when a business invariant refuses an
	// operation. This is an expected outcome, not a crash.
	ErrBlocked = errors.New("operation blocked")

	// ErrAlreadyTerminal is returned when a transition is attempted on a
	// terminal state. Callers should treat it as a no-op confirmation.
	ErrAlreadyTerminal = errors.New("state is terminal")

	// ErrNotFound is returned when a referenced entity doesn't exist.
	ErrNotFound = errors.New("entity not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// BlockedError identifies which invariant refused the operation so the
// caller can render an actionable message.
type BlockedError struct {
	Invariant string // e.g. "in arrears", "already approved"
	Detail    string
}

func (e *BlockedError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("blocked: %s", e.Invariant)
	}
	return fmt.Sprintf("blocked: %s: %s", e.Invariant, e.Detail)
}

func (e *BlockedError) Unwrap() error { return ErrBlocked }

// ConfigError describes a rejected configuration write.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfiguration }

// =============================================================================
// ERROR HELPERS
// =============================================================================

func IsBlocked(err error) bool       { return errors.Is(err, ErrBlocked) }
func IsTerminal(err error) bool      { return errors.Is(err, ErrAlreadyTerminal) }
func IsInvalidConfig(err error) bool { return errors.Is(err, ErrInvalidConfiguration) }
func IsNotFound(err error) bool      { return errors.Is(err, ErrNotFound) }

// IsClientError returns true if the error is due to the caller's input or
// an expected business refusal, as opposed to an internal failure.
func IsClientError(err error) bool {
	return IsBlocked(err) || IsTerminal(err) || IsInvalidConfig(err) || IsNotFound(err)
}
