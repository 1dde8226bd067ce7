/*
errors.go - Centralized error types for the posting core

PURPOSE:
  All error kinds in one place. Callers branch on sentinels with
  errors.Is and extract detail with errors.As.

ERROR CATEGORIES:
  1. Validation - the caller built an invalid posting (bad amount,
     unbalanced beyond tolerance, malformed row)
  2. Not found  - a referenced account/party/document is gone
  3. Consistency - stored rows violate their own invariants

PROPAGATION POLICY:
  Validation happens before any persistence, so a returned error
  means no rows were written. Posting failures surface to the
  document's Submit caller, which leaves the document in Draft.
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValidation is the root of all posting validation failures.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a referenced account, party or
	// document no longer exists at posting time.
	ErrNotFound = errors.New("not found")

	// ErrConsistency is returned when persisted rows are malformed,
	// e.g. a reversal target with both sides set.
	ErrConsistency = errors.New("ledger inconsistency")

	// ErrPosted is returned when a Posting is reused after Post.
	ErrPosted = errors.New("posting already finalized")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError describes why a posting was rejected.
type ValidationError struct {
	Code    string // "nonpositive_amount", "unbalanced", "malformed_row"
	Message string
	Account AccountName
	Amount  Money
}

func (e *ValidationError) Error() string {
	if e.Account != "" {
		return fmt.Sprintf("%s: %s (account %s, amount %s)", e.Code, e.Message, e.Account, e.Amount)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NotFoundError identifies which reference was missing.
type NotFoundError struct {
	Schema SchemaName
	Name   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Schema, e.Name)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// ConsistencyError describes a stored row violating its invariants.
type ConsistencyError struct {
	Entry   EntryName
	Message string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("entry %d: %s", e.Entry, e.Message)
}

func (e *ConsistencyError) Unwrap() error { return ErrConsistency }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError reports whether the error is the caller's fault and
// should map to a 4xx response rather than a 5xx.
func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrNotFound)
}
