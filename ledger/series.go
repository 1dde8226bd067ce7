/*
series.go - Sequential, human-readable document numbering

PURPOSE:
  Documents get identifiers like SINV-1001: a named prefix plus a
  zero-padded counter. The counter row is persisted per prefix and
  only moves forward.

IDEMPOTENT RETRY:
  Next does not blindly increment. It first checks whether the
  current candidate name is already taken in the target schema's
  store; if not, the same candidate is handed out again. This avoids
  burning numbers when a prior document-creation attempt failed after
  taking a number but before persisting the document.

CONCURRENCY:
  This is a read-check-then-write sequence with no locking. It
  tolerates sequential retries only; two concurrent callers on the
  same prefix can be handed the same number. Callers must serialize
  per prefix (single-writer assumption).
*/
package ledger

import (
	"context"
	"fmt"
)

// DefaultPadZeros is the counter width used when a series does not
// specify one.
const DefaultPadZeros = 4

// =============================================================================
// SERIES - Persisted counter row
// =============================================================================

// Series is one numbering counter. Name is the prefix and primary key.
type Series struct {
	Name          string
	Current       *int64 // nil until the first number is issued
	Start         int64
	PadZeros      int
	ReferenceType SchemaName
}

// PaddedName formats n as this series' identifier.
func (s Series) PaddedName(n int64) string {
	pad := s.PadZeros
	if pad <= 0 {
		pad = DefaultPadZeros
	}
	return fmt.Sprintf("%s%0*d", s.Name, pad, n)
}

// =============================================================================
// NUMBER SERIES SERVICE
// =============================================================================

// NumberSeries issues identifiers from persisted counters.
type NumberSeries struct {
	Store   SeriesStore
	Checker DocumentChecker
}

// Next returns the next identifier for the prefix.
//
// schema is the document type the identifier will name; its store is
// consulted so an unused candidate can be re-issued. Pass an empty
// schema when the target store cannot be checked: the counter then
// always increments rather than risking a reused name.
func (ns *NumberSeries) Next(ctx context.Context, prefix string, schema SchemaName) (string, error) {
	series, err := ns.Store.GetSeries(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("failed to load series %s: %w", prefix, err)
	}
	if series == nil {
		return "", &NotFoundError{Schema: "NumberSeries", Name: prefix}
	}

	if series.Current == nil {
		start := series.Start
		series.Current = &start
	}
	candidate := series.PaddedName(*series.Current)

	taken := true
	if schema != "" {
		taken, err = ns.Checker.Exists(ctx, schema, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check %s %s: %w", schema, candidate, err)
		}
	}
	if !taken {
		return candidate, nil
	}

	next := *series.Current + 1
	series.Current = &next
	if err := ns.Store.PutSeries(ctx, *series); err != nil {
		return "", fmt.Errorf("failed to advance series %s: %w", prefix, err)
	}
	return series.PaddedName(next), nil
}
