/*
store.go - Persistence interfaces for the posting core

PURPOSE:
  Defines the narrow surface the posting engine needs from storage.
  Implementations: store/sqlite (production) and ledger/store
  (in-memory, for tests).

APPEND-ONLY CONTRACT:
  The entries table is append-only with one exception: MarkReverted
  flips the reverted flag false→true. No other update, no delete.
  Corrections are made by appending mirrored rows.

ATOMICITY:
  Post and Revert write multiple rows that must become visible
  together. TxStore.WithTx provides that boundary: everything the
  callback writes commits as one unit or not at all.

SEE ALSO:
  - posting.go, reversal.go: the only writers of entries
  - series.go: the only mutator of series counters
*/
package ledger

import (
	"context"
	"time"
)

// =============================================================================
// ENTRY STORE
// =============================================================================

// EntryStore persists ledger entries.
type EntryStore interface {
	// AppendEntries persists rows and returns them with store-assigned
	// names. Names are monotonically increasing.
	AppendEntries(ctx context.Context, entries []Entry) ([]Entry, error)

	// EntriesByReference returns all rows for one originating document,
	// ordered by name. Includes reverted rows.
	EntriesByReference(ctx context.Context, refType SchemaName, refName string) ([]Entry, error)

	// MarkReverted flips the reverted flag on the named rows.
	// The flag is one-way; implementations never flip it back.
	MarkReverted(ctx context.Context, names []EntryName) error
}

// =============================================================================
// NUMBER SERIES STORE
// =============================================================================

// SeriesStore persists number-series counters, keyed by prefix.
type SeriesStore interface {
	// GetSeries returns the counter row for a prefix, or nil if the
	// series does not exist.
	GetSeries(ctx context.Context, name string) (*Series, error)

	// PutSeries inserts or updates a counter row.
	PutSeries(ctx context.Context, s Series) error
}

// =============================================================================
// DOCUMENT CHECKER
// =============================================================================

// DocumentChecker answers existence questions about stored documents
// and chart-of-accounts nodes. The posting engine uses it to verify
// accounts before writing and the number series uses it to detect
// already-issued names.
type DocumentChecker interface {
	Exists(ctx context.Context, schema SchemaName, name string) (bool, error)
}

// =============================================================================
// TRANSACTIONAL STORE
// =============================================================================

// TxStore executes multi-row writes atomically.
// Post and Revert require it: no external reader may ever observe a
// partially balanced or partially reverted reference.
type TxStore interface {
	EntryStore

	// WithTx runs fn against a transactional view of the store.
	// If fn returns an error the transaction is rolled back.
	WithTx(ctx context.Context, fn func(EntryStore) error) error
}

// =============================================================================
// AUDIT LOG - Who submitted/cancelled what, when
// =============================================================================

// AuditEntry records one lifecycle action. Append-only, separate from
// the ledger itself.
type AuditEntry struct {
	ID        string
	Timestamp time.Time
	Actor     string
	Action    AuditAction
	Schema    SchemaName
	Name      string
	Detail    string
}

type AuditAction string

const (
	AuditDocCreated   AuditAction = "document_created"
	AuditDocSubmitted AuditAction = "document_submitted"
	AuditDocCancelled AuditAction = "document_cancelled"
)

// AuditLog stores audit entries.
type AuditLog interface {
	AppendAudit(ctx context.Context, entry AuditEntry) error
	QueryAudit(ctx context.Context, schema SchemaName, name string) ([]AuditEntry, error)
}
