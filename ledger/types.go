/*
Package ledger provides the double-entry posting core.

PURPOSE:
  This package contains the domain-agnostic machinery for turning a
  business transaction into balanced, persisted ledger rows:

  - Money: fixed-precision decimal amounts (money.go)
  - Entry: the append-only persisted ledger row (this file)
  - Posting: the per-transaction debit/credit builder (posting.go)
  - Revert: the reversal engine for cancellations (reversal.go)
  - Series: sequential document numbering (series.go)

DESIGN PRINCIPLES:
  1. Immutability: entries are never edited; cancellation appends
     mirrored rows and flips a one-way reverted flag
  2. Precision: every amount is a Money, never a float
  3. Atomicity: a posting's rows hit the store together or not at all
  4. Balance: total debits equal total credits for every reference,
     exactly, at the internal precision

USAGE:
  p := ledger.NewPosting(store, checker, cfg)
  p.Debit("Cash", total)
  p.Credit("Sales", total)
  if err := p.MakeRoundOffEntry(); err != nil { ... }
  entries, err := p.Post(ctx)

SEE ALSO:
  - store.go: persistence interfaces
  - books package: document lifecycle driving this engine
*/
package ledger

import "time"

// =============================================================================
// IDENTIFIERS
// =============================================================================

// SchemaName identifies a document type ("SalesInvoice", "JournalEntry").
type SchemaName string

// AccountName references a chart-of-accounts node.
type AccountName string

// PartyName references a customer or supplier. Optional on most rows.
type PartyName string

// EntryName is the store-assigned identifier of a persisted entry.
// Assigned monotonically by the store; zero means "not yet persisted".
type EntryName int64

// =============================================================================
// ENTRY - Persisted, append-only ledger row
// =============================================================================

// Entry is one debit-or-credit row against an account.
//
// INVARIANTS:
//   - Exactly one of Debit/Credit is non-zero. Never both, never neither.
//   - Within one (ReferenceType, ReferenceName), sum(Debit) == sum(Credit).
//   - Reverted flips false→true at most once and never back.
type Entry struct {
	Name          EntryName
	Date          time.Time
	Account       AccountName
	Party         PartyName
	Debit         Money
	Credit        Money
	ReferenceType SchemaName
	ReferenceName string
	Reverted      bool
	// Reverts points at the entry this row reverses. Set only on rows
	// created by the reversal engine.
	Reverts EntryName
	CreatedAt time.Time
}

// IsDebit reports whether the row carries its amount on the debit side.
func (e Entry) IsDebit() bool { return !e.Debit.IsZero() }

// Amount returns the row's one-sided amount.
func (e Entry) Amount() Money {
	if e.IsDebit() {
		return e.Debit
	}
	return e.Credit
}

// wellFormed reports whether exactly one side is non-zero.
func (e Entry) wellFormed() bool {
	return e.Debit.IsZero() != e.Credit.IsZero()
}

// =============================================================================
// DRAFT LINE - Queued inside a Posting, not yet persisted
// =============================================================================

// DraftLine is one queued debit or credit inside a Posting.
// Each Debit/Credit call appends a new line; lines for the same
// account are never merged, preserving one line per originating call.
type DraftLine struct {
	Account AccountName
	Party   PartyName
	Debit   Money
	Credit  Money
}
