/*
posting.go - The debit/credit builder for one business transaction

PURPOSE:
  A Posting accumulates draft debit/credit lines for a single document
  and finalizes them into persisted entries. Separating "accumulate"
  from "finalize" lets callers add tax and additional-cost lines before
  the balance check, and lets the round-off step always run last, so
  the balance invariant is enforced at a single point: Post.

FLOW:
  strategy issues Debit/Credit calls
      │
      ▼
  MakeRoundOffEntry()   absorbs a sub-tolerance difference
      │
      ▼
  Post(ctx)             re-validates, writes all rows atomically

FAILURE BEHAVIOR:
  Every validation runs before any persistence. A returned error means
  zero rows were written; the Posting is simply discarded.

SEE ALSO:
  - reversal.go: undoing a posted set on cancellation
  - books package: strategies that drive this builder
*/
package ledger

import (
	"context"
	"fmt"
	"time"
)

// SchemaAccount is the schema name accounts live under in the
// document checker.
const SchemaAccount SchemaName = "Account"

// =============================================================================
// CONFIGURATION
// =============================================================================

// PostingConfig carries the per-transaction context every entry is
// tagged with, plus the round-off settings.
type PostingConfig struct {
	Date          time.Time
	ReferenceType SchemaName
	ReferenceName string
	Party         PartyName

	// RoundOffAccount absorbs sub-tolerance differences. Required if
	// MakeRoundOffEntry may need to balance anything.
	RoundOffAccount AccountName

	// DisplayPrecision defines the tolerance: differences up to one
	// smallest display fraction are rounded away, anything larger is a
	// caller defect. Defaults to DisplayPrecision when zero.
	DisplayPrecision int32
}

func (c PostingConfig) tolerance() Money {
	p := c.DisplayPrecision
	if p == 0 {
		p = DisplayPrecision
	}
	return SmallestFraction(p)
}

// =============================================================================
// POSTING
// =============================================================================

// Posting is a transient builder of balanced ledger entries.
// Construct one per document submission; discard after Post.
// Not safe for concurrent use.
type Posting struct {
	store   TxStore
	checker DocumentChecker
	cfg     PostingConfig

	lines       []DraftLine
	totalDebit  Money
	totalCredit Money
	posted      bool
}

// NewPosting creates a builder for one transaction.
func NewPosting(store TxStore, checker DocumentChecker, cfg PostingConfig) *Posting {
	return &Posting{store: store, checker: checker, cfg: cfg}
}

// Debit queues a debit line. The amount must be strictly positive.
func (p *Posting) Debit(account AccountName, amount Money) error {
	if err := p.checkLine(account, amount); err != nil {
		return err
	}
	p.lines = append(p.lines, DraftLine{Account: account, Party: p.cfg.Party, Debit: amount})
	p.totalDebit = p.totalDebit.Add(amount)
	return nil
}

// Credit queues a credit line. The amount must be strictly positive.
func (p *Posting) Credit(account AccountName, amount Money) error {
	if err := p.checkLine(account, amount); err != nil {
		return err
	}
	p.lines = append(p.lines, DraftLine{Account: account, Party: p.cfg.Party, Credit: amount})
	p.totalCredit = p.totalCredit.Add(amount)
	return nil
}

func (p *Posting) checkLine(account AccountName, amount Money) error {
	if p.posted {
		return ErrPosted
	}
	if account == "" {
		return &ValidationError{Code: "missing_account", Message: "line has no account"}
	}
	if !amount.IsPositive() {
		return &ValidationError{
			Code:    "nonpositive_amount",
			Message: "amount must be greater than zero",
			Account: account,
			Amount:  amount,
		}
	}
	return nil
}

// TotalDebit returns the running debit total.
func (p *Posting) TotalDebit() Money { return p.totalDebit }

// TotalCredit returns the running credit total.
func (p *Posting) TotalCredit() Money { return p.totalCredit }

// MakeRoundOffEntry balances a sub-tolerance difference between the
// debit and credit totals against the round-off account. A difference
// beyond the tolerance means the caller built the lines wrong and
// fails loudly instead of being silently rounded away.
func (p *Posting) MakeRoundOffEntry() error {
	if p.posted {
		return ErrPosted
	}
	diff := p.totalDebit.Sub(p.totalCredit)
	if diff.IsZero() {
		return nil
	}
	if diff.Abs().Gt(p.cfg.tolerance()) {
		return &ValidationError{
			Code: "unbalanced",
			Message: fmt.Sprintf("debit %s and credit %s differ by more than the rounding tolerance",
				p.totalDebit, p.totalCredit),
			Amount: diff,
		}
	}
	if p.cfg.RoundOffAccount == "" {
		return &ValidationError{Code: "missing_account", Message: "no round-off account configured"}
	}
	if diff.IsPositive() {
		return p.Credit(p.cfg.RoundOffAccount, diff)
	}
	return p.Debit(p.cfg.RoundOffAccount, diff.Neg())
}

// Post validates the accumulated lines and persists them as one
// atomic batch. On success the created entries are returned with
// their store-assigned names and the Posting is spent.
func (p *Posting) Post(ctx context.Context) ([]Entry, error) {
	if p.posted {
		return nil, ErrPosted
	}
	if err := p.validate(ctx); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entries := make([]Entry, len(p.lines))
	for i, line := range p.lines {
		entries[i] = Entry{
			Date:          p.cfg.Date,
			Account:       line.Account,
			Party:         line.Party,
			Debit:         line.Debit,
			Credit:        line.Credit,
			ReferenceType: p.cfg.ReferenceType,
			ReferenceName: p.cfg.ReferenceName,
			CreatedAt:     now,
		}
	}

	var created []Entry
	err := p.store.WithTx(ctx, func(s EntryStore) error {
		var err error
		created, err = s.AppendEntries(ctx, entries)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to post %s %s: %w", p.cfg.ReferenceType, p.cfg.ReferenceName, err)
	}

	p.posted = true
	return created, nil
}

// validate runs every check that must pass before anything is written.
func (p *Posting) validate(ctx context.Context) error {
	if len(p.lines) == 0 {
		return &ValidationError{Code: "empty_posting", Message: "no lines queued"}
	}
	if !p.totalDebit.Eq(p.totalCredit) {
		return &ValidationError{
			Code: "unbalanced",
			Message: fmt.Sprintf("total debit %s does not equal total credit %s",
				p.totalDebit, p.totalCredit),
			Amount: p.totalDebit.Sub(p.totalCredit),
		}
	}

	// Accounts must still exist at posting time.
	seen := make(map[AccountName]bool)
	for _, line := range p.lines {
		if seen[line.Account] {
			continue
		}
		seen[line.Account] = true
		ok, err := p.checker.Exists(ctx, SchemaAccount, string(line.Account))
		if err != nil {
			return fmt.Errorf("failed to check account %s: %w", line.Account, err)
		}
		if !ok {
			return &NotFoundError{Schema: SchemaAccount, Name: string(line.Account)}
		}
	}
	return nil
}
