/*
reversal.go - Mirrored reversal of posted entries

PURPOSE:
  Cancelling a submitted document must not delete history. Instead the
  reversal engine appends one mirrored row (debit/credit swapped) per
  active original row and flips the originals' reverted flag, all in
  one store transaction.

STATE MACHINE (per entry):
  Active (reverted=false) ──▶ Reverted (reverted=true)   terminal

  Mirrored rows are born reverted so a second Revert call cannot
  reverse the reversal.
*/
package ledger

import (
	"context"
	"fmt"
	"time"
)

// Revert reverses all active entries of one document.
//
// Idempotent: if the reference has no entries, or every entry is
// already reverted, nothing is written and nil is returned.
func Revert(ctx context.Context, store TxStore, refType SchemaName, refName string) ([]Entry, error) {
	all, err := store.EntriesByReference(ctx, refType, refName)
	if err != nil {
		return nil, fmt.Errorf("failed to load entries for %s %s: %w", refType, refName, err)
	}

	var active []Entry
	for _, e := range all {
		if !e.Reverted {
			active = append(active, e)
		}
	}
	if len(active) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	mirrors := make([]Entry, len(active))
	names := make([]EntryName, len(active))
	for i, orig := range active {
		if !orig.wellFormed() {
			return nil, &ConsistencyError{Entry: orig.Name, Message: "entry does not have exactly one non-zero side"}
		}
		if orig.Name == 0 {
			return nil, &ConsistencyError{Message: "stored entry has no name"}
		}
		mirrors[i] = Entry{
			Date:          orig.Date,
			Account:       orig.Account,
			Party:         orig.Party,
			Debit:         orig.Credit,
			Credit:        orig.Debit,
			ReferenceType: orig.ReferenceType,
			ReferenceName: orig.ReferenceName,
			Reverted:      true,
			Reverts:       orig.Name,
			CreatedAt:     now,
		}
		names[i] = orig.Name
	}

	var created []Entry
	err = store.WithTx(ctx, func(s EntryStore) error {
		var err error
		created, err = s.AppendEntries(ctx, mirrors)
		if err != nil {
			return err
		}
		return s.MarkReverted(ctx, names)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to revert %s %s: %w", refType, refName, err)
	}
	return created, nil
}
