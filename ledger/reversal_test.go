package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/ledger-engine/ledger"
	"github.com/warp/ledger-engine/ledger/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// postPair writes a balanced debit/credit pair under the given
// reference and returns the created rows.
func postPair(t *testing.T, mem *store.Memory, refName string) []ledger.Entry {
	t.Helper()

	p := ledger.NewPosting(mem, mem, ledger.PostingConfig{
		Date:          time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC),
		ReferenceType: "SalesInvoice",
		ReferenceName: refName,
	})
	require.NoError(t, p.Debit("Cash", ledger.MustMoney("120.50")))
	require.NoError(t, p.Credit("Sales", ledger.MustMoney("120.50")))

	entries, err := p.Post(context.Background())
	require.NoError(t, err)
	return entries
}

func newRevertFixture(t *testing.T) *store.Memory {
	t.Helper()
	mem := store.NewMemory()
	mem.RegisterName(ledger.SchemaAccount, "Cash")
	mem.RegisterName(ledger.SchemaAccount, "Sales")
	return mem
}

// =============================================================================
// REVERSAL
// =============================================================================

func TestRevert_MirrorsEntries(t *testing.T) {
	// GIVEN: A posted 120.50 debit/credit pair
	// WHEN: The reference is reverted
	// THEN: Two mirror rows appear with sides swapped, and the
	//       originals are flagged reverted

	mem := newRevertFixture(t)
	ctx := context.Background()
	originals := postPair(t, mem, "SINV-2001")

	mirrors, err := ledger.Revert(ctx, mem, "SalesInvoice", "SINV-2001")
	require.NoError(t, err)
	require.Len(t, mirrors, 2)

	// Mirror of the debit row is a credit row of the same amount.
	assert.Equal(t, originals[0].Account, mirrors[0].Account)
	assert.True(t, mirrors[0].Credit.Eq(originals[0].Debit))
	assert.True(t, mirrors[0].Debit.IsZero())
	assert.True(t, mirrors[0].Reverted)
	assert.Equal(t, originals[0].Name, mirrors[0].Reverts)

	assert.True(t, mirrors[1].Debit.Eq(originals[1].Credit))
	assert.Equal(t, originals[1].Name, mirrors[1].Reverts)

	// Originals were flipped in the store.
	all, err := mem.EntriesByReference(ctx, "SalesInvoice", "SINV-2001")
	require.NoError(t, err)
	require.Len(t, all, 4)
	for _, e := range all {
		assert.True(t, e.Reverted, "every row under the reference is now reverted")
	}
}

func TestRevert_Idempotent(t *testing.T) {
	// A second revert finds no live rows and writes nothing.
	mem := newRevertFixture(t)
	ctx := context.Background()
	postPair(t, mem, "SINV-2002")

	first, err := ledger.Revert(ctx, mem, "SalesInvoice", "SINV-2002")
	require.NoError(t, err)
	require.Len(t, first, 2)

	second, err := ledger.Revert(ctx, mem, "SalesInvoice", "SINV-2002")
	require.NoError(t, err)
	assert.Empty(t, second)

	all, err := mem.EntriesByReference(ctx, "SalesInvoice", "SINV-2002")
	require.NoError(t, err)
	assert.Len(t, all, 4, "no extra rows from the second revert")
}

func TestRevert_NoEntriesIsNoOp(t *testing.T) {
	mem := newRevertFixture(t)

	mirrors, err := ledger.Revert(context.Background(), mem, "SalesInvoice", "SINV-nope")
	require.NoError(t, err)
	assert.Empty(t, mirrors)
}

func TestRevert_KeepsBalancePerReference(t *testing.T) {
	// After reversal the reference still sums debit == credit.
	mem := newRevertFixture(t)
	ctx := context.Background()
	postPair(t, mem, "SINV-2003")

	_, err := ledger.Revert(ctx, mem, "SalesInvoice", "SINV-2003")
	require.NoError(t, err)

	all, err := mem.EntriesByReference(ctx, "SalesInvoice", "SINV-2003")
	require.NoError(t, err)

	debit, credit := ledger.Zero(), ledger.Zero()
	for _, e := range all {
		debit = debit.Add(e.Debit)
		credit = credit.Add(e.Credit)
	}
	assert.True(t, debit.Eq(credit))
}
