package books_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/ledger-engine/books"
	"github.com/warp/ledger-engine/ledger"
	"github.com/warp/ledger-engine/ledger/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// newStrategyPosting builds a bare posting over a memory store so
// strategies can be exercised without the lifecycle engine.
func newStrategyPosting(t *testing.T) *ledger.Posting {
	t.Helper()
	mem := store.NewMemory()
	for _, account := range []string{"Bank", "Cash", "Sales", "Suspense", "Debtors"} {
		mem.RegisterName(ledger.SchemaAccount, account)
	}
	return ledger.NewPosting(mem, mem, ledger.PostingConfig{
		Date:          time.Date(2026, time.May, 1, 0, 0, 0, 0, time.UTC),
		ReferenceType: "JournalEntry",
		ReferenceName: "JV-1001",
	})
}

// =============================================================================
// JOURNAL STRATEGY
// =============================================================================

func TestJournalStrategy_ExplicitRows(t *testing.T) {
	strategy, ok := books.StrategyFor(books.KindJournal)
	require.True(t, ok)

	p := newStrategyPosting(t)
	doc := &books.Document{
		Rows: []books.JournalRow{
			{Account: "Bank", Debit: ledger.MustMoney("75.00")},
			{Account: "Sales", Credit: ledger.MustMoney("75.00")},
		},
	}

	require.NoError(t, strategy(doc, p))
	assert.True(t, p.TotalDebit().Eq(ledger.MustMoney("75.00")))
	assert.True(t, p.TotalCredit().Eq(ledger.MustMoney("75.00")))
}

func TestJournalStrategy_BlankRowAbsorbsImbalance(t *testing.T) {
	// GIVEN: 100 credit against 60 debit plus one amount-less row
	// THEN: The blank row is debited the missing 40

	strategy, _ := books.StrategyFor(books.KindJournal)
	p := newStrategyPosting(t)
	doc := &books.Document{
		Rows: []books.JournalRow{
			{Account: "Sales", Credit: ledger.MustMoney("100.00")},
			{Account: "Bank", Debit: ledger.MustMoney("60.00")},
			{Account: "Suspense"},
		},
	}

	require.NoError(t, strategy(doc, p))
	assert.True(t, p.TotalDebit().Eq(p.TotalCredit()))
	assert.True(t, p.TotalDebit().Eq(ledger.MustMoney("100.00")))
}

func TestJournalStrategy_BlankRowCreditSide(t *testing.T) {
	// Debit-heavy journals get the balancing credit instead.
	strategy, _ := books.StrategyFor(books.KindJournal)
	p := newStrategyPosting(t)
	doc := &books.Document{
		Rows: []books.JournalRow{
			{Account: "Bank", Debit: ledger.MustMoney("80.00")},
			{Account: "Suspense"},
		},
	}

	require.NoError(t, strategy(doc, p))
	assert.True(t, p.TotalCredit().Eq(ledger.MustMoney("80.00")))
}

func TestJournalStrategy_BothSidesSetRejected(t *testing.T) {
	strategy, _ := books.StrategyFor(books.KindJournal)
	p := newStrategyPosting(t)
	doc := &books.Document{
		Rows: []books.JournalRow{
			{Account: "Bank", Debit: ledger.MustMoney("10.00"), Credit: ledger.MustMoney("10.00")},
		},
	}

	err := strategy(doc, p)
	assert.ErrorIs(t, err, ledger.ErrValidation)

	var verr *ledger.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "malformed_row", verr.Code)
}

func TestJournalStrategy_BlankRowWithNothingToBalance(t *testing.T) {
	strategy, _ := books.StrategyFor(books.KindJournal)
	p := newStrategyPosting(t)
	doc := &books.Document{
		Rows: []books.JournalRow{
			{Account: "Bank", Debit: ledger.MustMoney("50.00")},
			{Account: "Sales", Credit: ledger.MustMoney("50.00")},
			{Account: "Suspense"},
		},
	}

	err := strategy(doc, p)
	assert.ErrorIs(t, err, ledger.ErrValidation, "a blank row with no imbalance is a mistake")
}

// =============================================================================
// KIND LOOKUP
// =============================================================================

func TestStrategyFor_UnknownKind(t *testing.T) {
	_, ok := books.StrategyFor("dividend")
	assert.False(t, ok)
}

func TestGrandTotal(t *testing.T) {
	doc := &books.Document{
		Items: []books.LineItem{
			{Account: "Sales", Amount: ledger.MustMoney("100.00")},
			{Account: "Sales", Amount: ledger.MustMoney("49.99")},
		},
		Taxes: []books.TaxLine{
			{Account: "Tax Payable", Amount: ledger.MustMoney("27.00")},
		},
	}
	assert.True(t, doc.GrandTotal().Eq(ledger.MustMoney("176.99")))
}
