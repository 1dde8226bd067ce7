package books_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/ledger-engine/books"
	"github.com/warp/ledger-engine/ledger"
	"github.com/warp/ledger-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestService(t *testing.T) (*books.Service, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	require.NoError(t, books.SeedChart(ctx, store, books.DefaultChart()))

	svc := &books.Service{
		Entries:         store,
		Series:          store,
		Checker:         store,
		Documents:       store,
		Audit:           store,
		Registry:        books.DefaultRegistry(),
		RoundOffAccount: books.RoundOffAccount,
	}
	require.NoError(t, svc.SetupSeries(ctx))
	return svc, store
}

func salesInvoice() *books.Document {
	return &books.Document{
		Schema:            "SalesInvoice",
		Party:             "Acme Corp",
		SettlementAccount: "Debtors",
		Items: []books.LineItem{
			{Account: "Sales", Description: "widgets", Amount: ledger.MustMoney("400.00")},
		},
		Taxes: []books.TaxLine{
			{Account: "Tax Payable", Amount: ledger.MustMoney("72.00")},
		},
	}
}

func journalEntry(debit, credit string) *books.Document {
	return &books.Document{
		Schema: "JournalEntry",
		Rows: []books.JournalRow{
			{Account: "Bank", Debit: ledger.MustMoney(debit)},
			{Account: "Capital", Credit: ledger.MustMoney(credit)},
		},
	}
}

// =============================================================================
// CREATE
// =============================================================================

func TestService_Create_NamesFromSeries(t *testing.T) {
	// GIVEN: A fresh SalesInvoice series starting at 1001
	// WHEN: Two invoices are created
	// THEN: They are numbered SINV-1001 and SINV-1002

	svc, _ := newTestService(t)
	ctx := context.Background()

	first := salesInvoice()
	require.NoError(t, svc.Create(ctx, first, "tester"))
	assert.Equal(t, "SINV-1001", first.Name)
	assert.Equal(t, books.StatusDraft, first.Status)
	assert.Equal(t, books.KindSales, first.Kind)

	second := salesInvoice()
	require.NoError(t, svc.Create(ctx, second, "tester"))
	assert.Equal(t, "SINV-1002", second.Name)
}

func TestService_Create_UnknownSchema(t *testing.T) {
	svc, _ := newTestService(t)

	err := svc.Create(context.Background(), &books.Document{Schema: "Mystery"}, "tester")
	assert.ErrorIs(t, err, ledger.ErrValidation)
}

func TestService_Create_WritesAudit(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	doc := salesInvoice()
	require.NoError(t, svc.Create(ctx, doc, "alice"))

	audit, err := store.QueryAudit(ctx, doc.Schema, doc.Name)
	require.NoError(t, err)
	require.Len(t, audit, 1)
	assert.Equal(t, "alice", audit[0].Actor)
	assert.Equal(t, ledger.AuditDocCreated, audit[0].Action)
}

// =============================================================================
// SUBMIT
// =============================================================================

func TestService_Submit_JournalEntry(t *testing.T) {
	// GIVEN: A draft journal moving 500 from Capital to Bank
	// WHEN: Submitted
	// THEN: Exactly two balanced rows land, no round-off needed

	svc, store := newTestService(t)
	ctx := context.Background()

	doc := journalEntry("500.00", "500.00")
	require.NoError(t, svc.Create(ctx, doc, "tester"))

	submitted, err := svc.Submit(ctx, doc.Schema, doc.Name, "tester")
	require.NoError(t, err)
	assert.Equal(t, books.StatusSubmitted, submitted.Status)

	entries, err := store.EntriesByReference(ctx, doc.Schema, doc.Name)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ledger.AccountName("Bank"), entries[0].Account)
	assert.True(t, entries[0].Debit.Eq(ledger.MustMoney("500.00")))
	assert.Equal(t, ledger.AccountName("Capital"), entries[1].Account)
	assert.True(t, entries[1].Credit.Eq(ledger.MustMoney("500.00")))
}

func TestService_Submit_SalesInvoice(t *testing.T) {
	// Debtors is debited the grand total; income and tax are credited.
	svc, store := newTestService(t)
	ctx := context.Background()

	doc := salesInvoice()
	require.NoError(t, svc.Create(ctx, doc, "tester"))

	_, err := svc.Submit(ctx, doc.Schema, doc.Name, "tester")
	require.NoError(t, err)

	entries, err := store.EntriesByReference(ctx, doc.Schema, doc.Name)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, ledger.AccountName("Debtors"), entries[0].Account)
	assert.True(t, entries[0].Debit.Eq(ledger.MustMoney("472.00")))
	assert.Equal(t, ledger.PartyName("Acme Corp"), entries[0].Party)

	assert.True(t, entries[1].Credit.Eq(ledger.MustMoney("400.00")))
	assert.True(t, entries[2].Credit.Eq(ledger.MustMoney("72.00")))
}

func TestService_Submit_PurchaseInvoice(t *testing.T) {
	// The mirror of sales: creditors credited, expense and tax debited.
	svc, store := newTestService(t)
	ctx := context.Background()

	doc := &books.Document{
		Schema:            "PurchaseInvoice",
		Party:             "Supplies Inc",
		SettlementAccount: "Creditors",
		Items: []books.LineItem{
			{Account: "Cost of Goods Sold", Amount: ledger.MustMoney("250.00")},
		},
	}
	require.NoError(t, svc.Create(ctx, doc, "tester"))
	assert.Equal(t, "PINV-1001", doc.Name)

	_, err := svc.Submit(ctx, doc.Schema, doc.Name, "tester")
	require.NoError(t, err)

	entries, err := store.EntriesByReference(ctx, doc.Schema, doc.Name)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].Credit.Eq(ledger.MustMoney("250.00")))
	assert.Equal(t, ledger.AccountName("Creditors"), entries[0].Account)
	assert.True(t, entries[1].Debit.Eq(ledger.MustMoney("250.00")))
}

func TestService_Submit_Payment(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	doc := &books.Document{
		Schema:      "Payment",
		Party:       "Acme Corp",
		FromAccount: "Debtors",
		ToAccount:   "Bank",
		Amount:      ledger.MustMoney("472.00"),
	}
	require.NoError(t, svc.Create(ctx, doc, "tester"))
	assert.Equal(t, "PAY-1001", doc.Name)

	_, err := svc.Submit(ctx, doc.Schema, doc.Name, "tester")
	require.NoError(t, err)

	entries, err := store.EntriesByReference(ctx, doc.Schema, doc.Name)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ledger.AccountName("Bank"), entries[0].Account)
	assert.True(t, entries[0].Debit.Eq(ledger.MustMoney("472.00")))
	assert.Equal(t, ledger.AccountName("Debtors"), entries[1].Account)
	assert.True(t, entries[1].Credit.Eq(ledger.MustMoney("472.00")))
}

func TestService_Submit_RoundOff(t *testing.T) {
	// A half-cent gap between item total and tax rounding is absorbed
	// by the round-off account.
	svc, store := newTestService(t)
	ctx := context.Background()

	doc := &books.Document{
		Schema: "JournalEntry",
		Rows: []books.JournalRow{
			{Account: "Bank", Debit: ledger.MustMoney("100.00")},
			{Account: "Sales", Credit: ledger.MustMoney("99.995")},
		},
	}
	require.NoError(t, svc.Create(ctx, doc, "tester"))

	_, err := svc.Submit(ctx, doc.Schema, doc.Name, "tester")
	require.NoError(t, err)

	entries, err := store.EntriesByReference(ctx, doc.Schema, doc.Name)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, books.RoundOffAccount, entries[2].Account)
	assert.True(t, entries[2].Credit.Eq(ledger.MustMoney("0.005")))
}

func TestService_Submit_UnbalancedStaysDraft(t *testing.T) {
	// GIVEN: A journal out of balance by 10.00
	// WHEN: Submit fails
	// THEN: The document is still Draft and the ledger is untouched

	svc, store := newTestService(t)
	ctx := context.Background()

	doc := journalEntry("510.00", "500.00")
	require.NoError(t, svc.Create(ctx, doc, "tester"))

	_, err := svc.Submit(ctx, doc.Schema, doc.Name, "tester")
	assert.ErrorIs(t, err, ledger.ErrValidation)

	reloaded, err := svc.Get(ctx, doc.Schema, doc.Name)
	require.NoError(t, err)
	assert.Equal(t, books.StatusDraft, reloaded.Status)

	entries, err := store.EntriesByReference(ctx, doc.Schema, doc.Name)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestService_Submit_Twice(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	doc := journalEntry("500.00", "500.00")
	require.NoError(t, svc.Create(ctx, doc, "tester"))

	_, err := svc.Submit(ctx, doc.Schema, doc.Name, "tester")
	require.NoError(t, err)

	_, err = svc.Submit(ctx, doc.Schema, doc.Name, "tester")
	assert.ErrorIs(t, err, ledger.ErrValidation, "submitting a submitted document is rejected")
}

func TestService_Submit_MissingDocument(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Submit(context.Background(), "SalesInvoice", "SINV-9999", "tester")
	assert.ErrorIs(t, err, ledger.ErrNotFound)
}

// =============================================================================
// CANCEL
// =============================================================================

func TestService_Cancel_RevertsEntries(t *testing.T) {
	// GIVEN: A submitted 500/500 journal
	// WHEN: Cancelled
	// THEN: Two mirror rows appear and every row is marked reverted

	svc, store := newTestService(t)
	ctx := context.Background()

	doc := journalEntry("500.00", "500.00")
	require.NoError(t, svc.Create(ctx, doc, "tester"))
	_, err := svc.Submit(ctx, doc.Schema, doc.Name, "tester")
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, doc.Schema, doc.Name, "tester", "entered in error")
	require.NoError(t, err)
	assert.Equal(t, books.StatusCancelled, cancelled.Status)

	entries, err := store.EntriesByReference(ctx, doc.Schema, doc.Name)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	for _, e := range entries {
		assert.True(t, e.Reverted)
	}

	// The mirrors point back at the originals.
	assert.Equal(t, entries[0].Name, entries[2].Reverts)
	assert.Equal(t, entries[1].Name, entries[3].Reverts)
	assert.True(t, entries[2].Credit.Eq(entries[0].Debit))
	assert.True(t, entries[3].Debit.Eq(entries[1].Credit))
}

func TestService_Cancel_DraftRejected(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	doc := journalEntry("500.00", "500.00")
	require.NoError(t, svc.Create(ctx, doc, "tester"))

	_, err := svc.Cancel(ctx, doc.Schema, doc.Name, "tester", "")
	assert.ErrorIs(t, err, ledger.ErrValidation, "only submitted documents can be cancelled")
}

func TestService_Cancel_Terminal(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	doc := journalEntry("500.00", "500.00")
	require.NoError(t, svc.Create(ctx, doc, "tester"))
	_, err := svc.Submit(ctx, doc.Schema, doc.Name, "tester")
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, doc.Schema, doc.Name, "tester", "")
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, doc.Schema, doc.Name, "tester", "")
	assert.ErrorIs(t, err, ledger.ErrValidation)

	_, err = svc.Submit(ctx, doc.Schema, doc.Name, "tester")
	assert.ErrorIs(t, err, ledger.ErrValidation, "cancelled is terminal")
}

// =============================================================================
// FULL LIFECYCLE AUDIT TRAIL
// =============================================================================

func TestService_AuditTrail(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()

	doc := journalEntry("250.00", "250.00")
	require.NoError(t, svc.Create(ctx, doc, "alice"))
	_, err := svc.Submit(ctx, doc.Schema, doc.Name, "bob")
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, doc.Schema, doc.Name, "carol", "duplicate")
	require.NoError(t, err)

	audit, err := store.QueryAudit(ctx, doc.Schema, doc.Name)
	require.NoError(t, err)
	require.Len(t, audit, 3)
	assert.Equal(t, ledger.AuditDocCreated, audit[0].Action)
	assert.Equal(t, ledger.AuditDocSubmitted, audit[1].Action)
	assert.Equal(t, ledger.AuditDocCancelled, audit[2].Action)
	assert.Equal(t, "carol", audit[2].Actor)
	assert.Equal(t, "duplicate", audit[2].Detail)
}

// =============================================================================
// DATES
// =============================================================================

func TestService_Create_DefaultsDate(t *testing.T) {
	svc, _ := newTestService(t)

	doc := journalEntry("1.00", "1.00")
	require.NoError(t, svc.Create(context.Background(), doc, "tester"))
	assert.WithinDuration(t, time.Now().UTC(), doc.Date, time.Minute)
}
