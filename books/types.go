/*
Package books provides the transactional document layer on top of the
ledger posting core.

PURPOSE:
  A Document is the business-facing record (sales invoice, purchase
  invoice, journal entry, payment). The package owns:

  - the Draft → Submitted → Cancelled lifecycle (service.go)
  - the closed set of posting strategies that turn a document's fields
    into debit/credit calls (strategies.go)
  - the schema registry mapping schema names to kinds and number
    series (schema.go)
  - the chart of accounts (chart.go)

DESIGN:
  Document kinds are a tagged closed set, not a class hierarchy. Each
  kind has one pure strategy function from document fields to posting
  calls, so the posting engine is testable without any document
  machinery and new kinds cannot sneak in virtual-dispatch chains.

SEE ALSO:
  - ledger package: Posting, Revert, NumberSeries
*/
package books

import (
	"time"

	"github.com/warp/ledger-engine/ledger"
)

// =============================================================================
// DOCUMENT KINDS & STATUS
// =============================================================================

// DocKind selects the posting strategy for a document.
type DocKind string

const (
	KindSales    DocKind = "sales"
	KindPurchase DocKind = "purchase"
	KindJournal  DocKind = "journal"
	KindPayment  DocKind = "payment"
)

// DocStatus is the lifecycle state of a document.
//
// Draft documents have zero ledger rows. Cancelled is terminal:
// correcting a mistake means creating a new document.
type DocStatus string

const (
	StatusDraft     DocStatus = "draft"
	StatusSubmitted DocStatus = "submitted"
	StatusCancelled DocStatus = "cancelled"
)

// =============================================================================
// DOCUMENT
// =============================================================================

// LineItem is one invoice line: an amount against an income or
// expense account.
type LineItem struct {
	Account     ledger.AccountName
	Description string
	Amount      ledger.Money
}

// TaxLine is an already-determined tax amount against a tax account.
// How the amount was determined is outside this package.
type TaxLine struct {
	Account ledger.AccountName
	Amount  ledger.Money
}

// JournalRow is one explicit row of a journal entry. Exactly one side
// should be set; a row with both sides empty is auto-filled with the
// entry's imbalance by the journal strategy.
type JournalRow struct {
	Account ledger.AccountName
	Party   ledger.PartyName
	Debit   ledger.Money
	Credit  ledger.Money
}

// Document is one business transaction. Field groups by kind:
//
//	sales/purchase: Party, SettlementAccount, Items, Taxes
//	journal:        Rows
//	payment:        FromAccount, ToAccount, Amount
type Document struct {
	Schema ledger.SchemaName
	Kind   DocKind
	// Name is issued by the schema's number series at creation time,
	// not at posting time.
	Name   string
	Date   time.Time
	Status DocStatus
	Party  ledger.PartyName

	// SettlementAccount is the receivable/cash account (sales) or the
	// payable account (purchase).
	SettlementAccount ledger.AccountName
	Items             []LineItem
	Taxes             []TaxLine

	Rows []JournalRow

	FromAccount ledger.AccountName
	ToAccount   ledger.AccountName
	Amount      ledger.Money

	CreatedAt time.Time
	UpdatedAt time.Time
}

// GrandTotal is the invoice total: item amounts plus tax amounts.
func (d *Document) GrandTotal() ledger.Money {
	total := ledger.Zero()
	for _, item := range d.Items {
		total = total.Add(item.Amount)
	}
	for _, tax := range d.Taxes {
		total = total.Add(tax.Amount)
	}
	return total
}
