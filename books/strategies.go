/*
strategies.go - Posting strategies, one per document kind

PURPOSE:
  A Strategy is a pure function from document fields to debit/credit
  calls against a fresh Posting. The lifecycle engine picks one from a
  closed map by kind; strategies never touch storage and can be tested
  against a bare Posting.

THE STRATEGIES:
  sales:    debit the receivable/cash account for the grand total;
            credit each item's income account; credit each tax line
  purchase: the mirror image
  journal:  each row states its side explicitly; a row with both sides
            empty absorbs the running imbalance
  payment:  debit the receiving account, credit the paying account
*/
package books

import (
	"github.com/warp/ledger-engine/ledger"
)

// Strategy turns a document's fields into posting calls.
type Strategy func(doc *Document, p *ledger.Posting) error

var strategies = map[DocKind]Strategy{
	KindSales:    postSales,
	KindPurchase: postPurchase,
	KindJournal:  postJournal,
	KindPayment:  postPayment,
}

// StrategyFor returns the posting strategy for a kind.
func StrategyFor(kind DocKind) (Strategy, bool) {
	s, ok := strategies[kind]
	return s, ok
}

func postSales(doc *Document, p *ledger.Posting) error {
	if err := p.Debit(doc.SettlementAccount, doc.GrandTotal()); err != nil {
		return err
	}
	for _, item := range doc.Items {
		if err := p.Credit(item.Account, item.Amount); err != nil {
			return err
		}
	}
	for _, tax := range doc.Taxes {
		if err := p.Credit(tax.Account, tax.Amount); err != nil {
			return err
		}
	}
	return nil
}

func postPurchase(doc *Document, p *ledger.Posting) error {
	if err := p.Credit(doc.SettlementAccount, doc.GrandTotal()); err != nil {
		return err
	}
	for _, item := range doc.Items {
		if err := p.Debit(item.Account, item.Amount); err != nil {
			return err
		}
	}
	for _, tax := range doc.Taxes {
		if err := p.Debit(tax.Account, tax.Amount); err != nil {
			return err
		}
	}
	return nil
}

func postJournal(doc *Document, p *ledger.Posting) error {
	// First pass: explicit rows. A row carrying both sides is
	// malformed; the builder catches zero/negative amounts.
	totalDebit := ledger.Zero()
	totalCredit := ledger.Zero()
	var blank []JournalRow

	for _, row := range doc.Rows {
		switch {
		case !row.Debit.IsZero() && !row.Credit.IsZero():
			return &ledger.ValidationError{
				Code:    "malformed_row",
				Message: "journal row has both debit and credit set",
				Account: row.Account,
			}
		case !row.Debit.IsZero():
			if err := p.Debit(row.Account, row.Debit); err != nil {
				return err
			}
			totalDebit = totalDebit.Add(row.Debit)
		case !row.Credit.IsZero():
			if err := p.Credit(row.Account, row.Credit); err != nil {
				return err
			}
			totalCredit = totalCredit.Add(row.Credit)
		default:
			blank = append(blank, row)
		}
	}

	// Second pass: blank rows absorb the imbalance so the entry
	// balances without every line being hand-entered.
	for _, row := range blank {
		diff := totalCredit.Sub(totalDebit)
		switch {
		case diff.IsPositive():
			if err := p.Debit(row.Account, diff); err != nil {
				return err
			}
			totalDebit = totalDebit.Add(diff)
		case diff.IsNegative():
			if err := p.Credit(row.Account, diff.Neg()); err != nil {
				return err
			}
			totalCredit = totalCredit.Add(diff.Neg())
		default:
			return &ledger.ValidationError{
				Code:    "malformed_row",
				Message: "journal row has no amount and nothing to balance",
				Account: row.Account,
			}
		}
	}
	return nil
}

func postPayment(doc *Document, p *ledger.Posting) error {
	if err := p.Debit(doc.ToAccount, doc.Amount); err != nil {
		return err
	}
	return p.Credit(doc.FromAccount, doc.Amount)
}
