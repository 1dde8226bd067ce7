/*
chart.go - Chart of accounts

PURPOSE:
  Account records for the posting engine's existence checks and the
  API. The chart can be seeded from a YAML file at startup; regional
  tax templates are out of scope, but the round-off account and a
  usable default chart ship here.

YAML FORMAT:
  accounts:
    - name: Cash
      type: asset
    - name: Sales
      type: income
*/
package books

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/warp/ledger-engine/ledger"
)

// AccountType classifies a chart-of-accounts node.
type AccountType string

const (
	AccountAsset     AccountType = "asset"
	AccountLiability AccountType = "liability"
	AccountIncome    AccountType = "income"
	AccountExpense   AccountType = "expense"
	AccountEquity    AccountType = "equity"
)

// Account is one chart-of-accounts node.
type Account struct {
	Name   ledger.AccountName `yaml:"name"`
	Type   AccountType        `yaml:"type"`
	Parent ledger.AccountName `yaml:"parent,omitempty"`
}

// AccountStore persists the chart of accounts.
type AccountStore interface {
	SaveAccount(ctx context.Context, a Account) error
	GetAccount(ctx context.Context, name ledger.AccountName) (*Account, error)
	ListAccounts(ctx context.Context) ([]Account, error)
}

// RoundOffAccount is the designated account absorbing sub-unit
// rounding differences.
const RoundOffAccount ledger.AccountName = "Round Off"

// DefaultChart returns a minimal usable chart of accounts.
func DefaultChart() []Account {
	return []Account{
		{Name: "Cash", Type: AccountAsset},
		{Name: "Bank", Type: AccountAsset},
		{Name: "Debtors", Type: AccountAsset},
		{Name: "Creditors", Type: AccountLiability},
		{Name: "Sales", Type: AccountIncome},
		{Name: "Cost of Goods Sold", Type: AccountExpense},
		{Name: "Tax Payable", Type: AccountLiability},
		{Name: "Capital", Type: AccountEquity},
		{Name: RoundOffAccount, Type: AccountExpense},
	}
}

type chartFile struct {
	Accounts []Account `yaml:"accounts"`
}

// LoadChart reads a chart of accounts from a YAML file.
func LoadChart(path string) ([]Account, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read chart file: %w", err)
	}
	var f chartFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse chart file: %w", err)
	}
	for i, a := range f.Accounts {
		if a.Name == "" {
			return nil, fmt.Errorf("chart account %d has no name", i)
		}
		if a.Type == "" {
			return nil, fmt.Errorf("chart account %q has no type", a.Name)
		}
	}
	return f.Accounts, nil
}

// SeedChart writes accounts into the store, inserting or updating.
// The round-off account is always included.
func SeedChart(ctx context.Context, store AccountStore, accounts []Account) error {
	haveRoundOff := false
	for _, a := range accounts {
		if a.Name == RoundOffAccount {
			haveRoundOff = true
		}
		if err := store.SaveAccount(ctx, a); err != nil {
			return fmt.Errorf("failed to save account %s: %w", a.Name, err)
		}
	}
	if !haveRoundOff {
		if err := store.SaveAccount(ctx, Account{Name: RoundOffAccount, Type: AccountExpense}); err != nil {
			return fmt.Errorf("failed to save round-off account: %w", err)
		}
	}
	return nil
}
