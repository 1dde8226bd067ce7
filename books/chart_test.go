package books_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/ledger-engine/books"
	"github.com/warp/ledger-engine/store/sqlite"
)

func TestLoadChart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chart.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
accounts:
  - name: Petty Cash
    type: asset
    parent: Cash
  - name: Consulting Income
    type: income
`), 0o644))

	accounts, err := books.LoadChart(path)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "Petty Cash", string(accounts[0].Name))
	assert.Equal(t, books.AccountAsset, accounts[0].Type)
	assert.Equal(t, "Cash", string(accounts[0].Parent))
}

func TestLoadChart_MissingType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chart.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
accounts:
  - name: Petty Cash
`), 0o644))

	_, err := books.LoadChart(path)
	assert.Error(t, err)
}

func TestSeedChart_AlwaysIncludesRoundOff(t *testing.T) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	ctx := context.Background()

	// Seed a chart that forgot the round-off account.
	err = books.SeedChart(ctx, store, []books.Account{
		{Name: "Cash", Type: books.AccountAsset},
	})
	require.NoError(t, err)

	account, err := store.GetAccount(ctx, books.RoundOffAccount)
	require.NoError(t, err)
	require.NotNil(t, account)
	assert.Equal(t, books.AccountExpense, account.Type)
}
