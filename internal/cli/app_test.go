package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetbuddy/internal/core"
	"budgetbuddy/internal/services"
	"budgetbuddy/internal/storage"
)

func newTestService(t *testing.T) (*services.LedgerService, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ledger.json")
	svc := services.NewLedgerService(storage.NewJSONStore(path), services.Options{})
	require.NoError(t, svc.Load(context.Background()))
	return svc, path
}

func runScript(t *testing.T, svc *services.LedgerService, lines ...string) string {
	t.Helper()
	var out bytes.Buffer
	app := NewApp(svc, strings.NewReader(strings.Join(lines, "\n")+"\n"), &out, nil)
	app.today = func() string { return "2026-01-15" }
	require.NoError(t, app.Run(context.Background()))
	return out.String()
}

func TestApp_AddListAndSaveOnQuit(t *testing.T) {
	svc, path := newTestService(t)

	out := runScript(t, svc,
		"1", "2026-01-02", "Expense", "Food", "12,5", "Lunch",
		"2",
		"12", "y",
	)

	assert.Contains(t, out, "Added ")
	assert.Contains(t, out, "Food")
	assert.Contains(t, out, "12.50")
	assert.Contains(t, out, "1 transaction(s).")
	assert.Contains(t, out, "Saved.")
	assert.Contains(t, out, "Bye.")

	reloaded, err := storage.NewJSONStore(path).Load(context.Background())
	require.NoError(t, err)
	txs := reloaded.ListAll()
	require.Len(t, txs, 1)
	assert.Equal(t, "Lunch", txs[0].Note)
	assert.Equal(t, core.Expense, txs[0].Type)
}

func TestApp_AddDefaultsToToday(t *testing.T) {
	svc, _ := newTestService(t)

	runScript(t, svc, "1", "", "income", "Salary", "2000", "", "12", "n")

	txs := svc.List()
	require.Len(t, txs, 1)
	assert.Equal(t, "2026-01-15", txs[0].Date)
}

func TestApp_ErrorsDoNotEndTheLoop(t *testing.T) {
	svc, path := newTestService(t)

	out := runScript(t, svc,
		"1", "", "expense", "Food", "abc",
		"1", "", "bogus", "Food", "5", "",
		"99",
		"5", "nope",
		"4", "nope",
		"12",
	)

	assert.Contains(t, out, "Error: invalid amount")
	assert.Contains(t, out, "Error: invalid tx_type")
	assert.Contains(t, out, `Invalid option "99".`)
	assert.Contains(t, out, "No transaction with id nope.")
	assert.Contains(t, out, "Error: transaction not found: nope")
	assert.Contains(t, out, "Bye.")
	assert.Empty(t, svc.List())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "nothing should be saved")
}

func TestApp_EOFQuits(t *testing.T) {
	svc, _ := newTestService(t)
	var out bytes.Buffer
	app := NewApp(svc, strings.NewReader(""), &out, nil)

	require.NoError(t, app.Run(context.Background()))
	assert.Contains(t, out.String(), "Bye.")
}

func TestApp_EOFMidActionQuits(t *testing.T) {
	svc, _ := newTestService(t)
	var out bytes.Buffer
	app := NewApp(svc, strings.NewReader("1\n2026-01-02\n"), &out, nil)

	require.NoError(t, app.Run(context.Background()))
	assert.Empty(t, svc.List())
}

func TestApp_UpdateKeepsBlankFields(t *testing.T) {
	svc, _ := newTestService(t)
	tx, err := svc.Create(context.Background(), "2026-01-02", "expense", "Food", 12, "Lunch")
	require.NoError(t, err)

	out := runScript(t, svc,
		"4", tx.ID, "", "", "Groceries", "", "-",
		"12", "n",
	)

	assert.Contains(t, out, "Updated "+tx.ID)
	assert.Contains(t, out, `Note [Lunch] (blank keeps, "-" clears; a note of just "-" cannot be set): `)
	got, ok := svc.Get(tx.ID)
	require.True(t, ok)
	assert.Equal(t, "2026-01-02", got.Date)
	assert.Equal(t, core.Expense, got.Type)
	assert.Equal(t, "Groceries", got.Category)
	assert.Equal(t, 12.0, got.Amount)
	assert.Empty(t, got.Note)
}

func TestApp_DeleteAndFilter(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	food, err := svc.Create(ctx, "2026-01-02", "expense", "Food", 50, "")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "2026-02-03", "expense", "Rent", 800, "")
	require.NoError(t, err)

	out := runScript(t, svc,
		"3", "2026-01", "food", "",
		"5", food.ID,
		"3", "2026-01", "", "",
		"3", "January", "", "",
		"12", "n",
	)

	assert.Contains(t, out, "Deleted "+food.ID)
	assert.Contains(t, out, "No transactions.")
	assert.Contains(t, out, "Error: invalid month")
	assert.Len(t, svc.List(), 1)
}

func TestApp_Reports(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	for _, tx := range []struct {
		date, txType, category string
		amount                 float64
	}{
		{"2026-01-01", "income", "Salary", 2000},
		{"2026-01-02", "expense", "Food", 50},
		{"2026-01-03", "expense", "Rent", 800},
	} {
		_, err := svc.Create(ctx, tx.date, tx.txType, tx.category, tx.amount, "")
		require.NoError(t, err)
	}

	out := runScript(t, svc,
		"6", "",
		"7", "", "1",
		"7", "2026-01", "0",
		"8", "2026-01",
		"8", "2025-12",
		"12", "n",
	)

	assert.Contains(t, out, "Summary for 2026-01")
	assert.Contains(t, out, "2000.00")
	assert.Contains(t, out, "850.00")
	assert.Contains(t, out, "1150.00")
	assert.Contains(t, out, " 1. Rent")
	assert.NotContains(t, out, " 2. Food")
	assert.Contains(t, out, "Error: invalid limit")
	assert.Contains(t, out, "2026-01-02      50.00")
	assert.Contains(t, out, "2026-01-03     800.00")
	assert.Contains(t, out, "No expenses in 2025-12.")
}

func TestApp_ExportThenImportReplaces(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	_, err := svc.Create(ctx, "2026-01-02", "expense", "Food", 50, "")
	require.NoError(t, err)
	csvPath := filepath.Join(t.TempDir(), "export", "ledger.csv")

	out := runScript(t, svc, "9", csvPath, "12", "n")
	assert.Contains(t, out, "Exported 1 transactions to "+csvPath)

	other, _ := newTestService(t)
	_, err = other.Create(ctx, "2026-03-01", "income", "Gift", 10, "")
	require.NoError(t, err)

	out = runScript(t, other, "10", csvPath, "10", "", "12", "n")
	assert.Contains(t, out, "Imported 1 transactions.")
	assert.Contains(t, out, "Error: path is required")

	txs := other.List()
	require.Len(t, txs, 1)
	assert.Equal(t, "Food", txs[0].Category)
}
