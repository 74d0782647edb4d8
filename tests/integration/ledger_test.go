package integration

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/fundsbook/internal/domain"
	"github.com/iho/fundsbook/internal/usecase"
	"github.com/iho/fundsbook/tests/testutil"
)

func addEntry(t *testing.T, app *testutil.App, userID, bookID, amount string, typ domain.EntryType, remark string) *domain.Entry {
	t.Helper()

	entry, err := app.Entries.AddEntry(context.Background(), usecase.AddEntryInput{
		UserID: userID,
		BookID: bookID,
		Amount: decimal.RequireFromString(amount),
		Type:   typ,
		Remark: remark,
	})
	require.NoError(t, err)
	return entry
}

func newBook(t *testing.T, app *testutil.App, res *usecase.AuthResult, name string) *domain.Book {
	t.Helper()
	require.NotNil(t, res.Bookshelf, "sign up should create a default bookshelf")

	book, err := app.Books.CreateBook(context.Background(), usecase.CreateBookInput{
		UserID:      res.User.ID,
		BookshelfID: res.Bookshelf.ID,
		Name:        name,
	})
	require.NoError(t, err)
	return book
}

func TestLedgerRunningBalances(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	app := testutil.NewApp(t)

	owner := app.SignUp(ctx, "alice")
	book := newBook(t, app, owner, "Groceries")

	addEntry(t, app, owner.User.ID, book.ID, "100.50", domain.EntryTypeIn, "salary")
	addEntry(t, app, owner.User.ID, book.ID, "20.25", domain.EntryTypeOut, "market")
	addEntry(t, app, owner.User.ID, book.ID, "0.75", domain.EntryTypeOut, "")

	ledger, err := app.Entries.GetLedger(ctx, usecase.GetLedgerInput{UserID: owner.User.ID, BookID: book.ID})
	require.NoError(t, err)

	assert.True(t, ledger.Totals.TotalIn.Equal(decimal.RequireFromString("100.50")))
	assert.True(t, ledger.Totals.TotalOut.Equal(decimal.RequireFromString("21")))
	assert.True(t, ledger.Totals.Net.Equal(decimal.RequireFromString("79.50")))
	assert.Equal(t, 3, ledger.Count)

	require.Len(t, ledger.Entries, 3)
	expected := []string{"100.50", "80.25", "79.50"}
	for i, e := range ledger.Entries {
		assert.True(t, e.Running.Equal(decimal.RequireFromString(expected[i])),
			"entry %d: expected running %s, got %s", i, expected[i], e.Running)
	}
	assert.True(t, ledger.Entries[2].Running.Equal(ledger.Totals.Net))
}

func TestLedgerFilterKeepsUnfilteredBalances(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	app := testutil.NewApp(t)

	owner := app.SignUp(ctx, "bob")
	book := newBook(t, app, owner, "Trip")

	addEntry(t, app, owner.User.ID, book.ID, "10", domain.EntryTypeIn, "")
	addEntry(t, app, owner.User.ID, book.ID, "3", domain.EntryTypeOut, "taxi")
	addEntry(t, app, owner.User.ID, book.ID, "5", domain.EntryTypeIn, "")

	ledger, err := app.Entries.GetLedger(ctx, usecase.GetLedgerInput{
		UserID: owner.User.ID,
		BookID: book.ID,
		Filter: domain.EntryTypeOut,
	})
	require.NoError(t, err)

	require.Len(t, ledger.Entries, 1)
	assert.Equal(t, "taxi", ledger.Entries[0].Remark)
	assert.True(t, ledger.Entries[0].Running.Equal(decimal.NewFromInt(7)))
	assert.Equal(t, 3, ledger.Count)
	assert.True(t, ledger.Totals.Net.Equal(decimal.NewFromInt(12)), "totals cover the whole book")
}

func TestEmptyBookLedger(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	app := testutil.NewApp(t)

	owner := app.SignUp(ctx, "carol")
	book := newBook(t, app, owner, "Empty")

	ledger, err := app.Entries.GetLedger(ctx, usecase.GetLedgerInput{UserID: owner.User.ID, BookID: book.ID})
	require.NoError(t, err)

	assert.Empty(t, ledger.Entries)
	assert.Equal(t, 0, ledger.Count)
	assert.True(t, ledger.Totals.Net.IsZero())
}

func TestAddEntryRejectsInvalidInput(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	app := testutil.NewApp(t)

	owner := app.SignUp(ctx, "dave")
	book := newBook(t, app, owner, "Checks")

	_, err := app.Entries.AddEntry(ctx, usecase.AddEntryInput{
		UserID: owner.User.ID,
		BookID: book.ID,
		Amount: decimal.Zero,
		Type:   domain.EntryTypeIn,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = app.Entries.AddEntry(ctx, usecase.AddEntryInput{
		UserID: owner.User.ID,
		BookID: book.ID,
		Amount: decimal.NewFromInt(1),
		Type:   "",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidEntryType)

	assert.Equal(t, 0, app.DB.CountRows(ctx, "transactions", "book_id = $1", book.ID))
}
