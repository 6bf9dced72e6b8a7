package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestAccount(t *testing.T, db *Database, phone string) *Account {
	t.Helper()
	a := &Account{Phone: phone, Name: "Test User", Password: "hash"}
	require.NoError(t, db.CreateAccount(context.Background(), a))
	return a
}

func strptr(s string) *string { return &s }

func TestCreateAccountDuplicatePhone(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	newTestAccount(t, db, "254700000001")
	err := db.CreateAccount(ctx, &Account{Phone: "254700000001", Name: "Other", Password: "hash"})
	require.ErrorIs(t, err, ErrConflict)
}

func TestFindAccountByPhone(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	created := newTestAccount(t, db, "254700000002")

	found, err := db.FindAccountByPhone(ctx, "254700000002")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "Test User", found.Name)

	_, err = db.FindAccountByPhone(ctx, "254799999999")
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestSyncTransactionsInsertThenReplace(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	acc := newTestAccount(t, db, "254700000003")

	date := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	first := Transaction{ID: "t1", AccountID: acc.ID, Title: "Coffee", Amount: -500, Date: date, Category: "Food", Note: "with milk"}
	require.NoError(t, db.SyncTransactions(ctx, []Transaction{first}))

	// Re-transmit with modified fields: the stored row is fully replaced,
	// including fields that went back to zero values.
	second := first
	second.Title = "Coffee v2"
	second.Amount = -650
	second.Note = ""
	require.NoError(t, db.SyncTransactions(ctx, []Transaction{second}))

	records, err := db.ListTransactions(ctx, acc.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Coffee v2", records[0].Title)
	assert.Equal(t, int64(-650), records[0].Amount)
	assert.Equal(t, "", records[0].Note)
}

func TestSyncTransactionsAtomicRollback(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	acc := newTestAccount(t, db, "254700000004")
	date := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	seed := Transaction{ID: "t1", AccountID: acc.ID, Title: "Airtime", Amount: -100, Date: date, Category: "Utility", MpesaID: strptr("QX1")}
	require.NoError(t, db.SyncTransactions(ctx, []Transaction{seed}))

	// Second record reuses the settlement reference; the whole batch must
	// roll back, including the valid first record.
	batch := []Transaction{
		{ID: "t2", AccountID: acc.ID, Title: "Lunch", Amount: -900, Date: date, Category: "Food"},
		{ID: "t3", AccountID: acc.ID, Title: "Dinner", Amount: -1200, Date: date, Category: "Food", MpesaID: strptr("QX1")},
	}
	err := db.SyncTransactions(ctx, batch)
	require.ErrorIs(t, err, ErrConflict)

	records, err := db.ListTransactions(ctx, acc.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "t1", records[0].ID)
	assert.Equal(t, "Airtime", records[0].Title)
}

func TestSyncTransactionsCrossAccountID(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := newTestAccount(t, db, "254700000005")
	intruder := newTestAccount(t, db, "254700000006")
	date := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, db.SyncTransactions(ctx, []Transaction{
		{ID: "t1", AccountID: owner.ID, Title: "Rent", Amount: -15000, Date: date, Category: "Housing"},
	}))

	err := db.SyncTransactions(ctx, []Transaction{
		{ID: "t1", AccountID: intruder.ID, Title: "Hijack", Amount: 0, Date: date, Category: "X"},
	})
	require.ErrorIs(t, err, ErrConflict)

	records, err := db.ListTransactions(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Rent", records[0].Title)
}

func TestListTransactionsOrderedByDateDesc(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	acc := newTestAccount(t, db, "254700000007")

	older := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, db.SyncTransactions(ctx, []Transaction{
		{ID: "t-old", AccountID: acc.ID, Title: "Old", Amount: -1, Date: older, Category: "X"},
		{ID: "t-new", AccountID: acc.ID, Title: "New", Amount: -2, Date: newer, Category: "X"},
	}))

	records, err := db.ListTransactions(ctx, acc.ID)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "t-new", records[0].ID)
	assert.Equal(t, "t-old", records[1].ID)
}

func TestListTransactionsScopedToAccount(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	a := newTestAccount(t, db, "254700000008")
	b := newTestAccount(t, db, "254700000009")
	date := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, db.SyncTransactions(ctx, []Transaction{
		{ID: "ta", AccountID: a.ID, Title: "A", Amount: -1, Date: date, Category: "X"},
	}))
	require.NoError(t, db.SyncTransactions(ctx, []Transaction{
		{ID: "tb", AccountID: b.ID, Title: "B", Amount: -1, Date: date, Category: "X"},
	}))

	records, err := db.ListTransactions(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "ta", records[0].ID)
}

func TestSyncGoalsUpsert(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	acc := newTestAccount(t, db, "254700000010")

	goal := Goal{ID: "g1", AccountID: acc.ID, Name: "Emergency fund", Target: 100000}
	require.NoError(t, db.SyncGoals(ctx, []Goal{goal}))

	goal.Saved = 25000
	goal.ColorHex = strptr("#00AA55")
	require.NoError(t, db.SyncGoals(ctx, []Goal{goal}))

	records, err := db.ListGoals(ctx, acc.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, int64(25000), records[0].Saved)
	require.NotNil(t, records[0].ColorHex)
	assert.Equal(t, "#00AA55", *records[0].ColorHex)
	assert.Nil(t, records[0].Deadline)
}

func TestSyncEmptyBatchIsNoop(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	acc := newTestAccount(t, db, "254700000011")

	require.NoError(t, db.SyncTransactions(ctx, nil))
	require.NoError(t, db.SyncGoals(ctx, []Goal{}))

	records, err := db.ListTransactions(ctx, acc.ID)
	require.NoError(t, err)
	assert.Empty(t, records)
}
