package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suricat89/baas-core/internal/engine"
	"github.com/suricat89/baas-core/internal/models"
)

func seedAccount(store *Store, agency, number, balance int64) *models.Account {
	return store.CreateAccount(
		models.Account{Agency: agency, AccountNumber: number, Balance: balance},
		models.Customer{Name: "Test Customer", CPF: number, RG: "SP-456"},
	)
}

func TestWithinUpdateCommits(t *testing.T) {
	store := NewStore()
	account := seedAccount(store, 1, 100, 1000)

	err := store.WithinUpdate(context.Background(), func(uow engine.UnitOfWork) error {
		locked, err := uow.LockAccount(context.Background(), account.Ref())
		require.NoError(t, err)
		require.NotNil(t, locked)

		tran := &models.Transaction{
			UUID:            "tran-1",
			Type:            models.TransactionWithdraw,
			Value:           100,
			OriginAccountID: locked.ID,
			CreatedAt:       time.Now(),
		}
		if err := uow.CreateTransaction(context.Background(), tran); err != nil {
			return err
		}
		return uow.ApplyEntry(context.Background(), locked.ID, locked.Balance-100, tran.UUID)
	})
	require.NoError(t, err)

	assert.Equal(t, int64(900), store.AccountByRef(account.Ref()).Balance)
	require.Len(t, store.Entries(account.Ref()), 1)
}

func TestWithinUpdateRollsBackOnError(t *testing.T) {
	store := NewStore()
	account := seedAccount(store, 1, 100, 1000)
	boom := errors.New("boom")

	err := store.WithinUpdate(context.Background(), func(uow engine.UnitOfWork) error {
		locked, err := uow.LockAccount(context.Background(), account.Ref())
		require.NoError(t, err)

		tran := &models.Transaction{UUID: "tran-1", Type: models.TransactionWithdraw, Value: 100, CreatedAt: time.Now()}
		require.NoError(t, uow.CreateTransaction(context.Background(), tran))
		require.NoError(t, uow.ApplyEntry(context.Background(), locked.ID, locked.Balance-100, tran.UUID))

		return boom
	})
	require.ErrorIs(t, err, boom)

	// Nothing from the failed unit is visible.
	assert.Equal(t, int64(1000), store.AccountByRef(account.Ref()).Balance)
	assert.Empty(t, store.Entries(account.Ref()))

	receipt, err := store.FindReceipt(context.Background(), "tran-1")
	require.NoError(t, err)
	assert.Nil(t, receipt)
}

func TestLockAccountUnknownRef(t *testing.T) {
	store := NewStore()

	err := store.WithinUpdate(context.Background(), func(uow engine.UnitOfWork) error {
		account, err := uow.LockAccount(context.Background(), models.AccountRef{Agency: 9, AccountNumber: 999})
		require.NoError(t, err)
		assert.Nil(t, account)
		return nil
	})
	require.NoError(t, err)
}

func TestCallerAccount(t *testing.T) {
	store := NewStore()
	account := store.CreateAccount(
		models.Account{Agency: 3, AccountNumber: 300, Balance: 0},
		models.Customer{Name: "Owner", CPF: 300, UserUUID: "owner-uuid"},
	)

	ref, err := store.CallerAccount(context.Background(), "owner-uuid")
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.Equal(t, account.Ref(), *ref)

	ref, err = store.CallerAccount(context.Background(), "stranger")
	require.NoError(t, err)
	assert.Nil(t, ref)
}

func TestCreateAccountAppliesDefaultOverdraft(t *testing.T) {
	store := NewStore()
	account := seedAccount(store, 1, 100, 0)

	assert.Equal(t, models.DefaultOverdraft, account.Overdraft)
}

func TestAccountStatementWindow(t *testing.T) {
	store := NewStore()
	account := seedAccount(store, 1, 100, 1000)

	day := func(d int) time.Time {
		return time.Date(2021, 4, d, 12, 0, 0, 0, time.UTC)
	}

	// Three resolvable entries and one dangling entry pointing at a
	// transaction that no longer resolves.
	for i, created := range []time.Time{day(1), day(2), day(3)} {
		uuid := []string{"tran-01", "tran-02", "tran-03"}[i]
		store.transactions[uuid] = &models.Transaction{
			UUID:            uuid,
			Type:            models.TransactionWithdraw,
			Value:           10,
			OriginAccountID: account.ID,
			CreatedAt:       created,
		}
		store.entries[account.ID] = append(store.entries[account.ID], models.AccountEntry{
			AccountID:       account.ID,
			TransactionUUID: uuid,
			BalanceAfter:    1000 - int64(i+1)*10,
		})
	}
	store.entries[account.ID] = append(store.entries[account.ID], models.AccountEntry{
		AccountID:       account.ID,
		TransactionUUID: "tran-missing",
		BalanceAfter:    0,
	})

	from := time.Date(2021, 4, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2021, 4, 4, 23, 59, 59, 0, time.UTC)
	statement, err := store.AccountStatement(context.Background(), account.Ref(), from, to)
	require.NoError(t, err)
	require.NotNil(t, statement)

	require.Len(t, statement.Entries, 2)
	assert.Equal(t, "tran-02", statement.Entries[0].Transaction.UUID)
	assert.Equal(t, "tran-03", statement.Entries[1].Transaction.UUID)
	assert.True(t, statement.Entries[0].Transaction.CreatedAt.Before(statement.Entries[1].Transaction.CreatedAt))
}

func TestAccountStatementUnknownAccount(t *testing.T) {
	store := NewStore()

	statement, err := store.AccountStatement(context.Background(), models.AccountRef{Agency: 9, AccountNumber: 999}, time.Time{}, time.Now())
	require.NoError(t, err)
	assert.Nil(t, statement)
}
