package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/suricat89/baas-core/internal/engine"
	"github.com/suricat89/baas-core/internal/logging"
	"github.com/suricat89/baas-core/internal/models"
	"github.com/suricat89/baas-core/internal/storage"
)

// PGStore composes the account, ledger and outbox repositories into the
// engine's Store contract. WithinUpdate is one database transaction; the
// FOR UPDATE locks taken through it make per-account mutation sequences
// serializable.
type PGStore struct {
	strg         *storage.Storage
	accounts     *AccountsRepository
	transactions *TransactionsRepository
	events       *OutboxEventsRepository
	lg           *logging.ZapLogger
}

func NewPGStore(
	strg *storage.Storage,
	accounts *AccountsRepository,
	transactions *TransactionsRepository,
	events *OutboxEventsRepository,
	lg *logging.ZapLogger,
) *PGStore {
	return &PGStore{
		strg:         strg,
		accounts:     accounts,
		transactions: transactions,
		events:       events,
		lg:           lg,
	}
}

func (s *PGStore) WithinUpdate(ctx context.Context, fn func(uow engine.UnitOfWork) error) error {
	tx, err := s.strg.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("pg_store: create tx error %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgUnitOfWork{store: s, tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("pg_store: commit tx error %w", err)
	}

	return nil
}

func (s *PGStore) FindReceipt(ctx context.Context, transactionUUID string) (*models.Receipt, error) {
	return s.transactions.FindReceipt(ctx, transactionUUID)
}

func (s *PGStore) AccountStatement(ctx context.Context, ref models.AccountRef, from, to time.Time) (*models.Statement, error) {
	return s.accounts.Statement(ctx, ref, from, to)
}

func (s *PGStore) CallerAccount(ctx context.Context, userUUID string) (*models.AccountRef, error) {
	return s.accounts.CallerAccount(ctx, userUUID)
}

type pgUnitOfWork struct {
	store *PGStore
	tx    pgx.Tx
}

func (u *pgUnitOfWork) LockAccount(ctx context.Context, ref models.AccountRef) (*models.Account, error) {
	return u.store.accounts.LockTX(ctx, u.tx, ref)
}

func (u *pgUnitOfWork) CreateTransaction(ctx context.Context, tran *models.Transaction) error {
	return u.store.transactions.CreateTX(ctx, tran, u.tx)
}

func (u *pgUnitOfWork) ApplyEntry(ctx context.Context, accountID int64, newBalance int64, transactionUUID string) error {
	return u.store.accounts.ApplyEntryTX(ctx, u.tx, accountID, newBalance, transactionUUID)
}

func (u *pgUnitOfWork) EnqueueEvent(ctx context.Context, event *models.TransactionEvent) error {
	return u.store.events.SaveTX(ctx, event, u.tx)
}

var _ engine.Store = (*PGStore)(nil)
