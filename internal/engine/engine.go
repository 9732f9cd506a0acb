// Package engine implements the balance-mutation core: withdraw, deposit,
// debit and P2P transfer, plus the statement read path. Every mutation runs
// inside one Store update unit, so the overdraft check, the ledger insert
// and the history append commit together or not at all.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/suricat89/baas-core/internal/auth"
	"github.com/suricat89/baas-core/internal/logging"
	"github.com/suricat89/baas-core/internal/models"
	"go.uber.org/zap"
)

// Store is the persistence boundary of the engine. WithinUpdate runs fn in
// one atomic unit: everything fn does through the UnitOfWork is committed
// together, and account rows handed out by LockAccount stay locked until
// the unit ends. Lookups that find nothing return (nil, nil); the engine
// owns the NotFound mapping.
type Store interface {
	WithinUpdate(ctx context.Context, fn func(uow UnitOfWork) error) error
	FindReceipt(ctx context.Context, transactionUUID string) (*models.Receipt, error)
	AccountStatement(ctx context.Context, ref models.AccountRef, from, to time.Time) (*models.Statement, error)
	CallerAccount(ctx context.Context, userUUID string) (*models.AccountRef, error)
}

type UnitOfWork interface {
	LockAccount(ctx context.Context, ref models.AccountRef) (*models.Account, error)
	CreateTransaction(ctx context.Context, tran *models.Transaction) error
	ApplyEntry(ctx context.Context, accountID int64, newBalance int64, transactionUUID string) error
	EnqueueEvent(ctx context.Context, event *models.TransactionEvent) error
}

type SimpleTransactionParams struct {
	Account models.AccountRef
	Value   int64
}

type P2PParams struct {
	Origin      models.AccountRef
	Destination models.AccountRef
	Value       int64
}

type Engine struct {
	store Store
	lg    *logging.ZapLogger
}

func NewEngine(store Store, lg *logging.ZapLogger) *Engine {
	return &Engine{store: store, lg: lg}
}

// Execute runs one WITHDRAW, DEPOSIT or DEBIT transaction and returns the
// enriched receipt.
func (e *Engine) Execute(
	ctx context.Context,
	caller auth.Identity,
	transactionType models.TransactionType,
	params SimpleTransactionParams,
) (*models.Receipt, error) {
	if transactionType == models.TransactionP2P {
		return nil, models.NewValidationError("transactionType")
	}

	ref, err := e.resolveTargetAccount(ctx, caller, params.Account)
	if err != nil {
		return nil, err
	}

	missing := missingRefFields("", ref)
	if params.Value <= 0 {
		missing = append(missing, "value")
	}
	if len(missing) > 0 {
		return nil, models.NewValidationError(missing...)
	}

	var transactionUUID string
	err = e.store.WithinUpdate(ctx, func(uow UnitOfWork) error {
		account, err := uow.LockAccount(ctx, ref)
		if err != nil {
			return fmt.Errorf("engine: lock account error %w", err)
		}
		if account == nil {
			return models.NewNotFoundError("account not found")
		}

		newBalance := account.Balance
		tran := &models.Transaction{
			UUID:      uuid.NewString(),
			Type:      transactionType,
			Value:     params.Value,
			CreatedAt: time.Now(),
		}

		if transactionType == models.TransactionDeposit {
			newBalance += params.Value
			tran.DestinationAccountID = account.ID
		} else {
			if account.Balance-params.Value < -account.Overdraft {
				return models.NewInsufficientFundsError()
			}
			newBalance -= params.Value
			tran.OriginAccountID = account.ID
		}

		if err := uow.CreateTransaction(ctx, tran); err != nil {
			return fmt.Errorf("engine: create transaction error %w", err)
		}
		if err := uow.ApplyEntry(ctx, account.ID, newBalance, tran.UUID); err != nil {
			return fmt.Errorf("engine: apply account entry error %w", err)
		}
		if err := uow.EnqueueEvent(ctx, newTransactionEvent(tran)); err != nil {
			return fmt.Errorf("engine: enqueue event error %w", err)
		}

		transactionUUID = tran.UUID
		return nil
	})
	if err != nil {
		return nil, e.domainOrInternal(ctx, err)
	}

	return e.findReceipt(ctx, transactionUUID)
}

// ExecuteP2P moves value between two distinct accounts as one atomic unit:
// one ledger record referencing both accounts, a debit entry on the origin
// and a credit entry on the destination.
func (e *Engine) ExecuteP2P(ctx context.Context, caller auth.Identity, params P2PParams) (*models.Receipt, error) {
	origin, err := e.resolveTargetAccount(ctx, caller, params.Origin)
	if err != nil {
		return nil, err
	}

	missing := missingRefFields("originAccount.", origin)
	missing = append(missing, missingRefFields("destinationAccount.", params.Destination)...)
	if params.Value <= 0 {
		missing = append(missing, "value")
	}
	if len(missing) > 0 {
		return nil, models.NewValidationError(missing...)
	}

	if origin.Equal(params.Destination) {
		return nil, models.NewSameAccountError()
	}

	var transactionUUID string
	err = e.store.WithinUpdate(ctx, func(uow UnitOfWork) error {
		originAccount, destinationAccount, err := lockPair(ctx, uow, origin, params.Destination)
		if err != nil {
			return fmt.Errorf("engine: lock accounts error %w", err)
		}
		if originAccount == nil {
			return models.NewNotFoundError("origin account not found")
		}
		if destinationAccount == nil {
			return models.NewNotFoundError("destination account not found")
		}

		// The overdraft invariant applies to every debiting type, P2P
		// included.
		if originAccount.Balance-params.Value < -originAccount.Overdraft {
			return models.NewInsufficientFundsError()
		}

		tran := &models.Transaction{
			UUID:                 uuid.NewString(),
			Type:                 models.TransactionP2P,
			Value:                params.Value,
			OriginAccountID:      originAccount.ID,
			DestinationAccountID: destinationAccount.ID,
			CreatedAt:            time.Now(),
		}
		if err := uow.CreateTransaction(ctx, tran); err != nil {
			return fmt.Errorf("engine: create transaction error %w", err)
		}

		if err := uow.ApplyEntry(ctx, originAccount.ID, originAccount.Balance-params.Value, tran.UUID); err != nil {
			return fmt.Errorf("engine: apply origin entry error %w", err)
		}
		if err := uow.ApplyEntry(ctx, destinationAccount.ID, destinationAccount.Balance+params.Value, tran.UUID); err != nil {
			return fmt.Errorf("engine: apply destination entry error %w", err)
		}
		if err := uow.EnqueueEvent(ctx, newTransactionEvent(tran)); err != nil {
			return fmt.Errorf("engine: enqueue event error %w", err)
		}

		transactionUUID = tran.UUID
		return nil
	})
	if err != nil {
		return nil, e.domainOrInternal(ctx, err)
	}

	return e.findReceipt(ctx, transactionUUID)
}

// Statement returns the account plus its history entries whose transactions
// fall inside [from, to], ascending by transaction time. Zero bounds default
// to the last 7 days through the end of the current day.
func (e *Engine) Statement(
	ctx context.Context,
	caller auth.Identity,
	ref models.AccountRef,
	from, to time.Time,
) (*models.Statement, error) {
	target, err := e.resolveTargetAccount(ctx, caller, ref)
	if err != nil {
		return nil, err
	}

	if missing := missingRefFields("", target); len(missing) > 0 {
		return nil, models.NewValidationError(missing...)
	}

	if from.IsZero() {
		year, month, day := time.Now().AddDate(0, 0, -7).Date()
		from = time.Date(year, month, day, 0, 0, 0, 0, time.Local)
	}
	if to.IsZero() {
		year, month, day := time.Now().Date()
		to = time.Date(year, month, day, 23, 59, 59, 999999999, time.Local)
	}

	statement, err := e.store.AccountStatement(ctx, target, from, to)
	if err != nil {
		return nil, e.domainOrInternal(ctx, fmt.Errorf("engine: account statement error %w", err))
	}
	if statement == nil {
		return nil, models.NewNotFoundError("account not found")
	}

	return statement, nil
}

// resolveTargetAccount applies the ownership rule: a restricted caller gets
// its own account substituted when the ref is incomplete, and may not name
// any other account. Managers pass refs through untouched.
func (e *Engine) resolveTargetAccount(
	ctx context.Context,
	caller auth.Identity,
	ref models.AccountRef,
) (models.AccountRef, error) {
	if !caller.Restricted() {
		return ref, nil
	}

	own, err := e.store.CallerAccount(ctx, caller.UserUUID)
	if err != nil {
		return models.AccountRef{}, e.domainOrInternal(ctx, fmt.Errorf("engine: resolve caller account error %w", err))
	}
	if own == nil {
		return models.AccountRef{}, models.NewNotFoundError("account not found")
	}

	if ref.Agency == 0 || ref.AccountNumber == 0 {
		return *own, nil
	}
	if !ref.Equal(*own) {
		return models.AccountRef{}, models.NewAuthorizationError(
			"one client cannot make transactions using another client's account",
		)
	}

	return ref, nil
}

func (e *Engine) findReceipt(ctx context.Context, transactionUUID string) (*models.Receipt, error) {
	receipt, err := e.store.FindReceipt(ctx, transactionUUID)
	if err != nil {
		return nil, e.domainOrInternal(ctx, fmt.Errorf("engine: fetch receipt error %w", err))
	}
	if receipt == nil {
		// The transaction committed but cannot be read back; surface it
		// loudly instead of returning an empty receipt.
		return nil, e.domainOrInternal(ctx, fmt.Errorf("engine: transaction %s %w", transactionUUID, models.ErrLedgerInconsistent))
	}

	return receipt, nil
}

// domainOrInternal passes typed domain errors through and downgrades
// everything else to a generic internal error, logging the cause.
func (e *Engine) domainOrInternal(ctx context.Context, err error) error {
	var domainErr *models.Error
	if errors.As(err, &domainErr) {
		return domainErr
	}

	e.lg.ErrorCtx(ctx, "transaction failed", zap.Error(err))
	return models.NewInternalError(err)
}

// lockPair locks both accounts ordered by (agency, accountNumber) so two
// opposing transfers cannot deadlock, and returns them as (origin,
// destination) regardless of lock order.
func lockPair(ctx context.Context, uow UnitOfWork, origin, destination models.AccountRef) (*models.Account, *models.Account, error) {
	first, second := origin, destination
	if second.Less(first) {
		first, second = second, first
	}

	firstAccount, err := uow.LockAccount(ctx, first)
	if err != nil {
		return nil, nil, err
	}
	secondAccount, err := uow.LockAccount(ctx, second)
	if err != nil {
		return nil, nil, err
	}

	if first == origin {
		return firstAccount, secondAccount, nil
	}
	return secondAccount, firstAccount, nil
}

func missingRefFields(prefix string, ref models.AccountRef) []string {
	missing := []string{}
	if ref.Agency == 0 {
		missing = append(missing, prefix+"agency")
	}
	if ref.AccountNumber == 0 {
		missing = append(missing, prefix+"accountNumber")
	}
	return missing
}

func newTransactionEvent(tran *models.Transaction) *models.TransactionEvent {
	return &models.TransactionEvent{
		UUID:  uuid.NewString(),
		State: models.TransactionEventNewState,
		Name:  models.TransactionProcessedEventName,
		Meta: &models.TransactionEventMeta{
			TransactionUUID:      tran.UUID,
			Type:                 tran.Type,
			Value:                tran.Value,
			OriginAccountID:      tran.OriginAccountID,
			DestinationAccountID: tran.DestinationAccountID,
			ProcessedAt:          tran.CreatedAt,
		},
	}
}
