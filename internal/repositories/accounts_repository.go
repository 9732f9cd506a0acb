package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/suricat89/baas-core/internal/logging"
	"github.com/suricat89/baas-core/internal/models"
	"github.com/suricat89/baas-core/internal/storage"
)

type AccountsRepository struct {
	strg AccountsStorage
	lg   *logging.ZapLogger
}

type AccountsStorage interface {
	QueryRow(ctx context.Context, query string, args ...any) pgx.Row
	Query(ctx context.Context, query string, args ...any) (pgx.Rows, error)
}

func NewAccountsRepository(strg *storage.Storage, lg *logging.ZapLogger) *AccountsRepository {
	return &AccountsRepository{strg: strg.DB, lg: lg}
}

// LockTX reads the account row under FOR UPDATE, holding the row lock until
// tx ends. Returns (nil, nil) when the account does not exist.
func (rep *AccountsRepository) LockTX(ctx context.Context, tx pgx.Tx, ref models.AccountRef) (*models.Account, error) {
	account := &models.Account{}
	row := tx.QueryRow(
		ctx,
		`
			SELECT id, agency, account_number, balance, overdraft, customer_id
			FROM accounts
			WHERE agency = $1 AND account_number = $2
			FOR UPDATE
		`,
		ref.Agency, ref.AccountNumber,
	)

	if err := row.Scan(
		&account.ID,
		&account.Agency,
		&account.AccountNumber,
		&account.Balance,
		&account.Overdraft,
		&account.CustomerID,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("accounts_repository: lock account error %w", err)
	}

	return account, nil
}

// ApplyEntryTX sets the new balance and appends the paired history line in
// the same tx the caller locked the row in.
func (rep *AccountsRepository) ApplyEntryTX(
	ctx context.Context,
	tx pgx.Tx,
	accountID int64,
	newBalance int64,
	transactionUUID string,
) error {
	if _, err := tx.Exec(
		ctx,
		`UPDATE accounts SET balance = $1 WHERE id = $2`,
		newBalance, accountID,
	); err != nil {
		return fmt.Errorf("accounts_repository: update balance error %w", err)
	}

	if _, err := tx.Exec(
		ctx,
		`
			INSERT INTO account_entries(account_id, transaction_uuid, balance_after)
			VALUES ($1, $2, $3)
		`,
		accountID, transactionUUID, newBalance,
	); err != nil {
		return fmt.Errorf("accounts_repository: append history entry error %w", err)
	}

	return nil
}

// CallerAccount resolves the account linked to the given user through its
// customer. Returns (nil, nil) when the user has no account.
func (rep *AccountsRepository) CallerAccount(ctx context.Context, userUUID string) (*models.AccountRef, error) {
	ref := &models.AccountRef{}
	row := rep.strg.QueryRow(
		ctx,
		`
			SELECT a.agency, a.account_number
			FROM accounts a
			JOIN customers c ON c.id = a.customer_id
			WHERE c.user_uuid = $1
		`,
		userUUID,
	)

	if err := row.Scan(&ref.Agency, &ref.AccountNumber); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("accounts_repository: resolve caller account error %w", err)
	}

	return ref, nil
}

// Statement fetches the account and its history lines whose transactions
// fall inside [from, to], ascending by transaction time. The inner join
// drops entries whose transaction is unresolvable. Returns (nil, nil) when
// the account does not exist.
func (rep *AccountsRepository) Statement(
	ctx context.Context,
	ref models.AccountRef,
	from, to time.Time,
) (*models.Statement, error) {
	statement := &models.Statement{Entries: []models.StatementEntry{}}

	var accountID int64
	row := rep.strg.QueryRow(
		ctx,
		`
			SELECT a.id, a.agency, a.account_number, a.balance, a.overdraft,
			       c.name, c.cpf, c.rg
			FROM accounts a
			LEFT JOIN customers c ON c.id = a.customer_id
			WHERE a.agency = $1 AND a.account_number = $2
		`,
		ref.Agency, ref.AccountNumber,
	)

	var customerName, customerRG *string
	var customerCPF *int64
	if err := row.Scan(
		&accountID,
		&statement.Agency,
		&statement.AccountNumber,
		&statement.Balance,
		&statement.Overdraft,
		&customerName,
		&customerCPF,
		&customerRG,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("accounts_repository: fetch account error %w", err)
	}
	fillCustomer(&statement.AccountParty, customerName, customerCPF, customerRG)

	rows, err := rep.strg.Query(
		ctx,
		`
			SELECT e.balance_after,
			       t.uuid, t.transaction_type, t.value, t.created_at,
			       oa.agency, oa.account_number, oc.name, oc.cpf, oc.rg,
			       da.agency, da.account_number, dc.name, dc.cpf, dc.rg
			FROM account_entries e
			JOIN transactions t ON t.uuid = e.transaction_uuid
			LEFT JOIN accounts oa ON oa.id = t.origin_account_id
			LEFT JOIN customers oc ON oc.id = oa.customer_id
			LEFT JOIN accounts da ON da.id = t.destination_account_id
			LEFT JOIN customers dc ON dc.id = da.customer_id
			WHERE e.account_id = $1 AND t.created_at >= $2 AND t.created_at <= $3
			ORDER BY t.created_at ASC
		`,
		accountID, from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("accounts_repository: fetch history error %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		entry := models.StatementEntry{}
		if err := scanReceipt(rows, &entry.Transaction, &entry.BalanceAfter); err != nil {
			return nil, fmt.Errorf("accounts_repository: scan history entry error %w", err)
		}
		statement.Entries = append(statement.Entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("accounts_repository: fetch history error %w", err)
	}

	return statement, nil
}

func fillCustomer(party *models.AccountParty, name *string, cpf *int64, rg *string) {
	if name != nil {
		party.CustomerName = *name
	}
	if cpf != nil {
		party.CustomerCPF = *cpf
	}
	if rg != nil {
		party.CustomerRG = *rg
	}
}
