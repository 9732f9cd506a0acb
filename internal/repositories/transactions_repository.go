package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/suricat89/baas-core/internal/logging"
	"github.com/suricat89/baas-core/internal/models"
	"github.com/suricat89/baas-core/internal/storage"
)

type TransactionsRepository struct {
	strg TransactionsStorage
	lg   *logging.ZapLogger
}

type TransactionsStorage interface {
	QueryRow(ctx context.Context, query string, args ...any) pgx.Row
}

func NewTransactionsRepository(strg *storage.Storage, lg *logging.ZapLogger) *TransactionsRepository {
	return &TransactionsRepository{strg: strg.DB, lg: lg}
}

// CreateTX appends the ledger record inside the caller's tx. Account ids of
// zero are stored as NULL.
func (rep *TransactionsRepository) CreateTX(ctx context.Context, tran *models.Transaction, tx pgx.Tx) error {
	var origin, destination *int64
	if tran.OriginAccountID != 0 {
		origin = &tran.OriginAccountID
	}
	if tran.DestinationAccountID != 0 {
		destination = &tran.DestinationAccountID
	}

	_, err := tx.Exec(
		ctx,
		`
		  INSERT INTO transactions(uuid, transaction_type, value, origin_account_id, destination_account_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`,
		tran.UUID, tran.Type, tran.Value, origin, destination, tran.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("transactions_repository: create transactions record error %w", err)
	}

	return nil
}

// FindReceipt reads a ledger record back with both parties resolved.
// Returns (nil, nil) when the transaction does not exist.
func (rep *TransactionsRepository) FindReceipt(ctx context.Context, transactionUUID string) (*models.Receipt, error) {
	receipt := &models.Receipt{}
	row := rep.strg.QueryRow(
		ctx,
		`
			SELECT t.uuid, t.transaction_type, t.value, t.created_at,
			       oa.agency, oa.account_number, oc.name, oc.cpf, oc.rg,
			       da.agency, da.account_number, dc.name, dc.cpf, dc.rg
			FROM transactions t
			LEFT JOIN accounts oa ON oa.id = t.origin_account_id
			LEFT JOIN customers oc ON oc.id = oa.customer_id
			LEFT JOIN accounts da ON da.id = t.destination_account_id
			LEFT JOIN customers dc ON dc.id = da.customer_id
			WHERE t.uuid = $1
		`,
		transactionUUID,
	)

	if err := scanReceipt(row, receipt, nil); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("transactions_repository: fetch receipt error %w", err)
	}

	return receipt, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanReceipt scans the shared receipt column list, preceded by
// balance_after when the caller asks for it. Party columns are NULL for the
// side a transaction type does not carry.
func scanReceipt(row rowScanner, receipt *models.Receipt, balanceAfter *int64) error {
	var (
		originAgency, originNumber           *int64
		originName, originRG                 *string
		originCPF                            *int64
		destinationAgency, destinationNumber *int64
		destinationName, destinationRG       *string
		destinationCPF                       *int64
	)

	dest := []any{}
	if balanceAfter != nil {
		dest = append(dest, balanceAfter)
	}
	dest = append(dest,
		&receipt.UUID, &receipt.Type, &receipt.Value, &receipt.CreatedAt,
		&originAgency, &originNumber, &originName, &originCPF, &originRG,
		&destinationAgency, &destinationNumber, &destinationName, &destinationCPF, &destinationRG,
	)

	if err := row.Scan(dest...); err != nil {
		return err
	}

	if originAgency != nil {
		receipt.Origin = &models.AccountParty{Agency: *originAgency, AccountNumber: *originNumber}
		fillCustomer(receipt.Origin, originName, originCPF, originRG)
	}
	if destinationAgency != nil {
		receipt.Destination = &models.AccountParty{Agency: *destinationAgency, AccountNumber: *destinationNumber}
		fillCustomer(receipt.Destination, destinationName, destinationCPF, destinationRG)
	}

	return nil
}
