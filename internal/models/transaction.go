package models

import "time"

type TransactionType string

const (
	TransactionWithdraw TransactionType = "WITHDRAW"
	TransactionDeposit  TransactionType = "DEPOSIT"
	TransactionDebit    TransactionType = "DEBIT"
	TransactionP2P      TransactionType = "P2P"
)

// Debits reports whether the type takes funds out of an origin account.
func (t TransactionType) Debits() bool {
	return t == TransactionWithdraw || t == TransactionDebit || t == TransactionP2P
}

// Credits reports whether the type puts funds into a destination account.
func (t TransactionType) Credits() bool {
	return t == TransactionDeposit || t == TransactionP2P
}

// Transaction is the durable audit record of one engine invocation.
// Immutable after insert. OriginAccountID is set for WITHDRAW/DEBIT/P2P,
// DestinationAccountID for DEPOSIT/P2P.
type Transaction struct {
	UUID                 string
	Type                 TransactionType
	Value                int64
	OriginAccountID      int64
	DestinationAccountID int64
	CreatedAt            time.Time
}

// AccountEntry is one line of an account's history: the transaction that
// touched the account and the balance right after it was applied.
type AccountEntry struct {
	AccountID       int64
	TransactionUUID string
	BalanceAfter    int64
}

// AccountParty is the read-only projection of an account and its customer
// attached to receipts and statements.
type AccountParty struct {
	Agency        int64  `json:"agency"`
	AccountNumber int64  `json:"accountNumber"`
	CustomerName  string `json:"customerName,omitempty"`
	CustomerCPF   int64  `json:"customerCpf,omitempty"`
	CustomerRG    string `json:"customerRg,omitempty"`
}

// Receipt is the enriched transaction returned to the caller.
type Receipt struct {
	UUID        string          `json:"uuid"`
	Type        TransactionType `json:"transactionType"`
	Value       int64           `json:"value"`
	CreatedAt   time.Time       `json:"dateTime"`
	Origin      *AccountParty   `json:"originAccount,omitempty"`
	Destination *AccountParty   `json:"destinationAccount,omitempty"`
}

// StatementEntry pairs a history entry with its resolved transaction.
type StatementEntry struct {
	Transaction  Receipt `json:"transaction"`
	BalanceAfter int64   `json:"balanceAfter"`
}

// Statement is the history read-path result: the account plus its entries
// whose transactions fall inside the requested window, ascending by
// transaction time.
type Statement struct {
	AccountParty
	Balance   int64            `json:"balance"`
	Overdraft int64            `json:"overdraft"`
	Entries   []StatementEntry `json:"transactions"`
}
