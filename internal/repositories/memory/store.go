// Package memory implements engine.Store on plain maps guarded by one
// mutex. WithinUpdate holds the mutex for the whole update unit and stages
// writes until the unit succeeds, which gives the same serializable,
// all-or-nothing contract the postgres store gets from row locks and
// transactions. It backs the engine and handler tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/suricat89/baas-core/internal/engine"
	"github.com/suricat89/baas-core/internal/models"
)

type Store struct {
	mu sync.Mutex

	nextAccountID  int64
	nextCustomerID int64

	accounts       map[models.AccountRef]*models.Account
	accountsByID   map[int64]*models.Account
	customers      map[int64]*models.Customer
	callerAccounts map[string]models.AccountRef
	transactions   map[string]*models.Transaction
	entries        map[int64][]models.AccountEntry
	events         []*models.TransactionEvent
}

func NewStore() *Store {
	return &Store{
		accounts:       make(map[models.AccountRef]*models.Account),
		accountsByID:   make(map[int64]*models.Account),
		customers:      make(map[int64]*models.Customer),
		callerAccounts: make(map[string]models.AccountRef),
		transactions:   make(map[string]*models.Transaction),
		entries:        make(map[int64][]models.AccountEntry),
	}
}

// CreateAccount registers an account with its customer, assigning ids. When
// the customer carries a UserUUID the account becomes resolvable as that
// user's own account.
func (s *Store) CreateAccount(account models.Account, customer models.Customer) *models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextCustomerID++
	customer.ID = s.nextCustomerID
	s.customers[customer.ID] = &customer

	s.nextAccountID++
	account.ID = s.nextAccountID
	account.CustomerID = customer.ID
	if account.Overdraft == 0 {
		account.Overdraft = models.DefaultOverdraft
	}

	s.accounts[account.Ref()] = &account
	s.accountsByID[account.ID] = &account
	if customer.UserUUID != "" {
		s.callerAccounts[customer.UserUUID] = account.Ref()
	}

	cp := account
	return &cp
}

func (s *Store) WithinUpdate(ctx context.Context, fn func(uow engine.UnitOfWork) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	uow := &unitOfWork{store: s, balances: make(map[int64]int64)}
	if err := fn(uow); err != nil {
		return err
	}

	uow.commit()
	return nil
}

func (s *Store) FindReceipt(ctx context.Context, transactionUUID string) (*models.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tran, ok := s.transactions[transactionUUID]
	if !ok {
		return nil, nil
	}

	return s.receipt(tran), nil
}

func (s *Store) AccountStatement(ctx context.Context, ref models.AccountRef, from, to time.Time) (*models.Statement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[ref]
	if !ok {
		return nil, nil
	}

	entries := []models.StatementEntry{}
	for _, entry := range s.entries[account.ID] {
		tran, ok := s.transactions[entry.TransactionUUID]
		if !ok {
			// Dangling history entries are dropped, not surfaced as nulls.
			continue
		}
		if tran.CreatedAt.Before(from) || tran.CreatedAt.After(to) {
			continue
		}
		entries = append(entries, models.StatementEntry{
			Transaction:  *s.receipt(tran),
			BalanceAfter: entry.BalanceAfter,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Transaction.CreatedAt.Before(entries[j].Transaction.CreatedAt)
	})

	return &models.Statement{
		AccountParty: *s.party(account.ID),
		Balance:      account.Balance,
		Overdraft:    account.Overdraft,
		Entries:      entries,
	}, nil
}

func (s *Store) CallerAccount(ctx context.Context, userUUID string) (*models.AccountRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref, ok := s.callerAccounts[userUUID]
	if !ok {
		return nil, nil
	}

	cp := ref
	return &cp, nil
}

// AccountByRef returns a snapshot of the account, or nil when absent.
func (s *Store) AccountByRef(ref models.AccountRef) *models.Account {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[ref]
	if !ok {
		return nil
	}

	cp := *account
	return &cp
}

// Entries returns a snapshot of the account's history lines in insertion
// order.
func (s *Store) Entries(ref models.AccountRef) []models.AccountEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[ref]
	if !ok {
		return nil
	}

	out := make([]models.AccountEntry, len(s.entries[account.ID]))
	copy(out, s.entries[account.ID])
	return out
}

// Events returns the queued outbox events in insertion order.
func (s *Store) Events() []*models.TransactionEvent {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.TransactionEvent, len(s.events))
	copy(out, s.events)
	return out
}

func (s *Store) receipt(tran *models.Transaction) *models.Receipt {
	return &models.Receipt{
		UUID:        tran.UUID,
		Type:        tran.Type,
		Value:       tran.Value,
		CreatedAt:   tran.CreatedAt,
		Origin:      s.party(tran.OriginAccountID),
		Destination: s.party(tran.DestinationAccountID),
	}
}

func (s *Store) party(accountID int64) *models.AccountParty {
	account, ok := s.accountsByID[accountID]
	if !ok {
		return nil
	}

	party := &models.AccountParty{
		Agency:        account.Agency,
		AccountNumber: account.AccountNumber,
	}
	if customer, ok := s.customers[account.CustomerID]; ok {
		party.CustomerName = customer.Name
		party.CustomerCPF = customer.CPF
		party.CustomerRG = customer.RG
	}

	return party
}

// unitOfWork stages writes while the store mutex is held; nothing touches
// the maps until commit.
type unitOfWork struct {
	store        *Store
	transactions []*models.Transaction
	entries      []models.AccountEntry
	balances     map[int64]int64
	events       []*models.TransactionEvent
}

func (u *unitOfWork) LockAccount(ctx context.Context, ref models.AccountRef) (*models.Account, error) {
	account, ok := u.store.accounts[ref]
	if !ok {
		return nil, nil
	}

	cp := *account
	return &cp, nil
}

func (u *unitOfWork) CreateTransaction(ctx context.Context, tran *models.Transaction) error {
	cp := *tran
	u.transactions = append(u.transactions, &cp)
	return nil
}

func (u *unitOfWork) ApplyEntry(ctx context.Context, accountID int64, newBalance int64, transactionUUID string) error {
	u.balances[accountID] = newBalance
	u.entries = append(u.entries, models.AccountEntry{
		AccountID:       accountID,
		TransactionUUID: transactionUUID,
		BalanceAfter:    newBalance,
	})
	return nil
}

func (u *unitOfWork) EnqueueEvent(ctx context.Context, event *models.TransactionEvent) error {
	cp := *event
	u.events = append(u.events, &cp)
	return nil
}

func (u *unitOfWork) commit() {
	for _, tran := range u.transactions {
		u.store.transactions[tran.UUID] = tran
	}
	for accountID, balance := range u.balances {
		u.store.accountsByID[accountID].Balance = balance
	}
	for _, entry := range u.entries {
		u.store.entries[entry.AccountID] = append(u.store.entries[entry.AccountID], entry)
	}
	u.store.events = append(u.store.events, u.events...)
}

var _ engine.Store = (*Store)(nil)
