package models

// DefaultOverdraft is applied to accounts created without an explicit limit.
const DefaultOverdraft int64 = 1000

// AccountRef identifies an account by its (agency, accountNumber) pair,
// which is globally unique. A zero field means the caller did not supply it.
type AccountRef struct {
	Agency        int64 `json:"agency"`
	AccountNumber int64 `json:"accountNumber"`
}

func (r AccountRef) Empty() bool {
	return r.Agency == 0 && r.AccountNumber == 0
}

func (r AccountRef) Equal(other AccountRef) bool {
	return r.Agency == other.Agency && r.AccountNumber == other.AccountNumber
}

// Less orders refs by (agency, accountNumber). Used to take account row
// locks in a deterministic order.
func (r AccountRef) Less(other AccountRef) bool {
	if r.Agency != other.Agency {
		return r.Agency < other.Agency
	}
	return r.AccountNumber < other.AccountNumber
}

// Account balances are int64 minor units. Balance may go negative down to
// -Overdraft, never below.
type Account struct {
	ID            int64
	Agency        int64
	AccountNumber int64
	Balance       int64
	Overdraft     int64
	CustomerID    int64
}

func (a *Account) Ref() AccountRef {
	return AccountRef{Agency: a.Agency, AccountNumber: a.AccountNumber}
}
