package models

// Customer carries the identification data shown on receipts and
// statements. Each customer is linked to at most one account and to the
// user id the auth gateway authenticates.
type Customer struct {
	ID       int64
	Name     string
	CPF      int64
	RG       string
	UserUUID string
}
