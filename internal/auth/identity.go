// Package auth carries the caller identity resolved by the out-of-scope
// auth gateway. The gateway authenticates the user and forwards its id and
// profile; everything else about credentials is outside this service.
package auth

const (
	ProfileClient  = "CLIENT"
	ProfileManager = "MANAGER"
)

type Identity struct {
	UserUUID string
	Profile  string
}

// Restricted reports whether the caller may only operate on its own
// account. Managers bypass account ownership checks.
func (i Identity) Restricted() bool {
	return i.Profile != ProfileManager
}
