package models

import (
	"errors"
	"fmt"
	"strings"
)

type ErrorKind string

const (
	KindValidation        ErrorKind = "validation"
	KindAuthorization     ErrorKind = "authorization"
	KindNotFound          ErrorKind = "not_found"
	KindInsufficientFunds ErrorKind = "insufficient_funds"
	KindSameAccount       ErrorKind = "same_account"
	KindInternal          ErrorKind = "internal"
)

// ErrLedgerInconsistent marks the fatal case of a committed transaction
// record without its paired account updates. It is always wrapped in a
// KindInternal Error, never returned bare.
var ErrLedgerInconsistent = errors.New("transaction record has no paired account entry")

// Error is a domain error with a stable kind, a human-readable message and,
// for validation failures, the offending field names. The persistence-layer
// cause, when present, stays internal: Error() never prints it.
type Error struct {
	Kind    ErrorKind
	Message string
	Fields  []string
	cause   error
}

func (e *Error) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, strings.Join(e.Fields, ", "))
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

func NewValidationError(fields ...string) *Error {
	return &Error{Kind: KindValidation, Message: "missing or invalid required fields", Fields: fields}
}

func NewAuthorizationError(message string) *Error {
	return &Error{Kind: KindAuthorization, Message: message}
}

func NewNotFoundError(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func NewInsufficientFundsError() *Error {
	return &Error{Kind: KindInsufficientFunds, Message: "not enough funds"}
}

func NewSameAccountError() *Error {
	return &Error{Kind: KindSameAccount, Message: "origin account and destination account are the same"}
}

func NewInternalError(cause error) *Error {
	return &Error{Kind: KindInternal, Message: "unexpected error", cause: cause}
}

// KindOf extracts the domain kind from err, unwrapping as needed.
// Unknown errors map to KindInternal.
func KindOf(err error) ErrorKind {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return KindInternal
}
