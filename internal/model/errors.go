package model

import "errors"

// Authentication and authorization outcomes.  Callers compare with
// errors.Is; the HTTP layer maps each to one status code.
var (
	// ErrInvalidCredentials is returned for both an unknown email and a
	// wrong password so the response does not reveal which accounts exist.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrLockedAccount      = errors.New("account locked")
	ErrInactiveAccount    = errors.New("account is not active")
	// ErrTokenInvalid covers every token verification failure.
	ErrTokenInvalid           = errors.New("invalid session token")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrSelfModificationDenied = errors.New("cannot modify your own account")
	ErrDuplicateEmail         = errors.New("email already registered")
	// ErrCorruptCredential means a stored password digest could not be
	// parsed.  It is a data problem, never a wrong password.
	ErrCorruptCredential = errors.New("stored credential is corrupt")
)

// Inventory outcomes.  Both are expected business results.
var (
	ErrQuotaExceeded      = errors.New("ticket type sold out")
	ErrPerUserCapExceeded = errors.New("per-user ticket limit reached")
)

// Generic persistence outcomes.
var (
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a delete or update cannot proceed
	// because sold ticket history depends on the record.
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
)
