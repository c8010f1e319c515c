// Package service implements the session orchestrator that coordinates
// the token issuer, the revocation store, the refresh token ledger and
// user lookup into signup, login, federated login, refresh and logout.
package service

import "errors"

// ErrInvalidCredentials is the uniform answer to any failed password
// login; it never reveals which factor failed.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrUsernameTaken is returned when a signup collides with an existing
// username, whether caught by the pre-check or by the store's unique key.
var ErrUsernameTaken = errors.New("username is already used")

// ErrIdentityVerification is returned when a federated assertion cannot
// be verified, for any reason.
var ErrIdentityVerification = errors.New("identity verification failed")

// Refresh errors are deliberately distinguished: the refresh endpoint is
// not a credential-guessing surface, and clients react differently to a
// spent token than to an expired one.
var (
	ErrRefreshTokenInvalid = errors.New("refresh token invalid")
	ErrRefreshTokenRevoked = errors.New("refresh token revoked")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)

// ValidationError reports malformed input: blank or out-of-range fields,
// an unknown role. Handlers surface it as a client error, distinct from
// conflicts and authentication failures.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func validationErr(msg string) error { return &ValidationError{msg: msg} }
