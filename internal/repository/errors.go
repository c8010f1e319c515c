// Package repository provides data access for users, roles, the refresh
// token ledger and the Redis-backed revocation store. Sentinel errors
// defined here let the service layer distinguish failure scenarios
// without inspecting driver errors.
package repository

import "errors"

// ErrUserNotFound is returned when no user matches the lookup.
var ErrUserNotFound = errors.New("user not found")

// ErrRoleNotFound is returned when a role name is unknown.
var ErrRoleNotFound = errors.New("role not found")

// ErrUsernameExists is returned when an insert collides with the unique
// username key. The pre-insert existence check in the service layer is
// advisory only; this error is the authoritative signal.
var ErrUsernameExists = errors.New("username already exists")

// Refresh ledger outcomes. A token fails with exactly one of these: it
// was never issued, it was already spent or invalidated, or it lived past
// its expiry instant.
var (
	ErrRefreshNotFound = errors.New("refresh token not found")
	ErrRefreshRevoked  = errors.New("refresh token is revoked")
	ErrRefreshExpired  = errors.New("refresh token is expired")
)
