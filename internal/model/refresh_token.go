package model

import "time"

// RefreshToken mirrors the 'refresh_tokens' table. The Token column holds
// the opaque random string handed to the client. A row flips active ->
// revoked exactly once, when it is redeemed or explicitly invalidated, and
// is never reused afterwards.
type RefreshToken struct {
	ID        uint64
	Token     string
	UserID    uint64
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
}
