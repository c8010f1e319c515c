package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// RefreshTokenRepo is the durable ledger of one-time-use refresh tokens.
// A row is spent exactly once: Redeem flips revoked 0 -> 1 with a single
// conditional UPDATE, so concurrent redemptions of the same token cannot
// both succeed.
type RefreshTokenRepo struct {
	DB      *sql.DB
	ttlDays int
}

func NewRefreshTokenRepo(db *sql.DB, ttlDays int) *RefreshTokenRepo {
	return &RefreshTokenRepo{DB: db, ttlDays: ttlDays}
}

// Create persists a fresh token for the user and returns the opaque
// string handed to the client.
func (r *RefreshTokenRepo) Create(ctx context.Context, userID uint64) (string, error) {
	tok := uuid.NewString()
	expires := time.Now().UTC().AddDate(0, 0, r.ttlDays)
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO refresh_tokens (token, user_id, expires_at, revoked) VALUES (?,?,?,0)",
		tok, userID, expires)
	if err != nil {
		return "", err
	}
	return tok, nil
}

// Redeem looks up the token, classifies it, and marks it revoked. The
// check distinguishes ErrRefreshNotFound, ErrRefreshRevoked and
// ErrRefreshExpired. The revocation itself is the conditional UPDATE;
// when two callers race, the one whose UPDATE touches zero rows lost and
// observes ErrRefreshRevoked.
func (r *RefreshTokenRepo) Redeem(ctx context.Context, token string) (uint64, error) {
	var (
		id      uint64
		userID  uint64
		revoked bool
		expires time.Time
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, user_id, revoked, expires_at FROM refresh_tokens WHERE token=? LIMIT 1",
		token).Scan(&id, &userID, &revoked, &expires)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrRefreshNotFound
		}
		return 0, err
	}
	if revoked {
		return 0, ErrRefreshRevoked
	}
	if expires.Before(time.Now().UTC()) {
		return 0, ErrRefreshExpired
	}

	res, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked=1 WHERE id=? AND revoked=0", id)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		// a concurrent redeemer won the row
		return 0, ErrRefreshRevoked
	}
	return userID, nil
}

// RevokeAllForUser invalidates every active token of a user, e.g. for an
// account-wide sign-out.
func (r *RefreshTokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked=1 WHERE user_id=? AND revoked=0", userID)
	return err
}

// DeleteExpired removes rows past their expiry instant and returns how
// many were deleted. Intended for periodic maintenance.
func (r *RefreshTokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := r.DB.ExecContext(ctx,
		"DELETE FROM refresh_tokens WHERE expires_at <= UTC_TIMESTAMP()")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
