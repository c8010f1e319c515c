package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	selectRefresh = "SELECT id, user_id, revoked, expires_at FROM refresh_tokens WHERE token=? LIMIT 1"
	updateRefresh = "UPDATE refresh_tokens SET revoked=1 WHERE id=? AND revoked=0"
)

func newRefreshRepoMock(t *testing.T) (*RefreshTokenRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewRefreshTokenRepo(db, 30), mock
}

func TestCreateInsertsRow(t *testing.T) {
	repo, mock := newRefreshRepoMock(t)

	mock.ExpectExec("INSERT INTO refresh_tokens (token, user_id, expires_at, revoked) VALUES (?,?,?,0)").
		WithArgs(sqlmock.AnyArg(), uint64(7), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	tok, err := repo.Create(context.Background(), 7)
	require.NoError(t, err)
	assert.NotEmpty(t, tok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedeemSuccess(t *testing.T) {
	repo, mock := newRefreshRepoMock(t)

	rows := sqlmock.NewRows([]string{"id", "user_id", "revoked", "expires_at"}).
		AddRow(3, 7, false, time.Now().UTC().Add(24*time.Hour))
	mock.ExpectQuery(selectRefresh).WithArgs("tok").WillReturnRows(rows)
	mock.ExpectExec(updateRefresh).WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	userID, err := repo.Redeem(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, uint64(7), userID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedeemNotFound(t *testing.T) {
	repo, mock := newRefreshRepoMock(t)

	mock.ExpectQuery(selectRefresh).WithArgs("missing").WillReturnError(sql.ErrNoRows)

	_, err := repo.Redeem(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrRefreshNotFound)
}

func TestRedeemAlreadyRevoked(t *testing.T) {
	repo, mock := newRefreshRepoMock(t)

	rows := sqlmock.NewRows([]string{"id", "user_id", "revoked", "expires_at"}).
		AddRow(3, 7, true, time.Now().UTC().Add(24*time.Hour))
	mock.ExpectQuery(selectRefresh).WithArgs("spent").WillReturnRows(rows)

	_, err := repo.Redeem(context.Background(), "spent")
	assert.ErrorIs(t, err, ErrRefreshRevoked)
}

func TestRedeemExpired(t *testing.T) {
	repo, mock := newRefreshRepoMock(t)

	rows := sqlmock.NewRows([]string{"id", "user_id", "revoked", "expires_at"}).
		AddRow(3, 7, false, time.Now().UTC().Add(-time.Hour))
	mock.ExpectQuery(selectRefresh).WithArgs("old").WillReturnRows(rows)

	_, err := repo.Redeem(context.Background(), "old")
	assert.ErrorIs(t, err, ErrRefreshExpired)
}

func TestRedeemLostRaceReportsRevoked(t *testing.T) {
	repo, mock := newRefreshRepoMock(t)

	// The row looked active, but another redeemer flipped it between the
	// read and the conditional update: zero affected rows.
	rows := sqlmock.NewRows([]string{"id", "user_id", "revoked", "expires_at"}).
		AddRow(3, 7, false, time.Now().UTC().Add(24*time.Hour))
	mock.ExpectQuery(selectRefresh).WithArgs("raced").WillReturnRows(rows)
	mock.ExpectExec(updateRefresh).WithArgs(uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := repo.Redeem(context.Background(), "raced")
	assert.ErrorIs(t, err, ErrRefreshRevoked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokeAllForUser(t *testing.T) {
	repo, mock := newRefreshRepoMock(t)

	mock.ExpectExec("UPDATE refresh_tokens SET revoked=1 WHERE user_id=? AND revoked=0").
		WithArgs(uint64(7)).WillReturnResult(sqlmock.NewResult(0, 4))

	require.NoError(t, repo.RevokeAllForUser(context.Background(), 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteExpired(t *testing.T) {
	repo, mock := newRefreshRepoMock(t)

	mock.ExpectExec("DELETE FROM refresh_tokens WHERE expires_at <= UTC_TIMESTAMP()").
		WillReturnResult(sqlmock.NewResult(0, 2))

	n, err := repo.DeleteExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
