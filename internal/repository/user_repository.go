package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/auth-service/internal/model"
)

// UserRepo provides access to the users table and its roles join table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// ExistsByUsername reports whether a user with the given username exists.
func (r *UserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM users WHERE username=?)", username).Scan(&exists)
	return exists, err
}

// GetByUsername fetches a user and their roles by username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	return r.getBy(ctx,
		"SELECT id,username,password_hash,COALESCE(email,''),provider,COALESCE(provider_id,''),created_at,updated_at FROM users WHERE username=? LIMIT 1",
		username)
}

// GetByID fetches a user and their roles by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.getBy(ctx,
		"SELECT id,username,password_hash,COALESCE(email,''),provider,COALESCE(provider_id,''),created_at,updated_at FROM users WHERE id=? LIMIT 1",
		id)
}

// GetByEmailAndProvider fetches a federated user by their verified email
// and provider tag.
func (r *UserRepo) GetByEmailAndProvider(ctx context.Context, email, provider string) (model.User, error) {
	return r.getBy(ctx,
		"SELECT id,username,password_hash,COALESCE(email,''),provider,COALESCE(provider_id,''),created_at,updated_at FROM users WHERE email=? AND provider=? LIMIT 1",
		email, provider)
}

func (r *UserRepo) getBy(ctx context.Context, query string, args ...any) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx, query, args...).Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.Email, &u.Provider, &u.ProviderID,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, err
	}
	roles, err := r.rolesFor(ctx, u.ID)
	if err != nil {
		return model.User{}, err
	}
	u.Roles = roles
	return u, nil
}

// Create inserts the user and its role grants in one transaction and
// returns the stored user. Username uniqueness is enforced by the unique
// key; a duplicate surfaces as ErrUsernameExists regardless of any
// earlier existence check.
func (r *UserRepo) Create(ctx context.Context, u model.User) (model.User, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.User{}, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, email, provider, provider_id) VALUES (?,?,NULLIF(?,''),?,NULLIF(?,''))",
		u.Username, u.PasswordHash, u.Email, u.Provider, u.ProviderID)
	if err != nil {
		// MySQL duplicate key
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return model.User{}, ErrUsernameExists
		}
		return model.User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	u.ID = uint64(id)

	for _, role := range u.Roles {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO user_roles (user_id, role_id) VALUES (?,?)", u.ID, role.ID); err != nil {
			return model.User{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return model.User{}, err
	}
	return u, nil
}

func (r *UserRepo) rolesFor(ctx context.Context, userID uint64) ([]model.Role, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT r.id, r.name FROM roles r JOIN user_roles ur ON ur.role_id = r.id WHERE ur.user_id = ?",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roles []model.Role
	for rows.Next() {
		var role model.Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}
