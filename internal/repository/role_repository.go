package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/auth-service/internal/model"
)

// RoleRepo provides read access to the roles table. Roles are seeded by
// bootstrap; this service only ever looks them up by name.
type RoleRepo struct{ DB *sql.DB }

func NewRoleRepo(db *sql.DB) *RoleRepo { return &RoleRepo{DB: db} }

// GetByName fetches a role by its exact name.
func (r *RoleRepo) GetByName(ctx context.Context, name string) (model.Role, error) {
	var role model.Role
	err := r.DB.QueryRowContext(ctx,
		"SELECT id, name FROM roles WHERE name=? LIMIT 1", name).Scan(&role.ID, &role.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Role{}, ErrRoleNotFound
		}
		return model.Role{}, err
	}
	return role, nil
}
