package model

import "time"

// Provider tags describe how a user authenticates. Local users carry a
// bcrypt password hash; federated users are matched by email + provider
// and their stored password is a random value that is never exposed.
const (
	ProviderLocal  = "LOCAL"
	ProviderGoogle = "GOOGLE"
)

// Well-known role names. Roles are created by bootstrap, never by the
// service itself.
const (
	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"
)

// Role mirrors the 'roles' table.
type Role struct {
	ID   uint64
	Name string
}

// User mirrors the 'users' table plus its roles from the join table.
// Email and ProviderID are empty for local users.
type User struct {
	ID           uint64
	Username     string
	PasswordHash string
	Email        string
	Provider     string
	ProviderID   string
	Roles        []Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Principal is the identity surface request-level consumers depend on,
// so middleware and handlers do not need the concrete entity.
type Principal interface {
	GetUsername() string
	GetPasswordHash() string
	GetAuthorities() []string
	IsEnabled() bool
}

var _ Principal = (*User)(nil)

func (u *User) GetUsername() string     { return u.Username }
func (u *User) GetPasswordHash() string { return u.PasswordHash }

// GetAuthorities returns the role names granted to the user.
func (u *User) GetAuthorities() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

// IsEnabled reports whether the account may authenticate. There is no
// disabled flag in the schema yet, so every stored user is enabled.
func (u *User) IsEnabled() bool { return true }
