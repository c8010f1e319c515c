package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/iliyamo/auth-service/internal/model"
	"github.com/iliyamo/auth-service/internal/queue"
	"github.com/iliyamo/auth-service/internal/repository"
	"github.com/iliyamo/auth-service/internal/token"
	"github.com/iliyamo/auth-service/internal/utils"
)

// UserStore is the credential-store capability the orchestrator needs.
type UserStore interface {
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	GetByUsername(ctx context.Context, username string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	GetByEmailAndProvider(ctx context.Context, email, provider string) (model.User, error)
	Create(ctx context.Context, u model.User) (model.User, error)
}

// RoleStore looks up roles by name; roles are never created here.
type RoleStore interface {
	GetByName(ctx context.Context, name string) (model.Role, error)
}

// RefreshLedger is the durable one-time-use refresh token ledger.
type RefreshLedger interface {
	Create(ctx context.Context, userID uint64) (string, error)
	Redeem(ctx context.Context, tokenStr string) (uint64, error)
}

// RevocationStore covers the writes the orchestrator performs against
// the allow/deny namespaces. Reads belong to the request gate.
type RevocationStore interface {
	AllowAdd(ctx context.Context, tokenStr, owner string, ttl time.Duration) error
	AllowRemove(ctx context.Context, tokenStr string) error
	DenyAdd(ctx context.Context, tokenStr string, ttl time.Duration) error
}

// IdentityVerifier resolves a federated provider assertion to a verified
// identity.
type IdentityVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (GoogleUserInfo, error)
}

// EventPublisher delivers auth events to the broker, best effort.
type EventPublisher interface {
	PublishAuthEvent(ctx context.Context, event queue.AuthEvent) error
}

// Session is the AuthResponse shape returned by every successful auth
// operation.
type Session struct {
	TokenType    string `json:"token_type"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Username     string `json:"username"`
}

// Profile is the "who am I" projection.
type Profile struct {
	ID       uint64   `json:"id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// AuthServiceConfig bundles the orchestrator dependencies.
type AuthServiceConfig struct {
	Users       UserStore
	Roles       RoleStore
	Ledger      RefreshLedger
	Revocations RevocationStore
	Issuer      *token.Issuer
	Google      IdentityVerifier
	Events      EventPublisher // optional; nil disables event publishing
	BcryptCost  int
	Logger      *slog.Logger // optional; defaults to slog.Default()
}

// AuthService coordinates the token issuer, revocation store, ledger and
// user lookup so that each auth operation appears atomic to its caller.
type AuthService struct {
	users       UserStore
	roles       RoleStore
	ledger      RefreshLedger
	revocations RevocationStore
	issuer      *token.Issuer
	google      IdentityVerifier
	events      EventPublisher
	bcryptCost  int
	log         *slog.Logger
}

func NewAuthService(cfg AuthServiceConfig) *AuthService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		users:       cfg.Users,
		roles:       cfg.Roles,
		ledger:      cfg.Ledger,
		revocations: cfg.Revocations,
		issuer:      cfg.Issuer,
		google:      cfg.Google,
		events:      cfg.Events,
		bcryptCost:  cfg.BcryptCost,
		log:         logger,
	}
}

// Signup validates the input, persists a new local user with the named
// role and establishes a session. The pre-insert existence check is a
// fast path; the store's unique key is the authoritative guard against
// concurrent signups with the same username.
func (s *AuthService) Signup(ctx context.Context, username, password, roleName string) (Session, error) {
	if username == "" {
		return Session{}, validationErr("username must not be blank")
	}
	if len(username) < 3 || len(username) > 100 {
		return Session{}, validationErr("username must be between 3 and 100 characters")
	}
	if password == "" {
		return Session{}, validationErr("password must not be blank")
	}
	if len(password) < 8 {
		return Session{}, validationErr("password must be at least 8 characters")
	}
	if roleName == "" {
		return Session{}, validationErr("role must not be blank")
	}

	taken, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return Session{}, err
	}
	if taken {
		s.log.Warn("signup failed, username already used", "username", username)
		return Session{}, ErrUsernameTaken
	}

	role, err := s.roles.GetByName(ctx, roleName)
	if err != nil {
		if errors.Is(err, repository.ErrRoleNotFound) {
			return Session{}, validationErr(roleName + " not found")
		}
		return Session{}, err
	}

	hash, err := utils.HashPassword(password, s.bcryptCost)
	if err != nil {
		return Session{}, err
	}

	user, err := s.users.Create(ctx, model.User{
		Username:     username,
		PasswordHash: hash,
		Provider:     model.ProviderLocal,
		Roles:        []model.Role{role},
	})
	if err != nil {
		// a concurrent signup may slip past the pre-check; the unique
		// key reports it here
		if errors.Is(err, repository.ErrUsernameExists) {
			return Session{}, ErrUsernameTaken
		}
		return Session{}, err
	}

	s.log.Info("signup success, new user created", "username", user.Username)
	return s.establishSession(ctx, &user)
}

// Login verifies the password against the stored hash and establishes a
// session. Every failure is the uniform ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (Session, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if !utils.VerifyPassword(user.GetPasswordHash(), password) || !user.IsEnabled() {
		return Session{}, ErrInvalidCredentials
	}

	s.log.Info("login success", "username", user.Username)
	return s.establishSession(ctx, &user)
}

// LoginWithGoogle verifies the Google ID token, finds or creates the
// federated user and establishes a session. A created user gets
// username = email, the default user role and a random strong password
// that is never exposed and never usable for a local login.
func (s *AuthService) LoginWithGoogle(ctx context.Context, idToken string) (Session, error) {
	info, err := s.google.VerifyIDToken(ctx, idToken)
	if err != nil {
		return Session{}, err
	}

	user, err := s.users.GetByEmailAndProvider(ctx, info.Email, model.ProviderGoogle)
	if err != nil {
		if !errors.Is(err, repository.ErrUserNotFound) {
			return Session{}, err
		}
		user, err = s.createGoogleUser(ctx, info)
		if err != nil {
			return Session{}, err
		}
	}

	s.log.Info("google login success", "username", user.Username)
	return s.establishSession(ctx, &user)
}

func (s *AuthService) createGoogleUser(ctx context.Context, info GoogleUserInfo) (model.User, error) {
	random, err := utils.RandomPassword(16)
	if err != nil {
		return model.User{}, err
	}
	hash, err := utils.HashPassword(random, s.bcryptCost)
	if err != nil {
		return model.User{}, err
	}
	role, err := s.roles.GetByName(ctx, model.RoleUser)
	if err != nil {
		return model.User{}, err
	}
	return s.users.Create(ctx, model.User{
		Username:     info.Email,
		PasswordHash: hash,
		Email:        info.Email,
		Provider:     model.ProviderGoogle,
		ProviderID:   info.SubjectID,
		Roles:        []model.Role{role},
	})
}

// Refresh redeems the one-time refresh token and establishes a fresh
// session. The old token is permanently spent whether or not the rest of
// the operation succeeds.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	userID, err := s.ledger.Redeem(ctx, refreshToken)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRefreshNotFound):
			return Session{}, ErrRefreshTokenInvalid
		case errors.Is(err, repository.ErrRefreshRevoked):
			return Session{}, ErrRefreshTokenRevoked
		case errors.Is(err, repository.ErrRefreshExpired):
			return Session{}, ErrRefreshTokenExpired
		}
		return Session{}, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return Session{}, err
	}

	s.log.Info("refresh token success", "username", user.Username)
	return s.establishSession(ctx, &user)
}

// Logout revokes the access token for the remainder of its signed
// lifetime: the allow entry is removed and a deny entry takes its place.
// The two writes are independent; a request racing between them sees
// neither entry and is denied at the gate anyway.
func (s *AuthService) Logout(ctx context.Context, user model.Principal, accessToken string) error {
	if accessToken == "" {
		s.log.Warn("logout called with empty token", "username", usernameOf(user))
		return nil
	}

	expiresAt, err := s.issuer.Expiry(accessToken)
	if err != nil {
		return err
	}
	remaining := time.Until(expiresAt)
	if remaining <= 0 {
		s.log.Info("logout called with already expired token", "username", usernameOf(user))
		return nil
	}

	if err := s.revocations.AllowRemove(ctx, accessToken); err != nil {
		return err
	}
	if err := s.revocations.DenyAdd(ctx, accessToken, remaining); err != nil {
		return err
	}

	s.publish(ctx, queue.EventSessionRevoked, user.GetUsername(), "")
	s.log.Info("logout success, access token revoked", "username", user.GetUsername())
	return nil
}

// Me is a pure projection of the already-resolved user.
func (s *AuthService) Me(user *model.User) Profile {
	return Profile{
		ID:       user.ID,
		Username: user.Username,
		Roles:    user.GetAuthorities(),
	}
}

// establishSession is the shared tail of every successful auth
// operation: issue an access token, create a refresh token, and track
// the access token in the allow namespace for its configured lifetime.
func (s *AuthService) establishSession(ctx context.Context, user *model.User) (Session, error) {
	accessToken, _, err := s.issuer.Issue(user.Username, user.GetAuthorities())
	if err != nil {
		return Session{}, err
	}
	refreshToken, err := s.ledger.Create(ctx, user.ID)
	if err != nil {
		return Session{}, err
	}
	if err := s.revocations.AllowAdd(ctx, accessToken, user.Username, s.issuer.TTL()); err != nil {
		return Session{}, err
	}

	s.publish(ctx, queue.EventSessionEstablished, user.Username, user.Provider)
	return Session{
		TokenType:    "Bearer",
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Username:     user.Username,
	}, nil
}

func (s *AuthService) publish(ctx context.Context, eventType, username, provider string) {
	if s.events == nil {
		return
	}
	// best effort; the publisher logs its own failures
	_ = s.events.PublishAuthEvent(ctx, queue.AuthEvent{
		Type:       eventType,
		Username:   username,
		Provider:   provider,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
	})
}

func usernameOf(p model.Principal) string {
	if p == nil {
		return "unknown"
	}
	return p.GetUsername()
}
