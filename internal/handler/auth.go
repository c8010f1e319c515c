package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auth-service/internal/middleware"
	"github.com/iliyamo/auth-service/internal/service"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Auth *service.AuthService
}

func NewAuthHandler(a *service.AuthService) *AuthHandler {
	return &AuthHandler{Auth: a}
}

// ----- DTOs -----

type signupReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}
type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
type googleLoginReq struct {
	IDToken string `json:"id_token"`
}
type refreshReq struct {
	RefreshToken string `json:"refresh_token"`
}

const requestTimeout = 5 * time.Second

// Signup: create a local user and return a session immediately.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	sess, err := h.Auth.Signup(ctx, strings.TrimSpace(req.Username), req.Password, strings.TrimSpace(req.Role))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusCreated, sess)
}

// Login: verify credentials and return a new session.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	sess, err := h.Auth.Login(ctx, strings.TrimSpace(req.Username), req.Password)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, sess)
}

// GoogleLogin: exchange a verified Google ID token for a session.
func (h *AuthHandler) GoogleLogin(c echo.Context) error {
	var req googleLoginReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.IDToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id_token required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	sess, err := h.Auth.LoginWithGoogle(ctx, strings.TrimSpace(req.IDToken))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, sess)
}

// Refresh: spend the one-time refresh token and return a new pair.
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	sess, err := h.Auth.Refresh(ctx, strings.TrimSpace(req.RefreshToken))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, sess)
}

// Logout: revoke the presented access token for the rest of its signed
// lifetime (protected; the gate already resolved the user).
func (h *AuthHandler) Logout(c echo.Context) error {
	user, _ := middleware.CurrentUser(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), requestTimeout)
	defer cancel()

	if err := h.Auth.Logout(ctx, user, middleware.AccessToken(c)); err != nil {
		return h.writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Me returns the authenticated user's profile (protected).
func (h *AuthHandler) Me(c echo.Context) error {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	return c.JSON(http.StatusOK, h.Auth.Me(user))
}

// AdminPing is a minimal admin-only endpoint used to verify role
// enforcement end to end.
func (h *AuthHandler) AdminPing(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

// writeError maps service errors onto the boundary taxonomy: validation
// 400, conflict 409, authentication 401, anything else 500.
func (h *AuthHandler) writeError(c echo.Context, err error) error {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": ve.Error()})
	case errors.Is(err, service.ErrUsernameTaken):
		return c.JSON(http.StatusConflict, echo.Map{"error": "username is already used"})
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	case errors.Is(err, service.ErrIdentityVerification):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "identity verification failed"})
	case errors.Is(err, service.ErrRefreshTokenInvalid):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "refresh token invalid"})
	case errors.Is(err, service.ErrRefreshTokenRevoked):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "refresh token revoked"})
	case errors.Is(err, service.ErrRefreshTokenExpired):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "refresh token expired"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "service unavailable"})
	}
}
