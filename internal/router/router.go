package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auth-service/internal/handler"
	"github.com/iliyamo/auth-service/internal/middleware"
	"github.com/iliyamo/auth-service/internal/model"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance. Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes. Session
// creation endpoints live under /v1/auth without middleware; protected
// endpoints run the authentication gate followed by RequireAuth, so an
// anonymous outcome becomes a 401 at the group boundary rather than
// inside the gate itself.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, gate echo.MiddlewareFunc) {
	g := e.Group("/v1/auth")
	g.POST("/signup", a.Signup)
	g.POST("/login", a.Login)
	g.POST("/google", a.GoogleLogin)
	g.POST("/refresh", a.Refresh)

	p := e.Group("/v1", gate, middleware.RequireAuth())
	p.POST("/auth/logout", a.Logout)
	p.GET("/me", a.Me)

	admin := p.Group("/admin", middleware.RequireRole(model.RoleAdmin))
	admin.GET("/ping", a.AdminPing)
}
