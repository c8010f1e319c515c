package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/auth-service/internal/config"
	"github.com/iliyamo/auth-service/internal/database"
	"github.com/iliyamo/auth-service/internal/handler"
	"github.com/iliyamo/auth-service/internal/middleware"
	"github.com/iliyamo/auth-service/internal/queue"
	"github.com/iliyamo/auth-service/internal/repository"
	"github.com/iliyamo/auth-service/internal/router"
	"github.com/iliyamo/auth-service/internal/service"
	"github.com/iliyamo/auth-service/internal/token"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connect failed: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		// the revocation store backs every authentication decision;
		// without it no token could ever be honored
		log.Fatal("redis connect failed")
	}
	defer rdb.Close()

	users := repository.NewUserRepo(db)
	roles := repository.NewRoleRepo(db)
	ledger := repository.NewRefreshTokenRepo(db, cfg.RefreshTTLDays)
	revocations := repository.NewRevocationRepo(rdb)
	issuer := token.NewIssuer(cfg.JWTSecret, time.Duration(cfg.AccessTTLMin)*time.Minute)

	auth := service.NewAuthService(service.AuthServiceConfig{
		Users:       users,
		Roles:       roles,
		Ledger:      ledger,
		Revocations: revocations,
		Issuer:      issuer,
		Google:      service.NewGoogleVerifier(cfg.GoogleClientID),
		Events:      queue.NewPublisher(),
		BcryptCost:  cfg.BcryptCost,
		Logger:      logger,
	})

	go func() {
		if err := queue.StartAuthEventConsumer(); err != nil {
			logger.Error("auth event consumer stopped", "error", err)
		}
	}()

	// spent refresh rows stay behind for auditing; expired ones are just
	// garbage and get swept periodically
	go func() {
		ticker := time.NewTicker(12 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			n, err := ledger.DeleteExpired(ctx)
			cancel()
			if err != nil {
				logger.Error("refresh token cleanup failed", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("expired refresh tokens removed", "count", n)
			}
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(auth), middleware.Authenticate(middleware.Gate{
		Issuer:      issuer,
		Revocations: revocations,
		Users:       users,
	}))

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
