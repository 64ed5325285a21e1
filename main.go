package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/msomdec/gatekeeper/internal/config"
	"github.com/msomdec/gatekeeper/internal/handler"
	"github.com/msomdec/gatekeeper/internal/repository"
	"github.com/msomdec/gatekeeper/internal/service"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logOpts := &slog.HandlerOptions{Level: cfg.LogLevel}
	logger := slog.New(slog.NewMultiHandler(
		slog.NewTextHandler(os.Stdout, logOpts),
		slog.NewJSONHandler(os.Stderr, logOpts),
	))
	slog.SetDefault(logger)

	if cfg.UsingDevSecret {
		slog.Warn("JWT_SECRET not set; signing tokens with the development secret")
	}

	store, err := repository.Open(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to open user store", "driver", cfg.StoreDriver, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	creds := service.NewCredentialStore(store.Users, cfg.BcryptCost)
	tokens := service.NewTokenService([]byte(cfg.JWTSecret), config.TokenTTL)
	authService := service.NewAuthService(creds, tokens, cfg.AllowAdminSignup)
	accountService := service.NewAccountService(creds)

	// Seed the configured admin (idempotent).
	if cfg.AdminEmail != "" {
		created, err := authService.SeedAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPassword)
		if err != nil {
			slog.Error("failed to seed admin", "error", err)
			os.Exit(1)
		}
		if !created {
			slog.Info("admin email already registered; seed skipped")
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.NewRouter(authService, accountService),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server starting", "addr", srv.Addr, "env", cfg.Env, "store", store.Driver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
