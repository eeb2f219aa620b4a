package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/purrfectmatch/api/internal/handler"
	"github.com/purrfectmatch/api/internal/repository/sqlite"
	"github.com/purrfectmatch/api/internal/service"
)

func main() {
	// Load .env if present; real deployments set env vars directly.
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	port := envOrDefault("PORT", "8080")
	dbPath := envOrDefault("DATABASE_PATH", "purrfectmatch.db")
	baseURL := envOrDefault("BASE_URL", "http://localhost:"+port)
	frontendURL := envOrDefault("FRONTEND_URL", "http://localhost:3000")
	defaultAvatarURL := os.Getenv("DEFAULT_AVATAR_URL")

	tokenCfg := service.TokenConfig{
		AccessSecret:       requireSecret("JWT_ACCESS_SECRET"),
		RefreshSecret:      requireSecret("JWT_REFRESH_SECRET"),
		VerificationSecret: requireSecret("JWT_VERIFICATION_SECRET"),
	}

	bcryptCost := 12
	if v := os.Getenv("BCRYPT_COST"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			slog.Error("invalid BCRYPT_COST", "error", err)
			os.Exit(1)
		}
		if parsed < 4 || parsed > 14 {
			slog.Error("BCRYPT_COST must be between 4 and 14", "value", parsed)
			os.Exit(1)
		}
		bcryptCost = parsed
	}

	smtpCfg := service.SMTPConfig{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     envOrDefault("SMTP_PORT", "465"),
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     os.Getenv("SMTP_FROM"),
	}
	if smtpCfg.Host == "" {
		slog.Error("SMTP_HOST environment variable is required")
		os.Exit(1)
	}

	db, err := sqlite.New(dbPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(context.Background()); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database migrations applied")

	tokenService := service.NewTokenService(tokenCfg)
	fileService := service.NewFileService(db.FileStore())
	authService := service.NewAuthService(db.Users(), tokenService, fileService, bcryptCost, defaultAvatarURL)
	notifier := service.NewSMTPNotifier(smtpCfg)
	verificationService := service.NewVerificationService(db.Users(), tokenService, notifier, baseURL, frontendURL, bcryptCost)
	noticeService := service.NewNoticeService(db.Notices(), db.Users(), fileService)
	petService := service.NewPetService(db.Pets(), fileService)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, authService, verificationService, noticeService, petService, fileService, frontendURL)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("server starting", "addr", srv.Addr)
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

func requireSecret(key string) string {
	secret := os.Getenv(key)
	if secret == "" {
		slog.Error("environment variable is required", "name", key)
		os.Exit(1)
	}
	if len(secret) < 32 {
		slog.Error("secret must be at least 32 characters for HMAC-SHA256 security", "name", key)
		os.Exit(1)
	}
	return secret
}

func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
