package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"shikshaleap/internal/config"
	"shikshaleap/internal/database"
	"shikshaleap/internal/handlers"
	"shikshaleap/internal/logger"
	"shikshaleap/internal/security"
	"shikshaleap/internal/service"
)

const (
	lockKeyPrefix = "shikshaleap:otp-lock:"
	lockTTL       = 30 * time.Second
)

func main() {
	// Load configuration
	cfg := config.Load()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatal("failed to initialize database", "error", err)
	}
	defer db.Close()

	log.Info("database connection established", "type", cfg.DatabaseType)

	applied, err := db.RunMigrations(ctx)
	if err != nil {
		log.Fatal("failed to run migrations", "error", err)
	}
	log.Info("migrations completed", "applied", applied)

	sessionSecret, generated, err := cfg.SessionSigningSecret()
	if err != nil {
		log.Fatal("invalid session configuration", "error", err)
	}
	if generated {
		log.Warn("SESSION_SECRET not set, using a random key; sessions end when the process restarts")
	}

	locker := newLocker(ctx, cfg, log)

	emailService, err := service.NewEmailService(ctx, cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.Debug, log)
	if err != nil {
		log.Fatal("failed to initialize email service", "error", err)
	}
	delivery := service.NewDeliveryRouter(emailService, service.NewConsoleDelivery(log))

	// Initialize services
	authService := service.NewAuthService(db, delivery, locker, service.AuthOptions{
		OTPTTL:     cfg.OTPTTL,
		SendLimit:  cfg.OTPSendLimit,
		SendWindow: cfg.OTPSendWindow,
	}, log)

	limiter := security.NewRateLimiter(cfg.RateLimit, cfg.RateLimitWindow)
	defer limiter.Stop()

	router := handlers.NewRouter(handlers.Services{
		Auth:         authService,
		Registration: service.NewRegistrationService(db),
		Performance:  service.NewPerformanceService(db, log),
		Dashboard:    service.NewDashboardService(db),
		Schools:      service.NewSchoolService(db),
		Sessions:     security.NewSessionManager(sessionSecret, cfg.SessionIssuer, cfg.SessionDuration),
		Limiter:      limiter,
	}, log)

	addr := ":" + cfg.ServerPort
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go pruneExpiredOTPs(ctx, authService, cfg.OTPRetention, log)

	go func() {
		log.Info("server starting", "addr", "http://localhost"+addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	log.Info("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}

// newLocker serializes OTP verification across instances through Redis when
// REDIS_ADDR is set, and within this process otherwise.
func newLocker(ctx context.Context, cfg *config.Config, log *logger.Logger) security.Locker {
	if cfg.RedisAddr == "" {
		return security.NewKeyedMutex()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Fatal("failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
	}

	log.Info("using redis for OTP verification locks", "addr", cfg.RedisAddr)
	return security.NewRedisLocker(client, lockKeyPrefix, lockTTL)
}

// pruneExpiredOTPs periodically removes codes past their retention
func pruneExpiredOTPs(ctx context.Context, authService *service.AuthService, retention time.Duration, log *logger.Logger) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := authService.PruneOTPs(ctx, retention); err != nil {
				log.Error("error pruning expired OTPs", "error", err)
			}
		}
	}
}
