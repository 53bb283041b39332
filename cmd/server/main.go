package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/WilsonKusmayady/mini-POS-sub000/internal/cache"
	"github.com/WilsonKusmayady/mini-POS-sub000/internal/config"
	"github.com/WilsonKusmayady/mini-POS-sub000/internal/domain"
	"github.com/WilsonKusmayady/mini-POS-sub000/internal/events"
	"github.com/WilsonKusmayady/mini-POS-sub000/internal/httpapi"
	"github.com/WilsonKusmayady/mini-POS-sub000/internal/observability"
	"github.com/WilsonKusmayady/mini-POS-sub000/internal/service"
	"github.com/WilsonKusmayady/mini-POS-sub000/internal/store"
	"github.com/WilsonKusmayady/mini-POS-sub000/internal/store/memory"
	pgstore "github.com/WilsonKusmayady/mini-POS-sub000/internal/store/postgres"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger := observability.NewLogger(cfg.LogLevel, cfg.ServiceName)
	var otelShutdown observability.ShutdownFunc
	if cfg.OtelEndpoint != "" {
		shutdown, err := observability.Setup(ctx, cfg.OtelEndpoint, cfg.ServiceName)
		if err != nil {
			logger.Warn("opentelemetry setup failed, exporting disabled", zap.Error(err))
		} else {
			otelShutdown = shutdown
			logger = observability.NewOTelLogger(cfg.LogLevel, cfg.ServiceName)
			logger.Info("telemetry: otlp", zap.String("endpoint", cfg.OtelEndpoint))
		}
	}
	defer func() { _ = logger.Sync() }()

	if err := validateSecurityConfig(cfg); err != nil {
		logger.Fatal("invalid security configuration", zap.Error(err))
	}
	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal("invalid BUSINESS_TIMEZONE", zap.String("timezone", cfg.BusinessTimezone), zap.Error(err))
	}

	var repo store.Repository
	closers := make([]func() error, 0, 3)

	if cfg.DatabaseURL != "" {
		pg, err := pgstore.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("postgres unavailable and DATABASE_URL is set; refusing to start with in-memory fallback", zap.Error(err))
		}
		if cfg.AutoMigrate {
			if err := pg.Migrate(ctx); err != nil {
				logger.Fatal("apply migrations failed", zap.Error(err))
			}
		}
		if err := ensureAdmin(ctx, pg, cfg.SeedAdminPassword); err != nil {
			logger.Fatal("bootstrap admin account failed", zap.Error(err))
		}
		repo = pg
		closers = append(closers, pg.Close)
		logger.Info("repository: postgres")
	} else {
		repo = memory.NewSeeded(cfg.SeedAdminPassword, cfg.SeedCashierPassword)
		logger.Info("repository: in-memory")
	}

	memberCache := cache.MemberCache(cache.NoopMemberCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisMemberCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			logger.Warn("redis unavailable, using noop member cache", zap.Error(err))
			_ = redisCache.Close()
		} else {
			memberCache = redisCache
			closers = append(closers, redisCache.Close)
			logger.Info("cache: redis", zap.String("addr", cfg.RedisAddr))
		}
	} else {
		logger.Info("cache: noop")
	}

	publisher := events.Publisher(events.NoopPublisher{})
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		publisher = kafkaPublisher
		closers = append(closers, kafkaPublisher.Close)
		logger.Info("events: kafka", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.KafkaTopic))
	} else {
		logger.Info("events: noop")
	}

	svc := service.New(repo, memberCache, publisher, logger,
		service.WithLocation(loc),
		service.WithMemberCacheTTL(time.Duration(cfg.MemberCacheTTLSeconds)*time.Second),
	)
	auth := httpapi.NewAuthManager(cfg.AuthSecret, time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute, repo)
	api := httpapi.New(svc, auth, cfg.AllowedOrigin, logger)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("mini POS backend listening", zap.String("addr", cfg.Address()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", zap.Error(err))
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.Warn("close error", zap.Error(err))
		}
	}
	if otelShutdown != nil {
		if err := otelShutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown error", zap.Error(err))
		}
	}

	logger.Info("server stopped")
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	if cfg.DatabaseURL != "" && cfg.SeedAdminPassword != "" && len(cfg.SeedAdminPassword) < 8 {
		return fmt.Errorf("SEED_ADMIN_PASSWORD must be at least 8 characters")
	}
	return nil
}

type userRepository interface {
	GetUser(ctx context.Context, username string) (*domain.UserAccount, error)
	CreateUser(ctx context.Context, user domain.UserAccount) error
}

// ensureAdmin creates the admin account on an empty database. An existing
// admin is never touched, and nothing happens without a seed password.
func ensureAdmin(ctx context.Context, users userRepository, password string) error {
	if password == "" {
		return nil
	}
	_, err := users.GetUser(ctx, "admin")
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	hash, err := httpapi.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	err = users.CreateUser(ctx, domain.UserAccount{
		Username:  "admin",
		Password:  hash,
		Role:      domain.RoleAdmin,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	})
	if errors.Is(err, store.ErrConflict) {
		return nil
	}
	return err
}
