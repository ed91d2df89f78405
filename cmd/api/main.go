// Package main is the entry point of the CodeQuest API server.
//
// Startup order matters: config, then Postgres (with migrations and seed
// data), then Redis, then the event wiring, and the HTTP server last so a
// half-wired process never accepts traffic.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codequest-edu/codequest-backend/config"
	"github.com/codequest-edu/codequest-backend/internal/application/command"
	"github.com/codequest-edu/codequest-backend/internal/application/eventhandler"
	"github.com/codequest-edu/codequest-backend/internal/application/query"
	"github.com/codequest-edu/codequest-backend/internal/application/saga"
	"github.com/codequest-edu/codequest-backend/internal/domain/shared"
	"github.com/codequest-edu/codequest-backend/internal/infrastructure/messaging"
	"github.com/codequest-edu/codequest-backend/internal/infrastructure/persistence/postgres"
	redisstore "github.com/codequest-edu/codequest-backend/internal/infrastructure/persistence/redis"
	httpapi "github.com/codequest-edu/codequest-backend/internal/interface/http"
	"github.com/codequest-edu/codequest-backend/pkg/circuitbreaker"
	"github.com/codequest-edu/codequest-backend/pkg/logger"
	"github.com/codequest-edu/codequest-backend/pkg/retry"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.Options{
		Output:    os.Stdout,
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		AddCaller: cfg.App.Debug,
	}).With(logger.String("app", cfg.App.Name), logger.String("service", "api"))

	log.Info("starting api server",
		logger.String("version", cfg.App.Version),
		logger.String("environment", string(cfg.App.Environment)),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Postgres ────────────────────────────────────────────────────────────

	conn, err := connectPostgres(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer conn.Close()

	if cfg.Database.AutoMigrate {
		if err := postgres.NewMigrator(conn).Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info("migrations applied")
	}
	if cfg.Database.SeedData {
		if err := postgres.Seed(ctx, conn); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		log.Info("seed data ensured")
	}

	userRepo := postgres.NewUserRepository(conn)
	lessonRepo := postgres.NewLessonRepository(conn)
	progressRepo := postgres.NewProgressRepository(conn)
	achievementRepo := postgres.NewAchievementRepository(conn)
	streakRepo := postgres.NewStreakRepository(conn)

	// ── Redis ───────────────────────────────────────────────────────────────

	cache, err := connectRedis(cfg)
	if err != nil {
		return err
	}
	defer cache.Close()

	leaderboardCache := redisstore.NewLeaderboardCache(cache)
	sessions := redisstore.NewSessionStore(cache, cfg.Auth.SessionTTL)

	// ── Events ──────────────────────────────────────────────────────────────

	bus, err := messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
		Client:         cache.Client(),
		LocalBusConfig: messaging.DefaultInMemoryEventBusConfig(),
		Logger:         log,
	})
	if err != nil {
		return fmt.Errorf("event bus: %w", err)
	}
	defer bus.Close()

	flow := saga.NewAchievementFlow(achievementRepo, progressRepo, bus, log)

	dispatcher := messaging.NewDispatcher(messaging.DispatcherConfig{
		Bus:         bus,
		RetryConfig: messaging.DefaultRetryConfig(),
		Logger:      log,
	})
	if err := dispatcher.Register(
		shared.EventXPGained,
		eventhandler.NewOnXPGained(userRepo, leaderboardCache, log),
	); err != nil {
		return fmt.Errorf("register event handler: %w", err)
	}

	// ── Application handlers ────────────────────────────────────────────────

	breaker := circuitbreaker.New(circuitbreaker.Config{
		Name:                "leaderboard-cache",
		FailureThreshold:    cfg.Leaderboard.CircuitBreakerThreshold,
		Timeout:             cfg.Leaderboard.CircuitBreakerTimeout,
		MaxHalfOpenRequests: cfg.Leaderboard.CircuitBreakerHalfOpenMax,
	})

	deps := httpapi.Dependencies{
		RegisterUserHandler:   command.NewRegisterUserHandler(userRepo, bus, cfg.Auth.MinPasswordLength, log),
		LoginHandler:          command.NewLoginHandler(userRepo, sessions, log),
		LogoutHandler:         command.NewLogoutHandler(sessions),
		RecordProgressHandler: command.NewRecordProgressHandler(progressRepo, streakRepo, flow, bus, log),
		ManageLessonsHandler:  command.NewManageLessonsHandler(lessonRepo, log),

		GetProgressHandler:       query.NewGetProgressHandler(progressRepo, lessonRepo),
		GetLessonProgressHandler: query.NewGetLessonProgressHandler(progressRepo, lessonRepo),
		GetSummaryHandler:        query.NewGetSummaryHandler(userRepo, progressRepo, achievementRepo, streakRepo),
		GetLeaderboardHandler: query.NewGetLeaderboardHandler(userRepo, leaderboardCache, breaker,
			query.GetLeaderboardHandlerConfig{
				DefaultPageSize: cfg.Leaderboard.DefaultPageSize,
				MaxPageSize:     cfg.Leaderboard.MaxPageSize,
			}, log),
		GetRankHandler:         query.NewGetRankHandler(userRepo, leaderboardCache, breaker),
		GetAchievementsHandler: query.NewGetAchievementsHandler(achievementRepo),

		UserRepo:   userRepo,
		LessonRepo: lessonRepo,

		Sessions:      sessions,
		HealthChecker: &storeHealth{conn: conn, cache: cache},
		Logger:        log,
	}

	// ── HTTP server ─────────────────────────────────────────────────────────

	server := httpapi.NewServer(httpapi.Config{
		Host:               cfg.HTTP.Host,
		Port:               cfg.HTTP.Port,
		ReadTimeout:        cfg.HTTP.ReadTimeout,
		WriteTimeout:       cfg.HTTP.WriteTimeout,
		IdleTimeout:        cfg.HTTP.IdleTimeout,
		MaxBodyBytes:       cfg.HTTP.MaxBodyBytes,
		EnableCORS:         true,
		AllowedOrigins:     cfg.HTTP.AllowedOrigins,
		RateLimitPerMinute: cfg.HTTP.RateLimit,
	}, deps)

	errCh := server.StartAsync()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	log.Info("stopped cleanly")
	return nil
}

// connectPostgres dials the database with retries so the API survives a
// database that comes up a few seconds later (compose, k8s rollouts).
func connectPostgres(ctx context.Context, cfg *config.Config, log *logger.Logger) (*postgres.Connection, error) {
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not configured")
	}

	var conn *postgres.Connection
	err := retry.Do(ctx, func(ctx context.Context) error {
		var dialErr error
		conn, dialErr = postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
		return dialErr
	},
		retry.WithMaxAttempts(5),
		retry.WithInitialDelay(time.Second),
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			log.Warn("postgres not ready, retrying",
				logger.Int("attempt", attempt),
				logger.Duration("delay", delay),
				logger.Err(err),
			)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	log.Info("postgres connected")
	return conn, nil
}

// connectRedis dials Redis. Sessions and the leaderboard cache live there,
// so the API refuses to start without it.
func connectRedis(cfg *config.Config) (*redisstore.Cache, error) {
	if cfg.Redis.Disabled {
		return nil, fmt.Errorf("redis is disabled but required for sessions")
	}

	if cfg.Redis.URL != "" {
		cache, err := redisstore.NewCacheFromURL(cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		return cache, nil
	}

	cache, err := redisstore.NewCache(redisstore.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return cache, nil
}

// storeHealth reports Postgres and Redis health for the readiness probe.
type storeHealth struct {
	conn  *postgres.Connection
	cache *redisstore.Cache
}

func (h *storeHealth) CheckHealth(ctx context.Context) map[string]error {
	return map[string]error{
		"postgres": h.conn.Ping(ctx),
		"redis":    h.cache.Ping(ctx),
	}
}
