// Package main is the entry point of the CodeQuest background worker.
//
// The worker owns the scheduled jobs (leaderboard rebuild, inactivity
// detection, streak sweep) and subscribes to the shared event channel so
// achievement evaluation also happens for events published by other
// instances.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codequest-edu/codequest-backend/config"
	"github.com/codequest-edu/codequest-backend/internal/application/eventhandler"
	"github.com/codequest-edu/codequest-backend/internal/application/saga"
	"github.com/codequest-edu/codequest-backend/internal/domain/shared"
	"github.com/codequest-edu/codequest-backend/internal/infrastructure/messaging"
	"github.com/codequest-edu/codequest-backend/internal/infrastructure/persistence/postgres"
	redisstore "github.com/codequest-edu/codequest-backend/internal/infrastructure/persistence/redis"
	"github.com/codequest-edu/codequest-backend/internal/infrastructure/scheduler"
	"github.com/codequest-edu/codequest-backend/internal/infrastructure/scheduler/jobs"
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
		Output: os.Stdout,
		Level:  logger.ParseLevel(cfg.Observability.LogLevel),
	}).With(logger.String("app", cfg.App.Name), logger.String("service", "worker"))

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With(
		"app", cfg.App.Name,
		"service", "worker",
	)

	log.Info("starting worker",
		logger.String("version", cfg.App.Version),
		logger.String("environment", string(cfg.App.Environment)),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Stores ──────────────────────────────────────────────────────────────

	if cfg.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is not configured")
	}

	var conn *postgres.Connection
	err = retry.Do(ctx, func(ctx context.Context) error {
		var dialErr error
		conn, dialErr = postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
		return dialErr
	}, retry.WithMaxAttempts(5), retry.WithInitialDelay(time.Second))
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer conn.Close()

	if cfg.Redis.Disabled {
		return fmt.Errorf("redis is disabled but required for the leaderboard cache")
	}
	var cache *redisstore.Cache
	if cfg.Redis.URL != "" {
		cache, err = redisstore.NewCacheFromURL(cfg.Redis.URL)
	} else {
		cache, err = redisstore.NewCache(redisstore.Config{
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
	}
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	defer cache.Close()

	userRepo := postgres.NewUserRepository(conn)
	progressRepo := postgres.NewProgressRepository(conn)
	achievementRepo := postgres.NewAchievementRepository(conn)
	streakRepo := postgres.NewStreakRepository(conn)
	leaderboardCache := redisstore.NewLeaderboardCache(cache)

	// ── Events ──────────────────────────────────────────────────────────────
	// The worker subscribes to the shared channel: achievement evaluation
	// for remotely published completions is idempotent, so a second pass
	// here is safe and covers API instances that crashed mid-evaluation.

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
		shared.EventLessonCompleted,
		eventhandler.NewOnLessonCompleted(flow, log),
	); err != nil {
		return fmt.Errorf("register event handler: %w", err)
	}
	if err := dispatcher.Register(
		shared.EventXPGained,
		eventhandler.NewOnXPGained(userRepo, leaderboardCache, log),
	); err != nil {
		return fmt.Errorf("register event handler: %w", err)
	}

	// ── Scheduler ───────────────────────────────────────────────────────────

	if !cfg.Scheduler.Enabled {
		log.Warn("scheduler disabled, worker will only process events")
		<-ctx.Done()
		return nil
	}

	sched := scheduler.New(scheduler.Config{
		Logger:   slogger,
		Timezone: cfg.App.Location,
	})

	rebuildJob := jobs.NewRebuildLeaderboardJob(
		userRepo, leaderboardCache, bus, slogger,
		jobs.DefaultRebuildLeaderboardConfig(),
	)
	if err := sched.Register(rebuildJob, scheduler.NewIntervalSchedule(cfg.Scheduler.RebuildLeaderboardInterval)); err != nil {
		return fmt.Errorf("register job: %w", err)
	}

	inactiveJob := jobs.NewDetectInactiveJob(userRepo, bus, slogger, jobs.DetectInactiveConfig{
		InactivityThreshold: cfg.Scheduler.InactiveThreshold,
		BatchLimit:          500,
		Timeout:             cfg.Scheduler.JobTimeout,
	})
	if err := sched.Register(inactiveJob, scheduler.NewIntervalSchedule(cfg.Scheduler.DetectInactiveInterval)); err != nil {
		return fmt.Errorf("register job: %w", err)
	}

	sweepJob := jobs.NewStreakSweepJob(streakRepo, bus, slogger, cfg.Scheduler.JobTimeout)
	if err := sched.Register(sweepJob, scheduler.NewDailySchedule(cfg.Scheduler.StreakSweepHour, cfg.Scheduler.StreakSweepMinute)); err != nil {
		return fmt.Errorf("register job: %w", err)
	}

	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	// Warm the leaderboard cache so the API has data before the first tick.
	if _, err := sched.RunNow(ctx, rebuildJob.Name()); err != nil {
		log.Warn("initial leaderboard rebuild failed", logger.Err(err))
	}

	<-ctx.Done()

	log.Info("shutting down")
	if err := sched.Stop(); err != nil {
		log.Warn("scheduler stop", logger.Err(err))
	}

	log.Info("stopped cleanly")
	return nil
}
