// Package main - точка входа для Audira Progress Hub.
//
// Сервис ведёт журнал учебного прогресса микро-обучения: прослушанные
// аудио-уроки, повторения карточек и квизы превращаются в стрики, XP,
// уровни, бейджи и лидерборды.
//
// Архитектура следует принципам Clean Architecture и DDD:
// - Domain: чистая бизнес-логика без внешних зависимостей
// - Application: оркестрация use cases (Commands/Queries)
// - Infrastructure: реализация репозиториев, кеши, event bus
// - Interface: HTTP endpoints
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/audira-hub/audira-progress-hub/config"
	"github.com/audira-hub/audira-progress-hub/internal/application/command"
	"github.com/audira-hub/audira-progress-hub/internal/application/eventhandler"
	"github.com/audira-hub/audira-progress-hub/internal/application/query"
	"github.com/audira-hub/audira-progress-hub/internal/domain/leaderboard"
	"github.com/audira-hub/audira-progress-hub/internal/domain/shared"
	"github.com/audira-hub/audira-progress-hub/internal/infrastructure/messaging"
	"github.com/audira-hub/audira-progress-hub/internal/infrastructure/persistence/postgres"
	"github.com/audira-hub/audira-progress-hub/internal/infrastructure/persistence/redis"
	httpserver "github.com/audira-hub/audira-progress-hub/internal/interface/http"
	"github.com/audira-hub/audira-progress-hub/pkg/logger"
)

func main() {
	// .env is optional, real deployments use environment variables
	_ = godotenv.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. ЗАГРУЗКА КОНФИГУРАЦИИ
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. НАСТРОЙКА ЛОГИРОВАНИЯ
	// ─────────────────────────────────────────────────────────────────────────
	log := logger.New(logger.Options{
		Output:    os.Stdout,
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		AddCaller: cfg.Observability.LogCaller,
	})

	log.Info("starting Audira Progress Hub",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
		logger.Bool("debug", cfg.App.Debug),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. ПОДКЛЮЧЕНИЕ К БАЗЕ ДАННЫХ (PostgreSQL)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database")

	var dbConn *postgres.Connection
	if cfg.Database.URL != "" {
		dbConn, err = postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	} else {
		dbConn, err = postgres.NewConnection(ctx, postgres.DefaultConfig())
	}
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		log.Info("closing database connection")
		dbConn.Close()
	}()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	log.Info("database connection established")

	// ─────────────────────────────────────────────────────────────────────────
	// 4. ЗАПУСК МИГРАЦИЙ
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Database.AutoMigrate {
		log.Info("running database migrations")
		migrator := postgres.NewMigrator(dbConn)
		if err := migrator.Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}

		status, err := migrator.Status(ctx)
		if err != nil {
			log.Warn("failed to get migration status", logger.Err(err))
		} else {
			applied := 0
			for _, m := range status {
				if m.IsApplied {
					applied++
				}
			}
			log.Info("migrations completed",
				logger.Int("applied", applied),
				logger.Int("total", len(status)),
			)
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 5. ИНИЦИАЛИЗАЦИЯ REDIS (опционально)
	// ─────────────────────────────────────────────────────────────────────────
	var redisCache *redis.Cache
	var leaderboardCache *redis.LeaderboardCache

	if !cfg.Redis.Disabled {
		log.Info("connecting to Redis")

		redisCfg := redis.DefaultConfig()
		redisCfg.Host = cfg.Redis.Host
		redisCfg.Port = cfg.Redis.Port
		redisCfg.Password = cfg.Redis.Password
		redisCfg.DB = cfg.Redis.DB
		redisCfg.PoolSize = cfg.Redis.PoolSize
		redisCfg.MinIdleConns = cfg.Redis.MinIdleConns
		redisCfg.DialTimeout = cfg.Redis.DialTimeout
		redisCfg.ReadTimeout = cfg.Redis.ReadTimeout
		redisCfg.WriteTimeout = cfg.Redis.WriteTimeout

		redisCache, err = redis.NewCache(redisCfg)
		if err != nil {
			log.Warn("failed to connect to Redis, board caching disabled", logger.Err(err))
			redisCache = nil
		} else {
			defer redisCache.Close()
			if cfg.Features.LeaderboardCacheEnabled() {
				leaderboardCache = redis.NewLeaderboardCache(redisCache)
			}
			log.Info("Redis connection established")
		}
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 6. ИНИЦИАЛИЗАЦИЯ РЕПОЗИТОРИЕВ
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing repositories")
	factRepo := postgres.NewFactRepository(dbConn)
	streakRepo := postgres.NewStreakRepository(dbConn)
	achievementRepo := postgres.NewAchievementRepository(dbConn)
	leaderboardRepo := postgres.NewLeaderboardRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 7. ИНИЦИАЛИЗАЦИЯ EVENT BUS
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing event bus")

	localBusConfig := messaging.DefaultInMemoryEventBusConfig()
	localBusConfig.AsyncMode = cfg.EventBus.Async
	localBusConfig.WorkerPoolSize = cfg.EventBus.Workers
	localBusConfig.Logger = log

	var eventBus shared.EventBus
	if cfg.Features.RedisFanoutEnabled() && redisCache != nil {
		adapter := redis.NewPubSubAdapter(redisCache)
		redisBus, err := messaging.NewRedisEventBus(messaging.RedisEventBusConfig{
			Client:         adapter,
			ChannelName:    cfg.EventBus.Channel,
			LocalBusConfig: localBusConfig,
			Logger:         log,
		})
		if err != nil {
			return fmt.Errorf("failed to create redis event bus: %w", err)
		}
		defer func() {
			log.Info("closing event bus")
			_ = redisBus.Close()
		}()
		eventBus = redisBus
		log.Info("cross-instance event fanout enabled", logger.String("channel", cfg.EventBus.Channel))
	} else {
		localBus := messaging.NewInMemoryEventBus(localBusConfig)
		defer func() {
			log.Info("closing event bus")
			_ = localBus.Close()
		}()
		eventBus = localBus
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 8. ИНИЦИАЛИЗАЦИЯ APPLICATION LAYER (Commands, Queries)
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing application layer")

	recordCompletionCmd := command.NewRecordCompletionHandler(factRepo, streakRepo, eventBus, log)
	recordReviewCmd := command.NewRecordFlashcardReviewHandler(factRepo, streakRepo, eventBus, log)
	recordQuizScoreCmd := command.NewRecordQuizScoreHandler(factRepo, streakRepo, achievementRepo, eventBus, log)

	// Redis cache is optional: query handlers fall back to Postgres
	boardCache := leaderboardCacheOrNil(leaderboardCache)

	userStatsQuery := query.NewGetUserStatsHandler(factRepo, streakRepo, achievementRepo)
	completionQuery := query.NewGetCompletionHandler(factRepo)
	leaderboardQuery := query.NewGetLeaderboardHandler(leaderboardRepo, boardCache, log)
	userRankQuery := query.NewGetUserRankHandler(leaderboardRepo, boardCache, log)

	// ─────────────────────────────────────────────────────────────────────────
	// 9. РЕГИСТРАЦИЯ EVENT HANDLERS
	// ─────────────────────────────────────────────────────────────────────────
	if leaderboardCache != nil && cfg.Features.IsEnabled(config.FeatureLeaderboardProjector, nil) {
		log.Info("registering leaderboard projector")
		projector := eventhandler.NewLeaderboardProjector(leaderboardCache, eventBus, log)
		if err := projector.Register(eventBus); err != nil {
			return fmt.Errorf("failed to register leaderboard projector: %w", err)
		}
	} else {
		log.Info("leaderboard projector disabled, boards served from Postgres only")
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 10. СОЗДАНИЕ HTTP SERVER
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("initializing HTTP server")

	httpConfig := httpserver.DefaultConfig()
	httpConfig.Host = cfg.HTTP.Host
	httpConfig.Port = cfg.HTTP.Port
	httpConfig.ReadTimeout = cfg.HTTP.ReadTimeout
	httpConfig.WriteTimeout = cfg.HTTP.WriteTimeout
	httpConfig.IdleTimeout = cfg.HTTP.IdleTimeout
	httpConfig.EnableCORS = cfg.HTTP.EnableCORS
	httpConfig.AllowedOrigins = cfg.HTTP.AllowedOrigins
	httpConfig.RateLimitPerMinute = cfg.HTTP.RateLimitPerMinute
	httpConfig.APIKey = cfg.HTTP.APIKey

	httpDeps := httpserver.Dependencies{
		RecordCompletionHandler: recordCompletionCmd,
		RecordReviewHandler:     recordReviewCmd,
		RecordQuizScoreHandler:  recordQuizScoreCmd,
		GetUserStatsHandler:     userStatsQuery,
		GetCompletionHandler:    completionQuery,
		GetLeaderboardHandler:   leaderboardQuery,
		GetUserRankHandler:      userRankQuery,
		Logger:                  log,
		HealthChecker: &dependencyHealthChecker{
			db:    dbConn,
			cache: redisCache,
		},
	}

	httpServer := httpserver.NewServer(httpConfig, httpDeps)

	// ─────────────────────────────────────────────────────────────────────────
	// 11. ЗАПУСК И GRACEFUL SHUTDOWN
	// ─────────────────────────────────────────────────────────────────────────
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting HTTP server", logger.String("address", httpServer.Address()))
		if err := httpServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info("context cancelled")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", logger.Err(err))
	}

	log.Info("Audira Progress Hub stopped")
	return nil
}

// leaderboardCacheOrNil avoids handing query handlers a typed-nil interface.
func leaderboardCacheOrNil(cache *redis.LeaderboardCache) leaderboard.Cache {
	if cache == nil {
		return nil
	}
	return cache
}

// dependencyHealthChecker reports Postgres and Redis health for the probes.
type dependencyHealthChecker struct {
	db    *postgres.Connection
	cache *redis.Cache
}

func (c *dependencyHealthChecker) Check(ctx context.Context) httpserver.HealthStatus {
	status, err := c.db.Health(ctx)
	if err != nil {
		return httpserver.HealthStatus{Message: fmt.Sprintf("postgres: %v", err)}
	}
	if !status.Healthy {
		return httpserver.HealthStatus{Message: "postgres: " + status.Error}
	}

	// Redis is optional: a down cache degrades boards, not the service.
	msg := ""
	if c.cache != nil {
		if err := c.cache.Ping(ctx); err != nil {
			msg = fmt.Sprintf("redis degraded: %v", err)
		}
	}

	return httpserver.HealthStatus{Healthy: true, Ready: true, Message: msg}
}
