package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/XavierBriggs/fortuna/services/stake-calculator/internal/alerts"
	"github.com/XavierBriggs/fortuna/services/stake-calculator/internal/analytics"
	"github.com/XavierBriggs/fortuna/services/stake-calculator/internal/cache"
	"github.com/XavierBriggs/fortuna/services/stake-calculator/internal/config"
	"github.com/XavierBriggs/fortuna/services/stake-calculator/internal/handlers"
	"github.com/XavierBriggs/fortuna/services/stake-calculator/internal/hub"
	"github.com/XavierBriggs/fortuna/services/stake-calculator/internal/logging"
	"github.com/XavierBriggs/fortuna/services/stake-calculator/internal/notifier"
	"github.com/XavierBriggs/fortuna/services/stake-calculator/internal/publisher"
	"github.com/XavierBriggs/fortuna/services/stake-calculator/internal/retry"
	"github.com/XavierBriggs/fortuna/services/stake-calculator/internal/store"
	"github.com/XavierBriggs/fortuna/services/stake-calculator/pkg/models"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}

	logger := logging.New(cfg.Logging, os.Stdout)
	logger.Info("=== Fortuna Stake Calculator v0 ===")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Postgres is optional; without it history, bets and analytics answer 503
	var db *store.Postgres
	if cfg.Postgres.DSN != "" {
		db, err = store.NewPostgres(cfg.Postgres.DSN, store.PoolConfig{
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
		})
		if err != nil {
			logger.WithError(err).Fatal("failed to connect to Holocron")
		}
		defer db.Close()

		if cfg.Postgres.Migrate {
			if err := db.Migrate(ctx); err != nil {
				logger.WithError(err).Fatal("failed to apply schema")
			}
		}
		logger.Info("connected to Holocron DB")
	} else {
		logger.Warn("postgres.dsn not set, running without persistence")
	}

	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		redisClient, err = connectRedis(ctx, cfg.Redis.URL)
		if err != nil {
			logger.WithError(err).Fatal("failed to connect to Redis")
		}
		defer redisClient.Close()
		logger.Info("connected to Redis")
	}

	wsHub := hub.NewHub(logger)
	go wsHub.Run(ctx)

	deps := handlers.Deps{
		Hub:                wsHub,
		Logger:             logger,
		UserID:             cfg.Calculator.UserID,
		DefaultMaxFraction: cfg.Calculator.DefaultMaxFraction,
		RequestTimeout:     cfg.Server.RequestTimeout,
		AllowedOrigins:     cfg.Server.CORSOrigins,
		BaseContext:        ctx,
	}

	// Interface fields stay nil unless the backend exists
	if db != nil {
		deps.Store = db
		deps.Analytics = analytics.NewService(db, newSummaryCache(cfg.Cache, redisClient), cfg.Cache.TTL, logger)
	}

	var pipeline *alerts.Pipeline
	if cfg.Alerts.Enabled {
		pipeline, err = newPipeline(cfg, db, redisClient, wsHub, logger)
		if err != nil {
			logger.WithError(err).Fatal("failed to build alert pipeline")
		}
		deps.Alerts = pipeline
	}

	handler := handlers.NewHandler(deps)

	// Setup router
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(cfg.Server.WriteTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	handler.Routes(r)

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.WithField("addr", srv.Addr).Info("stake calculator listening")
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	exitCode := 0
	select {
	case err := <-serverErrors:
		logger.WithError(err).Error("server error")
		exitCode = 1

	case sig := <-shutdown:
		logger.WithField("signal", sig.String()).Info("shutting down")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("graceful shutdown failed")
			if err := srv.Close(); err != nil {
				logger.WithError(err).Error("could not stop server")
			}
		}
	}

	// Stop the hub and websocket pumps, then let queued alerts finish
	cancel()
	if pipeline != nil {
		pipeline.Wait()
	}

	logger.Info("shutdown complete")
	if exitCode != 0 {
		os.Exit(exitCode)
	}
}

func connectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func newSummaryCache(cfg config.CacheConfig, client *redis.Client) cache.Cache[analytics.Summary] {
	if cfg.Backend == "redis" && client != nil {
		return cache.NewRedisCache[analytics.Summary](client, cfg.Prefix)
	}
	return cache.NewMemoryCache[analytics.Summary]()
}

// newPipeline wires the alert stages. Redis backs dedup, rate limiting and
// the stream publisher when configured; otherwise in-process fallbacks are used.
func newPipeline(cfg *config.Config, db *store.Postgres, redisClient *redis.Client, wsHub *hub.Hub, logger *logrus.Logger) (*alerts.Pipeline, error) {
	pc := alerts.Config{
		UserID: cfg.Calculator.UserID,
		DefaultSettings: models.NotificationSettings{
			UserID:           cfg.Calculator.UserID,
			Enabled:          true,
			MinMarginPercent: cfg.Alerts.MinMarginPercent,
			MinEVPercent:     cfg.Alerts.MinEVPercent,
			Channels:         cfg.Alerts.Channels,
		},
		Broadcaster: wsHub,
		Timeout:     cfg.Alerts.Timeout,
		Logger:      logger,
	}

	if db != nil {
		pc.Settings = db
		pc.Recorder = db
	}

	if redisClient != nil {
		pc.Dedup = alerts.NewRedisDeduplicator(redisClient, cfg.Alerts.DedupTTL)
		pc.Limiter = alerts.NewRedisRateLimiter(redisClient, cfg.Alerts.RateLimitPerMinute)
		pc.Publisher = publisher.NewStreamPublisher(redisClient, cfg.Alerts.Stream, cfg.Alerts.StreamMaxLen)
	} else {
		pc.Dedup = alerts.NewMemoryDeduplicator(cfg.Alerts.DedupTTL)
		pc.Limiter = alerts.NewMemoryRateLimiter(cfg.Alerts.RateLimitPerMinute)
	}

	policy := retry.NewPolicy(cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelay)

	if cfg.Telegram.Enabled {
		tg, err := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, policy, logger)
		if err != nil {
			return nil, err
		}
		pc.Notifiers = append(pc.Notifiers, tg)
		logger.Info("telegram notifications enabled")
	}

	if cfg.Slack.Enabled {
		pc.Notifiers = append(pc.Notifiers, notifier.NewSlackNotifier(cfg.Slack.WebhookURL, policy, logger))
		logger.Info("slack notifications enabled")
	}

	return alerts.NewPipeline(pc), nil
}
