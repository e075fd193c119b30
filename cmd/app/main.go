package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexivanou/cityinfo-api/internal/api"
	"github.com/alexivanou/cityinfo-api/internal/cache"
	"github.com/alexivanou/cityinfo-api/internal/config"
	"github.com/alexivanou/cityinfo-api/internal/database"
	"github.com/alexivanou/cityinfo-api/internal/httpretry"
	"github.com/alexivanou/cityinfo-api/internal/integration"
	"github.com/alexivanou/cityinfo-api/internal/model"
	"github.com/alexivanou/cityinfo-api/internal/ratelimit"
	"github.com/alexivanou/cityinfo-api/internal/repository"
	"github.com/alexivanou/cityinfo-api/internal/scheduler"
	"github.com/alexivanou/cityinfo-api/internal/seeder"
	"github.com/alexivanou/cityinfo-api/internal/service"
	"github.com/alexivanou/cityinfo-api/internal/stats"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const migrationsDir = "migrations"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	db, err := database.Connect(ctx, cfg.DB)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatal("Failed to ping database", zap.Error(err))
	}
	logger.Info("Connected to database", zap.String("type", string(cfg.DB.Type)))

	// Run migrations
	if err := database.MigrateUp(db, cfg.DB, migrationsDir); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	cityRepo := repository.NewCityRepository(db, cfg.DB.Type)

	if cfg.Seeder.AutoSeed {
		count, err := cityRepo.Count(ctx)
		if err != nil {
			logger.Warn("Failed to check if database is empty", zap.Error(err))
		} else if count == 0 {
			logger.Info("Database is empty, auto-seeding data...")
			summary, err := seeder.Seed(ctx, seeder.NewParser(cfg.Seeder), cityRepo, logger)
			if err != nil {
				// A missing seed file should not keep the API from starting
				logger.Error("Failed to auto-seed database", zap.Error(err))
			} else {
				logger.Info("Database seeded successfully", zap.Int64("inserted", summary.Inserted))
			}
		}
	}

	countryCache := cache.New[string, model.CountryInfo](cfg.Cache.CountryTTL, cfg.Cache.CountrySize)
	countries := integration.NewRestCountriesClient(
		newRetryClient(cfg.Integrations, "restcountries", logger),
		cfg.Integrations.CountriesBaseURL,
		countryCache,
		logger,
	)
	weather := integration.NewOpenWeatherClient(
		newRetryClient(cfg.Integrations, "openweather", logger),
		cfg.Integrations.WeatherBaseURL,
		cfg.Integrations.OpenWeatherAPIKey,
		logger,
	)
	if cfg.Integrations.OpenWeatherAPIKey == "" {
		logger.Warn("OPENWEATHER_API_KEY is not set, weather lookups will report no data and city creation will be rejected")
	}

	svc := service.NewService(cityRepo, countries, weather, service.Config{
		EnrichmentTimeout: cfg.Integrations.EnrichmentTimeout,
	}, logger)

	jobs, err := scheduler.New(cfg.Cache.PruneSchedule, logger)
	if err != nil {
		logger.Fatal("Failed to create scheduler", zap.Error(err))
	}
	if err := jobs.AddPruneJob("country-cache", countryCache.Prune); err != nil {
		logger.Fatal("Failed to schedule cache pruning", zap.Error(err))
	}

	statsCollector := stats.NewCollector(db, cfg.DB).WithCountryCache(countryCache).WithLogger(logger)

	routerOpts := api.RouterOptions{
		Logger:         logger,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		TrustProxy:     cfg.RateLimit.TrustProxy,
	}
	if cfg.RateLimit.Enabled {
		limiter, closeLimiter, err := newLimiter(ctx, cfg.RateLimit, jobs, statsCollector, logger)
		if err != nil {
			logger.Fatal("Failed to create rate limiter", zap.Error(err))
		}
		defer closeLimiter()
		routerOpts.Limiter = limiter
	}

	router := api.NewRouter(svc, statsCollector, routerOpts)

	jobs.Start()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	jobs.Stop(shutdownCtx)

	logger.Info("Server exited")
}

func newRetryClient(cfg config.IntegrationsConfig, name string, logger *zap.Logger) *httpretry.Client {
	retryCfg := httpretry.Config{
		Timeout:    cfg.HTTPTimeout,
		MaxRetries: cfg.MaxRetries,
		RetryDelay: cfg.RetryDelay,
	}
	if cfg.BreakerEnabled {
		retryCfg.Breaker = httpretry.NewBreaker(name, logger)
	}
	return httpretry.New(retryCfg, logger.Named(name))
}

// newLimiter uses Redis when RATE_LIMIT_REDIS_URL is set and process memory otherwise
func newLimiter(
	ctx context.Context,
	cfg config.RateLimitConfig,
	jobs *scheduler.Scheduler,
	statsCollector *stats.Collector,
	logger *zap.Logger,
) (ratelimit.Limiter, func(), error) {
	if cfg.RedisURL == "" {
		limiter := ratelimit.NewMemoryLimiter(cfg.Requests, cfg.Window)
		if err := jobs.AddPruneJob("rate-limiter", limiter.Prune); err != nil {
			return nil, nil, err
		}
		statsCollector.WithRateLimiter(limiter)
		logger.Info("Using in-memory rate limiter", zap.Int("requests", cfg.Requests), zap.Duration("window", cfg.Window))
		return limiter, func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid RATE_LIMIT_REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		// The limiter fails open, so an unreachable Redis only costs limiting
		logger.Warn("Redis is not reachable, requests will not be limited until it is", zap.Error(err))
	}

	logger.Info("Using Redis rate limiter", zap.String("addr", opts.Addr))
	return ratelimit.NewRedisLimiter(rdb, cfg.Requests, cfg.Window), func() { rdb.Close() }, nil
}
