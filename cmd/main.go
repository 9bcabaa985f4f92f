package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Kosench/go-url-shortener/internal/cache"
	"github.com/Kosench/go-url-shortener/internal/config"
	"github.com/Kosench/go-url-shortener/internal/database"
	"github.com/Kosench/go-url-shortener/internal/handler"
	"github.com/Kosench/go-url-shortener/internal/logger"
	"github.com/Kosench/go-url-shortener/internal/repository"
	"github.com/Kosench/go-url-shortener/internal/service"
)

const warmupLimit = 100

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "url-shortener: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.App.Environment, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer log.Sync()

	var (
		urlRepo   repository.URLRepository
		dbChecker handler.DatabaseChecker
	)

	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		db, err := connectPostgres(cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		log.Info("connected to database",
			zap.String("host", cfg.Database.Host),
			zap.String("dbname", cfg.Database.DBName),
		)

		urlRepo = repository.NewPostgresURLRepository(db)
		dbChecker = database.NewChecker(db)

	default:
		urlRepo = repository.NewMemoryURLRepository()
		log.Info("using in-memory storage, data is lost on restart")
	}

	var cacheChecker handler.HealthChecker
	if cfg.Redis.Enabled {
		connectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisClient, err := cache.NewRedisClient(connectCtx, cache.RedisConfig{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			CacheTTL:     cfg.Redis.CacheTTL,
			Namespace:    cfg.Redis.Namespace,
		})
		cancel()
		if err != nil {
			log.Warn("failed to connect to Redis, running without cache", zap.Error(err))
		} else {
			defer redisClient.Close()
			log.Info("connected to Redis", zap.String("addr", cfg.Redis.Host+":"+cfg.Redis.Port))

			cachedRepo := repository.NewCachedURLRepository(urlRepo, redisClient, redisClient.KeyBuilder(), log)
			urlRepo = cachedRepo
			cacheChecker = redisClient

			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				defer cancel()

				if _, err := cachedRepo.WarmupCache(ctx, warmupLimit); err != nil {
					log.Warn("failed to warm up cache", zap.Error(err))
				}
			}()
		}
	}

	urlService := service.NewURLService(urlRepo,
		service.WithMaxRetries(cfg.App.MaxRetries),
		service.WithDefaultValidity(cfg.App.DefaultValidity),
	)
	urlHandler := handler.NewURLHandler(urlService, cfg.GetBaseURL(), log)
	healthHandler := handler.NewHealthHandler(cfg.Storage.Driver, dbChecker, cacheChecker)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(
		handler.RequestID(),
		handler.RequestLogger(log),
		handler.Recovery(log),
		cors.New(cors.Config{
			AllowOrigins:     cfg.GetAllowedOrigins(),
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", handler.RequestIDHeader},
			ExposeHeaders:    []string{"Content-Length", handler.RequestIDHeader},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}),
	)

	handler.RegisterRoutes(router, urlHandler, healthHandler)

	srv := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        router,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server starting",
			zap.String("addr", cfg.GetServerAddress()),
			zap.String("storage", cfg.Storage.Driver),
			zap.Bool("cache", cacheChecker != nil),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		log.Info("shutting down server", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("server gracefully stopped")
	return nil
}

func connectPostgres(cfg *config.Config) (*sql.DB, error) {
	db, err := database.Connect(
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.DBName)
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := database.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
