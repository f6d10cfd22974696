package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/richxcame/cod-risk/internal/screening"
	"github.com/richxcame/cod-risk/pkg/common"
	"github.com/richxcame/cod-risk/pkg/config"
	"github.com/richxcame/cod-risk/pkg/database"
	"github.com/richxcame/cod-risk/pkg/errorreporting"
	"github.com/richxcame/cod-risk/pkg/eventbus"
	"github.com/richxcame/cod-risk/pkg/health"
	"github.com/richxcame/cod-risk/pkg/logger"
	"github.com/richxcame/cod-risk/pkg/middleware"
	"github.com/richxcame/cod-risk/pkg/ratelimit"
	"github.com/richxcame/cod-risk/pkg/redis"
	"github.com/richxcame/cod-risk/pkg/resilience"
	"github.com/richxcame/cod-risk/pkg/tracing"
	"go.uber.org/zap"
)

const (
	serviceName     = "risk-service"
	maxRequestBody  = 1 << 20
	shutdownTimeout = 15 * time.Second
)

func main() {
	// Load configuration
	cfg, err := config.Load(serviceName)
	if err != nil {
		panic(err)
	}

	if err := logger.Init(cfg.Server.Environment); err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	flushErrors, sentryEnabled, err := errorreporting.Init(cfg.Sentry, cfg.Server.Environment, cfg.Server.Version)
	if err != nil {
		logger.Fatal("Failed to initialize error reporting", zap.Error(err))
	}
	defer flushErrors()

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing, serviceName, cfg.Server.Version)
	if err != nil {
		logger.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	// Connect to PostgreSQL
	db, err := database.NewPostgresPool(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	if cfg.Database.RunMigrations {
		if err := database.RunMigrations(&cfg.Database); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}
	}

	// Connect to Redis
	redisClient, err := redis.NewRedisClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	checks := map[string]common.CheckFunc{
		"database": health.PostgresChecker(db),
		"redis":    health.RedisChecker(redisClient),
	}

	// Connect to NATS. Screening still works over HTTP without it.
	var publisher screening.Publisher
	var bus *eventbus.Bus
	if cfg.NATS.Enabled {
		bus, err = eventbus.Connect(cfg.NATS.URL, serviceName)
		if err != nil {
			logger.Fatal("Failed to connect to NATS", zap.Error(err))
		}
		defer bus.Close()
		publisher = bus
		checks["nats"] = health.NATSChecker(bus.Conn())
	}

	cacheBreaker := resilience.NewCircuitBreaker(
		resilience.BuildSettings("assessment-cache", cfg.Risk.Breaker),
		resilience.GracefulDegradation("redis"),
	)

	repo := screening.NewRepository(db)
	cache := screening.NewCache(redisClient, cfg.Risk.CacheTTL, cacheBreaker)
	service := screening.NewService(repo, cache, publisher, cfg.Risk)
	handler := screening.NewHandler(service)

	if bus != nil {
		if err := screening.NewEventHandler(service).RegisterSubscriptions(ctx, bus); err != nil {
			logger.Fatal("Failed to subscribe to order events", zap.Error(err))
		}
	}

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.Recovery())
	if sentryEnabled {
		router.Use(errorreporting.Middleware())
	}
	router.Use(middleware.CorrelationID())
	router.Use(middleware.Tracing(serviceName))
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Metrics(serviceName))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.MaxBodySize(maxRequestBody))

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(cfg.Server.CORSOrigins, ",")
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "Accept-Language", middleware.CorrelationIDHeader}
	router.Use(cors.New(corsConfig))

	// Health check and metrics (no auth required)
	router.GET("/healthz", common.HealthCheck(serviceName, cfg.Server.Version))
	router.GET("/health/ready", common.HealthCheckWithDeps(serviceName, cfg.Server.Version, 2*time.Second, checks))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limiter := ratelimit.NewLimiter(redisClient, cfg.RateLimit)
	handler.RegisterRoutes(router, cfg.JWT.Secret, time.Duration(cfg.Server.RequestTimeout)*time.Second,
		middleware.RateLimit(limiter))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("Risk service starting", zap.String("port", cfg.Server.Port), zap.String("version", cfg.Server.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down risk service")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Error("Tracer shutdown failed", zap.Error(err))
	}
}
