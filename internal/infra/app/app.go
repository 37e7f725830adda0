package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/husnainn01/dealership-gateway/internal/core/port"
	"github.com/husnainn01/dealership-gateway/internal/infra/config"
	"github.com/husnainn01/dealership-gateway/internal/infra/database"
	kafkainfra "github.com/husnainn01/dealership-gateway/internal/infra/kafka"
	"github.com/husnainn01/dealership-gateway/internal/infra/logger"
	redisinfra "github.com/husnainn01/dealership-gateway/internal/infra/redis"
	"github.com/husnainn01/dealership-gateway/internal/infra/security"
	memoryrepo "github.com/husnainn01/dealership-gateway/internal/repository/memory"
	postgresrepo "github.com/husnainn01/dealership-gateway/internal/repository/postgres"
	redisrepo "github.com/husnainn01/dealership-gateway/internal/repository/redis"
	"github.com/husnainn01/dealership-gateway/internal/transport/http/middleware"
	"github.com/husnainn01/dealership-gateway/internal/transport/http/routes"
	"github.com/husnainn01/dealership-gateway/internal/usecase"
)

// Application owns the wired gateway and its infrastructure handles.
type Application struct {
	cfg         *config.AppConfig
	engine      *gin.Engine
	logger      *zap.Logger
	pool        *pgxpool.Pool
	redis       *redisinfra.Client
	producer    *kafkainfra.Producer
	memoryStore *memoryrepo.RateLimitStore
}

// New wires the gateway: config, stores, services, and the HTTP engine.
func New(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	log, err := logger.New(cfg.App.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	pool, err := database.NewPostgresPool(ctx, cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("init postgres: %w", err)
	}

	codec, err := security.NewTokenCodec(cfg.Session.SigningKeys())
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("init token codec: %w", err)
	}

	app := &Application{cfg: cfg, logger: log, pool: pool}

	// Rate limiting runs on Redis when configured so multiple gateway
	// instances share one window; otherwise an in-process store suffices.
	var rateStore port.RateLimitStore
	if cfg.Redis.Enabled {
		redisClient, err := redisinfra.NewClient(cfg.Redis, log)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("init redis: %w", err)
		}
		app.redis = redisClient
		rateStore = redisrepo.NewRateLimitStore(redisClient.Client(), cfg.Redis.KeyPrefix)
	} else {
		memStore := memoryrepo.NewRateLimitStore(
			memoryrepo.WithSweepInterval(cfg.RateLimit.SweepInterval),
		)
		app.memoryStore = memStore
		rateStore = memStore
	}

	var eventPublisher port.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafkainfra.NewProducer(cfg.Kafka, log)
		if err != nil {
			log.Warn("failed to init kafka producer, using stub publisher", zap.Error(err))
			eventPublisher = kafkainfra.NewStubPublisher(log)
		} else {
			app.producer = producer
			eventPublisher = kafkainfra.NewEventPublisher(producer, cfg.App, log)
			log.Info("kafka event publisher initialized", zap.Strings("brokers", cfg.Kafka.Brokers))
		}
	} else {
		log.Info("kafka brokers not configured, using stub publisher")
		eventPublisher = kafkainfra.NewStubPublisher(log)
	}

	repos := postgresrepo.NewRepositories(pool)

	roleService := usecase.NewRoleService(repos.Roles, repos.Admins, security.DefaultPasswordValidator(), eventPublisher, log)
	authService := usecase.NewAuthService(cfg, repos.Admins, repos.Customers, roleService, codec, eventPublisher, log)

	rateLimiter := middleware.NewRateLimiter(rateStore, log)

	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{})
	if err != nil {
		app.closeInfra()
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	deps := routes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: rateLimiter,
		Metrics:     metrics,
		Events:      eventPublisher,
		Database:    pool,
		Services: routes.ServiceSet{
			Auth:  authService,
			Roles: roleService,
		},
	}
	if app.redis != nil {
		deps.Cache = app.redis
	}

	app.engine = routes.Register(deps)

	return app, nil
}

// Run serves HTTP until the context is cancelled, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	defer func() {
		_ = a.logger.Sync()
	}()
	defer a.closeInfra()

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", a.cfg.App.Host, a.cfg.App.Port),
		Handler:           a.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	a.logger.Info("starting gateway",
		zap.String("env", a.cfg.App.Env),
		zap.String("address", srv.Addr),
	)

	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- fmt.Errorf("run server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	case err := <-serverErrCh:
		return err
	}
}

func (a *Application) closeInfra() {
	if a.memoryStore != nil {
		a.memoryStore.Close()
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Warn("failed to close kafka producer", zap.Error(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("failed to close redis client", zap.Error(err))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
