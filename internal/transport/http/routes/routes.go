package routes

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/husnainn01/dealership-gateway/internal/core/domain"
	"github.com/husnainn01/dealership-gateway/internal/core/port"
	"github.com/husnainn01/dealership-gateway/internal/infra/config"
	"github.com/husnainn01/dealership-gateway/internal/transport/http/handlers"
	"github.com/husnainn01/dealership-gateway/internal/transport/http/middleware"
	"github.com/husnainn01/dealership-gateway/internal/usecase"
)

// ServiceSet groups the services the HTTP layer depends on.
type ServiceSet struct {
	Auth  *usecase.AuthService
	Roles *usecase.RoleService
}

// Dependencies encapsulates the objects required to register routes.
type Dependencies struct {
	Config      *config.AppConfig
	Logger      *zap.Logger
	RateLimiter *middleware.RateLimiter
	Metrics     *middleware.HTTPMetrics
	Events      port.EventPublisher
	Services    ServiceSet
	Database    DatabaseChecker
	Cache       CacheChecker
}

// DatabaseChecker exposes readiness behaviour for database connections.
type DatabaseChecker interface {
	Ping(ctx context.Context) error
}

// CacheChecker exposes readiness behaviour for cache backends.
type CacheChecker interface {
	HealthCheck(ctx context.Context) error
}

// Register configures the Gin engine with the gate, routes, and middleware.
func Register(deps Dependencies) *gin.Engine {
	if deps.Config.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.EnrichContext())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(deps.Logger))

	if deps.Metrics != nil {
		r.Use(deps.Metrics.Handler())
	}

	if len(deps.Config.CORS.AllowedOrigins) > 0 {
		r.Use(middleware.CORS(deps.Config.CORS.AllowedOrigins))
	}

	gate := middleware.NewRequestGate(deps.Services.Auth, deps.Services.Roles, deps.Config.Cookies, deps.Logger)
	r.Use(gate.Handle())

	healthOptions := make([]handlers.HealthOption, 0, 2)

	if deps.Database != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("database", deps.Database.Ping))
	}

	if deps.Cache != nil {
		healthOptions = append(healthOptions, handlers.WithReadinessCheck("redis", deps.Cache.HealthCheck))
	}

	healthHandler := handlers.NewHealthHandler(healthOptions...)

	r.GET("/healthz", healthHandler.Status)
	r.GET("/readyz", healthHandler.Readiness)

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authHandler := handlers.NewAuthHandler(deps.Services.Auth, deps.Config.Session, deps.Config.Cookies, deps.Logger)
	loginMiddlewares := buildLoginMiddlewares(deps)

	adminAuth := r.Group("/api/admin/auth")
	{
		adminAuth.POST("/login", append(append([]gin.HandlerFunc{}, loginMiddlewares...), authHandler.AdminLogin)...)
		adminAuth.POST("/logout", authHandler.AdminLogout)
		adminAuth.GET("/check", authHandler.AdminCheck)
	}

	customerAuth := r.Group("/api/auth/user")
	{
		customerAuth.POST("/login", append(append([]gin.HandlerFunc{}, loginMiddlewares...), authHandler.CustomerLogin)...)
		customerAuth.POST("/logout", authHandler.CustomerLogout)
		customerAuth.GET("/check", authHandler.CustomerCheck)
	}

	rolesHandler := handlers.NewRolesHandler(deps.Services.Roles, deps.Logger)
	rolesGroup := r.Group("/api/admin/roles")
	{
		rolesGroup.GET("", rolesHandler.List)
		rolesGroup.POST("", rolesHandler.Create)
		rolesGroup.GET("/:id", rolesHandler.Get)
		rolesGroup.PUT("/:id", rolesHandler.Update)
		rolesGroup.DELETE("/:id", rolesHandler.Delete)
	}

	dashboardHandler := handlers.NewDashboardHandler()
	r.GET(middleware.AdminLoginPath, dashboardHandler.LoginPage)
	r.GET(middleware.CustomerLoginPath, dashboardHandler.LoginPage)
	r.GET("/admin/dashboard", dashboardHandler.Admin)
	r.GET("/customer-dashboard", dashboardHandler.Customer)
	r.GET("/customer-dashboard/profile", dashboardHandler.Customer)
	r.GET("/api/customer/profile", dashboardHandler.Customer)

	handlers.RegisterSwagger(r)

	return r
}

func buildLoginMiddlewares(deps Dependencies) []gin.HandlerFunc {
	if deps.RateLimiter == nil || deps.Config == nil {
		return nil
	}

	limit := deps.Config.RateLimit.LoginMaxAttempts
	if limit <= 0 {
		return nil
	}

	window := deps.Config.RateLimit.WindowDuration
	if window <= 0 {
		window = time.Minute
	}

	limiter := deps.RateLimiter
	if deps.Metrics != nil || deps.Events != nil {
		limiter = limiter.WithLimitedCallback(func(c *gin.Context, rule middleware.RateLimitRule, _ port.RateDecision) {
			if deps.Metrics != nil {
				deps.Metrics.ObserveThrottled(rule.Name)
			}
			if deps.Events != nil {
				if err := deps.Events.PublishLoginThrottled(c.Request.Context(), domain.LoginThrottledEvent{
					Kind: principalKindForPath(c.Request.URL.Path),
					IP:   c.ClientIP(),
					At:   time.Now().UTC(),
				}); err != nil && deps.Logger != nil {
					deps.Logger.Warn("failed to publish throttle event", zap.Error(err))
				}
			}
		})
	}

	rule := middleware.RateLimitRule{
		Name:       "auth_login_ip",
		Limit:      limit,
		Window:     window,
		Identifier: middleware.ClientIPIdentifier(),
	}

	return []gin.HandlerFunc{limiter.RateLimit(rule)}
}

func principalKindForPath(path string) domain.PrincipalKind {
	if len(path) >= len("/api/admin") && path[:len("/api/admin")] == "/api/admin" {
		return domain.PrincipalKindAdmin
	}
	return domain.PrincipalKindCustomer
}
