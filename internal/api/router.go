package api

import (
	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/leadbook/crm-api/docs"
	"github.com/leadbook/crm-api/internal/api/handler"
	"github.com/leadbook/crm-api/internal/api/middleware"
	"github.com/leadbook/crm-api/internal/core/domain"
	"github.com/leadbook/crm-api/internal/core/ports"
)

// Services bundles the application services the router exposes.
type Services struct {
	Auth         ports.AuthService
	Users        ports.UserService
	Customers    ports.CustomerService
	Details      ports.DetailService
	Affiliations ports.AffiliationService
	Stats        ports.StatsService
}

// Options carries the HTTP-level settings.
type Options struct {
	JWTSecret string
	Logger    zerolog.Logger
	// Health lists the dependencies pinged by the readiness probe.
	Health map[string]handler.PingFunc
	// Registerer receives the HTTP metrics. Defaults to the global registry.
	Registerer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(svc Services, opts Options) *echo.Echo {
	if opts.Registerer == nil {
		opts.Registerer = prometheus.DefaultRegisterer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(opts.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(opts.Logger))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "crm",
		Registerer: opts.Registerer,
	}))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(svc.Auth)
	userHandler := handler.NewUserHandler(svc.Users)
	customerHandler := handler.NewCustomerHandler(svc.Customers)
	detailHandler := handler.NewDetailHandler(svc.Details)
	affiliationHandler := handler.NewAffiliationHandler(svc.Affiliations)
	statsHandler := handler.NewStatsHandler(svc.Stats)
	authMiddleware := middleware.Auth(opts.JWTSecret)

	// --- Public routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	// --- Health probes, metrics and docs (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(opts.Health)

	e.GET("/health", healthHandler.Liveness)            // liveness
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Authenticated API ---
	v1 := e.Group("/v1", authMiddleware)

	v1.PUT("/me/password", authHandler.ChangePassword)

	customers := v1.Group("/customers")
	customers.GET("", customerHandler.List)
	customers.POST("", customerHandler.Create)
	customers.GET("/:id", customerHandler.Get)
	customers.DELETE("/:id", customerHandler.Delete)
	customers.GET("/:id/permission", customerHandler.Permission)
	customers.PATCH("/:id/status", customerHandler.UpdateStatus)
	customers.PATCH("/:id/transaction-status", customerHandler.UpdateTransactionStatus)
	customers.PATCH("/:id/notes", customerHandler.UpdateNotes)
	customers.PATCH("/:id/affiliation", customerHandler.UpdateAffiliation)
	customers.GET("/:id/details", detailHandler.List)
	customers.POST("/:id/details", detailHandler.Create)

	v1.DELETE("/details/:id", detailHandler.Delete)

	affiliations := v1.Group("/affiliations")
	affiliations.GET("", affiliationHandler.List)
	affiliations.POST("", affiliationHandler.Create)
	affiliations.PATCH("/:id", affiliationHandler.Update)
	affiliations.DELETE("/:id", affiliationHandler.Delete)

	v1.GET("/dashboard-stats", statsHandler.Dashboard)
	v1.GET("/stats/affiliations", statsHandler.ByAffiliation)
	v1.GET("/stats/users", statsHandler.Users, middleware.RBAC(domain.RoleAdmin, domain.RoleManager))

	users := v1.Group("/users", middleware.RBAC(domain.RoleAdmin))
	users.GET("", userHandler.List)
	users.POST("", userHandler.Create)
	users.PUT("/:id/password", userHandler.ResetPassword)
	users.DELETE("/:id", userHandler.Delete)

	// Legacy dashboard path kept for existing frontends.
	e.GET("/api/dashboard-stats", statsHandler.Dashboard, authMiddleware)

	return e
}

// requestLogger feeds Echo's access log into zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			evt := log.Info()
			if v.Error != nil || v.Status >= 500 {
				evt = log.Error().Err(v.Error)
			}
			evt.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
