package api

import (
	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/hamudihigo-collab/aidcore/docs"
	"github.com/hamudihigo-collab/aidcore/internal/api/handler"
	"github.com/hamudihigo-collab/aidcore/internal/api/middleware"
	"github.com/hamudihigo-collab/aidcore/internal/core/domain"
	"github.com/hamudihigo-collab/aidcore/internal/core/ports"
	"github.com/hamudihigo-collab/aidcore/internal/infrastructure/http/handlers"
)

// Deps is everything the router needs. Services and Tokens are required;
// Health may be empty, in which case readiness always reports ok.
type Deps struct {
	Log         zerolog.Logger
	Development bool
	CORSOrigins []string

	Tokens    middleware.TokenVerifier
	Auth      ports.AuthService
	Cases     ports.CaseService
	Notes     ports.NoteService
	Documents ports.DocumentService
	Users     ports.UserService

	Health []handlers.Dependency

	// Registry receives the HTTP request metrics. Defaults to the global
	// Prometheus registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log, d.Development)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:  corsOrigins(d.CORSOrigins),
		AllowHeaders:  []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "Idempotency-Key"},
		ExposeHeaders: []string{echo.HeaderXRequestID, "Idempotent-Replayed"},
	}))

	// Metrics wrap the access logger so they observe the status written by
	// the error handler.
	metricsCfg := echoprometheus.MiddlewareConfig{Namespace: "aidcore"}
	handlerCfg := echoprometheus.HandlerConfig{}
	if d.Registry != nil {
		metricsCfg.Registerer = d.Registry
		handlerCfg.Gatherer = d.Registry
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(metricsCfg))
	e.Use(requestLogger(d.Log))

	// --- Probes, metrics and docs (no auth required) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(d.Health...)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(handlerCfg))
	if d.Development {
		e.GET("/swagger/*", echoSwagger.WrapHandler)
	}

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.Auth)
	caseHandler := handler.NewCaseHandler(d.Cases)
	noteHandler := handler.NewNoteHandler(d.Notes)
	documentHandler := handler.NewDocumentHandler(d.Documents)
	userHandler := handler.NewUserHandler(d.Users)

	authMiddleware := middleware.Auth(d.Tokens)
	caseWriters := middleware.RBAC(domain.RoleAdmin, domain.RoleCaseManager)
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	apiGroup := e.Group("/api")

	// --- Auth routes ---
	auth := apiGroup.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.GET("/me", authHandler.Me, authMiddleware)
	auth.POST("/logout", authHandler.Logout, authMiddleware)

	// --- Case routes ---
	cases := apiGroup.Group("/cases", authMiddleware)
	cases.GET("", caseHandler.List)
	cases.POST("", caseHandler.Create, caseWriters)
	cases.GET("/stats/summary", caseHandler.Statistics)
	cases.GET("/:id", caseHandler.Get)
	cases.PUT("/:id", caseHandler.Update, caseWriters)
	cases.DELETE("/:id", caseHandler.Delete, caseWriters)
	cases.GET("/:id/activity", caseHandler.Activity)

	// --- Note routes (ownership is checked by the service) ---
	notes := apiGroup.Group("/notes", authMiddleware)
	notes.POST("", noteHandler.Create)
	notes.GET("/case/:caseId", noteHandler.ListByCase)
	notes.GET("/:id", noteHandler.Get)
	notes.PUT("/:id", noteHandler.Update)
	notes.DELETE("/:id", noteHandler.Delete)

	// --- Document routes ---
	documents := apiGroup.Group("/documents", authMiddleware)
	documents.POST("", documentHandler.Create, caseWriters)
	documents.GET("/case/:caseId", documentHandler.ListByCase)
	documents.GET("/:id", documentHandler.Get)
	documents.PUT("/:id", documentHandler.Update, caseWriters)
	documents.DELETE("/:id", documentHandler.Delete, caseWriters)

	// --- User administration ---
	users := apiGroup.Group("/users", authMiddleware, adminOnly)
	users.GET("", userHandler.List)
	users.GET("/:id", userHandler.Get)
	users.PUT("/:id", userHandler.Update)
	users.DELETE("/:id", userHandler.Delete)

	return e
}

func corsOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// requestLogger writes one structured access log line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
