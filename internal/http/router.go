package http

import (
	"log/slog"
	"time"

	"github.com/geocoder89/userhub/internal/auth"
	"github.com/geocoder89/userhub/internal/config"
	"github.com/geocoder89/userhub/internal/http/handlers"
	"github.com/geocoder89/userhub/internal/http/middlewares"
	"github.com/geocoder89/userhub/internal/observability"
	"github.com/geocoder89/userhub/internal/repo/memory"
	"github.com/geocoder89/userhub/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

type Deps struct {
	Users     *memory.UsersRepo
	Tokens    *auth.Manager
	Prom      *observability.Prom
	Version   string
	StartedAt time.Time
}

func NewRouter(log *slog.Logger, cfg config.Config, deps Deps) *gin.Engine {
	if cfg.Env != "dev" && gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	if deps.Prom == nil {
		deps.Prom = observability.NewProm(prometheus.NewRegistry(), deps.Users.Count)
	}
	if deps.StartedAt.IsZero() {
		deps.StartedAt = time.Now()
	}

	r := gin.New()

	// middleware
	r.Use(middlewares.Recovery(log))
	r.Use(middlewares.RequestID())
	r.Use(otelgin.Middleware(cfg.OTELServiceName))
	r.Use(deps.Prom.GinHandleMiddleware())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))
	r.Use(middlewares.RequireJSON())

	r.NoRoute(handlers.RouteNotFound)

	// wire up the service
	usersSvc := service.NewUserService(deps.Users, deps.Tokens, log, service.WithMetrics(deps.Prom))

	authMiddleware := middlewares.NewAuthMiddleware(deps.Tokens, deps.Users, log).WithObserver(deps.Prom)

	// Routes
	r.GET("/", handlers.APIIndex(deps.Version))

	h := handlers.NewHealthHandler(deps.Users, cfg.Env, deps.Version, deps.StartedAt)
	r.GET("/healthz", h.Healthz)
	r.GET("/livez", h.Livez)
	r.GET("/readyz", h.Readyz)

	r.GET("/metrics", gin.WrapH(deps.Prom.Handler()))

	r.GET("/docs", handlers.SwaggerUI)
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)

	authHandler := handlers.NewAuthHandler(usersSvc)
	r.POST("/auth/login", authHandler.Login)

	usersHandler := handlers.NewUsersHandler(usersSvc)

	users := r.Group("/users")
	users.Use(authMiddleware.RequireAuth())
	{
		users.GET("", usersHandler.ListUsers)
		users.POST("", usersHandler.CreateUser)
		users.PUT("/:id", usersHandler.UpdateUser)
		users.DELETE("/:id", usersHandler.DeleteUser)
	}

	return r
}
