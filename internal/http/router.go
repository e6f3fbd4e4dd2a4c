package http

import (
	"log/slog"
	"net/http"

	"github.com/geocoder89/taskhub/internal/config"
	"github.com/geocoder89/taskhub/internal/http/handlers"
	"github.com/geocoder89/taskhub/internal/http/middlewares"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/geocoder89/taskhub/internal/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Dependencies are the storage-backed services the router wires into
// handlers. Either storage driver can supply them.
type Dependencies struct {
	Accounts handlers.AccountService
	Users    middlewares.UserResolver
	Tokens   TokenService
	Projects handlers.ProjectsRepo
	Tasks    handlers.TasksRepo

	Prom     *observability.Prom
	Gatherer prometheus.Gatherer

	// nil limiters fall back to in-process fixed windows
	AuthLimiter ratelimit.Limiter
	APILimiter  ratelimit.Limiter

	ReadyChecks map[string]handlers.CheckFunc
}

type TokenService interface {
	handlers.TokenIssuer
	middlewares.TokenVerifier
}

func NewRouter(log *slog.Logger, deps Dependencies, cfg config.Config) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(otelgin.Middleware(cfg.ServiceName))

	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))

	if cfg.MaxBodyBytes > 0 {
		r.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))
	}

	r.Use(middlewares.RequireJSON())

	r.NoRoute(func(ctx *gin.Context) {
		handlers.RespondNotFound(ctx, "Route not found")
	})

	// health and ops
	h := handlers.NewHealthHandler(deps.ReadyChecks)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	r.GET("/docs", handlers.SwaggerUI)
	r.GET("/docs/openapi.yaml", handlers.OpenAPISpec)

	authLimiter := deps.AuthLimiter
	if authLimiter == nil {
		authLimiter = ratelimit.NewMemoryLimiter(cfg.RateLimitAuth, cfg.RateLimitWindow)
	}
	apiLimiter := deps.APILimiter
	if apiLimiter == nil {
		apiLimiter = ratelimit.NewMemoryLimiter(cfg.RateLimitAPI, cfg.RateLimitWindow)
	}

	authRateLimit := middlewares.RateLimit(authLimiter, "auth", middlewares.KeyByIP, deps.Prom)
	apiRateLimit := middlewares.RateLimit(apiLimiter, "api", middlewares.KeyByUserOrIP, deps.Prom)

	authMw := middlewares.NewAuthMiddleware(deps.Tokens, deps.Users, deps.Prom)

	authHandler := handlers.NewAuthHandler(deps.Accounts, deps.Tokens, deps.Prom)
	tasksHandler := handlers.NewTasksHandler(deps.Tasks)
	projectsHandler := handlers.NewProjectsHandler(deps.Projects, deps.Tasks)

	api := r.Group("/api")

	// public
	api.POST("/auth/register", authRateLimit, authHandler.Register)
	api.POST("/auth/login", authRateLimit, authHandler.Login)

	// protected
	protected := api.Group("")
	protected.Use(authMw.RequireAuth(), apiRateLimit)
	{
		protected.GET("/auth/me", authHandler.Me)
		protected.PATCH("/auth/me", authHandler.UpdateMe)

		protected.GET("/tasks", tasksHandler.ListTasks)
		protected.POST("/tasks", tasksHandler.CreateTask)
		protected.GET("/tasks/:id", tasksHandler.GetTask)
		protected.PATCH("/tasks/:id", tasksHandler.UpdateTask)
		protected.DELETE("/tasks/:id", tasksHandler.DeleteTask)

		protected.GET("/projects", projectsHandler.ListProjects)
		protected.POST("/projects", projectsHandler.CreateProject)
		protected.GET("/projects/:id", projectsHandler.GetProject)
		protected.PATCH("/projects/:id", projectsHandler.UpdateProject)
		protected.DELETE("/projects/:id", projectsHandler.DeleteProject)
		protected.GET("/projects/:id/tasks", projectsHandler.ProjectTasks)
	}

	r.HandleMethodNotAllowed = true
	r.NoMethod(func(ctx *gin.Context) {
		handlers.RespondError(ctx, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed", nil)
	})

	return r
}
