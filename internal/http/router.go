package http

import (
	"log/slog"

	"github.com/geocoder89/taskhub/internal/auth"
	"github.com/geocoder89/taskhub/internal/authz"
	"github.com/geocoder89/taskhub/internal/config"
	"github.com/geocoder89/taskhub/internal/describe"
	"github.com/geocoder89/taskhub/internal/http/handlers"
	"github.com/geocoder89/taskhub/internal/http/middlewares"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/geocoder89/taskhub/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const serviceName = "taskhub"

// Deps are the handles built in main and shared by every request.
type Deps struct {
	Users service.UserStore
	Tasks service.TaskStore

	// Limiter backs the auth rate limit. Nil means an in-process limiter.
	Limiter middlewares.Limiter
	// Generator produces AI task descriptions. Nil means the feature is off.
	Generator describe.Generator
	// Checks are pinged by /readyz.
	Checks map[string]handlers.Pinger
	// Draining reports whether the server is shutting down. Optional.
	Draining func() bool

	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
}

func NewRouter(log *slog.Logger, cfg config.Config, deps Deps) *gin.Engine {
	if cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	handlers.RegisterValidators()

	// middleware
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(serviceName))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSOrigins))

	// health
	h := handlers.NewHealthHandler(deps.Checks).WithDraining(deps.Draining)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	// wire up services
	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.JWTTTL)
	authService := service.NewAuthService(deps.Users, jwtManager, cfg.AuthAllowAdminSignup)
	taskService := service.NewTaskService(deps.Tasks)
	adminService := service.NewAdminService(deps.Users, deps.Tasks)
	profileService := service.NewProfileService(deps.Users)

	authMiddleware := middlewares.NewAuthMiddleware(jwtManager)
	if cfg.AuthCheckActive {
		authMiddleware.WithActiveCheck(authService, cfg.AuthActiveCacheTTL)
	}

	limiter := deps.Limiter
	if limiter == nil {
		limiter = middlewares.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow)
	}

	var onLimited func(*gin.Context)
	var authObs handlers.AuthObserver
	if deps.Prom != nil {
		onLimited = func(c *gin.Context) { deps.Prom.ObserveRateLimited(c.FullPath()) }
		authObs = deps.Prom
	}

	var generator describe.Generator = describe.Disabled{}
	if deps.Generator != nil {
		generator = deps.Generator
	}
	if deps.Prom != nil {
		generator = deps.Prom.ObserveGenerator(generator)
	}

	// wire up handlers
	authHandler := handlers.NewAuthHandler(authService, authObs)
	usersHandler := handlers.NewUsersHandler(profileService)
	tasksHandler := handlers.NewTasksHandler(taskService)
	adminHandler := handlers.NewAdminHandler(adminService, authMiddleware.Forget)
	aiHandler := handlers.NewAIHandler(generator)

	api := r.Group("/api")
	api.Use(middlewares.MaxBodyBytes(cfg.MaxBodyBytes))
	api.Use(middlewares.RequireJSON())

	authGroup := api.Group("/auth")
	authGroup.Use(middlewares.RateLimit(limiter, middlewares.KeyByIP, onLimited))
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)

	members := api.Group("")
	members.Use(authMiddleware.RequireAuth(), authMiddleware.RequireRole(authz.Members...))

	members.GET("/users/me", usersHandler.Me)
	members.PUT("/users/me", usersHandler.UpdateMe)

	members.GET("/tasks", tasksHandler.List)
	members.POST("/tasks", tasksHandler.Create)
	members.GET("/tasks/:id", tasksHandler.Get)
	members.PUT("/tasks/:id", tasksHandler.Update)
	members.DELETE("/tasks/:id", tasksHandler.Delete)
	members.POST("/tasks/:id/complete", tasksHandler.Complete)

	members.POST("/ai/description",
		middlewares.RateLimit(limiter, middlewares.KeyByUserOrIP, onLimited),
		aiHandler.Description,
	)

	admin := api.Group("/admin")
	admin.Use(authMiddleware.RequireAuth(), authMiddleware.RequireRole(authz.Admins...))

	admin.GET("/users", adminHandler.ListUsers)
	admin.GET("/users/:id", adminHandler.GetUser)
	admin.POST("/users/:id/activate", adminHandler.Activate)
	admin.POST("/users/:id/deactivate", adminHandler.Deactivate)
	admin.GET("/users/:id/tasks", adminHandler.ListUserTasks)
	admin.GET("/stats", adminHandler.Stats)

	return r
}
