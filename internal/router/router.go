package router

import (
	"time"

	"task-tracker/backend/internal/handlers"
	"task-tracker/backend/internal/middleware"
	"task-tracker/backend/internal/monitoring"
	"task-tracker/backend/internal/ratelimit"
	"task-tracker/backend/internal/services"
	"task-tracker/backend/internal/session"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Deps struct {
	Auth    services.AuthService
	Tasks   services.TaskService
	Cookie  *session.Cookie
	Monitor *monitoring.Monitor
	Logger  *zap.Logger

	// LoginLimiter is nil when login throttling is disabled.
	LoginLimiter   ratelimit.Limiter
	AllowedOrigins []string
	ExposeCause    bool
}

func New(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Monitor == nil {
		d.Monitor = monitoring.NewMonitor()
	}

	r := gin.New()
	r.Use(middleware.RequestLogger(d.Logger.Named("http")))
	r.Use(middleware.RecoveryWithLog(d.Logger))
	r.Use(d.Monitor.Middleware())
	if len(d.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     d.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
			ExposeHeaders:    []string{middleware.RequestIDHeader, "Retry-After"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	authH := handlers.NewAuthHandler(d.Auth, d.Cookie, d.ExposeCause)
	registerH := handlers.NewRegisterHandler(d.Auth, d.ExposeCause)
	logoutH := handlers.NewLogoutHandler(d.Auth, d.Cookie)
	userH := handlers.NewUserHandler(d.Auth, d.ExposeCause)
	taskH := handlers.NewTaskHandler(d.Tasks, d.ExposeCause)

	requireSession := middleware.RequireSession(d.Auth, d.Cookie, d.ExposeCause)

	r.GET("/health", d.Monitor.HealthHandler())
	r.GET("/health/live", d.Monitor.LivenessHandler())
	r.GET("/health/ready", d.Monitor.ReadinessHandler())
	r.GET("/metrics", d.Monitor.MetricsHandler())

	users := r.Group("/users")
	{
		users.POST("", registerH.Registration)

		login := []gin.HandlerFunc{authH.Login}
		if d.LoginLimiter != nil {
			login = append([]gin.HandlerFunc{
				middleware.RateLimit(d.LoginLimiter, "login", d.Logger, d.ExposeCause),
			}, login...)
		}
		users.POST("/login", login...)

		users.POST("/logout", logoutH.Logout)
		users.POST("/forgot-password", authH.ForgotPassword)
		users.POST("/reset-password", authH.ResetPassword)

		users.GET("/me", requireSession, userH.Me)
		users.PUT("/edit-me", requireSession, userH.EditMe)
	}

	tasks := r.Group("/tasks", requireSession)
	{
		tasks.GET("", taskH.ListTasks)
		tasks.POST("", taskH.CreateTask)
		tasks.GET("/:id", taskH.GetTask)
		tasks.PUT("/:id", taskH.UpdateTask)
		tasks.DELETE("/:id", taskH.DeleteTask)
	}

	return r
}
