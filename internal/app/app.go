// Package app assembles the service from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"task-tracker/backend/internal/breaker"
	"task-tracker/backend/internal/cache"
	"task-tracker/backend/internal/config"
	"task-tracker/backend/internal/database"
	"task-tracker/backend/internal/mail"
	"task-tracker/backend/internal/models"
	"task-tracker/backend/internal/monitoring"
	"task-tracker/backend/internal/ratelimit"
	"task-tracker/backend/internal/router"
	"task-tracker/backend/internal/security"
	"task-tracker/backend/internal/services"
	"task-tracker/backend/internal/session"
	"task-tracker/backend/internal/store"
	"task-tracker/backend/internal/store/gormstore"
	"task-tracker/backend/internal/store/mongostore"
	"task-tracker/backend/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

const (
	mailQueue        = "mail"
	loginLimitPrefix = "rate_limit:"
)

type Option func(*options)

type options struct {
	mailer      mail.Mailer
	redisClient *redis.Client
}

// WithMailer replaces SMTP delivery.
func WithMailer(m mail.Mailer) Option {
	return func(o *options) { o.mailer = m }
}

// WithRedisClient reuses an existing client instead of dialing one.
func WithRedisClient(c *redis.Client) Option {
	return func(o *options) { o.redisClient = c }
}

type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Handler *gin.Engine
	Monitor *monitoring.Monitor

	worker  *worker.Worker
	closers []func(context.Context) error
}

type repositories struct {
	users store.Repository[models.User]
	tasks store.Repository[models.Task]
}

func New(ctx context.Context, cfg *config.Config, log *zap.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if log == nil {
		log = zap.NewNop()
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	a := &App{Config: cfg, Logger: log, Monitor: monitoring.NewMonitor()}

	repos, err := a.openStore(ctx)
	if err != nil {
		a.Shutdown(ctx)
		return nil, err
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb = o.redisClient
		if rdb == nil {
			rdb = cache.NewRedisClient(&cache.ClientConfig{
				Addr:         cfg.GetRedisAddr(),
				Password:     cfg.Redis.Password,
				DB:           cfg.Redis.DB,
				PoolSize:     cfg.Redis.PoolSize,
				MinIdleConns: cfg.Redis.MinIdleConns,
				MaxRetries:   cfg.Redis.MaxRetries,
				DialTimeout:  cfg.Redis.DialTimeout,
				ReadTimeout:  cfg.Redis.ReadTimeout,
				WriteTimeout: cfg.Redis.WriteTimeout,
			})
			a.closers = append(a.closers, func(context.Context) error { return rdb.Close() })
		}
		a.Monitor.RegisterHealthCheck("redis", func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
	}

	var denylist security.Denylist = security.NewMemoryDenylist()
	if rdb != nil {
		denylist = security.NewRedisDenylist(rdb)
	}

	mailer := a.buildMailer(o.mailer, rdb)

	authSvc := services.NewAuthService(
		repos.users,
		security.NewBcryptHasher(cfg.Auth.BCryptCost),
		security.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.Issuer),
		denylist,
		mailer,
		services.AuthConfig{
			SessionTTL: cfg.Auth.SessionTTL,
			ResetTTL:   cfg.Auth.ResetTTL,
			ResetURL:   cfg.Mail.ResetURL,
		},
		log,
	)

	var taskSvc services.TaskService = services.NewTaskService(repos.tasks, log)
	if rdb != nil {
		rc := cache.NewRedisCache(rdb)
		taskSvc = services.NewCachedTaskService(taskSvc, rc, cfg.Redis.CacheTTL, log)
		a.Monitor.RegisterStats("cache", rc.Stats)
	}

	a.Handler = router.New(router.Deps{
		Auth:           authSvc,
		Tasks:          taskSvc,
		Cookie:         session.NewCookie(cfg.Auth.CookieName, cfg.Auth.CookieDomain, cfg.IsProduction()),
		Monitor:        a.Monitor,
		Logger:         log,
		LoginLimiter:   a.buildLoginLimiter(rdb),
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		ExposeCause:    cfg.Server.ExposeErrors,
	})

	return a, nil
}

func (a *App) openStore(ctx context.Context) (*repositories, error) {
	cfg := a.Config

	if cfg.Database.Driver == "mongo" {
		mc, err := database.ConnectMongo(ctx, cfg.Database.MongoURI, cfg.Database.Name)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, mc.Close)

		if err := mongostore.EnsureIndexes(ctx, mc.DB); err != nil {
			return nil, err
		}
		a.Monitor.RegisterHealthCheck("database", func(context.Context) error { return mc.Health() })

		return &repositories{
			users: mongostore.New[models.User](mc.DB.Collection(mongostore.UsersCollection)),
			tasks: mongostore.New[models.Task](mc.DB.Collection(mongostore.TasksCollection)),
		}, nil
	}

	dsn := cfg.GetDatabaseDSN()
	if cfg.Database.Driver == "sqlite" {
		dsn = cfg.Database.SQLitePath
	}

	logLevel := gormlogger.Warn
	if cfg.IsProduction() {
		logLevel = gormlogger.Error
	}

	pool, err := database.NewDatabasePool(&database.PoolConfig{
		Driver:          cfg.Database.Driver,
		DSN:             dsn,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		LogLevel:        logLevel,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return pool.Close() })

	if err := pool.AutoMigrate(&models.User{}, &models.Task{}); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	a.Monitor.RegisterHealthCheck("database", func(context.Context) error { return pool.Health() })
	a.Monitor.RegisterStats("database", pool.Stats)

	return &repositories{
		users: gormstore.New[models.User](pool.DB),
		tasks: gormstore.New[models.Task](pool.DB),
	}, nil
}

// buildMailer wraps delivery in a circuit breaker. With async mail the
// request path only enqueues and the worker delivers.
func (a *App) buildMailer(override mail.Mailer, rdb *redis.Client) mail.Mailer {
	cfg := a.Config

	var delivery mail.Mailer = override
	if delivery == nil {
		delivery = mail.NewSMTPMailer(mail.SMTPConfig{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
		})
	}

	guarded := mail.NewBreakerMailer(delivery, breaker.New(&breaker.Config{
		MaxFailures:      cfg.Mail.BreakerTrips,
		Timeout:          cfg.Mail.BreakerReset,
		HalfOpenMaxCalls: 1,
	}))
	a.Monitor.RegisterStats("mail_breaker", guarded.Stats)

	if !cfg.Mail.Async || rdb == nil {
		return guarded
	}

	a.worker = worker.NewWorker(worker.WorkerConfig{
		RedisClient:  rdb,
		PollInterval: cfg.Worker.PollInterval,
		Queues:       cfg.Worker.Queues,
		Logger:       a.Logger,
	})
	a.worker.RegisterHandler(worker.JobTypePasswordResetEmail, mail.JobHandler(guarded))

	jobs := worker.NewJobQueue(rdb)
	a.Monitor.RegisterStats("mail_queue", queueDepth(jobs, mailQueue, worker.RetryQueue, worker.DeadQueue))

	return mail.NewQueueMailer(jobs, mailQueue)
}

func queueDepth(jobs *worker.JobQueue, queues ...string) monitoring.StatsFunc {
	return func() map[string]any {
		out := make(map[string]any, len(queues))
		for _, q := range queues {
			size, err := jobs.GetQueueSize(context.Background(), q)
			if err != nil {
				out[q] = "unavailable"
				continue
			}
			out[q] = size
		}
		return out
	}
}

func (a *App) buildLoginLimiter(rdb *redis.Client) ratelimit.Limiter {
	cfg := a.Config.RateLimit
	if !cfg.Enabled {
		return nil
	}

	if cfg.Backend == "redis" && rdb != nil {
		return ratelimit.NewRedisLimiter(rdb, loginLimitPrefix, cfg.LoginAttempts, cfg.LoginWindow)
	}

	limiter := ratelimit.NewMemoryLimiter(cfg.LoginAttempts, cfg.LoginWindow, cfg.CleanupInterval)
	a.closers = append(a.closers, func(context.Context) error {
		limiter.Close()
		return nil
	})
	return limiter
}

// Start launches background workers.
func (a *App) Start() {
	if a.worker != nil {
		a.worker.Start(a.Config.Worker.Concurrency)
	}
}

// Server wraps the handler with the configured timeouts.
func (a *App) Server() *http.Server {
	return &http.Server{
		Addr:         a.Config.GetServerAddr(),
		Handler:      a.Handler,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Shutdown stops workers and releases connections in reverse order.
func (a *App) Shutdown(ctx context.Context) error {
	if a.worker != nil {
		a.worker.Stop()
		a.worker = nil
	}

	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
