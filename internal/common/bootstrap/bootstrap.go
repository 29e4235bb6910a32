// Package bootstrap wires configuration, infrastructure and every feature
// package into one http.Handler.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	authhttp "github.com/AlibekovAA/social-hub/internal/auth/http"
	authservice "github.com/AlibekovAA/social-hub/internal/auth/service"
	"github.com/AlibekovAA/social-hub/internal/auth/session"
	"github.com/AlibekovAA/social-hub/internal/common/clock"
	"github.com/AlibekovAA/social-hub/internal/common/config"
	"github.com/AlibekovAA/social-hub/internal/common/constants"
	"github.com/AlibekovAA/social-hub/internal/common/crypto"
	"github.com/AlibekovAA/social-hub/internal/common/db"
	commonhttp "github.com/AlibekovAA/social-hub/internal/common/http"
	"github.com/AlibekovAA/social-hub/internal/common/logger"
	"github.com/AlibekovAA/social-hub/internal/common/resilience"
	"github.com/AlibekovAA/social-hub/internal/common/server"
	feedhttp "github.com/AlibekovAA/social-hub/internal/feed/http"
	feedrepo "github.com/AlibekovAA/social-hub/internal/feed/repository"
	feedservice "github.com/AlibekovAA/social-hub/internal/feed/service"
	followhttp "github.com/AlibekovAA/social-hub/internal/follow/http"
	followrepo "github.com/AlibekovAA/social-hub/internal/follow/repository"
	followservice "github.com/AlibekovAA/social-hub/internal/follow/service"
	"github.com/AlibekovAA/social-hub/internal/messaging/codec"
	messaginghttp "github.com/AlibekovAA/social-hub/internal/messaging/http"
	"github.com/AlibekovAA/social-hub/internal/messaging/notify"
	messagingrepo "github.com/AlibekovAA/social-hub/internal/messaging/repository"
	messagingservice "github.com/AlibekovAA/social-hub/internal/messaging/service"
	"github.com/AlibekovAA/social-hub/internal/migrations"
	"github.com/AlibekovAA/social-hub/internal/storage"
	"github.com/AlibekovAA/social-hub/internal/user/activity"
	userdomain "github.com/AlibekovAA/social-hub/internal/user/domain"
	userhttp "github.com/AlibekovAA/social-hub/internal/user/http"
	userrepo "github.com/AlibekovAA/social-hub/internal/user/repository"
	userservice "github.com/AlibekovAA/social-hub/internal/user/service"
)

const serviceName = "social-hub"

type App struct {
	Config  config.AppConfig
	Log     *logger.Logger
	Pool    *pgxpool.Pool
	Handler http.Handler

	cancel  context.CancelFunc
	wg      sync.WaitGroup
	closers []server.ShutdownHook
}

// NewApp loads configuration and builds the application. The returned App
// owns background workers; ShutdownHooks stops them.
func NewApp(ctx context.Context) (*App, error) {
	cfg, err := config.LoadAppConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.LogDir, serviceName, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if cfg.RunMigrations {
		if err := migrations.Up(ctx, log, cfg.DatabaseURL); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	pool, err := db.NewPool(ctx, log, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database pool: %w", err)
	}

	bgCtx, cancel := context.WithCancel(context.Background())
	app := &App{Config: cfg, Log: log, Pool: pool, cancel: cancel}

	db.StartPoolMetrics(bgCtx, pool, constants.DBPoolMetricsInterval)

	handler, err := app.wire(ctx, bgCtx)
	if err != nil {
		cancel()
		pool.Close()
		return nil, err
	}
	app.Handler = handler
	return app, nil
}

func (a *App) spawn(fn func()) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		fn()
	}()
}

func (a *App) onShutdown(hook server.ShutdownHook) {
	a.closers = append(a.closers, hook)
}

// ShutdownHooks stops background work. Close releases the pool once the
// server has stopped serving.
func (a *App) ShutdownHooks() []server.ShutdownHook {
	hooks := append([]server.ShutdownHook{}, a.closers...)
	return append(hooks, func(ctx context.Context) error {
		a.cancel()
		done := make(chan struct{})
		go func() {
			a.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return fmt.Errorf("background workers still running: %w", ctx.Err())
		}
	})
}

func (a *App) Close() {
	a.cancel()
	a.Pool.Close()
}

func (a *App) wire(ctx context.Context, bgCtx context.Context) (http.Handler, error) {
	cfg, log := a.Config, a.Log
	clk := clock.NewRealClock()
	ids := crypto.NewUUIDGenerator()
	pingers := map[string]commonhttp.Pinger{"database": a.Pool}

	sessions, err := a.sessionStore(ctx, bgCtx, clk, pingers)
	if err != nil {
		return nil, err
	}
	objects := a.objectStore(ctx, pingers)

	users := userrepo.NewPgRepository(a.Pool, log)
	follows := followrepo.NewPgRepository(a.Pool)
	posts := feedrepo.NewPgPostRepository(a.Pool, log)
	files := feedrepo.NewPgFileRepository(a.Pool, log)
	messages := messagingrepo.NewPgRepository(a.Pool, log)

	breaker := resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Threshold:  constants.DefaultCircuitBreakerThreshold,
		Timeout:    constants.DefaultCircuitBreakerTimeout,
		ResetAfter: constants.DefaultCircuitBreakerReset,
		Name:       "last_seen",
		Logger:     log,
		Clock:      clk,
	})
	lastSeen := activity.NewLastSeenUpdater(bgCtx, users, log, constants.LastSeenMinInterval, breaker, clk)
	a.onShutdown(func(context.Context) error {
		lastSeen.Stop()
		return nil
	})

	uploader := storage.NewUploader(objects, ids, cfg.MaxUploadBytes, log)
	admins := userservice.NewAdminResolver(users, cfg.AdminUserID, log)
	followSvc := followservice.NewService(follows, users, admins, log, cfg.RequestTimeout)
	profileSvc := userservice.NewProfileService(users, followSvc, uploader, log, cfg.RequestTimeout)

	authSvc := authservice.NewAuthService(authservice.Deps{
		Repo:        users,
		Sessions:    sessions,
		Hasher:      crypto.NewBcryptHasher(crypto.DefaultBcryptCost),
		IDGenerator: ids,
		Admins:      admins,
		Follows:     followSvc,
		Activity:    lastSeen,
		Clock:       clk,
		Log:         log,
	})

	hub := notify.NewHub(log)
	a.spawn(func() { hub.Run(bgCtx) })

	messagingSvc := messagingservice.NewService(messagingservice.Deps{
		Repo:     messages,
		Users:    users,
		Codec:    codec.NewBase64Obfuscator(),
		Notifier: hub,
		Log:      log,
		Timeout:  cfg.RequestTimeout,
	})

	feedSvc := feedservice.NewService(feedservice.Deps{
		Posts:    posts,
		Files:    files,
		Admins:   admins,
		Follows:  followSvc,
		Uploader: uploader,
		Users:    users,
		Messages: messagingSvc,
		Clock:    clk,
		Log:      log,
		Timeout:  cfg.RequestTimeout,
	})

	flash := commonhttp.NewFlashCodec([]byte(cfg.SessionSecret), constants.FlashTTL)
	respond := commonhttp.NewResponder(log, flash)
	gates := authhttp.NewGates(respond)
	limiter := commonhttp.NewStrictRateLimiter(authhttp.ClientKey)
	a.onShutdown(func(context.Context) error {
		limiter.Stop()
		return nil
	})

	authed := gates.RequireAuthenticated
	adminOnly := gates.RequireRole(userdomain.RoleAdmin)
	upload := commonhttp.WithTimeout(cfg.UploadTimeout)

	mux := http.NewServeMux()
	authhttp.NewHandler(authSvc, gates, respond, log).Register(mux, limiter.Middleware(commonhttp.LimitLogin), limiter.Middleware(commonhttp.LimitRegister))
	followhttp.NewHandler(followSvc, respond, log).Register(mux, authed)
	userhttp.NewHandler(profileSvc, respond, log, cfg.MaxUploadBytes).Register(mux, authed)
	feedhttp.NewHandler(feedSvc, respond, log, cfg.MaxUploadBytes).Register(mux, authed, adminOnly, upload)
	messaginghttp.NewHandler(messagingSvc, hub, respond, log).Register(mux, authed, limiter.Middleware(commonhttp.LimitSend))

	mux.Handle("GET /media/{key...}", authed(http.HandlerFunc(storage.NewHandler(objects, log).ServeMedia)))
	mux.HandleFunc("GET /health", commonhttp.HealthHandler(log, pingers))
	mux.Handle("GET /metrics", promhttp.Handler())

	routed := commonhttp.Chain(mux,
		limiter.Middleware(commonhttp.LimitGeneral),
		authhttp.SessionMiddleware(authSvc, log),
	)
	return commonhttp.BuildBaseHandler(log, constants.DefaultMaxRequestSize, cfg.MaxUploadBytes, routed), nil
}

// sessionStore prefers Redis when configured. The in-memory store is only
// suitable for a single instance.
func (a *App) sessionStore(ctx, bgCtx context.Context, clk clock.Clock, pingers map[string]commonhttp.Pinger) (session.Store, error) {
	cfg, log := a.Config, a.Log

	if cfg.RedisAddr == "" {
		log.Warn("REDIS_ADDR not set, keeping sessions in memory")
		store := session.NewMemoryStore(cfg.SessionTTL, clk)
		a.spawn(func() { session.StartCleanup(bgCtx, store, log, constants.SessionSweepInterval) })
		return store, nil
	}

	client := session.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword)
	store := session.NewRedisStore(client, cfg.SessionTTL)

	pingCtx, cancel := context.WithTimeout(ctx, constants.SessionStoreTimeout)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.RedisAddr, err)
	}

	pingers["sessions"] = store
	a.onShutdown(func(context.Context) error { return closeRedis(client) })
	log.Infof("sessions stored in redis at %s", cfg.RedisAddr)
	return store, nil
}

func closeRedis(client *redis.Client) error {
	if err := client.Close(); err != nil {
		return fmt.Errorf("close redis: %w", err)
	}
	return nil
}

// objectStore falls back to a disabled store so the rest of the site keeps
// working when MinIO is missing or unreachable.
func (a *App) objectStore(ctx context.Context, pingers map[string]commonhttp.Pinger) storage.ObjectStore {
	cfg, log := a.Config, a.Log

	if !cfg.Storage.Enabled() {
		log.Warn("object storage not configured, uploads disabled")
		return storage.DisabledStore{}
	}

	initCtx, cancel := context.WithTimeout(ctx, constants.ObjectStoreInitTimeout)
	defer cancel()

	store, err := storage.NewMinioStore(initCtx, cfg.Storage)
	if err != nil {
		log.Errorf("object storage unavailable, uploads disabled: %v", err)
		return storage.DisabledStore{}
	}

	pingers["storage"] = store
	log.Infof("object storage bucket %s at %s", cfg.Storage.Bucket, cfg.Storage.Endpoint)
	return store
}
