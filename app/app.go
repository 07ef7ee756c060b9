// Package app wires the service together: configuration, storage, the
// middleware chain, and the HTTP surface.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/flowpilot/auth"
	"github.com/dmitrymomot/flowpilot/content"
	"github.com/dmitrymomot/flowpilot/core/cookie"
	"github.com/dmitrymomot/flowpilot/core/handler"
	"github.com/dmitrymomot/flowpilot/core/logger"
	"github.com/dmitrymomot/flowpilot/core/response"
	"github.com/dmitrymomot/flowpilot/core/router"
	"github.com/dmitrymomot/flowpilot/integration/database/pg"
	"github.com/dmitrymomot/flowpilot/integration/database/redis"
	"github.com/dmitrymomot/flowpilot/middleware"
	"github.com/dmitrymomot/flowpilot/optimize"
	"github.com/dmitrymomot/flowpilot/storage"
)

// Ctx is the request context type used by every route.
type Ctx = *handler.RequestContext

// App is the assembled service.
type App struct {
	cfg    Config
	log    *slog.Logger
	router *router.Router[Ctx]
	pool   *pgxpool.Pool
	cache  *goredis.Client
}

// New builds the service: connects storage, applies migrations, and
// registers the HTTP surface.
func New(ctx context.Context, cfg Config, log *slog.Logger) (*App, error) {
	cookies, err := cookie.NewFromConfig(cfg.Cookie)
	if err != nil {
		return nil, fmt.Errorf("cookie manager: %w", err)
	}

	pool, err := pg.Connect(ctx, cfg.PG)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	if err := pg.Migrate(ctx, pool, cfg.PG, log); err != nil && !errors.Is(err, pg.ErrMigrationsDirNotFound) {
		pool.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	cache, err := redis.Connect(ctx, cfg.Redis)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("redis: %w", err)
	}

	store := storage.New(pool)
	contentSvc := content.NewService(
		content.NewFetcher(cfg.Content),
		content.NewCache(cache, cfg.Content.CacheTTL),
		log,
	)

	a := &App{
		cfg:   cfg,
		log:   log,
		pool:  pool,
		cache: cache,
	}
	a.router = a.buildRouter(cookies, store, contentSvc)
	return a, nil
}

func (a *App) buildRouter(cookies *cookie.Manager, store *storage.Store, contentSvc *content.Service) *router.Router[Ctx] {
	r := router.New(
		router.WithLogger[Ctx](a.log),
		router.WithErrorHandler[Ctx](response.JSONErrorHandler[Ctx]),
	)

	r.Use(
		middleware.RequestID[Ctx](),
		middleware.LoggingWithConfig[Ctx](middleware.LoggingConfig{
			Logger: a.log,
			Skip: func(ctx handler.Context) bool {
				return ctx.Request().URL.Path == "/healthz"
			},
		}),
		middleware.ProviderBinding[Ctx](a.cfg.Auth, a.log),
		middleware.ResolveIdentity[Ctx](),
	)

	authHandlers := auth.NewHandlers(a.cfg.Auth, cookies)
	r.Get("/auth/login/{provider}", auth.Login[Ctx](authHandlers))
	r.Get("/auth/callback", auth.Callback[Ctx](authHandlers))
	r.Get("/auth/logout", auth.Logout[Ctx](authHandlers))
	r.Get("/auth/app-install", auth.AppInstall[Ctx](authHandlers))

	optimizeHandler := optimize.NewHandler(store, contentSvc, nil)
	r.Post("/api/optimize", optimize.Optimize[Ctx](optimizeHandler))

	r.Get("/healthz", a.healthz())

	return r
}

// healthz reports readiness of the service's backing stores.
func (a *App) healthz() handler.HandlerFunc[Ctx] {
	pgCheck := pg.Healthcheck(a.pool)
	redisCheck := redis.Healthcheck(a.cache)

	return func(ctx Ctx) handler.Response {
		if err := pgCheck(ctx); err != nil {
			return response.Error(response.ErrServiceUnavailable.WithError(err))
		}
		if err := redisCheck(ctx); err != nil {
			return response.Error(response.ErrServiceUnavailable.WithError(err))
		}
		return response.JSON(map[string]string{"status": "ok"})
	}
}

// Run serves HTTP until the context is canceled, then shuts down
// gracefully within the configured timeout.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    a.cfg.Addr,
		Handler: a.router,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.InfoContext(ctx, "http server starting",
			logger.Component("app"),
			slog.String("addr", a.cfg.Addr),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	a.log.Info("http server stopped", logger.Component("app"))
	return nil
}

// Close releases the backing store connections.
func (a *App) Close() {
	if a.cache != nil {
		_ = a.cache.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

// Handler exposes the assembled router, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.router
}
