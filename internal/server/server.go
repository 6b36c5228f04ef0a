// Package server provides the application composition root and lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/jobparser/internal/api"
	"github.com/JakeFAU/jobparser/internal/cache"
	memorycache "github.com/JakeFAU/jobparser/internal/cache/memory"
	rediscache "github.com/JakeFAU/jobparser/internal/cache/redis"
	"github.com/JakeFAU/jobparser/internal/config"
	"github.com/JakeFAU/jobparser/internal/dispatcher"
	"github.com/JakeFAU/jobparser/internal/extract"
	"github.com/JakeFAU/jobparser/internal/fetcher/headless"
	"github.com/JakeFAU/jobparser/internal/fetcher/static"
	"github.com/JakeFAU/jobparser/internal/hash/sha256"
	"github.com/JakeFAU/jobparser/internal/headless/detector"
	"github.com/JakeFAU/jobparser/internal/logging"
	"github.com/JakeFAU/jobparser/internal/metrics"
	"github.com/JakeFAU/jobparser/internal/policy/ratelimit"
	"github.com/JakeFAU/jobparser/internal/render"
	gcsstorage "github.com/JakeFAU/jobparser/internal/storage/gcs"
	localstorage "github.com/JakeFAU/jobparser/internal/storage/local"
	memorystorage "github.com/JakeFAU/jobparser/internal/storage/memory"
)

const httpShutdownTimeout = 10 * time.Second

// App contains the application's dependencies.
type App struct {
	cfg       *config.Config
	logger    *zap.Logger
	apiServer *api.Server
	dispatch  *dispatcher.Dispatcher
	queue     *render.Queue
	service   *render.Service
	storage   *storage.Client
	cache     cache.Cache

	closeOnce sync.Once
	closeErr  error
}

// Dispatcher returns the extraction entry point.
func (a *App) Dispatcher() *dispatcher.Dispatcher {
	return a.dispatch
}

// RenderQueue returns the shared render queue.
func (a *App) RenderQueue() *render.Queue {
	return a.queue
}

// Logger returns the root logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Handler returns the HTTP handler for the API surface.
func (a *App) Handler() http.Handler {
	return a.apiServer.Handler()
}

// Run serves HTTP until ctx is canceled or SIGINT/SIGTERM arrives, then drains.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.logger.Info("http server started", zap.Int("port", a.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	a.logger.Info("shutdown initiated")

	httpCtx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(httpCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
	}

	return a.Close(context.Background())
}

// Close drains the render queue and releases infrastructure clients. Only the
// first call does any work.
func (a *App) Close(ctx context.Context) error {
	a.closeOnce.Do(func() { a.closeErr = a.close(ctx) })
	return a.closeErr
}

func (a *App) close(ctx context.Context) error {
	var errs []error
	if a.queue != nil {
		grace := a.queue.Config().ShutdownGrace
		drainCtx, cancel := context.WithTimeout(ctx, grace+time.Second)
		if err := a.queue.Shutdown(drainCtx); err != nil {
			a.logger.Warn("render queue shutdown", zap.Error(err))
			errs = append(errs, err)
		}
		cancel()
	}
	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			a.logger.Warn("gcs client close failed", zap.Error(err))
			errs = append(errs, fmt.Errorf("close gcs client: %w", err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("result cache close failed", zap.Error(err))
			errs = append(errs, err)
		}
	}
	a.logger.Info("shutdown complete")
	_ = a.logger.Sync()
	return errors.Join(errs...)
}

// Build creates the application's dependencies.
func Build(ctx context.Context, cfg *config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("logger init failed: %w", err)
	}
	zap.ReplaceGlobals(logger)
	return BuildWithLogger(ctx, cfg, logger)
}

// BuildWithLogger wires the pipeline around an existing logger.
func BuildWithLogger(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics.Init()
	app := &App{cfg: cfg, logger: logger}
	logger.Info("building application dependencies",
		zap.Int("port", cfg.Server.Port),
		zap.Bool("render_enabled", cfg.Render.Enabled),
		zap.String("snapshot_backend", cfg.Storage.SnapshotBackend),
		zap.String("cache_backend", cfg.Cache.Backend),
	)

	fetcher := static.New(static.Config{
		UserAgent:       cfg.Fetch.UserAgent,
		Timeout:         cfg.FetchTimeout(),
		MinContentChars: cfg.Fetch.MinContentChars,
		Limiter: ratelimit.New(ratelimit.Config{
			PerHostRPS:   cfg.Fetch.PerHostRPS,
			PerHostBurst: cfg.Fetch.PerHostBurst,
		}),
	}, logger.Named("fetcher"))

	app.queue = render.NewQueue(renderConfig(cfg), setupEngine(cfg, logger), logger)
	detect := detector.NewHeuristic(cfg.Render.PromotionThreshold, cfg.Render.JSHeavyDomains...)
	app.service = render.NewService(fetcher, app.queue, detect, logger)

	snapshots, err := setupSnapshots(ctx, app)
	if err != nil {
		return nil, err
	}

	deps := extract.Deps{
		Source:    app.service,
		Snapshots: snapshots,
		Logger:    logger.Named("extract"),
		Config: extract.Config{
			MinElementCount: cfg.Extract.MinElementCount,
			RenderWait:      seconds(cfg.Render.DefaultWaitSeconds),
		},
	}
	app.dispatch = dispatcher.New(extract.Default(deps, cfg.Extract.GenericFallback), logger)
	if err := setupCache(ctx, app); err != nil {
		return nil, err
	}
	if app.cache != nil {
		app.dispatch.WithCache(app.cache, cfg.CacheTTL())
	}
	app.apiServer = api.NewServer(app.dispatch, app.queue, *cfg, logger)
	return app, nil
}

func renderConfig(cfg *config.Config) render.Config {
	return render.Config{
		MaxConcurrentInstances: cfg.Render.MaxConcurrentInstances,
		QueueTimeout:           seconds(cfg.Render.QueueTimeoutSeconds),
		RequestTimeout:         seconds(cfg.Render.RequestTimeoutSeconds),
		DefaultWait:            seconds(cfg.Render.DefaultWaitSeconds),
		ShutdownGrace:          seconds(cfg.Render.ShutdownGraceSeconds),
	}
}

func setupEngine(cfg *config.Config, logger *zap.Logger) render.Engine {
	if !cfg.Render.Enabled {
		logger.Info("rendering disabled by configuration")
		return headless.NewNoop()
	}
	return headless.NewChromedp(headless.Config{
		UserAgent:    cfg.Fetch.UserAgent,
		BrowserPaths: cfg.Render.BrowserPaths,
		SettleDelay:  time.Duration(cfg.Render.SettleMillis) * time.Millisecond,
		NoSandbox:    cfg.Render.NoSandbox,
	}, logger.Named("chromedp"))
}

func setupSnapshots(ctx context.Context, app *App) (*extract.Snapshotter, error) {
	var store extract.BlobStore
	switch app.cfg.Storage.SnapshotBackend {
	case "gcs":
		app.logger.Info("using GCS snapshot backend", zap.String("bucket", app.cfg.Storage.GCSBucket))
		gcs, client, err := gcsstorage.Open(ctx, gcsstorage.Config{Bucket: app.cfg.Storage.GCSBucket})
		if err != nil {
			return nil, fmt.Errorf("gcs blob store init failed: %w", err)
		}
		app.storage = client
		store = gcs
	case "local":
		app.logger.Info("using local snapshot backend", zap.String("path", app.cfg.Storage.LocalDir))
		local, err := localstorage.New(localstorage.Config{BaseDir: app.cfg.Storage.LocalDir})
		if err != nil {
			return nil, fmt.Errorf("local blob store init failed: %w", err)
		}
		store = local
	case "memory":
		app.logger.Info("using in-memory snapshot backend")
		store = memorystorage.NewBlobStore()
	default:
		app.logger.Info("failure snapshots disabled")
		return nil, nil
	}
	return extract.NewSnapshotter(store, sha256.New(), app.cfg.Storage.Prefix, app.logger), nil
}

func setupCache(ctx context.Context, app *App) error {
	opts := cache.Options{
		DefaultTTL:    app.cfg.CacheTTL(),
		MaxEntries:    app.cfg.Cache.MaxEntries,
		RedisAddr:     app.cfg.Cache.RedisAddr,
		RedisPassword: app.cfg.Cache.RedisPassword,
		RedisDB:       app.cfg.Cache.RedisDB,
	}
	switch app.cfg.Cache.Backend {
	case "redis":
		app.logger.Info("using redis result cache", zap.String("addr", opts.RedisAddr))
		rc, err := rediscache.New(opts)
		if err != nil {
			return fmt.Errorf("redis cache init failed: %w", err)
		}
		if err := rc.Ping(ctx); err != nil {
			_ = rc.Close()
			return fmt.Errorf("redis cache init failed: %w", err)
		}
		app.cache = rc
	case "memory":
		app.logger.Info("using in-memory result cache")
		app.cache = memorycache.New(opts)
	default:
		app.logger.Info("result cache disabled")
	}
	return nil
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
