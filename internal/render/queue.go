// Package render bounds access to the headless rendering engine and decides
// when a URL should be rendered rather than fetched statically.
package render

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/JakeFAU/jobparser/internal/document"
	"github.com/JakeFAU/jobparser/internal/job"
	"github.com/JakeFAU/jobparser/internal/metrics"
)

// Engine executes JavaScript for a single page and returns the rendered HTML.
type Engine interface {
	Available() bool
	Render(ctx context.Context, url string, wait time.Duration) (string, error)
}

// Config controls admission and timeouts.
type Config struct {
	MaxConcurrentInstances int
	QueueTimeout           time.Duration
	RequestTimeout         time.Duration
	DefaultWait            time.Duration
	ShutdownGrace          time.Duration
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		MaxConcurrentInstances: 3,
		QueueTimeout:           60 * time.Second,
		RequestTimeout:         30 * time.Second,
		DefaultWait:            5 * time.Second,
		ShutdownGrace:          10 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxConcurrentInstances <= 0 {
		c.MaxConcurrentInstances = d.MaxConcurrentInstances
	}
	if c.QueueTimeout <= 0 {
		c.QueueTimeout = d.QueueTimeout
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = d.RequestTimeout
	}
	if c.DefaultWait <= 0 {
		c.DefaultWait = d.DefaultWait
	}
	if c.ShutdownGrace <= 0 {
		c.ShutdownGrace = d.ShutdownGrace
	}
	return c
}

// Status is a point-in-time snapshot of the queue.
type Status struct {
	Available              bool  `json:"available"`
	ActiveInstances        int64 `json:"activeInstances"`
	QueuedRequests         int64 `json:"queuedRequests"`
	MaxConcurrentInstances int64 `json:"maxConcurrentInstances"`
	AvailableSlots         int64 `json:"availableSlots"`
}

// Queue admits at most MaxConcurrentInstances renders at once, serving waiters
// in arrival order. The active and queued counters are observability only.
type Queue struct {
	cfg       Config
	engine    Engine
	gate      *semaphore.Weighted
	available bool
	logger    *zap.Logger

	active atomic.Int64
	queued atomic.Int64

	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup

	baseCtx    context.Context
	baseCancel context.CancelFunc
}

type renderResult struct {
	doc *document.Document
	err error
}

// NewQueue builds a queue around engine. Engine availability is probed once here.
func NewQueue(cfg Config, engine Engine, logger *zap.Logger) *Queue {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()
	baseCtx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		cfg:        cfg,
		engine:     engine,
		gate:       semaphore.NewWeighted(int64(cfg.MaxConcurrentInstances)),
		available:  engine != nil && engine.Available(),
		logger:     logger.Named("render_queue"),
		baseCtx:    baseCtx,
		baseCancel: cancel,
	}
	q.logger.Info("render queue initialized",
		zap.Bool("available", q.available),
		zap.Int("max_concurrent_instances", cfg.MaxConcurrentInstances),
		zap.Duration("queue_timeout", cfg.QueueTimeout),
		zap.Duration("request_timeout", cfg.RequestTimeout),
	)
	return q
}

// IsAvailable reports whether a rendering engine was found at startup.
func (q *Queue) IsAvailable() bool {
	return q.available
}

// Config returns the effective configuration.
func (q *Queue) Config() Config {
	return q.cfg
}

// Status recomputes the queue snapshot.
func (q *Queue) Status() Status {
	maxInstances := int64(q.cfg.MaxConcurrentInstances)
	active := clamp(q.active.Load(), 0, maxInstances)
	return Status{
		Available:              q.available,
		ActiveInstances:        active,
		QueuedRequests:         max(q.queued.Load(), 0),
		MaxConcurrentInstances: maxInstances,
		AvailableSlots:         maxInstances - active,
	}
}

// FetchRendered renders url through the engine once a slot is free. A
// non-positive wait uses the configured default. The call never blocks longer
// than QueueTimeout+RequestTimeout; when that budget is exceeded the render
// task is cancelled and a QueueTimeout error is returned.
func (q *Queue) FetchRendered(ctx context.Context, url string, wait time.Duration) (*document.Document, error) {
	if !q.available {
		metrics.ObserveRender("unavailable")
		return nil, job.Errorf(job.KindRenderUnavailable, "rendering engine is not available")
	}
	if wait <= 0 {
		wait = q.cfg.DefaultWait
	}
	if err := q.register(); err != nil {
		metrics.ObserveRender("rejected")
		return nil, err
	}

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(q.baseCtx, cancel)
	defer stop()

	results := make(chan renderResult, 1)
	go func() {
		defer q.inflight.Done()
		doc, err := q.run(taskCtx, url, wait)
		results <- renderResult{doc: doc, err: err}
	}()

	budget := q.cfg.QueueTimeout + q.cfg.RequestTimeout
	timer := time.NewTimer(budget)
	defer timer.Stop()

	select {
	case res := <-results:
		metrics.ObserveRender(outcome(res.err))
		return res.doc, res.err
	case <-timer.C:
		cancel()
		metrics.ObserveRender("timeout")
		q.logger.Warn("render exceeded total budget", zap.String("url", url), zap.Duration("budget", budget))
		return nil, job.Errorf(job.KindQueueTimeout,
			"render of %s exceeded total budget of %s (queue %s + request %s)",
			url, budget, q.cfg.QueueTimeout, q.cfg.RequestTimeout)
	case <-ctx.Done():
		metrics.ObserveRender("cancelled")
		return nil, job.NewError(job.KindIO, "render cancelled", ctx.Err())
	}
}

func (q *Queue) register() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return job.Errorf(job.KindRenderUnavailable, "render queue is shutting down")
	}
	q.inflight.Add(1)
	return nil
}

func (q *Queue) run(ctx context.Context, url string, wait time.Duration) (doc *document.Document, err error) {
	if err := q.acquire(ctx); err != nil {
		return nil, err
	}
	q.active.Add(1)
	q.publish()
	defer func() {
		q.active.Add(-1)
		q.publish()
		q.gate.Release(1)
	}()
	defer func() {
		if r := recover(); r != nil {
			q.logger.Error("render engine panicked", zap.String("url", url), zap.Any("panic", r))
			doc = nil
			err = job.Errorf(job.KindIO, "render engine panicked: %v", r)
		}
	}()

	reqCtx, cancel := context.WithTimeout(ctx, q.cfg.RequestTimeout)
	defer cancel()

	html, err := q.engine.Render(reqCtx, url, wait)
	if err != nil {
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, job.NewError(job.KindQueueTimeout,
				fmt.Sprintf("render of %s exceeded request timeout of %s", url, q.cfg.RequestTimeout), err)
		}
		var typed *job.Error
		if errors.As(err, &typed) {
			return nil, err
		}
		return nil, job.NewError(job.KindIO, "render "+url, err)
	}
	doc, err = document.Parse(html, url)
	if err != nil {
		return nil, job.NewError(job.KindParse, "parse rendered html", err)
	}
	return doc, nil
}

func (q *Queue) acquire(ctx context.Context) error {
	q.queued.Add(1)
	q.publish()
	start := time.Now()

	acquireCtx, cancel := context.WithTimeout(ctx, q.cfg.QueueTimeout)
	err := q.gate.Acquire(acquireCtx, 1)
	cancel()

	q.queued.Add(-1)
	q.publish()
	metrics.ObserveRenderWait(time.Since(start))

	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return job.NewError(job.KindIO, "render cancelled while queued", ctx.Err())
	}
	q.logger.Warn("render admission timed out", zap.Duration("queue_timeout", q.cfg.QueueTimeout))
	return job.Errorf(job.KindQueueTimeout, "no render slot became free within queue timeout of %s", q.cfg.QueueTimeout)
}

func (q *Queue) publish() {
	metrics.SetRenderGauges(max(q.active.Load(), 0), max(q.queued.Load(), 0))
}

// Shutdown stops admitting new renders and waits for in-flight ones up to the
// configured grace period (or ctx), after which remaining work is cancelled.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.inflight.Wait()
		close(done)
	}()

	grace := time.NewTimer(q.cfg.ShutdownGrace)
	defer grace.Stop()

	select {
	case <-done:
		q.baseCancel()
		q.logger.Info("render queue drained")
		return nil
	case <-grace.C:
	case <-ctx.Done():
	}
	q.baseCancel()
	q.logger.Warn("render queue shutdown grace elapsed; cancelling in-flight renders",
		zap.Int64("active", q.active.Load()), zap.Int64("queued", q.queued.Load()))
	return fmt.Errorf("render queue: forced shutdown after %s", q.cfg.ShutdownGrace)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, job.ErrQueueTimeout):
		return "timeout"
	default:
		return "error"
	}
}

func clamp(v, lo, hi int64) int64 {
	return min(max(v, lo), hi)
}
