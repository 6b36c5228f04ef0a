// Package headless contains rendering engines that execute JavaScript via browsers.
package headless

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/JakeFAU/jobparser/internal/job"
)

const (
	defaultViewportWidth  = 1920
	defaultViewportHeight = 1080
	defaultSettleDelay    = time.Second
	minReadyWait          = 3 * time.Second
)

// DefaultReadySelectors mark a page whose main content has rendered.
var DefaultReadySelectors = []string{
	"h1",
	"main",
	"[role='main']",
	"#content",
	".content",
	"article",
}

// Config controls the behavior of the chromedp engine.
type Config struct {
	UserAgent      string
	BrowserPaths   []string
	ReadySelectors []string
	SettleDelay    time.Duration
	NoSandbox      bool
}

// Engine renders pages with a dedicated headless Chrome instance per request.
type Engine struct {
	cfg       Config
	execPath  string
	source    BrowserSource
	logger    *zap.Logger
	available bool
}

// NewChromedp probes for a browser binary once and builds the engine. A missing
// browser yields an engine whose Available reports false.
func NewChromedp(cfg Config, logger *zap.Logger) *Engine {
	return newChromedp(cfg, logger, defaultDiscoverer())
}

func newChromedp(cfg Config, logger *zap.Logger, d discoverer) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(cfg.ReadySelectors) == 0 {
		cfg.ReadySelectors = DefaultReadySelectors
	}
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = defaultSettleDelay
	}
	candidates := append(append([]string(nil), cfg.BrowserPaths...), SystemBrowserPaths...)
	path, source := d.discover(candidates)
	if source == BrowserMissing {
		logger.Warn("no headless browser found; rendering disabled")
	} else {
		logger.Info("headless browser located", zap.String("path", path), zap.String("source", string(source)))
	}
	return &Engine{
		cfg:       cfg,
		execPath:  path,
		source:    source,
		logger:    logger,
		available: source != BrowserMissing,
	}
}

// Available reports whether a browser binary was found at startup.
func (e *Engine) Available() bool {
	return e.available
}

// Source reports where the browser binary came from.
func (e *Engine) Source() BrowserSource {
	return e.source
}

// Render launches a browser, loads rawURL, waits for content and returns the rendered HTML.
// The tab and browser are torn down before returning, whatever the outcome.
func (e *Engine) Render(ctx context.Context, rawURL string, wait time.Duration) (string, error) {
	if !e.available {
		return "", job.Errorf(job.KindRenderUnavailable, "rendering engine unavailable")
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, e.allocatorOptions()...)
	defer allocCancel()

	tabCtx, tabCancel := chromedp.NewContext(allocCtx,
		chromedp.WithErrorf(func(format string, args ...any) {
			e.logger.Debug("chromedp", zap.String("msg", fmt.Sprintf(format, args...)))
		}),
	)
	defer tabCancel()

	idle := make(chan struct{}, 1)
	chromedp.ListenTarget(tabCtx, func(ev any) {
		if lc, ok := ev.(*page.EventLifecycleEvent); ok && lc.Name == "networkIdle" {
			select {
			case idle <- struct{}{}:
			default:
			}
		}
	})

	if err := chromedp.Run(tabCtx, e.setupAction(), chromedp.Navigate(rawURL)); err != nil {
		return "", job.NewError(job.KindIO, "navigate "+rawURL, err)
	}

	readyWait := wait
	if readyWait < minReadyWait {
		readyWait = minReadyWait
	}
	e.waitNetworkIdle(tabCtx, idle, readyWait)
	e.waitContentReady(tabCtx, readyWait)

	var html string
	if err := chromedp.Run(tabCtx,
		chromedp.Sleep(e.cfg.SettleDelay),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	); err != nil {
		return "", job.NewError(job.KindIO, "capture rendered html", err)
	}
	return html, nil
}

func (e *Engine) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("enable-automation", false),
		chromedp.WindowSize(defaultViewportWidth, defaultViewportHeight),
	)
	if e.cfg.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if e.execPath != "" {
		opts = append(opts, chromedp.ExecPath(e.execPath))
	}
	if e.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(e.cfg.UserAgent))
	}
	return opts
}

func (e *Engine) setupAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		if err := page.SetLifecycleEventsEnabled(true).Do(ctx); err != nil {
			return fmt.Errorf("enable lifecycle events: %w", err)
		}
		if err := emulation.SetDeviceMetricsOverride(defaultViewportWidth, defaultViewportHeight, 1, false).
			Do(ctx); err != nil {
			return fmt.Errorf("set viewport: %w", err)
		}
		if e.cfg.UserAgent != "" {
			if err := emulation.SetUserAgentOverride(e.cfg.UserAgent).Do(ctx); err != nil {
				return fmt.Errorf("set user-agent: %w", err)
			}
		}
		return nil
	})
}

func (e *Engine) waitNetworkIdle(ctx context.Context, idle <-chan struct{}, limit time.Duration) {
	timer := time.NewTimer(limit)
	defer timer.Stop()
	select {
	case <-idle:
	case <-timer.C:
		e.logger.Debug("network idle not reached", zap.Duration("limit", limit))
	case <-ctx.Done():
	}
}

// waitContentReady blocks until any ready selector matches or the limit passes.
// Timing out is not an error; the page is captured as-is.
func (e *Engine) waitContentReady(ctx context.Context, limit time.Duration) {
	waitCtx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()
	selector := strings.Join(e.cfg.ReadySelectors, ", ")
	if err := chromedp.Run(waitCtx, chromedp.WaitReady(selector, chromedp.ByQuery)); err != nil {
		e.logger.Debug("no content-ready selector matched", zap.Duration("limit", limit), zap.Error(err))
	}
}
