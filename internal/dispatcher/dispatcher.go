// Package dispatcher routes job URLs to the first extractor that recognizes them.
package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/jobparser/internal/cache"
	"github.com/JakeFAU/jobparser/internal/extract"
	"github.com/JakeFAU/jobparser/internal/hash/sha256"
	"github.com/JakeFAU/jobparser/internal/job"
	"github.com/JakeFAU/jobparser/internal/metrics"
)

// EmptyURLMessage is reported for blank input.
const EmptyURLMessage = "job URL must not be empty"

const cacheKeyPrefix = "jobparser:result:"

// Dispatcher holds an ordered, immutable extractor list.
type Dispatcher struct {
	extractors []extract.Extractor
	logger     *zap.Logger
	cache      cache.Cache
	cacheTTL   time.Duration
}

// New creates a Dispatcher. Order is priority: the first extractor whose
// CanHandle matches is used exclusively.
func New(extractors []extract.Extractor, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		extractors: append([]extract.Extractor(nil), extractors...),
		logger:     logger.Named("dispatcher"),
	}
}

// WithCache memoizes successful results in c for ttl. Failures are never
// cached so a transient outage does not stick.
func (d *Dispatcher) WithCache(c cache.Cache, ttl time.Duration) *Dispatcher {
	d.cache = c
	d.cacheTTL = ttl
	return d
}

// SupportedSites lists extractor names in priority order.
func (d *Dispatcher) SupportedSites() []string {
	names := make([]string, 0, len(d.extractors))
	for _, e := range d.extractors {
		names = append(names, e.Name())
	}
	return names
}

// ParseJobURL trims rawURL and delegates to the first matching extractor. It
// always returns a structured result.
func (d *Dispatcher) ParseJobURL(ctx context.Context, rawURL string) job.ParseResult {
	res := d.parse(ctx, rawURL)
	metrics.ObserveParse(res.Source, res.Successful)
	return res
}

func (d *Dispatcher) parse(ctx context.Context, rawURL string) job.ParseResult {
	url := strings.TrimSpace(rawURL)
	if url == "" {
		return job.FailureFromError(job.UnknownSource, rawURL, job.Errorf(job.KindInvalidInput, EmptyURLMessage))
	}

	if res, ok := d.cached(ctx, url); ok {
		return res
	}

	for _, e := range d.extractors {
		if !e.CanHandle(url) {
			continue
		}
		d.logger.Debug("routing url", zap.String("url", url), zap.String("extractor", e.Name()))
		res := d.delegate(ctx, e, url)
		if res.Successful {
			d.store(ctx, url, res)
		}
		return res
	}

	d.logger.Info("no extractor for url", zap.String("url", url))
	unsupported := job.Errorf(job.KindUnsupported,
		"unsupported job site for %s; supported sites: %s", url, strings.Join(d.SupportedSites(), ", "))
	return job.FailureFromError(job.UnknownSource, url, unsupported)
}

func (d *Dispatcher) delegate(ctx context.Context, e extract.Extractor, url string) (res job.ParseResult) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("extractor panicked", zap.String("extractor", e.Name()), zap.String("url", url), zap.Any("panic", r))
			res = job.Failure(e.Name(), url, fmt.Sprintf("%s extractor failed: %v", e.Name(), r))
		}
	}()
	res = e.Parse(ctx, url)
	if res.Source == "" {
		res.Source = e.Name()
	}
	if err := res.Validate(); err != nil {
		d.logger.Error("extractor returned an invalid result", zap.String("extractor", e.Name()), zap.Error(err))
		return job.Failure(e.Name(), url, fmt.Sprintf("%s extractor returned an invalid result: %v", e.Name(), err))
	}
	return res
}

func cacheKey(url string) string {
	return cacheKeyPrefix + sha256.DigestString(url)
}

func (d *Dispatcher) cached(ctx context.Context, url string) (job.ParseResult, bool) {
	if d.cache == nil {
		return job.ParseResult{}, false
	}
	raw, err := d.cache.Get(ctx, cacheKey(url))
	switch {
	case errors.Is(err, cache.ErrNotFound):
		metrics.ObserveResultCache("miss")
		return job.ParseResult{}, false
	case err != nil:
		metrics.ObserveResultCache("error")
		d.logger.Warn("result cache lookup failed", zap.String("url", url), zap.Error(err))
		return job.ParseResult{}, false
	}
	var res job.ParseResult
	if err := json.Unmarshal(raw, &res); err != nil || !res.Successful || res.Validate() != nil {
		metrics.ObserveResultCache("error")
		d.logger.Warn("discarding unreadable cached result", zap.String("url", url))
		return job.ParseResult{}, false
	}
	metrics.ObserveResultCache("hit")
	return res, true
}

func (d *Dispatcher) store(ctx context.Context, url string, res job.ParseResult) {
	if d.cache == nil {
		return
	}
	raw, err := json.Marshal(res)
	if err != nil {
		d.logger.Warn("encoding result for cache", zap.Error(err))
		return
	}
	if err := d.cache.Set(ctx, cacheKey(url), raw, d.cacheTTL); err != nil {
		d.logger.Warn("result cache write failed", zap.String("url", url), zap.Error(err))
	}
}

// ParseAll parses urls with at most workers in flight and returns results in input order.
func (d *Dispatcher) ParseAll(ctx context.Context, urls []string, workers int) []job.ParseResult {
	if workers <= 0 {
		workers = 1
	}
	results := make([]job.ParseResult, len(urls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, u := range urls {
		g.Go(func() error {
			results[i] = d.ParseJobURL(gctx, u)
			return nil
		})
	}
	_ = g.Wait()
	return results
}
