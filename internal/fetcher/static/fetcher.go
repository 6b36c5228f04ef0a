// Package static implements the content fetcher: plain HTTP retrieval with
// compression and charset handling, producing a navigable document.
package static

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/JakeFAU/jobparser/internal/document"
	"github.com/JakeFAU/jobparser/internal/job"
	"github.com/JakeFAU/jobparser/internal/metrics"
)

const (
	defaultTimeout         = 30 * time.Second
	defaultMinContentChars = 100
	defaultMaxBodyBytes    = 10 << 20
)

// Limiter paces outbound requests.
type Limiter interface {
	Wait(ctx context.Context, rawURL string) error
}

// Config controls fetcher behavior.
type Config struct {
	UserAgent       string
	Timeout         time.Duration
	MinContentChars int
	MaxBodyBytes    int64
	// Limiter, when set, is consulted before every outbound request.
	Limiter Limiter
}

// Fetcher retrieves pages over HTTP. The colly collector is tried first; when its
// output is garbled or too short, the body is re-fetched and decoded by hand.
type Fetcher struct {
	cfg           Config
	client        *http.Client
	baseCollector *colly.Collector
	logger        *zap.Logger
}

type collectorHooks interface {
	OnRequest(colly.RequestCallback)
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

type rawResponse struct {
	body        []byte
	contentType string
	encoding    string
}

// New builds a Fetcher.
func New(cfg Config, logger *zap.Logger) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MinContentChars <= 0 {
		cfg.MinContentChars = defaultMinContentChars
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	transport := newHTTPTransport(cfg.Timeout)

	c := colly.NewCollector(colly.Async(false))
	c.WithTransport(transport)
	c.IgnoreRobotsTxt = true
	c.AllowURLRevisit = true
	c.DetectCharset = true
	c.MaxBodySize = int(cfg.MaxBodyBytes)
	c.UserAgent = cfg.UserAgent
	c.SetRequestTimeout(2 * cfg.Timeout)

	return &Fetcher{
		cfg: cfg,
		client: &http.Client{
			Transport: transport,
			Timeout:   2 * cfg.Timeout,
		},
		baseCollector: c,
		logger:        logger,
	}
}

// Fetch retrieves rawURL with the baseline browser header set.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*document.Document, error) {
	return f.fetch(ctx, rawURL, baselineHeaders(f.cfg.UserAgent), "static")
}

// FetchEnhanced retrieves rawURL with the extended navigation header set.
func (f *Fetcher) FetchEnhanced(ctx context.Context, rawURL string) (*document.Document, error) {
	return f.fetch(ctx, rawURL, enhancedHeaders(f.cfg.UserAgent), "enhanced")
}

func (f *Fetcher) fetch(
	ctx context.Context,
	rawURL string,
	headers http.Header,
	strategy string,
) (*document.Document, error) {
	doc, err := f.fetchDocument(ctx, rawURL, headers)
	metrics.ObserveFetch(rawURL, strategy, err)
	return doc, err
}

func (f *Fetcher) fetchDocument(ctx context.Context, rawURL string, headers http.Header) (*document.Document, error) {
	if err := validateURL(rawURL); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, job.NewError(job.KindIO, "fetch canceled", err)
	}

	simpleText, simpleErr := f.fetchSimple(ctx, rawURL, headers)
	if simpleErr == nil && usable(simpleText, f.cfg.MinContentChars) {
		return buildDocument(simpleText, rawURL)
	}
	if simpleErr != nil {
		f.logger.Debug("simple fetch failed; using manual path",
			zap.String("url", rawURL), zap.Error(simpleErr))
	} else {
		f.logger.Debug("simple fetch output garbled or short; using manual path",
			zap.String("url", rawURL), zap.Int("chars", utf8.RuneCountInString(simpleText)))
	}

	manualText, manualErr := f.fetchManual(ctx, rawURL, headers)
	switch {
	case manualErr == nil:
		return buildDocument(manualText, rawURL)
	case simpleErr == nil:
		f.logger.Warn("manual fetch failed; keeping simple output",
			zap.String("url", rawURL), zap.Error(manualErr))
		return buildDocument(simpleText, rawURL)
	default:
		return nil, manualErr
	}
}

func usable(text string, minChars int) bool {
	return utf8.ValidString(text) && !IsGarbled(text) && utf8.RuneCountInString(text) >= minChars
}

func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return job.NewError(job.KindIO, "invalid url", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return job.Errorf(job.KindIO, "unsupported url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return job.Errorf(job.KindIO, "url %q has no host", rawURL)
	}
	return nil
}

func buildDocument(html, rawURL string) (*document.Document, error) {
	doc, err := document.Parse(html, rawURL)
	if err != nil {
		return nil, job.NewError(job.KindParse, "build document", err)
	}
	return doc, nil
}

// fetchSimple uses a cloned colly collector, which handles transport-level gzip and
// charset conversion on its own.
func (f *Fetcher) fetchSimple(ctx context.Context, rawURL string, headers http.Header) (string, error) {
	if err := f.pace(ctx, rawURL); err != nil {
		return "", err
	}
	collector := f.baseCollector.Clone()
	collector.WithTransport(f.client.Transport)
	collector.SetRequestTimeout(f.client.Timeout)

	var (
		body     []byte
		fetchErr error
	)
	f.configureCollectorHooks(collector, headers, &body, &fetchErr)

	if err := f.runCollector(ctx, collector, rawURL, &fetchErr); err != nil {
		return "", err
	}
	return string(body), nil
}

func (f *Fetcher) configureCollectorHooks(
	hooks collectorHooks,
	headers http.Header,
	body *[]byte,
	fetchErr *error,
) {
	hooks.OnRequest(func(r *colly.Request) {
		copyHeaders(headers, r)
	})

	hooks.OnResponse(func(r *colly.Response) {
		*body = append([]byte(nil), r.Body...)
	})

	hooks.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			*fetchErr = fmt.Errorf("http status %d: %w", r.StatusCode, err)
			return
		}
		*fetchErr = err
	})
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, rawURL string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(rawURL)
	}()

	select {
	case <-ctx.Done():
		return job.NewError(job.KindIO, "colly fetch canceled", ctx.Err())
	case err := <-done:
		if *fetchErr != nil {
			return job.NewError(job.KindIO, "colly response failed", *fetchErr)
		}
		if err != nil {
			return job.NewError(job.KindIO, "colly visit failed", err)
		}
		return nil
	}
}

func copyHeaders(headers http.Header, r *colly.Request) {
	for key, values := range headers {
		if strings.EqualFold(key, "User-Agent") {
			r.Headers.Set(key, values[0])
			continue
		}
		for _, v := range values {
			r.Headers.Add(key, v)
		}
	}
}

// fetchManual requests compressed content explicitly and decodes it here, so a broken
// encoding or charset declaration degrades instead of failing.
func (f *Fetcher) fetchManual(ctx context.Context, rawURL string, headers http.Header) (string, error) {
	raw, err := f.get(ctx, rawURL, headers)
	if err != nil {
		return "", err
	}
	body, err := decompress(raw.encoding, raw.body)
	if err != nil {
		f.logger.Warn("decompression failed; using raw bytes",
			zap.String("url", rawURL),
			zap.String("content_encoding", raw.encoding),
			zap.Error(err))
	}
	text, used := decodeBody(body, raw.contentType, f.logger)
	f.logger.Debug("manual fetch decoded",
		zap.String("url", rawURL), zap.String("charset", used), zap.Int("bytes", len(body)))
	return text, nil
}

func (f *Fetcher) pace(ctx context.Context, rawURL string) error {
	if f.cfg.Limiter == nil {
		return nil
	}
	if err := f.cfg.Limiter.Wait(ctx, rawURL); err != nil {
		return job.NewError(job.KindIO, "waiting for rate limiter", err)
	}
	return nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string, headers http.Header) (rawResponse, error) {
	if err := f.pace(ctx, rawURL); err != nil {
		return rawResponse{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return rawResponse{}, job.NewError(job.KindIO, "build request", err)
	}
	req.Header = headers.Clone()
	req.Header.Set("Accept-Encoding", acceptEncoding)

	resp, err := f.client.Do(req)
	if err != nil {
		return rawResponse{}, job.NewError(job.KindIO, "GET "+rawURL, err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return rawResponse{}, job.Errorf(job.KindIO, "GET %s: http status %d", rawURL, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodyBytes))
	if err != nil {
		return rawResponse{}, job.NewError(job.KindIO, "read body", err)
	}
	return rawResponse{
		body:        body,
		contentType: resp.Header.Get("Content-Type"),
		encoding:    resp.Header.Get("Content-Encoding"),
	}, nil
}

func newHTTPTransport(timeout time.Duration) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
