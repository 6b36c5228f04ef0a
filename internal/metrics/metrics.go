// Package metrics exposes Prometheus collectors for the job parsing service.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	parseTotal                 *prometheus.CounterVec
	fetchTotal                 *prometheus.CounterVec
	charsetFallbackTotal       prometheus.Counter
	renderTotal                *prometheus.CounterVec
	renderActiveInstances      prometheus.Gauge
	renderQueuedRequests       prometheus.Gauge
	renderWaitSeconds          prometheus.Histogram
	rateLimitDelaySeconds      *prometheus.HistogramVec
	resultCacheTotal           *prometheus.CounterVec
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		parseTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobparser_parse_total",
				Help: "Total number of parse attempts, labeled by extractor and outcome.",
			},
			[]string{"source", "outcome"},
		)

		fetchTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobparser_fetch_total",
				Help: "Total number of document fetches, labeled by site, strategy and outcome.",
			},
			[]string{"site", "strategy", "outcome"},
		)

		charsetFallbackTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "jobparser_charset_fallback_total",
				Help: "Responses that decoded as garbled text under every candidate charset.",
			},
		)

		renderTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobparser_render_total",
				Help: "Total number of render requests, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		renderActiveInstances = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "jobparser_render_active_instances",
				Help: "Rendering engine instances currently admitted.",
			},
		)

		renderQueuedRequests = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "jobparser_render_queued_requests",
				Help: "Render requests waiting for an admission permit.",
			},
		)

		renderWaitSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "jobparser_render_wait_seconds",
				Help:    "Histogram of time spent waiting for a render admission permit.",
				Buckets: []float64{0.01, 0.1, 0.5, 1, 5, 15, 30, 60},
			},
		)

		rateLimitDelaySeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jobparser_rate_limit_delay_seconds",
				Help:    "Time outbound fetches spent waiting on the per-host rate limiter.",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"site"},
		)

		resultCacheTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobparser_result_cache_total",
				Help: "Parse result cache lookups, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 15, 30},
			},
			[]string{"method", "route"},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveParse counts a dispatcher outcome.
func ObserveParse(source string, successful bool) {
	Init()
	outcome := "failure"
	if successful {
		outcome = "success"
	}
	parseTotal.WithLabelValues(source, outcome).Inc()
}

// ObserveFetch counts a fetch attempt for the given strategy.
func ObserveFetch(site, strategy string, err error) {
	Init()
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	fetchTotal.WithLabelValues(SanitizeSite(site), strategy, outcome).Inc()
}

// ObserveCharsetFallback counts a forced UTF-8 decode of garbled content.
func ObserveCharsetFallback() {
	Init()
	charsetFallbackTotal.Inc()
}

// ObserveRender counts a render request outcome.
func ObserveRender(outcome string) {
	Init()
	renderTotal.WithLabelValues(outcome).Inc()
}

// ObserveRenderWait records how long a request waited for admission.
func ObserveRenderWait(d time.Duration) {
	Init()
	renderWaitSeconds.Observe(d.Seconds())
}

// SetRenderGauges publishes the render queue counters.
func SetRenderGauges(active, queued int64) {
	Init()
	renderActiveInstances.Set(float64(active))
	renderQueuedRequests.Set(float64(queued))
}

// ObserveRateLimitDelay records time spent waiting for a per-host token.
func ObserveRateLimitDelay(site string, d time.Duration) {
	Init()
	rateLimitDelaySeconds.WithLabelValues(SanitizeSite(site)).Observe(d.Seconds())
}

// ObserveResultCache counts a cache lookup: "hit", "miss" or "error".
func ObserveResultCache(outcome string) {
	Init()
	resultCacheTotal.WithLabelValues(outcome).Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
