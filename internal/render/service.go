package render

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/jobparser/internal/document"
	"github.com/JakeFAU/jobparser/internal/job"
)

// StaticFetcher retrieves pages without executing JavaScript.
type StaticFetcher interface {
	Fetch(ctx context.Context, url string) (*document.Document, error)
	FetchEnhanced(ctx context.Context, url string) (*document.Document, error)
}

// Detector classifies URLs and statically fetched bodies.
type Detector interface {
	LikelyRequiresRendering(url string) bool
	ShouldPromote(body []byte) bool
}

// Options tune a single FetchBest call.
type Options struct {
	// Force prefers the rendering engine regardless of the allow-list.
	Force bool
	// Wait is the content-ready wait; zero uses the queue default.
	Wait time.Duration
}

// Service picks between static fetching and rendering for a URL.
type Service struct {
	static   StaticFetcher
	queue    *Queue
	detector Detector
	logger   *zap.Logger
}

// NewService wires the decision layer.
func NewService(static StaticFetcher, queue *Queue, detector Detector, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		static:   static,
		queue:    queue,
		detector: detector,
		logger:   logger.Named("render_decision"),
	}
}

// LikelyRequiresRendering reports whether url is on the JS-heavy allow-list.
func (s *Service) LikelyRequiresRendering(url string) bool {
	return s.detector != nil && s.detector.LikelyRequiresRendering(url)
}

// FetchBest prefers rendering for allow-listed or forced URLs and static
// fetching otherwise. Without a rendering engine every request is served
// statically. A static page that looks like an empty client-side shell is
// re-fetched through the renderer when one is available.
func (s *Service) FetchBest(ctx context.Context, url string, opts Options) (*document.Document, error) {
	if opts.Force || s.LikelyRequiresRendering(url) {
		if s.IsAvailable() {
			return s.queue.FetchRendered(ctx, url, opts.Wait)
		}
		s.logger.Debug("rendering unavailable; using static fetch", zap.String("url", url))
		return s.static.Fetch(ctx, url)
	}

	doc, err := s.static.Fetch(ctx, url)
	if err != nil || !s.IsAvailable() || s.detector == nil {
		return doc, err
	}
	if !s.detector.ShouldPromote([]byte(doc.HTML())) {
		return doc, nil
	}
	s.logger.Debug("static page looks like a client-side shell; rendering", zap.String("url", url))
	rendered, rerr := s.queue.FetchRendered(ctx, url, opts.Wait)
	if rerr != nil {
		s.logger.Info("render promotion failed; keeping static page", zap.String("url", url), zap.Error(rerr))
		return doc, nil
	}
	return rendered, nil
}

// FetchStatic runs the baseline content fetcher.
func (s *Service) FetchStatic(ctx context.Context, url string) (*document.Document, error) {
	return s.static.Fetch(ctx, url)
}

// FetchEnhanced runs the content fetcher with the full browser header set.
func (s *Service) FetchEnhanced(ctx context.Context, url string) (*document.Document, error) {
	return s.static.FetchEnhanced(ctx, url)
}

// FetchRendered goes straight to the render queue.
func (s *Service) FetchRendered(ctx context.Context, url string, wait time.Duration) (*document.Document, error) {
	if s.queue == nil {
		return nil, job.Errorf(job.KindRenderUnavailable, "rendering engine is not configured")
	}
	return s.queue.FetchRendered(ctx, url, wait)
}

// IsAvailable passes through to the render queue.
func (s *Service) IsAvailable() bool {
	return s.queue != nil && s.queue.IsAvailable()
}

// Status passes through to the render queue.
func (s *Service) Status() Status {
	if s.queue == nil {
		return Status{}
	}
	return s.queue.Status()
}
