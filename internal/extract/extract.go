// Package extract turns fetched job-posting pages into normalized job records.
package extract

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/jobparser/internal/document"
	"github.com/JakeFAU/jobparser/internal/job"
	"github.com/JakeFAU/jobparser/internal/logging"
	"github.com/JakeFAU/jobparser/internal/render"
)

// Extractor maps URLs it recognizes to a ParseResult. CanHandle must not do I/O.
type Extractor interface {
	Name() string
	CanHandle(rawURL string) bool
	Parse(ctx context.Context, rawURL string) job.ParseResult
}

// Source is the fetch surface extractors draw documents from.
type Source interface {
	FetchBest(ctx context.Context, url string, opts render.Options) (*document.Document, error)
	FetchStatic(ctx context.Context, url string) (*document.Document, error)
	FetchEnhanced(ctx context.Context, url string) (*document.Document, error)
	FetchRendered(ctx context.Context, url string, wait time.Duration) (*document.Document, error)
	IsAvailable() bool
}

// Config tunes extraction.
type Config struct {
	// MinElementCount is the element count below which a document is too thin.
	MinElementCount int
	// RenderWait is the content-ready wait for rendered fetches; zero uses the queue default.
	RenderWait time.Duration
}

// Deps are shared by every extractor.
type Deps struct {
	Source    Source
	Snapshots *Snapshotter
	Logger    *zap.Logger
	Config    Config
}

func (d Deps) withDefaults() Deps {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Config.MinElementCount <= 0 {
		d.Config.MinElementCount = 50
	}
	return d
}

// fetchMode chooses how a site's pages are retrieved.
type fetchMode int

const (
	fetchBest fetchMode = iota
	fetchMulti
)

// Selectors are ordered per-field selector chains: current layout first, legacy next, generic last.
type Selectors struct {
	Title       []string
	Company     []string
	Location    []string
	Description []string
	Salary      []string
}

// Site is a selector-driven extractor for one job-board family.
type Site struct {
	name      string
	match     func(u *url.URL) bool
	mode      fetchMode
	selectors Selectors
	// slug derives a company name from the URL when the page has none.
	slug func(u *url.URL) string
	// jsonLDFirst prefers structured data over selectors.
	jsonLDFirst bool
	// metaFallback reads og:title, <title> and og:site_name when selectors find nothing.
	metaFallback bool
	deps        Deps
	logger      *zap.Logger
}

func newSite(name string, deps Deps) *Site {
	deps = deps.withDefaults()
	return &Site{
		name:   name,
		deps:   deps,
		logger: deps.Logger.Named(strings.ToLower(name)),
	}
}

// Name returns the source tag recorded on results.
func (s *Site) Name() string {
	return s.name
}

// CanHandle reports whether rawURL belongs to this site family.
func (s *Site) CanHandle(rawURL string) bool {
	u, ok := parseHTTPURL(rawURL)
	return ok && s.match(u)
}

// Parse fetches rawURL and extracts job fields. Panics are converted to failures.
func (s *Site) Parse(ctx context.Context, rawURL string) (result job.ParseResult) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("extractor panicked", zap.String("url", rawURL), zap.Any("panic", r))
			result = job.Failure(s.name, rawURL, fmt.Sprintf("unexpected error while parsing: %v", r))
		}
	}()

	doc, err := s.fetch(ctx, rawURL)
	if err != nil {
		s.logger.Warn("fetch failed", append(logging.ErrorFields(err), zap.String("url", rawURL))...)
		return job.Failure(s.name, rawURL, fetchFailureMessage(rawURL, err))
	}

	fields, ok := s.extract(doc)
	if !ok {
		hint := RemediationHint(doc, s.deps.Config.MinElementCount)
		s.logger.Warn("job title not found",
			zap.String("url", rawURL), zap.Int("elements", doc.ElementCount()), zap.String("hint", hint))
		if _, err := s.deps.Snapshots.Save(ctx, doc); err != nil {
			s.logger.Warn("snapshot failed", zap.Error(err))
		}
		incomplete := job.Errorf(job.KindExtractionIncomplete,
			"could not locate job title on %s (%s)", rawURL, hint)
		return job.FailureFromError(s.name, rawURL, incomplete)
	}
	return job.Success(s.name, rawURL, fields)
}

func (s *Site) fetch(ctx context.Context, rawURL string) (*document.Document, error) {
	if s.mode == fetchMulti {
		return FetchMultiStrategy(ctx, s.deps.Source, rawURL, s.deps.Config.RenderWait,
			s.deps.Config.MinElementCount, s.logger)
	}
	return s.deps.Source.FetchBest(ctx, rawURL, render.Options{Wait: s.deps.Config.RenderWait})
}

func fetchFailureMessage(rawURL string, err error) string {
	switch {
	case errors.Is(err, job.ErrRenderUnavailable):
		return fmt.Sprintf("failed to fetch %s: rendering unavailable: %v", rawURL, err)
	case errors.Is(err, job.ErrQueueTimeout):
		return fmt.Sprintf("failed to fetch %s: render queue timeout: %v", rawURL, err)
	default:
		return fmt.Sprintf("failed to fetch %s: %v", rawURL, err)
	}
}

// extract pulls fields from doc; ok is false when no title could be found.
func (s *Site) extract(doc *document.Document) (job.Fields, bool) {
	ld, hasLD := JSONLDPosting(doc)

	pick := func(fromLD string, selectors []string, clean func(string) string) string {
		fromPage := ""
		if len(selectors) > 0 {
			fromPage = clean(SelectionText(FirstMatch(doc, selectors...)))
		}
		if s.jsonLDFirst {
			return firstNonEmpty(fromLD, fromPage)
		}
		return firstNonEmpty(fromPage, fromLD)
	}

	title := pick(ld.Title, s.selectors.Title, CleanText)
	if title == "" && s.metaFallback {
		title = CleanText(firstNonEmpty(doc.Meta("og:title"), doc.Title()))
	}
	if title == "" {
		return job.Fields{}, false
	}
	description := pick(ld.Description, s.selectors.Description, CleanDescription)
	location := pick(ld.Location, s.selectors.Location, CleanLocation)

	var slug string
	if s.slug != nil {
		slug = s.slug(doc.URL())
	}
	var siteName string
	if s.metaFallback {
		siteName = doc.Meta("og:site_name")
	}
	company := ResolveCompany(
		pick(ld.Company, s.selectors.Company, CleanText),
		slug,
		CompanyFromTitle(doc.Title()),
		siteName,
	)

	comp := DocumentCompensation(doc, s.selectors.Salary, description)
	if comp.Amount == nil && hasLD {
		comp = ld.Compensation
	}

	var desc *string
	if description != "" {
		desc = &description
	}

	log := s.logger
	return job.Fields{
		Title:            Truncate(log, "title", title, MaxTitleLength),
		Company:          Truncate(log, "company", company, MaxCompanyLength),
		Location:         Truncate(log, "location", location, MaxLocationLength),
		Description:      Truncate(log, "description", description, MaxDescriptionLength),
		Compensation:     comp.Amount,
		CompensationType: comp.Type,
		ExperienceLevel:  ExperienceFor(title, desc),
	}, true
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func parseHTTPURL(rawURL string) (*url.URL, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return nil, false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, false
	}
	return u, true
}

// hostIs reports whether u's host is domain or a subdomain of it.
func hostIs(u *url.URL, domain string) bool {
	host := strings.ToLower(u.Hostname())
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// firstSegment capitalizes the first path segment.
func firstSegment(u *url.URL) string {
	if u == nil {
		return ""
	}
	return CompanyFromURL(u.String(), "")
}
