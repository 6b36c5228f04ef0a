package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/jobparser/internal/document"
	"github.com/JakeFAU/jobparser/internal/job"
)

// Candidate is a fetched document with its quality score.
type Candidate struct {
	Strategy string
	Doc      *document.Document
	Score    int
}

// SelectBest returns the highest-scoring candidate with a document. Ties keep
// the earlier candidate.
func SelectBest(candidates []Candidate) (Candidate, bool) {
	best := -1
	for i, c := range candidates {
		if c.Doc == nil {
			continue
		}
		if best < 0 || c.Score > candidates[best].Score {
			best = i
		}
	}
	if best < 0 {
		return Candidate{}, false
	}
	return candidates[best], true
}

type strategy struct {
	name  string
	fetch func(ctx context.Context, url string) (*document.Document, error)
}

// FetchMultiStrategy tries rendering, then an enhanced-header fetch, then the
// baseline fetch, stopping at the first document with at least minElements
// elements. The best document seen is returned; an error is returned only
// when no strategy produced a document.
func FetchMultiStrategy(
	ctx context.Context,
	src Source,
	url string,
	wait time.Duration,
	minElements int,
	logger *zap.Logger,
) (*document.Document, error) {
	strategies := []strategy{
		{name: "rendered", fetch: func(ctx context.Context, url string) (*document.Document, error) {
			return src.FetchRendered(ctx, url, wait)
		}},
		{name: "enhanced", fetch: src.FetchEnhanced},
		{name: "static", fetch: src.FetchStatic},
	}

	var (
		candidates []Candidate
		errs       []error
	)
	for _, s := range strategies {
		if s.name == "rendered" && !src.IsAvailable() {
			errs = append(errs, job.Errorf(job.KindRenderUnavailable, "rendering unavailable"))
			continue
		}
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		doc, err := s.fetch(ctx, url)
		if err != nil {
			logger.Debug("fetch strategy failed", zap.String("strategy", s.name), zap.String("url", url), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
			continue
		}
		score := doc.ElementCount()
		candidates = append(candidates, Candidate{Strategy: s.name, Doc: doc, Score: score})
		if score >= minElements {
			break
		}
		logger.Debug("fetch strategy produced a thin document",
			zap.String("strategy", s.name), zap.Int("elements", score), zap.Int("min", minElements))
	}

	best, ok := SelectBest(candidates)
	if !ok {
		return nil, combineFetchErrors(errs)
	}
	logger.Debug("selected document", zap.String("strategy", best.Strategy), zap.Int("elements", best.Score))
	return best.Doc, nil
}

func combineFetchErrors(errs []error) error {
	if len(errs) == 0 {
		return job.Errorf(job.KindIO, "no fetch strategy produced a document")
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return job.NewError(job.KindIO, "all fetch strategies failed ("+strings.Join(msgs, "; ")+")", errors.Join(errs...))
}
