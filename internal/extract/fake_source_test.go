package extract

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/JakeFAU/jobparser/internal/document"
	"github.com/JakeFAU/jobparser/internal/job"
	"github.com/JakeFAU/jobparser/internal/render"
)

// fakeSource serves canned HTML per strategy: "best", "rendered", "enhanced", "static".
type fakeSource struct {
	pages     map[string]string
	errs      map[string]error
	available bool

	mu    sync.Mutex
	calls []string
}

func (f *fakeSource) serve(strategy, url string) (*document.Document, error) {
	f.mu.Lock()
	f.calls = append(f.calls, strategy)
	f.mu.Unlock()
	if err := f.errs[strategy]; err != nil {
		return nil, err
	}
	html, ok := f.pages[strategy]
	if !ok {
		return nil, job.NewError(job.KindIO, "http 404", errors.New("not found"))
	}
	return document.Parse(html, url)
}

func (f *fakeSource) FetchBest(_ context.Context, url string, _ render.Options) (*document.Document, error) {
	return f.serve("best", url)
}

func (f *fakeSource) FetchStatic(_ context.Context, url string) (*document.Document, error) {
	return f.serve("static", url)
}

func (f *fakeSource) FetchEnhanced(_ context.Context, url string) (*document.Document, error) {
	return f.serve("enhanced", url)
}

func (f *fakeSource) FetchRendered(_ context.Context, url string, _ time.Duration) (*document.Document, error) {
	if !f.available {
		return nil, job.Errorf(job.KindRenderUnavailable, "rendering engine is not available")
	}
	return f.serve("rendered", url)
}

func (f *fakeSource) IsAvailable() bool { return f.available }

func (f *fakeSource) strategies() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}
