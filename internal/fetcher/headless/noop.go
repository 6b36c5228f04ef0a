package headless

import (
	"context"
	"time"

	"github.com/JakeFAU/jobparser/internal/job"
)

// Noop is the engine used when rendering is disabled or no browser exists.
type Noop struct{}

// NewNoop creates a new Noop engine.
func NewNoop() *Noop {
	return &Noop{}
}

// Available always reports false.
func (Noop) Available() bool {
	return false
}

// Render always fails with a render-unavailable error.
func (Noop) Render(_ context.Context, _ string, _ time.Duration) (string, error) {
	return "", job.Errorf(job.KindRenderUnavailable, "rendering engine not configured")
}
