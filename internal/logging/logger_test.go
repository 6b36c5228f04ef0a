// Package logging includes tests for the zap logger helpers.
package logging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/JakeFAU/jobparser/internal/job"
)

// TestNewDevelopmentLogger confirms the development logger builds and logs.
func TestNewDevelopmentLogger(t *testing.T) {
	t.Parallel()

	logger, err := New(true)
	require.NoError(t, err)
	require.NotNil(t, logger)
	defer logger.Sync() //nolint:errcheck // best-effort flush
	logger.Info("development logger ready")
}

// TestNewProductionLogger ensures the production logger configuration succeeds.
func TestNewProductionLogger(t *testing.T) {
	t.Parallel()

	logger, err := New(false)
	require.NoError(t, err)
	require.NotNil(t, logger)
	defer logger.Sync() //nolint:errcheck // best-effort flush
	logger.Info("production logger ready")
}

func TestErrorFieldsTypedError(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)

	err := job.NewError(job.KindQueueTimeout, "render queue full", nil)
	logger.Warn("fetch failed", ErrorFields(err)...)

	entries := logs.All()
	require.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	require.Equal(t, "QUEUE_TIMEOUT", ctx["kind"])
	require.Equal(t, "render queue full", ctx["error"])
	require.NotEmpty(t, ctx["origin"])
}

func TestErrorFieldsPlainError(t *testing.T) {
	t.Parallel()

	require.Nil(t, ErrorFields(nil))
	fields := ErrorFields(errors.New("boom"))
	require.Len(t, fields, 1)
}
