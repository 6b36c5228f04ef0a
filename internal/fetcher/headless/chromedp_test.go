package headless

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/jobparser/internal/job"
)

func fakeDiscoverer(existing map[string]bool, onPath map[string]string) discoverer {
	return discoverer{
		exists: func(path string) bool { return existing[path] },
		lookPath: func(name string) (string, error) {
			if p, ok := onPath[name]; ok {
				return p, nil
			}
			return "", errors.New("not found")
		},
	}
}

func TestDiscoverPrefersSystemCandidates(t *testing.T) {
	t.Parallel()

	d := fakeDiscoverer(
		map[string]bool{"/usr/bin/chromium": true},
		map[string]string{"headless-shell": "/opt/bin/headless-shell"},
	)
	path, source := d.discover(SystemBrowserPaths)
	require.Equal(t, "/usr/bin/chromium", path)
	require.Equal(t, BrowserSystem, source)
}

func TestDiscoverFallsBackToBundled(t *testing.T) {
	t.Parallel()

	d := fakeDiscoverer(nil, map[string]string{"chromium": "/nix/store/chromium"})
	path, source := d.discover(SystemBrowserPaths)
	require.Equal(t, "/nix/store/chromium", path)
	require.Equal(t, BrowserBundled, source)
}

func TestEngineUnavailableWithoutBrowser(t *testing.T) {
	t.Parallel()

	engine := newChromedp(Config{}, nil, fakeDiscoverer(nil, nil))
	require.False(t, engine.Available())
	require.Equal(t, BrowserMissing, engine.Source())

	_, err := engine.Render(context.Background(), "https://example.com", time.Second)
	require.ErrorIs(t, err, job.ErrRenderUnavailable)
}

func TestEngineConfiguredPathsWin(t *testing.T) {
	t.Parallel()

	engine := newChromedp(
		Config{BrowserPaths: []string{"/custom/chrome"}, NoSandbox: true, UserAgent: "agent"},
		nil,
		fakeDiscoverer(map[string]bool{"/custom/chrome": true, "/usr/bin/chromium": true}, nil),
	)
	require.True(t, engine.Available())
	require.Equal(t, "/custom/chrome", engine.execPath)
	require.Equal(t, DefaultReadySelectors, engine.cfg.ReadySelectors)
	require.Equal(t, defaultSettleDelay, engine.cfg.SettleDelay)
	require.Greater(t, len(engine.allocatorOptions()), len(newChromedp(Config{}, nil,
		fakeDiscoverer(nil, nil)).allocatorOptions()))
}

func TestNoopEngine(t *testing.T) {
	t.Parallel()

	engine := NewNoop()
	require.False(t, engine.Available())
	_, err := engine.Render(context.Background(), "https://example.com", time.Second)
	require.ErrorIs(t, err, job.ErrRenderUnavailable)
}
