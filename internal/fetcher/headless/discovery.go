package headless

import (
	"os"
	"os/exec"
)

// SystemBrowserPaths are checked, in order, before falling back to a browser on PATH.
var SystemBrowserPaths = []string{
	"/usr/bin/google-chrome",
	"/usr/bin/google-chrome-stable",
	"/usr/bin/chromium",
	"/usr/bin/chromium-browser",
	"/snap/bin/chromium",
	"/opt/google/chrome/chrome",
	"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	"/Applications/Chromium.app/Contents/MacOS/Chromium",
}

// bundledBrowserNames are looked up on PATH, which is where packaged headless-shell builds land.
var bundledBrowserNames = []string{
	"headless-shell",
	"chromium",
	"chromium-browser",
	"google-chrome",
	"chrome",
}

// BrowserSource says where a browser binary was found.
type BrowserSource string

// Browser sources.
const (
	BrowserSystem  BrowserSource = "system"
	BrowserBundled BrowserSource = "bundled"
	BrowserMissing BrowserSource = "missing"
)

type discoverer struct {
	exists   func(path string) bool
	lookPath func(name string) (string, error)
}

func defaultDiscoverer() discoverer {
	return discoverer{
		exists: func(path string) bool {
			info, err := os.Stat(path)
			return err == nil && !info.IsDir()
		},
		lookPath: exec.LookPath,
	}
}

// discover returns the first existing candidate, then the first bundled name on PATH.
func (d discoverer) discover(candidates []string) (string, BrowserSource) {
	for _, path := range candidates {
		if path != "" && d.exists(path) {
			return path, BrowserSystem
		}
	}
	for _, name := range bundledBrowserNames {
		if path, err := d.lookPath(name); err == nil && path != "" {
			return path, BrowserBundled
		}
	}
	return "", BrowserMissing
}
