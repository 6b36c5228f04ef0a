// Package detector decides when a URL or fetched page needs a JavaScript-rendering engine.
package detector

import (
	"bytes"
	"net/url"
	"strings"
)

// DefaultJSHeavyDomains are hosts whose job pages are assembled client-side.
var DefaultJSHeavyDomains = []string{
	"myworkdayjobs.com",
	"myworkdaysite.com",
	"jobs.ashbyhq.com",
	"indeed.com",
	"wellfound.com",
	"icims.com",
	"glassdoor.com",
	"smartrecruiters.com",
}

// Heuristic implements a handful of rule-based promotions.
type Heuristic struct {
	BodyLengthThreshold int
	domains             []string
}

// NewHeuristic creates a new detector. extraDomains are appended to DefaultJSHeavyDomains.
func NewHeuristic(threshold int, extraDomains ...string) *Heuristic {
	if threshold == 0 {
		threshold = 2048
	}
	domains := make([]string, 0, len(DefaultJSHeavyDomains)+len(extraDomains))
	for _, d := range append(append([]string(nil), DefaultJSHeavyDomains...), extraDomains...) {
		d = strings.ToLower(strings.TrimSpace(d))
		if d != "" {
			domains = append(domains, d)
		}
	}
	return &Heuristic{BodyLengthThreshold: threshold, domains: domains}
}

// LikelyRequiresRendering reports whether rawURL's host is on the JS-heavy allow-list.
func (h *Heuristic) LikelyRequiresRendering(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	for _, d := range h.domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

var spaMarkers = [][]byte{
	[]byte("__next"),
	[]byte("id=\"root\""),
	[]byte("id=\"app\""),
	[]byte("data-reactroot"),
	[]byte("ng-app"),
	[]byte("window.__apollo_state__"),
}

// ShouldPromote reports whether a statically fetched body looks like an empty
// client-side shell that only a rendering engine can fill in.
func (h *Heuristic) ShouldPromote(body []byte) bool {
	if len(body) == 0 {
		return true
	}
	if len(body) < h.BodyLengthThreshold && scriptDensityHigh(body) {
		return true
	}
	lower := bytes.ToLower(body)
	for _, marker := range spaMarkers {
		if bytes.Contains(lower, marker) && len(visibleText(lower)) < h.BodyLengthThreshold {
			return true
		}
	}
	return false
}

var blockMarkers = []string{
	"captcha",
	"cf-challenge",
	"just a moment...",
	"access denied",
	"are you a robot",
	"verify you are human",
	"unusual traffic",
	"request blocked",
	"checking your browser",
	"attention required! | cloudflare",
}

// LooksBlocked reports whether a page carries anti-bot interstitial markers.
func LooksBlocked(html string) bool {
	lower := strings.ToLower(html)
	for _, m := range blockMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// visibleText strips tags and script bodies, leaving a rough measure of rendered text.
func visibleText(lower []byte) []byte {
	var out []byte
	inTag := false
	inScript := false
	for i := 0; i < len(lower); i++ {
		c := lower[i]
		switch {
		case c == '<':
			inTag = true
			if bytes.HasPrefix(lower[i:], []byte("<script")) || bytes.HasPrefix(lower[i:], []byte("<style")) {
				inScript = true
			} else if bytes.HasPrefix(lower[i:], []byte("</script")) || bytes.HasPrefix(lower[i:], []byte("</style")) {
				inScript = false
			}
		case c == '>':
			inTag = false
		case !inTag && !inScript && c > ' ':
			out = append(out, c)
		}
	}
	return out
}

func scriptDensityHigh(body []byte) bool {
	lower := strings.ToLower(string(body))
	total := len(lower)
	if total == 0 {
		return false
	}

	const (
		openTag  = "<script"
		closeTag = "</script>"
	)
	scriptCoverage := 0
	searchPos := 0

	for {
		relativeStart := strings.Index(lower[searchPos:], openTag)
		if relativeStart == -1 {
			break
		}
		start := searchPos + relativeStart

		tagClose := strings.IndexByte(lower[start:], '>')
		if tagClose == -1 {
			// Treat the rest of the document as part of the malformed script.
			scriptCoverage += total - start
			break
		}
		contentStart := start + tagClose + 1

		relativeEnd := strings.Index(lower[contentStart:], closeTag)
		var nextSearch int
		if relativeEnd == -1 {
			// Script tag never closes; count the rest.
			nextSearch = total
		} else {
			nextSearch = contentStart + relativeEnd + len(closeTag)
		}

		scriptCoverage += nextSearch - start
		searchPos = nextSearch
	}

	if scriptCoverage == 0 {
		return false
	}
	return scriptCoverage*100/total >= 25
}
