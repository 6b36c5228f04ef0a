package extract

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/JakeFAU/jobparser/internal/job"
)

// CompanyFromURL returns the path segment after marker with its first letter
// capitalized. An empty marker takes the first path segment.
func CompanyFromURL(rawURL, marker string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	idx := 0
	if marker != "" {
		idx = -1
		for i, s := range segs {
			if strings.EqualFold(s, marker) {
				idx = i + 1
				break
			}
		}
	}
	if idx < 0 || idx >= len(segs) {
		return ""
	}
	return capitalize(segs[idx])
}

func capitalize(slug string) string {
	slug, _ = url.PathUnescape(slug)
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(slug)
	return string(unicode.ToUpper(r)) + slug[size:]
}

var atCompany = regexp.MustCompile(`\sat\s+(.+?)(?:\s+[|\-–—(]|\s*$)`)

// CompanyFromTitle parses " at <Company> " out of a page title.
func CompanyFromTitle(title string) string {
	m := atCompany.FindStringSubmatch(CleanText(title))
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// ResolveCompany returns the first non-empty candidate, or UnknownCompany.
func ResolveCompany(candidates ...string) string {
	for _, c := range candidates {
		if c = CleanText(c); c != "" {
			return c
		}
	}
	return job.UnknownCompany
}
