package extract

import (
	"net/url"
	"strings"
)

// NewGreenhouse handles Greenhouse-hosted boards, including embedded job links.
func NewGreenhouse(deps Deps) *Site {
	s := newSite("Greenhouse", deps)
	s.match = func(u *url.URL) bool {
		return hostIs(u, "greenhouse.io") &&
			(strings.Contains(u.Path, "/jobs/") || u.Query().Get("token") != "" || u.Query().Get("gh_jid") != "")
	}
	s.slug = greenhouseSlug
	s.selectors = Selectors{
		Title: []string{
			".job__title h1",
			"h1.app-title",
			".app-title",
			"h1",
		},
		Company: []string{
			".company-name",
			"#header .company-name",
		},
		Location: []string{
			".job__location",
			".location",
			"#header .location",
		},
		Description: []string{
			".job__description",
			"#content",
			".job-post-content",
		},
		Salary: []string{
			".pay-range",
			".job__pay-ranges",
			".pay-input",
		},
	}
	return s
}

// greenhouseSlug reads the board slug from /<slug>/jobs/<id> or the embed "for" parameter.
func greenhouseSlug(u *url.URL) string {
	if u == nil {
		return ""
	}
	if board := u.Query().Get("for"); board != "" {
		return capitalize(board)
	}
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segs) > 1 && segs[1] == "jobs" && segs[0] != "embed" {
		return capitalize(segs[0])
	}
	return ""
}
