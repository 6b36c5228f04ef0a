package extract

import (
	"net/url"
	"strings"
)

// NewWorkday handles myworkdayjobs.com and myworkdaysite.com tenants. Workday
// pages are assembled client-side, so fetching escalates across strategies.
func NewWorkday(deps Deps) *Site {
	s := newSite("Workday", deps)
	s.match = func(u *url.URL) bool {
		return hostIs(u, "myworkdayjobs.com") || hostIs(u, "myworkdaysite.com")
	}
	s.mode = fetchMulti
	s.slug = workdayTenant
	s.selectors = Selectors{
		Title: []string{
			"[data-automation-id='jobPostingHeader']",
			"h2[data-automation-id='jobPostingHeader']",
			"h1",
		},
		Location: []string{
			"[data-automation-id='locations'] dd",
			"[data-automation-id='locations']",
			"[data-automation-id='jobPostingLocation']",
		},
		Description: []string{
			"[data-automation-id='jobPostingDescription']",
			"#mainContent",
		},
	}
	return s
}

// workdayTenant takes the tenant from acme.wd5.myworkdayjobs.com, or from the
// path of myworkdaysite.com/recruiting/<tenant>/...
func workdayTenant(u *url.URL) string {
	if u == nil {
		return ""
	}
	if hostIs(u, "myworkdaysite.com") {
		return CompanyFromURL(u.String(), "recruiting")
	}
	parts := strings.Split(u.Hostname(), ".")
	if len(parts) < 3 {
		return ""
	}
	return capitalize(parts[0])
}
