package extract

import "net/url"

// NewGeneric handles any http(s) URL, preferring schema.org JobPosting data and
// falling back to heading and meta heuristics. It must be registered last.
func NewGeneric(deps Deps) *Site {
	s := newSite("Generic", deps)
	s.match = func(*url.URL) bool { return true }
	s.jsonLDFirst = true
	s.metaFallback = true
	s.selectors = Selectors{
		Title: []string{
			"[itemprop='title']",
			".job-title",
			"h1",
		},
		Company: []string{
			"[itemprop='hiringOrganization'] [itemprop='name']",
			"[itemprop='hiringOrganization']",
			".company-name",
		},
		Location: []string{
			"[itemprop='jobLocation']",
			".job-location",
			".location",
			"[data-testid*='location']",
		},
		Description: []string{
			"[itemprop='description']",
			".job-description",
			"#job-description",
			"article",
			"main",
		},
		Salary: []string{
			"[itemprop='baseSalary']",
			".salary",
			".compensation",
		},
	}
	return s
}
