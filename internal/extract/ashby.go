package extract

import "net/url"

// NewAshby handles jobs.ashbyhq.com postings. The pages are client-rendered,
// so fetching escalates across strategies.
func NewAshby(deps Deps) *Site {
	s := newSite("Ashby", deps)
	s.match = func(u *url.URL) bool {
		return hostIs(u, "jobs.ashbyhq.com")
	}
	s.mode = fetchMulti
	s.slug = firstSegment
	s.selectors = Selectors{
		Title: []string{
			"h1.ashby-job-posting-heading",
			"[class*='_title_'] h1",
			"h1",
		},
		Location: []string{
			"[class*='_location_']",
			".ashby-job-posting-left-pane [class*='location']",
		},
		Description: []string{
			"[class*='_descriptionText_']",
			".ashby-job-posting-description",
			"main",
		},
		Salary: []string{
			"[class*='_compensation_']",
			".ashby-job-posting-compensation",
		},
	}
	return s
}
