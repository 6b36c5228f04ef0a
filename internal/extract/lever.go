package extract

import "net/url"

// NewLever handles jobs.lever.co postings.
func NewLever(deps Deps) *Site {
	s := newSite("Lever", deps)
	s.match = func(u *url.URL) bool {
		return hostIs(u, "jobs.lever.co") || hostIs(u, "jobs.eu.lever.co")
	}
	s.slug = firstSegment
	s.selectors = Selectors{
		Title: []string{
			".posting-headline h2",
			".posting-header h2",
			"h2",
			"h1",
		},
		Location: []string{
			".posting-categories .location",
			".posting-category.location",
			".sort-by-time.posting-category",
		},
		Description: []string{
			"[data-qa='job-description']",
			".section-wrapper.page-full-width",
			".content",
		},
		Salary: []string{
			"[data-qa='salary-range']",
			".posting-salary",
		},
	}
	return s
}
