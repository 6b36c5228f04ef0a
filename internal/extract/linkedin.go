package extract

import (
	"net/url"
	"strings"
)

// NewLinkedIn handles public LinkedIn job views.
func NewLinkedIn(deps Deps) *Site {
	s := newSite("LinkedIn", deps)
	s.match = func(u *url.URL) bool {
		return hostIs(u, "linkedin.com") && strings.HasPrefix(strings.ToLower(u.Path), "/jobs")
	}
	s.selectors = Selectors{
		Title: []string{
			"h1.top-card-layout__title",
			"h1.topcard__title",
			".job-details-jobs-unified-top-card__job-title h1",
			"h1",
		},
		Company: []string{
			"a.topcard__org-name-link",
			".topcard__org-name-link",
			".job-details-jobs-unified-top-card__company-name",
			".top-card-layout__second-subline a",
		},
		Location: []string{
			".topcard__flavor--bullet",
			".job-details-jobs-unified-top-card__bullet",
			".top-card-layout__second-subline .topcard__flavor:nth-of-type(2)",
		},
		Description: []string{
			".show-more-less-html__markup",
			".description__text",
			"#job-details",
			".jobs-description",
		},
		Salary: []string{
			".salary.compensation__salary",
			".compensation__salary",
			".salary-main-rail__salary-info",
		},
	}
	return s
}
