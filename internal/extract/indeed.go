package extract

import (
	"net/url"
	"strings"
)

// NewIndeed handles Indeed job views on any country domain.
func NewIndeed(deps Deps) *Site {
	s := newSite("Indeed", deps)
	s.match = func(u *url.URL) bool {
		host := strings.ToLower(u.Hostname())
		if !strings.HasPrefix(host, "indeed.") && !strings.Contains(host, ".indeed.") {
			return false
		}
		path := strings.ToLower(u.Path)
		return strings.Contains(path, "viewjob") || strings.HasPrefix(path, "/rc/clk") ||
			strings.HasPrefix(path, "/cmp/") || u.Query().Get("jk") != "" || u.Query().Get("vjk") != ""
	}
	s.selectors = Selectors{
		Title: []string{
			"h1.jobsearch-JobInfoHeader-title",
			"[data-testid='jobsearch-JobInfoHeader-title']",
			".jobsearch-JobInfoHeader-title-container h1",
			"h1",
		},
		Company: []string{
			"[data-testid='inlineHeader-companyName']",
			"[data-company-name='true']",
			".jobsearch-InlineCompanyRating > div:first-child",
		},
		Location: []string{
			"[data-testid='inlineHeader-companyLocation']",
			"[data-testid='job-location']",
			"[data-testid='jobsearch-JobInfoHeader-companyLocation']",
			".jobsearch-JobInfoHeader-subtitle > div:last-child",
		},
		Description: []string{
			"#jobDescriptionText",
			".jobsearch-jobDescriptionText",
			".jobsearch-JobComponent-description",
		},
		Salary: []string{
			"#salaryInfoAndJobType",
			"[data-testid='jobsearch-OtherJobDetailsContainer']",
			".jobsearch-JobMetadataHeader-item",
		},
	}
	return s
}
