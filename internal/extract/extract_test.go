package extract

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/jobparser/internal/job"
)

const greenhousePage = `<html><head><title>Job Application for Senior Backend Engineer at Acme</title></head><body>
<div class="job__title"><h1>Senior Backend Engineer</h1></div>
<div class="job__location"><svg><text>pin</text></svg> Remote</div>
<div class="job__description">
  <p>You will build the services behind our hiring platform.</p>
  <p>Annual Salary Range: $105,000—$180,000</p>
  <p>Apply now</p>
</div>
</body></html>`

func TestGreenhouseEndToEnd(t *testing.T) {
	t.Parallel()

	src := &fakeSource{pages: map[string]string{"best": greenhousePage}}
	gh := NewGreenhouse(Deps{Source: src})
	url := "https://job-boards.greenhouse.io/acme/jobs/123"

	require.True(t, gh.CanHandle(url))
	res := gh.Parse(context.Background(), url)

	require.True(t, res.Successful, res.ErrorMessage)
	require.NoError(t, res.Validate())
	require.Equal(t, "Greenhouse", res.Source)
	require.Equal(t, url, res.OriginalURL)
	require.Equal(t, "Senior Backend Engineer", res.JobTitle)
	require.Equal(t, "Acme", res.Company)
	require.Equal(t, "Remote", res.Location)
	require.Equal(t, "You will build the services behind our hiring platform. Annual Salary Range: $105,000—$180,000", res.Description)
	require.NotNil(t, res.Compensation)
	require.InDelta(t, 142500.0, *res.Compensation, 0.001)
	require.Equal(t, job.CompensationAnnual, res.CompensationType)
	require.Equal(t, job.ExperienceSenior, res.ExperienceLevel)
}

func TestParseIsDeterministic(t *testing.T) {
	t.Parallel()

	src := &fakeSource{pages: map[string]string{"best": greenhousePage}}
	gh := NewGreenhouse(Deps{Source: src})
	url := "https://job-boards.greenhouse.io/acme/jobs/123"

	require.Equal(t, gh.Parse(context.Background(), url), gh.Parse(context.Background(), url))
}

func TestCompanyFallsBackToUnknown(t *testing.T) {
	t.Parallel()

	src := &fakeSource{pages: map[string]string{"best": `<html><body><h1>Engineer</h1></body></html>`}}
	res := NewGreenhouse(Deps{Source: src}).Parse(context.Background(), "https://boards.greenhouse.io/embed/job_app?token=9")
	require.True(t, res.Successful)
	require.Equal(t, job.UnknownCompany, res.Company)
	require.Nil(t, res.Compensation)
	require.Equal(t, job.CompensationUnknown, res.CompensationType)
	require.Equal(t, job.ExperienceMid, res.ExperienceLevel)
}

func TestFetchFailureIsStructured(t *testing.T) {
	t.Parallel()

	src := &fakeSource{pages: map[string]string{}}
	res := NewLever(Deps{Source: src}).Parse(context.Background(), "https://jobs.lever.co/globex/abc")
	require.False(t, res.Successful)
	require.Equal(t, "Lever", res.Source)
	require.Contains(t, res.ErrorMessage, "failed to fetch https://jobs.lever.co/globex/abc")
	require.NoError(t, res.Validate())
}

type memStore struct {
	mu    sync.Mutex
	paths []string
}

func (m *memStore) PutObject(_ context.Context, path, _ string, data io.Reader) (string, error) {
	if _, err := io.ReadAll(data); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paths = append(m.paths, path)
	return "memory://" + path, nil
}

type fixedHasher struct{}

func (fixedHasher) Hash([]byte) (string, error) { return "abc123", nil }

func TestMissingTitleReportsHintAndSnapshots(t *testing.T) {
	t.Parallel()

	store := &memStore{}
	snaps := NewSnapshotter(store, fixedHasher{}, "snapshots", nil)

	blocked := `<html><head><title>Just a moment...</title></head><body><div>checking</div></body></html>`
	src := &fakeSource{pages: map[string]string{"best": blocked}}
	res := NewGreenhouse(Deps{Source: src, Snapshots: snaps}).Parse(context.Background(), "https://boards.greenhouse.io/acme/jobs/1")
	require.False(t, res.Successful)
	require.Contains(t, res.ErrorMessage, HintAntiBot)
	require.Equal(t, []string{"snapshots/boards.greenhouse.io/abc123.html"}, store.paths)

	restructured := "<html><body><div class='new-layout'>" + strings.Repeat("<span>x</span>", 80) + "</div></body></html>"
	src = &fakeSource{pages: map[string]string{"best": restructured}}
	res = NewLever(Deps{Source: src}).Parse(context.Background(), "https://jobs.lever.co/globex/abc")
	require.False(t, res.Successful)
	require.Contains(t, res.ErrorMessage, HintChangedStructure)
}

type panicSource struct{ fakeSource }

func (p *panicSource) IsAvailable() bool { panic("boom") }

func TestPanicBecomesFailure(t *testing.T) {
	t.Parallel()

	res := NewWorkday(Deps{Source: &panicSource{}}).Parse(context.Background(), "https://acme.wd5.myworkdayjobs.com/External/job/1")
	require.False(t, res.Successful)
	require.Equal(t, "Workday", res.Source)
	require.Contains(t, res.ErrorMessage, "boom")
}

func TestWorkdayDegradesWithoutRenderer(t *testing.T) {
	t.Parallel()

	page := `<html><body><h2 data-automation-id="jobPostingHeader">Staff Accountant</h2>
<div data-automation-id="locations"><dt>Locations</dt><dd>Chicago, IL</dd></div>
<div data-automation-id="jobPostingDescription"><p>Pay range $70,000 - $90,000 per year.</p></div></body></html>`
	src := &fakeSource{available: false, pages: map[string]string{"enhanced": page}}
	res := NewWorkday(Deps{Source: src}).Parse(context.Background(), "https://acme.wd5.myworkdayjobs.com/en-US/External/job/Chicago/Staff-Accountant_R1")

	require.True(t, res.Successful, res.ErrorMessage)
	require.Equal(t, "Staff Accountant", res.JobTitle)
	require.Equal(t, "Acme", res.Company)
	require.Equal(t, "Chicago, IL", res.Location)
	require.InDelta(t, 80000, *res.Compensation, 0.001)
	require.Equal(t, job.ExperienceSenior, res.ExperienceLevel)
	require.Equal(t, []string{"enhanced", "static"}, src.strategies())
}

func TestWorkdayAllStrategiesFail(t *testing.T) {
	t.Parallel()

	src := &fakeSource{available: false}
	res := NewWorkday(Deps{Source: src}).Parse(context.Background(), "https://acme.wd5.myworkdayjobs.com/External/job/1")
	require.False(t, res.Successful)
	require.Contains(t, res.ErrorMessage, "rendering unavailable")
}

func TestGenericPrefersJSONLD(t *testing.T) {
	t.Parallel()

	page := strings.Replace(jsonLDPage, "<body></body>", "<body><h1>Careers</h1></body>", 1)
	src := &fakeSource{pages: map[string]string{"best": page}}
	res := NewGeneric(Deps{Source: src}).Parse(context.Background(), "https://careers.initech.example/jobs/42")

	require.True(t, res.Successful, res.ErrorMessage)
	require.Equal(t, "Generic", res.Source)
	require.Equal(t, "Platform Engineer", res.JobTitle)
	require.Equal(t, "Initech", res.Company)
	require.InDelta(t, 140000, *res.Compensation, 0.001)
	require.Equal(t, job.CompensationAnnual, res.CompensationType)
}

func TestGenericMetaFallback(t *testing.T) {
	t.Parallel()

	page := `<html><head><meta property="og:title" content="Data Engineer"><meta property="og:site_name" content="Hooli"></head><body><p>Hi</p></body></html>`
	src := &fakeSource{pages: map[string]string{"best": page}}
	res := NewGeneric(Deps{Source: src}).Parse(context.Background(), "https://hooli.example/jobs/1")
	require.True(t, res.Successful)
	require.Equal(t, "Data Engineer", res.JobTitle)
	require.Equal(t, "Hooli", res.Company)
}

func TestTruncateLongTitle(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("é", MaxTitleLength+20)
	src := &fakeSource{pages: map[string]string{"best": fmt.Sprintf("<h1>%s</h1>", long)}}
	res := NewGreenhouse(Deps{Source: src}).Parse(context.Background(), "https://boards.greenhouse.io/acme/jobs/1")
	require.True(t, res.Successful)
	require.Equal(t, MaxTitleLength, len([]rune(res.JobTitle)))
}

func TestCanHandle(t *testing.T) {
	t.Parallel()

	deps := Deps{Source: &fakeSource{}}
	tests := []struct {
		url  string
		site string
	}{
		{"https://www.linkedin.com/jobs/view/3912345678", "LinkedIn"},
		{"https://www.indeed.com/viewjob?jk=abc123", "Indeed"},
		{"https://uk.indeed.com/m/viewjob?jk=1", "Indeed"},
		{"https://job-boards.greenhouse.io/acme/jobs/123", "Greenhouse"},
		{"https://boards.greenhouse.io/embed/job_app?for=acme&token=1", "Greenhouse"},
		{"https://jobs.lever.co/globex/abc-123", "Lever"},
		{"https://jobs.ashbyhq.com/initech/0f1e", "Ashby"},
		{"https://acme.wd5.myworkdayjobs.com/en-US/External/job/1", "Workday"},
		{"https://careers.example.com/jobs/1", "Generic"},
	}
	extractors := Default(deps, true)
	for _, tt := range tests {
		var matched []string
		for _, e := range extractors {
			if e.CanHandle(tt.url) {
				matched = append(matched, e.Name())
			}
		}
		require.NotEmpty(t, matched, tt.url)
		require.Equal(t, tt.site, matched[0], tt.url)
		if tt.site != "Generic" {
			require.Equal(t, []string{tt.site, "Generic"}, matched, "board URLs match only their family and the fallback")
		}
	}

	for _, e := range Default(deps, false) {
		require.False(t, e.CanHandle("https://careers.example.com/jobs/1"), e.Name())
		require.False(t, e.CanHandle("ftp://jobs.lever.co/x"), e.Name())
		require.False(t, e.CanHandle("not a url"), e.Name())
		require.False(t, e.CanHandle("https://www.linkedin.com/in/someone"), e.Name())
	}
}
