package extract

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/jobparser/internal/job"
)

func str2ptr(s string) *string { return &s }

func TestClassifyExperience(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text *string
		want job.ExperienceLevel
	}{
		{str2ptr("Senior Software Engineer"), job.ExperienceSenior},
		{str2ptr("Junior Developer - Entry Level"), job.ExperienceJunior},
		{str2ptr("Summer Internship"), job.ExperienceIntern},
		{str2ptr("Software Engineer"), job.ExperienceMid},
		{str2ptr("Sr. Data Analyst"), job.ExperienceSenior},
		{str2ptr("Staff Engineer"), job.ExperienceSenior},
		{str2ptr("Graduate Analyst"), job.ExperienceJunior},
		{str2ptr("Intermediate Designer"), job.ExperienceMid},
		{str2ptr(""), job.ExperienceMid},
		{nil, ""},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, ClassifyExperience(tt.text))
	}
}

func TestExperienceForFallsBackToDescription(t *testing.T) {
	t.Parallel()

	require.Equal(t, job.ExperienceSenior, ExperienceFor("Senior Engineer", str2ptr("entry level friendly")))
	require.Equal(t, job.ExperienceJunior, ExperienceFor("Software Engineer", str2ptr("Great entry point for new grads")))
	require.Equal(t, job.ExperienceMid, ExperienceFor("Software Engineer", nil))
	require.Equal(t, job.ExperienceMid, ExperienceFor("Software Engineer", str2ptr("Build APIs in Go")))
}
