package extract

import (
	"strings"

	"github.com/JakeFAU/jobparser/internal/job"
)

var experienceBuckets = []struct {
	level    job.ExperienceLevel
	keywords []string
}{
	{job.ExperienceSenior, []string{"senior", "sr.", "lead", "principal", "staff", "architect"}},
	{job.ExperienceJunior, []string{"junior", "jr.", "entry", "associate", "graduate"}},
	{job.ExperienceIntern, []string{"intern", "internship"}},
	{job.ExperienceMid, []string{"mid", "intermediate"}},
}

// ClassifyExperience maps text to an experience level by case-insensitive
// keyword match. A nil text has no signal and yields ""; any other text that
// matches nothing is MID.
func ClassifyExperience(text *string) job.ExperienceLevel {
	if text == nil {
		return ""
	}
	lower := strings.ToLower(*text)
	for _, b := range experienceBuckets {
		for _, kw := range b.keywords {
			if strings.Contains(lower, kw) {
				return b.level
			}
		}
	}
	return job.ExperienceMid
}

// ExperienceFor classifies the title and, when that gives the neutral MID,
// re-classifies using the description.
func ExperienceFor(title string, description *string) job.ExperienceLevel {
	level := ClassifyExperience(&title)
	if level != job.ExperienceMid || description == nil {
		return level
	}
	if fromDesc := ClassifyExperience(description); fromDesc != "" {
		return fromDesc
	}
	return level
}
