package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/JakeFAU/jobparser/internal/document"
	"github.com/JakeFAU/jobparser/internal/job"
)

const (
	hourlyCeiling = 200
	annualFloor   = 1000
	unitWindow    = 40
)

var moneyPattern = regexp.MustCompile(
	`\$\s?(\d{1,3}(?:,\d{3})+|\d+)(\.\d+)?\s*([kK])?\b` +
		`(?:\s*(?:-|–|—|to)\s*\$?\s?(\d{1,3}(?:,\d{3})+|\d+)(\.\d+)?\s*([kK])?\b)?`,
)

var (
	hourlyUnit = regexp.MustCompile(`(?i)\b(hour|hourly|hr|hrs)\b|/\s?h\b`)
	annualUnit = regexp.MustCompile(`(?i)\b(year|years|yearly|annual|annually|annum|yr|yrs)\b`)
)

// ParseCompensation finds the first monetary amount or range in text. A range
// yields its midpoint; k-suffixed values are scaled by 1000.
func ParseCompensation(text string) job.CompensationInfo {
	loc := moneyPattern.FindStringSubmatchIndex(text)
	if loc == nil {
		return job.CompensationInfo{Type: job.CompensationUnknown}
	}
	group := func(i int) string {
		if loc[2*i] < 0 {
			return ""
		}
		return text[loc[2*i]:loc[2*i+1]]
	}

	low, ok := parseAmount(group(1), group(2))
	if !ok {
		return job.CompensationInfo{Type: job.CompensationUnknown}
	}
	lowK := group(3) != ""
	high, isRange := parseAmount(group(4), group(5))
	highK := isRange && group(6) != ""

	switch {
	case lowK:
		low *= 1000
	case highK && low < annualFloor:
		// "$80-120k" carries one suffix for both ends.
		low *= 1000
	}
	amount := low
	if isRange {
		if highK || (lowK && high < annualFloor) {
			high *= 1000
		}
		amount = (low + high) / 2
	}

	before := sameSentence(text[max(0, loc[0]-unitWindow):loc[0]])
	after := text[loc[1]:min(len(text), loc[1]+unitWindow)]
	return job.CompensationInfo{Amount: &amount, Type: classifyUnit(amount, lowK || highK, after, before)}
}

// sameSentence keeps the part of a look-behind window after the last sentence
// break, so a unit word from an earlier sentence cannot label the amount.
func sameSentence(before string) string {
	if i := strings.LastIndexAny(before, ".!?\n"); i >= 0 {
		return before[i+1:]
	}
	return before
}

func parseAmount(whole, frac string) (float64, bool) {
	if whole == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(whole, ",", "")+frac, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// classifyUnit prefers an explicit unit after the amount, then the closest one
// before it, then guesses from the magnitude.
func classifyUnit(amount float64, kSuffix bool, after, before string) job.CompensationType {
	if kSuffix {
		return job.CompensationAnnual
	}
	if t := unitIn(after, false); t != "" {
		return t
	}
	if t := unitIn(before, true); t != "" {
		return t
	}
	switch {
	case amount < hourlyCeiling:
		return job.CompensationHourly
	case amount > annualFloor:
		return job.CompensationAnnual
	default:
		return job.CompensationUnknown
	}
}

func unitIn(window string, preceding bool) job.CompensationType {
	h := unitIndex(hourlyUnit, window, preceding)
	a := unitIndex(annualUnit, window, preceding)
	switch {
	case h < 0 && a < 0:
		return ""
	case a < 0:
		return job.CompensationHourly
	case h < 0:
		return job.CompensationAnnual
	case (h > a) == preceding:
		return job.CompensationHourly
	default:
		return job.CompensationAnnual
	}
}

// unitIndex finds the unit match nearest the amount: the first one after it,
// or the last one before it.
func unitIndex(re *regexp.Regexp, window string, preceding bool) int {
	matches := re.FindAllStringIndex(window, -1)
	if len(matches) == 0 {
		return -1
	}
	if preceding {
		return matches[len(matches)-1][0]
	}
	return matches[0][0]
}

// CompensationFrom scans candidate text blocks in order and returns the first
// amount found.
func CompensationFrom(blocks ...string) job.CompensationInfo {
	for _, b := range blocks {
		if !strings.Contains(b, "$") {
			continue
		}
		if info := ParseCompensation(b); info.Amount != nil {
			return info
		}
	}
	return job.CompensationInfo{Type: job.CompensationUnknown}
}

// DocumentCompensation tries a dedicated salary element, then dollar-bearing
// paragraphs in the description, then the whole page text.
func DocumentCompensation(doc *document.Document, salarySelectors []string, description string) job.CompensationInfo {
	blocks := make([]string, 0, 4)
	if len(salarySelectors) > 0 {
		blocks = append(blocks, FirstText(doc, salarySelectors...))
	}
	blocks = append(blocks, dollarSentences(description)...)
	blocks = append(blocks, SelectionText(doc.Find("body")))
	return CompensationFrom(blocks...)
}

var sentenceBreak = regexp.MustCompile(`[.!?]\s+|\n`)

func dollarSentences(text string) []string {
	var out []string
	for _, s := range sentenceBreak.Split(text, -1) {
		if strings.Contains(s, "$") {
			out = append(out, s)
		}
	}
	return out
}
