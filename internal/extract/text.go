package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/JakeFAU/jobparser/internal/document"
)

var invisible = strings.NewReplacer(
	"\u00a0", " ",
	"\u2007", " ",
	"\u202f", " ",
	"\u200b", "",
	"\u200c", "",
	"\u200d", "",
	"\u2060", "",
	"\ufeff", "",
)

// CleanText normalizes non-breaking and zero-width characters and collapses
// whitespace runs to single spaces. CleanText(CleanText(s)) == CleanText(s).
func CleanText(s string) string {
	return strings.Join(strings.Fields(invisible.Replace(s)), " ")
}

// noise is removed from a selection before its text is read.
const noise = "svg, script, style, noscript, [aria-hidden='true'], .icon, " +
	"i[class*='icon'], i[class^='fa'], i[class*=' fa-'], i[class*='material']"

// blockElements get a trailing space so adjacent paragraphs do not run together.
const blockElements = "p, div, li, br, h1, h2, h3, h4, h5, h6, tr, td, section, ul, ol, dd, dt"

// SelectionText returns the cleaned text of sel without icon, SVG or script content.
func SelectionText(sel *goquery.Selection) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}
	clone := sel.Clone()
	clone.Find(noise).Remove()
	clone.Find(blockElements).AppendHtml(" ")
	return CleanText(clone.Text())
}

// FirstMatch returns the first selection among selectors that yields non-empty text.
func FirstMatch(doc *document.Document, selectors ...string) *goquery.Selection {
	for _, sel := range selectors {
		found := doc.Find(sel)
		for i := range found.Length() {
			candidate := found.Eq(i)
			if SelectionText(candidate) != "" {
				return candidate
			}
		}
	}
	return nil
}

// FirstText returns the cleaned text of the first non-empty selector match.
func FirstText(doc *document.Document, selectors ...string) string {
	return SelectionText(FirstMatch(doc, selectors...))
}

var locationPrefix = regexp.MustCompile(`(?i)^(job\s+)?locations?\s*:\s*`)

// iconLigatures are icon-font names that leak into text when the font does not
// load. Plain words such as "place" are only dropped with their icon element.
var iconLigatures = []string{"location_on", "map-marker", "pin_drop"}

// CleanLocation applies CleanText, drops label and icon text, and de-duplicates
// comma-separated parts.
func CleanLocation(s string) string {
	s = CleanText(s)
	for _, lig := range iconLigatures {
		if strings.HasPrefix(strings.ToLower(s), lig+" ") {
			s = s[len(lig)+1:]
		}
	}
	s = locationPrefix.ReplaceAllString(s, "")

	parts := strings.Split(s, ",")
	seen := make(map[string]bool, len(parts))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = CleanText(p)
		if p == "" || seen[strings.ToLower(p)] {
			continue
		}
		seen[strings.ToLower(p)] = true
		out = append(out, p)
	}
	return strings.Join(out, ", ")
}

var trailingBoilerplate = regexp.MustCompile(`(?i)[\s|·•-]*\b(apply now|apply for this (job|position|role)|submit (your )?application|apply here)[\s.!]*$`)

// CleanDescription applies CleanText and strips trailing apply-now boilerplate.
func CleanDescription(s string) string {
	s = CleanText(s)
	for {
		trimmed := trailingBoilerplate.ReplaceAllString(s, "")
		if trimmed == s {
			return s
		}
		s = CleanText(trimmed)
	}
}
