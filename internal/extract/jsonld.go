package extract

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/JakeFAU/jobparser/internal/document"
	"github.com/JakeFAU/jobparser/internal/job"
)

// Posting holds the JobPosting fields read from schema.org JSON-LD.
type Posting struct {
	Title        string
	Company      string
	Location     string
	Description  string
	Compensation job.CompensationInfo
}

// JSONLDPosting returns the first JobPosting object embedded in the document.
func JSONLDPosting(doc *document.Document) (Posting, bool) {
	var (
		found Posting
		ok    bool
	)
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var raw any
		if err := json.Unmarshal([]byte(strings.TrimSpace(s.Text())), &raw); err != nil {
			return true
		}
		if obj := findJobPosting(raw); obj != nil {
			found, ok = postingFrom(obj), true
			return false
		}
		return true
	})
	return found, ok
}

func findJobPosting(v any) map[string]any {
	switch t := v.(type) {
	case []any:
		for _, item := range t {
			if obj := findJobPosting(item); obj != nil {
				return obj
			}
		}
	case map[string]any:
		if hasType(t["@type"], "JobPosting") {
			return t
		}
		if graph, ok := t["@graph"]; ok {
			return findJobPosting(graph)
		}
	}
	return nil
}

func hasType(v any, want string) bool {
	switch t := v.(type) {
	case string:
		return strings.EqualFold(t, want)
	case []any:
		for _, item := range t {
			if hasType(item, want) {
				return true
			}
		}
	}
	return false
}

func postingFrom(obj map[string]any) Posting {
	p := Posting{
		Title:       CleanText(str(obj["title"])),
		Company:     CleanText(nameOf(obj["hiringOrganization"])),
		Location:    CleanLocation(locationOf(obj)),
		Description: CleanDescription(htmlText(str(obj["description"]))),
	}
	p.Compensation = salaryOf(obj["baseSalary"])
	return p
}

func str(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}

func nameOf(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case map[string]any:
		return str(t["name"])
	case []any:
		if len(t) > 0 {
			return nameOf(t[0])
		}
	}
	return ""
}

func locationOf(obj map[string]any) string {
	var parts []string
	addPlace := func(place any) {
		m, ok := place.(map[string]any)
		if !ok {
			return
		}
		addr, ok := m["address"].(map[string]any)
		if !ok {
			if s := str(m["address"]); s != "" {
				parts = append(parts, s)
			}
			return
		}
		for _, key := range []string{"addressLocality", "addressRegion"} {
			if s := str(addr[key]); s != "" {
				parts = append(parts, s)
			}
		}
		if c := nameOf(addr["addressCountry"]); c != "" {
			parts = append(parts, c)
		}
	}
	switch t := obj["jobLocation"].(type) {
	case []any:
		for _, place := range t {
			addPlace(place)
		}
	default:
		addPlace(t)
	}
	if strings.EqualFold(str(obj["jobLocationType"]), "TELECOMMUTE") {
		parts = append([]string{"Remote"}, parts...)
	}
	return strings.Join(parts, ", ")
}

// htmlText reads the text of a description that may be markup, entity-escaped
// markup, or plain text.
func htmlText(fragment string) string {
	fragment = html.UnescapeString(fragment)
	if !strings.Contains(fragment, "<") {
		return fragment
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	doc.Find(blockElements).AppendHtml(" ")
	return doc.Text()
}

func num(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(t, ",", ""), 64)
		return f, err == nil
	}
	return 0, false
}

func salaryOf(v any) job.CompensationInfo {
	none := job.CompensationInfo{Type: job.CompensationUnknown}
	m, ok := v.(map[string]any)
	if !ok {
		return none
	}
	var (
		amount float64
		found  bool
		unit   string
	)
	switch value := m["value"].(type) {
	case map[string]any:
		unit = str(value["unitText"])
		lo, hasLo := num(value["minValue"])
		hi, hasHi := num(value["maxValue"])
		single, hasSingle := num(value["value"])
		switch {
		case hasLo && hasHi:
			amount, found = (lo+hi)/2, true
		case hasSingle:
			amount, found = single, true
		case hasLo:
			amount, found = lo, true
		case hasHi:
			amount, found = hi, true
		}
	default:
		amount, found = num(value)
		unit = str(m["unitText"])
	}
	if !found {
		return none
	}
	var typ job.CompensationType
	switch strings.ToUpper(unit) {
	case "HOUR":
		typ = job.CompensationHourly
	case "YEAR":
		typ = job.CompensationAnnual
	default:
		typ = classifyUnit(amount, false, "", "")
	}
	return job.CompensationInfo{Amount: &amount, Type: typ}
}
