package extract

import (
	"github.com/JakeFAU/jobparser/internal/document"
	"github.com/JakeFAU/jobparser/internal/headless/detector"
)

// Remediation hints attached to incomplete extractions.
const (
	HintAntiBot          = "likely anti-bot protection"
	HintChangedStructure = "likely changed page structure"
)

// RemediationHint guesses why a fetched document yielded no job fields.
func RemediationHint(doc *document.Document, minElements int) string {
	if doc == nil || doc.ElementCount() < minElements || detector.LooksBlocked(doc.HTML()) {
		return HintAntiBot
	}
	return HintChangedStructure
}
