package static

import (
	"strings"
	"unicode"
)

// mojibake lists byte sequences left behind when UTF-8 text is decoded as Latin-1/Windows-1252.
var mojibake = []string{
	"Ã©", "Ã¨", "Ã¢", "Ã®", "Ã´", "Ã»", "Ã§", "Ã±",
	"Ã¶", "Ã¼", "Ã¤", "Ã¡", "Ã³", "Ãº",
	"â€™", "â€˜", "â€œ", "â€\u009d", "â€“", "â€”", "â€¦", "â€¢",
	"Â ", "Â©", "Â®",
}

const (
	maxControlRatio   = 0.005
	minMojibakeHits   = 3
	replacementMarker = '\uFFFD'
)

// IsGarbled reports whether text shows signs of having been decoded with the wrong charset.
func IsGarbled(text string) bool {
	if text == "" {
		return true
	}
	if strings.ContainsRune(text, replacementMarker) {
		return true
	}

	var total, control int
	for _, r := range text {
		total++
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			control++
		}
	}
	if float64(control)/float64(total) > maxControlRatio {
		return true
	}

	hits := 0
	for _, pattern := range mojibake {
		if strings.Contains(text, pattern) {
			hits++
			if hits >= minMojibakeHits {
				return true
			}
		}
	}
	return false
}
