package html

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const ellipsis = "…"

// PreviewText turns a post description into plain text of at most maxChars
// runes. maxChars <= 0 disables truncation.
func PreviewText(description string, maxChars int) string {
	text := collapse(description)
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(description)); err == nil {
		text = readableText(doc)
	}

	if maxChars <= 0 || len([]rune(text)) <= maxChars {
		return text
	}
	return strings.TrimSpace(truncate(text, maxChars-1)) + ellipsis
}
