package html

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const noiseSelectors = "script, style, nav, header, footer, aside"

// readableText drops page chrome from doc and returns the collapsed text of
// the first selector that yields any, or of the whole document.
func readableText(doc *goquery.Document, selectors ...string) string {
	doc.Find(noiseSelectors).Remove()

	for _, sel := range selectors {
		if text := collapse(doc.Find(sel).Text()); text != "" {
			return text
		}
	}
	return collapse(doc.Text())
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, maxChars int) string {
	r := []rune(s)
	if maxChars <= 0 || len(r) <= maxChars {
		return s
	}
	return string(r[:maxChars])
}
