package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"feedhub/internal/utils/text"
)

// Text strips markup from an HTML fragment and returns its plain text with
// whitespace collapsed. It never fails: input that does not look like markup
// is returned trimmed, and a fragment the parser rejects falls back to a
// naive tag scrub.
func Text(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return text.CollapseSpace(fragment)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return text.CollapseSpace(scrubTags(fragment))
	}
	doc.Find("script, style, noscript").Remove()
	return text.CollapseSpace(doc.Text())
}

// scrubTags drops everything between '<' and '>'.
func scrubTags(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
			b.WriteByte(' ')
		case r == '>' && inTag:
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return b.String()
}
