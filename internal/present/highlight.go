// Package present turns search results into the display model the UI
// renders: the results message, the commodity distribution, the timeline
// chart and one card per record.
package present

import (
	"html"
	"regexp"
	"strings"
)

// HighlightColor is the background of highlighted search matches.
const HighlightColor = "#00ff99"

const (
	markOpen  = "<mark style='background: " + HighlightColor + "'>"
	markClose = "</mark>"
)

// Highlight HTML-escapes text and wraps every case-insensitive occurrence
// of term in a <mark>. Matching happens on the raw text so terms containing
// &, < or > still highlight.
func Highlight(text, term string) string {
	if term == "" {
		return html.EscapeString(text)
	}
	re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(term))
	if err != nil {
		return html.EscapeString(text)
	}

	var b strings.Builder
	last := 0
	for _, loc := range re.FindAllStringIndex(text, -1) {
		b.WriteString(html.EscapeString(text[last:loc[0]]))
		b.WriteString(markOpen)
		b.WriteString(html.EscapeString(text[loc[0]:loc[1]]))
		b.WriteString(markClose)
		last = loc[1]
	}
	b.WriteString(html.EscapeString(text[last:]))
	return b.String()
}
