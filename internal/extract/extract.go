// Package extract strips markup from fetched HTML documents.
package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// TextExtractor reduces an HTML document to its visible text.
type TextExtractor struct{}

// New creates a TextExtractor.
func New() *TextExtractor {
	return &TextExtractor{}
}

// Extract implements search.Extractor. Script and style contents are
// dropped before textifying.
func (e *TextExtractor) Extract(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style, noscript").Remove()
	text := doc.Text()
	return collapseWhitespace(text), nil
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
