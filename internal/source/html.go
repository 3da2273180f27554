package source

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/couchcryptid/covid-data-etl/internal/domain"
)

// ParseHTML parses a fetched page. A body the parser rejects is format drift.
func ParseHTML(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: parse html: %v", domain.ErrFormatDrift, err)
	}
	return doc, nil
}

// Text returns the selection's text with runs of whitespace collapsed to a
// single space, so patterns can span markup line breaks.
func Text(sel *goquery.Selection) string {
	return strings.Join(strings.Fields(sel.Text()), " ")
}
