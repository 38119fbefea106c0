// Package processor extracts per-page text, tables and raster images from a
// PDF document. Pages are 1-indexed throughout.
package processor

import (
	"fmt"
	"log"

	"github.com/ledongthuc/pdf"
)

// PageText is the plain text of one page.
type PageText struct {
	Page int
	Text string
}

// ExtractText extracts plain text page by page. Pages that fail to decode
// are logged and skipped; page numbers of the remaining pages are untouched.
func ExtractText(filePath string) ([]PageText, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var pages []PageText
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			log.Printf("Warning: failed to extract text from page %d: %v", i, err)
			continue
		}

		pages = append(pages, PageText{Page: i, Text: text})
	}

	return pages, nil
}
