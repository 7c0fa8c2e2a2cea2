package ingest

import (
	"fmt"

	"github.com/ledongthuc/pdf"
)

// PageText is the extracted plain text of one PDF page.
type PageText struct {
	Page int
	Text string
}

// ExtractPages pulls plain text out of every page of the PDF at path.
// Pages that fail to decode are skipped rather than aborting the file;
// scanned textbooks often carry a few image-only pages.
func ExtractPages(path string) ([]PageText, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	var pages []PageText
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		if text == "" {
			continue
		}
		pages = append(pages, PageText{Page: i, Text: text})
	}
	return pages, nil
}
