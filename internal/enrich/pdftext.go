package enrich

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// PDFExtractor extracts plain text from PDF attachments. Scanned
// documents typically come out near-empty here, which is what triggers
// the OCR fallback.
type PDFExtractor struct{}

// NewPDFExtractor builds a PDFExtractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// Extract reads the embedded text layer of the document.
func (p *PDFExtractor) Extract(_ context.Context, data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var out bytes.Buffer
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// One unreadable page does not void the rest of the document.
			continue
		}
		out.WriteString(text)
		out.WriteByte('\n')
	}
	return out.String(), nil
}
