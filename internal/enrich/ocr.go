package enrich

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/otiai10/gosseract/v2"
)

// TesseractOCR rasterizes each page of the document with MuPDF and runs
// Tesseract against the images. It is the slow path, used only when the
// text layer is missing or near-empty.
type TesseractOCR struct{}

// NewTesseractOCR builds a TesseractOCR.
func NewTesseractOCR() *TesseractOCR {
	return &TesseractOCR{}
}

// Recognize renders every page to an image and concatenates the
// recognized text, requesting the given language model.
func (t *TesseractOCR) Recognize(ctx context.Context, data []byte, language string) (string, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return "", fmt.Errorf("open document: %w", err)
	}
	defer doc.Close()

	client := gosseract.NewClient()
	defer client.Close()
	if language != "" {
		if err := client.SetLanguage(language); err != nil {
			return "", fmt.Errorf("set OCR language: %w", err)
		}
	}

	var out strings.Builder
	for pageNum := 0; pageNum < doc.NumPage(); pageNum++ {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		img, err := doc.Image(pageNum)
		if err != nil {
			continue
		}

		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			continue
		}
		if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
			continue
		}

		text, err := client.Text()
		if err != nil {
			continue
		}
		out.WriteString(text)
		out.WriteByte('\n')
	}
	return out.String(), nil
}
