// Package enrich augments newly discovered records with attachment text
// and a generated summary. The pipeline is an ordered chain of steps,
// each of which degrades to a placeholder on failure instead of aborting
// the record or the run.
package enrich

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/gfiorillo/albowatch/internal/albo"
	"github.com/gfiorillo/albowatch/internal/summarize"
)

// Placeholders substituted when a step degrades. User-facing, hence
// Italian like the rest of the notification text.
const (
	PlaceholderNoAttachment        = "nessun allegato disponibile"
	PlaceholderInsufficientContent = "contenuto insufficiente per il riassunto"
	PlaceholderSummaryFailed       = "riassunto non disponibile"
)

// Degradation markers recorded per step.
const (
	StepNoAttachment     = "no-attachment"
	StepExtractionFailed = "extraction-failed"
	StepSummaryFailed    = "summarization-failed"
)

// Locator finds and fetches the attachment document behind a record's
// detail page.
type Locator interface {
	Locate(ctx context.Context, detailURL string) (string, error)
	Fetch(ctx context.Context, attachmentURL string) ([]byte, error)
}

// TextExtractor pulls text out of the attachment bytes.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// OCREngine recognizes text from the attachment's rasterized pages. It is
// the fallback when primary extraction yields near-empty text.
type OCREngine interface {
	Recognize(ctx context.Context, data []byte, language string) (string, error)
}

// Step is one stage of the enrichment chain. On failure it sets its own
// placeholder output and returns the error; the chain records the
// degradation and keeps going.
type Step struct {
	Name string
	Run  func(ctx context.Context, rec albo.Record, enr *albo.Enrichment) error
}

// Config tunes the enrichment chain.
type Config struct {
	// MinTextChars is the threshold below which primary extraction is
	// considered near-empty (triggering OCR) and below which
	// summarization is skipped.
	MinTextChars int
	// OCRLanguage is passed to the OCR engine, matching the source
	// documents' language.
	OCRLanguage string
}

// Enricher runs the enrichment chain over one record at a time.
type Enricher struct {
	steps  []Step
	logger *zap.Logger
}

// New assembles the default chain: locate attachment, extract text
// (with OCR fallback), summarize.
func New(
	locator Locator,
	extractor TextExtractor,
	ocr OCREngine,
	summarizer summarize.Summarizer,
	cfg Config,
	logger *zap.Logger,
) *Enricher {
	if cfg.MinTextChars <= 0 {
		cfg.MinTextChars = 100
	}
	steps := []Step{
		attachmentStep(locator),
		extractionStep(locator, extractor, ocr, cfg),
		summaryStep(summarizer, cfg),
	}
	return &Enricher{steps: steps, logger: logger}
}

// NewWithSteps builds an Enricher from a custom chain. Deployments can
// add or drop stages without touching the run orchestration.
func NewWithSteps(steps []Step, logger *zap.Logger) *Enricher {
	return &Enricher{steps: steps, logger: logger}
}

// Enrich attaches an Enrichment to the record, running every step in
// order. A failing step is logged and recorded as degraded; it never
// stops the chain.
func (e *Enricher) Enrich(ctx context.Context, rec *albo.Record) {
	enr := &albo.Enrichment{}
	for _, step := range e.steps {
		if err := step.Run(ctx, *rec, enr); err != nil {
			e.logger.Warn("enrichment step degraded",
				zap.String("record_id", rec.ID),
				zap.String("step", step.Name),
				zap.Error(err),
			)
			enr.Degraded = append(enr.Degraded, step.Name)
		}
	}
	rec.Enrichment = enr
}

// attachmentStep resolves the attachment behind the detail page. A detail
// page without an attachment is a degradation, not an error condition.
func attachmentStep(locator Locator) Step {
	return Step{
		Name: StepNoAttachment,
		Run: func(ctx context.Context, rec albo.Record, enr *albo.Enrichment) error {
			attachmentURL, err := locator.Locate(ctx, rec.DetailURL)
			if err != nil {
				return err
			}
			enr.AttachmentURL = attachmentURL
			return nil
		},
	}
}

// extractionStep fetches the attachment and extracts its text, falling
// back to OCR when the primary extraction yields near-empty output.
func extractionStep(locator Locator, extractor TextExtractor, ocr OCREngine, cfg Config) Step {
	return Step{
		Name: StepExtractionFailed,
		Run: func(ctx context.Context, rec albo.Record, enr *albo.Enrichment) error {
			if enr.AttachmentURL == "" {
				// Nothing to extract; the attachment step already degraded.
				return nil
			}

			data, err := locator.Fetch(ctx, enr.AttachmentURL)
			if err != nil {
				return err
			}

			text, extractErr := extractor.Extract(ctx, data)
			text = NormalizeWhitespace(text)

			if len(text) < cfg.MinTextChars && ocr != nil {
				recognized, ocrErr := ocr.Recognize(ctx, data, cfg.OCRLanguage)
				if ocrErr == nil {
					if normalized := NormalizeWhitespace(recognized); len(normalized) > len(text) {
						text = normalized
					}
				}
			}

			enr.ExtractedText = text
			if text == "" && extractErr != nil {
				return extractErr
			}
			return nil
		},
	}
}

// summaryStep submits the extracted text for summarization, short-
// circuiting to a fixed placeholder when there is too little content to
// be worth a model call.
func summaryStep(summarizer summarize.Summarizer, cfg Config) Step {
	return Step{
		Name: StepSummaryFailed,
		Run: func(ctx context.Context, rec albo.Record, enr *albo.Enrichment) error {
			if enr.AttachmentURL == "" {
				enr.Summary = PlaceholderNoAttachment
				return nil
			}
			if len(enr.ExtractedText) < cfg.MinTextChars {
				enr.Summary = PlaceholderInsufficientContent
				return nil
			}

			summary, err := summarizer.Summarize(ctx, enr.ExtractedText)
			if err != nil {
				enr.Summary = PlaceholderSummaryFailed
				return err
			}
			enr.Summary = summary
			return nil
		},
	}
}

// NormalizeWhitespace collapses runs of whitespace to single spaces and
// trims the result.
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// IsPlaceholder reports whether the summary is empty or one of the fixed
// degradation placeholders rather than model output.
func IsPlaceholder(summary string) bool {
	switch summary {
	case "", PlaceholderNoAttachment, PlaceholderInsufficientContent, PlaceholderSummaryFailed:
		return true
	}
	return false
}
