package extractor

import (
	"bytes"
	"fmt"
	"strings"

	"athena/internal/schema"
	"athena/pkg/logger"

	ledongthuc "github.com/ledongthuc/pdf"
	unipdfextractor "github.com/unidoc/unipdf/v3/extractor"
	unipdfmodel "github.com/unidoc/unipdf/v3/model"
)

// pdfMagic is the fixed 5-byte header every PDF file starts with.
var pdfMagic = []byte("%PDF-")

// pdfStrategy is one way of pulling text out of a PDF. Strategies are
// tried in order until one yields non-whitespace text.
type pdfStrategy interface {
	Name() string
	Extract(data []byte) (text string, pages int, warnings []string, err error)
}

// extractPDF validates the PDF header and then walks the strategy list.
// A single page failing inside a strategy is skipped with a warning;
// the strategy only fails when no page yields text.
func (p *Processor) extractPDF(data []byte) (*schema.Extraction, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("PDF file is empty (0 bytes)")
	}
	if !bytes.HasPrefix(data, pdfMagic) {
		return nil, fmt.Errorf("file is not a valid PDF (missing %%PDF- header)")
	}

	var failures []string
	for _, strategy := range p.pdfStrategies {
		text, pages, warnings, err := strategy.Extract(data)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", strategy.Name(), err))
			p.log.Warnf("PDF strategy %s failed: %v", strategy.Name(), err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			failures = append(failures, fmt.Sprintf("%s: no text on any page", strategy.Name()))
			p.log.Warnf("PDF strategy %s produced no text, trying next", strategy.Name())
			continue
		}
		return &schema.Extraction{
			Text: text,
			Metadata: schema.ExtractionMetadata{
				Pages:  pages,
				Method: strategy.Name(),
			},
			Warnings: warnings,
		}, nil
	}

	return nil, fmt.Errorf(
		"all PDF readers failed to extract text (%s); this might be a scanned PDF, an encrypted PDF, or the text might be embedded as images",
		strings.Join(failures, "; "))
}

// extractPages folds a per-page extraction function over 1..pages,
// accumulating page blocks and skipping failed pages with a warning.
func extractPages(pages int, log *logger.Logger, pageText func(n int) (string, error)) (string, []string) {
	var sb strings.Builder
	var warnings []string
	for n := 1; n <= pages; n++ {
		text, err := pageText(n)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("page %d skipped: %v", n, err))
			log.Warnf("failed to extract text from page %d: %v", n, err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		sb.WriteString(fmt.Sprintf("\n--- Page %d ---\n", n))
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	return sb.String(), warnings
}

// ledongthucStrategy is the primary PDF text extraction path.
type ledongthucStrategy struct {
	log *logger.Logger
}

func (s *ledongthucStrategy) Name() string { return "ledongthuc" }

func (s *ledongthucStrategy) Extract(data []byte) (text string, pages int, warnings []string, err error) {
	// The parser panics on some malformed files instead of returning
	// an error; a panic here must fail the strategy, not the process.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parser panic: %v", r)
		}
	}()

	reader, err := ledongthuc.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	pages = reader.NumPage()
	if pages == 0 {
		return "", 0, nil, fmt.Errorf("PDF has no pages")
	}

	text, warnings = extractPages(pages, s.log, func(n int) (string, error) {
		page := reader.Page(n)
		if page.V.IsNull() {
			return "", fmt.Errorf("page object is null")
		}
		return page.GetPlainText(nil)
	})
	return text, pages, warnings, nil
}

// unipdfStrategy is the fallback PDF text extraction path.
type unipdfStrategy struct {
	log *logger.Logger
}

func (s *unipdfStrategy) Name() string { return "unipdf" }

func (s *unipdfStrategy) Extract(data []byte) (text string, pages int, warnings []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parser panic: %v", r)
		}
	}()

	reader, err := unipdfmodel.NewPdfReader(bytes.NewReader(data))
	if err != nil {
		return "", 0, nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	pages, err = reader.GetNumPages()
	if err != nil {
		return "", 0, nil, fmt.Errorf("failed to read page count: %w", err)
	}
	if pages == 0 {
		return "", 0, nil, fmt.Errorf("PDF has no pages")
	}

	text, warnings = extractPages(pages, s.log, func(n int) (string, error) {
		page, err := reader.GetPage(n)
		if err != nil {
			return "", err
		}
		ex, err := unipdfextractor.New(page)
		if err != nil {
			return "", err
		}
		return ex.ExtractText()
	})
	return text, pages, warnings, nil
}
