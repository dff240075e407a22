package extractor

import (
	"fmt"
	"strings"
	"testing"

	"athena/pkg/logger"
)

// stubPDFStrategy stands in for a parsing library so the fallback chain
// can be exercised without PDF fixtures.
type stubPDFStrategy struct {
	name     string
	text     string
	pages    int
	warnings []string
	err      error
	calls    int
}

func (s *stubPDFStrategy) Name() string { return s.name }

func (s *stubPDFStrategy) Extract([]byte) (string, int, []string, error) {
	s.calls++
	return s.text, s.pages, s.warnings, s.err
}

func pdfProcessor(strategies ...pdfStrategy) *Processor {
	p := newTestProcessor()
	p.pdfStrategies = strategies
	return p
}

var pdfSample = []byte("%PDF-1.4\nsample body")

func TestExtractPDF_PrimaryStrategyWins(t *testing.T) {
	primary := &stubPDFStrategy{name: "primary", text: "\n--- Page 1 ---\nhello world\n", pages: 1}
	secondary := &stubPDFStrategy{name: "secondary", text: "unused"}
	p := pdfProcessor(primary, secondary)

	result, err := p.Extract(pdfSample, "doc.pdf")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if result.Metadata.Method != "primary" {
		t.Errorf("expected primary method, got %q", result.Metadata.Method)
	}
	if result.Metadata.Pages != 1 {
		t.Errorf("expected 1 page, got %d", result.Metadata.Pages)
	}
	if !strings.Contains(result.Text, "--- Page 1 ---") {
		t.Errorf("expected page marker in text, got %q", result.Text)
	}
	if secondary.calls != 0 {
		t.Error("secondary strategy must not run when the primary yields text")
	}
}

func TestExtractPDF_FallsBackWhenPrimaryErrors(t *testing.T) {
	primary := &stubPDFStrategy{name: "primary", err: fmt.Errorf("corrupt xref table")}
	secondary := &stubPDFStrategy{name: "secondary", text: "\n--- Page 1 ---\nrecovered\n", pages: 3}
	p := pdfProcessor(primary, secondary)

	result, err := p.Extract(pdfSample, "doc.pdf")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if result.Metadata.Method != "secondary" {
		t.Errorf("expected fallback method, got %q", result.Metadata.Method)
	}
	if result.Metadata.Pages != 3 {
		t.Errorf("expected fallback page count, got %d", result.Metadata.Pages)
	}
	if primary.calls != 1 || secondary.calls != 1 {
		t.Errorf("expected both strategies tried once, got %d and %d", primary.calls, secondary.calls)
	}
}

func TestExtractPDF_FallsBackWhenPrimaryYieldsNoText(t *testing.T) {
	primary := &stubPDFStrategy{name: "primary", text: "   \n  ", pages: 2}
	secondary := &stubPDFStrategy{name: "secondary", text: "\n--- Page 1 ---\nactual content\n", pages: 2}
	p := pdfProcessor(primary, secondary)

	result, err := p.Extract(pdfSample, "doc.pdf")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if result.Metadata.Method != "secondary" {
		t.Errorf("whitespace-only output must fall through, got method %q", result.Metadata.Method)
	}
}

func TestExtractPDF_CompositeErrorNamesBothStrategies(t *testing.T) {
	primary := &stubPDFStrategy{name: "primary", err: fmt.Errorf("parse failure")}
	secondary := &stubPDFStrategy{name: "secondary", text: ""}
	p := pdfProcessor(primary, secondary)

	_, err := p.Extract(pdfSample, "doc.pdf")
	if err == nil {
		t.Fatal("expected error when every strategy fails")
	}
	msg := err.Error()
	if !strings.Contains(msg, "primary") || !strings.Contains(msg, "secondary") {
		t.Errorf("composite error should name both strategies, got: %v", err)
	}
	if !strings.Contains(msg, "scanned") {
		t.Errorf("composite error should hint at likely causes, got: %v", err)
	}
}

func TestExtractPDF_WarningsPropagated(t *testing.T) {
	primary := &stubPDFStrategy{
		name:     "primary",
		text:     "\n--- Page 1 ---\npartial\n",
		pages:    2,
		warnings: []string{"page 2 skipped: damaged stream"},
	}
	p := pdfProcessor(primary)

	result, err := p.Extract(pdfSample, "doc.pdf")
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], "page 2") {
		t.Errorf("expected the skipped-page warning, got %v", result.Warnings)
	}
}

func TestExtractPages_SkipsFailedAndBlankPages(t *testing.T) {
	log := logger.New("pdf-test")
	text, warnings := extractPages(4, log, func(n int) (string, error) {
		switch n {
		case 2:
			return "", fmt.Errorf("damaged content stream")
		case 3:
			return "   \n", nil
		default:
			return fmt.Sprintf("content of page %d", n), nil
		}
	})

	if !strings.Contains(text, "--- Page 1 ---") || !strings.Contains(text, "--- Page 4 ---") {
		t.Errorf("expected markers for successful pages, got %q", text)
	}
	if strings.Contains(text, "--- Page 2 ---") || strings.Contains(text, "--- Page 3 ---") {
		t.Errorf("failed and blank pages must produce no block, got %q", text)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "page 2") {
		t.Errorf("expected one warning for the failed page, got %v", warnings)
	}
}
