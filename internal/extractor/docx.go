package extractor

import (
	"bytes"
	"fmt"
	"strings"

	"athena/internal/schema"

	"github.com/unidoc/unioffice/v2/document"
)

// extractDocx walks the document into raw paragraph and table cell
// texts and renders them with renderDocx. A document with neither
// paragraphs nor table content fails.
func (p *Processor) extractDocx(data []byte) (*schema.Extraction, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("DOCX file is empty (0 bytes)")
	}

	doc, err := document.Read(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open DOCX: %w", err)
	}
	defer doc.Close()

	var paragraphs []string
	for _, para := range doc.Paragraphs() {
		paragraphs = append(paragraphs, paragraphText(para))
	}

	var tables [][][]string
	for _, table := range doc.Tables() {
		var rows [][]string
		for _, row := range table.Rows() {
			var cells []string
			for _, cell := range row.Cells() {
				var cellText strings.Builder
				for _, para := range cell.Paragraphs() {
					cellText.WriteString(paragraphText(para))
				}
				cells = append(cells, cellText.String())
			}
			rows = append(rows, cells)
		}
		tables = append(tables, rows)
	}

	text, paragraphCount := renderDocx(paragraphs, tables)
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("no text found in DOCX document")
	}

	return &schema.Extraction{
		Text: text,
		Metadata: schema.ExtractionMetadata{
			Paragraphs: paragraphCount,
			Tables:     len(tables),
			Method:     "docx",
		},
	}, nil
}

// renderDocx joins non-empty paragraphs newline-separated, then renders
// each table as a "--- Table N ---" block with one line per row, cells
// trimmed and joined by " | ". Empty cells are omitted; a row with no
// non-empty cells contributes no line. Returns the rendered text and
// the count of non-empty paragraphs.
func renderDocx(paragraphs []string, tables [][][]string) (string, int) {
	var sb strings.Builder
	paragraphCount := 0
	for _, text := range paragraphs {
		if strings.TrimSpace(text) == "" {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
		paragraphCount++
	}

	for i, rows := range tables {
		sb.WriteString(fmt.Sprintf("\n--- Table %d ---\n", i+1))
		for _, cells := range rows {
			var kept []string
			for _, cell := range cells {
				if trimmed := strings.TrimSpace(cell); trimmed != "" {
					kept = append(kept, trimmed)
				}
			}
			if len(kept) > 0 {
				sb.WriteString(strings.Join(kept, " | "))
				sb.WriteString("\n")
			}
		}
	}
	return sb.String(), paragraphCount
}

func paragraphText(para document.Paragraph) string {
	var sb strings.Builder
	for _, run := range para.Runs() {
		sb.WriteString(run.Text())
	}
	return sb.String()
}
