package extractor

import (
	"fmt"
	"path/filepath"
	"strings"

	"athena/internal/schema"
	"athena/pkg/logger"
)

// Supported file extensions, lowercased with the leading dot.
var supportedFormats = []string{".pdf", ".docx", ".txt"}

// Processor converts raw document bytes into plain text plus structural
// metadata. Each format has its own extraction policy; PDF runs a
// prioritized list of strategies until one yields text.
type Processor struct {
	log           *logger.Logger
	maxFileSizeMB int
	pdfStrategies []pdfStrategy
}

// NewProcessor creates a Processor with the given file size ceiling in
// megabytes.
func NewProcessor(maxFileSizeMB int, log *logger.Logger) *Processor {
	if maxFileSizeMB <= 0 {
		maxFileSizeMB = 50
	}
	return &Processor{
		log:           log,
		maxFileSizeMB: maxFileSizeMB,
		pdfStrategies: []pdfStrategy{
			&ledongthucStrategy{log: log},
			&unipdfStrategy{log: log},
		},
	}
}

// SupportedFormats returns the recognized file extensions.
func (p *Processor) SupportedFormats() []string {
	out := make([]string, len(supportedFormats))
	copy(out, supportedFormats)
	return out
}

// IsSupportedFormat reports whether the filename carries a recognized
// extension.
func (p *Processor) IsSupportedFormat(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, s := range supportedFormats {
		if ext == s {
			return true
		}
	}
	return false
}

// Extract converts the document bytes into text and metadata. The
// returned error carries a user-facing reason; no partial text is
// returned on failure.
func (p *Processor) Extract(data []byte, filename string) (*schema.Extraction, error) {
	fileType := strings.ToLower(filepath.Ext(filename))

	if !p.IsSupportedFormat(filename) {
		return nil, fmt.Errorf("unsupported file type: %s", fileType)
	}
	if maxBytes := int64(p.maxFileSizeMB) << 20; int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("file too large (max %dMB)", p.maxFileSizeMB)
	}

	var (
		result *schema.Extraction
		err    error
	)
	switch fileType {
	case ".pdf":
		result, err = p.extractPDF(data)
	case ".docx":
		result, err = p.extractDocx(data)
	case ".txt":
		result, err = p.extractTxt(data)
	}
	if err != nil {
		p.log.WithField("filename", filename).WithError(err).Error("extraction failed")
		return nil, err
	}

	result.FileType = fileType
	result.Text = strings.TrimSpace(result.Text)

	// A zero-byte .txt file is the one place where empty output is a
	// valid result. Everything else must carry non-whitespace text.
	if result.Text == "" && !(fileType == ".txt" && len(data) == 0) {
		return nil, fmt.Errorf("no meaningful content in document")
	}

	p.log.WithField("filename", filename).
		Infof("extracted %d characters via %s", len(result.Text), result.Metadata.Method)
	return result, nil
}
