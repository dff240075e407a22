package extractor

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"athena/internal/schema"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// txtEncoding is one entry in the ordered decode attempt list.
type txtEncoding struct {
	name   string
	decode func(data []byte) (string, error)
}

// txtEncodings are tried in order; the first that decodes without error
// wins. The single-byte charmaps accept any input, so they act as the
// terminal fallback the way latin-1 does in most text pipelines.
var txtEncodings = []txtEncoding{
	{"utf-8", decodeUTF8},
	{"utf-16", decoderFunc(unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM))},
	{"latin-1", decoderFunc(charmap.ISO8859_1)},
	{"windows-1252", decoderFunc(charmap.Windows1252)},
	{"iso-8859-1", decoderFunc(charmap.ISO8859_1)},
}

// extractTxt decodes a plain text file. A zero-byte file is a valid,
// successful extraction with empty text.
func (p *Processor) extractTxt(data []byte) (*schema.Extraction, error) {
	if len(data) == 0 {
		return &schema.Extraction{
			Text: "",
			Metadata: schema.ExtractionMetadata{
				Encoding: "utf-8",
				Lines:    0,
				Method:   "plain_text",
			},
		}, nil
	}

	for _, enc := range txtEncodings {
		text, err := enc.decode(data)
		if err != nil {
			continue
		}
		return &schema.Extraction{
			Text: text,
			Metadata: schema.ExtractionMetadata{
				Encoding: enc.name,
				Lines:    len(strings.Split(text, "\n")),
				Method:   "plain_text",
			},
		}, nil
	}

	return nil, fmt.Errorf("failed to decode text file with any supported encoding")
}

func decodeUTF8(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("invalid utf-8 byte sequence")
	}
	return string(data), nil
}

// decoderFunc adapts an encoding to the attempt-list shape. A fresh
// decoder is created per call since decoders carry internal state.
func decoderFunc(enc encoding.Encoding) func(data []byte) (string, error) {
	return func(data []byte) (string, error) {
		out, err := enc.NewDecoder().Bytes(data)
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
}
