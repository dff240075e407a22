package splitter

import (
	"fmt"
	"strings"
)

// WordSplitter splits text into overlapping word-count-bounded chunks.
// The window advances by ChunkSize-ChunkOverlap words per step, so
// consecutive chunks share ChunkOverlap words of context.
type WordSplitter struct {
	ChunkSize    int
	ChunkOverlap int
}

// NewWordSplitter creates a WordSplitter. The overlap must be strictly
// smaller than the chunk size or the window stride would be
// non-positive.
func NewWordSplitter(chunkSize, chunkOverlap int) (*WordSplitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if chunkOverlap < 0 {
		return nil, fmt.Errorf("chunk overlap must not be negative, got %d", chunkOverlap)
	}
	if chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap (%d) must be smaller than chunk size (%d)", chunkOverlap, chunkSize)
	}
	return &WordSplitter{ChunkSize: chunkSize, ChunkOverlap: chunkOverlap}, nil
}

// Split returns the ordered chunk sequence for text. Texts of at most
// ChunkSize words come back unchanged as a single chunk; blank text
// yields none. Windowed chunks rejoin their words with single spaces.
func (s *WordSplitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	words := strings.Fields(text)
	if len(words) <= s.ChunkSize {
		return []string{text}
	}

	step := s.ChunkSize - s.ChunkOverlap
	var chunks []string
	for start := 0; start < len(words); start += step {
		end := start + s.ChunkSize
		if end > len(words) {
			end = len(words)
		}
		chunk := strings.Join(words[start:end], " ")
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end == len(words) {
			break
		}
	}
	return chunks
}
