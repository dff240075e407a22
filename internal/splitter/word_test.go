package splitter

import (
	"strings"
	"testing"
)

func TestNewWordSplitter_RejectsBadOverlap(t *testing.T) {
	if _, err := NewWordSplitter(10, 10); err == nil {
		t.Error("expected error for overlap == chunk size")
	}
	if _, err := NewWordSplitter(10, 15); err == nil {
		t.Error("expected error for overlap > chunk size")
	}
	if _, err := NewWordSplitter(0, 0); err == nil {
		t.Error("expected error for zero chunk size")
	}
	if _, err := NewWordSplitter(10, -1); err == nil {
		t.Error("expected error for negative overlap")
	}
}

func TestSplit_ShortTextSingleChunk(t *testing.T) {
	s, err := NewWordSplitter(5, 1)
	if err != nil {
		t.Fatalf("NewWordSplitter() error = %v", err)
	}

	text := "one two three"
	chunks := s.Split(text)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != text {
		t.Errorf("expected whole text back, got %q", chunks[0])
	}
}

func TestSplit_ExactChunkSizeSingleChunk(t *testing.T) {
	s, err := NewWordSplitter(4, 2)
	if err != nil {
		t.Fatalf("NewWordSplitter() error = %v", err)
	}

	chunks := s.Split("a b c d")
	if len(chunks) != 1 {
		t.Fatalf("expected exactly 1 chunk for text of chunk-size words, got %d", len(chunks))
	}
}

func TestSplit_BlankText(t *testing.T) {
	s, err := NewWordSplitter(5, 1)
	if err != nil {
		t.Fatalf("NewWordSplitter() error = %v", err)
	}
	if chunks := s.Split("   \n\t  "); chunks != nil {
		t.Errorf("expected no chunks for blank text, got %v", chunks)
	}
}

func TestSplit_CoverageAndOverlap(t *testing.T) {
	s, err := NewWordSplitter(4, 1)
	if err != nil {
		t.Fatalf("NewWordSplitter() error = %v", err)
	}

	words := []string{"w0", "w1", "w2", "w3", "w4", "w5", "w6", "w7", "w8", "w9"}
	chunks := s.Split(strings.Join(words, " "))
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}

	// Removing the overlap from every chunk after the first must
	// reconstruct the original word sequence in order.
	var rebuilt []string
	for i, chunk := range chunks {
		cw := strings.Fields(chunk)
		if i == 0 {
			rebuilt = append(rebuilt, cw...)
			continue
		}
		if len(cw) <= s.ChunkOverlap {
			rebuilt = append(rebuilt, cw...)
			continue
		}
		rebuilt = append(rebuilt, cw[s.ChunkOverlap:]...)
	}
	if strings.Join(rebuilt, " ") != strings.Join(words, " ") {
		t.Errorf("chunks do not cover original text: rebuilt %v", rebuilt)
	}

	// Every window except possibly the last holds exactly ChunkSize words.
	for i := 0; i < len(chunks)-1; i++ {
		if got := len(strings.Fields(chunks[i])); got != s.ChunkSize {
			t.Errorf("chunk %d has %d words, want %d", i, got, s.ChunkSize)
		}
	}
}

func TestSplit_WordsRejoinedWithSingleSpaces(t *testing.T) {
	s, err := NewWordSplitter(3, 1)
	if err != nil {
		t.Fatalf("NewWordSplitter() error = %v", err)
	}

	chunks := s.Split("a   b\n\nc\td e")
	for _, chunk := range chunks {
		if strings.Contains(chunk, "  ") || strings.ContainsAny(chunk, "\n\t") {
			t.Errorf("chunk %q not normalized to single spaces", chunk)
		}
	}
}
