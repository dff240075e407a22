package vectordb

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"athena/internal/config"
	"athena/internal/schema"
	"athena/internal/vectorstore"
	"athena/pkg/logger"

	"github.com/sirupsen/logrus"
)

// stubEmbedder maps text deterministically onto a small vector so that
// identical strings score 1.0 and unrelated strings score lower.
type stubEmbedder struct {
	calls int
}

func (s *stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	s.calls++
	vec := make([]float32, 8)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		var h uint32
		for _, r := range word {
			h = h*31 + uint32(r)
		}
		vec[h%8]++
	}
	return vec, nil
}

func (s *stubEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := s.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, fmt.Errorf("embedding backend unavailable")
}

func (failingEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, fmt.Errorf("embedding backend unavailable")
}

func testLogger() *logger.Logger {
	logger.Init(logrus.ErrorLevel)
	return logger.New("vectordb-test")
}

func newTestDB(t *testing.T) (*VectorDatabase, *stubEmbedder) {
	t.Helper()
	embedder := &stubEmbedder{}
	db, err := New(context.Background(), vectorstore.NewMemoryStore(), embedder,
		config.DocumentsConfig{ChunkSize: 10, ChunkOverlap: 2}, testLogger())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return db, embedder
}

func meta(name string) schema.DocumentMeta {
	return schema.DocumentMeta{
		Filename:   name,
		FileType:   ".txt",
		UploadTime: time.Now(),
	}
}

func TestNewFailsWhenProbeFails(t *testing.T) {
	_, err := New(context.Background(), vectorstore.NewMemoryStore(), failingEmbedder{},
		config.DocumentsConfig{ChunkSize: 10, ChunkOverlap: 2}, testLogger())
	if err == nil {
		t.Fatal("expected error when embedding probe fails")
	}
}

func TestAddDocumentAndSearch(t *testing.T) {
	ctx := context.Background()
	db, _ := newTestDB(t)

	result, err := db.AddDocument(ctx, "the quick brown fox jumps over the lazy dog", meta("fox.txt"))
	if err != nil {
		t.Fatalf("AddDocument failed: %v", err)
	}
	if result.DocumentID == "" {
		t.Error("expected a document id")
	}
	if result.ChunksAdded != 1 {
		t.Errorf("expected 1 chunk for short text, got %d", result.ChunksAdded)
	}
	if result.TotalCharacters == 0 {
		t.Error("expected nonzero character count")
	}

	hits, err := db.Search(ctx, "the quick brown fox jumps over the lazy dog", 5, 0.9, nil)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("expected 1 hit, got %d", len(hits))
	}
	if hits[0].DocumentName != "fox.txt" {
		t.Errorf("unexpected document name %q", hits[0].DocumentName)
	}
	if hits[0].Score < 0.99 {
		t.Errorf("identical text should score ~1.0, got %f", hits[0].Score)
	}
}

func TestAddDocumentRejectsEmptyText(t *testing.T) {
	db, _ := newTestDB(t)
	if _, err := db.AddDocument(context.Background(), "   \n\t ", meta("blank.txt")); err == nil {
		t.Fatal("expected error for whitespace-only text")
	}
}

func TestAddDocumentChunksLongText(t *testing.T) {
	ctx := context.Background()
	db, _ := newTestDB(t)

	words := make([]string, 25)
	for i := range words {
		words[i] = fmt.Sprintf("word%d", i)
	}
	result, err := db.AddDocument(ctx, strings.Join(words, " "), meta("long.txt"))
	if err != nil {
		t.Fatalf("AddDocument failed: %v", err)
	}
	if result.ChunksAdded < 2 {
		t.Fatalf("expected multiple chunks for 25 words with size 10, got %d", result.ChunksAdded)
	}
}

func TestAddDocumentReportsDocumentCharacterCount(t *testing.T) {
	ctx := context.Background()
	db, _ := newTestDB(t)

	// 25 words with chunk size 10 and overlap 2: the overlap words
	// appear in two chunks, but the character count must still be the
	// document's own length.
	words := make([]string, 25)
	for i := range words {
		words[i] = fmt.Sprintf("term%d", i)
	}
	text := strings.Join(words, " ")

	result, err := db.AddDocument(ctx, text, meta("overlap.txt"))
	if err != nil {
		t.Fatalf("AddDocument failed: %v", err)
	}
	if result.ChunksAdded < 2 {
		t.Fatalf("expected multiple chunks, got %d", result.ChunksAdded)
	}
	if result.TotalCharacters != len(text) {
		t.Errorf("expected character count %d, got %d", len(text), result.TotalCharacters)
	}
}

func TestSearchBlankQuerySkipsEmbedding(t *testing.T) {
	ctx := context.Background()
	db, embedder := newTestDB(t)

	if _, err := db.AddDocument(ctx, "some indexed content here", meta("a.txt")); err != nil {
		t.Fatalf("AddDocument failed: %v", err)
	}

	before := embedder.calls
	hits, err := db.Search(ctx, "   ", 5, 0, nil)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("expected no hits for blank query, got %d", len(hits))
	}
	if embedder.calls != before {
		t.Error("blank query must not call the embedding provider")
	}
}

func TestDeleteDocumentIsolatesDocuments(t *testing.T) {
	ctx := context.Background()
	db, _ := newTestDB(t)

	first, err := db.AddDocument(ctx, "alpha bravo charlie", meta("first.txt"))
	if err != nil {
		t.Fatalf("AddDocument failed: %v", err)
	}
	if _, err := db.AddDocument(ctx, "delta echo foxtrot", meta("second.txt")); err != nil {
		t.Fatalf("AddDocument failed: %v", err)
	}

	if err := db.DeleteDocument(ctx, first.DocumentID); err != nil {
		t.Fatalf("DeleteDocument failed: %v", err)
	}

	stats, err := db.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalDocuments != 1 {
		t.Fatalf("expected 1 remaining document, got %d", stats.TotalDocuments)
	}
	if stats.Documents[0].Name != "second.txt" {
		t.Errorf("wrong document survived: %q", stats.Documents[0].Name)
	}
}

func TestClearEmptiesDatabase(t *testing.T) {
	ctx := context.Background()
	db, _ := newTestDB(t)

	if _, err := db.AddDocument(ctx, "content to be wiped", meta("wipe.txt")); err != nil {
		t.Fatalf("AddDocument failed: %v", err)
	}
	if err := db.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	stats, err := db.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalDocuments != 0 || stats.TotalChunks != 0 || stats.TotalVectors != 0 {
		t.Fatalf("expected empty stats after clear, got %+v", stats)
	}

	// The collection must be usable again without re-wiring.
	if _, err := db.AddDocument(ctx, "fresh content after clear", meta("fresh.txt")); err != nil {
		t.Fatalf("AddDocument after Clear failed: %v", err)
	}
}

func TestStatsGroupsByDocument(t *testing.T) {
	ctx := context.Background()
	db, _ := newTestDB(t)

	words := make([]string, 25)
	for i := range words {
		words[i] = fmt.Sprintf("token%d", i)
	}
	if _, err := db.AddDocument(ctx, strings.Join(words, " "), meta("big.txt")); err != nil {
		t.Fatalf("AddDocument failed: %v", err)
	}
	if _, err := db.AddDocument(ctx, "tiny document", meta("small.txt")); err != nil {
		t.Fatalf("AddDocument failed: %v", err)
	}

	stats, err := db.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalDocuments != 2 {
		t.Fatalf("expected 2 documents, got %d", stats.TotalDocuments)
	}
	if stats.TotalChunks < 3 {
		t.Errorf("expected at least 3 chunks total, got %d", stats.TotalChunks)
	}
	if int64(stats.TotalChunks) != stats.TotalVectors {
		t.Errorf("chunk count %d should match vector count %d", stats.TotalChunks, stats.TotalVectors)
	}

	chunksByName := map[string]int{}
	for _, doc := range stats.Documents {
		chunksByName[doc.Name] = doc.Chunks
	}
	if chunksByName["small.txt"] != 1 {
		t.Errorf("expected small.txt to have 1 chunk, got %d", chunksByName["small.txt"])
	}
	if chunksByName["big.txt"] < 2 {
		t.Errorf("expected big.txt to have multiple chunks, got %d", chunksByName["big.txt"])
	}
}
