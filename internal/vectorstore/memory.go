package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"sync"

	"athena/internal/interfaces"
	"athena/internal/schema"
)

// MemoryStore is an in-process vector store using a brute-force cosine
// scan. It backs the "memory" store location and the test suite; the
// scan cost is fine for a single local session.
type MemoryStore struct {
	mu      sync.RWMutex
	dim     int
	created bool
	records []schema.Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// EnsureCollection sizes the store for the given vector dimension.
// Existing data is kept when the collection already exists.
func (s *MemoryStore) EnsureCollection(_ context.Context, dim int) error {
	if dim <= 0 {
		return fmt.Errorf("invalid vector dimension: %d", dim)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.created {
		if dim != s.dim {
			return fmt.Errorf("collection dimension mismatch: have %d, want %d", s.dim, dim)
		}
		return nil
	}
	s.dim = dim
	s.created = true
	s.records = nil
	return nil
}

// Upsert writes records into the store, replacing any record with the
// same id.
func (s *MemoryStore) Upsert(_ context.Context, records []schema.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.created {
		return fmt.Errorf("collection does not exist")
	}
	for _, rec := range records {
		if len(rec.Vector) != s.dim {
			return fmt.Errorf("vector dimension mismatch: got %d, want %d", len(rec.Vector), s.dim)
		}
	}
	for _, rec := range records {
		replaced := false
		for i := range s.records {
			if s.records[i].ID == rec.ID {
				s.records[i] = rec
				replaced = true
				break
			}
		}
		if !replaced {
			s.records = append(s.records, rec)
		}
	}
	return nil
}

// Search scans all records, applies the payload filters, and returns up
// to limit results with cosine similarity above scoreThreshold in
// descending order.
func (s *MemoryStore) Search(_ context.Context, vector []float32, limit int, scoreThreshold float32, filters map[string]string) ([]schema.SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		return nil, nil
	}

	var results []schema.SearchResult
	for _, rec := range s.records {
		if !matchesFilters(rec.Payload, filters) {
			continue
		}
		score := cosineSimilarity(rec.Vector, vector)
		if score < scoreThreshold {
			continue
		}
		results = append(results, schema.SearchResult{
			Text:         rec.Payload.Text,
			Score:        score,
			DocumentID:   rec.Payload.DocumentID,
			DocumentName: rec.Payload.DocumentName,
			FileType:     rec.Payload.FileType,
			ChunkID:      rec.Payload.ChunkID,
			UploadTime:   rec.Payload.UploadTime,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// DeleteByDocument removes every record belonging to the document.
func (s *MemoryStore) DeleteByDocument(_ context.Context, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.records[:0]
	for _, rec := range s.records {
		if rec.Payload.DocumentID != documentID {
			kept = append(kept, rec)
		}
	}
	s.records = kept
	return nil
}

// Drop discards the collection and all its records.
func (s *MemoryStore) Drop(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
	s.created = false
	return nil
}

// Scroll returns the payloads of all stored records.
func (s *MemoryStore) Scroll(_ context.Context) ([]schema.Payload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	payloads := make([]schema.Payload, len(s.records))
	for i, rec := range s.records {
		payloads[i] = rec.Payload
	}
	return payloads, nil
}

// Count reports the number of stored vectors.
func (s *MemoryStore) Count(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.records)), nil
}

// matchesFilters applies exact-match conditions with AND semantics.
func matchesFilters(p schema.Payload, filters map[string]string) bool {
	for key, want := range filters {
		var got string
		switch key {
		case schema.FieldDocumentID:
			got = p.DocumentID
		case schema.FieldDocumentName:
			got = p.DocumentName
		case schema.FieldFileType:
			got = p.FileType
		case schema.FieldChunkID:
			got = strconv.Itoa(p.ChunkID)
		case schema.FieldChunkCount:
			got = strconv.Itoa(p.ChunkCount)
		default:
			got = p.Extra[key]
		}
		if got != want {
			return false
		}
	}
	return true
}

func cosineSimilarity(a, b []float32) float32 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

var _ interfaces.VectorStore = (*MemoryStore)(nil)
