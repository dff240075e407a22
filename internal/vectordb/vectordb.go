package vectordb

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"athena/internal/config"
	"athena/internal/interfaces"
	"athena/internal/schema"
	"athena/internal/splitter"
	"athena/pkg/logger"

	"github.com/google/uuid"
)

// dimensionProbe is embedded once at startup to learn the provider's
// vector dimension before the collection is created.
const dimensionProbe = "dimension probe"

// VectorDatabase couples an embedding model with a vector store and
// owns the chunk lifecycle: split, embed, upsert on the way in and
// embed, search on the way out.
type VectorDatabase struct {
	log          *logger.Logger
	store        interfaces.VectorStore
	embedder     interfaces.Embedding
	chunkSize    int
	chunkOverlap int
	dim          int
}

// New wires the database and creates the collection. The embedding
// dimension is discovered with a single probe call so the store schema
// always matches the configured model.
func New(ctx context.Context, store interfaces.VectorStore, embedder interfaces.Embedding, cfg config.DocumentsConfig, log *logger.Logger) (*VectorDatabase, error) {
	probe, err := embedder.Embed(ctx, dimensionProbe)
	if err != nil {
		return nil, fmt.Errorf("failed to probe embedding dimension: %w", err)
	}
	dim := len(probe)
	if dim == 0 {
		return nil, fmt.Errorf("embedding provider returned an empty vector")
	}

	if err := store.EnsureCollection(ctx, dim); err != nil {
		return nil, fmt.Errorf("failed to ensure collection: %w", err)
	}
	log.Infof("vector database ready, embedding dimension %d", dim)

	return &VectorDatabase{
		log:          log,
		store:        store,
		embedder:     embedder,
		chunkSize:    cfg.ChunkSize,
		chunkOverlap: cfg.ChunkOverlap,
		dim:          dim,
	}, nil
}

// AddDocument splits the text into chunks, embeds them in one batch and
// upserts them under a fresh document id. Per-document chunk sizes in
// meta override the configured defaults.
func (db *VectorDatabase) AddDocument(ctx context.Context, text string, meta schema.DocumentMeta) (*schema.AddResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("document text is empty")
	}

	chunkSize := db.chunkSize
	if meta.ChunkSize > 0 {
		chunkSize = meta.ChunkSize
	}
	chunkOverlap := db.chunkOverlap
	if meta.ChunkOverlap > 0 {
		chunkOverlap = meta.ChunkOverlap
	}
	split, err := splitter.NewWordSplitter(chunkSize, chunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("invalid chunking parameters: %w", err)
	}

	chunks := split.Split(text)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("document produced no chunks")
	}

	vectors, err := db.embedder.EmbedBatch(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("failed to embed document chunks: %w", err)
	}

	documentID := uuid.NewString()
	uploadTime := meta.UploadTime
	if uploadTime.IsZero() {
		uploadTime = time.Now()
	}

	records := make([]schema.Record, len(chunks))
	for i, chunk := range chunks {
		records[i] = schema.Record{
			ID:     uuid.NewString(),
			Vector: vectors[i],
			Payload: schema.Payload{
				Text:         chunk,
				ChunkID:      i,
				DocumentID:   documentID,
				DocumentName: meta.Filename,
				FileType:     meta.FileType,
				UploadTime:   uploadTime,
				ChunkCount:   len(chunks),
				Extra:        meta.Extra,
			},
		}
	}

	if err := db.store.Upsert(ctx, records); err != nil {
		return nil, fmt.Errorf("failed to store document chunks: %w", err)
	}

	db.log.WithField("document_id", documentID).
		Infof("indexed %q as %d chunks", meta.Filename, len(chunks))
	// TotalCharacters reports the document's length, not the sum of
	// chunk lengths, which would double-count overlap words.
	return &schema.AddResult{
		DocumentID:      documentID,
		ChunksAdded:     len(chunks),
		TotalCharacters: len(text),
	}, nil
}

// Search embeds the query and returns the closest chunks. A blank
// query short-circuits to an empty result without calling the
// embedding provider.
func (db *VectorDatabase) Search(ctx context.Context, query string, limit int, scoreThreshold float32, filters map[string]string) ([]schema.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	vector, err := db.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	results, err := db.store.Search(ctx, vector, limit, scoreThreshold, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to search vector store: %w", err)
	}
	return results, nil
}

// DeleteDocument removes all chunks of the given document.
func (db *VectorDatabase) DeleteDocument(ctx context.Context, documentID string) error {
	if err := db.store.DeleteByDocument(ctx, documentID); err != nil {
		return fmt.Errorf("failed to delete document %s: %w", documentID, err)
	}
	db.log.Infof("deleted document %s", documentID)
	return nil
}

// Clear drops the collection and recreates it empty with the same
// dimension.
func (db *VectorDatabase) Clear(ctx context.Context) error {
	if err := db.store.Drop(ctx); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	if err := db.store.EnsureCollection(ctx, db.dim); err != nil {
		return fmt.Errorf("failed to recreate collection: %w", err)
	}
	db.log.Info("cleared vector database")
	return nil
}

// Stats scans the stored payloads and aggregates them per document,
// newest upload first.
func (db *VectorDatabase) Stats(ctx context.Context) (*schema.DatabaseStats, error) {
	payloads, err := db.store.Scroll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan vector store: %w", err)
	}
	total, err := db.store.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count vectors: %w", err)
	}

	byDocument := make(map[string]*schema.DocumentStats)
	for _, p := range payloads {
		doc, ok := byDocument[p.DocumentID]
		if !ok {
			doc = &schema.DocumentStats{
				DocumentID: p.DocumentID,
				Name:       p.DocumentName,
				FileType:   p.FileType,
				UploadTime: p.UploadTime,
			}
			byDocument[p.DocumentID] = doc
		}
		doc.Chunks++
	}

	stats := &schema.DatabaseStats{
		TotalDocuments: len(byDocument),
		TotalChunks:    len(payloads),
		TotalVectors:   total,
	}
	for _, doc := range byDocument {
		stats.Documents = append(stats.Documents, *doc)
	}
	sort.Slice(stats.Documents, func(i, j int) bool {
		if stats.Documents[i].UploadTime.Equal(stats.Documents[j].UploadTime) {
			return stats.Documents[i].DocumentID < stats.Documents[j].DocumentID
		}
		return stats.Documents[i].UploadTime.After(stats.Documents[j].UploadTime)
	})
	return stats, nil
}
