package interfaces

import (
	"context"

	"athena/internal/schema"
)

// Embedding is the contract for a text embedding model. The vector
// dimension is fixed for a given model, so ingestion and queries that
// share an Embedding instance share an embedding space.
type Embedding interface {
	// Embed generates an embedding vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embedding vectors for a batch of texts,
	// one vector per input in the same order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorStore is the contract for a collection-oriented vector store
// compared by cosine similarity.
type VectorStore interface {
	// EnsureCollection creates the collection for the given vector
	// dimension if it does not exist yet.
	EnsureCollection(ctx context.Context, dim int) error

	// Upsert writes records into the collection.
	Upsert(ctx context.Context, records []schema.Record) error

	// Search returns up to limit results above scoreThreshold, ordered
	// by descending cosine similarity. Filters are exact-match payload
	// conditions combined with AND semantics.
	Search(ctx context.Context, vector []float32, limit int, scoreThreshold float32, filters map[string]string) ([]schema.SearchResult, error)

	// DeleteByDocument removes every record whose payload carries the
	// given document id.
	DeleteByDocument(ctx context.Context, documentID string) error

	// Drop removes the whole collection. The caller recreates it via
	// EnsureCollection.
	Drop(ctx context.Context) error

	// Scroll returns the stored payloads for aggregation. The scan is
	// bounded by the store implementation and is not a hot path.
	Scroll(ctx context.Context) ([]schema.Payload, error)

	// Count reports the number of stored vectors.
	Count(ctx context.Context) (int64, error)
}

// LLM is the contract for a language-model completion provider:
// a single request/response with a bounded token budget.
type LLM interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float32) (string, error)
}
