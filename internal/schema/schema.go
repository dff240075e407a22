package schema

import "time"

// Payload field names shared between the vector stores and the database
// layer. Filter keys passed to Search must use these names.
const (
	FieldID           = "id"
	FieldEmbedding    = "embedding"
	FieldText         = "text"
	FieldChunkID      = "chunk_id"
	FieldDocumentID   = "document_id"
	FieldDocumentName = "document_name"
	FieldFileType     = "file_type"
	FieldUploadTime   = "upload_time"
	FieldChunkCount   = "chunk_count"
	FieldExtra        = "extra"
)

// Payload is the bounded metadata stored alongside every chunk vector.
// Extra carries extraction details (page counts, encoding) as a flat
// string map so the record stays self-contained for retrieval results.
type Payload struct {
	Text         string
	ChunkID      int
	DocumentID   string
	DocumentName string
	FileType     string
	UploadTime   time.Time
	ChunkCount   int
	Extra        map[string]string
}

// Record is one stored vector plus its payload.
type Record struct {
	ID      string
	Vector  []float32
	Payload Payload
}

// SearchResult is one retrieved chunk with its similarity score.
// Results are ordered by descending score.
type SearchResult struct {
	Text         string
	Score        float32
	DocumentID   string
	DocumentName string
	FileType     string
	ChunkID      int
	UploadTime   time.Time
}

// ExtractionMetadata describes how a document's text was recovered.
type ExtractionMetadata struct {
	Pages      int
	Paragraphs int
	Tables     int
	Lines      int
	Encoding   string
	Method     string
}

// Extraction is the outcome of a successful text extraction.
type Extraction struct {
	Text     string
	FileType string
	Metadata ExtractionMetadata
	// Warnings lists per-page or per-item problems that were skipped
	// without failing the whole document.
	Warnings []string
}

// DocumentMeta is the caller-supplied metadata for an ingested document.
type DocumentMeta struct {
	Filename     string
	FileType     string
	UploadTime   time.Time
	ChunkSize    int
	ChunkOverlap int
	Extra        map[string]string
}

// AddResult reports a completed ingestion into the vector database.
type AddResult struct {
	DocumentID      string
	ChunksAdded     int
	TotalCharacters int
}

// DocumentStats is the per-document entry in a database breakdown.
type DocumentStats struct {
	DocumentID string
	Name       string
	FileType   string
	Chunks     int
	UploadTime time.Time
}

// DatabaseStats aggregates the contents of the vector database.
type DatabaseStats struct {
	TotalDocuments int
	TotalChunks    int
	TotalVectors   int64
	Documents      []DocumentStats
}

// ConversationTurn is one (query, answer) pair from the current
// session. Turns live in memory only and are never re-embedded.
type ConversationTurn struct {
	Query  string
	Answer string
	At     time.Time
}
