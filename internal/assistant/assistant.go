package assistant

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"athena/internal/config"
	"athena/internal/extractor"
	"athena/internal/interfaces"
	"athena/internal/schema"
	"athena/internal/vectordb"
	"athena/pkg/logger"

	"golang.org/x/sync/errgroup"
)

// extractConcurrency bounds the parallel text extractions in a batch.
const extractConcurrency = 4

// FileInput is one uploaded file in a batch.
type FileInput struct {
	Name string
	Data []byte
}

// FileStatus reports the outcome of processing one file.
type FileStatus struct {
	Name       string
	DocumentID string
	Chunks     int
	Characters int
	Message    string
	Err        error
}

// BatchResult reports a whole upload batch with per-file outcomes.
type BatchResult struct {
	Files     []FileStatus
	Succeeded int
	Total     int
	Summary   string
}

// ResearchAssistant ties the extraction pipeline, the vector database
// and the completion model into the document question-answering flow.
type ResearchAssistant struct {
	log       *logger.Logger
	cfg       *config.AppConfig
	processor *extractor.Processor
	db        *vectordb.VectorDatabase
	llm       interfaces.LLM

	mu      sync.Mutex
	history []schema.ConversationTurn
}

// New creates a research assistant over an already-wired database.
func New(cfg *config.AppConfig, processor *extractor.Processor, db *vectordb.VectorDatabase, llm interfaces.LLM, log *logger.Logger) *ResearchAssistant {
	return &ResearchAssistant{
		log:       log,
		cfg:       cfg,
		processor: processor,
		db:        db,
		llm:       llm,
	}
}

// ProcessDocuments ingests a batch of files. Extraction runs
// concurrently; indexing is serialized in input order so results are
// reproducible. One bad file never fails the batch.
func (a *ResearchAssistant) ProcessDocuments(ctx context.Context, files []FileInput) *BatchResult {
	result := &BatchResult{
		Files: make([]FileStatus, len(files)),
		Total: len(files),
	}
	if len(files) == 0 {
		result.Summary = "No files were uploaded."
		return result
	}

	extractions := make([]*schema.Extraction, len(files))
	extractErrs := make([]error, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(extractConcurrency)
	for i, file := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				extractErrs[i] = err
				return nil
			}
			extractions[i], extractErrs[i] = a.processor.Extract(file.Data, file.Name)
			return nil
		})
	}
	// Workers record failures per file and never return an error.
	_ = g.Wait()

	for i, file := range files {
		status := FileStatus{Name: file.Name}
		switch {
		case extractErrs[i] != nil:
			status.Err = extractErrs[i]
			status.Message = fmt.Sprintf("Failed to process %q: %v", file.Name, extractErrs[i])
			a.log.WithError(extractErrs[i]).Errorf("failed to process %q", file.Name)
		default:
			added, err := a.indexExtraction(ctx, file.Name, extractions[i])
			if err != nil {
				status.Err = err
				status.Message = fmt.Sprintf("Failed to add %q to database: %v", file.Name, err)
				a.log.WithError(err).Errorf("failed to index %q", file.Name)
			} else {
				status.DocumentID = added.DocumentID
				status.Chunks = added.ChunksAdded
				status.Characters = added.TotalCharacters
				status.Message = fmt.Sprintf("Successfully processed %q: %d chunks added (%d characters)",
					file.Name, added.ChunksAdded, added.TotalCharacters)
				result.Succeeded++
				a.log.Infof("successfully processed %q", file.Name)
			}
		}
		result.Files[i] = status
	}

	if result.Succeeded > 0 {
		result.Summary = fmt.Sprintf("Successfully processed %d/%d files.", result.Succeeded, result.Total)
	} else {
		result.Summary = fmt.Sprintf("No files were successfully processed out of %d files. "+
			"Make sure your files are not corrupted, encrypted, or scanned images.", result.Total)
	}
	return result
}

// ProcessDocument ingests a single file.
func (a *ResearchAssistant) ProcessDocument(ctx context.Context, name string, data []byte) (*FileStatus, error) {
	extraction, err := a.processor.Extract(data, name)
	if err != nil {
		return nil, fmt.Errorf("failed to process %q: %w", name, err)
	}
	added, err := a.indexExtraction(ctx, name, extraction)
	if err != nil {
		return nil, fmt.Errorf("failed to add %q to database: %w", name, err)
	}
	return &FileStatus{
		Name:       name,
		DocumentID: added.DocumentID,
		Chunks:     added.ChunksAdded,
		Characters: added.TotalCharacters,
		Message: fmt.Sprintf("Successfully processed %q: %d chunks added (%d characters)",
			name, added.ChunksAdded, added.TotalCharacters),
	}, nil
}

func (a *ResearchAssistant) indexExtraction(ctx context.Context, name string, extraction *schema.Extraction) (*schema.AddResult, error) {
	extra := map[string]string{}
	if extraction.Metadata.Method != "" {
		extra["extraction_method"] = extraction.Metadata.Method
	}
	if extraction.Metadata.Encoding != "" {
		extra["encoding"] = extraction.Metadata.Encoding
	}
	if extraction.Metadata.Pages > 0 {
		extra["pages"] = fmt.Sprintf("%d", extraction.Metadata.Pages)
	}

	return a.db.AddDocument(ctx, extraction.Text, schema.DocumentMeta{
		Filename:     name,
		FileType:     extraction.FileType,
		UploadTime:   time.Now(),
		ChunkSize:    a.cfg.Documents.ChunkSize,
		ChunkOverlap: a.cfg.Documents.ChunkOverlap,
		Extra:        extra,
	})
}

// Chat answers a question from the indexed documents. Retrieval
// failures and completion failures degrade to an explanatory message
// instead of an error so the conversation keeps flowing. The
// conversation history is recorded for display only and never enters
// the prompt.
func (a *ResearchAssistant) Chat(ctx context.Context, query string) string {
	results, err := a.db.Search(ctx, query, a.cfg.Retrieval.TopK, a.cfg.Retrieval.ScoreThreshold, nil)
	if err != nil {
		a.log.WithError(err).Error("retrieval failed")
		return fmt.Sprintf("Sorry, I was unable to generate a response: %v", err)
	}

	contextBlock := "No relevant context found."
	if len(results) > 0 {
		texts := make([]string, len(results))
		for i, r := range results {
			texts[i] = r.Text
		}
		contextBlock = strings.Join(texts, "\n\n")
	}

	systemPrompt := "You are an AI research assistant. Use the following context to answer the question.\n" +
		"If the context is not sufficient, say so clearly instead of guessing.\n" +
		"Context:\n" + contextBlock
	userPrompt := "Question: " + query

	answer, err := a.llm.Complete(ctx, systemPrompt, userPrompt, a.cfg.LLM.MaxTokens, a.cfg.LLM.Temperature)
	if err != nil {
		a.log.WithError(err).Error("completion failed")
		return fmt.Sprintf("Sorry, I was unable to generate a response: %v", err)
	}

	a.mu.Lock()
	a.history = append(a.history, schema.ConversationTurn{
		Query:  query,
		Answer: answer,
		At:     time.Now(),
	})
	a.mu.Unlock()
	return answer
}

// History returns a copy of the session's conversation turns.
func (a *ResearchAssistant) History() []schema.ConversationTurn {
	a.mu.Lock()
	defer a.mu.Unlock()
	turns := make([]schema.ConversationTurn, len(a.history))
	copy(turns, a.history)
	return turns
}

// ClearHistory discards the session's conversation turns.
func (a *ResearchAssistant) ClearHistory() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.history = nil
}

// Stats reports the vector database contents.
func (a *ResearchAssistant) Stats(ctx context.Context) (*schema.DatabaseStats, error) {
	return a.db.Stats(ctx)
}

// DeleteDocument removes one document from the knowledge base.
func (a *ResearchAssistant) DeleteDocument(ctx context.Context, documentID string) error {
	return a.db.DeleteDocument(ctx, documentID)
}

// ClearDatabase wipes the knowledge base.
func (a *ResearchAssistant) ClearDatabase(ctx context.Context) error {
	return a.db.Clear(ctx)
}

// SupportedFormats lists the ingestible file extensions.
func (a *ResearchAssistant) SupportedFormats() []string {
	return a.processor.SupportedFormats()
}
