package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"athena/internal/interfaces"
	"athena/internal/schema"
	"athena/pkg/logger"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
)

const (
	// scrollLimit bounds the Scroll scan used for stats aggregation.
	scrollLimit = 16384

	maxTextLength = 65535
	maxIDLength   = 64
	maxNameLength = 512
	maxTypeLength = 16
	maxTimeLength = 64
	maxExtraLen   = 4096
)

// MilvusStore implements the vector store contract on a Milvus
// collection with a cosine AUTOINDEX.
type MilvusStore struct {
	log        *logger.Logger
	client     client.Client
	collection string
	dim        int
}

// NewMilvusStore connects to Milvus at the given address. The
// collection is created lazily by EnsureCollection once the embedding
// dimension is known.
func NewMilvusStore(ctx context.Context, address, collection string, log *logger.Logger) (*MilvusStore, error) {
	c, err := client.NewClient(ctx, client.Config{Address: address})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to milvus at %s: %w", address, err)
	}
	log.Infof("connected to milvus at %s", address)
	return &MilvusStore{log: log, client: c, collection: collection}, nil
}

// Close releases the Milvus connection.
func (s *MilvusStore) Close() {
	if s.client != nil {
		s.client.Close()
	}
}

// EnsureCollection creates the collection and its cosine index if
// absent, then loads it for querying.
func (s *MilvusStore) EnsureCollection(ctx context.Context, dim int) error {
	exists, err := s.client.HasCollection(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to check collection %s: %w", s.collection, err)
	}

	if !exists {
		collSchema := entity.NewSchema().
			WithName(s.collection).
			WithDescription("document chunks with embeddings").
			WithField(entity.NewField().WithName(schema.FieldID).
				WithDataType(entity.FieldTypeVarChar).WithMaxLength(maxIDLength).WithIsPrimaryKey(true)).
			WithField(entity.NewField().WithName(schema.FieldEmbedding).
				WithDataType(entity.FieldTypeFloatVector).WithDim(int64(dim))).
			WithField(entity.NewField().WithName(schema.FieldText).
				WithDataType(entity.FieldTypeVarChar).WithMaxLength(maxTextLength)).
			WithField(entity.NewField().WithName(schema.FieldChunkID).
				WithDataType(entity.FieldTypeInt64)).
			WithField(entity.NewField().WithName(schema.FieldDocumentID).
				WithDataType(entity.FieldTypeVarChar).WithMaxLength(maxIDLength)).
			WithField(entity.NewField().WithName(schema.FieldDocumentName).
				WithDataType(entity.FieldTypeVarChar).WithMaxLength(maxNameLength)).
			WithField(entity.NewField().WithName(schema.FieldFileType).
				WithDataType(entity.FieldTypeVarChar).WithMaxLength(maxTypeLength)).
			WithField(entity.NewField().WithName(schema.FieldUploadTime).
				WithDataType(entity.FieldTypeVarChar).WithMaxLength(maxTimeLength)).
			WithField(entity.NewField().WithName(schema.FieldChunkCount).
				WithDataType(entity.FieldTypeInt64)).
			WithField(entity.NewField().WithName(schema.FieldExtra).
				WithDataType(entity.FieldTypeVarChar).WithMaxLength(maxExtraLen))

		if err := s.client.CreateCollection(ctx, collSchema, entity.DefaultShardNumber); err != nil {
			return fmt.Errorf("failed to create collection %s: %w", s.collection, err)
		}

		idx, err := entity.NewIndexAUTOINDEX(entity.COSINE)
		if err != nil {
			return fmt.Errorf("failed to build index: %w", err)
		}
		if err := s.client.CreateIndex(ctx, s.collection, schema.FieldEmbedding, idx, false); err != nil {
			return fmt.Errorf("failed to create index on %s: %w", schema.FieldEmbedding, err)
		}
		s.log.Infof("created collection %s with %dD cosine index", s.collection, dim)
	}

	if err := s.client.LoadCollection(ctx, s.collection, false); err != nil {
		return fmt.Errorf("failed to load collection %s: %w", s.collection, err)
	}
	s.dim = dim
	return nil
}

// Upsert writes records into the collection and flushes so they become
// searchable immediately.
func (s *MilvusStore) Upsert(ctx context.Context, records []schema.Record) error {
	if len(records) == 0 {
		return nil
	}

	ids := make([]string, len(records))
	vectors := make([][]float32, len(records))
	texts := make([]string, len(records))
	chunkIDs := make([]int64, len(records))
	docIDs := make([]string, len(records))
	docNames := make([]string, len(records))
	fileTypes := make([]string, len(records))
	uploadTimes := make([]string, len(records))
	chunkCounts := make([]int64, len(records))
	extras := make([]string, len(records))

	for i, rec := range records {
		ids[i] = rec.ID
		vectors[i] = rec.Vector
		texts[i] = rec.Payload.Text
		chunkIDs[i] = int64(rec.Payload.ChunkID)
		docIDs[i] = rec.Payload.DocumentID
		docNames[i] = rec.Payload.DocumentName
		fileTypes[i] = rec.Payload.FileType
		uploadTimes[i] = rec.Payload.UploadTime.Format(time.RFC3339)
		chunkCounts[i] = int64(rec.Payload.ChunkCount)
		extras[i] = encodeExtra(rec.Payload.Extra)
	}

	_, err := s.client.Upsert(ctx, s.collection, "",
		entity.NewColumnVarChar(schema.FieldID, ids),
		entity.NewColumnFloatVector(schema.FieldEmbedding, s.dim, vectors),
		entity.NewColumnVarChar(schema.FieldText, texts),
		entity.NewColumnInt64(schema.FieldChunkID, chunkIDs),
		entity.NewColumnVarChar(schema.FieldDocumentID, docIDs),
		entity.NewColumnVarChar(schema.FieldDocumentName, docNames),
		entity.NewColumnVarChar(schema.FieldFileType, fileTypes),
		entity.NewColumnVarChar(schema.FieldUploadTime, uploadTimes),
		entity.NewColumnInt64(schema.FieldChunkCount, chunkCounts),
		entity.NewColumnVarChar(schema.FieldExtra, extras),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert into milvus: %w", err)
	}

	if err := s.client.Flush(ctx, s.collection, false); err != nil {
		return fmt.Errorf("failed to flush collection %s: %w", s.collection, err)
	}
	return nil
}

// Search runs a cosine similarity search with an optional filter
// expression. Milvus has no server-side score cut-off, so the threshold
// is applied to the returned scores.
func (s *MilvusStore) Search(ctx context.Context, vector []float32, limit int, scoreThreshold float32, filters map[string]string) ([]schema.SearchResult, error) {
	if limit <= 0 {
		return nil, nil
	}

	sp, err := entity.NewIndexAUTOINDEXSearchParam(1)
	if err != nil {
		return nil, fmt.Errorf("failed to build search params: %w", err)
	}

	outputFields := []string{
		schema.FieldText, schema.FieldChunkID, schema.FieldDocumentID,
		schema.FieldDocumentName, schema.FieldFileType, schema.FieldUploadTime,
	}
	expr := buildFilterExpr(filters)

	searchResults, err := s.client.Search(
		ctx, s.collection, nil, expr, outputFields,
		[]entity.Vector{entity.FloatVector(vector)},
		schema.FieldEmbedding, entity.COSINE, limit, sp,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search milvus: %w", err)
	}

	var results []schema.SearchResult
	for _, rs := range searchResults {
		texts := varCharData(rs.Fields, schema.FieldText)
		chunkIDs := int64Data(rs.Fields, schema.FieldChunkID)
		docIDs := varCharData(rs.Fields, schema.FieldDocumentID)
		docNames := varCharData(rs.Fields, schema.FieldDocumentName)
		fileTypes := varCharData(rs.Fields, schema.FieldFileType)
		uploadTimes := varCharData(rs.Fields, schema.FieldUploadTime)

		for i := 0; i < rs.ResultCount; i++ {
			score := rs.Scores[i]
			if score < scoreThreshold {
				continue
			}
			result := schema.SearchResult{Score: score}
			if i < len(texts) {
				result.Text = texts[i]
			}
			if i < len(chunkIDs) {
				result.ChunkID = int(chunkIDs[i])
			}
			if i < len(docIDs) {
				result.DocumentID = docIDs[i]
			}
			if i < len(docNames) {
				result.DocumentName = docNames[i]
			}
			if i < len(fileTypes) {
				result.FileType = fileTypes[i]
			}
			if i < len(uploadTimes) {
				result.UploadTime, _ = time.Parse(time.RFC3339, uploadTimes[i])
			}
			results = append(results, result)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// DeleteByDocument removes every record carrying the document id.
func (s *MilvusStore) DeleteByDocument(ctx context.Context, documentID string) error {
	expr := fmt.Sprintf("%s == %q", schema.FieldDocumentID, documentID)
	if err := s.client.Delete(ctx, s.collection, "", expr); err != nil {
		return fmt.Errorf("failed to delete document %s from milvus: %w", documentID, err)
	}
	return nil
}

// Drop removes the whole collection. EnsureCollection recreates it.
func (s *MilvusStore) Drop(ctx context.Context) error {
	if err := s.client.DropCollection(ctx, s.collection); err != nil {
		return fmt.Errorf("failed to drop collection %s: %w", s.collection, err)
	}
	return nil
}

// Scroll reads the stored payloads for aggregation. Chunk text is not
// fetched; stats only needs the grouping fields.
func (s *MilvusStore) Scroll(ctx context.Context) ([]schema.Payload, error) {
	outputFields := []string{
		schema.FieldChunkID, schema.FieldDocumentID, schema.FieldDocumentName,
		schema.FieldFileType, schema.FieldUploadTime, schema.FieldChunkCount,
	}
	expr := fmt.Sprintf(`%s != ""`, schema.FieldDocumentID)

	rs, err := s.client.Query(ctx, s.collection, nil, expr, outputFields, client.WithLimit(scrollLimit))
	if err != nil {
		return nil, fmt.Errorf("failed to scan milvus collection: %w", err)
	}

	columns := []entity.Column(rs)
	chunkIDs := int64Data(columns, schema.FieldChunkID)
	docIDs := varCharData(columns, schema.FieldDocumentID)
	docNames := varCharData(columns, schema.FieldDocumentName)
	fileTypes := varCharData(columns, schema.FieldFileType)
	uploadTimes := varCharData(columns, schema.FieldUploadTime)
	chunkCounts := int64Data(columns, schema.FieldChunkCount)

	payloads := make([]schema.Payload, len(docIDs))
	for i := range docIDs {
		payloads[i].DocumentID = docIDs[i]
		if i < len(chunkIDs) {
			payloads[i].ChunkID = int(chunkIDs[i])
		}
		if i < len(docNames) {
			payloads[i].DocumentName = docNames[i]
		}
		if i < len(fileTypes) {
			payloads[i].FileType = fileTypes[i]
		}
		if i < len(uploadTimes) {
			payloads[i].UploadTime, _ = time.Parse(time.RFC3339, uploadTimes[i])
		}
		if i < len(chunkCounts) {
			payloads[i].ChunkCount = int(chunkCounts[i])
		}
	}
	return payloads, nil
}

// Count reports the number of stored vectors.
func (s *MilvusStore) Count(ctx context.Context) (int64, error) {
	stats, err := s.client.GetCollectionStatistics(ctx, s.collection)
	if err != nil {
		return 0, fmt.Errorf("failed to get collection statistics: %w", err)
	}
	count, err := strconv.ParseInt(stats["row_count"], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("unexpected row_count %q: %w", stats["row_count"], err)
	}
	return count, nil
}

// buildFilterExpr turns exact-match conditions into a Milvus boolean
// expression with AND semantics. Conditions are sorted so the
// expression is deterministic.
func buildFilterExpr(filters map[string]string) string {
	if len(filters) == 0 {
		return ""
	}
	conds := make([]string, 0, len(filters))
	for key, value := range filters {
		switch key {
		case schema.FieldChunkID, schema.FieldChunkCount:
			conds = append(conds, fmt.Sprintf("%s == %s", key, value))
		default:
			conds = append(conds, fmt.Sprintf("%s == %q", key, value))
		}
	}
	sort.Strings(conds)
	return strings.Join(conds, " and ")
}

func encodeExtra(extra map[string]string) string {
	if len(extra) == 0 {
		return "{}"
	}
	data, err := json.Marshal(extra)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func varCharData(columns []entity.Column, name string) []string {
	for _, col := range columns {
		if col.Name() == name {
			if vc, ok := col.(*entity.ColumnVarChar); ok {
				return vc.Data()
			}
		}
	}
	return nil
}

func int64Data(columns []entity.Column, name string) []int64 {
	for _, col := range columns {
		if col.Name() == name {
			if ic, ok := col.(*entity.ColumnInt64); ok {
				return ic.Data()
			}
		}
	}
	return nil
}

var _ interfaces.VectorStore = (*MilvusStore)(nil)
