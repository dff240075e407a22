package vectorstore

import (
	"context"
	"fmt"

	"athena/internal/config"
	"athena/internal/interfaces"
	"athena/pkg/logger"
)

// New builds a vector store from the configured location. The special
// locations "memory" and ":memory:" select the in-process store; any
// other value is treated as a Milvus address.
func New(ctx context.Context, cfg config.VectorStoreConfig, log *logger.Logger) (interfaces.VectorStore, error) {
	switch cfg.Location {
	case "", "memory", ":memory:":
		log.Info("using in-memory vector store")
		return NewMemoryStore(), nil
	default:
		store, err := NewMilvusStore(ctx, cfg.Location, cfg.Collection, log)
		if err != nil {
			return nil, fmt.Errorf("failed to create milvus store: %w", err)
		}
		return store, nil
	}
}
