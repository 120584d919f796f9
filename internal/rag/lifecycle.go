package rag

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/creditchek/devbot/internal/ai"
	"github.com/creditchek/devbot/internal/config"
	"github.com/creditchek/devbot/internal/model"
	appErr "github.com/creditchek/devbot/internal/pkg/errors"
)

// DocumentSource supplies the corpus when an index has to be (re)built.
type DocumentSource interface {
	Load(ctx context.Context) ([]model.Document, error)
}

// EmbedCache is a persistent store of already computed embeddings; nil
// disables caching.
type EmbedCache interface {
	Get(ctx context.Context, modelName, taskType, contentHash string) ([]float32, bool, error)
	Save(ctx context.Context, item *model.EmbeddingCache) error
}

// Manager owns the index lifecycle: exactly one valid Index handle exists
// per process, built or attached during startup before any request is
// served. The handle is cached, so repeated Acquire calls are cheap and
// never re-embed.
type Manager struct {
	mu        sync.Mutex
	index     *Index
	chunks    ChunkStore
	embedder  ai.IEmbedder
	generator ai.IGenerator
	source    DocumentSource
	chunker   *ai.Chunker
	cache     EmbedCache
	cfg       config.IndexConfig
	timeout   time.Duration
}

func NewManager(
	chunks ChunkStore,
	embedder ai.IEmbedder,
	generator ai.IGenerator,
	source DocumentSource,
	cache EmbedCache,
	cfg config.IndexConfig,
	queryTimeout time.Duration,
) *Manager {
	return &Manager{
		chunks:    chunks,
		embedder:  embedder,
		generator: generator,
		source:    source,
		chunker:   ai.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap),
		cache:     cache,
		cfg:       cfg,
		timeout:   queryTimeout,
	}
}

// Acquire returns the process-wide index handle, building or attaching it on
// first use. Any provider or store failure here is fatal to startup: the
// caller must not serve requests against a partially built index.
func (m *Manager) Acquire(ctx context.Context) (*Index, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	logger := logutil.GetLogger(ctx).With(zap.String("namespace", m.cfg.Namespace))

	if m.index != nil && !m.cfg.ForceReload {
		logger.Info("reusing existing index handle")
		return m.index, nil
	}

	count, err := m.chunks.VectorCount(ctx, m.cfg.Namespace)
	if err != nil {
		return nil, fmt.Errorf("%w: vector count: %v", appErr.ErrProvider, err)
	}

	if count == 0 || m.cfg.ForceReload {
		if m.source == nil {
			return nil, fmt.Errorf("%w: documents and embedding model required for initial indexing", appErr.ErrConfiguration)
		}
		built, err := m.build(ctx, count > 0)
		if err != nil {
			return nil, err
		}
		logger.Info("vector index built", zap.Int("vectors", built))
	} else {
		logger.Info("attaching to existing index", zap.Int64("vectors", count))
	}

	m.index = newIndex(m.chunks, m.embedder, m.generator, m.cfg.Namespace, m.cfg.TopK, m.timeout)
	return m.index, nil
}

func (m *Manager) build(ctx context.Context, wipeExisting bool) (int, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("namespace", m.cfg.Namespace))
	start := time.Now()

	docs, err := m.source.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: load documents: %v", appErr.ErrProvider, err)
	}
	if len(docs) == 0 {
		return 0, fmt.Errorf("%w: documents and embedding model required for initial indexing", appErr.ErrConfiguration)
	}
	chunks := m.chunker.SplitAll(docs)
	logger.Info("corpus chunked",
		zap.Int("documents", len(docs)),
		zap.Int("chunks", len(chunks)),
		zap.Int("chunk_size", m.cfg.ChunkSize),
		zap.Int("chunk_overlap", m.cfg.ChunkOverlap),
	)

	for idx := range chunks {
		embedding, err := m.embedChunk(ctx, chunks[idx].Content)
		if err != nil {
			return 0, fmt.Errorf("%w: embed chunk %d: %v", appErr.ErrProvider, idx, err)
		}
		if m.cfg.Dimension > 0 && len(embedding) != m.cfg.Dimension {
			return 0, fmt.Errorf("%w: embedding dimension %d, want %d", appErr.ErrProvider, len(embedding), m.cfg.Dimension)
		}
		chunks[idx].Embedding = embedding
	}

	if wipeExisting {
		if err := m.chunks.DeleteNamespace(ctx, m.cfg.Namespace); err != nil {
			return 0, fmt.Errorf("%w: clear namespace: %v", appErr.ErrProvider, err)
		}
	}
	if err := m.chunks.Insert(ctx, m.cfg.Namespace, chunks); err != nil {
		return 0, fmt.Errorf("%w: store vectors: %v", appErr.ErrProvider, err)
	}
	logger.Info("index build completed", zap.Duration("elapsed", time.Since(start)))
	return len(chunks), nil
}

func (m *Manager) embedChunk(ctx context.Context, content string) ([]float32, error) {
	const taskType = "RETRIEVAL_DOCUMENT"
	hash := contentHash(content)
	if m.cache != nil {
		cached, ok, err := m.cache.Get(ctx, m.embedder.ModelName(), taskType, hash)
		if err == nil && ok {
			return cached, nil
		}
	}
	embedding, err := m.embedder.Embed(ctx, content, taskType)
	if err != nil {
		return nil, err
	}
	if m.cache != nil {
		_ = m.cache.Save(ctx, &model.EmbeddingCache{
			ModelName:   m.embedder.ModelName(),
			TaskType:    taskType,
			ContentHash: hash,
			Embedding:   embedding,
			Ctime:       time.Now().UnixMilli(),
		})
	}
	return embedding, nil
}
