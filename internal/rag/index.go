package rag

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/creditchek/devbot/internal/ai"
	"github.com/creditchek/devbot/internal/model"
	appErr "github.com/creditchek/devbot/internal/pkg/errors"
)

// ChunkStore is the vector store surface the index needs. The serving path
// only calls VectorCount and Search; Insert/DeleteNamespace are used during
// index construction only.
type ChunkStore interface {
	VectorCount(ctx context.Context, namespace string) (int64, error)
	Insert(ctx context.Context, namespace string, chunks []model.Chunk) error
	DeleteNamespace(ctx context.Context, namespace string) error
	Search(ctx context.Context, namespace string, embedding []float32, topK int) ([]model.Chunk, error)
}

// Index is a read-only query handle over one vector store namespace. It is
// shared across all requests after startup and exposes no mutation.
type Index struct {
	chunks     ChunkStore
	embedder   ai.IEmbedder
	generator  ai.IGenerator
	namespace  string
	topK       int
	timeout    time.Duration
	queryCache *expirable.LRU[string, []float32]
}

func newIndex(chunks ChunkStore, embedder ai.IEmbedder, generator ai.IGenerator, namespace string, topK int, timeout time.Duration) *Index {
	return &Index{
		chunks:     chunks,
		embedder:   embedder,
		generator:  generator,
		namespace:  namespace,
		topK:       topK,
		timeout:    timeout,
		queryCache: expirable.NewLRU[string, []float32](1024, nil, 2*time.Hour),
	}
}

// Query answers one question: embed the input, retrieve the nearest chunks,
// and condition the generation model on them plus the recent conversation.
// Any failure, including a deadline hit, surfaces as ErrGeneration and
// leaves no state behind.
func (i *Index) Query(ctx context.Context, input string, history []model.HistoryPair) (string, error) {
	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}
	logger := logutil.GetLogger(ctx).With(zap.String("namespace", i.namespace))

	embedding, err := i.embedQuery(ctx, input)
	if err != nil {
		logger.Error("query embedding failed", zap.Error(err))
		return "", generationErr(ctx, "embed query", err)
	}
	chunks, err := i.chunks.Search(ctx, i.namespace, embedding, i.topK)
	if err != nil {
		logger.Error("vector search failed", zap.Error(err))
		return "", generationErr(ctx, "vector search", err)
	}
	prompt := buildPrompt(input, chunks, history)
	text, err := i.generator.Generate(ctx, prompt)
	if err != nil {
		logger.Error("generation failed", zap.Error(err))
		return "", generationErr(ctx, "generate", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty model response", appErr.ErrGeneration)
	}
	logger.Debug("query answered", zap.Int("context_chunks", len(chunks)))
	return text, nil
}

func (i *Index) embedQuery(ctx context.Context, input string) ([]float32, error) {
	key := contentHash(input)
	if cached, ok := i.queryCache.Get(key); ok {
		return cached, nil
	}
	embedding, err := i.embedder.Embed(ctx, input, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, err
	}
	i.queryCache.Add(key, embedding)
	return embedding, nil
}

func generationErr(ctx context.Context, step string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s timed out", appErr.ErrGeneration, step)
	}
	return fmt.Errorf("%w: %s: %v", appErr.ErrGeneration, step, err)
}

func buildPrompt(input string, chunks []model.Chunk, history []model.HistoryPair) string {
	var sb strings.Builder
	if len(chunks) > 0 {
		sb.WriteString("Use the context below to answer the question.\n\nContext:\n---------------------\n")
		for _, chunk := range chunks {
			sb.WriteString(chunk.Content)
			sb.WriteString("\n\n")
		}
		sb.WriteString("---------------------\n\n")
	}
	if len(history) > 0 {
		sb.WriteString("Conversation so far:\n")
		for _, pair := range history {
			sb.WriteString("User: ")
			sb.WriteString(pair.Input)
			sb.WriteString("\nAssistant: ")
			sb.WriteString(pair.Response)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	sb.WriteString(input)
	return sb.String()
}

func contentHash(text string) string {
	hash := sha256.Sum256([]byte(text))
	return hex.EncodeToString(hash[:])
}
