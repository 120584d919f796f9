package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/creditchek/devbot/internal/model"
)

// ChunkRepo stores embedded corpus chunks in postgres/pgvector. A namespace
// isolates one corpus from another; the serving path only ever reads.
type ChunkRepo struct {
	db *sql.DB
}

func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

func (r *ChunkRepo) VectorCount(ctx context.Context, namespace string) (int64, error) {
	const query = `SELECT COUNT(*) FROM corpus_chunks WHERE namespace = $1`
	var count int64
	if err := r.db.QueryRowContext(ctx, query, namespace).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ChunkRepo) Insert(ctx context.Context, namespace string, chunks []model.Chunk) error {
	const query = `
		INSERT INTO corpus_chunks (namespace, document_url, position, content, embedding)
		VALUES ($1, $2, $3, $4, $5)
	`
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, chunk := range chunks {
		if len(chunk.Embedding) == 0 {
			return fmt.Errorf("chunk %s#%d has no embedding", chunk.DocumentURL, chunk.Position)
		}
		if _, err := tx.ExecContext(ctx, query,
			namespace,
			chunk.DocumentURL,
			chunk.Position,
			chunk.Content,
			pgvector.NewVector(chunk.Embedding),
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *ChunkRepo) DeleteNamespace(ctx context.Context, namespace string) error {
	const query = `DELETE FROM corpus_chunks WHERE namespace = $1`
	_, err := r.db.ExecContext(ctx, query, namespace)
	return err
}

// Search returns the topK chunks nearest to the query vector by cosine
// distance, nearest first.
func (r *ChunkRepo) Search(ctx context.Context, namespace string, embedding []float32, topK int) ([]model.Chunk, error) {
	const query = `
		SELECT document_url, position, content
		FROM corpus_chunks
		WHERE namespace = $1
		ORDER BY embedding <=> $2
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, namespace, pgvector.NewVector(embedding), topK)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var chunks []model.Chunk
	for rows.Next() {
		var chunk model.Chunk
		if err := rows.Scan(&chunk.DocumentURL, &chunk.Position, &chunk.Content); err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}
