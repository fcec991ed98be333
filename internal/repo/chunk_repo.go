package repo

import (
	"context"
	"database/sql"

	"github.com/pgvector/pgvector-go"

	"github.com/xxxsen/cindyai/internal/model"
	appErr "github.com/xxxsen/cindyai/internal/pkg/errors"
)

// ChunkRepo is the persistent per-content retrieval index: one row per chunk,
// keyed by (content_id, position), stamped with the hash of the source text so
// callers can tell when the index is stale.
type ChunkRepo struct {
	db *sql.DB
}

func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

// Replace swaps the whole index for a content in one transaction.
func (r *ChunkRepo) Replace(ctx context.Context, contentID string, chunks []model.ContentChunk) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()
	if _, err := tx.ExecContext(ctx, "DELETE FROM content_chunks WHERE content_id = $1", contentID); err != nil {
		return err
	}
	const insert = `INSERT INTO content_chunks (content_id, position, chunk_text, embedding, content_hash, mtime)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for _, chunk := range chunks {
		if _, err := tx.ExecContext(ctx, insert, contentID, chunk.Position, chunk.ChunkText,
			pgvector.NewVector(chunk.Embedding), chunk.ContentHash, chunk.Mtime); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// IndexHash returns the content hash the stored index was built from, or
// ErrNotFound when no index exists.
func (r *ChunkRepo) IndexHash(ctx context.Context, contentID string) (string, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT content_hash FROM content_chunks WHERE content_id = $1 ORDER BY position LIMIT 1", contentID)
	var hash string
	if err := row.Scan(&hash); err != nil {
		if err == sql.ErrNoRows {
			return "", appErr.ErrNotFound
		}
		return "", err
	}
	return hash, nil
}

// Nearest returns the k chunks of a content closest to the query embedding,
// ordered by increasing cosine distance.
func (r *ChunkRepo) Nearest(ctx context.Context, contentID string, query []float32, k int) ([]model.RetrievedChunk, error) {
	const search = `SELECT position, chunk_text, embedding <=> $1 AS distance
		FROM content_chunks WHERE content_id = $2 ORDER BY embedding <=> $1 LIMIT $3`
	rows, err := r.db.QueryContext(ctx, search, pgvector.NewVector(query), contentID, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	chunks := make([]model.RetrievedChunk, 0, k)
	for rows.Next() {
		var chunk model.RetrievedChunk
		if err := rows.Scan(&chunk.Position, &chunk.ChunkText, &chunk.Distance); err != nil {
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

func (r *ChunkRepo) DeleteByContent(ctx context.Context, contentID string) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM content_chunks WHERE content_id = $1", contentID)
	return err
}

// ListStaleContentIDs lists contents whose index is missing or older than the
// content itself.
func (r *ChunkRepo) ListStaleContentIDs(ctx context.Context, limit int) ([]string, error) {
	const query = `
		SELECT c.id
		FROM contents c
		LEFT JOIN (
			SELECT content_id, MAX(mtime) AS mtime FROM content_chunks GROUP BY content_id
		) e ON c.id = e.content_id
		WHERE e.content_id IS NULL OR c.mtime > e.mtime
		ORDER BY c.ctime
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
