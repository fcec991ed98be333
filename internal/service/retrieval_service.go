package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/cindyai/internal/ai"
	"github.com/xxxsen/cindyai/internal/model"
	appErr "github.com/xxxsen/cindyai/internal/pkg/errors"
	"github.com/xxxsen/cindyai/internal/pkg/timeutil"
	"github.com/xxxsen/cindyai/internal/repo"
)

const queryCacheSize = 512

// RetrievalService keeps the per-content chunk index in sync with the stored
// text and answers nearest-chunk queries against it. Query embeddings are
// cached so repeated questions over the same content skip the provider call.
type RetrievalService struct {
	chunks     *repo.ChunkRepo
	contents   *repo.ContentRepo
	manager    *ai.Manager
	splitter   *ai.Splitter
	topK       int
	queryCache *lru.LRU[string, []float32]
}

func NewRetrievalService(chunks *repo.ChunkRepo, contents *repo.ContentRepo, manager *ai.Manager, splitter *ai.Splitter, topK int) *RetrievalService {
	if topK <= 0 {
		topK = 3
	}
	return &RetrievalService{
		chunks:     chunks,
		contents:   contents,
		manager:    manager,
		splitter:   splitter,
		topK:       topK,
		queryCache: lru.NewLRU[string, []float32](queryCacheSize, nil, 0),
	}
}

// indexHash fingerprints the text together with the embedding model, so a
// model switch invalidates every stored index the same way an edit does.
func (s *RetrievalService) indexHash(text string) string {
	sum := sha256.Sum256([]byte(s.manager.EmbeddingModelName() + "\n" + text))
	return hex.EncodeToString(sum[:])
}

// EnsureIndex rebuilds the chunk index when it is missing or was built from a
// different version of the content text.
func (s *RetrievalService) EnsureIndex(ctx context.Context, content *model.Content) error {
	want := s.indexHash(content.ContentText)
	have, err := s.chunks.IndexHash(ctx, content.ID)
	if err == nil && have == want {
		return nil
	}
	if err != nil && !appErr.IsNotFound(err) {
		return err
	}

	pieces := s.splitter.Split(content.ContentText)
	// the index is never older than the content it was built from
	now := timeutil.NowUnix()
	if content.Mtime > now {
		now = content.Mtime
	}
	rows := make([]model.ContentChunk, 0, len(pieces))
	for i, piece := range pieces {
		embedding, err := s.manager.Embed(ctx, piece, ai.TaskTypeDocument)
		if err != nil {
			return fmt.Errorf("embed chunk %d: %w", i, err)
		}
		rows = append(rows, model.ContentChunk{
			ContentID:   content.ID,
			Position:    i,
			ChunkText:   piece,
			Embedding:   embedding,
			ContentHash: want,
			Mtime:       now,
		})
	}
	if err := s.chunks.Replace(ctx, content.ID, rows); err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("chunk index rebuilt",
		zap.String("content_id", content.ID), zap.Int("chunks", len(rows)))
	return nil
}

// Search returns the chunks of a content closest to the query, refreshing the
// index first when the text changed since the last build.
func (s *RetrievalService) Search(ctx context.Context, content *model.Content, query string, k int) ([]model.RetrievedChunk, error) {
	if k <= 0 {
		k = s.topK
	}
	if err := s.EnsureIndex(ctx, content); err != nil {
		return nil, err
	}
	embedding, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.chunks.Nearest(ctx, content.ID, embedding, k)
}

func (s *RetrievalService) embedQuery(ctx context.Context, query string) ([]float32, error) {
	key := s.indexHash(query)
	if cached, ok := s.queryCache.Get(key); ok {
		return cached, nil
	}
	embedding, err := s.manager.Embed(ctx, query, ai.TaskTypeQuery)
	if err != nil {
		return nil, err
	}
	s.queryCache.Add(key, embedding)
	return embedding, nil
}

// SyncContent rebuilds the index for a single content by id; used by the
// background sync job.
func (s *RetrievalService) SyncContent(ctx context.Context, contentID string) error {
	content, err := s.contents.GetByID(ctx, contentID)
	if err != nil {
		return err
	}
	return s.EnsureIndex(ctx, content)
}
