package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/cindyai/internal/repo"
	"github.com/xxxsen/cindyai/internal/service"
)

// IndexSyncJob rebuilds chunk indexes that fell behind their content, so an
// edited transcript is re-embedded even when nobody chats over it.
type IndexSyncJob struct {
	chunks    *repo.ChunkRepo
	retrieval *service.RetrievalService
	batch     int
}

func NewIndexSyncJob(chunks *repo.ChunkRepo, retrieval *service.RetrievalService, batch int) *IndexSyncJob {
	if batch <= 0 {
		batch = 20
	}
	return &IndexSyncJob{chunks: chunks, retrieval: retrieval, batch: batch}
}

func (j *IndexSyncJob) Name() string {
	return "index_sync"
}

func (j *IndexSyncJob) Run(ctx context.Context) error {
	if j.retrieval == nil {
		return nil
	}
	ids, err := j.chunks.ListStaleContentIDs(ctx, j.batch)
	if err != nil {
		return err
	}
	logger := logutil.GetLogger(ctx)
	for _, id := range ids {
		if err := j.retrieval.SyncContent(ctx, id); err != nil {
			logger.Warn("index sync failed for content", zap.String("content_id", id), zap.Error(err))
		}
	}
	return nil
}
