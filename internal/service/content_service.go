package service

import (
	"context"
	"fmt"
	"io"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/cindyai/internal/filestore"
	"github.com/xxxsen/cindyai/internal/model"
	appErr "github.com/xxxsen/cindyai/internal/pkg/errors"
	"github.com/xxxsen/cindyai/internal/pkg/timeutil"
	"github.com/xxxsen/cindyai/internal/repo"
	"github.com/xxxsen/cindyai/internal/youtube"
)

// TranscriptExtractor is what the ingestion path needs from the youtube
// package; tests substitute a fake.
type TranscriptExtractor interface {
	ResolveVideoID(ctx context.Context, videoURL string) (string, error)
	FetchTranscript(ctx context.Context, videoURL string) (string, error)
	FetchMetadata(ctx context.Context, videoURL string) (*youtube.Metadata, error)
}

type ContentService struct {
	contents  *repo.ContentRepo
	chunks    *repo.ChunkRepo
	extractor TranscriptExtractor
	archive   filestore.Store
}

func NewContentService(contents *repo.ContentRepo, chunks *repo.ChunkRepo, extractor TranscriptExtractor, archive filestore.Store) *ContentService {
	return &ContentService{contents: contents, chunks: chunks, extractor: extractor, archive: archive}
}

// IngestYouTube resolves a video URL to a transcript-backed Content record.
// Dedup runs twice: by exact source URL, then by resolved video id, so the
// same video ingested under shortened and canonical links yields one record.
func (s *ContentService) IngestYouTube(ctx context.Context, videoURL string) (*model.Content, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("video_url", videoURL))
	if existing, err := s.contents.GetBySourceURL(ctx, model.ContentTypeVideo, videoURL); err == nil {
		logger.Info("video url already ingested", zap.String("content_id", existing.ID))
		return existing, nil
	} else if !appErr.IsNotFound(err) {
		return nil, err
	}

	videoID, err := s.extractor.ResolveVideoID(ctx, videoURL)
	if err != nil {
		return nil, fmt.Errorf("resolve video id: %w", err)
	}
	if existing, err := s.contents.GetByVideoID(ctx, videoID); err == nil {
		logger.Info("video id already ingested", zap.String("video_id", videoID), zap.String("content_id", existing.ID))
		return existing, nil
	} else if !appErr.IsNotFound(err) {
		return nil, err
	}

	transcript, err := s.extractor.FetchTranscript(ctx, videoURL)
	if err != nil {
		return nil, fmt.Errorf("fetch transcript: %w", err)
	}
	meta, err := s.extractor.FetchMetadata(ctx, videoURL)
	if err != nil {
		return nil, fmt.Errorf("fetch metadata: %w", err)
	}

	now := timeutil.NowUnix()
	content := &model.Content{
		ID:          newID(),
		Title:       meta.Title,
		ContentType: model.ContentTypeVideo,
		SourceURL:   videoURL,
		ContentText: transcript,
		Metadata: model.ContentMetadata{
			VideoID:     videoID,
			Title:       meta.Title,
			Description: meta.Description,
			Uploader:    meta.Uploader,
			UploadDate:  meta.UploadDate,
			Duration:    meta.Duration,
			ViewCount:   meta.ViewCount,
		},
		Ctime: now,
		Mtime: now,
	}
	if err := s.contents.Create(ctx, content); err != nil {
		return nil, err
	}
	logger.Info("video ingested", zap.String("content_id", content.ID), zap.String("video_id", videoID), zap.Int("chars", len(transcript)))

	if s.archive != nil {
		if err := s.archive.Save(ctx, videoID+".txt", []byte(transcript)); err != nil {
			logger.Warn("transcript archive failed", zap.Error(err))
		}
	}
	return content, nil
}

func (s *ContentService) Get(ctx context.Context, contentID string) (*model.Content, error) {
	return s.contents.GetByID(ctx, contentID)
}

func (s *ContentService) List(ctx context.Context, skip, limit uint, contentType string) ([]model.Content, error) {
	if contentType != "" && !model.ValidContentType(contentType) {
		return nil, appErr.ErrInvalid
	}
	if limit == 0 {
		limit = 100
	}
	return s.contents.List(ctx, skip, limit, contentType)
}

type ContentUpdateInput struct {
	Title       *string
	ContentType *string
	SourceURL   *string
	ContentText *string
	Metadata    *model.ContentMetadata
}

// Update overwrites only the provided fields; the stored chunk index turns
// stale through the mtime bump and is rebuilt lazily or by the sync job.
func (s *ContentService) Update(ctx context.Context, contentID string, input ContentUpdateInput) (*model.Content, error) {
	content, err := s.contents.GetByID(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if input.Title != nil {
		content.Title = *input.Title
	}
	if input.ContentType != nil {
		if !model.ValidContentType(*input.ContentType) {
			return nil, appErr.ErrInvalid
		}
		content.ContentType = *input.ContentType
	}
	if input.SourceURL != nil {
		content.SourceURL = *input.SourceURL
	}
	if input.ContentText != nil {
		content.ContentText = *input.ContentText
	}
	if input.Metadata != nil {
		content.Metadata = *input.Metadata
	}
	content.Mtime = timeutil.NowUnix()
	if err := s.contents.Update(ctx, content); err != nil {
		return nil, err
	}
	return content, nil
}

// Delete drops the content and its chunk index. Chat messages referencing the
// content keep their dangling content_id on purpose.
func (s *ContentService) Delete(ctx context.Context, contentID string) error {
	if err := s.contents.Delete(ctx, contentID); err != nil {
		return err
	}
	if err := s.chunks.DeleteByContent(ctx, contentID); err != nil {
		logutil.GetLogger(ctx).Warn("drop chunk index failed", zap.String("content_id", contentID), zap.Error(err))
	}
	return nil
}

// OpenRaw serves the archived transcript payload for a video content.
func (s *ContentService) OpenRaw(ctx context.Context, contentID string) (io.ReadCloser, error) {
	content, err := s.contents.GetByID(ctx, contentID)
	if err != nil {
		return nil, err
	}
	if s.archive == nil || content.Metadata.VideoID == "" {
		return nil, appErr.ErrNotFound
	}
	rc, err := s.archive.Open(ctx, content.Metadata.VideoID+".txt")
	if err != nil {
		return nil, appErr.ErrNotFound
	}
	return rc, nil
}
