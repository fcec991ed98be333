package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/cindyai/internal/model"
	"github.com/xxxsen/cindyai/internal/pkg/dbutil"
	appErr "github.com/xxxsen/cindyai/internal/pkg/errors"
)

var contentFields = []string{"id", "title", "content_type", "source_url", "content_text", "content_metadata", "ctime", "mtime"}

type ContentRepo struct {
	db *sql.DB
}

func NewContentRepo(db *sql.DB) *ContentRepo {
	return &ContentRepo{db: db}
}

func (r *ContentRepo) Create(ctx context.Context, content *model.Content) error {
	meta, err := json.Marshal(content.Metadata)
	if err != nil {
		return err
	}
	data := map[string]interface{}{
		"id":               content.ID,
		"title":            content.Title,
		"content_type":     content.ContentType,
		"source_url":       content.SourceURL,
		"content_text":     content.ContentText,
		"content_metadata": meta,
		"ctime":            content.Ctime,
		"mtime":            content.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("contents", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *ContentRepo) Update(ctx context.Context, content *model.Content) error {
	meta, err := json.Marshal(content.Metadata)
	if err != nil {
		return err
	}
	where := map[string]interface{}{
		"id": content.ID,
	}
	update := map[string]interface{}{
		"title":            content.Title,
		"content_type":     content.ContentType,
		"source_url":       content.SourceURL,
		"content_text":     content.ContentText,
		"content_metadata": meta,
		"mtime":            content.Mtime,
	}
	sqlStr, args, err := builder.BuildUpdate("contents", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *ContentRepo) GetByID(ctx context.Context, contentID string) (*model.Content, error) {
	return r.selectOne(ctx, map[string]interface{}{
		"id": contentID,
	})
}

func (r *ContentRepo) GetBySourceURL(ctx context.Context, contentType, sourceURL string) (*model.Content, error) {
	return r.selectOne(ctx, map[string]interface{}{
		"content_type": contentType,
		"source_url":   sourceURL,
		"_limit":       []uint{0, 1},
	})
}

// GetByVideoID scans video-typed rows and matches the typed metadata; fine at
// prototype scale, an index would be needed beyond that.
func (r *ContentRepo) GetByVideoID(ctx context.Context, videoID string) (*model.Content, error) {
	contents, err := r.selectMany(ctx, map[string]interface{}{
		"content_type": model.ContentTypeVideo,
		"_orderby":     "ctime desc",
	})
	if err != nil {
		return nil, err
	}
	for i := range contents {
		if contents[i].Metadata.VideoID == videoID {
			return &contents[i], nil
		}
	}
	return nil, appErr.ErrNotFound
}

// FindByVideoRef matches content whose metadata video id equals ref or whose
// source URL contains it (shortened vs canonical link variants).
func (r *ContentRepo) FindByVideoRef(ctx context.Context, ref string) (*model.Content, error) {
	contents, err := r.selectMany(ctx, map[string]interface{}{
		"content_type": model.ContentTypeVideo,
		"_orderby":     "ctime desc",
	})
	if err != nil {
		return nil, err
	}
	for i := range contents {
		if contents[i].Metadata.VideoID == ref || strings.Contains(contents[i].SourceURL, ref) {
			return &contents[i], nil
		}
	}
	return nil, appErr.ErrNotFound
}

func (r *ContentRepo) MostRecent(ctx context.Context) (*model.Content, error) {
	return r.selectOne(ctx, map[string]interface{}{
		"_orderby": "ctime desc",
		"_limit":   []uint{0, 1},
	})
}

func (r *ContentRepo) List(ctx context.Context, skip, limit uint, contentType string) ([]model.Content, error) {
	where := map[string]interface{}{
		"_orderby": "ctime desc",
	}
	if contentType != "" {
		where["content_type"] = contentType
	}
	if limit > 0 {
		where["_limit"] = []uint{skip, limit}
	}
	return r.selectMany(ctx, where)
}

func (r *ContentRepo) Count(ctx context.Context) (int, error) {
	row := r.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM contents")
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ContentRepo) Delete(ctx context.Context, contentID string) error {
	sqlStr, args, err := builder.BuildDelete("contents", map[string]interface{}{
		"id": contentID,
	})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *ContentRepo) selectOne(ctx context.Context, where map[string]interface{}) (*model.Content, error) {
	contents, err := r.selectMany(ctx, where)
	if err != nil {
		return nil, err
	}
	if len(contents) == 0 {
		return nil, appErr.ErrNotFound
	}
	return &contents[0], nil
}

func (r *ContentRepo) selectMany(ctx context.Context, where map[string]interface{}) ([]model.Content, error) {
	sqlStr, args, err := builder.BuildSelect("contents", where, contentFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	contents := make([]model.Content, 0)
	for rows.Next() {
		var content model.Content
		var meta []byte
		if err := rows.Scan(&content.ID, &content.Title, &content.ContentType, &content.SourceURL,
			&content.ContentText, &meta, &content.Ctime, &content.Mtime); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &content.Metadata); err != nil {
				return nil, err
			}
		}
		contents = append(contents, content)
	}
	return contents, rows.Err()
}
