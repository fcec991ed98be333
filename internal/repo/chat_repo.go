package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/cindyai/internal/model"
	"github.com/xxxsen/cindyai/internal/pkg/dbutil"
	appErr "github.com/xxxsen/cindyai/internal/pkg/errors"
)

type ChatRepo struct {
	db *sql.DB
}

func NewChatRepo(db *sql.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

func (r *ChatRepo) Create(ctx context.Context, chat *model.Chat) error {
	data := map[string]interface{}{
		"id":    chat.ID,
		"title": chat.Title,
		"ctime": chat.Ctime,
		"mtime": chat.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("chats", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *ChatRepo) GetByID(ctx context.Context, chatID string) (*model.Chat, error) {
	sqlStr, args, err := builder.BuildSelect("chats", map[string]interface{}{
		"id": chatID,
	}, []string{"id", "title", "ctime", "mtime"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	var chat model.Chat
	if err := rows.Scan(&chat.ID, &chat.Title, &chat.Ctime, &chat.Mtime); err != nil {
		return nil, err
	}
	return &chat, nil
}

func (r *ChatRepo) Touch(ctx context.Context, chatID string, mtime int64) error {
	sqlStr, args, err := builder.BuildUpdate("chats", map[string]interface{}{
		"id": chatID,
	}, map[string]interface{}{
		"mtime": mtime,
	})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}
