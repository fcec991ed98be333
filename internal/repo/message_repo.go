package repo

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/cindyai/internal/model"
	"github.com/xxxsen/cindyai/internal/pkg/dbutil"
)

var messageFields = []string{"id", "chat_id", "content_id", "role", "content", "content_metadata", "ctime", "mtime"}

type MessageRepo struct {
	db *sql.DB
}

func NewMessageRepo(db *sql.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

func (r *MessageRepo) Create(ctx context.Context, msg *model.ChatMessage) error {
	meta, err := json.Marshal(msg.Metadata)
	if err != nil {
		return err
	}
	data := map[string]interface{}{
		"id":               msg.ID,
		"chat_id":          msg.ChatID,
		"content_id":       msg.ContentID,
		"role":             msg.Role,
		"content":          msg.Content,
		"content_metadata": meta,
		"ctime":            msg.Ctime,
		"mtime":            msg.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("chat_messages", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// ListByChat returns messages in conversation order.
func (r *MessageRepo) ListByChat(ctx context.Context, chatID string) ([]model.ChatMessage, error) {
	sqlStr, args, err := builder.BuildSelect("chat_messages", map[string]interface{}{
		"chat_id":  chatID,
		"_orderby": "ctime asc, id asc",
	}, messageFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	msgs := make([]model.ChatMessage, 0)
	for rows.Next() {
		var msg model.ChatMessage
		var meta []byte
		if err := rows.Scan(&msg.ID, &msg.ChatID, &msg.ContentID, &msg.Role, &msg.Content,
			&meta, &msg.Ctime, &msg.Mtime); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &msg.Metadata); err != nil {
				return nil, err
			}
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

func (r *MessageRepo) CountByChat(ctx context.Context, chatID string) (int, error) {
	row := r.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM chat_messages WHERE chat_id = $1", chatID)
	var count int
	if err := row.Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
