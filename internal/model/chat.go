package model

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Chat struct {
	ID    string `json:"id"`
	Title string `json:"title,omitempty"`
	Ctime int64  `json:"ctime"`
	Mtime int64  `json:"mtime"`
}

// ChatMessage.ContentID is a soft reference: the content may be deleted later
// and the message must still load.
type ChatMessage struct {
	ID        string          `json:"id"`
	ChatID    string          `json:"chat_id"`
	ContentID string          `json:"content_id,omitempty"`
	Role      string          `json:"role"`
	Content   string          `json:"content"`
	Metadata  MessageMetadata `json:"content_metadata"`
	Ctime     int64           `json:"ctime"`
	Mtime     int64           `json:"mtime"`
}

type MessageMetadata struct {
	Sources []ChunkSource `json:"sources,omitempty"`
}

// ChunkSource describes where a retrieved chunk came from; it is persisted on
// the assistant message and returned to the client.
type ChunkSource struct {
	ContentID   string  `json:"content_id"`
	Title       string  `json:"title"`
	SourceURL   string  `json:"source_url,omitempty"`
	ContentType string  `json:"content_type"`
	VideoID     string  `json:"video_id,omitempty"`
	Uploader    string  `json:"uploader,omitempty"`
	Position    int     `json:"position"`
	Distance    float64 `json:"distance"`
}
