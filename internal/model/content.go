package model

import "encoding/json"

const (
	ContentTypeVideo    = "video"
	ContentTypeArticle  = "article"
	ContentTypeDocument = "document"
)

func ValidContentType(t string) bool {
	switch t {
	case ContentTypeVideo, ContentTypeArticle, ContentTypeDocument:
		return true
	}
	return false
}

type Content struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	ContentType string          `json:"content_type"`
	SourceURL   string          `json:"source_url,omitempty"`
	ContentText string          `json:"content_text"`
	Metadata    ContentMetadata `json:"content_metadata"`
	Ctime       int64           `json:"ctime"`
	Mtime       int64           `json:"mtime"`
}

// ContentMetadata keeps the well-known video attributes typed and folds any
// other keys into Extra so they survive a store/load round trip.
type ContentMetadata struct {
	VideoID     string
	Title       string
	Description string
	Uploader    string
	UploadDate  string
	Duration    int64
	ViewCount   int64
	Extra       map[string]interface{}
}

func (m ContentMetadata) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(m.Extra)+7)
	for k, v := range m.Extra {
		out[k] = v
	}
	if m.VideoID != "" {
		out["video_id"] = m.VideoID
	}
	if m.Title != "" {
		out["title"] = m.Title
	}
	if m.Description != "" {
		out["description"] = m.Description
	}
	if m.Uploader != "" {
		out["uploader"] = m.Uploader
	}
	if m.UploadDate != "" {
		out["upload_date"] = m.UploadDate
	}
	if m.Duration != 0 {
		out["duration"] = m.Duration
	}
	if m.ViewCount != 0 {
		out["view_count"] = m.ViewCount
	}
	return json.Marshal(out)
}

func (m *ContentMetadata) UnmarshalJSON(data []byte) error {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	take := func(key string, dst interface{}) {
		value, ok := raw[key]
		if !ok {
			return
		}
		if err := json.Unmarshal(value, dst); err == nil {
			delete(raw, key)
		}
	}
	take("video_id", &m.VideoID)
	take("title", &m.Title)
	take("description", &m.Description)
	take("uploader", &m.Uploader)
	take("upload_date", &m.UploadDate)
	take("duration", &m.Duration)
	take("view_count", &m.ViewCount)
	if len(raw) == 0 {
		m.Extra = nil
		return nil
	}
	m.Extra = make(map[string]interface{}, len(raw))
	for k, v := range raw {
		var value interface{}
		if err := json.Unmarshal(v, &value); err != nil {
			return err
		}
		m.Extra[k] = value
	}
	return nil
}
