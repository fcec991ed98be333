package model

type ContentChunk struct {
	ContentID   string    `json:"content_id"`
	Position    int       `json:"position"`
	ChunkText   string    `json:"chunk_text"`
	Embedding   []float32 `json:"embedding"`
	ContentHash string    `json:"content_hash"`
	Mtime       int64     `json:"mtime"`
}

type RetrievedChunk struct {
	Position  int     `json:"position"`
	ChunkText string  `json:"chunk_text"`
	Distance  float64 `json:"distance"`
}
