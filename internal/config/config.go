package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port        int              `json:"port"`
	JWTSecret   string           `json:"jwt_secret"`
	JWTTTLHours int              `json:"jwt_ttl_hours"`
	CORSOrigins []string         `json:"cors_origins"`
	LogConfig   logger.LogConfig `json:"log_config"`
	Database    DatabaseConfig   `json:"database"`
	AI          AIConfig         `json:"ai"`
	YouTube     YouTubeConfig    `json:"youtube"`
	Retrieval   RetrievalConfig  `json:"retrieval"`
	Archive     ArchiveConfig    `json:"archive"`
	Jobs        JobsConfig       `json:"jobs"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	SSLMode  string `json:"sslmode"`
}

type AIConfig struct {
	Provider      string      `json:"provider"`
	Data          interface{} `json:"data"`
	Model         string      `json:"model"`
	EmbedModel    string      `json:"embed_model"`
	MaxInputChars int         `json:"max_input_chars"`
	Timeout       int         `json:"timeout"`
}

type YouTubeConfig struct {
	Languages  []string `json:"languages"`
	Formats    []string `json:"formats"`
	YTDLPPath  string   `json:"yt_dlp_path"`
	TimeoutSec int      `json:"timeout"`
}

type RetrievalConfig struct {
	ChunkSize    int `json:"chunk_size"`
	ChunkOverlap int `json:"chunk_overlap"`
	TopK         int `json:"top_k"`
}

type ArchiveConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type JobsConfig struct {
	IndexSyncSpec  string `json:"index_sync_spec"`
	IndexSyncBatch int    `json:"index_sync_batch"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt_secret is required")
	}
	if cfg.JWTTTLHours == 0 {
		cfg.JWTTTLHours = 72
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.AI.Provider == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	if cfg.AI.Model == "" {
		return nil, fmt.Errorf("ai.model is required")
	}
	if cfg.AI.EmbedModel == "" {
		return nil, fmt.Errorf("ai.embed_model is required")
	}
	if cfg.AI.Data == nil {
		return nil, fmt.Errorf("ai.data is required")
	}
	if cfg.AI.Timeout == 0 {
		cfg.AI.Timeout = 60
	}
	if len(cfg.YouTube.Languages) == 0 {
		cfg.YouTube.Languages = []string{"en"}
	}
	if len(cfg.YouTube.Formats) == 0 {
		cfg.YouTube.Formats = []string{"srv1", "vtt", "ttml"}
	}
	if cfg.YouTube.YTDLPPath == "" {
		cfg.YouTube.YTDLPPath = "yt-dlp"
	}
	if cfg.YouTube.TimeoutSec == 0 {
		cfg.YouTube.TimeoutSec = 60
	}
	if cfg.Retrieval.ChunkSize == 0 {
		cfg.Retrieval.ChunkSize = 1000
	}
	if cfg.Retrieval.ChunkOverlap == 0 {
		cfg.Retrieval.ChunkOverlap = 200
	}
	if cfg.Retrieval.ChunkOverlap >= cfg.Retrieval.ChunkSize {
		return nil, fmt.Errorf("retrieval.chunk_overlap must be smaller than chunk_size")
	}
	if cfg.Retrieval.TopK == 0 {
		cfg.Retrieval.TopK = 3
	}
	if cfg.Archive.Type == "" {
		cfg.Archive.Type = "local"
		cfg.Archive.Data = map[string]interface{}{"dir": "./transcript_files"}
	}
	if cfg.Jobs.IndexSyncSpec == "" {
		cfg.Jobs.IndexSyncSpec = "*/5 * * * *"
	}
	if cfg.Jobs.IndexSyncBatch == 0 {
		cfg.Jobs.IndexSyncBatch = 20
	}
	return &cfg, nil
}
