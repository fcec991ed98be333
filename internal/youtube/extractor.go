package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/exec"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	appErr "github.com/xxxsen/cindyai/internal/pkg/errors"
)

// Config is fixed at construction time; the extractor itself is stateless and
// safe for concurrent use.
type Config struct {
	Languages []string
	Formats   []string
	BinPath   string
	Timeout   time.Duration
	Client    *http.Client
}

type Metadata struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Duration    int64  `json:"duration"`
	ViewCount   int64  `json:"view_count"`
	Uploader    string `json:"uploader"`
	UploadDate  string `json:"upload_date"`
}

type Extractor struct {
	cfg    Config
	client *http.Client
}

func NewExtractor(cfg Config) *Extractor {
	if len(cfg.Languages) == 0 {
		cfg.Languages = []string{"en"}
	}
	if len(cfg.Formats) == 0 {
		cfg.Formats = []string{"srv1", "vtt", "ttml"}
	}
	if cfg.BinPath == "" {
		cfg.BinPath = "yt-dlp"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Extractor{cfg: cfg, client: client}
}

type subtitleTrack struct {
	Ext string `json:"ext"`
	URL string `json:"url"`
}

type videoInfo struct {
	ID                string                     `json:"id"`
	Title             string                     `json:"title"`
	Description       string                     `json:"description"`
	Duration          float64                    `json:"duration"`
	ViewCount         int64                      `json:"view_count"`
	Uploader          string                     `json:"uploader"`
	UploadDate        string                     `json:"upload_date"`
	Subtitles         map[string][]subtitleTrack `json:"subtitles"`
	AutomaticCaptions map[string][]subtitleTrack `json:"automatic_captions"`
}

func (e *Extractor) ResolveVideoID(ctx context.Context, videoURL string) (string, error) {
	info, err := e.dump(ctx, videoURL)
	if err != nil {
		return "", err
	}
	if info.ID == "" {
		return "", fmt.Errorf("%w: no video id in metadata", appErr.ErrExtraction)
	}
	return info.ID, nil
}

func (e *Extractor) FetchMetadata(ctx context.Context, videoURL string) (*Metadata, error) {
	info, err := e.dump(ctx, videoURL)
	if err != nil {
		return nil, err
	}
	return &Metadata{
		Title:       info.Title,
		Description: info.Description,
		Duration:    int64(info.Duration),
		ViewCount:   info.ViewCount,
		Uploader:    info.Uploader,
		UploadDate:  info.UploadDate,
	}, nil
}

// FetchTranscript picks a subtitle track by language preference, manual tracks
// before automatic captions, first supported format wins; it then downloads the
// track and flattens its markup to plain text.
func (e *Extractor) FetchTranscript(ctx context.Context, videoURL string) (string, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("url", videoURL))
	info, err := e.dump(ctx, videoURL)
	if err != nil {
		return "", err
	}
	track, err := selectTrack(info, e.cfg.Languages, e.cfg.Formats)
	if err != nil {
		logger.Warn("no usable subtitle track", zap.Error(err))
		return "", err
	}
	raw, err := e.download(ctx, track.URL)
	if err != nil {
		logger.Error("subtitle download failed", zap.Error(err))
		return "", fmt.Errorf("%w: download subtitle: %v", appErr.ErrExtraction, err)
	}
	text := Flatten(track.Ext, raw)
	if text == "" {
		return "", fmt.Errorf("%w: no text in subtitle track", appErr.ErrExtraction)
	}
	logger.Debug("transcript extracted", zap.String("format", track.Ext), zap.Int("chars", len(text)))
	return text, nil
}

func selectTrack(info *videoInfo, languages []string, formats []string) (subtitleTrack, error) {
	for _, lang := range languages {
		for _, pool := range []map[string][]subtitleTrack{info.Subtitles, info.AutomaticCaptions} {
			for _, tracks := range matchLanguage(pool, lang) {
				for _, track := range tracks {
					for _, format := range formats {
						if track.Ext == format && track.URL != "" {
							return track, nil
						}
					}
				}
			}
		}
	}
	return subtitleTrack{}, fmt.Errorf("%w: no subtitle track in a supported format", appErr.ErrExtraction)
}

// matchLanguage returns the exact entry first, then regional/auto variants
// such as "en-US" or "en-orig".
func matchLanguage(pool map[string][]subtitleTrack, lang string) [][]subtitleTrack {
	if len(pool) == 0 {
		return nil
	}
	var out [][]subtitleTrack
	if tracks, ok := pool[lang]; ok {
		out = append(out, tracks)
	}
	for key, tracks := range pool {
		if key != lang && strings.HasPrefix(key, lang+"-") {
			out = append(out, tracks)
		}
	}
	return out
}

func (e *Extractor) dump(ctx context.Context, videoURL string) (*videoInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()
	cmd := exec.CommandContext(ctx, e.cfg.BinPath, "-J", "--skip-download", "--no-warnings", videoURL)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		logutil.GetLogger(ctx).Error("yt-dlp failed", zap.String("url", videoURL), zap.String("detail", detail))
		return nil, fmt.Errorf("%w: %s", appErr.ErrExtraction, detail)
	}
	var info videoInfo
	if err := json.Unmarshal(stdout.Bytes(), &info); err != nil {
		return nil, fmt.Errorf("%w: parse yt-dlp output: %v", appErr.ErrExtraction, err)
	}
	return &info, nil
}

func (e *Extractor) download(ctx context.Context, trackURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, trackURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status: %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
