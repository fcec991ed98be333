package handler_test

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/webapi"

	"github.com/xxxsen/cindyai/internal/ai"
	"github.com/xxxsen/cindyai/internal/config"
	"github.com/xxxsen/cindyai/internal/filestore"
	"github.com/xxxsen/cindyai/internal/handler"
	"github.com/xxxsen/cindyai/internal/middleware"
	appErr "github.com/xxxsen/cindyai/internal/pkg/errors"
	"github.com/xxxsen/cindyai/internal/repo"
	"github.com/xxxsen/cindyai/internal/service"
	"github.com/xxxsen/cindyai/internal/youtube"
	"github.com/xxxsen/cindyai/test/testutil"
)

// fakeExtractor answers from a canned table instead of invoking yt-dlp.
type fakeExtractor struct {
	videos map[string]fakeVideo
}

type fakeVideo struct {
	id         string
	title      string
	uploader   string
	transcript string
}

func (f *fakeExtractor) lookup(videoURL string) (fakeVideo, error) {
	video, ok := f.videos[videoURL]
	if !ok {
		return fakeVideo{}, fmt.Errorf("%w: unknown video: %s", appErr.ErrExtraction, videoURL)
	}
	return video, nil
}

func (f *fakeExtractor) ResolveVideoID(ctx context.Context, videoURL string) (string, error) {
	video, err := f.lookup(videoURL)
	if err != nil {
		return "", err
	}
	return video.id, nil
}

func (f *fakeExtractor) FetchTranscript(ctx context.Context, videoURL string) (string, error) {
	video, err := f.lookup(videoURL)
	if err != nil {
		return "", err
	}
	return video.transcript, nil
}

func (f *fakeExtractor) FetchMetadata(ctx context.Context, videoURL string) (*youtube.Metadata, error) {
	video, err := f.lookup(videoURL)
	if err != nil {
		return nil, err
	}
	return &youtube.Metadata{
		Title:    video.title,
		Uploader: video.uploader,
	}, nil
}

// fakeProvider returns deterministic embeddings and a canned answer so the
// full chat turn runs without a real model behind it.
type fakeProvider struct{}

func (fakeProvider) Name() string {
	return "fake"
}

func (fakeProvider) Generate(ctx context.Context, model string, system string, prompt string) (string, error) {
	return "fake answer to: " + prompt, nil
}

func (fakeProvider) Embed(ctx context.Context, model string, text string, taskType string) ([]float32, error) {
	sum := sha256.Sum256([]byte(text))
	out := make([]float32, 8)
	for i := range out {
		out[i] = float32(sum[i]) + 1
	}
	return out, nil
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setupRouter(t *testing.T, videos map[string]fakeVideo) (http.Handler, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, cleanup := testutil.OpenTestDB(t)
	for _, table := range []string{"chat_messages", "chats", "content_chunks", "contents", "users"} {
		_, err := db.Exec("DELETE FROM " + table)
		require.NoError(t, err)
	}

	userRepo := repo.NewUserRepo(db)
	contentRepo := repo.NewContentRepo(db)
	chatRepo := repo.NewChatRepo(db)
	messageRepo := repo.NewMessageRepo(db)
	chunkRepo := repo.NewChunkRepo(db)

	tmpDir, err := os.MkdirTemp("", "cindyai-archive-*")
	require.NoError(t, err)
	archive, err := filestore.New(config.ArchiveConfig{
		Type: "local",
		Data: map[string]interface{}{
			"dir": tmpDir,
		},
	})
	require.NoError(t, err)

	manager := ai.NewManager(fakeProvider{}, ai.ManagerConfig{
		Model:      "fake-model",
		EmbedModel: "fake-embed",
		Timeout:    5,
	})
	splitter := ai.NewSplitter(1000, 200)

	jwtSecret := []byte("test-secret")
	authService := service.NewAuthService(userRepo, jwtSecret, time.Hour)
	contentService := service.NewContentService(contentRepo, chunkRepo, &fakeExtractor{videos: videos}, archive)
	retrievalService := service.NewRetrievalService(chunkRepo, contentRepo, manager, splitter, 3)
	chatService := service.NewChatService(chatRepo, messageRepo, contentRepo, retrievalService, manager, 3)

	deps := handler.RouterDeps{
		Auth:      handler.NewAuthHandler(authService),
		Contents:  handler.NewContentHandler(contentService),
		Chats:     handler.NewChatHandler(chatService),
		JWTSecret: jwtSecret,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		"",
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(nil),
		),
	)
	require.NoError(t, err)

	return engine, func() {
		cleanup()
		_ = os.RemoveAll(tmpDir)
	}
}

func doRequest(t *testing.T, h http.Handler, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, "/api/v1"+path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var env envelope
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") != "text/plain; charset=utf-8" {
		_ = json.Unmarshal(rec.Body.Bytes(), &env)
	}
	return rec, env
}

func registerAndLogin(t *testing.T, h http.Handler) string {
	t.Helper()
	rec, env := doRequest(t, h, http.MethodPost, "/auth/register", "", map[string]interface{}{
		"email":     "student@example.com",
		"password":  "password123",
		"full_name": "Student",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var registered struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &registered))
	require.NotEmpty(t, registered.AccessToken)

	rec, env = doRequest(t, h, http.MethodPost, "/auth/login", "", map[string]interface{}{
		"email":    "student@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var logged struct {
		AccessToken string `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &logged))
	require.NotEmpty(t, logged.AccessToken)
	return logged.AccessToken
}
