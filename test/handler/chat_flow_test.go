package handler_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xxxsen/cindyai/internal/model"
)

func testVideos() map[string]fakeVideo {
	return map[string]fakeVideo{
		"https://youtube.com/watch?v=vid1": {
			id:         "vid1",
			title:      "Concurrency in Go",
			uploader:   "Prodemy",
			transcript: "goroutines are lightweight threads managed by the go runtime and channels let them communicate safely",
		},
		"https://youtu.be/vid1": {
			id:         "vid1",
			title:      "Concurrency in Go",
			uploader:   "Prodemy",
			transcript: "goroutines are lightweight threads managed by the go runtime and channels let them communicate safely",
		},
	}
}

func TestIngestAndChatFlow(t *testing.T) {
	h, cleanup := setupRouter(t, testVideos())
	defer cleanup()
	token := registerAndLogin(t, h)

	// ingest
	rec, env := doRequest(t, h, http.MethodPost, "/content/youtube", token, map[string]interface{}{
		"video_url": "https://youtube.com/watch?v=vid1",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var content model.Content
	require.NoError(t, json.Unmarshal(env.Data, &content))
	require.Equal(t, "Concurrency in Go", content.Title)
	require.Equal(t, "vid1", content.Metadata.VideoID)

	// same url again returns the existing record
	rec, env = doRequest(t, h, http.MethodPost, "/content/youtube", token, map[string]interface{}{
		"video_url": "https://youtube.com/watch?v=vid1",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var again model.Content
	require.NoError(t, json.Unmarshal(env.Data, &again))
	require.Equal(t, content.ID, again.ID)

	// a different url for the same video dedupes on the resolved id
	rec, env = doRequest(t, h, http.MethodPost, "/content/youtube", token, map[string]interface{}{
		"video_url": "https://youtu.be/vid1",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &again))
	require.Equal(t, content.ID, again.ID)

	// create chat and send a message grounded on the video
	rec, env = doRequest(t, h, http.MethodPost, "/chat", token, map[string]interface{}{
		"title": "study session",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var chat model.Chat
	require.NoError(t, json.Unmarshal(env.Data, &chat))

	rec, env = doRequest(t, h, http.MethodPost, "/chat/"+chat.ID+"/message", token, map[string]interface{}{
		"message":  "what are goroutines?",
		"video_id": "vid1",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var turn struct {
		Message model.ChatMessage   `json:"message"`
		Context string              `json:"context"`
		Sources []model.ChunkSource `json:"sources"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &turn))
	require.Equal(t, model.RoleAssistant, turn.Message.Role)
	require.Contains(t, turn.Message.Content, "fake answer")
	require.Contains(t, turn.Context, "Source 1:")
	require.NotEmpty(t, turn.Sources)
	require.Equal(t, content.ID, turn.Sources[0].ContentID)

	// both sides of the exchange were persisted in order
	rec, env = doRequest(t, h, http.MethodGet, "/chat/"+chat.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history struct {
		Chat     model.Chat          `json:"chat"`
		Messages []model.ChatMessage `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Len(t, history.Messages, 2)
	require.Equal(t, model.RoleUser, history.Messages[0].Role)
	require.Equal(t, "what are goroutines?", history.Messages[0].Content)
	require.Equal(t, model.RoleAssistant, history.Messages[1].Role)
	require.Equal(t, content.ID, history.Messages[1].ContentID)

	// deleting the content keeps the chat readable
	rec, _ = doRequest(t, h, http.MethodDelete, "/content/"+content.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, env = doRequest(t, h, http.MethodGet, "/chat/"+chat.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Len(t, history.Messages, 2)
}

func TestChatWithoutContentFallsBackToNoContext(t *testing.T) {
	h, cleanup := setupRouter(t, testVideos())
	defer cleanup()
	token := registerAndLogin(t, h)

	rec, env := doRequest(t, h, http.MethodPost, "/chat", token, map[string]interface{}{})
	require.Equal(t, http.StatusOK, rec.Code)
	var chat model.Chat
	require.NoError(t, json.Unmarshal(env.Data, &chat))
	require.Equal(t, "New Chat", chat.Title)

	rec, env = doRequest(t, h, http.MethodPost, "/chat/"+chat.ID+"/message", token, map[string]interface{}{
		"message": "hello?",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var turn struct {
		Context string `json:"context"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &turn))
	require.Equal(t, "No relevant context found.", turn.Context)
}

func TestChatErrors(t *testing.T) {
	h, cleanup := setupRouter(t, testVideos())
	defer cleanup()
	token := registerAndLogin(t, h)

	rec, _ := doRequest(t, h, http.MethodGet, "/chat/does-not-exist", token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec, env := doRequest(t, h, http.MethodPost, "/chat", token, map[string]interface{}{})
	require.Equal(t, http.StatusOK, rec.Code)
	var chat model.Chat
	require.NoError(t, json.Unmarshal(env.Data, &chat))

	rec, _ = doRequest(t, h, http.MethodPost, "/chat/"+chat.ID+"/message", token, map[string]interface{}{
		"message": "   ",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
