package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/cindyai/internal/ai"
	"github.com/xxxsen/cindyai/internal/model"
	appErr "github.com/xxxsen/cindyai/internal/pkg/errors"
	"github.com/xxxsen/cindyai/internal/pkg/timeutil"
	"github.com/xxxsen/cindyai/internal/repo"
)

// ChatService runs the retrieval-augmented chat turn: locate the content to
// ground on, pull its nearest chunks, prompt the model, and persist both
// sides of the exchange.
type ChatService struct {
	chats     *repo.ChatRepo
	messages  *repo.MessageRepo
	contents  *repo.ContentRepo
	retrieval *RetrievalService
	manager   *ai.Manager
	topK      int
}

func NewChatService(chats *repo.ChatRepo, messages *repo.MessageRepo, contents *repo.ContentRepo,
	retrieval *RetrievalService, manager *ai.Manager, topK int) *ChatService {
	if topK <= 0 {
		topK = 3
	}
	return &ChatService{
		chats:     chats,
		messages:  messages,
		contents:  contents,
		retrieval: retrieval,
		manager:   manager,
		topK:      topK,
	}
}

func (s *ChatService) CreateChat(ctx context.Context, title string) (*model.Chat, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "New Chat"
	}
	now := timeutil.NowUnix()
	chat := &model.Chat{
		ID:    newID(),
		Title: title,
		Ctime: now,
		Mtime: now,
	}
	if err := s.chats.Create(ctx, chat); err != nil {
		return nil, err
	}
	return chat, nil
}

func (s *ChatService) GetChat(ctx context.Context, chatID string) (*model.Chat, []model.ChatMessage, error) {
	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, nil, err
	}
	messages, err := s.messages.ListByChat(ctx, chatID)
	if err != nil {
		return nil, nil, err
	}
	return chat, messages, nil
}

// TurnResult is one completed chat exchange: the stored assistant message,
// the context block handed to the model, and the chunk provenance.
type TurnResult struct {
	Message *model.ChatMessage
	Context string
	Sources []model.ChunkSource
}

// ProcessMessage handles one user turn. videoRef optionally pins retrieval to
// a specific video; otherwise the most recently ingested content grounds the
// answer. The user message is only persisted once the model replied, so a
// failed turn leaves the chat untouched.
func (s *ChatService) ProcessMessage(ctx context.Context, chatID, userMessage, videoRef string) (*TurnResult, error) {
	userMessage = strings.TrimSpace(userMessage)
	if userMessage == "" {
		return nil, appErr.ErrInvalid
	}
	if max := s.manager.MaxInputChars(); max > 0 && len([]rune(userMessage)) > max {
		return nil, appErr.ErrInvalid
	}
	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	logger := logutil.GetLogger(ctx).With(zap.String("chat_id", chat.ID))

	content, err := s.locateContent(ctx, videoRef)
	if err != nil {
		return nil, err
	}

	var contextBlock string
	var sources []model.ChunkSource
	if content != nil {
		retrieved, err := s.retrieval.Search(ctx, content, userMessage, s.topK)
		if err != nil {
			logger.Warn("chunk retrieval failed, answering without context",
				zap.String("content_id", content.ID), zap.Error(err))
		} else {
			contextBlock = buildContext(content, retrieved)
			sources = buildSources(content, retrieved)
		}
	}
	if contextBlock == "" {
		contextBlock = "No relevant context found."
	}

	system := buildSystemPrompt(content, contextBlock)
	answer, err := s.manager.Answer(ctx, system, userMessage)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", appErr.ErrAIUnavailable, err)
	}

	now := timeutil.NowUnix()
	contentID := ""
	if content != nil {
		contentID = content.ID
	}
	userMsg := &model.ChatMessage{
		ID:      newID(),
		ChatID:  chat.ID,
		Role:    model.RoleUser,
		Content: userMessage,
		Ctime:   now,
		Mtime:   now,
	}
	if err := s.messages.Create(ctx, userMsg); err != nil {
		return nil, err
	}
	assistantMsg := &model.ChatMessage{
		ID:        newID(),
		ChatID:    chat.ID,
		ContentID: contentID,
		Role:      model.RoleAssistant,
		Content:   answer,
		Metadata:  model.MessageMetadata{Sources: sources},
		Ctime:     now,
		Mtime:     now,
	}
	if err := s.messages.Create(ctx, assistantMsg); err != nil {
		return nil, err
	}
	if err := s.chats.Touch(ctx, chat.ID, now); err != nil {
		logger.Warn("touch chat failed", zap.Error(err))
	}
	logger.Info("chat turn done", zap.String("content_id", contentID), zap.Int("sources", len(sources)))
	return &TurnResult{Message: assistantMsg, Context: contextBlock, Sources: sources}, nil
}

// locateContent picks the content to ground the answer on. A missing match is
// not an error; the turn proceeds without context.
func (s *ChatService) locateContent(ctx context.Context, videoRef string) (*model.Content, error) {
	if videoRef != "" {
		content, err := s.contents.FindByVideoRef(ctx, videoRef)
		if err != nil {
			if appErr.IsNotFound(err) {
				return nil, nil
			}
			return nil, err
		}
		return content, nil
	}
	content, err := s.contents.MostRecent(ctx)
	if err != nil {
		if appErr.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if count, err := s.contents.Count(ctx); err == nil && count > 1 {
		logutil.GetLogger(ctx).Warn("no video_id given, grounding on most recent content",
			zap.String("content_id", content.ID), zap.Int("content_count", count))
	}
	return content, nil
}

func buildContext(content *model.Content, chunks []model.RetrievedChunk) string {
	if len(chunks) == 0 {
		return ""
	}
	var sb strings.Builder
	for i, chunk := range chunks {
		fmt.Fprintf(&sb, "Source %d:\n", i+1)
		fmt.Fprintf(&sb, "Title: %s\n", content.Title)
		fmt.Fprintf(&sb, "Content: %s\n\n", chunk.ChunkText)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func buildSources(content *model.Content, chunks []model.RetrievedChunk) []model.ChunkSource {
	sources := make([]model.ChunkSource, 0, len(chunks))
	for _, chunk := range chunks {
		sources = append(sources, model.ChunkSource{
			ContentID:   content.ID,
			Title:       content.Title,
			SourceURL:   content.SourceURL,
			ContentType: content.ContentType,
			VideoID:     content.Metadata.VideoID,
			Uploader:    content.Metadata.Uploader,
			Position:    chunk.Position,
			Distance:    chunk.Distance,
		})
	}
	return sources
}

func buildSystemPrompt(content *model.Content, contextBlock string) string {
	var sb strings.Builder
	sb.WriteString("You are Cindy, an AI learning assistant. Your role is to help students understand their learning materials.\n")
	if content != nil && content.Title != "" {
		uploader := content.Metadata.Uploader
		if uploader == "" {
			uploader = "Unknown"
		}
		fmt.Fprintf(&sb, "You are currently discussing the video: '%s' by %s.\n", content.Title, uploader)
	}
	sb.WriteString("Use the following context to answer the student's question. If the context doesn't contain enough information,\n")
	sb.WriteString("say so and try to provide general guidance based on the topic.\n\n")
	sb.WriteString("Context:\n")
	sb.WriteString(contextBlock)
	return sb.String()
}
