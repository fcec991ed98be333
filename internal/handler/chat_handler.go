package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/cindyai/internal/pkg/errcode"
	"github.com/xxxsen/cindyai/internal/pkg/response"
	"github.com/xxxsen/cindyai/internal/service"
)

type ChatHandler struct {
	chats *service.ChatService
}

func NewChatHandler(chats *service.ChatService) *ChatHandler {
	return &ChatHandler{chats: chats}
}

type chatCreateRequest struct {
	Title string `json:"title"`
}

func (h *ChatHandler) Create(c *gin.Context) {
	var req chatCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
		return
	}
	chat, err := h.chats.CreateChat(c.Request.Context(), req.Title)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, chat)
}

func (h *ChatHandler) Get(c *gin.Context) {
	chat, messages, err := h.chats.GetChat(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"chat": chat, "messages": messages})
}

type chatMessageRequest struct {
	Message string `json:"message"`
	VideoID string `json:"video_id"`
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req chatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
		return
	}
	result, err := h.chats.ProcessMessage(c.Request.Context(), c.Param("id"), req.Message, req.VideoID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"message": result.Message,
		"context": result.Context,
		"sources": result.Sources,
	})
}
