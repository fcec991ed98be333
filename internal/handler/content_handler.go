package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/cindyai/internal/model"
	"github.com/xxxsen/cindyai/internal/pkg/errcode"
	appErr "github.com/xxxsen/cindyai/internal/pkg/errors"
	"github.com/xxxsen/cindyai/internal/pkg/response"
	"github.com/xxxsen/cindyai/internal/service"
)

type ContentHandler struct {
	contents *service.ContentService
}

func NewContentHandler(contents *service.ContentService) *ContentHandler {
	return &ContentHandler{contents: contents}
}

type youtubeIngestRequest struct {
	VideoURL string `json:"video_url"`
}

func (h *ContentHandler) IngestYouTube(c *gin.Context) {
	var req youtubeIngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
		return
	}
	if req.VideoURL == "" {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "video_url required")
		return
	}
	content, err := h.contents.IngestYouTube(c.Request.Context(), req.VideoURL)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, content)
}

// IngestPDF is a declared surface without an implementation behind it yet.
func (h *ContentHandler) IngestPDF(c *gin.Context) {
	handleError(c, appErr.ErrNotImplemented)
}

func (h *ContentHandler) List(c *gin.Context) {
	skip := uint(0)
	if value := c.Query("skip"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			skip = uint(parsed)
		}
	}
	limit := uint(100)
	if value := c.Query("limit"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			limit = uint(parsed)
		}
	}
	contents, err := h.contents.List(c.Request.Context(), skip, limit, c.Query("content_type"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, contents)
}

func (h *ContentHandler) Get(c *gin.Context) {
	content, err := h.contents.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, content)
}

type contentUpdateRequest struct {
	Title       *string                `json:"title"`
	ContentType *string                `json:"content_type"`
	SourceURL   *string                `json:"source_url"`
	ContentText *string                `json:"content_text"`
	Metadata    *model.ContentMetadata `json:"content_metadata"`
}

func (h *ContentHandler) Update(c *gin.Context) {
	var req contentUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
		return
	}
	content, err := h.contents.Update(c.Request.Context(), c.Param("id"), service.ContentUpdateInput{
		Title:       req.Title,
		ContentType: req.ContentType,
		SourceURL:   req.SourceURL,
		ContentText: req.ContentText,
		Metadata:    req.Metadata,
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, content)
}

func (h *ContentHandler) Delete(c *gin.Context) {
	if err := h.contents.Delete(c.Request.Context(), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"ok": true})
}

// Raw streams the archived transcript as plain text.
func (h *ContentHandler) Raw(c *gin.Context) {
	rc, err := h.contents.OpenRaw(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	defer rc.Close()
	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, rc)
}
