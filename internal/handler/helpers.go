package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/cindyai/internal/middleware"
	"github.com/xxxsen/cindyai/internal/pkg/errcode"
	appErr "github.com/xxxsen/cindyai/internal/pkg/errors"
	"github.com/xxxsen/cindyai/internal/pkg/response"
)

func getUserID(c *gin.Context) string {
	value, _ := c.Get(middleware.ContextUserIDKey)
	userID, _ := value.(string)
	return userID
}

func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("user_id", getUserID(c)),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, http.StatusUnauthorized, errcode.ErrUnauthorized, "unauthorized")
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, http.StatusNotFound, errcode.ErrNotFound, "not found")
	case errors.Is(err, appErr.ErrExtraction):
		response.Error(c, http.StatusBadRequest, errcode.ErrExtractionFailed, err.Error())
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
	case errors.Is(err, appErr.ErrConflict):
		response.Error(c, http.StatusConflict, errcode.ErrConflict, "conflict")
	case errors.Is(err, appErr.ErrNotImplemented):
		response.Error(c, http.StatusNotImplemented, errcode.ErrNotImplemented, "not implemented")
	case errors.Is(err, appErr.ErrAIUnavailable):
		response.Error(c, http.StatusBadGateway, errcode.ErrAIUnavailable, "ai provider unavailable")
	default:
		response.Error(c, http.StatusInternalServerError, errcode.ErrInternal, "internal error")
	}
}
