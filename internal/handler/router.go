package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/cindyai/internal/middleware"
)

type RouterDeps struct {
	Auth          *AuthHandler
	Contents      *ContentHandler
	Chats         *ChatHandler
	JWTSecret     []byte
	AuthRateLimit time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	authLimited := api.Group("")
	if deps.AuthRateLimit > 0 {
		authLimited.Use(middleware.RateLimit(deps.AuthRateLimit))
	}
	authLimited.POST("/auth/register", deps.Auth.Register)
	authLimited.POST("/auth/login", deps.Auth.Login)

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))
	authGroup.GET("/auth/me", deps.Auth.Me)

	authGroup.POST("/content/youtube", deps.Contents.IngestYouTube)
	authGroup.POST("/content/pdf", deps.Contents.IngestPDF)
	authGroup.GET("/content", deps.Contents.List)
	authGroup.GET("/content/:id", deps.Contents.Get)
	authGroup.PUT("/content/:id", deps.Contents.Update)
	authGroup.DELETE("/content/:id", deps.Contents.Delete)
	authGroup.GET("/content/:id/raw", deps.Contents.Raw)

	authGroup.POST("/chat", deps.Chats.Create)
	authGroup.GET("/chat/:id", deps.Chats.Get)
	authGroup.POST("/chat/:id/message", deps.Chats.SendMessage)
}
