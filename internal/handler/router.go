package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/creditchek/devbot/internal/middleware"
)

type RouterDeps struct {
	Auth          *AuthHandler
	Chat          *ChatHandler
	JWTSecret     []byte
	ChatRateLimit time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/auth/signup", deps.Auth.Signup)
	api.POST("/auth/login", deps.Auth.Login)

	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))
	authGroup.GET("/auth/user/me", deps.Auth.Me)

	authGroup.POST("/chatbot", middleware.RateLimit(deps.ChatRateLimit), deps.Chat.Post)
	authGroup.GET("/chatbot/history", deps.Chat.History)
}
