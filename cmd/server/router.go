package server

import (
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	"github.com/delwarHosen/pop-chat-server/internal/handlers"
	"github.com/delwarHosen/pop-chat-server/internal/middleware"
	jwtauth "github.com/delwarHosen/pop-chat-server/pkg/auth"
)

func APIEndpoints(r *gin.Engine, authH *handlers.AuthHandler, wsH *handlers.WebSocketHandler, jwtMgr *jwtauth.JWTManager, rdb *redis.Client) {
	// Auth endpoints
	auth := r.Group("/auth")
	{
		auth.POST("/register", authH.Register)
		auth.POST("/login", authH.Login)
		auth.POST("/logout", middleware.AuthMiddleware(jwtMgr, rdb), authH.Logout)
	}

	// Everything else happens over the socket
	r.GET("/ws", middleware.WSAuthMiddleware(jwtMgr, rdb), wsH.HandleWebSocket)
}
