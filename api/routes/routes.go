package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/microlearn/whatsapp-bot-backend/internal/config"
	"github.com/microlearn/whatsapp-bot-backend/internal/handlers"
	"github.com/microlearn/whatsapp-bot-backend/internal/middleware"
)

// SetupRouter configures all API routes.
func SetupRouter(
	cfg *config.Config,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	contentHandler *handlers.ContentHandler,
	botHandler *handlers.BotHandler,
) *gin.Engine {
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	if len(cfg.Server.AllowedOrigins) == 1 && cfg.Server.AllowedOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.Server.AllowedOrigins
		corsConfig.AllowCredentials = true
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))
	router.Use(middleware.RequestIDMiddleware())

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	router.POST("/api/auth/login", authHandler.Login)

	// Provider-facing webhook, authenticated by the verify token handshake
	// rather than JWT.
	router.POST("/api/bot/webhook", botHandler.Webhook)
	router.GET("/api/bot/webhook", botHandler.VerifyWebhook)

	api := router.Group("/api")
	api.Use(middleware.JWTAuthMiddleware(cfg))
	{
		users := api.Group("/users")
		{
			users.GET("", userHandler.GetUsers)
			users.GET("/stats", userHandler.GetUserStats)
			users.GET("/:phoneNumber", userHandler.GetUser)
			users.PUT("/:phoneNumber", userHandler.UpdateUser)
			users.DELETE("/:phoneNumber", userHandler.DeleteUser)
		}

		content := api.Group("/content")
		{
			content.GET("", contentHandler.GetContent)
			content.POST("", contentHandler.CreateContent)
			content.PUT("/:id", contentHandler.UpdateContent)
			content.DELETE("/:id", contentHandler.DeleteContent)
			content.GET("/topics/all", contentHandler.GetTopics)
			content.POST("/topics", contentHandler.CreateTopic)
		}

		bot := api.Group("/bot")
		{
			bot.POST("/send-message", botHandler.SendMessage)
			bot.POST("/broadcast", botHandler.Broadcast)
			bot.GET("/stats", botHandler.Stats)
		}
	}

	return router
}
