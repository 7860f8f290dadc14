package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/jobhackerbot/backend/internal/handlers"
	"github.com/jobhackerbot/backend/internal/middleware"
)

type RouterConfig struct {
	AuthHandler    *handlers.AuthHandler
	AuthMiddleware *middleware.AuthMiddleware
	MessageHandler *handlers.MessageHandler
	PageHandler    *handlers.PageHandler
	WsHandler      gin.HandlerFunc
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	//-----------------------------------------
	// Cors Setup
	//-----------------------------------------
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:3000",
			"https://jobhackerbot.com",
			"https://www.jobhackerbot.com",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	//-----------------------------------------
	// Health Routes
	//-----------------------------------------
	router.GET("/healthz", handlers.Healthz)

	//-----------------------------------------
	// Public Routes
	//-----------------------------------------
	api := router.Group("/api")
	{
		api.POST("/register", cfg.AuthHandler.Register)
		api.POST("/login", cfg.AuthHandler.Login)
	}

	//------------------------------------------
	// Protected Routes
	//------------------------------------------
	protected := api.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	protected.POST("/refresh", cfg.AuthHandler.Refresh)
	protected.POST("/logout", cfg.AuthHandler.Logout)
	protected.GET("/ws", cfg.WsHandler)

	//Messages
	protected.GET("/messages", cfg.MessageHandler.GetMessages)
	protected.PUT("/messages/:id", cfg.MessageHandler.UpdateMessage)
	protected.DELETE("/messages/:id", cfg.MessageHandler.DeleteMessage)
	protected.GET("/messages/debug/orphaned", cfg.MessageHandler.GetOrphaned)
	protected.GET("/messages/debug/by-page", cfg.MessageHandler.GetByPage)
	protected.GET("/messages/debug/deleted", cfg.MessageHandler.GetDeleted)

	//Clear history: two aliases with identical effect, kept for older
	//clients that still call the /chat prefix.
	protected.DELETE("/clear-history", cfg.MessageHandler.ClearHistory)
	protected.DELETE("/chat/clear-history", cfg.MessageHandler.ClearHistory)

	//Pages
	protected.POST("/pages", cfg.PageHandler.CreatePage)
	protected.GET("/pages", cfg.PageHandler.GetPages)
	protected.POST("/pages/:id/open", cfg.PageHandler.OpenPage)
	protected.PUT("/pages/:id", cfg.PageHandler.RenamePage)
	protected.DELETE("/pages/:id", cfg.PageHandler.DeletePage)

	return router
}
