package main

import (
	"fmt"
	"os"
	"time"

	"github.com/jobhackerbot/backend/internal/db"
	"github.com/jobhackerbot/backend/internal/handlers"
	"github.com/jobhackerbot/backend/internal/logger"
	"github.com/jobhackerbot/backend/internal/middleware"
	"github.com/jobhackerbot/backend/internal/repos"
	"github.com/jobhackerbot/backend/internal/server"
	"github.com/jobhackerbot/backend/internal/services"
	"github.com/jobhackerbot/backend/internal/socket"
	"github.com/jobhackerbot/backend/internal/utils"
)

func main() {
	// Logger Setup
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Environment Variables
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)
	redisAddress := utils.GetEnv("REDIS_ADDRESS", "localhost:6379", log)
	redisPassword := utils.GetEnv("REDIS_PASSWORD", "", log)

	// Postgres Setup
	log.Info("Setting up Postgres...")
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("DB init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repositories Setup
	userRepo := repos.NewUserRepo(thePG, log)
	userTokenRepo := repos.NewUserTokenRepo(thePG, log)
	pageRepo := repos.NewPageRepo(thePG, log)
	chatMessageRepo := repos.NewChatMessageRepo(thePG, log)

	// Websocket Hub Setup
	wsHub := socket.NewHub(log)

	// Redis PubSub
	redisChanName := "jobhacker_hub_broadcast"
	redisPubSub, err := socket.NewRedisPubSub(log, redisAddress, redisPassword, redisChanName)
	if err != nil {
		log.Warn("Failed to init redis pubsub; broadcasts stay node-local", "error", err)
	} else {
		if err := redisPubSub.StartSubscriber(wsHub); err != nil {
			log.Warn("Failed to subscribe to Redis pub/sub", "error", err)
		} else {
			wsHub.SetRedisPubSub(redisPubSub)
			log.Info("Redis pubsub is active")
		}
	}

	// Services Setup
	authService := services.NewAuthService(thePG, log, userRepo, userTokenRepo, jwtSecretKey,
		time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
	messageService := services.NewMessageService(thePG, log, chatMessageRepo, pageRepo, userRepo)
	pageService := services.NewPageService(thePG, log, pageRepo, chatMessageRepo)
	assistantService, err := services.NewAssistantService(log)
	if err != nil {
		log.Warn("Could not init AssistantService; chat replies disabled", "error", err)
	}

	// Handler Setup
	authHandler := handlers.NewAuthHandler(authService)
	messageHandler := handlers.NewMessageHandler(messageService)
	pageHandler := handlers.NewPageHandler(pageService)
	chatOrchestrator := handlers.NewChatOrchestrator(log, wsHub, messageService, assistantService)
	wsHandler := handlers.WsHandler(wsHub, chatOrchestrator, log)

	// Middleware Setup
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router Setup
	router := server.NewRouter(server.RouterConfig{
		AuthHandler:    authHandler,
		AuthMiddleware: authMiddleware,
		MessageHandler: messageHandler,
		PageHandler:    pageHandler,
		WsHandler:      wsHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	log.Info("Server listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
	}

	// On Shutdown
	if redisPubSub != nil {
		redisPubSub.Stop()
	}
}
