package main

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"listing-chat-service/internal/config"
	"listing-chat-service/internal/db"
	"listing-chat-service/internal/handlers"
	"listing-chat-service/internal/listing"
	"listing-chat-service/internal/logger"
	"listing-chat-service/internal/middleware"
	"listing-chat-service/internal/observability"
	"listing-chat-service/internal/realtime"
	"listing-chat-service/internal/repositories"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(cfg)

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to db")
	}
	log.Info().Msg("database ready")

	convRepo := repositories.NewConversationRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	participantRepo := repositories.NewParticipantRepo(database)

	resolver := listing.NewClient(cfg.ListingServiceURL, cfg.ListingServiceTimeout)

	publisher := realtime.NewPublisher(cfg.AMQPURL, cfg.RealtimeExchange, cfg.RealtimePublishTimeout, log)
	defer publisher.Close()
	log.Info().Str("mode", realtime.PublisherMode(publisher)).Msg("realtime publisher ready")

	tokenIssuer := realtime.NewTokenIssuer(cfg.AuthJWTSecret, cfg.ChannelTokenTTL)

	conversationHandler := handlers.NewConversationHandler(convRepo, messageRepo, participantRepo, resolver, publisher, log)
	realtimeAuthHandler := handlers.NewRealtimeAuthHandler(convRepo, tokenIssuer)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(cfg.AuthJWTSecret)

	router.POST("/conversations", authMiddleware, conversationHandler.CreateConversation)
	router.GET("/conversations", authMiddleware, conversationHandler.ListConversations)
	router.GET("/conversations/:conversation_id", authMiddleware, conversationHandler.GetConversation)
	router.POST("/conversations/:conversation_id/messages", authMiddleware, conversationHandler.PostMessage)
	router.POST("/conversations/:conversation_id/read", authMiddleware, conversationHandler.MarkAsRead)
	router.POST("/conversations/:conversation_id/typing", authMiddleware, conversationHandler.Typing)
	router.POST("/realtime/auth", authMiddleware, realtimeAuthHandler.Authorize)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := ":" + strconv.Itoa(cfg.HTTPPort)
	log.Info().Str("addr", addr).Msg("listening")
	if err := router.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
