package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"refqa-chat/internal/config"
	"refqa-chat/internal/db"
	"refqa-chat/internal/handlers"
	"refqa-chat/internal/logger"
	"refqa-chat/internal/middleware"
	"refqa-chat/internal/observability"
	"refqa-chat/internal/rabbitmq"
	"refqa-chat/internal/repositories"
	"refqa-chat/internal/telemetry"
	"refqa-chat/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger.Init(cfg.Env)

	ctx := context.Background()
	shutdownTracing, err := telemetry.InitTracing(ctx, cfg.OTLPAddr, "refqa-chat", cfg.Env)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init tracing")
	}
	defer func() {
		if err := shutdownTracing(ctx); err != nil {
			log.Warn().Err(err).Msg("tracer shutdown")
		}
	}()

	database, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to db")
	}

	publisher := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.Exchange)
	defer publisher.Close()
	log.Info().Str("mode", rabbitmq.PublisherMode(publisher)).Msg("event publisher ready")

	audit := telemetry.NewAuditEmitter(publisher, "audit.chat", "refqa-chat", cfg.Env)

	messageRepo := repositories.NewMessageRepo(database)
	userRepo := repositories.NewUserRepo(database)

	hub := ws.NewHub()
	wsHandler := ws.NewHandler(hub, messageRepo, cfg.JWTSecret, audit)
	chatHandler := handlers.NewChatHandler(messageRepo, cfg.PageSize, audit)
	adminHandler := handlers.NewAdminHandler(userRepo, audit)

	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("refqa-chat"))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware(cfg.JWTSecret)
	adminOnly := middleware.AdminOnly()

	router.GET("/chat/admin/all-messages", authMiddleware, adminOnly, chatHandler.ListAllMessages)
	router.GET("/chat/:room_key", authMiddleware, chatHandler.GetRoomHistory)
	router.DELETE("/chat/message/:message_id", authMiddleware, adminOnly, chatHandler.DeleteMessage)

	router.GET("/admin/users", authMiddleware, adminOnly, adminHandler.ListUsers)
	router.DELETE("/admin/users/:user_id", authMiddleware, adminOnly, adminHandler.DeleteUser)
	router.GET("/admin/stats", authMiddleware, adminOnly, adminHandler.GetStats)

	router.GET("/ws", wsHandler.Handle)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	log.Info().Str("port", cfg.Port).Msg("refqa chat service listening")
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}
