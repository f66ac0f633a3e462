package main

import (
	"context"

	"go.uber.org/zap"

	"userapi/internal/config"
	"userapi/internal/db"
	"userapi/internal/handler"
	"userapi/internal/httpserver"
	"userapi/internal/mq"
	redisclient "userapi/internal/redis"
	"userapi/internal/repository"
	"userapi/internal/service/auth"
	"userapi/internal/service/user"
	"userapi/internal/util"
)

func main() {
	logger := util.NewLogger()
	defer logger.Sync()

	// Load config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config load failed", zap.Error(err))
	}
	if cfg.JWT.Secret == "" {
		logger.Fatal("JWT_SECRET is required")
	}

	// Init DB
	dbConn, err := db.NewConnection(cfg.DB, logger)
	if err != nil {
		logger.Fatal("DB initialization failed", zap.Error(err))
	}
	defer dbConn.Close()

	if err := db.RunMigrations(context.Background(), cfg.DB, logger); err != nil {
		logger.Fatal("DB migration failed", zap.Error(err))
	}

	// Init Redis
	rdb := redisclient.NewRedisClient(cfg.Redis)
	defer rdb.Close()

	// Init RabbitMQ Producer
	producer, err := mq.NewProducer(cfg.MQ.URL)
	if err != nil {
		logger.Fatal("failed to init producer", zap.Error(err))
	}
	defer producer.Close()

	// Init Repositories
	userRepo := repository.NewUserRepository(dbConn)
	denylist := repository.NewTokenDenylist(rdb)

	// Init Services
	tokens := util.NewTokenManager(cfg.JWT.Secret, cfg.JWT.AccessTTL(), cfg.JWT.RefreshTTL())
	authService := auth.NewService(userRepo, tokens, denylist, producer, logger)
	userService := user.NewService(userRepo, producer, logger)

	// Init Handlers
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)

	// Router
	router := httpserver.NewRouter(authHandler, userHandler, authService, dbConn)

	// Start API server
	if err := router.Run(cfg.Server.Port); err != nil {
		logger.Fatal("server start failed", zap.Error(err))
	}
}
