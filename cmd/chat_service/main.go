package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	_ "legal_consult_service/docs" // 引入生成的 Swagger 文档
	api_router "legal_consult_service/internal/api/router"
	"legal_consult_service/internal/chat/app"
	"legal_consult_service/internal/chat/repository"
	"legal_consult_service/internal/chat/router"
	"legal_consult_service/pkg/config"
	"legal_consult_service/pkg/database"
	"legal_consult_service/pkg/logger"
	testtool "legal_consult_service/pkg/test_tool"

	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.ChatService, config.EnvConfig.ChatServiceLogPath)
	cfg := config.LoadConfig[config.Chat](config.EnvConfig.ChatService, config.EnvConfig.ChatServiceYAMLPath)
	testtool.StartPprof("localhost:6061")

	// 1. 建立 Mongo 連線 (存對話與訊息)
	ctx := context.Background()
	uri := database.MongoURI(cfg.MongoSQL.User, cfg.MongoSQL.Password, cfg.MongoSQL.Host, cfg.MongoSQL.Port)
	mongo, err := database.NewMongoDB(ctx,
		database.Connection{
			ConnectStr:    uri,
			RetryCount:    cfg.MongoSQL.RetryCount,
			RetryInterval: time.Duration(cfg.MongoSQL.RetryInterval),
		},
		cfg.MongoSQL.Database)
	if err != nil {
		logger.Log.Fatal(
			"Unable to connect to mongoDB database after retries",
			zap.String("address", fmt.Sprintf("[%s:%d]", cfg.MongoSQL.Host, cfg.MongoSQL.Port)),
			zap.Error(err),
		)
	}
	defer mongo.Close(ctx)

	// 2. 建立 Redis 連線 (Pub/Sub 與 idempotency key)
	masterName, sentinel, addr := config.GetRedisSetting()
	redisClient, err := database.NewRedisClient(masterName, sentinel, addr, cfg.Redis.RedisDB)
	if err != nil {
		logger.Log.Fatal(fmt.Sprintf("connect redis err : %v", err))
	}
	defer redisClient.Close()

	// 3. 附件存放在 MinIO
	minioClient, err := database.NewMinIOConnection(database.MinIOConnection{
		Endpoint:   fmt.Sprintf("%s:%d", cfg.MinIO.Host, cfg.MinIO.Port),
		User:       cfg.MinIO.User,
		Password:   cfg.MinIO.Password,
		BucketName: cfg.MinIO.BucketName,
		UseSSL:     cfg.MinIO.UseSSL,

		RetryCount:    cfg.MinIO.RetryCount,
		RetryInterval: time.Duration(cfg.MinIO.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal("Unable to connect to minio after retries", zap.Error(err))
	}

	// 4. 初始化 Repository
	convRepo := repository.NewMongoConversationRepository(mongo.Database)
	msgRepo := repository.NewMongoMessageRepository(mongo.Database)
	if err := convRepo.EnsureIndexes(ctx); err != nil {
		logger.Log.Fatal("create conversation indexes", zap.Error(err))
	}
	if err := msgRepo.EnsureIndexes(ctx); err != nil {
		logger.Log.Fatal("create message indexes", zap.Error(err))
	}
	pub := repository.NewRedisPubSub(redisClient)
	idem := repository.NewIdempotencyRepository(database.NewRedisRepository[string](redisClient))

	// 5. 初始化 UseCases
	messageUC := app.NewMessageUseCase(convRepo, msgRepo, pub, idem, minioClient, app.Options{
		IdempotencyTTL: cfg.IdempotencyTTL,
		AttachmentTTL:  cfg.AttachmentTTL,
	})

	// 6. 啟動 Fiber
	r := fiber.New()
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.ChatServiceLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	r.Use(fiber_log.New(fiber_log.Config{
		Output: file, // 将日志输出到文件
	}))

	// 注册路由
	api_router.RegisterSharedRoutes(r, config.EnvConfig.ChatService)
	router.RegisterRoutes(r,
		app.NewChatWebsocketHandler(messageUC, cfg.SendRate, cfg.SendBurst),
		app.NewChatHandler(messageUC),
	)

	// Listen
	port := ":" + cfg.Port
	logger.Log.Info(fmt.Sprintf("Chat Service listening on %s", port))
	if err := r.Listen(port); err != nil {
		log.Fatalf("Failed to start Fiber: %v", err)
	}
}
