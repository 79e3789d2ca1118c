package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	_ "legal_consult_service/docs" // 引入生成的 Swagger 文档
	api_router "legal_consult_service/internal/api/router"
	"legal_consult_service/internal/document/app"
	"legal_consult_service/internal/document/domain"
	"legal_consult_service/internal/document/repository"
	"legal_consult_service/internal/document/router"
	"legal_consult_service/pkg/config"
	"legal_consult_service/pkg/database"
	"legal_consult_service/pkg/logger"
	testtool "legal_consult_service/pkg/test_tool"

	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.DocumentService, config.EnvConfig.DocumentServiceLogPath)
	cfg := config.LoadConfig[config.Document](config.EnvConfig.DocumentService, config.EnvConfig.DocumentServiceYAMLPath)
	testtool.StartPprof("localhost:6063")

	// 1. 連線 PostgreSQL (pgx pool)
	ctx := context.Background()
	pool, err := database.NewDatabaseConnection(database.Connection{
		ConnectStr:    database.PostgresDSN(cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Database),
		RetryCount:    cfg.Postgres.RetryCount,
		RetryInterval: time.Duration(cfg.Postgres.RetryInterval),
	})
	if err != nil {
		logger.Log.Fatal(
			"Unable to connect to postgreSQL database after retries",
			zap.String("address", fmt.Sprintf("[%s:%d]", cfg.Postgres.Host, cfg.Postgres.Port)),
			zap.Error(err),
		)
	}
	defer pool.Close()

	docRepo := repository.NewDocumentRepository(pool)
	if err := docRepo.Migrate(ctx); err != nil {
		log.Fatalf("資料表遷移失敗: %v", err)
	}

	// 2. 文件與簽名圖檔存在 MinIO
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

	// 3. 簽署事件送往 Kafka，broker 不通時照常服務只是不送事件
	var events database.KafkaWriter
	kafkaWriter, err := database.NewKafkaWriterWithRetry(database.KafkaConnection{
		Brokers:       cfg.Kafka.Brokers,
		Topic:         cfg.Kafka.Topic,
		RetryCount:    cfg.Kafka.RetryCount,
		RetryInterval: time.Duration(cfg.Kafka.RetryInterval),
	})
	if err != nil {
		logger.Log.Error("Kafka Writer 建立失敗, signed events disabled", zap.Error(err))
	} else {
		events = kafkaWriter
		defer kafkaWriter.Close()
	}

	usecase := app.NewDocumentUseCase(docRepo, minioClient, events, cfg.URLExpiry)

	// 4. 啟動 Fiber，body 上限要容得下 25MB 文件
	bodyLimit := cfg.MaxUploadSize
	if bodyLimit <= 0 {
		bodyLimit = domain.MaxDocumentSize + 1<<20
	}
	r := fiber.New(fiber.Config{BodyLimit: int(bodyLimit)})
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.DocumentServiceLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	r.Use(fiber_log.New(fiber_log.Config{
		Output: file, // 将日志输出到文件
	}))

	api_router.RegisterSharedRoutes(r, config.EnvConfig.DocumentService)
	router.RegisterRoutes(r, app.NewDocumentHandler(usecase))

	port := ":" + cfg.Port
	logger.Log.Info(fmt.Sprintf("Document Service listening on %s", port))
	if err := r.Listen(port); err != nil {
		log.Fatalf("Failed to start Fiber: %v", err)
	}
}
