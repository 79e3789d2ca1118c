package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"time"

	_ "legal_consult_service/docs" // 引入生成的 Swagger 文档
	api_router "legal_consult_service/internal/api/router"
	"legal_consult_service/internal/calendar/app"
	"legal_consult_service/internal/calendar/domain"
	"legal_consult_service/internal/calendar/repository"
	"legal_consult_service/internal/calendar/router"
	"legal_consult_service/pkg/config"
	"legal_consult_service/pkg/database"
	"legal_consult_service/pkg/logger"
	"legal_consult_service/pkg/mailer"
	testtool "legal_consult_service/pkg/test_tool"

	"github.com/gofiber/fiber/v2"
	fiber_log "github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	logger.Log = logger.Initialize(config.EnvConfig.CalendarService, config.EnvConfig.CalendarServiceLogPath)
	cfg := config.LoadConfig[config.Calendar](config.EnvConfig.CalendarService, config.EnvConfig.CalendarServiceYAMLPath)
	testtool.StartPprof("localhost:6062")

	location := time.UTC
	if cfg.Timezone != "" {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			logger.Log.Fatal("invalid timezone", zap.String("timezone", cfg.Timezone), zap.Error(err))
		}
		location = loc
	}

	// 1. 連線 PostgreSQL
	dsn := database.PostgresDSN(cfg.Postgres.Host, cfg.Postgres.Port, cfg.Postgres.User, cfg.Postgres.Password, cfg.Postgres.Database)
	db, err := database.NewPGConnection(database.Connection{
		ConnectStr: dsn,

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

	// 自動遷移預約資料表
	appointmentRepo := repository.NewAppointmentRepository(db)
	if err := appointmentRepo.AutoMigrate(); err != nil {
		log.Fatalf("資料表遷移失敗: %v", err)
	}

	// 2. 連線 RabbitMQ，發布與消費各用一個 channel
	rabbitURL := fmt.Sprintf("amqp://%s:%s@%s:%d/", cfg.RabbitMQ.User, cfg.RabbitMQ.Password, cfg.RabbitMQ.Host, cfg.RabbitMQ.Port)
	conn, err := database.ConnectRabbitMQWithRetry(database.Connection{
		ConnectStr:    rabbitURL,
		RetryCount:    cfg.RabbitMQ.RetryCount,
		RetryInterval: time.Duration(cfg.RabbitMQ.RetryInterval),
	})
	if err != nil {
		log.Fatalf("RabbitMQ 連線失敗: %v", err)
	}
	defer conn.Close()

	publishChannel, err := database.GetRabbitMQChannelWithRetry(conn, cfg.RabbitMQ.RetryCount, time.Duration(cfg.RabbitMQ.RetryInterval))
	if err != nil {
		log.Fatalf("取得 RabbitMQ Channel 失敗: %v", err)
	}
	defer publishChannel.Close()

	consumeChannel, err := database.GetRabbitMQChannelWithRetry(conn, cfg.RabbitMQ.RetryCount, time.Duration(cfg.RabbitMQ.RetryInterval))
	if err != nil {
		log.Fatalf("取得 RabbitMQ Channel 失敗: %v", err)
	}
	defer consumeChannel.Close()

	if err := database.DeclareDurableQueue(publishChannel, domain.NotificationQueue); err != nil {
		log.Fatalf("Queue Declare failed: %v", err)
	}

	// 3. 通知 consumer
	consumer := app.NewNotificationConsumer(
		database.NewRabbitRepository(consumeChannel),
		mailer.NewMailer(cfg.Mail),
		domain.NotificationQueue,
		location,
	)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := consumer.StartConsumer(ctx); err != nil {
			logger.Log.Errorf("notification consumer stopped:", err)
		}
	}()

	// 4. gRPC health check
	healthServer := health.NewServer()
	healthServer.SetServingStatus(config.EnvConfig.CalendarService, healthpb.HealthCheckResponse_SERVING)
	if cfg.GRPCPort != "" {
		lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
		if err != nil {
			logger.Log.Fatal(fmt.Sprintf("Failed to listen Port(%s): ", cfg.GRPCPort), zap.Error(err))
		}
		grpcServer := grpc.NewServer()
		healthpb.RegisterHealthServer(grpcServer, healthServer)
		go func() {
			logger.Log.Info(fmt.Sprintf("Calendar gRPC health listening on : %s", cfg.GRPCPort))
			if err := grpcServer.Serve(lis); err != nil {
				logger.Log.Errorf("gRPC server stopped:", err)
			}
		}()
		defer grpcServer.GracefulStop()
	}

	// 5. 啟動 Fiber
	usecase := app.NewCalendarUseCase(appointmentRepo, database.NewRabbitRepository(publishChannel), location)

	r := fiber.New()
	file, err := os.OpenFile(fmt.Sprintf("%s/access.log", config.EnvConfig.CalendarServiceLogPath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0666)
	if err != nil {
		log.Fatalf("Failed to open log file: %v", err)
	}
	defer file.Close()

	r.Use(fiber_log.New(fiber_log.Config{
		Output: file, // 将日志输出到文件
	}))

	api_router.RegisterSharedRoutes(r, config.EnvConfig.CalendarService)
	router.RegisterRoutes(r, app.NewCalendarHandler(usecase))

	port := ":" + cfg.Port
	logger.Log.Info(fmt.Sprintf("Calendar Service listening on %s", port))
	if err := r.Listen(port); err != nil {
		healthServer.Shutdown()
		logger.Log.Fatal("Server failed to start", zap.Error(err))
	}
}
