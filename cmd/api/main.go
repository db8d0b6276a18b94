package main

import (
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/nimasrn/donation-gateway/internal/config"
	gateway "github.com/nimasrn/donation-gateway/internal/gateways"
	"github.com/nimasrn/donation-gateway/internal/handlers"
	"github.com/nimasrn/donation-gateway/internal/queue"
	"github.com/nimasrn/donation-gateway/internal/repository"
	"github.com/nimasrn/donation-gateway/internal/services"
	"github.com/nimasrn/donation-gateway/internal/uploads"
	xhttp "github.com/nimasrn/donation-gateway/pkg/http"
	"github.com/nimasrn/donation-gateway/pkg/logger"
	"github.com/nimasrn/donation-gateway/pkg/pg"
	"github.com/nimasrn/donation-gateway/pkg/redis"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {

	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}

	// transport (tcp for now)
	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.Server.ReadBufferSize = 1024 * 16
	s.Server.WriteBufferSize = 1024 * 16
	s.Use(xhttp.CompressMiddleware(6))
	s.Use(xhttp.TimeoutMiddleware(time.Second * 5))
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(xhttp.RecoverMiddleware)
	s.Router = xhttp.CreateDefaultRouter()

	readConf := pg.Config{
		User:     config.Get().PostgresReadUser,
		Host:     config.Get().PostgresReadHost,
		Port:     config.Get().PostgresReadPort,
		Password: config.Get().PostgresReadPassword,
		Database: config.Get().PostgresReadDatabase,
	}
	writeConf := pg.Config{
		User:     config.Get().PostgresWriteUser,
		Host:     config.Get().PostgresWriteHost,
		Port:     config.Get().PostgresWritePort,
		Password: config.Get().PostgresWritePassword,
		Database: config.Get().PostgresWriteDatabase,
	}

	pgDebug := false
	if config.Get().AppEnv == "dev" {
		pgDebug = true
	}
	db, err := pg.CreateReadWrite(readConf, writeConf, pgDebug)
	if err != nil {
		logger.Error("failed connecting to pg", "error", err)
		return
	}

	redisAdap, err := redis.NewRedisAdapter("default", config.Get().RedisUniversalKeyPrefix, &redis.Options{
		Addrs:      []string{config.Get().RedisAddr},
		ClientName: "default",
		DB:         config.Get().RedisDatabase,
		Username:   config.Get().RedisUsername,
		Password:   config.Get().RedisPassword,
	})
	if err != nil {
		logger.Error("failed connecting to redis", "error", err)
		return
	}

	alertQueue, err := queue.NewQueue(redisAdap, queue.QueueConfig{
		Name:              config.Get().QueueName,
		ConsumerGroup:     config.Get().QueueConsumerGroup,
		ConsumerName:      config.Get().QueueConsumerName,
		MaxRetries:        config.Get().QueueMaxRetries,
		VisibilityTimeout: config.Get().QueueVisibilityTimeout,
		PollInterval:      config.Get().QueuePollInterval,
		BatchSize:         config.Get().QueueBatchSize,
		MaxLen:            config.Get().QueueMaxLen,
		EnableDLQ:         config.Get().QueueEnableDLQ,
	})
	if err != nil {
		logger.Error("failed creating queue", "error", err)
	}

	midtrans, err := gateway.NewClient(&gateway.Config{
		BaseURL:   config.Get().MidtransBaseUrl,
		ServerKey: config.Get().MidtransServerKey,
		Timeout:   config.Get().MidtransRequestTimeout,
	})
	if err != nil {
		logger.Error("failed creating midtrans client", "error", err)
		return
	}

	proofStore, err := uploads.NewCloudinaryStore(
		config.Get().CloudinaryCloudName,
		config.Get().CloudinaryAPIKey,
		config.Get().CloudinaryAPISecret,
		config.Get().CloudinaryFolder,
	)
	if err != nil {
		logger.Error("failed creating proof store", "error", err)
		return
	}

	donationRepo := repository.NewDonationRepository(db)
	streamingRepo := repository.NewStreamingRepository(db)
	userRepo := repository.NewUserRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	// services
	donationService := services.NewDonationService(donationRepo, streamingRepo, midtrans, proofStore, alertQueue)
	webhookService := services.NewWebhookService(donationRepo, streamingRepo, midtrans, alertQueue)
	streamingService := services.NewStreamingService(streamingRepo, commentRepo)
	authService := services.NewAuthService(userRepo, config.Get().JWTSecret, config.Get().JWTAccessExpiry)
	healthService := services.NewHealthService()

	// v1 handlers
	donationHandler := handlers.NewDonationHandler(donationService)
	webhookHandler := handlers.NewWebhookHandler(webhookService)
	streamingHandler := handlers.NewStreamingHandler(streamingService)
	authHandler := handlers.NewAuthHandler(authService)
	healthHandler := handlers.NewHealthHandler(healthService)

	g := s.Router.Group("/api/v1")
	handlers.RegisterAuthRoutes(g, authHandler)
	handlers.RegisterStreamingRoutes(g, streamingHandler, authService)
	handlers.RegisterDonationRoutes(g, donationHandler, authService)
	handlers.RegisterWebhookRoutes(g, webhookHandler)
	handlers.RegisterHealthRoutes(g, healthHandler)

	// Create new server
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Kill)

	go func() {
		var err = s.ListenAndServe(config.Get().HttpListenAddr)
		if err != nil {
			logger.Error("error in running http-server", "error", err)
		}
	}()

	select {
	case <-c:
		s.Shutdown()
	}
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.Contains(v, "--env=") {
			s := strings.Split(v, "=")
			if _, err := os.Open(s[1]); err != nil {
				logger.Error("failed to open the passed env file, got error" + err.Error())
				return ""
			}
			return s[1]
		}
	}
	return ""
}
