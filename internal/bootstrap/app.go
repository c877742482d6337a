package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"docvoice/internal/ai"
	"docvoice/internal/app"
	"docvoice/internal/cache"
	"docvoice/internal/config"
	mysqlClient "docvoice/internal/platform/mysql"
	rabbitmqClient "docvoice/internal/platform/rabbitmq"
	redisClient "docvoice/internal/platform/redis"
	"docvoice/internal/repository"
	"docvoice/internal/worker"
)

// App wires infrastructure and services once at boot; the HTTP router only
// attaches handlers to it.
type App struct {
	Config *config.Config
	MySQL  *gorm.DB
	Redis  *redis.Client
	MQConn *amqp.Connection
	Gemini *ai.GeminiClient

	AuthService     *app.AuthService
	IngestService   *app.IngestService
	ChatService     *app.ChatService
	LeadService     *app.LeadService
	SettingsService *app.SettingsService
	VoiceService    *app.VoiceService

	messagePublisher *rabbitmqClient.Publisher
	embedPublisher   *rabbitmqClient.Publisher
	messageWorker    *worker.MessagePersistWorker
	embedWorker      *worker.EmbedWorker

	StartedAt time.Time
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}
	if err := mysqlClient.Migrate(mysqlDB); err != nil {
		return nil, err
	}

	redisCli, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
	if err != nil {
		return nil, err
	}

	gemini, err := ai.NewGeminiClient(ctx, ai.GeminiConfig{
		APIKey:         cfg.Gemini.APIKey,
		ChatModel:      cfg.Gemini.ChatModel,
		EmbeddingModel: cfg.Gemini.EmbeddingModel,
		EmbeddingDim:   cfg.Gemini.EmbeddingDim,
		SpeechModel:    cfg.Gemini.SpeechModel,
		LiveModel:      cfg.Gemini.LiveModel,
	})
	if err != nil {
		return nil, err
	}

	messagePublisher, err := rabbitmqClient.NewPublisher(mqConn, cfg.RabbitMQ.MessagePersistQueue)
	if err != nil {
		return nil, err
	}
	embedPublisher, err := rabbitmqClient.NewPublisher(mqConn, cfg.RabbitMQ.ChunkEmbedQueue)
	if err != nil {
		return nil, err
	}

	userRepo := repository.NewUserRepository(mysqlDB)
	docRepo := repository.NewDocumentRepository(mysqlDB)
	chunkRepo := repository.NewChunkRepository(mysqlDB)
	messageRepo := repository.NewMessageRepository(mysqlDB)
	leadRepo := repository.NewLeadRepository(mysqlDB)
	settingsRepo := repository.NewSettingsRepository(mysqlDB)

	historyCache := cache.NewHistoryCache(
		redisCli,
		time.Duration(cfg.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(cfg.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)
	settingsCache := cache.NewSettingsCache(redisCli)

	embeddingService := app.NewEmbeddingService(gemini, cfg.Gemini.EmbedRPS, cfg.Gemini.EmbeddingDim)
	answerService := app.NewAnswerService(gemini)
	leadService := app.NewLeadService(leadRepo)
	settingsService := app.NewSettingsService(
		settingsRepo,
		settingsCache,
		cfg.Assistant.Name,
		cfg.Assistant.SystemPolicy,
		cfg.Assistant.VoiceName,
	)
	ingestService := app.NewIngestService(docRepo, chunkRepo, embeddingService, embedPublisher, cfg.Retrieval.ChunkSize)
	chatService := app.NewChatService(
		embeddingService,
		answerService,
		leadService,
		chunkRepo,
		messageRepo,
		historyCache,
		messagePublisher,
		settingsService,
		app.RetrievalParams{
			TopK:       cfg.Retrieval.TopK,
			ReportTopK: cfg.Retrieval.ReportTopK,
			ToolTopK:   cfg.Retrieval.ToolTopK,
		},
	)
	authService := app.NewAuthService(
		userRepo,
		cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.JWTExpireMinute)*time.Minute,
	)
	voiceService := app.NewVoiceService(gemini, gemini)

	if err := authService.EnsureAdmin(cfg.Auth.AdminUsername, cfg.Auth.AdminPassword); err != nil {
		return nil, fmt.Errorf("seed admin failed: %w", err)
	}

	messageWorker := worker.NewMessagePersistWorker(mqConn, messageRepo, cfg.RabbitMQ.MessagePersistQueue)
	if err := messageWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start message worker failed: %w", err)
	}
	embedWorker := worker.NewEmbedWorker(mqConn, ingestService, cfg.RabbitMQ.ChunkEmbedQueue)
	if err := embedWorker.Start(ctx); err != nil {
		return nil, fmt.Errorf("start embed worker failed: %w", err)
	}

	return &App{
		Config:           cfg,
		MySQL:            mysqlDB,
		Redis:            redisCli,
		MQConn:           mqConn,
		Gemini:           gemini,
		AuthService:      authService,
		IngestService:    ingestService,
		ChatService:      chatService,
		LeadService:      leadService,
		SettingsService:  settingsService,
		VoiceService:     voiceService,
		messagePublisher: messagePublisher,
		embedPublisher:   embedPublisher,
		messageWorker:    messageWorker,
		embedWorker:      embedWorker,
		StartedAt:        time.Now(),
	}, nil
}

func (a *App) Close() error {
	var closeErr error

	if a.messageWorker != nil {
		a.messageWorker.Close()
	}
	if a.embedWorker != nil {
		a.embedWorker.Close()
	}
	if a.messagePublisher != nil {
		if err := a.messagePublisher.Close(); err != nil {
			closeErr = err
		}
	}
	if a.embedPublisher != nil {
		if err := a.embedPublisher.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		if sqlDB, err := a.MySQL.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
