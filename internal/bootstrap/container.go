package bootstrap

import (
	"log"
	"time"

	"bank-advisor-be/internal/config"
	"bank-advisor-be/internal/controller"
	"bank-advisor-be/internal/pkg/logger"
	"bank-advisor-be/internal/pkg/serverutils"
	"bank-advisor-be/internal/repository/history"
	"bank-advisor-be/internal/repository/implementation"
	"bank-advisor-be/internal/repository/memory"
	"bank-advisor-be/internal/repository/unitofwork"
	"bank-advisor-be/internal/service"
	"bank-advisor-be/pkg/advisor"
	"bank-advisor-be/pkg/advisor/eligibility"
	"bank-advisor-be/pkg/advisor/intent"
	"bank-advisor-be/pkg/advisor/stage"
	"bank-advisor-be/pkg/chunker"
	"bank-advisor-be/pkg/completion"
	"bank-advisor-be/pkg/embedding"
	"bank-advisor-be/pkg/llm/factory"
	"bank-advisor-be/pkg/search"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AdvisorController   controller.IAdvisorController
	KnowledgeController controller.IKnowledgeController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	Logger *zap.Logger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Providers
	embeddingProvider := embedding.NewOllamaProvider(
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.EmbeddingModel,
	)
	log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.EmbeddingModel)

	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	gateway := completion.NewGateway(
		llmProvider,
		time.Duration(cfg.Ai.TimeoutSeconds)*time.Second,
		sysLogger,
	)

	// 4. Advisor Core
	chunkRepo := implementation.NewProductChunkRepository(db)
	searcher := search.NewSearcher(embeddingProvider, chunkRepo, sysLogger)

	sessionTTL := time.Duration(cfg.Advisor.SessionTTLMinutes) * time.Minute
	sessionRepo := memory.NewSessionRepository(sessionTTL)

	orchestrator := advisor.NewOrchestrator(
		intent.NewExtractor(gateway, sysLogger),
		eligibility.NewCollector(gateway, sysLogger),
		stage.NewSequencer(gateway, searcher, sysLogger),
		sessionRepo,
		gateway,
		sysLogger,
	)

	historyStore := history.NewStore(cfg.App.RedisURL, sessionTTL, sysLogger)

	// 5. Services
	advisorService := service.NewAdvisorService(
		orchestrator,
		historyStore,
		sessionRepo,
		cfg.Advisor.HistoryLimit,
		sysLogger,
	)
	knowledgeService := service.NewKnowledgeService(
		uowFactory,
		pubSub,
		cfg.Knowledge.ReindexTopic,
		cfg.Ai.EmbeddingModel,
		cfg.Ai.LLMModel,
		sysLogger,
	)
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.Knowledge.ReindexTopic,
		cfg.Knowledge.RootPath,
		chunker.Config{ChunkSize: cfg.Knowledge.ChunkSize, ChunkOverlap: cfg.Knowledge.ChunkOverlap},
		uowFactory,
		embeddingProvider,
		sysLogger,
	)

	// 6. Controllers
	return &Container{
		AdvisorController: controller.NewAdvisorController(advisorService),
		KnowledgeController: controller.NewKnowledgeController(
			knowledgeService,
			serverutils.AdminJwtMiddleware(cfg.Auth.AdminJWTSecret),
		),
		ConsumerService:     consumerService,
		Logger:              sysLogger,
	}
}
