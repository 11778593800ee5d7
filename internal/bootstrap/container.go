package bootstrap

import (
	"context"
	"fmt"
	"log"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"gorm.io/gorm"

	"ai-query-router-be/internal/config"
	"ai-query-router-be/internal/controller"
	"ai-query-router-be/internal/pkg/logger"
	"ai-query-router-be/internal/repository/contract"
	"ai-query-router-be/internal/repository/implementation"
	"ai-query-router-be/internal/repository/memory"
	redisRepo "ai-query-router-be/internal/repository/redis"
	"ai-query-router-be/internal/service"
	ws "ai-query-router-be/internal/websocket"
	"ai-query-router-be/pkg/ai/classifier"
	"ai-query-router-be/pkg/ai/handler"
	"ai-query-router-be/pkg/ai/registry"
	"ai-query-router-be/pkg/ai/router"
	"ai-query-router-be/pkg/ai/session"
	"ai-query-router-be/pkg/embedding"
	embeddingFactory "ai-query-router-be/pkg/embedding/factory"
	"ai-query-router-be/pkg/events"
	llmFactory "ai-query-router-be/pkg/llm/factory"
	pktNats "ai-query-router-be/pkg/nats"
	"ai-query-router-be/pkg/retention"
)

type Container struct {
	Config   *config.Config
	Settings *config.HandlerSettings
	Logger   logger.ILogger

	Registry  *registry.Registry
	Router    *router.Router
	Decisions contract.DecisionLogRepository
	Janitor   *retention.Janitor
	// Hub must be Run for streamed events to be delivered
	Hub       *ws.Hub

	// Services
	RouteService    service.IRouteService
	ReportService   service.IReportService
	HandlerService  service.IHandlerService
	ConsumerService service.IConsumerService

	// Controllers
	RouteController   controller.IRouteController
	ReportController  controller.IReportController
	HandlerController controller.IHandlerController
	StreamController  controller.IStreamController

	closers []func()
}

// NewContainer wires the whole engine. db may be nil when nothing is backed by postgres.
func NewContainer(ctx context.Context, cfg *config.Config, db *gorm.DB) (*Container, error) {
	// 1. Core facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	eventLogger := logger.NewIsolatedLogger(cfg.App.EventLogFilePath)

	settings, err := config.LoadHandlerFile(cfg.Router.HandlerConfigPath)
	if err != nil {
		return nil, err
	}

	c := &Container{Config: cfg, Settings: settings, Logger: sysLogger}
	c.closers = append(c.closers, func() { _ = eventLogger.Sync() })

	// 2. Providers
	llmPool := llmFactory.NewPool(llmFactory.Settings{
		DefaultProvider:    cfg.Ai.LLMProvider,
		DefaultModel:       cfg.Ai.LLMModel,
		OllamaBaseURL:      cfg.Ai.OllamaBaseURL,
		HuggingFaceBaseURL: cfg.Ai.HuggingFaceBaseURL,
		HuggingFaceAPIKey:  cfg.Keys.HuggingFace,
		OpenAIAPIKey:       cfg.Keys.OpenAI,
		OpenAIBaseURL:      cfg.Ai.OpenAIBaseURL,
	})
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// 3. Handler registry
	reg := registry.NewRegistry(settings.Handlers, handler.Builtins(), handler.Dependencies{LLM: llmPool}, sysLogger)
	failures := reg.InstantiateHandlers(ctx)
	if len(failures) == len(settings.Handlers) {
		return nil, fmt.Errorf("no handler could be instantiated")
	}
	if _, ok := reg.GetHandler(settings.Router.FallbackCategory); !ok {
		sysLogger.Warn("BOOTSTRAP", "Fallback handler is not available", map[string]interface{}{
			"category": settings.Router.FallbackCategory,
		})
	}
	c.Registry = reg

	// 4. Repositories
	var exampleStore classifier.ExampleStore
	switch cfg.App.DecisionLogStore {
	case "postgres":
		if db == nil {
			return nil, fmt.Errorf("decision log store postgres requires DB_CONNECTION_STRING")
		}
		c.Decisions = implementation.NewDecisionLogRepository(db)
	default:
		c.Decisions = memory.NewDecisionLogRepository()
	}
	if db != nil {
		exampleStore = implementation.NewExampleEmbeddingRepository(db)
	}

	var sessionRepo contract.SessionRepository
	switch cfg.App.SessionStore {
	case "redis":
		rdb := redisRepo.NewClient(cfg.App.RedisURL)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		c.closers = append(c.closers, func() { _ = rdb.Close() })
		sessionRepo = redisRepo.NewSessionRepository(rdb)
	default:
		sessionRepo = memory.NewSessionRepository()
	}

	// 5. Classifier
	cls, err := newClassifier(ctx, cfg, settings, llmPool, exampleStore, sysLogger)
	if err != nil {
		return nil, err
	}

	// 6. Event bus
	pubSub := events.NewChannelBus()
	c.closers = append(c.closers, func() { _ = pubSub.Close() })
	c.Hub = ws.NewHub(eventLogger)
	publisher := newPublisher(cfg, pubSub, c.Hub, eventLogger, c)

	// 7. Router and services
	threshold := settings.Router.ConfidenceThreshold
	if cfg.Router.ConfidenceThreshold > 0 {
		threshold = cfg.Router.ConfidenceThreshold
	}
	c.Router = router.NewRouter(cls, reg, session.NewManager(sessionRepo, sysLogger), c.Decisions, router.Options{
		ConfidenceThreshold: threshold,
		FallbackCategory:    settings.Router.FallbackCategory,
		Publisher:           publisher,
		Logger:              sysLogger,
	})

	c.RouteService = service.NewRouteService(c.Router)
	c.ReportService = service.NewReportService(c.Decisions)
	c.HandlerService = service.NewHandlerService(reg)
	c.ConsumerService = service.NewConsumerService(pubSub, eventLogger)
	c.Janitor = retention.NewJanitor(c.Decisions, cfg.Retention.MaxAge(), cfg.Retention.Interval, sysLogger)

	// 8. Controllers
	c.RouteController = controller.NewRouteController(c.RouteService)
	c.ReportController = controller.NewReportController(c.ReportService, c.ConsumerService)
	c.HandlerController = controller.NewHandlerController(c.HandlerService, cfg.App.JwtSecret)
	c.StreamController = controller.NewStreamController(c.Hub, cfg.App.JwtSecret)

	sysLogger.Info("BOOTSTRAP", "Router ready", map[string]interface{}{
		"classifier":     cls.Name(),
		"threshold":      threshold,
		"fallback":       settings.Router.FallbackCategory,
		"handler_errors": len(failures),
		"session_store":  cfg.App.SessionStore,
		"decision_store": cfg.App.DecisionLogStore,
		"event_bus":      cfg.App.EventBus,
	})
	return c, nil
}

func newClassifier(
	ctx context.Context,
	cfg *config.Config,
	settings *config.HandlerSettings,
	llmPool *llmFactory.Pool,
	store classifier.ExampleStore,
	log logger.ILogger,
) (classifier.Classifier, error) {
	strategy := settings.Router.Classifier
	if cfg.Router.ClassifierStrategy != "" {
		strategy = cfg.Router.ClassifierStrategy
	}
	threshold := settings.Router.ConfidenceThreshold
	if cfg.Router.ConfidenceThreshold > 0 {
		threshold = cfg.Router.ConfidenceThreshold
	}

	switch strategy {
	case classifier.StrategyGenerative:
		client, err := llmPool.Get("", "")
		if err != nil {
			return nil, fmt.Errorf("generative classifier: %w", err)
		}
		return classifier.NewGenerativeClassifier(client, classifier.GenerativeOptions{
			Threshold: threshold,
			Examples:  settings.Examples(),
			Logger:    log,
		}), nil
	case classifier.StrategySimilarity:
		embedder, err := newEmbedder(cfg)
		if err != nil {
			return nil, fmt.Errorf("similarity classifier: %w", err)
		}
		return classifier.NewSimilarityClassifier(ctx, embedder, settings.Examples(), classifier.SimilarityOptions{
			Threshold: threshold,
			Store:     store,
			Logger:    log,
		})
	default:
		return nil, fmt.Errorf("unknown classifier strategy %q", strategy)
	}
}

func newEmbedder(cfg *config.Config) (embedding.EmbeddingProvider, error) {
	return embeddingFactory.NewEmbeddingProvider(cfg.Ai.EmbeddingProvider, embeddingFactory.Settings{
		OllamaBaseURL: cfg.Ai.OllamaBaseURL,
		OllamaModel:   cfg.Ai.OllamaModel,
		GeminiAPIKey:  cfg.Keys.GoogleGemini,
		JinaAPIKey:    cfg.Keys.Jina,
		OpenAIAPIKey:  cfg.Keys.OpenAI,
		OpenAIBaseURL: cfg.Ai.OpenAIBaseURL,
		OpenAIModel:   cfg.Ai.OpenAIEmbedModel,
	})
}

// newPublisher always feeds the in-process bus and the websocket hub; NATS is added when configured and reachable
func newPublisher(cfg *config.Config, pubSub *gochannel.GoChannel, hub *ws.Hub, eventLogger logger.ILogger, c *Container) events.Publisher {
	if cfg.App.EventBus == "none" {
		return nil
	}
	publishers := events.MultiPublisher{events.NewChannelPublisher(pubSub), hub}
	if cfg.App.EventBus == "nats" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, eventLogger)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			c.closers = append(c.closers, natsPub.Close)
			publishers = append(publishers, natsPub)
		}
	}
	return publishers
}

// Close releases connections in reverse order of creation
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
