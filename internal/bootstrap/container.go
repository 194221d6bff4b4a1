package bootstrap

import (
	"context"
	"log"
	"time"

	"civic-assistant-be/internal/config"
	"civic-assistant-be/internal/controller"
	"civic-assistant-be/internal/pkg/logger"
	"civic-assistant-be/internal/pkg/serverutils"
	"civic-assistant-be/internal/repository/implementation"
	"civic-assistant-be/internal/repository/memory"
	"civic-assistant-be/internal/repository/unitofwork"
	"civic-assistant-be/internal/service"
	"civic-assistant-be/internal/websocket"
	"civic-assistant-be/pkg/embedding"
	"civic-assistant-be/pkg/embedding/jina"
	"civic-assistant-be/pkg/llm/factory"
	"civic-assistant-be/pkg/openleg"
	"civic-assistant-be/pkg/rag/citation"
	"civic-assistant-be/pkg/rag/compose"
	"civic-assistant-be/pkg/rag/domain"
	"civic-assistant-be/pkg/rag/pipeline"
	"civic-assistant-be/pkg/rag/prompt"
	"civic-assistant-be/pkg/rag/retrieval"
	"civic-assistant-be/pkg/rag/stream"

	pktNats "civic-assistant-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	maxTurnDuration   = 5 * time.Minute
	embeddingCacheTTL = 30 * time.Minute
	relatedBillsLimit = 5
)

type Container struct {
	ChatController controller.IChatController

	// Background services, run by main
	ConsumerService service.IConsumerService
	CancelRelay     *service.CancelRelay

	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	c := &Container{}

	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	ragLogger := logger.NewIsolatedLogger(cfg.App.RagLogFilePath)

	// 2. Event bus
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermill.NewStdLogger(false, false),
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 3. Infrastructure
	rdb := newRedis(cfg.App.RedisURL)
	if rdb != nil {
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}

	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL, sysLogger)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		c.closers = append(c.closers, natsPub.Close)
	}

	// 4. Retrieval
	embedder := memory.NewCachedEmbeddingProvider(NewEmbeddingProvider(cfg), embeddingCacheTTL, 10*time.Minute)

	billRepo := implementation.NewBillRepository(db)
	chunkRepo := implementation.NewBillChunkRepository(db)

	tiered := retrieval.NewTieredRetriever(billRepo, cfg.Retrieval.TierLimit, ragLogger)
	semantic := retrieval.NewSemanticRetriever(embedder, chunkRepo, retrieval.SemanticConfig{
		Threshold:          cfg.Retrieval.SimilarityThreshold,
		Limit:              cfg.Retrieval.SemanticLimit,
		FragmentsPerRecord: cfg.Retrieval.FragmentsPerRecord,
	}, ragLogger)
	fullText := retrieval.NewFullTextRetriever(billRepo, cfg.Retrieval.FullTextMaxChars, ragLogger)

	opts := []pipeline.Option{
		pipeline.WithDomains(
			domain.NewBudgetRetriever(implementation.NewBudgetRepository(db), ragLogger),
			domain.NewContractRetriever(implementation.NewContractRepository(db), ragLogger),
			domain.NewLobbyingRetriever(implementation.NewLobbyingRepository(db), ragLogger),
		),
		pipeline.WithRetrieverTimeout(cfg.Retrieval.RetrieverTimeout),
		pipeline.WithLogger(ragLogger),
	}
	if cfg.Keys.OpenLeg != "" {
		client := openleg.NewClient(cfg.Retrieval.OpenLegBaseURL, cfg.Keys.OpenLeg, rdb, cfg.Retrieval.LiveCacheTTL)
		opts = append(opts, pipeline.WithLive(retrieval.NewLiveRetriever(client, ragLogger)))
		log.Printf("[INFO] Live legislature lookups enabled (%s)", cfg.Retrieval.OpenLegBaseURL)
	}

	ragPipeline := pipeline.New(
		tiered, semantic, fullText,
		compose.NewComposer(cfg.Retrieval.ContextMaxChars),
		prompt.NewAssembler(),
		cfg.Retrieval.Session,
		opts...,
	)

	// 5. Providers
	dispatcher, err := factory.NewDispatcher(cfg)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM providers: %v", err)
	}
	log.Printf("[INFO] Default LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	consumer := stream.NewConsumer(
		citation.NewExtractor(billRepo, ragLogger),
		citation.NewRelatedEnricher(billRepo, relatedBillsLimit, ragLogger),
		ragLogger,
	)

	// 6. Services
	turns := memory.NewTurnRepository(maxTurnDuration, time.Minute)
	publisherService := service.NewPublisherService(cfg.Events.TurnFinalizedTopic, pubSub)

	var chatOpts []service.ChatServiceOption
	if natsPub != nil {
		chatOpts = append(chatOpts, service.WithEventPublisher(natsPub))
	}
	if rdb != nil {
		c.CancelRelay = service.NewCancelRelay(rdb, turns, sysLogger)
		chatOpts = append(chatOpts, service.WithCancelBroadcaster(c.CancelRelay))
	}

	chatService := service.NewChatService(uowFactory, turns, ragPipeline, dispatcher, consumer, publisherService, sysLogger, chatOpts...)

	c.ConsumerService = service.NewConsumerService(pubSub, cfg.Events.TurnFinalizedTopic, uowFactory, sysLogger)

	// 7. Controllers
	auth := serverutils.NewJwtMiddleware(cfg.App.JwtSecret)
	c.ChatController = controller.NewChatController(chatService, auth, websocket.NewChatSocket(chatService, sysLogger), sysLogger)

	return c
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// NewEmbeddingProvider picks the provider configured by EMBEDDING_PROVIDER.
func NewEmbeddingProvider(cfg *config.Config) embedding.EmbeddingProvider {
	switch cfg.Ai.EmbeddingProvider {
	case "ollama":
		log.Printf("[INFO] Using Embedding Provider: OLLAMA (%s)", cfg.Ai.OllamaModel)
		return embedding.NewOllamaProvider(cfg.Ai.OllamaBaseURL, cfg.Ai.OllamaModel)
	case "jina":
		log.Printf("[INFO] Using Embedding Provider: JINA AI")
		return jina.NewJinaProvider(cfg.Keys.Jina)
	default:
		log.Printf("[INFO] Using Embedding Provider: GEMINI")
		return embedding.NewGeminiProvider(cfg.Keys.GoogleGemini)
	}
}

// newRedis returns nil when Redis is unreachable; callers treat that as "no cache".
func newRedis(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
		_ = rdb.Close()
		return nil
	}
	return rdb
}
