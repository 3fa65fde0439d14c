package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"faqdesk/internal/ai"
	"faqdesk/internal/app"
	"faqdesk/internal/cache"
	"faqdesk/internal/config"
	"faqdesk/internal/model"
	"faqdesk/internal/pkg/logger"
	mysqlClient "faqdesk/internal/platform/mysql"
	rabbitmqClient "faqdesk/internal/platform/rabbitmq"
	redisClient "faqdesk/internal/platform/redis"
	"faqdesk/internal/ratelimit"
	"faqdesk/internal/repository"
	"faqdesk/internal/storage"
	"faqdesk/internal/worker"
)

type Services struct {
	Ask         *app.AskService
	Suggest     *app.SuggestService
	AI          *app.AIService
	Reembed     *app.ReembedService
	Attachments *app.AttachmentResolver
}

type Limiters struct {
	Ask     *ratelimit.Limiter
	Suggest *ratelimit.Limiter
	Files   *ratelimit.Limiter
	AI      *ratelimit.Limiter
	AIQuota *ratelimit.Limiter
}

type App struct {
	Config        *config.Config
	Log           *logger.Logger
	MySQL         *gorm.DB
	Redis         *redis.Client
	MQConn        *amqp.Connection
	ChatLogWorker *worker.ChatLogPersistWorker
	Signer        storage.Signer
	LocalSigner   *storage.LocalSigner

	Services Services
	Limiters Limiters

	StartedAt time.Time
	closers   []func() error
}

// Deps are the pluggable parts Assemble wires services over.
type Deps struct {
	Generators   []app.TextGenerator
	Embedder     ai.Embedder
	LimitStore   ratelimit.Store
	SuggestCache app.SuggestCache
	ChatLogSink  app.ChatLogSink
}

func New(ctx context.Context) (a *App, err error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, fmt.Errorf("init logger failed: %w", err)
	}

	a = &App{Config: cfg, Log: log, StartedAt: time.Now()}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	if err = a.openDatabase(ctx); err != nil {
		return nil, err
	}
	if needsRedis(cfg) {
		a.Redis, err = redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
	}
	if err = a.openSigner(ctx); err != nil {
		return nil, err
	}

	deps := Deps{}
	deps.Generators = NewGenerators(ctx, cfg, log)
	deps.Embedder = NewEmbedder(ctx, cfg, log)

	if deps.LimitStore, err = a.limitStore(); err != nil {
		return nil, err
	}
	deps.SuggestCache = a.suggestCache()

	chatLogRepo := repository.NewChatLogRepository(a.MySQL)
	deps.ChatLogSink = chatLogRepo
	if strings.EqualFold(cfg.Log.Sink, "mq") {
		a.MQConn, err = rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.ChatLogQueue)
		if err != nil {
			return nil, err
		}
		a.ChatLogWorker = worker.NewChatLogPersistWorker(a.MQConn, chatLogRepo, cfg.RabbitMQ.ChatLogQueue, log)
		if err = a.ChatLogWorker.Start(ctx); err != nil {
			return nil, fmt.Errorf("start chat log worker failed: %w", err)
		}
		deps.ChatLogSink = rabbitmqClient.NewChatLogPublisher(a.MQConn, cfg.RabbitMQ.ChatLogQueue)
	}

	if err = Assemble(a, deps); err != nil {
		return nil, err
	}
	log.Info("bootstrap finished",
		"storage", cfg.Storage.Mode,
		"ratelimit", cfg.RateLimit.Backend,
		"log_sink", cfg.Log.Sink,
		"generators", len(deps.Generators),
		"semantic", cfg.Semantic.Enabled && deps.Embedder != nil,
	)
	return a, nil
}

// NewOffline opens the database and storage only. Rate limiting and the
// suggestion cache stay in process and interactions are written directly.
func NewOffline(ctx context.Context) (a *App, err error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, fmt.Errorf("init logger failed: %w", err)
	}

	a = &App{Config: cfg, Log: log, StartedAt: time.Now()}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	if err = a.openDatabase(ctx); err != nil {
		return nil, err
	}
	if err = a.openSigner(ctx); err != nil {
		return nil, err
	}
	store, err := ratelimit.NewMemoryStore(cfg.RateLimit.MaxKeys)
	if err != nil {
		return nil, err
	}
	err = Assemble(a, Deps{
		Generators:   NewGenerators(ctx, cfg, log),
		Embedder:     NewEmbedder(ctx, cfg, log),
		LimitStore:   store,
		SuggestCache: cache.NewMemorySuggestCache(cfg.Suggest.CacheSize, time.Duration(cfg.Suggest.CacheTTLSeconds)*time.Second),
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Assemble builds services and limiters. a must carry Config, Log, MySQL and Signer.
func Assemble(a *App, deps Deps) error {
	if a.Config == nil || a.MySQL == nil {
		return errors.New("assemble: config and mysql are required")
	}
	if a.Log == nil {
		a.Log = logger.Nop()
	}
	if deps.LimitStore == nil {
		return errors.New("assemble: limit store is required")
	}
	cfg := a.Config

	faqRepo := repository.NewFAQRepository(a.MySQL)
	attachmentRepo := repository.NewAttachmentRepository(a.MySQL)
	if deps.ChatLogSink == nil {
		deps.ChatLogSink = repository.NewChatLogRepository(a.MySQL)
	}

	var semantic *app.SemanticMatcher
	if cfg.Semantic.Enabled && deps.Embedder != nil {
		semantic = app.NewSemanticMatcher(deps.Embedder, faqRepo, cfg.Semantic.MinScore, cfg.Semantic.MaxEntries, a.Log.With("component", "semantic"))
	}

	retriever := app.NewRetriever(faqRepo, app.RetrievalLimits{
		Exact:       cfg.Ask.ExactLimit,
		Tokens:      cfg.Ask.TokenLimit,
		Suggestions: cfg.Ask.SuggestionLimit,
	}, semantic)
	attachments := app.NewAttachmentResolver(attachmentRepo, a.Signer, cfg.Storage.DefaultBucket, cfg.SignedURLTTL(), a.Log.With("component", "attachments"))
	aiService := app.NewAIService(deps.Generators, cfg.AI.DefaultProvider, cfg.AI.MaxAnswerChars, a.Log.With("component", "ai"))
	interaction := app.NewInteractionLogger(deps.ChatLogSink, a.Log.With("component", "interaction_log"))

	a.Services = Services{
		Ask: app.NewAskService(retriever, attachments, aiService, interaction, app.AskOptions{
			MaxAnswerChars:   cfg.Ask.MaxAnswerChars,
			MatchSuggestions: cfg.Ask.MatchSuggestions,
		}, a.Log.With("component", "ask")),
		Suggest:     app.NewSuggestService(faqRepo, deps.SuggestCache, a.Log.With("component", "suggest")),
		AI:          aiService,
		Reembed:     app.NewReembedService(faqRepo, deps.Embedder, cfg.Admin.ReembedSecretHash, a.Log.With("component", "reembed")),
		Attachments: attachments,
	}

	rl := cfg.RateLimit
	a.Limiters = Limiters{
		Ask:     ratelimit.NewLimiter(deps.LimitStore, "ask", rl.Ask.Limit, rl.Ask.Window()),
		Suggest: ratelimit.NewLimiter(deps.LimitStore, "suggest", rl.Suggest.Limit, rl.Suggest.Window()),
		Files:   ratelimit.NewLimiter(deps.LimitStore, "files", rl.Files.Limit, rl.Files.Window()),
		AI:      ratelimit.NewLimiter(deps.LimitStore, "ai", rl.AI.Limit, rl.AI.Window()),
		AIQuota: ratelimit.NewLimiter(deps.LimitStore, "ai_quota", rl.AIQuota.Limit, rl.AIQuota.Window()),
	}
	if a.StartedAt.IsZero() {
		a.StartedAt = time.Now()
	}
	return nil
}

// Migrate creates or updates the tables this service owns.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&model.FAQ{}, &model.Attachment{}, &model.AttachmentLink{}, &model.ChatLog{}); err != nil {
		return fmt.Errorf("auto migrate tables failed: %w", err)
	}
	return nil
}

// HealthChecks lists the configured dependencies.
func (a *App) HealthChecks() map[string]func(ctx context.Context) error {
	checks := map[string]func(ctx context.Context) error{}
	if a.MySQL != nil {
		checks["mysql"] = func(ctx context.Context) error { return mysqlClient.Ping(ctx, a.MySQL) }
	}
	if a.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx, a.Redis) }
	}
	if a.MQConn != nil {
		checks["rabbitmq"] = func(context.Context) error { return rabbitmqClient.Healthy(a.MQConn) }
	}
	return checks
}

func (a *App) Close() error {
	var errs []error
	if a.ChatLogWorker != nil {
		a.ChatLogWorker.Close()
	}
	if a.MQConn != nil && !a.MQConn.IsClosed() {
		errs = append(errs, a.MQConn.Close())
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	if a.MySQL != nil {
		if sqlDB, err := a.MySQL.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	if a.Log != nil {
		a.Log.Sync()
	}
	return errors.Join(errs...)
}

func (a *App) openDatabase(ctx context.Context) error {
	db, err := mysqlClient.New(ctx, a.Config.MySQLDSN(), a.Config.App.Env == "dev")
	if err != nil {
		return err
	}
	a.MySQL = db
	return Migrate(db)
}

func (a *App) openSigner(ctx context.Context) error {
	st := a.Config.Storage
	switch strings.ToLower(st.Mode) {
	case "gcs":
		signer, err := storage.NewGCSSigner(ctx, st.CredentialsFile)
		if err != nil {
			return err
		}
		a.Signer = signer
		a.closers = append(a.closers, signer.Close)
	case "local", "":
		a.LocalSigner = storage.NewLocalSigner(st.LocalRoot, st.SigningSecret, st.PublicBaseURL)
		a.Signer = a.LocalSigner
	default:
		return fmt.Errorf("unknown storage mode %q", st.Mode)
	}
	return nil
}

func (a *App) limitStore() (ratelimit.Store, error) {
	if strings.EqualFold(a.Config.RateLimit.Backend, "redis") {
		return ratelimit.NewRedisStore(a.Redis, "faqdesk:ratelimit:"), nil
	}
	return ratelimit.NewMemoryStore(a.Config.RateLimit.MaxKeys)
}

func (a *App) suggestCache() app.SuggestCache {
	ttl := time.Duration(a.Config.Suggest.CacheTTLSeconds) * time.Second
	if strings.EqualFold(a.Config.Suggest.Backend, "redis") {
		return cache.NewRedisSuggestCache(a.Redis, ttl)
	}
	return cache.NewMemorySuggestCache(a.Config.Suggest.CacheSize, ttl)
}

func needsRedis(cfg *config.Config) bool {
	return strings.EqualFold(cfg.RateLimit.Backend, "redis") || strings.EqualFold(cfg.Suggest.Backend, "redis")
}
