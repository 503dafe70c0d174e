package app

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/openai/openai-go/v3"

	"ratebot/internal/cache"
	"ratebot/internal/config"
	"ratebot/internal/llm"
	"ratebot/internal/logger"
	"ratebot/internal/queue"
	"ratebot/internal/session"
	"ratebot/internal/stats"
	"ratebot/internal/store"
)

// Deps bundles common runtime dependencies for services.
type Deps struct {
	Config   config.Config
	Log      *slog.Logger
	Store    store.Store
	Cache    cache.Cache
	Queue    queue.Queue // nil when no queue is configured
	Registry *llm.Registry
	Stats    *stats.Builder
}

// BuildBot loads env, config, and everything the chat bot needs. A
// missing platform token aborts here; missing provider keys do not.
func BuildBot() (Deps, error) {
	deps, err := build("bot")
	if err != nil {
		return Deps{}, err
	}
	if err := deps.Config.ValidateBot(); err != nil {
		return Deps{}, err
	}
	return deps, nil
}

// BuildAPI loads shared components for the stats service.
func BuildAPI() (Deps, error) {
	deps, err := build("statsapi")
	if err != nil {
		return Deps{}, err
	}
	if err := deps.Config.ValidateAPI(); err != nil {
		return Deps{}, err
	}
	return deps, nil
}

func build(service string) (Deps, error) {
	_ = godotenv.Load() // absent .env is fine; real env wins anyway
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, service)

	st, err := buildStore(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize store: %w", err)
	}
	c, err := buildCache(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize cache: %w", err)
	}
	q, err := buildQueue(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize queue: %w", err)
	}
	registry := BuildRegistry(log, cfg)

	builder := stats.NewBuilder(log, st, c, q, registry.Names(),
		time.Duration(cfg.CacheTTL)*time.Second)

	return Deps{
		Config:   cfg,
		Log:      log,
		Store:    st,
		Cache:    c,
		Queue:    q,
		Registry: registry,
		Stats:    builder,
	}, nil
}

// BuildRegistry wires every known provider. Providers without an API key
// stay registered and degrade to a configuration-error answer on use.
func BuildRegistry(log *slog.Logger, cfg config.Config) *llm.Registry {
	return llm.NewRegistry(log,
		llm.NewOpenAI(cfg.OpenAIKey, openai.ChatModel(cfg.OpenAIModel)),
		llm.NewCohere(cfg.CohereKey),
		llm.NewHuggingFace(cfg.HuggingFaceKey, cfg.HuggingFaceModel),
	)
}

// NewEngine builds the session engine on top of shared deps.
func NewEngine(deps Deps) *session.Engine {
	return session.NewEngine(deps.Log, deps.Registry, deps.Store, deps.Stats,
		deps.Config.BenchmarkQuestions, deps.Config.RatingMin, deps.Config.RatingMax)
}

func buildStore(cfg config.Config, log *slog.Logger) (store.Store, error) {
	switch cfg.StoreProvider {
	case "postgres":
		if cfg.DBURL == "" {
			return nil, fmt.Errorf("DB_URL is required when STORE_PROVIDER=postgres")
		}
		db, err := store.NewPostgres(cfg.DBURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres: %w", err)
		}
		log.Info("using Postgres store")
		return db, nil
	case "sqlite":
		db, err := store.NewSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite: %w", err)
		}
		log.Info("using SQLite store", "path", cfg.SQLitePath)
		return db, nil
	default:
		return nil, fmt.Errorf("invalid STORE_PROVIDER: %s (valid options: postgres, sqlite)", cfg.StoreProvider)
	}
}

func buildCache(cfg config.Config, log *slog.Logger) (cache.Cache, error) {
	switch cfg.CacheProvider {
	case "redis":
		c, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
		log.Info("using Redis stats cache", "addr", cfg.RedisAddr)
		return c, nil
	case "none":
		return cache.NewNoOpCache(), nil
	default:
		return nil, fmt.Errorf("invalid CACHE_PROVIDER: %s (valid options: redis, none)", cfg.CacheProvider)
	}
}

func buildQueue(cfg config.Config, log *slog.Logger) (queue.Queue, error) {
	switch cfg.QueueProvider {
	case "nats":
		if cfg.QueueURL == "" {
			return nil, fmt.Errorf("QUEUE_URL is required when QUEUE_PROVIDER=nats")
		}
		nc, err := nats.Connect(cfg.QueueURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		log.Info("using NATS event queue")
		return queue.NewNATS(log, nc), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("invalid QUEUE_PROVIDER: %s (valid options: nats, none)", cfg.QueueProvider)
	}
}
