package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v10"
	"github.com/go-playground/validator/v10"
)

// Config holds runtime configuration for both services. Extend as needed.
type Config struct {
	// Server (statsapi)
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Chat platform
	TelegramToken string `env:"TELEGRAM_BOT_TOKEN" validate:"required"`

	// Store
	StoreProvider string `env:"STORE_PROVIDER" envDefault:"postgres"` // "postgres" or "sqlite"
	DBURL         string `env:"DB_URL"`
	SQLitePath    string `env:"SQLITE_PATH" envDefault:"ratings.db"`

	// Queue (rating events); "none" disables publishing
	QueueProvider string `env:"QUEUE_PROVIDER" envDefault:"none"` // "nats" or "none"
	QueueURL      string `env:"QUEUE_URL"`

	// Cache (stats reports); "none" falls back to a no-op cache
	CacheProvider string `env:"CACHE_PROVIDER" envDefault:"none"` // "redis" or "none"
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	CacheTTL      int    `env:"CACHE_TTL" envDefault:"300"` // seconds

	// LLM providers. A missing key disables that provider at call time
	// rather than at startup.
	OpenAIKey        string `env:"OPENAI_API_KEY"`
	OpenAIModel      string `env:"OPENAI_MODEL" envDefault:"gpt-3.5-turbo"`
	CohereKey        string `env:"COHERE_API_KEY"`
	HuggingFaceKey   string `env:"HUGGINGFACE_API_KEY"`
	HuggingFaceModel string `env:"HUGGINGFACE_MODEL" envDefault:"gpt2"`

	// Rating scale (closed range, inclusive)
	RatingMin int `env:"RATING_MIN" envDefault:"0"`
	RatingMax int `env:"RATING_MAX" envDefault:"2" validate:"gtfield=RatingMin"`

	// Optional override of the built-in benchmark question set
	BenchmarkQuestions []string `env:"BENCHMARK_QUESTIONS" envSeparator:"|"`
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}

var validate = validator.New()

// ValidateBot checks the settings the bot cannot start without. The
// platform token is fatal here; provider API keys deliberately are not.
func (c Config) ValidateBot() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// ValidateAPI checks the settings the stats service needs. It serves
// historical data only, so the platform token is not required.
func (c Config) ValidateAPI() error {
	if c.RatingMax <= c.RatingMin {
		return fmt.Errorf("invalid rating range [%d, %d]", c.RatingMin, c.RatingMax)
	}
	return nil
}
