package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	DatasetPath string `env:"DATASET_PATH" envDefault:"base.csv"`
	DataDir     string `env:"DATA_DIR" envDefault:"./chroma_store"`
	Collection  string `env:"COLLECTION" envDefault:"opiniones"`
	CompressDB  bool   `env:"COMPRESS_DB" envDefault:"false"`

	OpenAIKey     string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	EmbedModel    string `env:"EMBED_MODEL" envDefault:"text-embedding-3-small"`
	ChatModel     string `env:"CHAT_MODEL" envDefault:"gpt-4o"`

	// Лимит токенов на один запрос к embeddings API
	MaxTokens         int    `env:"MAX_TOKENS" envDefault:"8191"`
	Tokenizer         string `env:"TOKENIZER" envDefault:"tiktoken"`
	StrictTokenBudget bool   `env:"STRICT_TOKEN_BUDGET" envDefault:"false"`
	ForceReindex      bool   `env:"FORCE_REINDEX" envDefault:"false"`
	TopK              int    `env:"TOP_K" envDefault:"10"`

	ListenAddr     string        `env:"LISTEN_ADDR" envDefault:"127.0.0.1:5000"`
	GinMode        string        `env:"GIN_MODE" envDefault:"debug"`
	CORSOrigins    []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`
	RateLimitRPS   float64       `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int           `env:"RATE_LIMIT_BURST" envDefault:"10"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"60s"`

	RedisURL string        `env:"REDIS_URL"`
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"10m"`

	OtelEndpoint string `env:"OTEL_ENDPOINT"`
}

func Init(cfg interface{}) error {
	return env.Parse(cfg)
}

// Load читает .env (если есть) и переменные окружения
func Load(envFiles ...string) (*Config, error) {
	// .env опционален
	_ = godotenv.Load(envFiles...)

	cfg := &Config{}
	if err := Init(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.MaxTokens <= 0 {
		return fmt.Errorf("MAX_TOKENS must be > 0, got %d", c.MaxTokens)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("TOP_K must be > 0, got %d", c.TopK)
	}
	switch c.Tokenizer {
	case "tiktoken", "approx":
	default:
		return fmt.Errorf("unknown TOKENIZER %q (want tiktoken or approx)", c.Tokenizer)
	}
	// burst 0 при включённом лимите отклоняет каждый запрос
	if c.RateLimitRPS > 0 && c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be > 0 when RATE_LIMIT_RPS is set, got %d", c.RateLimitBurst)
	}
	return nil
}

// MarkerFile путь к bbolt файлу с отметками о завершённой индексации
func (c *Config) MarkerFile() string {
	return c.DataDir + "/build.db"
}
