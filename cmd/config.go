package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/spigell/talentmatch/internal/embeddings"
	"github.com/spigell/talentmatch/internal/filtering"
	"github.com/spigell/talentmatch/internal/server"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"

	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"

	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type Config struct {
	Server   server.Config  `mapstructure:"server"`
	Store    StoreConfig    `mapstructure:"store"`
	Cache    CacheConfig    `mapstructure:"cache"`
	AI       AIConfig       `mapstructure:"ai"`
	Matching MatchingConfig `mapstructure:"matching"`
}

type StoreConfig struct {
	Driver   string `mapstructure:"driver"`
	SeedFile string `mapstructure:"seed-file"`
	DSN      string `mapstructure:"dsn"`
	DSNFile  string `mapstructure:"dsn-file"`
}

type CacheConfig struct {
	Driver    string                  `mapstructure:"driver"`
	SizeBytes int                     `mapstructure:"size-bytes"`
	TTL       time.Duration           `mapstructure:"ttl"`
	Redis     embeddings.RedisOptions `mapstructure:"redis"`

	// RedisPasswordFile takes precedence over redis.password.
	RedisPasswordFile string `mapstructure:"redis-password-file"`
}

type AIConfig struct {
	EmbeddingProvider string          `mapstructure:"embedding-provider"`
	Screening         ScreeningConfig `mapstructure:"screening"`
	Gemini            GeminiConfig    `mapstructure:"gemini"`
	OpenAI            OpenAIConfig    `mapstructure:"openai"`
}

type ScreeningConfig struct {
	Enabled         bool    `mapstructure:"enabled"`
	MinimumFitScore float64 `mapstructure:"minimum-fit-score"`
}

type GeminiConfig struct {
	APIKey         string `mapstructure:"api-key"`
	APIKeyFile     string `mapstructure:"api-key-file"`
	APIKeyEnv      string `mapstructure:"api-key-env"`
	Model          string `mapstructure:"model"`
	EmbeddingModel string `mapstructure:"embedding-model"`
	Dimensions     int    `mapstructure:"dimensions"`
	MaxRetries     int    `mapstructure:"max-retries"`
	MaxLogLength   int    `mapstructure:"max-log-length"`
}

type OpenAIConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	APIKeyEnv  string `mapstructure:"api-key-env"`
	BaseURL    string `mapstructure:"base-url"`
	Model      string `mapstructure:"model"`
	Dimensions int    `mapstructure:"dimensions"`
}

type MatchingConfig struct {
	Concurrency int `mapstructure:"concurrency"`

	// DisabledFilters names ranking filters to switch off, e.g. location.
	DisabledFilters []string `mapstructure:"disabled-filters"`
}

// setDefaults registers every key so that environment variables are picked
// up by Unmarshal even when the config file omits them.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed-origins", []string{})
	v.SetDefault("server.read-timeout", 15*time.Second)
	v.SetDefault("server.write-timeout", 60*time.Second)
	v.SetDefault("server.shutdown-timeout", 10*time.Second)
	v.SetDefault("server.rate-limit.rps", 10.0)
	v.SetDefault("server.rate-limit.burst", 20)

	v.SetDefault("store.driver", StoreMemory)
	v.SetDefault("store.seed-file", "")
	v.SetDefault("store.dsn", "")
	v.SetDefault("store.dsn-file", "")

	v.SetDefault("cache.driver", CacheMemory)
	v.SetDefault("cache.size-bytes", 64*1024*1024)
	v.SetDefault("cache.ttl", 24*time.Hour)
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.prefix", app)
	v.SetDefault("cache.redis.ttl", 7*24*time.Hour)
	v.SetDefault("cache.redis-password-file", "")

	v.SetDefault("ai.embedding-provider", ProviderGemini)
	v.SetDefault("ai.screening.enabled", false)
	v.SetDefault("ai.screening.minimum-fit-score", 0.5)

	v.SetDefault("ai.gemini.api-key", "")
	v.SetDefault("ai.gemini.api-key-file", "")
	v.SetDefault("ai.gemini.api-key-env", "GEMINI_API_KEY")
	v.SetDefault("ai.gemini.model", "")
	v.SetDefault("ai.gemini.embedding-model", "")
	v.SetDefault("ai.gemini.dimensions", 0)
	v.SetDefault("ai.gemini.max-retries", 1)
	v.SetDefault("ai.gemini.max-log-length", 200)

	v.SetDefault("ai.openai.api-key", "")
	v.SetDefault("ai.openai.api-key-file", "")
	v.SetDefault("ai.openai.api-key-env", "OPENAI_API_KEY")
	v.SetDefault("ai.openai.base-url", "")
	v.SetDefault("ai.openai.model", "")
	v.SetDefault("ai.openai.dimensions", 0)

	v.SetDefault("matching.concurrency", 4)
	v.SetDefault("matching.disabled-filters", []string{})
}

func getConfig(v *viper.Viper) (*Config, error) {
	var config *Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config == nil {
		return nil, errors.New("config is empty")
	}

	config.normalize()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) normalize() {
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	c.Cache.Driver = strings.ToLower(strings.TrimSpace(c.Cache.Driver))
	c.AI.EmbeddingProvider = strings.ToLower(strings.TrimSpace(c.AI.EmbeddingProvider))
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreMemory:
	case StorePostgres:
		if strings.TrimSpace(c.Store.DSN) == "" && strings.TrimSpace(c.Store.DSNFile) == "" {
			return errors.New("store.dsn or store.dsn-file is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown store.driver %q (want %s or %s)", c.Store.Driver, StoreMemory, StorePostgres)
	}

	switch c.Cache.Driver {
	case CacheNone, CacheMemory:
	case CacheRedis:
		if strings.TrimSpace(c.Cache.Redis.Addr) == "" {
			return errors.New("cache.redis.addr is required for the redis cache")
		}
	default:
		return fmt.Errorf("unknown cache.driver %q (want %s, %s or %s)", c.Cache.Driver, CacheNone, CacheMemory, CacheRedis)
	}

	switch c.AI.EmbeddingProvider {
	case ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("unknown ai.embedding-provider %q (want %s or %s)", c.AI.EmbeddingProvider, ProviderGemini, ProviderOpenAI)
	}

	if s := c.AI.Screening.MinimumFitScore; s < 0 || s > 1 {
		return fmt.Errorf("ai.screening.minimum-fit-score must be between 0 and 1, got %v", s)
	}

	if c.Matching.Concurrency < 0 {
		return fmt.Errorf("matching.concurrency must not be negative, got %d", c.Matching.Concurrency)
	}

	known := map[string]bool{}
	for _, step := range filtering.Default() {
		known[step.Name()] = true
	}
	for _, name := range c.Matching.DisabledFilters {
		if !known[name] {
			return fmt.Errorf("unknown filter %q in matching.disabled-filters", name)
		}
	}

	if c.Server.RateLimit.RPS < 0 || c.Server.RateLimit.Burst < 0 {
		return errors.New("server.rate-limit values must not be negative")
	}

	return nil
}
