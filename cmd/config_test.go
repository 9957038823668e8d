package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "talentmatch.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestGetConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	v := viper.New()
	if err := readConfigFile(v, ""); err != nil {
		t.Fatalf("missing default config file must be ignored: %v", err)
	}

	config, err := getConfig(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if config.Server.Addr != ":8080" || config.Server.ShutdownTimeout != 10*time.Second {
		t.Fatalf("unexpected server defaults: %+v", config.Server)
	}
	if config.Store.Driver != StoreMemory || config.Cache.Driver != CacheMemory {
		t.Fatalf("unexpected drivers: store=%q cache=%q", config.Store.Driver, config.Cache.Driver)
	}
	if config.AI.EmbeddingProvider != ProviderGemini || config.AI.Gemini.APIKeyEnv != "GEMINI_API_KEY" {
		t.Fatalf("unexpected ai defaults: %+v", config.AI)
	}
	if config.AI.Gemini.MaxRetries != 1 {
		t.Fatalf("expected a single attempt by default, got %d", config.AI.Gemini.MaxRetries)
	}
	if config.Matching.Concurrency != 4 {
		t.Fatalf("unexpected concurrency: %d", config.Matching.Concurrency)
	}
	if config.Cache.Redis.Prefix != app || config.Cache.Redis.TTL != 7*24*time.Hour {
		t.Fatalf("unexpected redis defaults: %+v", config.Cache.Redis)
	}
}

func TestGetConfigFromFileAndEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
  allowed-origins:
    - https://app.example.com
  rate-limit:
    rps: 2.5
    burst: 5
store:
  driver: Postgres
  dsn: postgres://localhost/talentmatch
cache:
  driver: redis
  ttl: 1h
  redis:
    addr: redis:6379
    db: 2
ai:
  embedding-provider: openai
  openai:
    model: text-embedding-3-large
    dimensions: 256
`)
	t.Setenv("TALENTMATCH_MATCHING_CONCURRENCY", "8")
	t.Setenv("TALENTMATCH_AI_SCREENING_ENABLED", "true")

	v := viper.New()
	if err := readConfigFile(v, path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	config, err := getConfig(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if config.Server.Addr != ":9090" || len(config.Server.AllowedOrigins) != 1 {
		t.Fatalf("unexpected server config: %+v", config.Server)
	}
	if config.Server.RateLimit.RPS != 2.5 || config.Server.RateLimit.Burst != 5 {
		t.Fatalf("unexpected rate limit: %+v", config.Server.RateLimit)
	}
	if config.Store.Driver != StorePostgres {
		t.Fatalf("expected driver to be normalized, got %q", config.Store.Driver)
	}
	if config.Cache.TTL != time.Hour || config.Cache.Redis.Addr != "redis:6379" || config.Cache.Redis.DB != 2 {
		t.Fatalf("unexpected cache config: %+v", config.Cache)
	}
	if config.AI.OpenAI.Model != "text-embedding-3-large" || config.AI.OpenAI.Dimensions != 256 {
		t.Fatalf("unexpected openai config: %+v", config.AI.OpenAI)
	}
	if config.Matching.Concurrency != 8 {
		t.Fatalf("expected env override, got %d", config.Matching.Concurrency)
	}
	if !config.AI.Screening.Enabled {
		t.Fatal("expected screening to be enabled from env")
	}
}

func TestReadConfigFileMissingExplicitFile(t *testing.T) {
	v := viper.New()
	if err := readConfigFile(v, filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Store:    StoreConfig{Driver: StoreMemory},
			Cache:    CacheConfig{Driver: CacheNone},
			AI:       AIConfig{EmbeddingProvider: ProviderGemini, Screening: ScreeningConfig{MinimumFitScore: 0.5}},
			Matching: MatchingConfig{Concurrency: 4},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown store", mutate: func(c *Config) { c.Store.Driver = "mongo" }, wantErr: "unknown store.driver"},
		{name: "postgres without dsn", mutate: func(c *Config) { c.Store.Driver = StorePostgres }, wantErr: "store.dsn"},
		{name: "postgres with dsn file", mutate: func(c *Config) { c.Store.Driver = StorePostgres; c.Store.DSNFile = "/run/secrets/dsn" }},
		{name: "unknown cache", mutate: func(c *Config) { c.Cache.Driver = "memcached" }, wantErr: "unknown cache.driver"},
		{name: "redis without addr", mutate: func(c *Config) { c.Cache.Driver = CacheRedis }, wantErr: "cache.redis.addr"},
		{name: "unknown provider", mutate: func(c *Config) { c.AI.EmbeddingProvider = "cohere" }, wantErr: "unknown ai.embedding-provider"},
		{name: "fit score out of range", mutate: func(c *Config) { c.AI.Screening.MinimumFitScore = 1.5 }, wantErr: "minimum-fit-score"},
		{name: "negative concurrency", mutate: func(c *Config) { c.Matching.Concurrency = -1 }, wantErr: "matching.concurrency"},
		{name: "disable location", mutate: func(c *Config) { c.Matching.DisabledFilters = []string{"location"} }},
		{name: "unknown filter", mutate: func(c *Config) { c.Matching.DisabledFilters = []string{"salary"} }, wantErr: "unknown filter"},
		{name: "negative burst", mutate: func(c *Config) { c.Server.RateLimit.Burst = -1 }, wantErr: "rate-limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid()
			tt.mutate(config)

			err := config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}
