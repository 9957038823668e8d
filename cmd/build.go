package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/talentmatch/internal/ai/gemini"
	"github.com/spigell/talentmatch/internal/ai/openai"
	"github.com/spigell/talentmatch/internal/embeddings"
	"github.com/spigell/talentmatch/internal/filtering"
	"github.com/spigell/talentmatch/internal/logger"
	"github.com/spigell/talentmatch/internal/matching"
	"github.com/spigell/talentmatch/internal/ranking"
	"github.com/spigell/talentmatch/internal/secrets"
	"github.com/spigell/talentmatch/internal/store"
)

// components are the long-lived dependencies shared by the commands.
type components struct {
	service *ranking.Service
	closers []func() error
}

func (c *components) Close(l *zap.Logger) {
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			l.Warn("closing a component", zap.Error(err))
		}
	}
}

// Fail closes the components and exits with a non-zero status.
func (c *components) Fail(l *zap.Logger, msg string, err error) {
	c.Close(l)
	l.Fatal(msg, zap.Error(err))
}

func buildComponents(ctx context.Context, config *Config, l *zap.Logger) (*components, error) {
	c := &components{}

	st, err := buildStore(config.Store, l)
	if err != nil {
		return nil, err
	}
	if closer, ok := st.(interface{ Close() error }); ok {
		c.closers = append(c.closers, closer.Close)
	}

	resolver, gen, err := buildResolver(ctx, config, l)
	if err != nil {
		c.Close(l)
		return nil, err
	}
	switch cache := resolver.cache.(type) {
	case *embeddings.Redis:
		c.closers = append(c.closers, cache.Close)
	case *embeddings.Memory:
		c.closers = append(c.closers, func() error {
			l.Info("embedding cache stats",
				zap.Int64("entries", cache.EntryCount()),
				zap.Float64("hit_rate", cache.HitRate()),
			)
			return nil
		})
	}

	steps := pipeline(config.Matching.DisabledFilters)
	l.Debug("ranking pipeline", zap.Any("filters", filtering.Describe(steps())))

	opts := []ranking.Option{
		ranking.WithConcurrency(config.Matching.Concurrency),
		ranking.WithSteps(steps),
	}

	if config.AI.Screening.Enabled {
		if gen == nil {
			gen, err = buildGemini(ctx, config.AI.Gemini, l)
			if err != nil {
				c.Close(l)
				return nil, fmt.Errorf("screening: %w", err)
			}
		}
		screener := gemini.NewScreener(gen, config.AI.Screening.MinimumFitScore, config.AI.Gemini.MaxLogLength,
			logger.WithCommonFields(l, ProviderGemini, gen.Model()))
		opts = append(opts, ranking.WithScreener(screener))
		l.Info("screening enabled", zap.String("model", gen.Model()))
	}

	c.service = ranking.NewService(st, resolver.Resolver, l, opts...)
	return c, nil
}

func buildStore(cfg StoreConfig, l *zap.Logger) (ranking.Store, error) {
	switch cfg.Driver {
	case StorePostgres:
		dsn, err := postgresDSN(cfg)
		if err != nil {
			return nil, err
		}
		pg, err := store.OpenPostgres(dsn, l)
		if err != nil {
			return nil, err
		}
		l.Info("using postgres store")
		return pg, nil
	default:
		mem := store.NewMemory()
		if cfg.SeedFile != "" {
			if err := mem.LoadFile(cfg.SeedFile); err != nil {
				return nil, fmt.Errorf("loading seed file: %w", err)
			}
		}
		l.Info("using in-memory store", zap.String("seed_file", cfg.SeedFile))
		return mem, nil
	}
}

func postgresDSN(cfg StoreConfig) (string, error) {
	return secrets.Load(secrets.Source{
		Name:  "postgres dsn",
		Value: cfg.DSN,
		File:  cfg.DSNFile,
	})
}

type cachedResolver struct {
	*embeddings.Resolver
	cache embeddings.Cache
}

// buildResolver returns the gemini generator as well when it is the embedding
// provider so that screening can reuse the client.
func buildResolver(ctx context.Context, config *Config, l *zap.Logger) (*cachedResolver, *gemini.Generator, error) {
	var (
		embedder matching.Embedder
		model    string
		gen      *gemini.Generator
	)

	switch config.AI.EmbeddingProvider {
	case ProviderOpenAI:
		key, err := secrets.Load(secrets.Source{
			Name:  "openai api key",
			Value: config.AI.OpenAI.APIKey,
			Env:   config.AI.OpenAI.APIKeyEnv,
			File:  config.AI.OpenAI.APIKeyFile,
		})
		if err != nil {
			return nil, nil, err
		}
		e, err := openai.NewEmbedder(key, config.AI.OpenAI.BaseURL, config.AI.OpenAI.Model, config.AI.OpenAI.Dimensions, l)
		if err != nil {
			return nil, nil, err
		}
		embedder, model = e, embeddings.ModelID(e.Model(), config.AI.OpenAI.Dimensions)
	default:
		g, err := buildGemini(ctx, config.AI.Gemini, l)
		if err != nil {
			return nil, nil, err
		}
		embedder, model, gen = g, embeddings.ModelID(g.EmbeddingModel(), config.AI.Gemini.Dimensions), g
	}

	cache, err := buildCache(config.Cache)
	if err != nil {
		return nil, nil, err
	}
	l.Info("embeddings configured",
		zap.String("provider", config.AI.EmbeddingProvider),
		zap.String("model", model),
		zap.String("cache", config.Cache.Driver),
	)

	resolver := embeddings.NewResolver(embedder, cache, model,
		logger.WithCommonFields(l, config.AI.EmbeddingProvider, model))

	return &cachedResolver{Resolver: resolver, cache: cache}, gen, nil
}

func buildGemini(ctx context.Context, cfg GeminiConfig, l *zap.Logger) (*gemini.Generator, error) {
	key, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.APIKey,
		Env:   cfg.APIKeyEnv,
		File:  cfg.APIKeyFile,
	})
	if err != nil {
		return nil, err
	}

	return gemini.NewGenerator(ctx, key, gemini.Options{
		Model:          cfg.Model,
		EmbeddingModel: cfg.EmbeddingModel,
		Dimensions:     cfg.Dimensions,
		MaxRetries:     cfg.MaxRetries,
	}, l)
}

func buildCache(cfg CacheConfig) (embeddings.Cache, error) {
	switch cfg.Driver {
	case CacheRedis:
		password, err := secrets.Optional(secrets.Source{
			Name:  "redis password",
			Value: cfg.Redis.Password,
			File:  cfg.RedisPasswordFile,
		})
		if err != nil {
			return nil, err
		}
		opts := cfg.Redis
		opts.Password = password
		return embeddings.NewRedis(opts), nil
	case CacheMemory:
		return embeddings.NewMemory(cfg.SizeBytes, cfg.TTL), nil
	default:
		return nil, nil
	}
}

// pipeline returns a factory for the ranking filters with the named ones disabled.
// Filters keep per-run state, so every ranking call gets fresh instances.
func pipeline(disabled []string) func() []filtering.Filter {
	return func() []filtering.Filter {
		steps := filtering.Default()
		for _, name := range disabled {
			filtering.DisableByName(steps, name, "disabled by configuration")
		}
		return steps
	}
}
