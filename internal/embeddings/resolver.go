package embeddings

import (
	"context"

	"go.uber.org/zap"

	"github.com/spigell/talentmatch/internal/matching"
)

// Resolver returns cached embeddings and fills the cache on a miss.
// Cache failures are logged and the provider is used instead.
type Resolver struct {
	embedder matching.Embedder
	cache    Cache
	model    string
	logger   *zap.Logger
}

// NewResolver wraps embedder. cache may be nil, which disables caching.
func NewResolver(embedder matching.Embedder, cache Cache, model string, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{embedder: embedder, cache: cache, model: model, logger: logger}
}

// Embed embeds text without caching.
func (r *Resolver) Embed(ctx context.Context, text string) (matching.Vector, error) {
	if r.embedder == nil {
		return nil, matching.ErrEmbeddingUnavailable
	}
	return r.embedder.Embed(ctx, text)
}

// Resolve returns the embedding of text for the given entity.
func (r *Resolver) Resolve(ctx context.Context, kind Kind, tenant, id, text string) (matching.Vector, error) {
	if r.cache == nil || id == "" {
		return r.Embed(ctx, text)
	}

	key := Key(kind, tenant, id, r.model, text)
	log := r.logger.With(zap.String("cache_key", key))

	vec, ok, err := r.cache.Get(ctx, key)
	switch {
	case err != nil:
		log.Warn("embedding cache lookup failed", zap.Error(err))
	case ok:
		log.Debug("embedding cache hit")
		return vec, nil
	}

	vec, err = r.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if err := r.cache.Set(ctx, key, vec); err != nil {
		log.Warn("embedding cache store failed", zap.Error(err))
	}
	return vec, nil
}
