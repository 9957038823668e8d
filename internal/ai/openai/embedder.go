package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/spigell/talentmatch/internal/matching"
)

const defaultEmbeddingModel = openai.SmallEmbedding3

type embeddingsCreator interface {
	CreateEmbeddings(ctx context.Context, conv openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// Embedder produces embeddings with the OpenAI embeddings API.
type Embedder struct {
	client     embeddingsCreator
	model      openai.EmbeddingModel
	dimensions int
	logger     *zap.Logger
}

// NewEmbedder creates an Embedder. An empty model selects text-embedding-3-small.
// baseURL is optional and points the client at an OpenAI-compatible endpoint.
func NewEmbedder(apiKey, baseURL, model string, dimensions int, logger *zap.Logger) (*Embedder, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		cfg.BaseURL = baseURL
	}

	return newEmbedder(openai.NewClientWithConfig(cfg), model, dimensions, logger), nil
}

func newEmbedder(client embeddingsCreator, model string, dimensions int, logger *zap.Logger) *Embedder {
	if logger == nil {
		logger = zap.NewNop()
	}

	m := openai.EmbeddingModel(strings.TrimSpace(model))
	if m == "" {
		m = defaultEmbeddingModel
	}

	return &Embedder{
		client:     client,
		model:      m,
		dimensions: max(dimensions, 0),
		logger:     logger,
	}
}

func (e *Embedder) Model() string {
	if e == nil {
		return ""
	}
	return string(e.model)
}

func (e *Embedder) Embed(ctx context.Context, text string) (matching.Vector, error) {
	if e == nil || e.client == nil {
		return nil, fmt.Errorf("%w: openai embedder is not initialized", matching.ErrEmbeddingUnavailable)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: text must not be empty", matching.ErrInvalidInput)
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      []string{text},
		Model:      e.model,
		Dimensions: e.dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: openai create embeddings: %w", matching.ErrEmbeddingUnavailable, err)
	}

	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("%w: openai api returned no embedding", matching.ErrEmbeddingUnavailable)
	}

	values := resp.Data[0].Embedding
	vec := make(matching.Vector, len(values))
	for i, v := range values {
		vec[i] = float64(v)
	}

	e.logger.Debug("openai embedding generated",
		zap.String("model", string(e.model)),
		zap.Int("dimensions", len(vec)),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
	)

	return vec, nil
}
