package gemini

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/talentmatch/internal/matching"
)

const embeddingTaskType = "SEMANTIC_SIMILARITY"

// Embed returns the embedding of text using the configured embedding model.
func (g *Generator) Embed(ctx context.Context, text string) (matching.Vector, error) {
	if g == nil || g.models == nil {
		return nil, fmt.Errorf("%w: gemini generator is not initialized", matching.ErrEmbeddingUnavailable)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: text must not be empty", matching.ErrInvalidInput)
	}

	cfg := &genai.EmbedContentConfig{TaskType: embeddingTaskType}
	if g.dimensions > 0 {
		dims := g.dimensions
		cfg.OutputDimensionality = &dims
	}

	var resp *genai.EmbedContentResponse
	err := g.withRetry(ctx, "embed content", func() error {
		var err error
		resp, err = g.models.EmbedContent(ctx, g.embeddingModel, genai.Text(text), cfg)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: gemini embed content: %w", matching.ErrEmbeddingUnavailable, err)
	}

	if resp == nil || len(resp.Embeddings) == 0 || resp.Embeddings[0] == nil || len(resp.Embeddings[0].Values) == 0 {
		return nil, fmt.Errorf("%w: gemini api returned no embedding", matching.ErrEmbeddingUnavailable)
	}

	values := resp.Embeddings[0].Values
	vec := make(matching.Vector, len(values))
	for i, v := range values {
		vec[i] = float64(v)
	}

	g.logger.Debug("gemini embedding generated",
		zap.String("model", g.embeddingModel),
		zap.Int("dimensions", len(vec)),
		zap.Int("text_length", len(text)),
	)

	return vec, nil
}
