package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/spigell/talentmatch/internal/utils"
)

const (
	defaultModel          = "gemini-2.5-flash"
	defaultEmbeddingModel = "gemini-embedding-001"

	baseRetryDelay = time.Second
	maxRetryDelay  = 10 * time.Second
)

var retryDelayPattern = regexp.MustCompile(`(?i)retry (?:after|in) (\d+(?:\.\d+)?)\s*s`)

// wait is replaced in tests.
var wait = utils.WaitFor

type models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	EmbedContent(ctx context.Context, model string, contents []*genai.Content, config *genai.EmbedContentConfig) (*genai.EmbedContentResponse, error)
}

// Generator wraps the Google GenAI client for text generation and embeddings.
type Generator struct {
	models         models
	model          string
	embeddingModel string
	dimensions     int32
	maxRetries     int
	logger         *zap.Logger
}

// Options tunes a Generator. Zero values fall back to defaults.
type Options struct {
	Model          string
	EmbeddingModel string
	Dimensions     int

	// MaxRetries is the number of attempts per call; values below 1 mean a single attempt.
	MaxRetries int
}

// NewGenerator creates a new Generator configured for the Gemini API backend.
func NewGenerator(ctx context.Context, apiKey string, opts Options, logger *zap.Logger) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newGenerator(client.Models, opts, logger), nil
}

func newGenerator(m models, opts Options, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}

	embeddingModel := strings.TrimSpace(opts.EmbeddingModel)
	if embeddingModel == "" {
		embeddingModel = defaultEmbeddingModel
	}

	retries := opts.MaxRetries
	if retries < 1 {
		retries = 1
	}

	return &Generator{
		models:         m,
		model:          model,
		embeddingModel: embeddingModel,
		dimensions:     int32(max(opts.Dimensions, 0)),
		maxRetries:     retries,
		logger:         logger,
	}
}

// GenerateContent sends the prompt to Gemini and returns the textual response.
func (g *Generator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	if g == nil || g.models == nil {
		return "", errors.New("gemini generator is not initialized")
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", errors.New("prompt must not be empty")
	}

	var resp *genai.GenerateContentResponse
	err := g.withRetry(ctx, "generate content", func() error {
		var err error
		resp, err = g.models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}

	return output, nil
}

func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

func (g *Generator) EmbeddingModel() string {
	if g == nil {
		return ""
	}
	return g.embeddingModel
}

func (g *Generator) withRetry(ctx context.Context, op string, call func() error) error {
	var err error
	for attempt := 1; attempt <= g.maxRetries; attempt++ {
		err = call()
		if err == nil {
			return nil
		}

		delay, retry := retryDelay(err, attempt)
		if !retry || attempt == g.maxRetries {
			return err
		}

		g.logger.Warn("gemini call failed, retrying",
			zap.String("operation", op),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		if werr := wait(ctx, delay); werr != nil {
			return errors.Join(err, werr)
		}
	}
	return err
}

// retryDelay decides whether err is transient and how long to back off.
// Quota errors asking for a long pause are not retried.
func retryDelay(err error, attempt int) (time.Duration, bool) {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return 0, false
	}

	backoff := baseRetryDelay * time.Duration(1<<(attempt-1))

	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		if hinted, ok := parseRetryHint(apiErr.Message); ok {
			if hinted > maxRetryDelay {
				return 0, false
			}
			return hinted, true
		}
		return min(backoff, maxRetryDelay), true
	case apiErr.Code >= http.StatusInternalServerError:
		return min(backoff, maxRetryDelay), true
	default:
		return 0, false
	}
}

func parseRetryHint(message string) (time.Duration, bool) {
	m := retryDelayPattern.FindStringSubmatch(message)
	if len(m) != 2 {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return time.Duration(seconds * float64(time.Second)), true
}
