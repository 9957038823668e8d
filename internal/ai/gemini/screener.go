package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"text/template"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/spigell/talentmatch/internal/ai"
	"github.com/spigell/talentmatch/internal/matching"
	"github.com/spigell/talentmatch/internal/utils"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Screener asks Gemini for a second opinion on a scored pair.
type Screener struct {
	generator contentGenerator
	minScore  float64
	logger    *zap.Logger
	maxLogLen int
}

//go:embed prompt.md
var promptSource string

var promptTemplate = template.Must(template.New("screening").Option("missingkey=error").Parse(promptSource))

const (
	defaultMaxLogLength = 200

	// disagreementGap is the distance in points between the model's score and
	// the computed match score from which the two are reported as disagreeing.
	disagreementGap = 30
)

var errMalformedVerdict = errors.New("malformed screening verdict")

// verdict is the JSON object the prompt asks the model for.
type verdict struct {
	Fit     *bool    `json:"fit"`
	Score   *float64 `json:"score"`
	Reason  string   `json:"reason"`
	Summary string   `json:"summary"`
}

type promptInput struct {
	Candidate string
	Job       string
	Match     string
}

func NewScreener(generator contentGenerator, minScore float64, maxLogLength int, logger *zap.Logger) *Screener {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Screener{
		generator: generator,
		minScore:  minScore,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

// Screen asks the model whether the candidate should be interviewed.
// A model score under the configured minimum always turns fit off.
func (s *Screener) Screen(ctx context.Context, candidate matching.CandidateInput, job matching.JobInput, result *matching.MatchResult) (*ai.FitAssessment, error) {
	if result == nil {
		return nil, errors.New("match result is required")
	}

	log := s.logger.With(
		zap.String("candidate_id", result.CandidateID),
		zap.String("job_id", result.JobID),
	)

	prompt, err := renderPrompt(candidate, job, result)
	if err != nil {
		return nil, err
	}

	log.Debug("gemini screening request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, s.maxLogLen)),
	)

	raw, err := s.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	log.Debug("gemini screening response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, s.maxLogLen)),
	)

	v, err := parseVerdict(raw)
	if err != nil {
		return nil, err
	}

	assessment := &ai.FitAssessment{
		Fit:      *v.Fit,
		Score:    *v.Score,
		Reason:   strings.TrimSpace(v.Reason),
		Summary:  strings.TrimSpace(v.Summary),
		ScoreGap: int(math.Round(*v.Score*100)) - result.MatchScore,
		Raw:      raw,
	}

	if s.minScore > 0 && assessment.Score < s.minScore {
		log.Debug("set fit to false by score threshold",
			zap.Float64("score", assessment.Score),
			zap.Float64("threshold", s.minScore),
		)
		assessment.Fit = false
	}

	if abs(assessment.ScoreGap) >= disagreementGap {
		assessment.Disagrees = true
		log.Warn("model disagrees with computed match",
			zap.Int("match_score", result.MatchScore),
			zap.Float64("model_score", assessment.Score),
			zap.Int("gap", assessment.ScoreGap),
		)
	}

	return assessment, nil
}

func renderPrompt(candidate matching.CandidateInput, job matching.JobInput, result *matching.MatchResult) (string, error) {
	var in promptInput
	for _, part := range []struct {
		dst  *string
		name string
		v    any
	}{
		{&in.Candidate, "candidate", candidate},
		{&in.Job, "job", job},
		{&in.Match, "match", result},
	} {
		data, err := json.MarshalIndent(part.v, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshal %s payload: %w", part.name, err)
		}
		*part.dst = string(data)
	}

	var buf bytes.Buffer
	if err := promptTemplate.Execute(&buf, in); err != nil {
		return "", fmt.Errorf("render screening prompt: %w", err)
	}
	return buf.String(), nil
}

// parseVerdict decodes the first JSON object in raw. Models often wrap the
// object in a code fence or add a sentence around it.
func parseVerdict(raw string) (*verdict, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: no json object in response", errMalformedVerdict)
	}

	var v verdict
	if err := json.Unmarshal([]byte(raw[start:end+1]), &v); err != nil {
		return nil, fmt.Errorf("%w: %w", errMalformedVerdict, err)
	}

	switch {
	case v.Fit == nil:
		return nil, fmt.Errorf("%w: fit is missing", errMalformedVerdict)
	case v.Score == nil:
		return nil, fmt.Errorf("%w: score is missing", errMalformedVerdict)
	case *v.Score < 0 || *v.Score > 1:
		return nil, fmt.Errorf("%w: score %v is outside 0..1", errMalformedVerdict, *v.Score)
	}
	return &v, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
