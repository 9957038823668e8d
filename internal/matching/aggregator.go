package matching

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	semanticWeight   = 0.5
	skillsWeight     = 0.3
	experienceWeight = 0.2
)

// Embedder turns text into an embedding vector.
type Embedder interface {
	Embed(ctx context.Context, text string) (Vector, error)
}

// Request carries everything needed to score one candidate against one job.
// Precomputed embeddings are used as-is; missing ones are generated.
type Request struct {
	CandidateID        string
	JobID              string
	Candidate          CandidateInput
	Job                JobInput
	CandidateEmbedding Vector
	JobEmbedding       Vector
	IncludeReasons     bool
}

// Scorer combines semantic similarity with the skills and experience heuristics.
type Scorer struct {
	embedder Embedder
	logger   *zap.Logger
}

func NewScorer(embedder Embedder, logger *zap.Logger) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scorer{embedder: embedder, logger: logger}
}

// Score embeds whatever is missing and scores the pair.
// An embedding failure is returned as ErrEmbeddingUnavailable and no result.
func (s *Scorer) Score(ctx context.Context, req Request) (*MatchResult, error) {
	if strings.TrimSpace(req.Candidate.Text()) == "" || strings.TrimSpace(req.Job.Text()) == "" {
		return nil, fmt.Errorf("%w: candidate and job text are required", ErrInvalidInput)
	}

	candidateVec, jobVec := req.CandidateEmbedding, req.JobEmbedding

	g, gctx := errgroup.WithContext(ctx)
	if len(candidateVec) == 0 {
		g.Go(func() error {
			v, err := s.embed(gctx, req.Candidate.Text())
			if err != nil {
				return fmt.Errorf("candidate %q: %w", req.CandidateID, err)
			}
			candidateVec = v
			return nil
		})
	}
	if len(jobVec) == 0 {
		g.Go(func() error {
			v, err := s.embed(gctx, req.Job.Text())
			if err != nil {
				return fmt.Errorf("job %q: %w", req.JobID, err)
			}
			jobVec = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	req.CandidateEmbedding = candidateVec
	req.JobEmbedding = jobVec

	result, err := ScoreWith(req)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("scored match",
		zap.String("candidate_id", req.CandidateID),
		zap.String("job_id", req.JobID),
		zap.Int("match_score", result.MatchScore),
		zap.Int("semantic_score", result.SemanticScore),
		zap.Int("skills_score", result.SkillsMatch.Score),
		zap.Int("experience_score", result.ExperienceMatch.Score),
	)

	return result, nil
}

func (s *Scorer) embed(ctx context.Context, text string) (Vector, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("%w: no embedding provider configured", ErrEmbeddingUnavailable)
	}

	v, err := s.embedder.Embed(ctx, text)
	if err != nil {
		if errors.Is(err, ErrEmbeddingUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingUnavailable, err)
	}
	if len(v) == 0 {
		return nil, fmt.Errorf("%w: empty vector", ErrEmbeddingUnavailable)
	}

	return v, nil
}

// ScoreWith scores a pair whose embeddings are both present.
func ScoreWith(req Request) (*MatchResult, error) {
	semantic, err := SemanticScore(req.CandidateEmbedding, req.JobEmbedding)
	if err != nil {
		return nil, err
	}

	skills := SkillsMatchFor(req.Candidate.Skills, req.Job.Skills())
	experience := ExperienceMatchFor(req.Candidate, req.Job)
	overall := Combine(semantic, skills.Score, experience.Score)

	result := &MatchResult{
		CandidateID:       req.CandidateID,
		JobID:             req.JobID,
		MatchScore:        overall,
		SemanticScore:     semantic,
		SkillsMatch:       skills,
		ExperienceMatch:   experience,
		MatchReasons:      []string{},
		OverallAssessment: Assess(overall),
	}

	if req.IncludeReasons {
		result.MatchReasons = Reasons(semantic, skills, experience, overall)
	}

	return result, nil
}

// Combine weighs the three component scores into one overall score.
func Combine(semantic, skills, experience int) int {
	overall := semanticWeight*float64(clamp(semantic)) +
		skillsWeight*float64(clamp(skills)) +
		experienceWeight*float64(clamp(experience))
	return clamp(int(math.Round(overall)))
}

// Reasons explains a score. The overall-fit label is always present.
func Reasons(semantic int, skills SkillsMatch, experience ExperienceMatch, overall int) []string {
	reasons := make([]string, 0, 4)

	if len(skills.MatchingSkills) > 0 {
		covered := len(MatchingSkills(skills.JobRequiredSkills, skills.MatchingSkills))
		reasons = append(reasons, fmt.Sprintf("Matches %d of %d required skills", covered, len(skills.JobRequiredSkills)))
	}

	if experience.Score >= 80 {
		reasons = append(reasons, experience.Reason)
	}

	switch {
	case semantic >= 85:
		reasons = append(reasons, "Excellent semantic match with job requirements")
	case semantic >= 70:
		reasons = append(reasons, "Good semantic alignment with job description")
	}

	switch {
	case overall >= 80:
		reasons = append(reasons, "Strong overall fit for this role")
	case overall >= 60:
		reasons = append(reasons, "Good potential fit with some development areas")
	default:
		reasons = append(reasons, "Partial fit — significant gaps to consider")
	}

	return reasons
}

// Assess labels an overall score. Higher scores never get a lower tier.
func Assess(score int) string {
	switch {
	case score >= 90:
		return "Exceptional match — highly recommended for interview"
	case score >= 80:
		return "Strong match — recommended for interview"
	case score >= 70:
		return "Good match — consider for interview"
	case score >= 60:
		return "Fair match — review carefully"
	default:
		return "Limited match — may not be suitable"
	}
}
