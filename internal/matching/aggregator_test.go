package matching

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap"
)

type stubEmbedder struct {
	mu      sync.Mutex
	vectors map[string]Vector
	err     error
	calls   []string
}

func (s *stubEmbedder) Embed(_ context.Context, text string) (Vector, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, text)
	if s.err != nil {
		return nil, s.err
	}
	if v, ok := s.vectors[text]; ok {
		return v, nil
	}
	return Vector{1, 1, 1}, nil
}

func sampleRequest() Request {
	return Request{
		CandidateID: "c1",
		JobID:       "j1",
		Candidate: CandidateInput{
			Skills:       []string{"React", "Node.js"},
			CurrentTitle: "Senior Backend Engineer",
			SummaryText:  "Eight years building APIs.",
		},
		Job: JobInput{
			Title:           "Senior Backend Engineer",
			DescriptionText: "Node.js services with React dashboards on AWS.",
		},
		IncludeReasons: true,
	}
}

func TestCombineScenario(t *testing.T) {
	overall := Combine(90, 80, 70)
	if overall != 83 {
		t.Fatalf("expected 83, got %d", overall)
	}
	if got := Assess(overall); got != "Strong match — recommended for interview" {
		t.Fatalf("unexpected assessment: %q", got)
	}
}

func TestCombineClampsInputs(t *testing.T) {
	if got := Combine(150, 200, 300); got != 100 {
		t.Fatalf("expected 100, got %d", got)
	}
	if got := Combine(-10, -1, -50); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestAssessIsMonotonic(t *testing.T) {
	tiers := map[string]int{}
	for i, label := range []string{
		"Limited match — may not be suitable",
		"Fair match — review carefully",
		"Good match — consider for interview",
		"Strong match — recommended for interview",
		"Exceptional match — highly recommended for interview",
	} {
		tiers[label] = i
	}

	prev := -1
	for score := 0; score <= 100; score++ {
		tier, ok := tiers[Assess(score)]
		if !ok {
			t.Fatalf("unknown assessment for %d: %q", score, Assess(score))
		}
		if tier < prev {
			t.Fatalf("assessment tier decreased at score %d", score)
		}
		prev = tier
	}
}

func TestReasonsAlwaysEndWithOverallLabel(t *testing.T) {
	for _, overall := range []int{0, 59, 60, 79, 80, 100} {
		reasons := Reasons(0, SkillsMatch{}, ExperienceMatch{Score: 10}, overall)
		if len(reasons) != 1 {
			t.Fatalf("expected only the overall label for %d, got %v", overall, reasons)
		}
	}

	reasons := Reasons(
		90,
		SkillsMatch{MatchingSkills: []string{"Go"}, JobRequiredSkills: []string{"Go", "Kafka"}},
		ExperienceMatch{Score: 95, Reason: "Very similar role title and responsibilities"},
		85,
	)
	want := []string{
		"Matches 1 of 2 required skills",
		"Very similar role title and responsibilities",
		"Excellent semantic match with job requirements",
		"Strong overall fit for this role",
	}
	if !reflect.DeepEqual(reasons, want) {
		t.Fatalf("unexpected reasons:\n%v\nwant\n%v", reasons, want)
	}
}

func TestReasonsCountMatchedJobSkills(t *testing.T) {
	skills := SkillsMatchFor([]string{"React", "React Native"}, []string{"React"})
	if len(skills.MatchingSkills) != 2 {
		t.Fatalf("expected both candidate skills to match, got %v", skills.MatchingSkills)
	}

	reasons := Reasons(50, skills, ExperienceMatch{}, 50)
	if reasons[0] != "Matches 1 of 1 required skills" {
		t.Fatalf("unexpected skills reason: %q", reasons[0])
	}
}

func TestScorerScore(t *testing.T) {
	embedder := &stubEmbedder{}
	scorer := NewScorer(embedder, zap.NewNop())

	result, err := scorer.Score(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.SemanticScore != 100 {
		t.Fatalf("expected identical stub vectors to score 100, got %d", result.SemanticScore)
	}
	if !reflect.DeepEqual(result.SkillsMatch.MatchingSkills, []string{"React", "Node.js"}) {
		t.Fatalf("unexpected matching skills: %v", result.SkillsMatch.MatchingSkills)
	}
	if result.SkillsMatch.Score != 67 {
		t.Fatalf("expected skills score 67, got %d", result.SkillsMatch.Score)
	}
	if result.ExperienceMatch.Score != 95 {
		t.Fatalf("expected experience score 95, got %d", result.ExperienceMatch.Score)
	}

	// round(0.5*100 + 0.3*67 + 0.2*95) = round(89.1)
	if result.MatchScore != 89 {
		t.Fatalf("expected match score 89, got %d", result.MatchScore)
	}
	if result.OverallAssessment != "Strong match — recommended for interview" {
		t.Fatalf("unexpected assessment: %q", result.OverallAssessment)
	}
	if len(result.MatchReasons) == 0 {
		t.Fatalf("expected reasons")
	}
	if len(embedder.calls) != 2 {
		t.Fatalf("expected 2 embedding calls, got %d", len(embedder.calls))
	}
}

func TestScorerUsesPrecomputedEmbeddings(t *testing.T) {
	embedder := &stubEmbedder{}
	scorer := NewScorer(embedder, nil)

	req := sampleRequest()
	req.CandidateEmbedding = Vector{1, 0}
	req.JobEmbedding = Vector{0, 1}

	result, err := scorer.Score(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(embedder.calls) != 0 {
		t.Fatalf("expected no embedding calls, got %d", len(embedder.calls))
	}
	if result.SemanticScore != 50 {
		t.Fatalf("expected orthogonal vectors to score 50, got %d", result.SemanticScore)
	}
}

func TestScorerIsIdempotent(t *testing.T) {
	scorer := NewScorer(&stubEmbedder{}, nil)
	req := sampleRequest()
	req.CandidateEmbedding = Vector{0.2, 0.4, 0.1}
	req.JobEmbedding = Vector{0.3, 0.1, 0.9}

	first, err := scorer.Score(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := scorer.Score(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("results differ:\n%+v\n%+v", first, second)
	}
}

func TestScorerWithoutReasons(t *testing.T) {
	req := sampleRequest()
	req.IncludeReasons = false
	req.CandidateEmbedding = Vector{1}
	req.JobEmbedding = Vector{1}

	result, err := ScoreWith(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.MatchReasons) != 0 {
		t.Fatalf("expected no reasons, got %v", result.MatchReasons)
	}
}

func TestScorerEmbeddingFailure(t *testing.T) {
	scorer := NewScorer(&stubEmbedder{err: errors.New("model overloaded")}, nil)

	result, err := scorer.Score(context.Background(), sampleRequest())
	if !errors.Is(err, ErrEmbeddingUnavailable) {
		t.Fatalf("expected ErrEmbeddingUnavailable, got %v", err)
	}
	if result != nil {
		t.Fatalf("expected no partial result, got %+v", result)
	}
	if !strings.Contains(err.Error(), "model overloaded") {
		t.Fatalf("expected cause in error, got %v", err)
	}
}

func TestScorerEmptyVector(t *testing.T) {
	embedder := &stubEmbedder{vectors: map[string]Vector{}}
	req := sampleRequest()
	embedder.vectors[req.Job.Text()] = Vector{}

	_, err := NewScorer(embedder, nil).Score(context.Background(), req)
	if !errors.Is(err, ErrEmbeddingUnavailable) {
		t.Fatalf("expected ErrEmbeddingUnavailable, got %v", err)
	}
}

func TestScorerWithoutEmbedder(t *testing.T) {
	_, err := NewScorer(nil, nil).Score(context.Background(), sampleRequest())
	if !errors.Is(err, ErrEmbeddingUnavailable) {
		t.Fatalf("expected ErrEmbeddingUnavailable, got %v", err)
	}
}

func TestScorerDimensionMismatch(t *testing.T) {
	req := sampleRequest()
	req.CandidateEmbedding = Vector{1, 2, 3}
	req.JobEmbedding = Vector{1, 2}

	_, err := NewScorer(&stubEmbedder{}, nil).Score(context.Background(), req)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestScorerRejectsEmptyInput(t *testing.T) {
	_, err := NewScorer(&stubEmbedder{}, nil).Score(context.Background(), Request{})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
