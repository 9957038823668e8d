package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/talentmatch/internal/matching"
)

type stubGenerator struct {
	response string
	err      error
	prompt   string
}

func (s *stubGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.response, s.err
}

func sampleMatch() *matching.MatchResult {
	return &matching.MatchResult{
		CandidateID:       "cand-1",
		JobID:             "job-1",
		MatchScore:        82,
		SemanticScore:     88,
		OverallAssessment: "Strong match — recommended for interview",
	}
}

func TestScreenerBuildsPromptAndParses(t *testing.T) {
	stub := &stubGenerator{response: "```json\n{\"fit\": true, \"score\": 0.8, \"reason\": \" Strong Go background \", \"summary\": \"Worth an interview.\"}\n```"}
	screener := NewScreener(stub, 0.5, 0, zap.NewNop())

	candidate := matching.CandidateInput{CurrentTitle: "Go Developer", Skills: []string{"Go", "Kafka"}}
	job := matching.JobInput{Title: "Backend Engineer", DescriptionText: "Go services"}

	assessment, err := screener.Screen(context.Background(), candidate, job, sampleMatch())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !assessment.Fit || assessment.Score != 0.8 {
		t.Fatalf("unexpected assessment: %+v", assessment)
	}
	if assessment.Reason != "Strong Go background" || assessment.Summary != "Worth an interview." {
		t.Fatalf("unexpected text fields: %+v", assessment)
	}
	if assessment.ScoreGap != -2 || assessment.Disagrees {
		t.Fatalf("expected close agreement with the match score, got %+v", assessment)
	}
	if assessment.Raw != stub.response {
		t.Fatalf("expected raw response to be kept")
	}

	for _, fragment := range []string{`"currentTitle": "Go Developer"`, `"title": "Backend Engineer"`, `"matchScore": 82`} {
		if !strings.Contains(stub.prompt, fragment) {
			t.Fatalf("prompt missing %q:\n%s", fragment, stub.prompt)
		}
	}
	if strings.Contains(stub.prompt, "{{") {
		t.Fatalf("prompt has unrendered actions:\n%s", stub.prompt)
	}
}

func TestScreenerAppliesThreshold(t *testing.T) {
	stub := &stubGenerator{response: `Here is my verdict: {"fit": true, "score": 0.3, "reason": "Thin experience"} Hope it helps.`}
	screener := NewScreener(stub, 0.5, 0, nil)

	assessment, err := screener.Screen(context.Background(), matching.CandidateInput{}, matching.JobInput{}, sampleMatch())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if assessment.Fit {
		t.Fatalf("expected fit to be lowered by threshold, got %+v", assessment)
	}
	if assessment.Score != 0.3 {
		t.Fatalf("unexpected score: %v", assessment.Score)
	}
}

func TestScreenerFlagsDisagreement(t *testing.T) {
	tests := []struct {
		name      string
		score     string
		wantGap   int
		disagrees bool
	}{
		{name: "model far below", score: "0.2", wantGap: -62, disagrees: true},
		{name: "model far above", score: "1", wantGap: 18, disagrees: false},
		{name: "boundary", score: "0.52", wantGap: -30, disagrees: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.WarnLevel)
			stub := &stubGenerator{response: `{"fit": false, "score": ` + tt.score + `, "reason": "r", "summary": "s"}`}
			screener := NewScreener(stub, 0, 0, zap.New(core))

			assessment, err := screener.Screen(context.Background(), matching.CandidateInput{}, matching.JobInput{}, sampleMatch())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if assessment.ScoreGap != tt.wantGap || assessment.Disagrees != tt.disagrees {
				t.Fatalf("got gap %d disagrees %v, want %d %v", assessment.ScoreGap, assessment.Disagrees, tt.wantGap, tt.disagrees)
			}

			wantLogs := 0
			if tt.disagrees {
				wantLogs = 1
			}
			if n := logs.FilterMessage("model disagrees with computed match").Len(); n != wantLogs {
				t.Fatalf("expected %d disagreement warnings, got %d", wantLogs, n)
			}
		})
	}
}

func TestScreenerErrors(t *testing.T) {
	t.Run("generator failure", func(t *testing.T) {
		screener := NewScreener(&stubGenerator{err: errors.New("quota")}, 0, 0, nil)
		if _, err := screener.Screen(context.Background(), matching.CandidateInput{}, matching.JobInput{}, sampleMatch()); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("missing match", func(t *testing.T) {
		screener := NewScreener(&stubGenerator{}, 0, 0, nil)
		if _, err := screener.Screen(context.Background(), matching.CandidateInput{}, matching.JobInput{}, nil); err == nil {
			t.Fatal("expected error")
		}
	})
}

func TestParseVerdictRejectsMalformedResponses(t *testing.T) {
	tests := map[string]string{
		"no object":       "not json",
		"broken object":   `{"fit": true, "score": }`,
		"fit missing":     `{"score": 0.7}`,
		"score missing":   `{"fit": true}`,
		"score above one": `{"fit": true, "score": 7.5}`,
		"negative score":  `{"fit": false, "score": -0.1}`,
		"string fit":      `{"fit": "yes", "score": 0.7}`,
		"string score":    `{"fit": true, "score": "0.7"}`,
	}

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := parseVerdict(raw); !errors.Is(err, errMalformedVerdict) {
				t.Fatalf("expected errMalformedVerdict for %s, got %v", raw, err)
			}
		})
	}
}

func TestParseVerdictAcceptsBounds(t *testing.T) {
	for _, raw := range []string{`{"fit": false, "score": 0}`, `{"fit": true, "score": 1.0}`} {
		v, err := parseVerdict(raw)
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", raw, err)
		}
		if v.Fit == nil || v.Score == nil {
			t.Fatalf("expected fit and score to be set: %+v", v)
		}
	}
}
