package ai

import (
	"context"

	"github.com/spigell/talentmatch/internal/matching"
)

// FitAssessment is an LLM's opinion on a candidate for a job.
type FitAssessment struct {
	Fit     bool    `json:"fit"`
	Score   float64 `json:"score"`
	Reason  string  `json:"reason"`
	Summary string  `json:"summary"`

	// ScoreGap is the model's score in points minus the computed match score.
	ScoreGap  int    `json:"scoreGap"`
	Disagrees bool   `json:"disagrees"`
	Raw       string `json:"-"`
}

// Screener reviews a scored candidate/job pair with a language model.
type Screener interface {
	Screen(ctx context.Context, candidate matching.CandidateInput, job matching.JobInput, result *matching.MatchResult) (*FitAssessment, error)
}
