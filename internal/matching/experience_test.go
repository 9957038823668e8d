package matching

import (
	"math"
	"testing"
)

func TestTitleSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{name: "identical", a: "Senior Backend Engineer", b: "Senior Backend Engineer", want: 1},
		{name: "case insensitive", a: "senior backend engineer", b: "SENIOR BACKEND ENGINEER", want: 1},
		{name: "partial", a: "Senior Backend Engineer", b: "Backend Engineer", want: 2.0 / 3.0},
		{name: "short tokens ignored", a: "QA of UI", b: "QA UI", want: 0},
		{name: "disjoint", a: "Product Designer", b: "Data Scientist", want: 0},
		{name: "empty", a: "", b: "Engineer", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TitleSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("TitleSimilarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestClassifyExperience(t *testing.T) {
	tests := []struct {
		text string
		want ExperienceLevel
	}{
		{text: "Junior Frontend Developer", want: LevelJunior},
		{text: "Entry level support", want: LevelJunior},
		{text: "Backend Developer", want: LevelMid},
		{text: "Tech Lead", want: LevelSenior},
		{text: "Principal Engineer", want: LevelSenior},
		{text: "Engineering Manager", want: LevelManagement},
		{text: "Head of Data", want: LevelManagement},
		{text: "Mentor junior engineers as a Senior developer", want: LevelSenior},
		{text: "Senior Engineering Manager", want: LevelManagement},
		{text: "Reduce overhead and misleading metrics", want: LevelMid},
		{text: "", want: LevelMid},
	}

	for _, tt := range tests {
		if got := ClassifyExperience(tt.text); got != tt.want {
			t.Fatalf("ClassifyExperience(%q) = %s, want %s", tt.text, got, tt.want)
		}
	}
}

func TestExperienceMatchFor(t *testing.T) {
	tests := []struct {
		name       string
		candidate  CandidateInput
		job        JobInput
		wantScore  int
		wantReason string
	}{
		{
			name:       "identical titles are capped",
			candidate:  CandidateInput{CurrentTitle: "Senior Backend Engineer"},
			job:        JobInput{Title: "Senior Backend Engineer"},
			wantScore:  95,
			wantReason: "Very similar role title and responsibilities",
		},
		{
			name:       "one shared token is not enough",
			candidate:  CandidateInput{CurrentTitle: "Backend Engineer"},
			job:        JobInput{Title: "Senior Backend Developer"},
			wantScore:  40,
			wantReason: "Different role but may have relevant skills",
		},
		{
			name:       "half overlap",
			candidate:  CandidateInput{CurrentTitle: "Platform Engineer"},
			job:        JobInput{Title: "Backend Engineer"},
			wantScore:  55,
			wantReason: "Related role with transferable experience",
		},
		{
			name:       "same tier",
			candidate:  CandidateInput{CurrentTitle: "Senior Designer"},
			job:        JobInput{Title: "Lead Architect"},
			wantScore:  60,
			wantReason: "Matching experience level (senior)",
		},
		{
			name:       "different tier",
			candidate:  CandidateInput{CurrentTitle: "Junior Analyst"},
			job:        JobInput{Title: "Director of Sales"},
			wantScore:  40,
			wantReason: "Different role but may have relevant skills",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExperienceMatchFor(tt.candidate, tt.job)
			if got.Score != tt.wantScore {
				t.Fatalf("score = %d, want %d (%s)", got.Score, tt.wantScore, got.Reason)
			}
			if got.Reason != tt.wantReason {
				t.Fatalf("reason = %q, want %q", got.Reason, tt.wantReason)
			}
		})
	}
}
