package matching

import (
	"fmt"
	"math"
	"strings"
	"unicode"
)

// ExperienceLevel is an ordered seniority tier.
type ExperienceLevel string

const (
	LevelJunior     ExperienceLevel = "junior"
	LevelMid        ExperienceLevel = "mid-level"
	LevelSenior     ExperienceLevel = "senior"
	LevelManagement ExperienceLevel = "management"
)

const (
	reasonSimilarRole   = "Very similar role title and responsibilities"
	reasonRelatedRole   = "Related role with transferable experience"
	reasonMatchingLevel = "Matching experience level (%s)"
	reasonDifferentRole = "Different role but may have relevant skills"
)

const (
	titleSimilarityStrong  = 0.7
	titleSimilarityRelated = 0.4
)

// levelKeywords is checked top to bottom; the first tier with a keyword in
// the text wins, so "Senior Engineering Manager" is management and
// "Junior to Senior" is senior.
var levelKeywords = []struct {
	level    ExperienceLevel
	keywords []string
}{
	{LevelManagement, []string{"manager", "director", "head"}},
	{LevelSenior, []string{"senior", "lead", "principal"}},
	{LevelJunior, []string{"junior", "entry", "associate"}},
}

// ClassifyExperience returns the experience tier implied by text.
// Text without any tier keyword is mid-level.
func ClassifyExperience(text string) ExperienceLevel {
	words := make(map[string]struct{})
	for _, w := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		words[w] = struct{}{}
	}

	for _, tier := range levelKeywords {
		for _, kw := range tier.keywords {
			if _, ok := words[kw]; ok {
				return tier.level
			}
		}
	}

	return LevelMid
}

// TitleSimilarity is the share of significant title tokens two titles have
// in common. Tokens of two characters or fewer are ignored.
func TitleSimilarity(a, b string) float64 {
	ta := titleTokens(a)
	tb := titleTokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	common := 0
	for t := range ta {
		if _, ok := tb[t]; ok {
			common++
		}
	}

	return float64(common) / float64(max(len(ta), len(tb)))
}

func titleTokens(title string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, t := range strings.Fields(strings.ToLower(title)) {
		if len([]rune(t)) <= 2 {
			continue
		}
		tokens[t] = struct{}{}
	}
	return tokens
}

// ExperienceMatchFor scores how well the candidate's experience fits the job.
func ExperienceMatchFor(candidate CandidateInput, job JobInput) ExperienceMatch {
	similarity := TitleSimilarity(candidate.CurrentTitle, job.Title)
	titleScore := int(math.Round(similarity * 100))

	switch {
	case similarity >= titleSimilarityStrong:
		return ExperienceMatch{Score: clamp(min(95, titleScore+10)), Reason: reasonSimilarRole}
	case similarity >= titleSimilarityRelated:
		return ExperienceMatch{Score: clamp(min(85, titleScore+5)), Reason: reasonRelatedRole}
	}

	candidateLevel := ClassifyExperience(candidate.CurrentTitle + " " + candidate.SummaryText)
	jobLevel := ClassifyExperience(job.Title + " " + job.DescriptionText)
	if candidateLevel == jobLevel {
		return ExperienceMatch{
			Score:  clamp(max(60, titleScore)),
			Reason: fmt.Sprintf(reasonMatchingLevel, jobLevel),
		}
	}

	return ExperienceMatch{Score: clamp(max(40, titleScore)), Reason: reasonDifferentRole}
}
