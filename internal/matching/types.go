package matching

// Vector is an embedding produced by a text-embedding model.
type Vector []float64

// CandidateInput is the part of a candidate profile the scorer looks at.
type CandidateInput struct {
	Skills       []string `json:"skills" mapstructure:"skills"`
	CurrentTitle string   `json:"currentTitle" mapstructure:"current-title"`
	SummaryText  string   `json:"summaryText" mapstructure:"summary"`
	Location     string   `json:"location,omitempty" mapstructure:"location"`
}

// JobInput is the part of a job posting the scorer looks at.
// RequiredSkills is optional; when empty the skills are extracted from the
// title and description.
type JobInput struct {
	Title           string   `json:"title" mapstructure:"title"`
	DescriptionText string   `json:"descriptionText" mapstructure:"description"`
	Location        string   `json:"location,omitempty" mapstructure:"location"`
	RequiredSkills  []string `json:"requiredSkills,omitempty" mapstructure:"required-skills"`
}

// Text returns the text embedded for the candidate.
func (c CandidateInput) Text() string {
	return joinNonEmpty(c.CurrentTitle, c.SummaryText, joinSkills(c.Skills))
}

// Text returns the text embedded for the job.
func (j JobInput) Text() string {
	return joinNonEmpty(j.Title, j.DescriptionText, joinSkills(j.RequiredSkills))
}

// Skills returns the skills the job requires.
func (j JobInput) Skills() []string {
	if len(j.RequiredSkills) > 0 {
		return dedupeFold(j.RequiredSkills)
	}
	return ExtractSkills(j.Title + "\n" + j.DescriptionText)
}

type SkillsMatch struct {
	MatchingSkills    []string `json:"matchingSkills"`
	CandidateSkills   []string `json:"candidateSkills"`
	JobRequiredSkills []string `json:"jobRequiredSkills"`
	Score             int      `json:"score"`
}

type ExperienceMatch struct {
	Score  int    `json:"score"`
	Reason string `json:"reason"`
}

// MatchResult is the outcome of scoring one candidate against one job.
type MatchResult struct {
	CandidateID       string          `json:"candidateId"`
	JobID             string          `json:"jobId"`
	MatchScore        int             `json:"matchScore"`
	SemanticScore     int             `json:"semanticScore"`
	SkillsMatch       SkillsMatch     `json:"skillsMatch"`
	ExperienceMatch   ExperienceMatch `json:"experienceMatch"`
	MatchReasons      []string        `json:"matchReasons"`
	OverallAssessment string          `json:"overallAssessment"`
}
