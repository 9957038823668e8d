package matching

import (
	"math"
	"strings"
)

// skillVocabulary is the closed list recognised by ExtractSkills, in output order.
// Single-letter names are left out since they would be found in any text.
var skillVocabulary = []string{
	// languages
	"JavaScript", "TypeScript", "Python", "Java", "Go", "Golang", "Rust", "C++", "C#",
	"Ruby", "PHP", "Swift", "Kotlin", "Scala", "Elixir", "Haskell", "Perl",
	"SQL", "HTML", "CSS", "Sass", "Bash",
	// frontend
	"React", "React Native", "Next.js", "Vue", "Nuxt", "Angular", "Svelte", "Redux",
	"Tailwind", "jQuery", "Webpack", "Flutter",
	// backend
	"Node.js", "Express", "NestJS", "Django", "Flask", "FastAPI", "Spring", "Rails",
	"Laravel", ".NET", "GraphQL", "REST", "gRPC", "Microservices",
	// data
	"PostgreSQL", "MySQL", "MongoDB", "Redis", "Elasticsearch", "Cassandra",
	"DynamoDB", "Firebase", "Firestore", "Kafka", "RabbitMQ", "Spark", "Hadoop",
	"Airflow", "Snowflake", "BigQuery", "Pandas", "NumPy",
	// machine learning
	"Machine Learning", "Deep Learning", "TensorFlow", "PyTorch", "scikit-learn",
	"NLP", "LLM", "Computer Vision",
	// cloud and infrastructure
	"AWS", "Azure", "GCP", "Google Cloud", "Docker", "Kubernetes", "Terraform",
	"Ansible", "Helm", "Linux", "Nginx", "CI/CD", "Jenkins", "GitHub Actions",
	"Prometheus", "Grafana", "Serverless",
	// practice
	"Git", "Agile", "Scrum", "TDD", "DevOps", "Figma",
}

// ExtractSkills returns the vocabulary entries present in text.
// Matching is a case-insensitive substring test, so "Java" is found in
// "JavaScript" and "Go" in "Django".
func ExtractSkills(text string) []string {
	lower := strings.ToLower(text)
	if strings.TrimSpace(lower) == "" {
		return []string{}
	}

	found := make([]string, 0)
	for _, skill := range skillVocabulary {
		if strings.Contains(lower, strings.ToLower(skill)) {
			found = append(found, skill)
		}
	}

	return found
}

// SkillsMatchFor compares candidate skills with job-required skills.
func SkillsMatchFor(candidateSkills, jobSkills []string) SkillsMatch {
	candidate := dedupeFold(candidateSkills)
	job := dedupeFold(jobSkills)
	matching := MatchingSkills(candidate, job)

	return SkillsMatch{
		MatchingSkills:    matching,
		CandidateSkills:   candidate,
		JobRequiredSkills: job,
		Score:             SkillsScore(len(matching), len(job)),
	}
}

// MatchingSkills returns the candidate skills that match at least one job skill.
// Two skills match when either is a case-insensitive substring of the other.
func MatchingSkills(candidateSkills, jobSkills []string) []string {
	matching := make([]string, 0)
	for _, cs := range candidateSkills {
		for _, js := range jobSkills {
			if SkillsEqual(cs, js) {
				matching = append(matching, cs)
				break
			}
		}
	}
	return matching
}

// SkillsEqual reports whether two skill names refer to the same skill.
func SkillsEqual(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// SkillsScore turns a matching count into a score. Jobs without required
// skills score 50 since there is nothing to compare against.
func SkillsScore(matching, required int) int {
	if required <= 0 {
		return 50
	}
	return clamp(int(math.Round(float64(matching) / float64(required) * 100)))
}

func dedupeFold(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}

func joinSkills(skills []string) string {
	cleaned := dedupeFold(skills)
	if len(cleaned) == 0 {
		return ""
	}
	return "Skills: " + strings.Join(cleaned, ", ")
}

func joinNonEmpty(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "\n")
}
