package matching

import (
	"reflect"
	"testing"
)

func TestSkillsMatchScenario(t *testing.T) {
	got := SkillsMatchFor([]string{"React", "Node.js"}, []string{"React", "Node.js", "AWS"})

	if !reflect.DeepEqual(got.MatchingSkills, []string{"React", "Node.js"}) {
		t.Fatalf("unexpected matching skills: %v", got.MatchingSkills)
	}
	if got.Score != 67 {
		t.Fatalf("expected score 67, got %d", got.Score)
	}
}

func TestSkillsMatchNoRequiredSkills(t *testing.T) {
	got := SkillsMatchFor([]string{"Go"}, nil)
	if got.Score != 50 {
		t.Fatalf("expected neutral score 50, got %d", got.Score)
	}
	if len(got.MatchingSkills) != 0 {
		t.Fatalf("expected no matching skills, got %v", got.MatchingSkills)
	}

	if SkillsScore(0, 0) != 50 {
		t.Fatalf("expected 50 for zero required skills")
	}
}

func TestSkillsMatchIsSubsetOfBoth(t *testing.T) {
	cases := []struct {
		candidate []string
		job       []string
	}{
		{candidate: []string{"react", "TypeScript", "Docker"}, job: []string{"React", "Kubernetes"}},
		{candidate: []string{"Java", "JavaScript", "Spring Boot"}, job: []string{"Java"}},
		{candidate: []string{"PostgreSQL", "SQL", "  "}, job: []string{"sql", "Python"}},
		{candidate: nil, job: []string{"AWS"}},
		{candidate: []string{"Go", "go", "GO"}, job: []string{"Go", "Golang"}},
	}

	for _, tc := range cases {
		got := SkillsMatchFor(tc.candidate, tc.job)
		for _, m := range got.MatchingSkills {
			if !containsExact(got.CandidateSkills, m) {
				t.Fatalf("%q is not a candidate skill (%v)", m, got.CandidateSkills)
			}
			if !containsMatching(got.JobRequiredSkills, m) {
				t.Fatalf("%q does not match any job skill (%v)", m, got.JobRequiredSkills)
			}
		}
		if got.Score < 0 || got.Score > 100 {
			t.Fatalf("score out of range: %d", got.Score)
		}
	}
}

func TestSkillsEqual(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"React", "react", true},
		{"Node.js", "node", true},
		{"Spring", "Spring Boot", true},
		{"Python", "Java", false},
		{"", "Go", false},
		{"  ", "  ", false},
	}

	for _, tt := range tests {
		if got := SkillsEqual(tt.a, tt.b); got != tt.want {
			t.Fatalf("SkillsEqual(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestExtractSkills(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "mixed case",
			text: "We build with REACT, node.js and deploy on aws.",
			want: []string{"React", "Node.js", "AWS"},
		},
		{
			name: "keywords inside longer words",
			text: "A good engineer with a strong interest in golf.",
			want: []string{"Go", "REST"},
		},
		{
			name: "short keywords",
			text: "Backend in Go, REST APIs and SQL; some C# and C++ welcome.",
			want: []string{"Go", "C++", "C#", "SQL", "REST"},
		},
		{
			name: "java inside javascript",
			text: "Senior JavaScript developer",
			want: []string{"JavaScript", "Java"},
		},
		{
			name: "dotnet inside asp.net",
			text: "ASP.NET Core services on Azure",
			want: []string{".NET", "Azure"},
		},
		{
			name: "golang also yields go",
			text: "Golang backend developer",
			want: []string{"Go", "Golang"},
		},
		{
			name: "empty",
			text: "   ",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ExtractSkills(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("ExtractSkills(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestJobSkillsPrefersExplicitList(t *testing.T) {
	job := JobInput{
		Title:           "Backend Engineer",
		DescriptionText: "Python and Django",
		RequiredSkills:  []string{"Go", "go", "Kafka"},
	}

	if got := job.Skills(); !reflect.DeepEqual(got, []string{"Go", "Kafka"}) {
		t.Fatalf("unexpected skills: %v", got)
	}

	job.RequiredSkills = nil
	if got := job.Skills(); !reflect.DeepEqual(got, []string{"Python", "Go", "Django"}) {
		t.Fatalf("unexpected extracted skills: %v", got)
	}
}

func containsExact(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func containsMatching(list []string, v string) bool {
	for _, s := range list {
		if SkillsEqual(s, v) {
			return true
		}
	}
	return false
}
