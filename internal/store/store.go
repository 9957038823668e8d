package store

import (
	"errors"
	"strings"
	"time"

	"github.com/spigell/talentmatch/internal/matching"
)

// ErrNotFound is returned when a record does not exist for the tenant.
var ErrNotFound = errors.New("not found")

const (
	JobStatusOpen   = "open"
	JobStatusClosed = "closed"
)

type Candidate struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenantId"`
	Name         string    `json:"name"`
	CurrentTitle string    `json:"currentTitle"`
	Summary      string    `json:"summary"`
	Skills       []string  `json:"skills"`
	Location     string    `json:"location"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (c Candidate) Input() matching.CandidateInput {
	return matching.CandidateInput{
		Skills:       c.Skills,
		CurrentTitle: c.CurrentTitle,
		SummaryText:  c.Summary,
		Location:     c.Location,
	}
}

type Job struct {
	ID             string    `json:"id"`
	TenantID       string    `json:"tenantId"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	RequiredSkills []string  `json:"requiredSkills"`
	Location       string    `json:"location"`
	Remote         bool      `json:"remote"`
	Status         string    `json:"status"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (j Job) Input() matching.JobInput {
	return matching.JobInput{
		Title:           j.Title,
		DescriptionText: j.Description,
		Location:        j.Location,
		RequiredSkills:  j.RequiredSkills,
	}
}

// IsOpen reports whether the job takes part in ranking and search.
func (j Job) IsOpen() bool {
	status := strings.ToLower(strings.TrimSpace(j.Status))
	return status == "" || status == JobStatusOpen
}
