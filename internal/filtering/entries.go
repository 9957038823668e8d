package filtering

import (
	"slices"
	"strings"

	"github.com/spigell/talentmatch/internal/matching"
)

// Entry is one candidate/job pair in a ranking pool.
type Entry struct {
	CandidateID string
	JobID       string
	Candidate   matching.CandidateInput
	Job         matching.JobInput
	JobRemote   bool

	// RankedID is the id of the side being ranked.
	RankedID string
	Result   *matching.MatchResult
}

type Entries struct {
	Items []*Entry
}

func (e *Entries) Len() int {
	if e == nil {
		return 0
	}
	return len(e.Items)
}

// Exclude removes entries whose ranked id is listed and returns the removed ids.
func (e *Entries) Exclude(ids []string) []string {
	return e.Drop(func(item *Entry) bool {
		return slices.Contains(ids, item.RankedID)
	})
}

// Drop removes entries for which drop returns true and returns their ranked ids.
func (e *Entries) Drop(drop func(*Entry) bool) []string {
	var dropped []string
	kept := e.Items[:0]
	for _, item := range e.Items {
		if drop(item) {
			dropped = append(dropped, item.RankedID)
			continue
		}
		kept = append(kept, item)
	}
	clear(e.Items[len(kept):])
	e.Items = kept
	return dropped
}

// Results returns the computed match results in pool order.
func (e *Entries) Results() []matching.MatchResult {
	results := make([]matching.MatchResult, 0, e.Len())
	for _, item := range e.Items {
		if item.Result != nil {
			results = append(results, *item.Result)
		}
	}
	return results
}

func locationMatches(candidate, job string, remote bool) bool {
	candidate = strings.ToLower(strings.TrimSpace(candidate))
	job = strings.ToLower(strings.TrimSpace(job))
	if remote || candidate == "" || job == "" {
		return true
	}
	return strings.Contains(job, candidate) || strings.Contains(candidate, job)
}
