package filtering

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/talentmatch/internal/matching"
)

const defaultConcurrency = 4

type locationFilter struct {
	disabled bool
	reason   string
}

// NewLocation creates a filter that removes pairs in incompatible locations.
func NewLocation() Filter {
	return &locationFilter{}
}

func (f *locationFilter) Name() string { return "location" }

func (f *locationFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *locationFilter) IsEnabled() bool { return !f.disabled }

func (f *locationFilter) Validate(*Config) error { return nil }

func (f *locationFilter) Apply(_ context.Context, deps Deps, e *Entries) (*Entries, Step, error) {
	initial := e.Len()
	excluded := e.Drop(func(item *Entry) bool {
		return !locationMatches(item.Candidate.Location, item.Job.Location, item.JobRemote)
	})
	if len(excluded) > 0 {
		deps.Logger.Debug("excluding entries by location",
			zap.Strings("excluded", excluded),
			zap.Int("left", e.Len()),
		)
	}

	return e, Step{Initial: initial, Dropped: len(excluded), Left: e.Len()}, nil
}

func (f *locationFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}

type excludeFilter struct {
	ids []string
}

// NewExclude creates a filter that removes the ids listed in the config.
func NewExclude() Filter {
	return &excludeFilter{}
}

func (f *excludeFilter) Name() string { return "exclude" }

func (f *excludeFilter) Disable(string) {}

func (f *excludeFilter) IsEnabled() bool { return true }

func (f *excludeFilter) Validate(cfg *Config) error {
	f.ids = nil
	if cfg != nil {
		f.ids = append(f.ids, cfg.ExcludeIDs...)
	}
	return nil
}

func (f *excludeFilter) Apply(_ context.Context, deps Deps, e *Entries) (*Entries, Step, error) {
	initial := e.Len()
	if len(f.ids) == 0 {
		return e, Step{Initial: initial, Dropped: 0, Left: e.Len()}, nil
	}

	excluded := e.Exclude(f.ids)
	if len(excluded) > 0 {
		deps.Logger.Debug("excluding entries by id",
			zap.Strings("excluded", excluded),
			zap.Int("left", e.Len()),
		)
	}

	return e, Step{Initial: initial, Dropped: len(excluded), Left: e.Len()}, nil
}

func (f *excludeFilter) Status() Status {
	details := map[string]string{}
	if len(f.ids) > 0 {
		details["ids"] = strings.Join(f.ids, ",")
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}

type scoringFilter struct {
	concurrency int
}

// NewScoring creates the step that computes match results. Entries whose
// records are too incomplete to score are dropped; any other scoring error
// aborts the run.
func NewScoring() Filter {
	return &scoringFilter{}
}

func (f *scoringFilter) Name() string { return "scoring" }

func (f *scoringFilter) Disable(string) {}

func (f *scoringFilter) IsEnabled() bool { return true }

func (f *scoringFilter) Validate(cfg *Config) error {
	f.concurrency = defaultConcurrency
	if cfg != nil && cfg.Concurrency > 0 {
		f.concurrency = cfg.Concurrency
	}
	return nil
}

func (f *scoringFilter) Apply(ctx context.Context, deps Deps, e *Entries) (*Entries, Step, error) {
	initial := e.Len()
	if deps.Scorer == nil {
		return e, Step{}, errors.New("scorer is required")
	}

	unscorable := make([]bool, initial)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)
	for i, item := range e.Items {
		g.Go(func() error {
			result, err := deps.Scorer.ScoreEntry(gctx, item)
			switch {
			case errors.Is(err, matching.ErrInvalidInput):
				deps.Logger.Warn("skipping entry that cannot be scored",
					zap.String("id", item.RankedID),
					zap.Error(err),
				)
				unscorable[i] = true
				return nil
			case err != nil:
				return fmt.Errorf("score %s: %w", item.RankedID, err)
			}
			item.Result = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return e, Step{}, err
	}

	byEntry := make(map[*Entry]bool, initial)
	for i, item := range e.Items {
		byEntry[item] = unscorable[i]
	}
	excluded := e.Drop(func(item *Entry) bool { return byEntry[item] })

	return e, Step{Initial: initial, Dropped: len(excluded), Left: e.Len()}, nil
}

func (f *scoringFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: true,
		Details: map[string]string{"concurrency": strconv.Itoa(f.concurrency)},
	}
}

type minScoreFilter struct {
	minScore int
}

// NewMinScore creates a filter that removes entries scoring below the configured minimum.
func NewMinScore() Filter {
	return &minScoreFilter{}
}

func (f *minScoreFilter) Name() string { return "min_score" }

func (f *minScoreFilter) Disable(string) {}

func (f *minScoreFilter) IsEnabled() bool { return true }

func (f *minScoreFilter) Validate(cfg *Config) error {
	f.minScore = 0
	if cfg != nil {
		if cfg.MinScore < 0 || cfg.MinScore > 100 {
			return fmt.Errorf("minimum score must be within 0..100, got %d", cfg.MinScore)
		}
		f.minScore = cfg.MinScore
	}
	return nil
}

func (f *minScoreFilter) Apply(_ context.Context, deps Deps, e *Entries) (*Entries, Step, error) {
	initial := e.Len()
	for _, item := range e.Items {
		if item.Result == nil {
			return e, Step{}, fmt.Errorf("entry %s has not been scored", item.RankedID)
		}
	}

	if f.minScore == 0 {
		return e, Step{Initial: initial, Dropped: 0, Left: e.Len()}, nil
	}

	excluded := e.Drop(func(item *Entry) bool {
		return item.Result.MatchScore < f.minScore
	})
	if len(excluded) > 0 {
		deps.Logger.Debug("excluding entries below minimum score",
			zap.Int("min_score", f.minScore),
			zap.Strings("excluded", excluded),
			zap.Int("left", e.Len()),
		)
	}

	return e, Step{Initial: initial, Dropped: len(excluded), Left: e.Len()}, nil
}

func (f *minScoreFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: true,
		Details: map[string]string{"min_score": strconv.Itoa(f.minScore)},
	}
}
