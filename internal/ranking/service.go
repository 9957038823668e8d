package ranking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/talentmatch/internal/ai"
	"github.com/spigell/talentmatch/internal/embeddings"
	"github.com/spigell/talentmatch/internal/filtering"
	"github.com/spigell/talentmatch/internal/logger"
	"github.com/spigell/talentmatch/internal/matching"
	"github.com/spigell/talentmatch/internal/store"
)

// ErrScreeningDisabled is returned by Screen when no screener is configured.
var ErrScreeningDisabled = errors.New("ai screening is disabled")

const (
	defaultLimit       = 10
	defaultConcurrency = 4
)

// Store is the read side of the candidate and job stores.
type Store interface {
	Candidate(ctx context.Context, tenant, id string) (*store.Candidate, error)
	Job(ctx context.Context, tenant, id string) (*store.Job, error)
	Candidates(ctx context.Context, tenant string) ([]store.Candidate, error)
	OpenJobs(ctx context.Context, tenant string) ([]store.Job, error)
}

// Resolver returns embeddings, cached per entity where possible.
type Resolver interface {
	Resolve(ctx context.Context, kind embeddings.Kind, tenant, id, text string) (matching.Vector, error)
	Embed(ctx context.Context, text string) (matching.Vector, error)
}

// Options tunes a ranking call.
type Options struct {
	Limit          int
	MinScore       int
	ExcludeIDs     []string
	IncludeReasons bool
}

// Ranking is an ordered list of match results.
type Ranking struct {
	Total   int                    `json:"total"`
	Results []matching.MatchResult `json:"results"`
}

// SearchHit is one job found by a free-text query.
type SearchHit struct {
	JobID         string `json:"jobId"`
	Title         string `json:"title"`
	Location      string `json:"location,omitempty"`
	SemanticScore int    `json:"semanticScore"`
}

type SearchResult struct {
	Query       string      `json:"query"`
	QuerySkills []string    `json:"querySkills"`
	Hits        []SearchHit `json:"hits"`
}

// Screening is a computed match together with the language model's opinion.
type Screening struct {
	Match      *matching.MatchResult `json:"match"`
	Assessment *ai.FitAssessment     `json:"assessment"`
}

// Service implements the matching use cases on top of the stores.
type Service struct {
	store       Store
	resolver    Resolver
	scorer      *matching.Scorer
	screener    ai.Screener
	steps       func() []filtering.Filter
	concurrency int
	logger      *zap.Logger
}

type Option func(*Service)

// WithScreener enables Screen.
func WithScreener(s ai.Screener) Option {
	return func(svc *Service) { svc.screener = s }
}

// WithConcurrency bounds how many pairs are scored at once.
func WithConcurrency(n int) Option {
	return func(svc *Service) {
		if n > 0 {
			svc.concurrency = n
		}
	}
}

// WithSteps replaces the default filtering pipeline.
func WithSteps(steps func() []filtering.Filter) Option {
	return func(svc *Service) { svc.steps = steps }
}

func NewService(st Store, resolver Resolver, log *zap.Logger, opts ...Option) *Service {
	if log == nil {
		log = zap.NewNop()
	}

	svc := &Service{
		store:       st,
		resolver:    resolver,
		scorer:      matching.NewScorer(resolver, log),
		steps:       filtering.Default,
		concurrency: defaultConcurrency,
		logger:      log,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// MatchInline scores a pair supplied by the caller. Nothing is cached.
func (s *Service) MatchInline(ctx context.Context, candidate matching.CandidateInput, job matching.JobInput, includeReasons bool) (*matching.MatchResult, error) {
	return s.scorer.Score(ctx, matching.Request{
		Candidate:      candidate,
		Job:            job,
		IncludeReasons: includeReasons,
	})
}

// Match scores a stored candidate against a stored job.
func (s *Service) Match(ctx context.Context, tenant, candidateID, jobID string, includeReasons bool) (*matching.MatchResult, error) {
	candidate, job, err := s.loadPair(ctx, tenant, candidateID, jobID)
	if err != nil {
		return nil, err
	}
	return s.matchPair(ctx, tenant, candidate, job, includeReasons)
}

func (s *Service) matchPair(ctx context.Context, tenant string, candidate *store.Candidate, job *store.Job, includeReasons bool) (*matching.MatchResult, error) {
	entry := &filtering.Entry{
		CandidateID: candidate.ID,
		JobID:       job.ID,
		Candidate:   candidate.Input(),
		Job:         job.Input(),
		JobRemote:   job.Remote,
		RankedID:    job.ID,
	}
	return s.scoreEntry(ctx, tenant, entry, includeReasons)
}

// RankJobs ranks the tenant's open jobs for a candidate.
func (s *Service) RankJobs(ctx context.Context, tenant, candidateID string, opts Options) (*Ranking, error) {
	candidate, err := s.store.Candidate(ctx, tenant, candidateID)
	if err != nil {
		return nil, err
	}
	jobs, err := s.store.OpenJobs(ctx, tenant)
	if err != nil {
		return nil, err
	}

	entries := &filtering.Entries{Items: make([]*filtering.Entry, 0, len(jobs))}
	for _, job := range jobs {
		entries.Items = append(entries.Items, &filtering.Entry{
			CandidateID: candidate.ID,
			JobID:       job.ID,
			Candidate:   candidate.Input(),
			Job:         job.Input(),
			JobRemote:   job.Remote,
			RankedID:    job.ID,
		})
	}

	return s.rank(ctx, tenant, entries, opts, func(r matching.MatchResult) string { return r.JobID })
}

// RankCandidates ranks the tenant's candidates for a job.
func (s *Service) RankCandidates(ctx context.Context, tenant, jobID string, opts Options) (*Ranking, error) {
	job, err := s.store.Job(ctx, tenant, jobID)
	if err != nil {
		return nil, err
	}
	candidates, err := s.store.Candidates(ctx, tenant)
	if err != nil {
		return nil, err
	}

	entries := &filtering.Entries{Items: make([]*filtering.Entry, 0, len(candidates))}
	for _, candidate := range candidates {
		entries.Items = append(entries.Items, &filtering.Entry{
			CandidateID: candidate.ID,
			JobID:       job.ID,
			Candidate:   candidate.Input(),
			Job:         job.Input(),
			JobRemote:   job.Remote,
			RankedID:    candidate.ID,
		})
	}

	return s.rank(ctx, tenant, entries, opts, func(r matching.MatchResult) string { return r.CandidateID })
}

// SearchJobs ranks the tenant's open jobs by semantic similarity to a free-text query.
func (s *Service) SearchJobs(ctx context.Context, tenant, query string, limit int) (*SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", matching.ErrInvalidInput)
	}

	jobs, err := s.store.OpenJobs(ctx, tenant)
	if err != nil {
		return nil, err
	}

	queryVec, err := s.resolver.Embed(ctx, query)
	if err != nil {
		return nil, embeddingError("query", err)
	}

	hits := make([]SearchHit, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, job := range jobs {
		g.Go(func() error {
			jobVec, err := s.resolver.Resolve(gctx, embeddings.KindJob, tenant, job.ID, job.Input().Text())
			if err != nil {
				return embeddingError(fmt.Sprintf("job %q", job.ID), err)
			}
			score, err := matching.SemanticScore(queryVec, jobVec)
			if err != nil {
				return fmt.Errorf("job %q: %w", job.ID, err)
			}
			hits[i] = SearchHit{JobID: job.ID, Title: job.Title, Location: job.Location, SemanticScore: score}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].SemanticScore != hits[j].SemanticScore {
			return hits[i].SemanticScore > hits[j].SemanticScore
		}
		return hits[i].JobID < hits[j].JobID
	})
	hits = hits[:min(len(hits), normalizeLimit(limit))]

	logger.WithFields(s.logger, logger.MatchFields(tenant, "", "")...).Debug("job search completed",
		zap.Int("jobs", len(jobs)),
		zap.Int("hits", len(hits)),
	)

	return &SearchResult{
		Query:       query,
		QuerySkills: matching.ExtractSkills(query),
		Hits:        hits,
	}, nil
}

// Screen scores the pair and asks the configured language model for a second opinion.
func (s *Service) Screen(ctx context.Context, tenant, candidateID, jobID string) (*Screening, error) {
	if s.screener == nil {
		return nil, ErrScreeningDisabled
	}

	candidate, job, err := s.loadPair(ctx, tenant, candidateID, jobID)
	if err != nil {
		return nil, err
	}

	result, err := s.matchPair(ctx, tenant, candidate, job, true)
	if err != nil {
		return nil, err
	}

	assessment, err := s.screener.Screen(ctx, candidate.Input(), job.Input(), result)
	if err != nil {
		return nil, fmt.Errorf("screen candidate %q for job %q: %w", candidateID, jobID, err)
	}

	logger.WithFields(s.logger, logger.MatchFields(tenant, candidateID, jobID)...).Info("candidate screened",
		zap.Int("match_score", result.MatchScore),
		zap.Bool("fit", assessment.Fit),
		zap.Float64("ai_score", assessment.Score),
		zap.Bool("disagrees", assessment.Disagrees),
	)

	return &Screening{Match: result, Assessment: assessment}, nil
}

// ScreeningEnabled reports whether Screen can be used.
func (s *Service) ScreeningEnabled() bool {
	return s.screener != nil
}

func (s *Service) rank(ctx context.Context, tenant string, entries *filtering.Entries, opts Options, rankedID func(matching.MatchResult) string) (*Ranking, error) {
	cfg := &filtering.Config{
		ExcludeIDs:  opts.ExcludeIDs,
		MinScore:    opts.MinScore,
		Concurrency: s.concurrency,
	}
	deps := filtering.Deps{
		Logger: logger.WithFields(s.logger, logger.MatchFields(tenant, "", "")...),
		Scorer: entryScorer{svc: s, tenant: tenant, includeReasons: opts.IncludeReasons},
	}

	left, err := filtering.Run(ctx, cfg, deps, s.steps(), entries)
	if err != nil {
		return nil, err
	}

	results := left.Results()
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].MatchScore != results[j].MatchScore {
			return results[i].MatchScore > results[j].MatchScore
		}
		return rankedID(results[i]) < rankedID(results[j])
	})

	total := len(results)
	results = results[:min(total, normalizeLimit(opts.Limit))]

	return &Ranking{Total: total, Results: results}, nil
}

type entryScorer struct {
	svc            *Service
	tenant         string
	includeReasons bool
}

func (e entryScorer) ScoreEntry(ctx context.Context, entry *filtering.Entry) (*matching.MatchResult, error) {
	return e.svc.scoreEntry(ctx, e.tenant, entry, e.includeReasons)
}

func (s *Service) scoreEntry(ctx context.Context, tenant string, entry *filtering.Entry, includeReasons bool) (*matching.MatchResult, error) {
	if strings.TrimSpace(entry.Candidate.Text()) == "" || strings.TrimSpace(entry.Job.Text()) == "" {
		return nil, fmt.Errorf("%w: candidate %q and job %q need title, summary or skills", matching.ErrInvalidInput, entry.CandidateID, entry.JobID)
	}

	var candidateVec, jobVec matching.Vector

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := s.resolver.Resolve(gctx, embeddings.KindCandidate, tenant, entry.CandidateID, entry.Candidate.Text())
		if err != nil {
			return embeddingError(fmt.Sprintf("candidate %q", entry.CandidateID), err)
		}
		candidateVec = v
		return nil
	})
	g.Go(func() error {
		v, err := s.resolver.Resolve(gctx, embeddings.KindJob, tenant, entry.JobID, entry.Job.Text())
		if err != nil {
			return embeddingError(fmt.Sprintf("job %q", entry.JobID), err)
		}
		jobVec = v
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return s.scorer.Score(ctx, matching.Request{
		CandidateID:        entry.CandidateID,
		JobID:              entry.JobID,
		Candidate:          entry.Candidate,
		Job:                entry.Job,
		CandidateEmbedding: candidateVec,
		JobEmbedding:       jobVec,
		IncludeReasons:     includeReasons,
	})
}

func (s *Service) loadPair(ctx context.Context, tenant, candidateID, jobID string) (*store.Candidate, *store.Job, error) {
	candidate, err := s.store.Candidate(ctx, tenant, candidateID)
	if err != nil {
		return nil, nil, err
	}
	job, err := s.store.Job(ctx, tenant, jobID)
	if err != nil {
		return nil, nil, err
	}
	return candidate, job, nil
}

// embeddingError makes sure provider failures surface as ErrEmbeddingUnavailable.
func embeddingError(subject string, err error) error {
	if errors.Is(err, matching.ErrEmbeddingUnavailable) || errors.Is(err, matching.ErrInvalidInput) {
		return fmt.Errorf("%s: %w", subject, err)
	}
	return fmt.Errorf("%s: %w: %w", subject, matching.ErrEmbeddingUnavailable, err)
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return defaultLimit
	}
	return limit
}
