package server

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/spigell/talentmatch/internal/matching"
	"github.com/spigell/talentmatch/internal/ranking"
)

// MatchService is what the handlers need from the ranking layer.
type MatchService interface {
	MatchInline(ctx context.Context, candidate matching.CandidateInput, job matching.JobInput, includeReasons bool) (*matching.MatchResult, error)
	Match(ctx context.Context, tenant, candidateID, jobID string, includeReasons bool) (*matching.MatchResult, error)
	RankJobs(ctx context.Context, tenant, candidateID string, opts ranking.Options) (*ranking.Ranking, error)
	RankCandidates(ctx context.Context, tenant, jobID string, opts ranking.Options) (*ranking.Ranking, error)
	SearchJobs(ctx context.Context, tenant, query string, limit int) (*ranking.SearchResult, error)
	Screen(ctx context.Context, tenant, candidateID, jobID string) (*ranking.Screening, error)
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	service MatchService
	version string
}

func NewHandler(service MatchService, version string) *Handler {
	return &Handler{service: service, version: version}
}

type matchRequest struct {
	CandidateID    string                  `json:"candidateId"`
	JobID          string                  `json:"jobId"`
	Candidate      matching.CandidateInput `json:"candidate"`
	Job            matching.JobInput       `json:"job"`
	IncludeReasons *bool                   `json:"includeReasons"`
}

type searchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

// HealthCheck returns the health status of the API.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "talentmatch",
		"version": h.version,
	})
}

// MatchInline scores a candidate and a job sent in the request body.
func (h *Handler) MatchInline(c *gin.Context) {
	var req matchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	includeReasons := req.IncludeReasons == nil || *req.IncludeReasons
	result, err := h.service.MatchInline(c.Request.Context(), req.Candidate, req.Job, includeReasons)
	if err != nil {
		respondError(c, err)
		return
	}

	result.CandidateID = req.CandidateID
	result.JobID = req.JobID
	c.JSON(http.StatusOK, result)
}

// MatchPair scores a stored candidate against a stored job.
func (h *Handler) MatchPair(c *gin.Context) {
	includeReasons, err := boolQuery(c, "reasons", true)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.Match(c.Request.Context(), tenantID(c), c.Param("id"), c.Param("jobId"), includeReasons)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CandidateMatches ranks open jobs for a candidate.
func (h *Handler) CandidateMatches(c *gin.Context) {
	opts, err := rankingOptions(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.RankJobs(c.Request.Context(), tenantID(c), c.Param("id"), opts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// JobMatches ranks candidates for a job.
func (h *Handler) JobMatches(c *gin.Context) {
	opts, err := rankingOptions(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.RankCandidates(c.Request.Context(), tenantID(c), c.Param("id"), opts)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// SearchJobs finds open jobs semantically close to a free-text query.
func (h *Handler) SearchJobs(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Limit < 0 {
		abortWithError(c, http.StatusBadRequest, "limit must not be negative")
		return
	}

	result, err := h.service.SearchJobs(c.Request.Context(), tenantID(c), req.Query, req.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Screen asks the language model for a second opinion on a stored pair.
func (h *Handler) Screen(c *gin.Context) {
	result, err := h.service.Screen(c.Request.Context(), tenantID(c), c.Param("id"), c.Param("jobId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func tenantID(c *gin.Context) string {
	return c.GetString(ctxTenantID)
}

func rankingOptions(c *gin.Context) (ranking.Options, error) {
	limit, err := intQuery(c, "limit", 0)
	if err != nil {
		return ranking.Options{}, err
	}
	if limit < 0 {
		return ranking.Options{}, fmt.Errorf("limit must not be negative")
	}

	minScore, err := intQuery(c, "minScore", 0)
	if err != nil {
		return ranking.Options{}, err
	}
	if minScore < 0 || minScore > 100 {
		return ranking.Options{}, fmt.Errorf("minScore must be within 0..100")
	}

	reasons, err := boolQuery(c, "reasons", true)
	if err != nil {
		return ranking.Options{}, err
	}

	return ranking.Options{
		Limit:          limit,
		MinScore:       minScore,
		ExcludeIDs:     c.QueryArray("exclude"),
		IncludeReasons: reasons,
	}, nil
}

func intQuery(c *gin.Context, key string, fallback int) (int, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return v, nil
}

func boolQuery(c *gin.Context, key string, fallback bool) (bool, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean", key)
	}
	return v, nil
}
