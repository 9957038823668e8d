package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/spigell/talentmatch/internal/matching"
	"github.com/spigell/talentmatch/internal/ranking"
	"github.com/spigell/talentmatch/internal/store"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, matching.ErrInvalidInput):
		return http.StatusBadRequest
	// every vector comes from the provider or the cache, never from the client
	case errors.Is(err, matching.ErrEmbeddingUnavailable), errors.Is(err, matching.ErrDimensionMismatch):
		return http.StatusBadGateway
	case errors.Is(err, ranking.ErrScreeningDisabled):
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	_ = c.Error(err)
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal server error"
	}
	abortWithError(c, status, message)
}

func abortWithError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}
