package matching

import (
	"fmt"
	"math"
)

// CosineSimilarity returns the cosine of the angle between a and b.
// A zero vector yields 0.
func CosineSimilarity(a, b Vector) (float64, error) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))

	// rounding can push identical vectors slightly outside [-1,1]
	return math.Max(-1, math.Min(1, sim)), nil
}

// ToPercentage maps a similarity in [-1,1] onto [0,100].
func ToPercentage(similarity float64) int {
	if math.IsNaN(similarity) {
		return 50
	}
	return clamp(int(math.Round((similarity + 1) * 50)))
}

// SemanticScore compares two embeddings and returns the normalized score.
func SemanticScore(a, b Vector) (int, error) {
	sim, err := CosineSimilarity(a, b)
	if err != nil {
		return 0, err
	}
	return ToPercentage(sim), nil
}

func clamp(score int) int {
	switch {
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}
