// Package match renders accept/reject verdicts by comparing face
// embeddings under cosine distance, the metric Facenet512 embeddings
// are calibrated for.
package match

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Result is the verdict for one comparison. Score is a human-facing
// similarity percentage in [0, 100]; Distance is the underlying cosine
// distance the verdict was decided on.
type Result struct {
	Verified bool    `json:"verified"`
	Score    float64 `json:"score"`
	Distance float64 `json:"distance"`
}

// Comparator applies a fixed, calibrated distance threshold. The
// threshold is not per-request input so verification policy stays
// consistent across all requests.
type Comparator struct {
	threshold float64
}

// NewComparator creates a comparator with the given maximum cosine
// distance for a verified match.
func NewComparator(threshold float64) *Comparator {
	return &Comparator{threshold: threshold}
}

// Threshold returns the calibrated distance threshold.
func (c *Comparator) Threshold() float64 {
	return c.threshold
}

// Compare computes the verdict for two embeddings. Pure: identical
// inputs always yield the identical verdict. Embeddings of different
// lengths are not comparable and return an error rather than a
// best-effort score.
func (c *Comparator) Compare(a, b []float32) (Result, error) {
	if len(a) == 0 || len(b) == 0 {
		return Result{}, fmt.Errorf("cannot compare empty embeddings")
	}
	if len(a) != len(b) {
		return Result{}, fmt.Errorf("embedding dimensions differ: %d vs %d", len(a), len(b))
	}

	d := CosineDistance(a, b)
	return Result{
		Verified: d <= c.threshold,
		Score:    DistanceToScore(d),
		Distance: d,
	}, nil
}

// CosineDistance computes 1 - cosine similarity between two vectors.
// Returns a value in [0, 2]: 0 for identical direction, 2 for opposite.
// Zero vectors are maximally distant.
func CosineDistance(a, b []float32) float64 {
	a64 := toFloat64(a)
	b64 := toFloat64(b)

	normA := floats.Norm(a64, 2)
	normB := floats.Norm(b64, 2)
	if normA == 0 || normB == 0 {
		return 2.0
	}

	similarity := floats.Dot(a64, b64) / (normA * normB)
	// Clamp to [-1, 1] to absorb floating point error.
	if similarity > 1 {
		similarity = 1
	}
	if similarity < -1 {
		similarity = -1
	}
	return 1 - similarity
}

// DistanceToScore maps a cosine distance to a similarity percentage,
// (1 - d) * 100 clamped to [0, 100]. Monotonically decreasing in d, so
// ranking by score always agrees with ranking by distance.
func DistanceToScore(d float64) float64 {
	score := (1 - d) * 100
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}
