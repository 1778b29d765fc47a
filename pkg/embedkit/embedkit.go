// Package embedkit generates text embeddings and operates on embedding
// vectors.
//
// The package functions are pure: the deterministic hash embedding and the
// vector operations need no setup. Neural model embeddings go through a
// Client, which owns the resident model session.
package embedkit

import (
	"github.com/shivavenkatesh/embedkit/internal/embeddings"
	"github.com/shivavenkatesh/embedkit/internal/vecops"
	"github.com/shivavenkatesh/embedkit/pkg/types"
)

// Error kinds. Test with errors.Is.
var (
	ErrInvalidArgument   = types.ErrInvalidArgument
	ErrModelNotFound     = types.ErrModelNotFound
	ErrModelLoad         = types.ErrModelLoad
	ErrDimensionMismatch = types.ErrDimensionMismatch
	ErrGenerationFailure = types.ErrGenerationFailure
)

// Embedder generates embeddings at a fixed width
type Embedder = embeddings.Embedder

// GenerateEmbedding returns the hash embedding of text. dimension must be one
// of SupportedDimensions, or 0 for 128.
func GenerateEmbedding(text string, dimension int) ([]float32, error) {
	return embeddings.Generate(text, dimension)
}

// GenerateEmbeddingBatch embeds texts in order. If any text is invalid no
// embeddings are returned and the error reports the first failing index.
func GenerateEmbeddingBatch(texts []string, dimension int) ([][]float32, error) {
	embs, err := embeddings.GenerateBatch(texts, dimension)
	if err != nil {
		return nil, err
	}
	out := make([][]float32, len(embs))
	for i, emb := range embs {
		out[i] = emb
	}
	return out, nil
}

// DotProduct returns the dot product, or 0 for vectors of different lengths
func DotProduct(a, b []float32) float32 {
	return vecops.Dot(a, b)
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0 when
// lengths differ or either vector is (near) zero
func CosineSimilarity(a, b []float32) float32 {
	return vecops.CosineSimilarity(a, b)
}

// VectorNorm returns the Euclidean length of v
func VectorNorm(v []float32) float32 {
	return vecops.Norm(v)
}

// Normalize returns a unit-length copy of v. Near-zero vectors are copied
// unchanged.
func Normalize(v []float32) []float32 {
	return vecops.Normalized(v)
}

// NormalizeInPlace scales v to unit length
func NormalizeInPlace(v []float32) {
	vecops.Normalize(v)
}

// AddVectors returns the element-wise sum, or nil for different lengths
func AddVectors(a, b []float32) []float32 {
	return vecops.Add(a, b)
}

// SupportedDimensions lists the widths the hash embedding accepts
func SupportedDimensions() []int {
	dims := types.SupportedDimensions()
	out := make([]int, len(dims))
	for i, d := range dims {
		out[i] = d.Int()
	}
	return out
}
