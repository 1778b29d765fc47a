// Package vecops provides float32 vector algebra for embeddings.
//
// The plain functions are total: malformed input (length mismatch, empty
// vectors, zero norms) yields 0 or nil instead of an error. The *Strict
// variants report the same conditions as types.ErrInvalidArgument.
// Inner loops are delegated to vek32, which dispatches to AVX2 kernels when
// the CPU supports them.
package vecops

import (
	"github.com/chewxy/math32"
	"github.com/viterin/vek/vek32"

	"github.com/shivavenkatesh/embedkit/pkg/types"
)

// Epsilon is the norm below which a vector is treated as zero
const Epsilon float32 = 1e-8

// Dot computes the dot product of two vectors
func Dot(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	return vek32.Dot(a, b)
}

// Norm computes the L2 (Euclidean) norm of a vector
func Norm(v []float32) float32 {
	if len(v) == 0 {
		return 0
	}
	return math32.Sqrt(vek32.Dot(v, v))
}

// CosineSimilarity computes cosine similarity between two vectors.
// Returns a value between -1 and 1, where 1 means identical direction.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	normA := Norm(a)
	normB := Norm(b)
	if normA < Epsilon || normB < Epsilon {
		return 0
	}

	return clamp(vek32.Dot(a, b) / (normA * normB))
}

// Normalize normalizes a vector in-place to unit length
func Normalize(v []float32) {
	norm := Norm(v)
	if norm < Epsilon {
		return
	}
	vek32.MulNumber_Inplace(v, 1/norm)
}

// Normalized returns a unit-length copy of v, leaving v untouched
func Normalized(v []float32) []float32 {
	if v == nil {
		return nil
	}
	out := make([]float32, len(v))
	copy(out, v)
	Normalize(out)
	return out
}

// Add returns the element-wise sum in a new buffer.
// Returns nil when the lengths differ or the vectors are empty.
func Add(a, b []float32) []float32 {
	if len(a) != len(b) || len(a) == 0 {
		return nil
	}
	return vek32.Add(a, b)
}

// EuclideanDistance computes the Euclidean distance between two vectors
func EuclideanDistance(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	return vek32.Distance(a, b)
}

// BatchCosineSimilarity computes similarities between one query and many targets.
// Results are written to the similarities slice (must be pre-allocated).
func BatchCosineSimilarity(query []float32, targets [][]float32, similarities []float32) {
	queryNorm := Norm(query)
	if queryNorm < Epsilon {
		for i := range similarities {
			similarities[i] = 0
		}
		return
	}

	invQueryNorm := 1 / queryNorm
	for i, target := range targets {
		if len(target) != len(query) {
			similarities[i] = 0
			continue
		}
		targetNorm := Norm(target)
		if targetNorm < Epsilon {
			similarities[i] = 0
			continue
		}
		similarities[i] = clamp(vek32.Dot(query, target) * invQueryNorm / targetNorm)
	}
}

// DotStrict is Dot with malformed input reported as an error
func DotStrict(a, b []float32) (float32, error) {
	if err := checkPair("dot", a, b); err != nil {
		return 0, err
	}
	return vek32.Dot(a, b), nil
}

// CosineSimilarityStrict is CosineSimilarity with malformed input reported
// as an error. A zero-norm operand still yields 0 without error.
func CosineSimilarityStrict(a, b []float32) (float32, error) {
	if err := checkPair("cosine", a, b); err != nil {
		return 0, err
	}
	return CosineSimilarity(a, b), nil
}

// AddStrict is Add with malformed input reported as an error
func AddStrict(a, b []float32) ([]float32, error) {
	if err := checkPair("add", a, b); err != nil {
		return nil, err
	}
	return vek32.Add(a, b), nil
}

func checkPair(op string, a, b []float32) error {
	if len(a) == 0 || len(b) == 0 {
		return types.InvalidArgument(op, "empty vector")
	}
	if len(a) != len(b) {
		e := types.InvalidArgument(op, "vector lengths differ")
		e.Dimension = len(b)
		return e
	}
	return nil
}

// clamp absorbs rounding that pushes a cosine slightly outside [-1, 1]
func clamp(x float32) float32 {
	if x > 1 {
		return 1
	}
	if x < -1 {
		return -1
	}
	return x
}
