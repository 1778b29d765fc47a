package vecops

import (
	"errors"
	"math"
	"testing"

	"github.com/shivavenkatesh/embedkit/pkg/types"
)

const epsilon = 1e-5

func almostEqual(a, b, eps float32) bool {
	return float32(math.Abs(float64(a-b))) < eps
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float32
	}{
		{"identical", []float32{1, 2, 3, 4, 5, 6, 7, 8}, []float32{1, 2, 3, 4, 5, 6, 7, 8}, 1},
		{"opposite", []float32{1, 2, 3, 4}, []float32{-1, -2, -3, -4}, -1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"scaled", []float32{1, 2, 3}, []float32{2, 4, 6}, 1},
		{"non-aligned length", []float32{1, 2, 3, 4, 5}, []float32{1, 2, 3, 4, 5}, 1},
		{"different lengths", []float32{1, 2, 3}, []float32{1, 2}, 0},
		{"empty", []float32{}, []float32{}, 0},
		{"zero vector", []float32{0, 0, 0}, []float32{1, 2, 3}, 0},
		{"tiny norm", []float32{1e-9, 0}, []float32{1, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := CosineSimilarity(tt.a, tt.b)
			if !almostEqual(sim, tt.expected, epsilon) {
				t.Errorf("expected %f, got %f", tt.expected, sim)
			}
		})
	}
}

func TestCosineSimilarity_Symmetric(t *testing.T) {
	a := []float32{0.3, -0.7, 0.1, 0.9, -0.2}
	b := []float32{-0.5, 0.4, 0.8, 0.05, 0.6}

	if CosineSimilarity(a, b) != CosineSimilarity(b, a) {
		t.Errorf("cosine should be symmetric: %f vs %f", CosineSimilarity(a, b), CosineSimilarity(b, a))
	}
}

func TestDot(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float32
	}{
		{"simple", []float32{1, 2, 3}, []float32{4, 5, 6}, 32},
		{"zeros", []float32{0, 0, 0}, []float32{1, 2, 3}, 0},
		{"eight elements", []float32{1, 1, 1, 1, 1, 1, 1, 1}, []float32{2, 2, 2, 2, 2, 2, 2, 2}, 16},
		{"different lengths", []float32{1, 2}, []float32{1}, 0},
		{"empty", nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Dot(tt.a, tt.b)
			if !almostEqual(result, tt.expected, epsilon) {
				t.Errorf("expected %f, got %f", tt.expected, result)
			}
		})
	}
}

func TestNorm(t *testing.T) {
	tests := []struct {
		name     string
		v        []float32
		expected float32
	}{
		{"unit vector", []float32{1, 0, 0}, 1},
		{"3-4-5 triangle", []float32{3, 4, 0}, 5},
		{"zero vector", []float32{0, 0, 0}, 0},
		{"empty", nil, 0},
		{"all ones (8 elements)", []float32{1, 1, 1, 1, 1, 1, 1, 1}, float32(math.Sqrt(8))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Norm(tt.v)
			if !almostEqual(result, tt.expected, epsilon) {
				t.Errorf("expected %f, got %f", tt.expected, result)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	v := []float32{3, 4, 0}
	Normalize(v)

	expected := []float32{0.6, 0.8, 0}
	for i := range v {
		if !almostEqual(v[i], expected[i], epsilon) {
			t.Errorf("at index %d: expected %f, got %f", i, expected[i], v[i])
		}
	}

	if norm := Norm(v); !almostEqual(norm, 1.0, epsilon) {
		t.Errorf("normalized vector should have norm 1.0, got %f", norm)
	}
}

func TestNormalize_ZeroVector(t *testing.T) {
	v := []float32{0, 0, 0}
	Normalize(v)

	for i, val := range v {
		if val != 0 {
			t.Errorf("at index %d: expected 0, got %f", i, val)
		}
	}
}

func TestNormalized_LeavesInput(t *testing.T) {
	v := []float32{3, 4, 0}
	out := Normalized(v)

	if v[0] != 3 || v[1] != 4 {
		t.Errorf("input modified: %v", v)
	}
	if !almostEqual(out[0], 0.6, epsilon) || !almostEqual(out[1], 0.8, epsilon) {
		t.Errorf("unexpected result %v", out)
	}
}

func TestAdd(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{4, 5, 6}

	sum := Add(a, b)
	expected := []float32{5, 7, 9}
	for i := range expected {
		if sum[i] != expected[i] {
			t.Errorf("at index %d: expected %f, got %f", i, expected[i], sum[i])
		}
	}

	if a[0] != 1 || b[0] != 4 {
		t.Error("Add must not modify its inputs")
	}
	if Add(a, []float32{1}) != nil {
		t.Error("expected nil for different lengths")
	}
	if Add(nil, nil) != nil {
		t.Error("expected nil for empty input")
	}
}

func TestStrictVariants(t *testing.T) {
	if _, err := DotStrict([]float32{1}, []float32{1, 2}); !errors.Is(err, types.ErrInvalidArgument) {
		t.Errorf("DotStrict: expected invalid argument, got %v", err)
	}
	if _, err := CosineSimilarityStrict(nil, nil); !errors.Is(err, types.ErrInvalidArgument) {
		t.Errorf("CosineSimilarityStrict: expected invalid argument, got %v", err)
	}
	if _, err := AddStrict([]float32{1, 2}, []float32{1}); !errors.Is(err, types.ErrInvalidArgument) {
		t.Errorf("AddStrict: expected invalid argument, got %v", err)
	}

	d, err := DotStrict([]float32{1, 2, 3}, []float32{4, 5, 6})
	if err != nil || d != 32 {
		t.Errorf("DotStrict: got %f, %v", d, err)
	}
	c, err := CosineSimilarityStrict([]float32{0, 0}, []float32{1, 1})
	if err != nil || c != 0 {
		t.Errorf("CosineSimilarityStrict zero norm: got %f, %v", c, err)
	}
	s, err := AddStrict([]float32{1}, []float32{2})
	if err != nil || len(s) != 1 || s[0] != 3 {
		t.Errorf("AddStrict: got %v, %v", s, err)
	}
}

func TestBatchCosineSimilarity(t *testing.T) {
	query := []float32{1, 0, 0, 0, 0, 0, 0, 0}
	targets := [][]float32{
		{1, 0, 0, 0, 0, 0, 0, 0},  // identical
		{0, 1, 0, 0, 0, 0, 0, 0},  // orthogonal
		{-1, 0, 0, 0, 0, 0, 0, 0}, // opposite
		{1, 0},                    // wrong length
	}
	similarities := make([]float32, len(targets))

	BatchCosineSimilarity(query, targets, similarities)

	expectedSims := []float32{1.0, 0.0, -1.0, 0.0}
	for i, expected := range expectedSims {
		if !almostEqual(similarities[i], expected, epsilon) {
			t.Errorf("at index %d: expected %f, got %f", i, expected, similarities[i])
		}
	}
}

func TestBatchCosineSimilarity_ZeroQuery(t *testing.T) {
	query := []float32{0, 0, 0, 0}
	targets := [][]float32{{1, 2, 3, 4}, {5, 6, 7, 8}}
	similarities := []float32{9, 9}

	BatchCosineSimilarity(query, targets, similarities)

	for i, sim := range similarities {
		if sim != 0 {
			t.Errorf("at index %d: expected 0 for zero query, got %f", i, sim)
		}
	}
}

func TestEuclideanDistance(t *testing.T) {
	tests := []struct {
		name     string
		a, b     []float32
		expected float32
	}{
		{"same point", []float32{1, 2, 3}, []float32{1, 2, 3}, 0},
		{"3-4-5 triangle", []float32{0, 0}, []float32{3, 4}, 5},
		{"unit distance", []float32{0, 0, 0}, []float32{1, 0, 0}, 1},
		{"different lengths", []float32{0}, []float32{1, 0}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := EuclideanDistance(tt.a, tt.b)
			if !almostEqual(result, tt.expected, 0.01) {
				t.Errorf("expected %f, got %f", tt.expected, result)
			}
		})
	}
}

// Benchmarks

func benchVectors(n int) ([]float32, []float32) {
	a := make([]float32, n)
	b := make([]float32, n)
	for i := range a {
		a[i] = float32(i) * 0.1
		b[i] = float32(i) * 0.2
	}
	return a, b
}

func BenchmarkCosineSimilarity_128(b *testing.B) {
	x, y := benchVectors(128)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		CosineSimilarity(x, y)
	}
}

func BenchmarkCosineSimilarity_768(b *testing.B) {
	x, y := benchVectors(768)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		CosineSimilarity(x, y)
	}
}

func BenchmarkCosineSimilarity_2048(b *testing.B) {
	x, y := benchVectors(2048)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		CosineSimilarity(x, y)
	}
}

func BenchmarkNormalize(b *testing.B) {
	v, _ := benchVectors(768)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Normalize(v)
	}
}
