// Package types defines the core data structures for embedkit
package types

import "unicode/utf8"

// Limits shared by the hash and model embedding paths.
const (
	MaxTextLength     = 8192 // characters, not bytes
	MaxModelDimension = 2048
)

// ValidateText checks the constraints shared by every embedding path:
// non-empty and at most MaxTextLength characters.
func ValidateText(op, text string) error {
	if text == "" {
		return InvalidArgument(op, "text is empty")
	}
	if utf8.RuneCountInString(text) > MaxTextLength {
		return InvalidArgument(op, "text exceeds 8192 characters")
	}
	return nil
}

// Embedding is a dense float32 vector produced by one of the embedding paths.
// The generators hand out freshly allocated slices and never keep a reference.
type Embedding []float32

// Dimension returns the number of coordinates
func (e Embedding) Dimension() int {
	return len(e)
}

// Clone returns an independent copy
func (e Embedding) Clone() Embedding {
	if e == nil {
		return nil
	}
	out := make(Embedding, len(e))
	copy(out, e)
	return out
}

// VectorOpRequest is the JSON payload accepted by the vector command
type VectorOpRequest struct {
	Op   string    `json:"op"`
	Vec1 []float32 `json:"vec1"`
	Vec2 []float32 `json:"vec2,omitempty"`
	Dim  int       `json:"dim,omitempty"`
}

// VectorOpResponse wraps a scalar or vector result
type VectorOpResponse struct {
	Result any `json:"result"`
}

// ErrorResponse is written to stderr by the CLI on failure
type ErrorResponse struct {
	Error string `json:"error"`
}

// EmbeddingResponse is the JSON shape of a single generated embedding
type EmbeddingResponse struct {
	Source    string    `json:"source"` // hash or model
	Model     string    `json:"model,omitempty"`
	Dimension int       `json:"dimension"`
	Embedding Embedding `json:"embedding"`
}

// RankedText is one candidate scored against a query
type RankedText struct {
	Index      int     `json:"index"`
	Text       string  `json:"text"`
	Similarity float32 `json:"similarity"`
}

// RankResponse is the output of a rank request
type RankResponse struct {
	Query   string       `json:"query"`
	Model   string       `json:"model"`
	Results []RankedText `json:"results"`
}

// ModelInfo describes a loaded model session
type ModelInfo struct {
	Path       string `json:"path"`
	Backend    string `json:"backend"`
	Dimension  int    `json:"dimension"`
	Generation string `json:"generation,omitempty"`
}
