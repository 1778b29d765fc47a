// Package embeddings provides vector embedding generation
package embeddings

import (
	"context"
	"fmt"

	"github.com/shivavenkatesh/embedkit/pkg/types"
)

// Embedder generates vector embeddings from text
type Embedder interface {
	// Embed generates an embedding for a single text
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector dimensions
	Dimensions() int

	// Model returns the model identifier
	Model() string

	// Close releases any resources
	Close() error
}

// HashEmbedder adapts the hash engine to the Embedder interface at a fixed dimension
type HashEmbedder struct {
	dim     types.Dimension
	workers int
}

// NewHashEmbedder creates a hash embedder. dimension 0 selects 128.
func NewHashEmbedder(dimension, workers int) (*HashEmbedder, error) {
	dim, err := types.ParseDimension(dimension)
	if err != nil {
		return nil, err
	}
	return &HashEmbedder{dim: dim, workers: workers}, nil
}

// Embed generates an embedding for the given text
func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := types.ValidateText("embed", text); err != nil {
		return nil, err
	}
	return generate(text, e.dim)
}

// EmbedBatch generates embeddings for multiple texts
func (e *HashEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embs, err := GenerateBatchParallel(ctx, texts, int(e.dim), e.workers)
	if err != nil {
		return nil, fmt.Errorf("hash batch: %w", err)
	}
	out := make([][]float32, len(embs))
	for i, emb := range embs {
		out[i] = emb
	}
	return out, nil
}

// Dimensions returns the embedding dimensions
func (e *HashEmbedder) Dimensions() int {
	return int(e.dim)
}

// Model returns the engine name
func (e *HashEmbedder) Model() string {
	return HashModelName
}

// Close is a no-op; the hash engine holds no resources
func (e *HashEmbedder) Close() error {
	return nil
}
