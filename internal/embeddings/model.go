package embeddings

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shivavenkatesh/embedkit/internal/cache"
	"github.com/shivavenkatesh/embedkit/internal/metrics"
	"github.com/shivavenkatesh/embedkit/internal/modelcache"
	"github.com/shivavenkatesh/embedkit/pkg/types"
)

// ModelEmbedder provides embeddings from a neural model held in a
// modelcache.Cache. Several embedders may share one cache; whichever model
// was asked for last is the resident one.
type ModelEmbedder struct {
	models  *modelcache.Cache
	path    string
	dim     int
	metrics *metrics.Metrics

	mu         sync.Mutex
	results    *cache.EmbeddingCache
	generation string
}

// ModelConfig configures a ModelEmbedder
type ModelConfig struct {
	ModelPath string // model file, or model name for the fastembed backend
	Dimension int    // 0 accepts the model's native width
	CacheSize int    // result cache entries; 0 disables the cache
	Metrics   *metrics.Metrics
}

// NewModelEmbedder creates an embedder over models. The model is loaded on
// first use.
func NewModelEmbedder(models *modelcache.Cache, cfg ModelConfig) (*ModelEmbedder, error) {
	if models == nil {
		return nil, types.InvalidArgument("model embedder", "nil model cache")
	}
	if cfg.ModelPath == "" {
		return nil, types.InvalidArgument("model embedder", "empty model path")
	}
	if cfg.Dimension < 0 || cfg.Dimension > types.MaxModelDimension {
		e := types.InvalidArgument("model embedder", "output dimension must be between 0 and 2048")
		e.Dimension = cfg.Dimension
		return nil, e
	}

	e := &ModelEmbedder{
		models:  models,
		path:    cfg.ModelPath,
		dim:     cfg.Dimension,
		metrics: cfg.Metrics,
	}
	if cfg.CacheSize > 0 {
		e.results = cache.NewEmbeddingCache(cfg.CacheSize)
	}
	return e, nil
}

// Embed generates an embedding for the given text
func (e *ModelEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	emb, cached, err := e.embed(ctx, text)
	if !cached {
		e.metrics.ObserveGeneration(metrics.SourceModel, 1, start, err)
	}
	return emb, err
}

func (e *ModelEmbedder) embed(ctx context.Context, text string) (types.Embedding, bool, error) {
	if err := types.ValidateText("embed", text); err != nil {
		return nil, false, err
	}

	h, err := e.models.GetOrLoad(ctx, e.path)
	if err != nil {
		return nil, false, err
	}
	defer h.Release()

	results := e.resultsFor(h.Generation())
	if results != nil {
		if emb, ok := results.Get(h.Path(), e.dim, text); ok {
			e.metrics.CacheLookup(true)
			return emb, true, nil
		}
		e.metrics.CacheLookup(false)
	}

	emb, err := e.models.Infer(ctx, h, text, e.dim)
	if err != nil {
		return nil, false, err
	}
	if results != nil {
		results.Put(h.Path(), e.dim, text, emb)
	}
	return emb, false, nil
}

// resultsFor drops cached results computed by an earlier load of the model
func (e *ModelEmbedder) resultsFor(generation string) *cache.EmbeddingCache {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.results == nil {
		return nil
	}
	if e.generation != generation {
		e.results.Clear()
		e.generation = generation
	}
	return e.results
}

// EmbedBatch generates embeddings for multiple texts. The first failure
// aborts the batch and is reported with its index.
func (e *ModelEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, types.InvalidArgument("embed batch", "empty batch")
	}

	results := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("model batch: %w", types.WithIndex(err, i))
		}
		results[i] = emb
	}
	return results, nil
}

// Dimensions returns the configured width, or the model's native width when
// none was configured. Returns 0 if the model cannot be loaded.
func (e *ModelEmbedder) Dimensions() int {
	if e.dim != 0 {
		return e.dim
	}
	dim, err := e.models.ModelDimension(context.Background(), e.path)
	if err != nil {
		return 0
	}
	return dim
}

// Model returns the model path
func (e *ModelEmbedder) Model() string {
	return e.path
}

// CacheStats returns result cache statistics
func (e *ModelEmbedder) CacheStats() (hits, misses int64, hitRate float64) {
	if e.results == nil {
		return 0, 0, 0
	}
	return e.results.Stats()
}

// Close drops cached results. The model cache is owned by the caller and
// stays open.
func (e *ModelEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.results != nil {
		e.results.Clear()
	}
	return nil
}
