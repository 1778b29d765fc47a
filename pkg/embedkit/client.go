package embedkit

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/shivavenkatesh/embedkit/internal/config"
	"github.com/shivavenkatesh/embedkit/internal/embeddings"
	"github.com/shivavenkatesh/embedkit/internal/fastembed"
	"github.com/shivavenkatesh/embedkit/internal/metrics"
	"github.com/shivavenkatesh/embedkit/internal/modelcache"
	"github.com/shivavenkatesh/embedkit/internal/onnx"
	"github.com/shivavenkatesh/embedkit/internal/vecops"
	"github.com/shivavenkatesh/embedkit/pkg/types"
)

// Client owns a model session slot and the hash engine settings. A Client
// is safe for concurrent use.
type Client struct {
	logger  *zap.Logger
	metrics *metrics.Metrics
	models  *modelcache.Cache
	workers int

	resultCacheSize int
}

type options struct {
	backend         modelcache.Backend
	logger          *zap.Logger
	registerer      prometheus.Registerer
	workers         int
	resultCacheSize int
	dimensionMemo   int
}

// Option configures a Client
type Option func(*options)

// WithBackend sets the model runtime. The default is ONNX Runtime.
func WithBackend(b modelcache.Backend) Option {
	return func(o *options) { o.backend = b }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRegisterer registers the client's Prometheus collectors with reg
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithBatchWorkers bounds the goroutines used by GenerateBatch
func WithBatchWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// WithResultCache sets how many model embeddings each Embedder memoises
func WithResultCache(size int) Option {
	return func(o *options) { o.resultCacheSize = size }
}

// WithDimensionMemo sets how many model widths are remembered after unload
func WithDimensionMemo(size int) Option {
	return func(o *options) { o.dimensionMemo = size }
}

// New creates a client. No model is loaded until one is asked for.
func New(opts ...Option) *Client {
	o := options{workers: 4, dimensionMemo: 16}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.backend == nil {
		o.backend = onnx.NewBackend(onnx.Config{Logger: o.logger})
	}
	if o.workers < 1 {
		o.workers = 1
	}

	m := metrics.New(o.registerer)
	return &Client{
		logger:  o.logger,
		metrics: m,
		models: modelcache.New(o.backend,
			modelcache.WithLogger(o.logger),
			modelcache.WithMetrics(m),
			modelcache.WithDimensionMemo(o.dimensionMemo)),
		workers:         o.workers,
		resultCacheSize: o.resultCacheSize,
	}
}

// FromConfig builds client options from a loaded configuration
func FromConfig(cfg *config.Config, logger *zap.Logger) ([]Option, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var backend modelcache.Backend
	switch cfg.Model.Backend {
	case config.BackendFastEmbed:
		backend = fastembed.NewBackend(fastembed.Config{
			CacheDir:  cfg.Model.CacheDir,
			MaxLength: cfg.Model.MaxLength,
			Logger:    logger,
		})
	default:
		backend = onnx.NewBackend(onnx.Config{
			LibraryPath: cfg.Model.LibraryPath,
			MaxLength:   cfg.Model.MaxLength,
			Logger:      logger,
		})
	}

	return []Option{
		WithBackend(backend),
		WithLogger(logger),
		WithBatchWorkers(cfg.Embedding.Workers),
		WithResultCache(cfg.Model.ResultCacheSize),
		WithDimensionMemo(cfg.Model.DimensionMemoSize),
	}, nil
}

// Generate returns the hash embedding of text
func (c *Client) Generate(ctx context.Context, text string, dimension int) (types.Embedding, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	emb, err := embeddings.Generate(text, dimension)
	c.metrics.ObserveGeneration(metrics.SourceHash, 1, start, err)
	return emb, err
}

// GenerateBatch embeds texts with the hash engine across the configured
// workers. Results keep input order.
func (c *Client) GenerateBatch(ctx context.Context, texts []string, dimension int) ([]types.Embedding, error) {
	start := time.Now()
	embs, err := embeddings.GenerateBatchParallel(ctx, texts, dimension, c.workers)
	c.metrics.ObserveGeneration(metrics.SourceHash, len(embs), start, err)
	return embs, err
}

// ModelEmbedding embeds text with the model at modelPath, loading it into
// the slot if another model (or none) is resident. dimension 0 accepts the
// model's native width.
func (c *Client) ModelEmbedding(ctx context.Context, modelPath, text string, dimension int) (types.Embedding, error) {
	return c.models.Embed(ctx, modelPath, text, dimension)
}

// ModelOutputDimension reports the native width of the model at modelPath
func (c *Client) ModelOutputDimension(ctx context.Context, modelPath string) (int, error) {
	return c.models.ModelDimension(ctx, modelPath)
}

// UnloadModel releases the resident model. It is a no-op when none is loaded.
func (c *Client) UnloadModel() error {
	return c.models.Unload()
}

// Backend names the model runtime
func (c *Client) Backend() string {
	return c.models.Backend()
}

// LoadedModel describes the resident model, if any
func (c *Client) LoadedModel() (types.ModelInfo, bool) {
	s := c.models.Stats()
	if !s.Loaded {
		return types.ModelInfo{}, false
	}
	return types.ModelInfo{
		Path:       s.Path,
		Backend:    c.models.Backend(),
		Dimension:  s.Dimension,
		Generation: s.Generation,
	}, true
}

// Embedder returns an Embedder for modelPath at a fixed dimension. An empty
// modelPath selects the hash engine.
func (c *Client) Embedder(modelPath string, dimension int) (Embedder, error) {
	if modelPath == "" {
		e, err := embeddings.NewHashEmbedder(dimension, c.workers)
		if err != nil {
			return nil, err
		}
		return e, nil
	}
	e, err := embeddings.NewModelEmbedder(c.models, embeddings.ModelConfig{
		ModelPath: modelPath,
		Dimension: dimension,
		CacheSize: c.resultCacheSize,
		Metrics:   c.metrics,
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Rank scores candidates against query and returns the best k, most similar
// first. An empty modelPath ranks with hash embeddings.
func (c *Client) Rank(ctx context.Context, query string, candidates []string, modelPath string, dimension, k int) (types.RankResponse, error) {
	emb, err := c.Embedder(modelPath, dimension)
	if err != nil {
		return types.RankResponse{}, err
	}
	defer emb.Close()

	q, err := emb.Embed(ctx, query)
	if err != nil {
		return types.RankResponse{}, fmt.Errorf("embedding query: %w", err)
	}
	vecs, err := emb.EmbedBatch(ctx, candidates)
	if err != nil {
		return types.RankResponse{}, fmt.Errorf("embedding candidates: %w", err)
	}

	matches := vecops.TopK(q, vecs, k)
	resp := types.RankResponse{
		Query:   query,
		Model:   emb.Model(),
		Results: make([]types.RankedText, len(matches)),
	}
	for i, m := range matches {
		resp.Results[i] = types.RankedText{
			Index:      m.Index,
			Text:       candidates[m.Index],
			Similarity: m.Similarity,
		}
	}
	return resp, nil
}

// Close releases the resident model
func (c *Client) Close() error {
	return c.models.Close()
}
