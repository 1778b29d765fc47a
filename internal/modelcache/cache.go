package modelcache

import (
	"context"
	"errors"
	"math"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shivavenkatesh/embedkit/internal/cache"
	"github.com/shivavenkatesh/embedkit/internal/metrics"
	"github.com/shivavenkatesh/embedkit/internal/vecops"
	"github.com/shivavenkatesh/embedkit/pkg/types"
)

// Handle is a reference to a loaded session. Every handle returned by
// GetOrLoad must be released exactly once.
type Handle struct {
	key        string
	backend    string
	generation uuid.UUID
	session    Session
	dim        int
	loadedAt   time.Time

	refs      atomic.Int64
	closeOnce sync.Once
	closeErr  error
	logger    *zap.Logger
}

// Path returns the canonical model key
func (h *Handle) Path() string { return h.key }

// Generation identifies this particular load of the model
func (h *Handle) Generation() string { return h.generation.String() }

// OutputDimension returns the native width of the model output
func (h *Handle) OutputDimension() int { return h.dim }

// Release drops the caller's reference. The session closes once the cache
// slot and every holder have released it; the close error, if any, is
// returned to whoever dropped the last reference.
func (h *Handle) Release() error {
	if h.refs.Add(-1) > 0 {
		return nil
	}
	h.closeOnce.Do(func() {
		h.closeErr = h.session.Close()
		if h.closeErr != nil {
			h.logger.Warn("failed to close model session",
				zap.String("path", h.key),
				zap.String("generation", h.Generation()),
				zap.Error(h.closeErr))
			return
		}
		h.logger.Debug("model session closed",
			zap.String("path", h.key),
			zap.String("generation", h.Generation()))
	})
	return h.closeErr
}

// Info describes the handle for callers outside this package
func (h *Handle) Info() types.ModelInfo {
	return types.ModelInfo{
		Path:       h.key,
		Backend:    h.backend,
		Dimension:  h.dim,
		Generation: h.Generation(),
	}
}

// Stats is a snapshot of the cache slot
type Stats struct {
	Loaded     bool
	Path       string
	Generation string
	Dimension  int
	Loads      int64
	Unloads    int64
}

// Option configures a Cache
type Option func(*Cache)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics sets the Prometheus collectors
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// WithDimensionMemo sets how many model widths are remembered after unload
func WithDimensionMemo(size int) Option {
	return func(c *Cache) { c.dims = cache.NewLRU[string, int](size) }
}

// Cache owns the single model session slot
type Cache struct {
	backend Backend
	logger  *zap.Logger
	metrics *metrics.Metrics
	dims    *cache.LRU[string, int]

	mu      sync.Mutex // serialises load, swap and unload
	current *Handle

	loads   atomic.Int64
	unloads atomic.Int64
}

// New creates an empty cache for backend
func New(backend Backend, opts ...Option) *Cache {
	c := &Cache{
		backend: backend,
		logger:  zap.NewNop(),
		dims:    cache.NewLRU[string, int](16),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("modelcache")
	return c
}

// Backend returns the backend name
func (c *Cache) Backend() string {
	return c.backend.Name()
}

// GetOrLoad returns a handle to the session for modelPath, loading it if the
// slot is empty or holds another model. The caller must Release the handle.
func (c *Cache) GetOrLoad(ctx context.Context, modelPath string) (*Handle, error) {
	key, err := c.backend.Resolve(modelPath)
	if err != nil {
		return nil, asModelError("load model", modelPath, err, types.ErrModelNotFound)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if h := c.current; h != nil && h.key == key {
		h.refs.Add(1)
		c.logger.Debug("reusing model session",
			zap.String("path", key),
			zap.String("generation", h.Generation()))
		return h, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Only one model is resident at a time: the old session goes before the
	// new one is opened.
	c.releaseSlotLocked()

	start := time.Now()
	session, err := c.backend.Load(ctx, key)
	if err != nil {
		c.loadFailed()
		c.logger.Warn("model load failed", zap.String("path", key), zap.Error(err))
		return nil, asModelError("load model", key, err, types.ErrModelLoad)
	}

	dim := session.OutputDimension()
	if dim <= 0 || dim > types.MaxModelDimension {
		_ = session.Close()
		c.loadFailed()
		return nil, &types.Error{
			Op:        "load model",
			Path:      key,
			Dimension: dim,
			Index:     -1,
			Msg:       "unsupported output width",
			Err:       types.ErrModelLoad,
		}
	}

	h := &Handle{
		key:        key,
		backend:    c.backend.Name(),
		generation: uuid.New(),
		session:    session,
		dim:        dim,
		loadedAt:   time.Now(),
		logger:     c.logger,
	}
	h.refs.Store(2) // slot + caller

	c.current = h
	c.dims.Put(key, dim)
	c.loads.Add(1)
	if c.metrics != nil {
		c.metrics.ModelLoads.WithLabelValues(c.backend.Name()).Inc()
		c.metrics.ModelLoaded.Set(1)
	}

	c.logger.Info("model session loaded",
		zap.String("backend", c.backend.Name()),
		zap.String("path", key),
		zap.Int("dimension", dim),
		zap.String("generation", h.Generation()),
		zap.Duration("took", time.Since(start)))

	return h, nil
}

// Infer runs the model behind h and returns an L2-normalised embedding.
// outputDimension 0 accepts the model's native width; any other value must
// equal it, since outputs are never truncated or padded.
func (c *Cache) Infer(ctx context.Context, h *Handle, text string, outputDimension int) (types.Embedding, error) {
	if h == nil {
		return nil, types.InvalidArgument("infer", "nil model handle")
	}
	if err := types.ValidateText("infer", text); err != nil {
		return nil, err
	}
	if outputDimension < 0 || outputDimension > types.MaxModelDimension {
		e := types.InvalidArgument("infer", "output dimension must be between 0 and 2048")
		e.Dimension = outputDimension
		return nil, e
	}

	want := outputDimension
	if want == 0 {
		want = h.dim
	}
	if want != h.dim {
		return nil, mismatch(h.key, want, h.dim)
	}

	raw, err := h.session.Infer(ctx, text)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return nil, err
		}
		return nil, asModelError("infer", h.key, err, types.ErrGenerationFailure)
	}
	if len(raw) != want {
		return nil, mismatch(h.key, want, len(raw))
	}

	out := make(types.Embedding, len(raw))
	copy(out, raw)
	for _, v := range out {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return nil, &types.Error{Op: "infer", Path: h.key, Msg: "model produced non-finite output", Index: -1, Err: types.ErrGenerationFailure}
		}
	}
	vecops.Normalize(out)
	return out, nil
}

// Embed loads (or reuses) modelPath and embeds text with it
func (c *Cache) Embed(ctx context.Context, modelPath, text string, outputDimension int) (types.Embedding, error) {
	start := time.Now()
	emb, err := c.embed(ctx, modelPath, text, outputDimension)
	c.metrics.ObserveGeneration(metrics.SourceModel, 1, start, err)
	return emb, err
}

func (c *Cache) embed(ctx context.Context, modelPath, text string, outputDimension int) (types.Embedding, error) {
	// Cheap argument checks come before any model load.
	if err := types.ValidateText("infer", text); err != nil {
		return nil, err
	}
	if outputDimension < 0 || outputDimension > types.MaxModelDimension {
		e := types.InvalidArgument("infer", "output dimension must be between 0 and 2048")
		e.Dimension = outputDimension
		return nil, e
	}

	h, err := c.GetOrLoad(ctx, modelPath)
	if err != nil {
		return nil, err
	}
	defer h.Release()

	return c.Infer(ctx, h, text, outputDimension)
}

// ModelDimension reports the native output width of modelPath. Widths of
// recently loaded models are remembered, so asking again after a swap or
// unload does not reload the model.
func (c *Cache) ModelDimension(ctx context.Context, modelPath string) (int, error) {
	key, err := c.backend.Resolve(modelPath)
	if err != nil {
		return 0, asModelError("model dimension", modelPath, err, types.ErrModelNotFound)
	}
	if dim, ok := c.dims.Get(key); ok {
		return dim, nil
	}

	h, err := c.GetOrLoad(ctx, key)
	if err != nil {
		return 0, err
	}
	defer h.Release()
	return h.dim, nil
}

// Unload empties the slot. The session closes immediately unless handles
// are still held, in which case the last Release closes it. Calling Unload
// on an empty cache is a no-op.
func (c *Cache) Unload() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.releaseSlotLocked()
}

// Close releases the resident session
func (c *Cache) Close() error {
	return c.Unload()
}

// Stats returns a snapshot of the slot and counters
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Stats{Loads: c.loads.Load(), Unloads: c.unloads.Load()}
	if h := c.current; h != nil {
		s.Loaded = true
		s.Path = h.key
		s.Generation = h.Generation()
		s.Dimension = h.dim
	}
	return s
}

func (c *Cache) releaseSlotLocked() error {
	h := c.current
	if h == nil {
		return nil
	}
	c.current = nil
	c.unloads.Add(1)
	if c.metrics != nil {
		c.metrics.ModelUnloads.Inc()
		c.metrics.ModelLoaded.Set(0)
	}

	c.logger.Info("model session released",
		zap.String("path", h.key),
		zap.String("generation", h.Generation()),
		zap.Duration("resident", time.Since(h.loadedAt)))
	return h.Release()
}

func (c *Cache) loadFailed() {
	if c.metrics != nil {
		c.metrics.ModelLoadErrors.WithLabelValues(c.backend.Name()).Inc()
	}
}

func mismatch(path string, want, got int) error {
	return &types.Error{
		Op:        "infer",
		Path:      path,
		Dimension: want,
		Index:     -1,
		Msg:       "model output width " + strconv.Itoa(got) + " differs from requested",
		Err:       types.ErrDimensionMismatch,
	}
}

// asModelError keeps errors that already carry a kind and files anything
// else under kind
func asModelError(op, path string, err error, kind error) error {
	var e *types.Error
	if errors.As(err, &e) {
		return err
	}
	for _, k := range []error{types.ErrInvalidArgument, types.ErrModelNotFound, types.ErrModelLoad, types.ErrDimensionMismatch, types.ErrGenerationFailure} {
		if errors.Is(err, k) {
			return &types.Error{Op: op, Path: path, Index: -1, Err: err}
		}
	}
	return &types.Error{Op: op, Path: path, Msg: err.Error(), Index: -1, Err: kind}
}
