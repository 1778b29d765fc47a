// Package fastembed serves named FastEmbed models through the modelcache.
//
// Models are referred to by name rather than by file. Friendly names such as
// "BAAI/bge-small-en-v1.5" resolve to the FastEmbed model id, which is then
// downloaded into the cache directory on first load.
package fastembed

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/shivavenkatesh/embedkit/internal/modelcache"
	"github.com/shivavenkatesh/embedkit/pkg/types"
)

// BackendName is reported in logs and metrics
const BackendName = "fastembed"

// DefaultMaxLength is the default token sequence length
const DefaultMaxLength = 512

// ErrRuntimeUnavailable is returned by binaries built without cgo
var ErrRuntimeUnavailable = fmt.Errorf("%w: FastEmbed not available (binary built without cgo)", types.ErrModelLoad)

// modelAliases maps friendly model names to FastEmbed model ids
var modelAliases = map[string]string{
	"BAAI/bge-small-en-v1.5":                 "fast-bge-small-en-v1.5",
	"BAAI/bge-small-en":                      "fast-bge-small-en",
	"BAAI/bge-base-en-v1.5":                  "fast-bge-base-en-v1.5",
	"BAAI/bge-base-en":                       "fast-bge-base-en",
	"BAAI/bge-small-zh-v1.5":                 "fast-bge-small-zh-v1.5",
	"sentence-transformers/all-MiniLM-L6-v2": "fast-all-MiniLM-L6-v2",
}

// modelDimensions is the output width of each FastEmbed model id
var modelDimensions = map[string]int{
	"fast-bge-small-en-v1.5": 384,
	"fast-bge-small-en":      384,
	"fast-bge-base-en-v1.5":  768,
	"fast-bge-base-en":       768,
	"fast-bge-small-zh-v1.5": 512,
	"fast-all-MiniLM-L6-v2":  384,
}

// Models lists the FastEmbed model ids this backend can load
func Models() []string {
	ids := make([]string, 0, len(modelDimensions))
	for id := range modelDimensions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ModelDimension returns the output width of a model name or id
func ModelDimension(name string) (int, bool) {
	id, err := canonical(name)
	if err != nil {
		return 0, false
	}
	return modelDimensions[id], true
}

func canonical(name string) (string, error) {
	if name == "" {
		return "", &types.Error{Op: "resolve model", Msg: "empty model name", Index: -1, Err: types.ErrInvalidArgument}
	}
	if id, ok := modelAliases[name]; ok {
		return id, nil
	}
	if _, ok := modelDimensions[name]; ok {
		return name, nil
	}
	return "", &types.Error{
		Op:    "resolve model",
		Path:  name,
		Msg:   "unknown FastEmbed model",
		Index: -1,
		Err:   types.ErrModelNotFound,
	}
}

// Config configures the FastEmbed backend
type Config struct {
	CacheDir  string // where model archives are downloaded
	MaxLength int
	Logger    *zap.Logger
}

// Backend loads FastEmbed models as modelcache sessions
type Backend struct {
	cacheDir  string
	maxLength int
	logger    *zap.Logger
}

var _ modelcache.Backend = (*Backend)(nil)

// NewBackend creates a FastEmbed backend
func NewBackend(cfg Config) *Backend {
	if cfg.CacheDir == "" {
		cfg.CacheDir = filepath.Join(".", "local_cache")
	}
	if cfg.MaxLength <= 0 {
		cfg.MaxLength = DefaultMaxLength
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Backend{
		cacheDir:  cfg.CacheDir,
		maxLength: cfg.MaxLength,
		logger:    cfg.Logger.Named("fastembed"),
	}
}

// Name returns "fastembed"
func (b *Backend) Name() string {
	return BackendName
}

// Resolve maps a model name to its FastEmbed id. Resolving an id returns it
// unchanged.
func (b *Backend) Resolve(modelPath string) (string, error) {
	return canonical(modelPath)
}

// Load initialises the model with the given id, downloading it if needed
func (b *Backend) Load(ctx context.Context, key string) (modelcache.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dim, ok := modelDimensions[key]
	if !ok {
		return nil, loadError(key, "unknown FastEmbed model id")
	}
	return b.load(key, dim)
}

func loadError(path, msg string) error {
	return &types.Error{Op: "load model", Path: path, Msg: msg, Index: -1, Err: types.ErrModelLoad}
}
