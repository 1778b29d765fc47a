// Package onnx runs embedding models through ONNX Runtime.
//
// Sessions feed the model whichever of input_ids, token_type_ids and
// attention_mask it declares and return the [CLS] row of the first output.
// Supported models:
//   - all-MiniLM-L6-v2 (23MB, 384 dims)
//   - bge-small-en-v1.5 (33MB, 384 dims)
//   - nomic-embed-text-v1 (274MB, 768 dims)
package onnx

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/shivavenkatesh/embedkit/internal/modelcache"
	"github.com/shivavenkatesh/embedkit/pkg/types"
)

// BackendName is reported in logs and metrics
const BackendName = "onnx"

// DefaultMaxLength is the default token sequence length
const DefaultMaxLength = 512

// ErrRuntimeUnavailable is returned by binaries built without cgo
var ErrRuntimeUnavailable = fmt.Errorf("%w: ONNX Runtime not available (binary built without cgo)", types.ErrModelLoad)

// Config configures the ONNX backend
type Config struct {
	LibraryPath string // shared library; see LibraryPath for the fallback order
	MaxLength   int    // token sequence cap, including [CLS] and [SEP]
	Logger      *zap.Logger
}

// Backend opens ONNX model files as modelcache sessions
type Backend struct {
	libraryPath string
	maxLength   int
	logger      *zap.Logger
}

var _ modelcache.Backend = (*Backend)(nil)

// NewBackend creates an ONNX backend. The runtime itself is initialised on
// the first Load.
func NewBackend(cfg Config) *Backend {
	if cfg.MaxLength <= 0 {
		cfg.MaxLength = DefaultMaxLength
	}
	if cfg.MaxLength > types.MaxTextLength {
		cfg.MaxLength = types.MaxTextLength
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Backend{
		libraryPath: cfg.LibraryPath,
		maxLength:   cfg.MaxLength,
		logger:      cfg.Logger.Named("onnx"),
	}
}

// Name returns "onnx"
func (b *Backend) Name() string {
	return BackendName
}

// Resolve canonicalises a model file path
func (b *Backend) Resolve(modelPath string) (string, error) {
	return modelcache.ResolveFile(modelPath)
}

// Load opens a session for the model file at key
func (b *Backend) Load(ctx context.Context, key string) (modelcache.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return b.load(key)
}

func loadError(path, msg string) error {
	return &types.Error{Op: "load model", Path: path, Msg: msg, Index: -1, Err: types.ErrModelLoad}
}
