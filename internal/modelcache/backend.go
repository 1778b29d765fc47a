// Package modelcache keeps at most one neural model session resident and
// shares it between callers.
//
// A Cache owns a single slot. Asking for the model already in the slot reuses
// its session; asking for a different model releases the old session and
// loads the new one. Sessions are reference counted, so a caller that is
// mid-inference keeps its session alive even while another goroutine swaps
// or unloads the slot.
package modelcache

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/shivavenkatesh/embedkit/pkg/types"
)

// Backend loads model sessions for one runtime (ONNX Runtime, FastEmbed, ...)
type Backend interface {
	// Name identifies the backend in logs and metrics
	Name() string

	// Resolve maps a caller supplied model reference to the canonical key
	// used for slot comparison. Missing or unreadable models yield
	// types.ErrModelNotFound.
	Resolve(modelPath string) (string, error)

	// Load opens a session for a key returned by Resolve. Malformed or
	// unsupported models yield types.ErrModelLoad.
	Load(ctx context.Context, key string) (Session, error)
}

// Session is a loaded model ready for inference
type Session interface {
	// Infer returns the raw, unnormalised output vector for text
	Infer(ctx context.Context, text string) ([]float32, error)

	// OutputDimension is the native width of the model output
	OutputDimension() int

	// Close releases runtime resources
	Close() error
}

// ResolveFile canonicalises a model file path: absolute, symlinks resolved,
// and checked to be a readable regular file.
func ResolveFile(modelPath string) (string, error) {
	if modelPath == "" {
		return "", &types.Error{Op: "resolve model", Msg: "empty model path", Index: -1, Err: types.ErrInvalidArgument}
	}

	abs, err := filepath.Abs(modelPath)
	if err != nil {
		return "", notFound(modelPath, err.Error())
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", notFound(modelPath, "no such file")
		}
		return "", notFound(modelPath, err.Error())
	}

	f, err := os.Open(real)
	if err != nil {
		return "", notFound(real, "unreadable: "+err.Error())
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", notFound(real, err.Error())
	}
	if !info.Mode().IsRegular() {
		return "", notFound(real, "not a regular file")
	}
	return real, nil
}

func notFound(path, msg string) error {
	return &types.Error{Op: "resolve model", Path: path, Msg: msg, Index: -1, Err: types.ErrModelNotFound}
}
