// Package modelcachetest provides a model backend for tests that needs no
// runtime library. Model files contain "dim=<n>"; sessions return a vector
// derived from the input bytes.
package modelcachetest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/shivavenkatesh/embedkit/internal/modelcache"
)

// Backend is a modelcache.Backend over "dim=<n>" files
type Backend struct {
	Loads  atomic.Int64
	Closes atomic.Int64
	Infers atomic.Int64
}

var _ modelcache.Backend = (*Backend)(nil)

// NewBackend creates a test backend
func NewBackend() *Backend {
	return &Backend{}
}

// WriteModel creates a model file of the given width in dir
func WriteModel(tb testing.TB, dir, name string, dim int) string {
	tb.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("dim="+strconv.Itoa(dim)), 0644); err != nil {
		tb.Fatalf("write model: %v", err)
	}
	return path
}

func (b *Backend) Name() string { return "test" }

func (b *Backend) Resolve(modelPath string) (string, error) {
	return modelcache.ResolveFile(modelPath)
}

func (b *Backend) Load(_ context.Context, key string) (modelcache.Session, error) {
	content, err := os.ReadFile(key)
	if err != nil {
		return nil, err
	}
	s, ok := strings.CutPrefix(strings.TrimSpace(string(content)), "dim=")
	if !ok {
		return nil, errors.New("malformed model file")
	}
	dim, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("malformed width: %w", err)
	}
	b.Loads.Add(1)
	return &session{backend: b, dim: dim}, nil
}

type session struct {
	backend *Backend
	dim     int
	closed  atomic.Bool
}

func (s *session) Infer(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.closed.Load() {
		return nil, errors.New("session used after close")
	}
	s.backend.Infers.Add(1)

	out := make([]float32, s.dim)
	for i := range out {
		out[i] = float32(int(text[i%len(text)]) + i%5)
	}
	return out, nil
}

func (s *session) OutputDimension() int { return s.dim }

func (s *session) Close() error {
	if s.closed.Swap(true) {
		return errors.New("double close")
	}
	s.backend.Closes.Add(1)
	return nil
}
