package onnx

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivavenkatesh/embedkit/pkg/types"
)

func TestNewBackendDefaults(t *testing.T) {
	b := NewBackend(Config{})
	assert.Equal(t, BackendName, b.Name())
	assert.Equal(t, DefaultMaxLength, b.maxLength)

	b = NewBackend(Config{MaxLength: 1 << 20})
	assert.Equal(t, types.MaxTextLength, b.maxLength)
}

func TestResolve(t *testing.T) {
	b := NewBackend(Config{})

	_, err := b.Resolve(filepath.Join(t.TempDir(), "missing.onnx"))
	assert.ErrorIs(t, err, types.ErrModelNotFound)

	_, err = b.Resolve("")
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	path := filepath.Join(t.TempDir(), "model.onnx")
	require.NoError(t, os.WriteFile(path, []byte("onnx"), 0644))
	got, err := b.Resolve(path)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
}

func TestLoadCancelled(t *testing.T) {
	b := NewBackend(Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Load(ctx, "/any/model.onnx")
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestLoadGarbageFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.onnx")
	require.NoError(t, os.WriteFile(path, []byte("definitely not protobuf"), 0644))

	b := NewBackend(Config{})
	_, err := b.Load(context.Background(), path)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrModelLoad)
}
