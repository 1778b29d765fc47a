//go:build cgo

package fastembed

import (
	"context"
	"fmt"
	"sync"

	fe "github.com/anush008/fastembed-go"
	"go.uber.org/zap"

	"github.com/shivavenkatesh/embedkit/internal/modelcache"
)

type session struct {
	id    string
	dim   int
	mu    sync.Mutex
	model *fe.FlagEmbedding
}

func (b *Backend) load(id string, dim int) (modelcache.Session, error) {
	// Disable progress bar, output goes to stderr alongside logs
	showProgress := false

	model, err := fe.NewFlagEmbedding(&fe.InitOptions{
		Model:                fe.EmbeddingModel(id),
		CacheDir:             b.cacheDir,
		MaxLength:            b.maxLength,
		ShowDownloadProgress: &showProgress,
	})
	if err != nil {
		return nil, loadError(id, "initializing FastEmbed: "+err.Error())
	}

	b.logger.Debug("FastEmbed model loaded",
		zap.String("model", id),
		zap.String("cache_dir", b.cacheDir),
		zap.Int("dimension", dim))

	return &session{id: id, dim: dim, model: model}, nil
}

// Infer embeds text without a query or passage prefix
func (s *session) Infer(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.model == nil {
		return nil, fmt.Errorf("model %s is closed", s.id)
	}
	out, err := s.model.Embed([]string{text}, 1)
	if err != nil {
		return nil, fmt.Errorf("embedding with %s: %w", s.id, err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("embedding with %s: got %d vectors for one input", s.id, len(out))
	}
	return out[0], nil
}

func (s *session) OutputDimension() int {
	return s.dim
}

func (s *session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.model == nil {
		return nil
	}
	err := s.model.Destroy()
	s.model = nil
	return err
}
