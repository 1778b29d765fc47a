//go:build cgo

package onnx

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap"

	"github.com/shivavenkatesh/embedkit/internal/modelcache"
	"github.com/shivavenkatesh/embedkit/pkg/types"
)

const (
	inputIDs      = "input_ids"
	tokenTypeIDs  = "token_type_ids"
	attentionMask = "attention_mask"
)

var (
	envOnce sync.Once
	envErr  error
)

// initRuntime loads the shared library once per process
func initRuntime(libPath string, logger *zap.Logger) error {
	envOnce.Do(func() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		envErr = ort.InitializeEnvironment()
		if envErr == nil {
			logger.Debug("ONNX Runtime initialised", zap.String("library", libPath))
		}
	})
	return envErr
}

type session struct {
	path       string
	inner      *ort.DynamicAdvancedSession
	inputNames []string
	outputRank int
	dim        int
	maxLength  int
}

func (b *Backend) load(key string) (modelcache.Session, error) {
	if err := initRuntime(LibraryPath(b.libraryPath), b.logger); err != nil {
		return nil, loadError(key, "initialise ONNX Runtime: "+err.Error())
	}

	inputs, outputs, err := ort.GetInputOutputInfo(key)
	if err != nil {
		return nil, loadError(key, err.Error())
	}

	var names []string
	hasIDs := false
	for _, in := range inputs {
		switch in.Name {
		case inputIDs:
			hasIDs = true
			names = append(names, in.Name)
		case tokenTypeIDs, attentionMask:
			names = append(names, in.Name)
		default:
			return nil, loadError(key, fmt.Sprintf("unsupported model input %q", in.Name))
		}
	}
	if !hasIDs {
		return nil, loadError(key, "model has no input_ids input")
	}

	if len(outputs) == 0 {
		return nil, loadError(key, "model declares no outputs")
	}
	out := outputs[0]
	rank := len(out.Dimensions)
	if rank != 2 && rank != 3 {
		return nil, loadError(key, fmt.Sprintf("output %q has rank %d, want 2 or 3", out.Name, rank))
	}
	width := out.Dimensions[rank-1]
	if width <= 0 || width > types.MaxModelDimension {
		return nil, loadError(key, fmt.Sprintf("output %q has unsupported width %d", out.Name, width))
	}

	inner, err := ort.NewDynamicAdvancedSession(key, names, []string{out.Name}, nil)
	if err != nil {
		return nil, loadError(key, err.Error())
	}

	b.logger.Debug("ONNX session created",
		zap.String("path", key),
		zap.Strings("inputs", names),
		zap.String("output", out.Name),
		zap.Int64("width", width))

	return &session{
		path:       key,
		inner:      inner,
		inputNames: names,
		outputRank: rank,
		dim:        int(width),
		maxLength:  b.maxLength,
	}, nil
}

// Infer tokenizes text, runs the model and returns the first output row
func (s *session) Infer(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ids := Tokenize(text, s.maxLength)
	n := int64(len(ids))
	shape := ort.NewShape(1, n)

	inputs := make([]ort.ArbitraryTensor, 0, len(s.inputNames))
	defer func() {
		for _, t := range inputs {
			t.Destroy()
		}
	}()

	for _, name := range s.inputNames {
		var data []int64
		switch name {
		case inputIDs:
			data = ids
		case tokenTypeIDs:
			data = make([]int64, n)
		case attentionMask:
			data = make([]int64, n)
			for i := range data {
				data[i] = 1
			}
		}
		t, err := ort.NewTensor(shape, data)
		if err != nil {
			return nil, fmt.Errorf("creating %s tensor: %w", name, err)
		}
		inputs = append(inputs, t)
	}

	outShape := ort.NewShape(1, int64(s.dim))
	if s.outputRank == 3 {
		outShape = ort.NewShape(1, n, int64(s.dim))
	}
	output, err := ort.NewEmptyTensor[float32](outShape)
	if err != nil {
		return nil, fmt.Errorf("creating output tensor: %w", err)
	}
	defer output.Destroy()

	if err := s.inner.Run(inputs, []ort.ArbitraryTensor{output}); err != nil {
		return nil, fmt.Errorf("running %s: %w", s.path, err)
	}

	// [CLS] is the first row for token-level outputs
	data := output.GetData()
	out := make([]float32, s.dim)
	copy(out, data[:s.dim])
	return out, nil
}

func (s *session) OutputDimension() int {
	return s.dim
}

func (s *session) Close() error {
	return s.inner.Destroy()
}
