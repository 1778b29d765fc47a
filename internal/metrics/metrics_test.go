package metrics

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivavenkatesh/embedkit/pkg/types"
)

func TestNew_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ModelLoads.WithLabelValues("onnx").Inc()
	m.ModelUnloads.Inc()
	m.ModelLoaded.Set(1)
	m.CacheLookup(true)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["embedkit_model_loads_total"])
	assert.True(t, names["embedkit_model_unloads_total"])
	assert.True(t, names["embedkit_model_loaded"])
	assert.True(t, names["embedkit_result_cache_total"])
}

func TestNew_NilRegistererDoesNotPanic(t *testing.T) {
	a := New(nil)
	b := New(nil)
	a.ModelUnloads.Inc()
	b.ModelUnloads.Inc()

	assert.Equal(t, 1.0, testutil.ToFloat64(a.ModelUnloads))
}

func TestObserveGeneration(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveGeneration(SourceHash, 3, time.Now(), nil)
	m.ObserveGeneration(SourceHash, 1, time.Now(), types.InvalidArgument("generate", "text is empty"))

	assert.Equal(t, 3.0, testutil.ToFloat64(m.EmbeddingsGenerated.WithLabelValues(SourceHash)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.GenerationErrors.WithLabelValues(SourceHash, "invalid_argument")))
}

func TestObserveGeneration_NilMetrics(t *testing.T) {
	var m *Metrics
	m.ObserveGeneration(SourceModel, 1, time.Now(), nil)
	m.CacheLookup(false)
}

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{types.ErrInvalidArgument, "invalid_argument"},
		{fmt.Errorf("wrapped: %w", types.ErrModelNotFound), "model_not_found"},
		{&types.Error{Op: "load", Err: types.ErrModelLoad}, "model_load"},
		{types.ErrDimensionMismatch, "dimension_mismatch"},
		{types.ErrGenerationFailure, "generation_failure"},
		{context.Canceled, "other"},
		{errors.New("boom"), "other"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, ErrorKind(tt.err))
		})
	}
}
