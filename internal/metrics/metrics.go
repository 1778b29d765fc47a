// Package metrics defines Prometheus collectors for embedding generation and
// model session management.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/shivavenkatesh/embedkit/pkg/types"
)

// Sources label which embedding path produced a vector
const (
	SourceHash  = "hash"
	SourceModel = "model"
)

// Metrics holds Prometheus metrics for embedkit.
//
// Metrics:
//   - embedkit_embeddings_generated_total{source}
//   - embedkit_generation_errors_total{source,kind}
//   - embedkit_generation_duration_seconds{source}
//   - embedkit_model_loads_total{backend}
//   - embedkit_model_load_errors_total{backend}
//   - embedkit_model_unloads_total
//   - embedkit_model_loaded
//   - embedkit_result_cache_total{result}
type Metrics struct {
	EmbeddingsGenerated *prometheus.CounterVec
	GenerationErrors    *prometheus.CounterVec
	GenerationDuration  *prometheus.HistogramVec

	ModelLoads      *prometheus.CounterVec
	ModelLoadErrors *prometheus.CounterVec
	ModelUnloads    prometheus.Counter
	ModelLoaded     prometheus.Gauge

	ResultCache *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		EmbeddingsGenerated: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "embedkit_embeddings_generated_total",
				Help: "Total number of embeddings generated",
			},
			[]string{"source"},
		),
		GenerationErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "embedkit_generation_errors_total",
				Help: "Total number of failed embedding requests by error kind",
			},
			[]string{"source", "kind"},
		),
		GenerationDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "embedkit_generation_duration_seconds",
				Help:    "Duration of embedding generation in seconds",
				Buckets: []float64{0.00001, 0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"source"},
		),
		ModelLoads: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "embedkit_model_loads_total",
				Help: "Total number of model sessions loaded",
			},
			[]string{"backend"},
		),
		ModelLoadErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "embedkit_model_load_errors_total",
				Help: "Total number of failed model loads",
			},
			[]string{"backend"},
		),
		ModelUnloads: f.NewCounter(prometheus.CounterOpts{
			Name: "embedkit_model_unloads_total",
			Help: "Total number of model sessions released from the cache slot",
		}),
		ModelLoaded: f.NewGauge(prometheus.GaugeOpts{
			Name: "embedkit_model_loaded",
			Help: "1 while a model session occupies the cache slot",
		}),
		ResultCache: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "embedkit_result_cache_total",
				Help: "Model embedding result cache lookups by result (hit or miss)",
			},
			[]string{"result"},
		),
	}
}

// ObserveGeneration records the outcome of n embeddings from source
func (m *Metrics) ObserveGeneration(source string, n int, start time.Time, err error) {
	if m == nil {
		return
	}
	m.GenerationDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	if err != nil {
		m.GenerationErrors.WithLabelValues(source, ErrorKind(err)).Inc()
		return
	}
	m.EmbeddingsGenerated.WithLabelValues(source).Add(float64(n))
}

// CacheLookup records a result cache hit or miss
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.ResultCache.WithLabelValues("hit").Inc()
		return
	}
	m.ResultCache.WithLabelValues("miss").Inc()
}

// ErrorKind maps an error onto a low-cardinality label value
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, types.ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, types.ErrModelNotFound):
		return "model_not_found"
	case errors.Is(err, types.ErrModelLoad):
		return "model_load"
	case errors.Is(err, types.ErrDimensionMismatch):
		return "dimension_mismatch"
	case errors.Is(err, types.ErrGenerationFailure):
		return "generation_failure"
	default:
		return "other"
	}
}
