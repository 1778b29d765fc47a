package embeddings

import (
	"context"
	"math"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/shivavenkatesh/embedkit/pkg/types"
)

// HashModelName identifies embeddings produced by the hash engine
const HashModelName = "hash-sqrt"

const (
	hashMultiplier = 31
	hashSeedScale  = 37
	hashShift      = 16
)

// positionalHash folds text into a 64-bit value starting from seed.
// Every byte is weighted by its 1-based position, so reordering changes the result.
func positionalHash(text []byte, seed uint64) uint64 {
	h := seed
	for i, b := range text {
		h = h*hashMultiplier + uint64(b)*uint64(i+1)
	}
	return h
}

// combinedHash mixes two positional hashes with related seeds
func combinedHash(text []byte, seed uint64) uint64 {
	return positionalHash(text, seed) ^ (positionalHash(text, seed*hashSeedScale) << hashShift)
}

// hashToFloat maps the low 31 bits of h into [-1, 1] through a square root,
// which spreads values away from zero compared to a linear mapping.
func hashToFloat(h uint64) float32 {
	u := float64(h&0x7FFFFFFF) / float64(1<<31)
	return float32(math.Sqrt(u)*2 - 1)
}

// textHasher evaluates positionalHash for any seed in O(1) after one pass
// over the text. positionalHash is affine in its seed:
//
//	positionalHash(t, s) = s*31^len(t) + positionalHash(t, 0)  (mod 2^64)
type textHasher struct {
	base uint64 // positionalHash(text, 0)
	pow  uint64 // 31^len(text)
}

func newTextHasher(text []byte) textHasher {
	th := textHasher{pow: 1}
	for i, b := range text {
		th.base = th.base*hashMultiplier + uint64(b)*uint64(i+1)
		th.pow *= hashMultiplier
	}
	return th
}

func (th textHasher) positional(seed uint64) uint64 {
	return seed*th.pow + th.base
}

func (th textHasher) combined(seed uint64) uint64 {
	return th.positional(seed) ^ (th.positional(seed*hashSeedScale) << hashShift)
}

// Generate produces a deterministic embedding of the requested dimension.
// A dimension of 0 selects 128. Text is lower-cased before hashing, so the
// result is case-insensitive but sensitive to character order.
func Generate(text string, dimension int) (types.Embedding, error) {
	if err := types.ValidateText("generate", text); err != nil {
		return nil, err
	}
	dim, err := types.ParseDimension(dimension)
	if err != nil {
		return nil, err
	}
	return generate(text, dim)
}

func generate(text string, dim types.Dimension) (types.Embedding, error) {
	th := newTextHasher([]byte(strings.ToLower(text)))

	out := make(types.Embedding, dim)
	for i := range out {
		v := hashToFloat(th.combined(uint64(i)))
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return nil, &types.Error{
				Op:        "generate",
				Msg:       "non-finite coordinate",
				Dimension: int(dim),
				Index:     -1,
				Err:       types.ErrGenerationFailure,
			}
		}
		out[i] = v
	}
	return out, nil
}

// GenerateBatch embeds texts in order. The first failure aborts the batch
// and is reported with its position; no partial results are returned.
func GenerateBatch(texts []string, dimension int) ([]types.Embedding, error) {
	dim, err := validateBatch(texts, dimension)
	if err != nil {
		return nil, err
	}

	out := make([]types.Embedding, len(texts))
	for i, text := range texts {
		emb, err := generate(text, dim)
		if err != nil {
			return nil, types.WithIndex(err, i)
		}
		out[i] = emb
	}
	return out, nil
}

// GenerateBatchParallel is GenerateBatch spread over up to workers goroutines.
// Inputs are validated up front, so a reported failure is always the lowest
// offending index, and the output is identical to GenerateBatch.
func GenerateBatchParallel(ctx context.Context, texts []string, dimension, workers int) ([]types.Embedding, error) {
	dim, err := validateBatch(texts, dimension)
	if err != nil {
		return nil, err
	}
	if workers <= 1 || len(texts) == 1 {
		return GenerateBatch(texts, dimension)
	}

	out := make([]types.Embedding, len(texts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, text := range texts {
		i, text := i, text
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			emb, err := generate(text, dim)
			if err != nil {
				return types.WithIndex(err, i)
			}
			out[i] = emb
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func validateBatch(texts []string, dimension int) (types.Dimension, error) {
	if len(texts) == 0 {
		return 0, types.InvalidArgument("generate batch", "no texts")
	}
	dim, err := types.ParseDimension(dimension)
	if err != nil {
		return 0, err
	}
	for i, text := range texts {
		if err := types.ValidateText("generate batch", text); err != nil {
			return 0, types.WithIndex(err, i)
		}
	}
	return dim, nil
}
