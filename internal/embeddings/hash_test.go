package embeddings

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivavenkatesh/embedkit/internal/vecops"
	"github.com/shivavenkatesh/embedkit/pkg/types"
)

func TestPositionalHash(t *testing.T) {
	assert.Equal(t, uint64(0x61), positionalHash([]byte("a"), 0))
	assert.Equal(t, uint64(0x13a), positionalHash([]byte("a"), 7))
	assert.Equal(t, uint64(0x61a561d), positionalHash([]byte("hello"), 0))
	assert.Equal(t, uint64(0x120c4276), positionalHash([]byte("hello"), 7))
	assert.Equal(t, uint64(0xc3844836dffa), combinedHash([]byte("hello"), 3))
	assert.Equal(t, uint64(5), positionalHash(nil, 5), "empty text hashes to its seed")
}

func TestTextHasher_MatchesDirectLoop(t *testing.T) {
	texts := []string{
		"a",
		"hello world",
		"The quick brown fox jumps over the lazy dog",
		strings.Repeat("wrap-around ", 400),
		"ünïcödé テキスト",
	}
	seeds := []uint64{0, 1, 2, 127, 1023, 2047, math.MaxUint64 / 37}

	for _, text := range texts {
		b := []byte(text)
		th := newTextHasher(b)
		for _, seed := range seeds {
			require.Equal(t, positionalHash(b, seed), th.positional(seed), "positional seed=%d", seed)
			require.Equal(t, combinedHash(b, seed), th.combined(seed), "combined seed=%d", seed)
		}
	}
}

func TestHashToFloat(t *testing.T) {
	tests := []struct {
		name string
		h    uint64
		want float32
	}{
		{"zero maps to -1", 0, -1},
		{"quarter maps to 0", 1 << 29, 0},
		{"high bits ignored", 0xFFFFFFFF80000000, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, hashToFloat(tt.h), 1e-7)
		})
	}

	top := hashToFloat(0x7FFFFFFF)
	assert.Less(t, top, float32(1.0000001))
	assert.Greater(t, top, float32(0.999))
}

func TestGenerate_KnownValues(t *testing.T) {
	tests := []struct {
		text string
		want []float32
	}{
		{"hello", []float32{0.5814220309257507, 0.04344017803668976, 0.9810820817947388, 0.5022311806678772}},
		{"a", []float32{-0.891183614730835, -0.6103132963180542, -0.45974966883659363, -0.34282031655311584}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			emb, err := Generate(tt.text, 128)
			require.NoError(t, err)
			for i, want := range tt.want {
				assert.InDelta(t, want, emb[i], 1e-7, "coordinate %d", i)
			}
		})
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	for _, dim := range types.SupportedDimensions() {
		a, err := Generate("Hello world", int(dim))
		require.NoError(t, err)
		b, err := Generate("Hello world", int(dim))
		require.NoError(t, err)

		assert.Equal(t, a, b)
		assert.Len(t, a, int(dim))
	}
}

func TestGenerate_CaseInsensitive(t *testing.T) {
	a, err := Generate("HELLO World", 256)
	require.NoError(t, err)
	b, err := Generate("hello world", 256)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

func TestGenerate_Range(t *testing.T) {
	for _, dim := range types.SupportedDimensions() {
		emb, err := Generate("range check with some longer text 12345", int(dim))
		require.NoError(t, err)
		for i, v := range emb {
			if v < -1 || v > 1 || math.IsNaN(float64(v)) {
				t.Fatalf("dim %d coordinate %d out of range: %f", dim, i, v)
			}
		}
	}
}

func TestGenerate_DefaultDimension(t *testing.T) {
	a, err := Generate("default", 0)
	require.NoError(t, err)
	b, err := Generate("default", 128)
	require.NoError(t, err)

	assert.Len(t, a, 128)
	assert.Equal(t, a, b)
}

func TestGenerate_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		text string
		dim  int
	}{
		{"empty text", "", 128},
		{"unsupported dimension", "hello", 100},
		{"negative dimension", "hello", -1},
		{"between supported sizes", "hello", 384},
		{"too long", strings.Repeat("a", types.MaxTextLength+1), 128},
		{"too many runes", strings.Repeat("é", types.MaxTextLength+1), 128},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			emb, err := Generate(tt.text, tt.dim)
			assert.Nil(t, emb)
			assert.ErrorIs(t, err, types.ErrInvalidArgument)
		})
	}
}

func TestGenerate_MaxLengthCountsCharacters(t *testing.T) {
	// 8192 two-byte characters is 16384 bytes but still within the limit
	emb, err := Generate(strings.Repeat("é", types.MaxTextLength), 128)
	require.NoError(t, err)
	assert.Len(t, emb, 128)
}

func TestGenerate_OrderSensitive(t *testing.T) {
	a, err := Generate("Hello world", 128)
	require.NoError(t, err)
	b, err := Generate("world Hello", 128)
	require.NoError(t, err)

	assert.Less(t, vecops.CosineSimilarity(a, b), float32(0.95))
}

func TestGenerate_TypoSimilarity(t *testing.T) {
	a, err := Generate("Hello", 128)
	require.NoError(t, err)
	b, err := Generate("Helo", 128)
	require.NoError(t, err)

	sim := vecops.CosineSimilarity(a, b)
	assert.GreaterOrEqual(t, sim, float32(0.3))
	assert.LessOrEqual(t, sim, float32(0.9))
}

func TestGenerate_SelfSimilarity(t *testing.T) {
	a, err := Generate("identity", 512)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, vecops.CosineSimilarity(a, a), 1e-5)
}

func TestGenerate_FreshAllocation(t *testing.T) {
	a, err := Generate("alias", 128)
	require.NoError(t, err)
	a[0] = 42

	b, err := Generate("alias", 128)
	require.NoError(t, err)
	assert.NotEqual(t, float32(42), b[0])
}

func TestGenerateBatch(t *testing.T) {
	texts := []string{"one", "two", "three"}
	embs, err := GenerateBatch(texts, 256)
	require.NoError(t, err)
	require.Len(t, embs, 3)

	for i, text := range texts {
		single, err := Generate(text, 256)
		require.NoError(t, err)
		assert.Equal(t, single, embs[i])
	}
}

func TestGenerateBatch_Errors(t *testing.T) {
	_, err := GenerateBatch(nil, 128)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	_, err = GenerateBatch([]string{"ok"}, 100)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	embs, err := GenerateBatch([]string{"ok", "", "also ok", ""}, 128)
	assert.Nil(t, embs)
	require.ErrorIs(t, err, types.ErrInvalidArgument)

	var e *types.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, 1, e.Index)
}

func TestGenerateBatchParallel(t *testing.T) {
	texts := make([]string, 64)
	for i := range texts {
		texts[i] = strings.Repeat("x", i+1) + " parallel"
	}

	seq, err := GenerateBatch(texts, 512)
	require.NoError(t, err)
	par, err := GenerateBatchParallel(context.Background(), texts, 512, 8)
	require.NoError(t, err)

	assert.Equal(t, seq, par)
}

func TestGenerateBatchParallel_LowestIndexReported(t *testing.T) {
	texts := []string{"a", "b", "", "c", strings.Repeat("z", types.MaxTextLength+1)}

	_, err := GenerateBatchParallel(context.Background(), texts, 128, 4)
	var e *types.Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, 2, e.Index)
}

func TestGenerateBatchParallel_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := GenerateBatchParallel(ctx, []string{"a", "b", "c"}, 128, 2)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHashEmbedder(t *testing.T) {
	e, err := NewHashEmbedder(0, 2)
	require.NoError(t, err)
	defer e.Close()

	assert.Equal(t, 128, e.Dimensions())
	assert.Equal(t, HashModelName, e.Model())

	v, err := e.Embed(context.Background(), "embed me")
	require.NoError(t, err)
	direct, err := Generate("embed me", 128)
	require.NoError(t, err)
	assert.Equal(t, []float32(direct), v)

	batch, err := e.EmbedBatch(context.Background(), []string{"embed me", "again"})
	require.NoError(t, err)
	assert.Equal(t, v, batch[0])

	_, err = NewHashEmbedder(300, 1)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func BenchmarkGenerate_128(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_, _ = Generate("The quick brown fox jumps over the lazy dog", 128)
	}
}

func BenchmarkGenerate_2048_LongText(b *testing.B) {
	text := strings.Repeat("lorem ipsum ", 600)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = Generate(text, 2048)
	}
}
