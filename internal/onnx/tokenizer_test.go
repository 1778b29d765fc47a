package onnx

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		maxLen int
		want   []int64
	}{
		{"words and punctuation", "Hello, World!", 512, []int64{101, 7378, 29394, 102}},
		{"case folded", "HELLO world", 512, []int64{101, 7378, 29394, 102}},
		{"reserved ids shifted", "a b", 512, []int64{101, 197, 198, 102}},
		{"only separators", " ,.; ", 512, []int64{101, 102}},
		{"empty", "", 512, []int64{101, 102}},
		{"truncated keeps room for SEP", "the cat the cat", 4, []int64{101, 23217, 6678, 102}},
		{"max length two", "the cat", 2, []int64{101, 102}},
		{"max length one", "the cat", 1, []int64{101}},
		{"zero max length", "the cat", 0, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.text, tt.maxLen))
		})
	}
}

func TestTokenize_NeverExceedsMaxLength(t *testing.T) {
	text := strings.Repeat("word ", 10000)
	for _, maxLen := range []int{3, 16, 512, 8192} {
		ids := Tokenize(text, maxLen)
		assert.Len(t, ids, maxLen)
		assert.Equal(t, ClsToken, ids[0])
		assert.Equal(t, SepToken, ids[len(ids)-1])
	}
}

func TestTokenize_IDsInVocabulary(t *testing.T) {
	ids := Tokenize("ünïcödé テキスト mixed with ASCII words 123", 512)
	for _, id := range ids[1 : len(ids)-1] {
		assert.GreaterOrEqual(t, id, int64(100))
		assert.Less(t, id, int64(VocabSize))
	}
}
