package onnx

// Special token ids of BERT-style vocabularies
const (
	ClsToken  int64 = 101
	SepToken  int64 = 102
	VocabSize       = 30528

	// ids below this are reserved for special tokens
	firstWordID = 100
)

// Tokenize maps text onto BERT-style input ids without a vocabulary file.
// Words are split on ASCII whitespace and punctuation, lower-cased, hashed
// (h = h*31 + c over uint32) and folded into the vocabulary range. The
// sequence is framed by [CLS] and [SEP] and never exceeds maxLength ids.
func Tokenize(text string, maxLength int) []int64 {
	if maxLength <= 0 {
		return nil
	}

	ids := make([]int64, 0, min(maxLength, len(text)/2+2))
	ids = append(ids, ClsToken)

	var h uint32
	inWord := false
	for i := 0; i < len(text) && len(ids) < maxLength-1; i++ {
		c := text[i]
		if isSpace(c) || isPunct(c) {
			if inWord {
				ids = append(ids, wordID(h))
				h = 0
			}
			inWord = false
			continue
		}
		h = h*31 + uint32(toLower(c))
		inWord = true
	}
	if inWord && len(ids) < maxLength-1 {
		ids = append(ids, wordID(h))
	}

	if len(ids) < maxLength {
		ids = append(ids, SepToken)
	}
	return ids
}

func wordID(h uint32) int64 {
	id := int64(h % VocabSize)
	if id < firstWordID {
		id += firstWordID
	}
	return id
}

func isSpace(c byte) bool {
	return c == ' ' || (c >= '\t' && c <= '\r')
}

func isPunct(c byte) bool {
	return (c >= '!' && c <= '/') || (c >= ':' && c <= '@') || (c >= '[' && c <= '`') || (c >= '{' && c <= '~')
}

func toLower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}
