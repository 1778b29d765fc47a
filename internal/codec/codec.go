// Package codec encodes embeddings for output: JSON, plain text, or raw
// little-endian float32.
package codec

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/shivavenkatesh/embedkit/pkg/types"
)

// Format selects how embeddings are written
type Format string

const (
	FormatJSON   Format = "json"
	FormatText   Format = "text"
	FormatBinary Format = "binary"
)

// ParseFormat validates a format name. An empty name selects JSON.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatText, FormatBinary:
		return f, nil
	default:
		return "", types.InvalidArgument("parse format", fmt.Sprintf("unknown output format %q (want json, text or binary)", s))
	}
}

// EncodeFloat32 converts a float32 slice to little-endian bytes
func EncodeFloat32(f []float32) []byte {
	if len(f) == 0 {
		return nil
	}
	b := make([]byte, len(f)*4)
	for i, v := range f {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(v))
	}
	return b
}

// DecodeFloat32 converts little-endian bytes back to float32 values
func DecodeFloat32(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, types.InvalidArgument("decode", fmt.Sprintf("byte length %d is not a multiple of 4", len(b)))
	}
	if len(b) == 0 {
		return nil, nil
	}
	f := make([]float32, len(b)/4)
	for i := range f {
		f[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return f, nil
}

// FormatText renders values separated by single spaces with the shortest
// representation that round-trips through float32
func FormatText(f []float32) string {
	var sb strings.Builder
	for i, v := range f {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32))
	}
	return sb.String()
}

// ParseText reads space- or comma-separated float values
func ParseText(s string) ([]float32, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	out := make([]float32, len(fields))
	for i, field := range fields {
		v, err := strconv.ParseFloat(field, 32)
		if err != nil {
			return nil, &types.Error{Op: "parse vector", Index: i, Msg: err.Error(), Err: types.ErrInvalidArgument}
		}
		out[i] = float32(v)
	}
	return out, nil
}

// WriteJSON writes v as a single line of JSON
func WriteJSON(w io.Writer, v any) error {
	return json.NewEncoder(w).Encode(v)
}

// WriteEmbedding writes one embedding in the given format
func WriteEmbedding(w io.Writer, format Format, resp types.EmbeddingResponse) error {
	switch format {
	case FormatText:
		_, err := fmt.Fprintln(w, FormatText(resp.Embedding))
		return err
	case FormatBinary:
		_, err := w.Write(EncodeFloat32(resp.Embedding))
		return err
	default:
		return WriteJSON(w, resp)
	}
}

// WriteEmbeddings writes a batch: a JSON array, one text line per
// embedding, or the embeddings' bytes back to back
func WriteEmbeddings(w io.Writer, format Format, resps []types.EmbeddingResponse) error {
	switch format {
	case FormatText, FormatBinary:
		bw := bufio.NewWriter(w)
		for _, resp := range resps {
			if err := WriteEmbedding(bw, format, resp); err != nil {
				return err
			}
		}
		return bw.Flush()
	default:
		if resps == nil {
			resps = []types.EmbeddingResponse{}
		}
		return WriteJSON(w, resps)
	}
}
