package types

import "strconv"

// Dimension is one of the supported hash embedding widths
type Dimension int

const (
	Dim128  Dimension = 128
	Dim256  Dimension = 256
	Dim512  Dimension = 512
	Dim768  Dimension = 768
	Dim1024 Dimension = 1024
	Dim2048 Dimension = 2048

	// DefaultDimension is used when a caller passes 0
	DefaultDimension = Dim128
)

var supportedDimensions = []Dimension{Dim128, Dim256, Dim512, Dim768, Dim1024, Dim2048}

// SupportedDimensions returns the supported widths in ascending order
func SupportedDimensions() []Dimension {
	out := make([]Dimension, len(supportedDimensions))
	copy(out, supportedDimensions)
	return out
}

// Valid reports whether d is a member of the supported set
func (d Dimension) Valid() bool {
	for _, s := range supportedDimensions {
		if d == s {
			return true
		}
	}
	return false
}

// Int returns d as a plain int
func (d Dimension) Int() int {
	return int(d)
}

func (d Dimension) String() string {
	return strconv.Itoa(int(d))
}

// ParseDimension resolves a requested width. Zero selects DefaultDimension;
// any value outside the supported set is rejected rather than rounded.
func ParseDimension(n int) (Dimension, error) {
	if n == 0 {
		return DefaultDimension, nil
	}
	d := Dimension(n)
	if !d.Valid() {
		return 0, &Error{
			Op:        "parse dimension",
			Dimension: n,
			Index:     -1,
			Msg:       "unsupported dimension (supported: 128, 256, 512, 768, 1024, 2048)",
			Err:       ErrInvalidArgument,
		}
	}
	return d, nil
}
