package types

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Match them with errors.Is.
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrModelNotFound     = errors.New("model not found")
	ErrModelLoad         = errors.New("model load failed")
	ErrDimensionMismatch = errors.New("dimension mismatch")
	ErrGenerationFailure = errors.New("generation failure")
)

// Error carries the operation and the offending input alongside one of the
// sentinel kinds above.
type Error struct {
	Op        string
	Path      string
	Dimension int
	Index     int // batch position, -1 when not applicable
	Msg       string
	Err       error
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Msg != "" {
		b.WriteString(e.Msg)
	}

	var attrs []string
	if e.Path != "" {
		attrs = append(attrs, "path="+e.Path)
	}
	if e.Dimension != 0 {
		attrs = append(attrs, fmt.Sprintf("dimension=%d", e.Dimension))
	}
	if e.Index >= 0 {
		attrs = append(attrs, fmt.Sprintf("index=%d", e.Index))
	}
	if len(attrs) > 0 {
		if e.Msg != "" {
			b.WriteByte(' ')
		}
		b.WriteString("(" + strings.Join(attrs, ", ") + ")")
	}

	if e.Err != nil {
		if b.Len() > 0 && !strings.HasSuffix(b.String(), ": ") {
			b.WriteString(": ")
		}
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// InvalidArgument builds an ErrInvalidArgument error without batch position
func InvalidArgument(op, msg string) *Error {
	return &Error{Op: op, Msg: msg, Index: -1, Err: ErrInvalidArgument}
}

// WithIndex returns a copy of err annotated with a batch position. Errors that
// are not *Error are wrapped unchanged so errors.Is still sees them.
func WithIndex(err error, index int) error {
	var e *Error
	if errors.As(err, &e) {
		c := *e
		c.Index = index
		return &c
	}
	return &Error{Op: "batch", Index: index, Err: err}
}
