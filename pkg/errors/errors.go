// Package errors defines the error kinds shared by the codec, segment and
// storage layers, and a CodecError wrapper that carries the codec name.
package errors

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrCorruptBuffer    = errors.New("corrupt buffer")
	ErrUnsupportedCodec = errors.New("unsupported codec")
	ErrTermNotFound     = errors.New("term not found")
	ErrCorruptSegment   = errors.New("corrupt segment")
	ErrInternal         = errors.New("internal error")
)

type CodecError struct {
	Err     error
	Codec   string
	Message string
}

func (e *CodecError) Error() string {
	if e.Codec == "" {
		return fmt.Sprintf("%s: %s", e.Err.Error(), e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Codec, e.Err.Error(), e.Message)
}

func (e *CodecError) Unwrap() error {
	return e.Err
}

func New(sentinel error, codec string, message string) *CodecError {
	return &CodecError{
		Err:     sentinel,
		Codec:   codec,
		Message: message,
	}
}

func Newf(sentinel error, codec string, format string, args ...any) *CodecError {
	return &CodecError{
		Err:     sentinel,
		Codec:   codec,
		Message: fmt.Sprintf(format, args...),
	}
}

// Kind returns a stable label for err, used for metrics and CLI output.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrCorruptBuffer):
		return "corrupt_buffer"
	case errors.Is(err, ErrUnsupportedCodec):
		return "unsupported_codec"
	case errors.Is(err, ErrTermNotFound):
		return "not_found"
	case errors.Is(err, ErrCorruptSegment):
		return "corrupt_segment"
	default:
		return "internal"
	}
}

// Is and As re-export the standard helpers so callers importing this package
// under the name errors keep a single import.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target any) bool { return errors.As(err, target) }
