// Package codec converts strictly ascending postings lists of document IDs
// into compact byte buffers and back.
//
// Three codecs are provided: a fixed-width 32-bit little-endian baseline, a
// gap-based variable-byte codec and a gap-based gamma code. All of them are
// stateless values that are safe to use concurrently from multiple
// goroutines, never retain or modify their inputs and always return freshly
// allocated results.
//
// For every registered codec c and every valid list l,
// c.Decode(c.Encode(l)) returns l exactly.
package codec

import (
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/postings-codec/pkg/errors"
)

// Type is the on-disk tag identifying the codec that produced a buffer.
type Type uint8

const (
	TypeFixed Type = iota + 1
	TypeVByte
	TypeGamma
)

func (t Type) String() string {
	switch t {
	case TypeFixed:
		return "fixed"
	case TypeVByte:
		return "vbyte"
	case TypeGamma:
		return "gamma"
	default:
		return "unknown"
	}
}

// ParseType maps a codec name to its tag. Matching is case-insensitive.
func ParseType(name string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "fixed":
		return TypeFixed, nil
	case "vbyte":
		return TypeVByte, nil
	case "gamma":
		return TypeGamma, nil
	default:
		return 0, apperrors.Newf(apperrors.ErrUnsupportedCodec, "", "unknown codec name %q", name)
	}
}

// Codec is the contract every postings codec satisfies.
type Codec interface {
	// Type returns the tag stored alongside encoded buffers.
	Type() Type

	// Encode serialises a non-empty, strictly ascending postings list.
	// Violations return an error wrapping ErrInvalidInput.
	Encode(postings []uint64) ([]byte, error)

	// Decode reconstructs the postings list from a buffer produced by Encode.
	// Malformed buffers return an error wrapping ErrCorruptBuffer.
	Decode(buf []byte) ([]uint64, error)
}

// Validate checks that postings is non-empty and strictly ascending.
func Validate(postings []uint64) error {
	if len(postings) == 0 {
		return apperrors.New(apperrors.ErrInvalidInput, "", "empty postings list")
	}
	for i := 1; i < len(postings); i++ {
		if postings[i] <= postings[i-1] {
			return apperrors.Newf(apperrors.ErrInvalidInput, "",
				"postings not strictly ascending at index %d: %d must be > %d",
				i, postings[i], postings[i-1])
		}
	}
	return nil
}
