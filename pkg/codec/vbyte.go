package codec

import (
	"math"

	apperrors "github.com/Adithya-Monish-Kumar-K/postings-codec/pkg/errors"
)

const (
	// MaxVByteLen is the longest group AppendVByte emits for a uint64.
	MaxVByteLen = 10

	vbyteFlag    = 0x80
	vbytePayload = 0x7f
)

// VByte stores the gap sequence of a postings list with variable-byte
// encoding.
//
// Each number is written base-128, most significant digit first, one digit
// per byte. Only the last byte of a number carries the high bit, so a byte
// below 128 means the number continues and a byte of 128 or more ends it.
type VByte struct{}

func (VByte) Type() Type { return TypeVByte }

func (VByte) Encode(postings []uint64) ([]byte, error) {
	gaps, err := Gaps(postings)
	if err != nil {
		return nil, tagged(err, TypeVByte)
	}
	buf := make([]byte, 0, len(gaps)*2)
	for _, g := range gaps {
		buf = AppendVByte(buf, g)
	}
	return buf, nil
}

func (VByte) Decode(buf []byte) ([]uint64, error) {
	gaps, err := DecodeVByte(buf)
	if err != nil {
		return nil, tagged(err, TypeVByte)
	}
	postings, err := PrefixSum(gaps)
	if err != nil {
		return nil, tagged(err, TypeVByte)
	}
	return postings, nil
}

// AppendVByte appends the variable-byte group for n to dst. Zero encodes as
// the single byte 0x80 and 128 as 0x01 0x80.
func AppendVByte(dst []byte, n uint64) []byte {
	var group [MaxVByteLen]byte
	i := len(group) - 1
	group[i] = byte(n&vbytePayload) | vbyteFlag
	for n >>= 7; n > 0; n >>= 7 {
		i--
		group[i] = byte(n & vbytePayload)
	}
	return append(dst, group[i:]...)
}

// DecodeVByte splits buf into the numbers it holds. A buffer whose last
// group is never terminated by a flagged byte is corrupt.
func DecodeVByte(buf []byte) ([]uint64, error) {
	if len(buf) == 0 {
		return nil, apperrors.New(apperrors.ErrCorruptBuffer, "", "empty buffer")
	}
	numbers := make([]uint64, 0, len(buf))
	var acc uint64
	pending := 0
	for i, b := range buf {
		if acc > math.MaxUint64>>7 {
			return nil, apperrors.Newf(apperrors.ErrCorruptBuffer, "", "number overflows 64 bits at byte %d", i)
		}
		acc = acc<<7 | uint64(b&vbytePayload)
		if b&vbyteFlag == 0 {
			pending++
			continue
		}
		numbers = append(numbers, acc)
		acc = 0
		pending = 0
	}
	if pending > 0 {
		return nil, apperrors.Newf(apperrors.ErrCorruptBuffer, "",
			"unterminated number in last %d bytes", pending)
	}
	return numbers, nil
}

// ReadVByte decodes the first number in buf and returns it with the number
// of bytes it occupied.
func ReadVByte(buf []byte) (uint64, int, error) {
	var acc uint64
	for i, b := range buf {
		if acc > math.MaxUint64>>7 {
			return 0, 0, apperrors.Newf(apperrors.ErrCorruptBuffer, "", "number overflows 64 bits at byte %d", i)
		}
		acc = acc<<7 | uint64(b&vbytePayload)
		if b&vbyteFlag != 0 {
			return acc, i + 1, nil
		}
	}
	return 0, 0, apperrors.Newf(apperrors.ErrCorruptBuffer, "", "unterminated number in %d bytes", len(buf))
}
