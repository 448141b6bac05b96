package codec

import (
	"math"
	"math/bits"

	apperrors "github.com/Adithya-Monish-Kumar-K/postings-codec/pkg/errors"
)

// maxGammaClass is the largest length class a uint64 can have.
const maxGammaClass = 63

// Gamma stores the gap sequence of a postings list with a gamma code.
//
// A positive number n with e = floor(log2 n) is written as e one-bits, a
// terminating zero-bit, then the low e bits of n. The first gap may be zero,
// so it is stored as gap+1. The buffer starts with the element count as a
// variable-byte group (see AppendVByte), followed by the bit stream packed
// most-significant bit first and zero-padded to a whole byte.
type Gamma struct{}

func (Gamma) Type() Type { return TypeGamma }

func (Gamma) Encode(postings []uint64) ([]byte, error) {
	gaps, err := Gaps(postings)
	if err != nil {
		return nil, tagged(err, TypeGamma)
	}
	stream, err := GammaEncodeGaps(gaps)
	if err != nil {
		return nil, tagged(err, TypeGamma)
	}
	buf := AppendVByte(make([]byte, 0, MaxVByteLen+len(stream)), uint64(len(gaps)))
	return append(buf, stream...), nil
}

func (Gamma) Decode(buf []byte) ([]uint64, error) {
	count, n, err := ReadVByte(buf)
	if err != nil {
		return nil, tagged(err, TypeGamma)
	}
	stream := buf[n:]
	// Every number takes at least one bit.
	if count > uint64(len(stream))*8 {
		return nil, apperrors.Newf(apperrors.ErrCorruptBuffer, TypeGamma.String(),
			"element count %d does not fit %d stream bytes", count, len(stream))
	}
	gaps, err := GammaDecodeGaps(stream, int(count))
	if err != nil {
		return nil, tagged(err, TypeGamma)
	}
	postings, err := PrefixSum(gaps)
	if err != nil {
		return nil, tagged(err, TypeGamma)
	}
	return postings, nil
}

// AppendGamma writes the gamma code of n to w. Zero has no gamma code.
func AppendGamma(w *BitWriter, n uint64) error {
	if n == 0 {
		return apperrors.New(apperrors.ErrInvalidInput, TypeGamma.String(), "zero has no gamma code")
	}
	e := uint(bits.Len64(n) - 1)
	for i := uint(0); i < e; i++ {
		w.WriteBit(1)
	}
	w.WriteBit(0)
	w.WriteBits(n, e)
	return nil
}

// ReadGamma reads one gamma-coded number from r.
func ReadGamma(r *BitReader) (uint64, error) {
	var e uint
	for {
		bit, err := r.ReadBit()
		if err != nil {
			return 0, err
		}
		if bit == 0 {
			break
		}
		e++
		if e > maxGammaClass {
			return 0, apperrors.Newf(apperrors.ErrCorruptBuffer, TypeGamma.String(),
				"length prefix longer than %d bits", maxGammaClass)
		}
	}
	rem, err := r.ReadBits(e)
	if err != nil {
		return 0, err
	}
	return 1<<e | rem, nil
}

// GammaEncodeGaps writes a gap sequence as a bare bit stream with no count.
// The first gap is stored as gap+1; every later gap must be positive.
func GammaEncodeGaps(gaps []uint64) ([]byte, error) {
	if len(gaps) == 0 {
		return nil, apperrors.New(apperrors.ErrInvalidInput, TypeGamma.String(), "empty gap sequence")
	}
	if gaps[0] == math.MaxUint64 {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, TypeGamma.String(),
			"first posting %d cannot be escaped", gaps[0])
	}
	w := NewBitWriter(len(gaps))
	if err := AppendGamma(w, gaps[0]+1); err != nil {
		return nil, err
	}
	for i := 1; i < len(gaps); i++ {
		if err := AppendGamma(w, gaps[i]); err != nil {
			return nil, apperrors.Newf(apperrors.ErrInvalidInput, TypeGamma.String(), "zero gap at index %d", i)
		}
	}
	return w.Bytes(), nil
}

// GammaDecodeGaps reads exactly count numbers from a stream written by
// GammaEncodeGaps. Anything after them other than zero padding within the
// final byte is corruption.
func GammaDecodeGaps(stream []byte, count int) ([]uint64, error) {
	if count <= 0 || uint64(count) > uint64(len(stream))*8 {
		return nil, apperrors.Newf(apperrors.ErrCorruptBuffer, TypeGamma.String(),
			"element count %d does not fit %d stream bytes", count, len(stream))
	}
	r := NewBitReader(stream)
	gaps := make([]uint64, count)
	for i := range gaps {
		n, err := ReadGamma(r)
		if err != nil {
			return nil, apperrors.Newf(apperrors.ErrCorruptBuffer, TypeGamma.String(),
				"reading number %d of %d: %v", i+1, count, err)
		}
		gaps[i] = n
	}
	gaps[0]--

	rest := r.Remaining()
	if rest >= 8 {
		return nil, apperrors.Newf(apperrors.ErrCorruptBuffer, TypeGamma.String(),
			"%d trailing bytes after %d numbers", rest/8, count)
	}
	if padding, _ := r.ReadBits(uint(rest)); padding != 0 {
		return nil, apperrors.New(apperrors.ErrCorruptBuffer, TypeGamma.String(), "non-zero padding bits")
	}
	return gaps, nil
}
