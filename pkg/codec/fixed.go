package codec

import (
	"encoding/binary"
	"math"

	apperrors "github.com/Adithya-Monish-Kumar-K/postings-codec/pkg/errors"
)

// FixedWidth is the size in bytes of one posting in the Fixed encoding.
const FixedWidth = 4

// Fixed stores every posting as an uncompressed 32-bit little-endian field.
// It is the reference baseline the compressing codecs are measured against.
type Fixed struct{}

func (Fixed) Type() Type { return TypeFixed }

func (Fixed) Encode(postings []uint64) ([]byte, error) {
	if err := Validate(postings); err != nil {
		return nil, tagged(err, TypeFixed)
	}
	if last := postings[len(postings)-1]; last > math.MaxUint32 {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, TypeFixed.String(),
			"posting %d does not fit in %d bits", last, FixedWidth*8)
	}
	buf := make([]byte, len(postings)*FixedWidth)
	for i, p := range postings {
		binary.LittleEndian.PutUint32(buf[i*FixedWidth:], uint32(p))
	}
	return buf, nil
}

func (Fixed) Decode(buf []byte) ([]uint64, error) {
	if len(buf) == 0 || len(buf)%FixedWidth != 0 {
		return nil, apperrors.Newf(apperrors.ErrCorruptBuffer, TypeFixed.String(),
			"length %d is not a positive multiple of %d", len(buf), FixedWidth)
	}
	out := make([]uint64, len(buf)/FixedWidth)
	for i := range out {
		out[i] = uint64(binary.LittleEndian.Uint32(buf[i*FixedWidth:]))
		if i > 0 && out[i] <= out[i-1] {
			return nil, apperrors.Newf(apperrors.ErrCorruptBuffer, TypeFixed.String(),
				"decoded postings not ascending at index %d", i)
		}
	}
	return out, nil
}

// tagged attaches the codec name to an untagged CodecError.
func tagged(err error, t Type) error {
	var ce *apperrors.CodecError
	if apperrors.As(err, &ce) && ce.Codec == "" {
		return apperrors.New(ce.Err, t.String(), ce.Message)
	}
	return err
}
