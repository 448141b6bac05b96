package codec

import (
	apperrors "github.com/Adithya-Monish-Kumar-K/postings-codec/pkg/errors"
)

// Gaps converts an ascending postings list into its gap sequence. The first
// element is kept as is; every following element is the distance to its
// predecessor and therefore at least 1.
func Gaps(postings []uint64) ([]uint64, error) {
	if err := Validate(postings); err != nil {
		return nil, err
	}
	gaps := make([]uint64, len(postings))
	gaps[0] = postings[0]
	for i := 1; i < len(postings); i++ {
		gaps[i] = postings[i] - postings[i-1]
	}
	return gaps, nil
}

// PrefixSum restores absolute postings from a gap sequence. A zero gap after
// the first position or a sum exceeding uint64 means the gaps did not come
// from a valid postings list.
func PrefixSum(gaps []uint64) ([]uint64, error) {
	if len(gaps) == 0 {
		return nil, apperrors.New(apperrors.ErrCorruptBuffer, "", "no gaps to reconstruct")
	}
	out := make([]uint64, len(gaps))
	out[0] = gaps[0]
	for i := 1; i < len(gaps); i++ {
		if gaps[i] == 0 {
			return nil, apperrors.Newf(apperrors.ErrCorruptBuffer, "", "zero gap at index %d", i)
		}
		if out[i-1] > ^uint64(0)-gaps[i] {
			return nil, apperrors.Newf(apperrors.ErrCorruptBuffer, "", "posting overflow at index %d", i)
		}
		out[i] = out[i-1] + gaps[i]
	}
	return out, nil
}
