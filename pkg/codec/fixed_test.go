package codec_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/postings-codec/pkg/codec"
	apperrors "github.com/Adithya-Monish-Kumar-K/postings-codec/pkg/errors"
)

func TestFixedEncodeLayout(t *testing.T) {
	buf, err := codec.Fixed{}.Encode([]uint64{34, 67, 89, 454})
	require.NoError(t, err)
	assert.Len(t, buf, 16)
	assert.Equal(t, []byte{
		34, 0, 0, 0,
		67, 0, 0, 0,
		89, 0, 0, 0,
		0xc6, 0x01, 0, 0,
	}, buf)

	got, err := codec.Fixed{}.Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, []uint64{34, 67, 89, 454}, got)
}

func TestFixedRejectsWideIdentifiers(t *testing.T) {
	_, err := codec.Fixed{}.Encode([]uint64{1, math.MaxUint32 + 1})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestFixedDecodeCorrupt(t *testing.T) {
	tests := map[string][]byte{
		"short":         {1, 0, 0},
		"ragged":        {1, 0, 0, 0, 2},
		"not ascending": {9, 0, 0, 0, 3, 0, 0, 0},
		"duplicate":     {9, 0, 0, 0, 9, 0, 0, 0},
	}
	for name, buf := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := codec.Fixed{}.Decode(buf)
			assert.ErrorIs(t, err, apperrors.ErrCorruptBuffer)
		})
	}
}
