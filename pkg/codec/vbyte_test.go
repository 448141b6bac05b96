package codec_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/postings-codec/pkg/codec"
	apperrors "github.com/Adithya-Monish-Kumar-K/postings-codec/pkg/errors"
)

func TestAppendVByte(t *testing.T) {
	tests := []struct {
		n    uint64
		want []byte
	}{
		{0, []byte{0x80}},
		{5, []byte{0x85}},
		{127, []byte{0xff}},
		{128, []byte{0x01, 0x80}},
		{130, []byte{0x01, 0x82}},
		{365, []byte{0x02, 0xed}},
		{16383, []byte{0x7f, 0xff}},
		{16384, []byte{0x01, 0x00, 0x80}},
		{2345284, []byte{0x01, 0x0f, 0x12, 0xc4}},
	}
	for _, tt := range tests {
		got := codec.AppendVByte(nil, tt.n)
		assert.Equal(t, tt.want, got, "n=%d", tt.n)

		numbers, err := codec.DecodeVByte(got)
		require.NoError(t, err)
		assert.Equal(t, []uint64{tt.n}, numbers)
	}
}

func TestAppendVByteMaxUint64(t *testing.T) {
	buf := codec.AppendVByte(nil, math.MaxUint64)
	assert.Len(t, buf, codec.MaxVByteLen)
	n, size, err := codec.ReadVByte(buf)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), n)
	assert.Equal(t, codec.MaxVByteLen, size)
}

func TestVByteExampleList(t *testing.T) {
	postings := []uint64{34, 67, 89, 454, 2345738}
	buf, err := codec.VByte{}.Encode(postings)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xa2, 0xa1, 0x96, 0x02, 0xed, 0x01, 0x0f, 0x12, 0xc4}, buf)

	gaps, err := codec.DecodeVByte(buf)
	require.NoError(t, err)
	assert.Equal(t, []uint64{34, 33, 22, 365, 2345284}, gaps)

	got, err := codec.VByte{}.Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, postings, got)
}

func TestVByteGapOf128(t *testing.T) {
	buf, err := codec.VByte{}.Encode([]uint64{128})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 128}, buf)

	got, err := codec.VByte{}.Decode(buf)
	require.NoError(t, err)
	assert.Equal(t, []uint64{128}, got)
}

func TestVByteEncodeEmpty(t *testing.T) {
	_, err := codec.VByte{}.Encode([]uint64{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestVByteDecodeCorrupt(t *testing.T) {
	tests := map[string][]byte{
		"unterminated single byte": {5},
		"dangling tail":            {0x85, 0x01},
		"overflow":                 {0x7f, 0x7f, 0x7f, 0x7f, 0x7f, 0x7f, 0x7f, 0x7f, 0x7f, 0x7f, 0xff},
		"zero gap":                 {0x85, 0x80},
		"prefix sum overflow":      codec.AppendVByte(codec.AppendVByte(nil, math.MaxUint64), 1),
	}
	for name, buf := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := codec.VByte{}.Decode(buf)
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrCorruptBuffer)
		})
	}
}

func TestReadVByte(t *testing.T) {
	buf := []byte{0x01, 0x80, 0x85}
	n, size, err := codec.ReadVByte(buf)
	require.NoError(t, err)
	assert.Equal(t, uint64(128), n)
	assert.Equal(t, 2, size)

	_, _, err = codec.ReadVByte([]byte{0x01, 0x02})
	assert.ErrorIs(t, err, apperrors.ErrCorruptBuffer)
}

func BenchmarkVByteEncode(b *testing.B) {
	postings := make([]uint64, 10000)
	for i := range postings {
		postings[i] = uint64(i * 7)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := (codec.VByte{}).Encode(postings); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkVByteDecode(b *testing.B) {
	postings := make([]uint64, 10000)
	for i := range postings {
		postings[i] = uint64(i * 7)
	}
	buf, err := codec.VByte{}.Encode(postings)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.SetBytes(int64(len(buf)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := (codec.VByte{}).Decode(buf); err != nil {
			b.Fatal(err)
		}
	}
}
