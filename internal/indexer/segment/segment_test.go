package segment

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/postings-codec/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/postings-codec/pkg/codec"
	apperrors "github.com/Adithya-Monish-Kumar-K/postings-codec/pkg/errors"
)

var testEntries = []index.TermEntry{
	{Term: "analytics", Postings: []uint64{5}},
	{Term: "distributed", Postings: []uint64{0, 1, 2, 3, 128, 4096}},
	{Term: "search", Postings: []uint64{34, 67, 89, 454, 2345738}},
}

func writeSegment(t *testing.T, c codec.Codec) string {
	t.Helper()
	dir := t.TempDir()
	name, err := NewWriter(dir, c).Write(testEntries, 7)
	require.NoError(t, err)
	return filepath.Join(dir, name)
}

func TestWriteReadEveryCodec(t *testing.T) {
	for _, c := range []codec.Codec{codec.Fixed{}, codec.VByte{}, codec.Gamma{}} {
		t.Run(c.Type().String(), func(t *testing.T) {
			r, err := OpenReader(writeSegment(t, c))
			require.NoError(t, err)
			defer r.Close()

			assert.Equal(t, c.Type(), r.Header().Codec)
			assert.Equal(t, c.Type(), r.Codec().Type())
			assert.Equal(t, 3, r.Terms())
			assert.Equal(t, uint32(7), r.DocCount())

			for _, e := range testEntries {
				got, err := r.Search(e.Term)
				require.NoError(t, err)
				assert.Equal(t, e.Postings, got, e.Term)
			}
			got, err := r.Search("missing")
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestRawIsVerbatimCodecOutput(t *testing.T) {
	r, err := OpenReader(writeSegment(t, codec.VByte{}))
	require.NoError(t, err)
	defer r.Close()

	raw, entry, ok, err := r.Raw("search")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 5, entry.DocFreq)
	want, err := codec.VByte{}.Encode([]uint64{34, 67, 89, 454, 2345738})
	require.NoError(t, err)
	assert.Equal(t, want, raw)

	var terms []string
	require.NoError(t, r.Each(func(e DictEntry) error {
		terms = append(terms, e.Term)
		return nil
	}))
	assert.Equal(t, []string{"analytics", "distributed", "search"}, terms)
}

func TestWriterReportsFailingTerm(t *testing.T) {
	dir := t.TempDir()
	entries := []index.TermEntry{
		{Term: "ok", Postings: []uint64{1}},
		{Term: "wide", Postings: []uint64{1, math.MaxUint32 + 10}},
	}
	_, err := NewWriter(dir, codec.Fixed{}).Write(entries, 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Contains(t, err.Error(), `"wide"`)

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestWriteEmpty(t *testing.T) {
	_, err := NewWriter(t.TempDir(), codec.VByte{}).Write(nil, 0)
	assert.Error(t, err)
}

func TestOpenReaderDetectsCorruption(t *testing.T) {
	path := writeSegment(t, codec.VByte{})
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	flipped := append([]byte(nil), data...)
	flipped[HeaderSize] ^= 0x01
	require.NoError(t, os.WriteFile(path, flipped, 0644))
	_, err = OpenReader(path)
	assert.ErrorIs(t, err, apperrors.ErrCorruptSegment)

	require.NoError(t, os.WriteFile(path, data[:len(data)-1], 0644))
	_, err = OpenReader(path)
	assert.ErrorIs(t, err, apperrors.ErrCorruptSegment)

	badMagic := append([]byte(nil), data...)
	badMagic[0] = 0
	require.NoError(t, os.WriteFile(path, badMagic, 0644))
	_, err = OpenReader(path)
	assert.ErrorIs(t, err, apperrors.ErrCorruptSegment)
}

func TestOpenReaderRejectsBadSectionSizes(t *testing.T) {
	path := writeSegment(t, codec.VByte{})
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	size := int64(len(data))

	cases := map[string]struct{ dictOffset, dictSize, postSize int64 }{
		"negative dictionary":  {int64(HeaderSize) + size, -int64(HeaderSize + FooterSize), size},
		"negative postings":    {0, size - int64(FooterSize), -int64(HeaderSize)},
		"overflowing postings": {math.MinInt64 + int64(HeaderSize), size, math.MaxInt64 - 1},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			bad := append([]byte(nil), data...)
			binary.LittleEndian.PutUint64(bad[32:40], uint64(tc.dictOffset))
			binary.LittleEndian.PutUint64(bad[40:48], uint64(tc.dictSize))
			binary.LittleEndian.PutUint64(bad[56:64], uint64(tc.postSize))
			require.NoError(t, os.WriteFile(path, bad, 0644))

			var openErr error
			require.NotPanics(t, func() { _, openErr = OpenReader(path) })
			assert.ErrorIs(t, openErr, apperrors.ErrCorruptSegment)
		})
	}
}

func TestWriterRemovesTempFileOnFailure(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, codec.VByte{})
	stamp := time.Unix(1700000000, 0)
	w.now = func() time.Time { return stamp }

	// A non-empty directory at the final path makes the rename fail.
	blocker := filepath.Join(dir, fmt.Sprintf("seg_%020d%s", stamp.UnixNano(), FileExt))
	require.NoError(t, os.MkdirAll(filepath.Join(blocker, "keep"), 0755))

	_, err := w.Write(testEntries, 3)
	require.Error(t, err)

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, filepath.Base(blocker), files[0].Name())
}

func TestOpenReaderUnknownCodecTag(t *testing.T) {
	path := writeSegment(t, codec.Gamma{})
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[24] = 99
	require.NoError(t, os.WriteFile(path, data, 0644))

	_, err = OpenReader(path)
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedCodec)
}

type countingCodec struct {
	codec.Codec
	decodes int
}

func (c *countingCodec) Decode(buf []byte) ([]uint64, error) {
	c.decodes++
	return c.Codec.Decode(buf)
}

func TestWithCodecWrapper(t *testing.T) {
	var counter *countingCodec
	r, err := OpenReader(writeSegment(t, codec.Fixed{}), WithCodecWrapper(func(c codec.Codec) codec.Codec {
		counter = &countingCodec{Codec: c}
		return counter
	}))
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Search("search")
	require.NoError(t, err)
	assert.Equal(t, 1, counter.decodes)
}
