package segment

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/postings-codec/pkg/codec"
	apperrors "github.com/Adithya-Monish-Kumar-K/postings-codec/pkg/errors"
)

type Reader struct {
	file     *os.File
	filePath string
	header   SegmentHeader
	dict     []DictEntry
	codec    codec.Codec
}

// Option configures a Reader.
type Option func(*Reader)

// WithCodecWrapper lets the caller decorate the codec resolved from the
// segment header, for example to record metrics.
func WithCodecWrapper(wrap func(codec.Codec) codec.Codec) Option {
	return func(r *Reader) {
		r.codec = wrap(r.codec)
	}
}

// OpenReader opens a segment, verifies its header and checksums and resolves
// the codec named by the header tag.
func OpenReader(path string, opts ...Option) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening segment file: %w", err)
	}
	r, err := newReader(f, path)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("opening segment %s: %w", path, err)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func newReader(f *os.File, path string) (*Reader, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}
	size := info.Size()
	if size < int64(HeaderSize+FooterSize) {
		return nil, apperrors.Newf(apperrors.ErrCorruptSegment, "", "file too small: %d bytes", size)
	}

	headerBytes := make([]byte, HeaderSize)
	if _, err := f.ReadAt(headerBytes, 0); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	header := unmarshalHeader(headerBytes)
	if header.Magic != MagicBytes {
		return nil, apperrors.Newf(apperrors.ErrCorruptSegment, "", "bad magic bytes %x", header.Magic)
	}
	if header.Version != FormatVersion {
		return nil, apperrors.Newf(apperrors.ErrCorruptSegment, "", "unsupported format version %d", header.Version)
	}
	if header.PostSize < 0 || header.PostSize > size ||
		header.DictSize < 0 || header.DictSize > size {
		return nil, apperrors.Newf(apperrors.ErrCorruptSegment, "",
			"section sizes out of range: postings %d, dictionary %d", header.PostSize, header.DictSize)
	}
	// Both sizes are bounded by size here, so the sums below cannot overflow.
	if header.PostOffset != int64(HeaderSize) ||
		header.DictOffset != header.PostOffset+header.PostSize ||
		header.DictOffset+header.DictSize+int64(FooterSize) != size {
		return nil, apperrors.New(apperrors.ErrCorruptSegment, "", "section offsets do not match file size")
	}
	c, err := codec.New(header.Codec)
	if err != nil {
		return nil, err
	}

	footer := make([]byte, FooterSize)
	if _, err := f.ReadAt(footer, size-int64(FooterSize)); err != nil {
		return nil, fmt.Errorf("reading footer: %w", err)
	}
	dictBytes := make([]byte, header.DictSize)
	if _, err := f.ReadAt(dictBytes, header.DictOffset); err != nil {
		return nil, fmt.Errorf("reading dictionary: %w", err)
	}
	if got, want := crc32.ChecksumIEEE(dictBytes), binary.LittleEndian.Uint32(footer[0:4]); got != want {
		return nil, apperrors.Newf(apperrors.ErrCorruptSegment, "", "dictionary checksum %08x, expected %08x", got, want)
	}
	postCRC := crc32.NewIEEE()
	if _, err := io.Copy(postCRC, io.NewSectionReader(f, header.PostOffset, header.PostSize)); err != nil {
		return nil, fmt.Errorf("reading postings: %w", err)
	}
	if got, want := postCRC.Sum32(), binary.LittleEndian.Uint32(footer[4:8]); got != want {
		return nil, apperrors.Newf(apperrors.ErrCorruptSegment, "", "postings checksum %08x, expected %08x", got, want)
	}

	var dict []DictEntry
	if err := json.Unmarshal(dictBytes, &dict); err != nil {
		return nil, apperrors.Newf(apperrors.ErrCorruptSegment, "", "parsing dictionary: %v", err)
	}
	if len(dict) != int(header.TermCount) {
		return nil, apperrors.Newf(apperrors.ErrCorruptSegment, "", "dictionary has %d terms, header says %d", len(dict), header.TermCount)
	}
	for i, e := range dict {
		if i > 0 && dict[i-1].Term >= e.Term {
			return nil, apperrors.Newf(apperrors.ErrCorruptSegment, "", "dictionary not sorted at %q", e.Term)
		}
		if e.PostOffset < 0 || e.PostLen < 0 || e.PostOffset+int64(e.PostLen) > header.PostSize {
			return nil, apperrors.Newf(apperrors.ErrCorruptSegment, "", "postings for %q out of bounds", e.Term)
		}
	}

	return &Reader{
		file:     f,
		filePath: path,
		header:   header,
		dict:     dict,
		codec:    c,
	}, nil
}

func (r *Reader) lookup(term string) (DictEntry, bool) {
	idx := sort.Search(len(r.dict), func(i int) bool {
		return r.dict[i].Term >= term
	})
	if idx >= len(r.dict) || r.dict[idx].Term != term {
		return DictEntry{}, false
	}
	return r.dict[idx], true
}

// Raw returns the encoded postings buffer for term exactly as stored. The
// boolean is false when the segment does not contain term.
func (r *Reader) Raw(term string) ([]byte, DictEntry, bool, error) {
	entry, ok := r.lookup(term)
	if !ok {
		return nil, DictEntry{}, false, nil
	}
	buf := make([]byte, entry.PostLen)
	if _, err := r.file.ReadAt(buf, r.header.PostOffset+entry.PostOffset); err != nil {
		return nil, entry, false, fmt.Errorf("reading postings for %q: %w", term, err)
	}
	return buf, entry, true, nil
}

// Search decodes the postings of term. A missing term yields nil, nil.
func (r *Reader) Search(term string) ([]uint64, error) {
	buf, entry, ok, err := r.Raw(term)
	if err != nil || !ok {
		return nil, err
	}
	postings, err := r.codec.Decode(buf)
	if err != nil {
		return nil, fmt.Errorf("decoding postings for %q: %w", term, err)
	}
	if len(postings) != entry.DocFreq {
		return nil, apperrors.Newf(apperrors.ErrCorruptSegment, r.codec.Type().String(),
			"term %q decoded %d postings, dictionary says %d", term, len(postings), entry.DocFreq)
	}
	return postings, nil
}

// Each calls fn for every dictionary entry in term order and stops at the
// first error.
func (r *Reader) Each(fn func(DictEntry) error) error {
	for _, e := range r.dict {
		if err := fn(e); err != nil {
			return err
		}
	}
	return nil
}

func (r *Reader) Terms() int {
	return len(r.dict)
}

func (r *Reader) DocCount() uint32 {
	return r.header.DocCount
}

func (r *Reader) Header() SegmentHeader {
	return r.header
}

func (r *Reader) Codec() codec.Codec {
	return r.codec
}

func (r *Reader) Path() string {
	return r.filePath
}

func (r *Reader) Close() error {
	return r.file.Close()
}
