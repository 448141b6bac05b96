package segment

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Adithya-Monish-Kumar-K/postings-codec/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/postings-codec/pkg/codec"
)

// MagicBytes identifies a valid .spdx segment file.
const (
	MagicBytes    uint32 = 0x53504458
	FormatVersion uint32 = 2
	HeaderSize    int    = 64
	FooterSize    int    = 32
	FileExt              = ".spdx"
)

// SegmentHeader is the 64-byte little-endian header written at the start of
// every segment. Codec is the tag of the codec that encoded every postings
// blob in the file.
type SegmentHeader struct {
	Magic      uint32
	Version    uint32
	TermCount  uint32
	DocCount   uint32
	CreatedAt  int64
	Codec      codec.Type
	DictOffset int64
	DictSize   int64
	PostOffset int64
	PostSize   int64
}

func (h SegmentHeader) marshal() []byte {
	b := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(b[0:4], h.Magic)
	binary.LittleEndian.PutUint32(b[4:8], h.Version)
	binary.LittleEndian.PutUint32(b[8:12], h.TermCount)
	binary.LittleEndian.PutUint32(b[12:16], h.DocCount)
	binary.LittleEndian.PutUint64(b[16:24], uint64(h.CreatedAt))
	b[24] = byte(h.Codec)
	binary.LittleEndian.PutUint64(b[32:40], uint64(h.DictOffset))
	binary.LittleEndian.PutUint64(b[40:48], uint64(h.DictSize))
	binary.LittleEndian.PutUint64(b[48:56], uint64(h.PostOffset))
	binary.LittleEndian.PutUint64(b[56:64], uint64(h.PostSize))
	return b
}

func unmarshalHeader(b []byte) SegmentHeader {
	return SegmentHeader{
		Magic:      binary.LittleEndian.Uint32(b[0:4]),
		Version:    binary.LittleEndian.Uint32(b[4:8]),
		TermCount:  binary.LittleEndian.Uint32(b[8:12]),
		DocCount:   binary.LittleEndian.Uint32(b[12:16]),
		CreatedAt:  int64(binary.LittleEndian.Uint64(b[16:24])),
		Codec:      codec.Type(b[24]),
		DictOffset: int64(binary.LittleEndian.Uint64(b[32:40])),
		DictSize:   int64(binary.LittleEndian.Uint64(b[40:48])),
		PostOffset: int64(binary.LittleEndian.Uint64(b[48:56])),
		PostSize:   int64(binary.LittleEndian.Uint64(b[56:64])),
	}
}

// DictEntry maps a term to its postings offset and length in the postings
// section, and the number of postings the blob decodes to.
type DictEntry struct {
	Term       string `json:"t"`
	PostOffset int64  `json:"o"`
	PostLen    int    `json:"l"`
	DocFreq    int    `json:"n"`
}

// Writer serialises TermEntry slices into new .spdx segment files, encoding
// every postings list with one codec.
type Writer struct {
	dataDir string
	codec   codec.Codec
	now     func() time.Time
}

// NewWriter creates a Writer that writes segments into the given directory.
func NewWriter(dataDir string, c codec.Codec) *Writer {
	return &Writer{dataDir: dataDir, codec: c, now: time.Now}
}

// Write atomically creates a new segment file containing the given term
// entries. Postings are encoded in parallel; the first term that fails to
// encode aborts the segment. docCount is recorded in the header.
func (w *Writer) Write(entries []index.TermEntry, docCount int) (_ string, err error) {
	if len(entries) == 0 {
		return "", fmt.Errorf("cannot write empty segment")
	}
	blobs, err := w.encodeAll(entries)
	if err != nil {
		return "", err
	}

	created := w.now()
	segmentName := fmt.Sprintf("seg_%020d%s", created.UnixNano(), FileExt)
	finalPath := filepath.Join(w.dataDir, segmentName)
	tmpPath := finalPath + ".tmp"

	if err := os.MkdirAll(w.dataDir, 0755); err != nil {
		return "", fmt.Errorf("creating segment directory: %w", err)
	}
	f, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("creating temp segment file: %w", err)
	}
	defer func() {
		f.Close()
		if err != nil {
			os.Remove(tmpPath)
		}
	}()

	header := SegmentHeader{
		Magic:      MagicBytes,
		Version:    FormatVersion,
		TermCount:  uint32(len(entries)),
		DocCount:   uint32(docCount),
		CreatedAt:  created.Unix(),
		Codec:      w.codec.Type(),
		PostOffset: int64(HeaderSize),
	}
	if _, err := f.Write(header.marshal()); err != nil {
		return "", fmt.Errorf("writing header: %w", err)
	}

	postCRC := crc32.NewIEEE()
	dict := make([]DictEntry, 0, len(entries))
	var offset int64
	for i, entry := range entries {
		if _, err := f.Write(blobs[i]); err != nil {
			return "", fmt.Errorf("writing postings for term %q: %w", entry.Term, err)
		}
		postCRC.Write(blobs[i])
		dict = append(dict, DictEntry{
			Term:       entry.Term,
			PostOffset: offset,
			PostLen:    len(blobs[i]),
			DocFreq:    len(entry.Postings),
		})
		offset += int64(len(blobs[i]))
	}
	header.PostSize = offset

	dictData, err := json.Marshal(dict)
	if err != nil {
		return "", fmt.Errorf("marshaling dictionary: %w", err)
	}
	if _, err := f.Write(dictData); err != nil {
		return "", fmt.Errorf("writing dictionary: %w", err)
	}
	header.DictOffset = header.PostOffset + header.PostSize
	header.DictSize = int64(len(dictData))

	footer := make([]byte, FooterSize)
	binary.LittleEndian.PutUint32(footer[0:4], crc32.ChecksumIEEE(dictData))
	binary.LittleEndian.PutUint32(footer[4:8], postCRC.Sum32())
	binary.LittleEndian.PutUint32(footer[8:12], header.TermCount)
	binary.LittleEndian.PutUint64(footer[16:24], uint64(header.DictOffset))
	binary.LittleEndian.PutUint64(footer[24:32], uint64(header.PostSize))
	if _, err := f.Write(footer); err != nil {
		return "", fmt.Errorf("writing footer: %w", err)
	}
	if _, err := f.WriteAt(header.marshal(), 0); err != nil {
		return "", fmt.Errorf("updating header: %w", err)
	}
	if err := f.Sync(); err != nil {
		return "", fmt.Errorf("syncing segment file: %w", err)
	}
	f.Close()
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return "", fmt.Errorf("renaming segment file: %w", err)
	}
	return segmentName, nil
}

func (w *Writer) encodeAll(entries []index.TermEntry) ([][]byte, error) {
	blobs := make([][]byte, len(entries))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range entries {
		g.Go(func() error {
			buf, err := w.codec.Encode(entries[i].Postings)
			if err != nil {
				return fmt.Errorf("encoding postings for term %q: %w", entries[i].Term, err)
			}
			blobs[i] = buf
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return blobs, nil
}
