// Package store defines the record that storage backends persist for each
// term: the encoded postings buffer, verbatim, with the codec tag and posting
// count needed to decode it.
package store

import (
	"github.com/Adithya-Monish-Kumar-K/postings-codec/pkg/codec"
	apperrors "github.com/Adithya-Monish-Kumar-K/postings-codec/pkg/errors"
)

// Record is one term's encoded postings.
type Record struct {
	Term  string
	Codec codec.Type
	Count int
	Data  []byte
}

// NewRecord encodes postings with c.
func NewRecord(term string, c codec.Codec, postings []uint64) (Record, error) {
	data, err := c.Encode(postings)
	if err != nil {
		return Record{}, err
	}
	return Record{Term: term, Codec: c.Type(), Count: len(postings), Data: data}, nil
}

// Decode resolves the record's codec and decodes Data. A count that does not
// match the decoded postings is reported as ErrCorruptBuffer.
func (r Record) Decode() ([]uint64, error) {
	c, err := codec.New(r.Codec)
	if err != nil {
		return nil, err
	}
	postings, err := c.Decode(r.Data)
	if err != nil {
		return nil, err
	}
	if len(postings) != r.Count {
		return nil, apperrors.Newf(apperrors.ErrCorruptBuffer, r.Codec.String(),
			"term %q decoded %d postings, record says %d", r.Term, len(postings), r.Count)
	}
	return postings, nil
}

// MarshalBinary lays the record out as tag byte, vbyte count, data. The term
// is not included; callers key the value by it.
func (r Record) MarshalBinary() ([]byte, error) {
	if r.Count <= 0 {
		return nil, apperrors.Newf(apperrors.ErrInvalidInput, "", "record count must be positive, got %d", r.Count)
	}
	out := make([]byte, 0, 1+codec.MaxVByteLen+len(r.Data))
	out = append(out, byte(r.Codec))
	out = codec.AppendVByte(out, uint64(r.Count))
	return append(out, r.Data...), nil
}

// UnmarshalBinary parses a value written by MarshalBinary. Term is left as is.
func (r *Record) UnmarshalBinary(b []byte) error {
	if len(b) < 2 {
		return apperrors.Newf(apperrors.ErrCorruptBuffer, "", "record of %d bytes is too short", len(b))
	}
	count, n, err := codec.ReadVByte(b[1:])
	if err != nil {
		return err
	}
	if count == 0 || count > uint64(len(b)*8) {
		return apperrors.Newf(apperrors.ErrCorruptBuffer, "", "implausible record count %d", count)
	}
	r.Codec = codec.Type(b[0])
	r.Count = int(count)
	r.Data = append([]byte(nil), b[1+n:]...)
	return nil
}
