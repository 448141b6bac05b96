package codec

import (
	apperrors "github.com/Adithya-Monish-Kumar-K/postings-codec/pkg/errors"
)

// BitWriter packs bits most-significant first into a byte slice. The last
// byte is zero-padded.
type BitWriter struct {
	buf   []byte
	nbits uint64
}

// NewBitWriter returns a BitWriter with room for sizeHint bytes.
func NewBitWriter(sizeHint int) *BitWriter {
	return &BitWriter{buf: make([]byte, 0, sizeHint)}
}

func (w *BitWriter) WriteBit(bit uint) {
	if w.nbits%8 == 0 {
		w.buf = append(w.buf, 0)
	}
	if bit != 0 {
		w.buf[len(w.buf)-1] |= 0x80 >> (w.nbits % 8)
	}
	w.nbits++
}

// WriteBits writes the low n bits of v, most significant first.
func (w *BitWriter) WriteBits(v uint64, n uint) {
	for i := n; i > 0; i-- {
		w.WriteBit(uint(v>>(i-1)) & 1)
	}
}

// Len returns the number of bits written so far.
func (w *BitWriter) Len() uint64 { return w.nbits }

// Bytes returns the packed bits. The slice aliases the writer's buffer.
func (w *BitWriter) Bytes() []byte { return w.buf }

// BitReader walks a byte slice bit by bit, most-significant first, with a
// cursor that is independent of byte boundaries.
type BitReader struct {
	buf []byte
	pos uint64
}

func NewBitReader(buf []byte) *BitReader {
	return &BitReader{buf: buf}
}

func (r *BitReader) ReadBit() (uint, error) {
	if r.pos >= uint64(len(r.buf))*8 {
		return 0, apperrors.Newf(apperrors.ErrCorruptBuffer, "", "out of bits at bit %d", r.pos)
	}
	bit := uint(r.buf[r.pos/8]>>(7-r.pos%8)) & 1
	r.pos++
	return bit, nil
}

// ReadBits reads n bits and returns them as the low bits of a uint64.
func (r *BitReader) ReadBits(n uint) (uint64, error) {
	if n > 64 {
		return 0, apperrors.Newf(apperrors.ErrInternal, "", "cannot read %d bits into uint64", n)
	}
	var v uint64
	for i := uint(0); i < n; i++ {
		bit, err := r.ReadBit()
		if err != nil {
			return 0, err
		}
		v = v<<1 | uint64(bit)
	}
	return v, nil
}

// Remaining returns the number of unread bits.
func (r *BitReader) Remaining() uint64 {
	return uint64(len(r.buf))*8 - r.pos
}
