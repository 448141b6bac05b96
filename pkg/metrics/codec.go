package metrics

import (
	"github.com/Adithya-Monish-Kumar-K/postings-codec/pkg/codec"
	apperrors "github.com/Adithya-Monish-Kumar-K/postings-codec/pkg/errors"
)

const postingSize = 8

type instrumentedCodec struct {
	next codec.Codec
	m    *Metrics
	name string
}

// Instrument wraps c so every Encode and Decode is recorded in m. Results and
// errors pass through unchanged.
func Instrument(c codec.Codec, m *Metrics) codec.Codec {
	return &instrumentedCodec{next: c, m: m, name: c.Type().String()}
}

func (ic *instrumentedCodec) Type() codec.Type { return ic.next.Type() }

func (ic *instrumentedCodec) Encode(postings []uint64) ([]byte, error) {
	buf, err := ic.next.Encode(postings)
	ic.m.CodecOperationsTotal.WithLabelValues(ic.name, "encode", apperrors.Kind(err)).Inc()
	if err != nil {
		return nil, err
	}
	ic.m.CodecInputBytes.WithLabelValues(ic.name, "encode").Observe(float64(len(postings) * postingSize))
	ic.m.CodecOutputBytes.WithLabelValues(ic.name, "encode").Observe(float64(len(buf)))
	ic.m.CodecPostingsTotal.WithLabelValues(ic.name, "encode").Add(float64(len(postings)))
	return buf, nil
}

func (ic *instrumentedCodec) Decode(buf []byte) ([]uint64, error) {
	postings, err := ic.next.Decode(buf)
	ic.m.CodecOperationsTotal.WithLabelValues(ic.name, "decode", apperrors.Kind(err)).Inc()
	if err != nil {
		return nil, err
	}
	ic.m.CodecInputBytes.WithLabelValues(ic.name, "decode").Observe(float64(len(buf)))
	ic.m.CodecOutputBytes.WithLabelValues(ic.name, "decode").Observe(float64(len(postings) * postingSize))
	ic.m.CodecPostingsTotal.WithLabelValues(ic.name, "decode").Add(float64(len(postings)))
	return postings, nil
}
