package codec_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/postings-codec/pkg/codec"
	apperrors "github.com/Adithya-Monish-Kumar-K/postings-codec/pkg/errors"
)

// lossyCodec drops the last posting whenever there is more than one.
type lossyCodec struct{ codec.VByte }

func (lossyCodec) Type() codec.Type { return codec.Type(200) }

func (l lossyCodec) Decode(buf []byte) ([]uint64, error) {
	out, err := l.VByte.Decode(buf)
	if err != nil || len(out) < 2 {
		return out, err
	}
	return out[:len(out)-1], nil
}

// narrowCodec only accepts postings below 2^32 and is otherwise correct.
type narrowCodec struct{ codec.Fixed }

func (narrowCodec) Type() codec.Type { return codec.Type(201) }

func TestBuiltinCodecsRegistered(t *testing.T) {
	types := codec.Registered()
	assert.Subset(t, types, []codec.Type{codec.TypeFixed, codec.TypeVByte, codec.TypeGamma})

	for _, name := range []string{"fixed", "vbyte", "gamma"} {
		c, err := codec.ByName(name)
		require.NoError(t, err)
		assert.Equal(t, name, c.Type().String())
	}
}

func TestRegisterRejectsLossyCodec(t *testing.T) {
	err := codec.Register(lossyCodec{})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedCodec)

	_, err = codec.New(codec.Type(200))
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedCodec)
	assert.NotContains(t, codec.Registered(), codec.Type(200))
}

func TestRegisterAcceptsNarrowCodec(t *testing.T) {
	require.NoError(t, codec.Register(narrowCodec{}))
	c, err := codec.New(codec.Type(201))
	require.NoError(t, err)
	assert.Equal(t, codec.Type(201), c.Type())
}

func TestNewUnknownTag(t *testing.T) {
	_, err := codec.New(codec.Type(0))
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedCodec)

	_, err = codec.ByName("elias-delta")
	assert.ErrorIs(t, err, apperrors.ErrUnsupportedCodec)
}

func TestVerifyBuiltins(t *testing.T) {
	for _, c := range allCodecs {
		assert.NoError(t, codec.Verify(c), c.Type().String())
	}
}
