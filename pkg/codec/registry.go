package codec

import (
	"fmt"
	"math"
	"slices"
	"sync"

	apperrors "github.com/Adithya-Monish-Kumar-K/postings-codec/pkg/errors"
)

var (
	registryMu sync.RWMutex
	registry   = make(map[Type]Codec)
	rejected   = make(map[Type]error)
)

// narrowProbes must round-trip through every codec.
var narrowProbes = [][]uint64{
	{0},
	{5},
	{1},
	{34, 67, 89, 454, 2345738},
	{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10},
	{127, 255, 383},
	{0, 128, 16512, 16513},
	{16383, 32767, 49151},
	{1, 16385, 2113666},
	{math.MaxUint32 - 1, math.MaxUint32},
	{0, math.MaxUint32},
}

// wideProbes exceed 32 bits. A codec may reject them with ErrInvalidInput,
// but if it accepts one it must reproduce it.
var wideProbes = [][]uint64{
	{math.MaxUint32 + 1},
	{1 << 40, 1<<40 + 1, 1 << 62},
	{0, math.MaxUint64 - 1},
}

func init() {
	for _, c := range []Codec{Fixed{}, VByte{}, Gamma{}} {
		// A failed verification is recorded in rejected and surfaces from New.
		_ = Register(c)
	}
}

// Verify runs c against the probe corpus and reports the first violation of
// the round-trip law.
func Verify(c Codec) error {
	for _, probe := range narrowProbes {
		if err := verifyOne(c, probe); err != nil {
			return err
		}
	}
	for _, probe := range wideProbes {
		err := verifyOne(c, probe)
		if err != nil && !apperrors.Is(err, apperrors.ErrInvalidInput) {
			return err
		}
	}
	return nil
}

func verifyOne(c Codec, probe []uint64) error {
	buf, err := c.Encode(probe)
	if err != nil {
		return fmt.Errorf("encoding %v: %w", probe, err)
	}
	got, err := c.Decode(buf)
	if err != nil {
		return fmt.Errorf("decoding %v: %w", probe, err)
	}
	if !slices.Equal(got, probe) {
		return fmt.Errorf("round trip of %v returned %v", probe, got)
	}
	return nil
}

// Register verifies c and, if it honours the round-trip law, makes it
// available through New. A codec that fails verification is kept out of the
// registry and New reports ErrUnsupportedCodec for its tag.
func Register(c Codec) error {
	t := c.Type()
	verr := Verify(c)

	registryMu.Lock()
	defer registryMu.Unlock()
	if verr != nil {
		delete(registry, t)
		rejected[t] = verr
		return apperrors.Newf(apperrors.ErrUnsupportedCodec, t.String(), "failed round-trip verification: %v", verr)
	}
	delete(rejected, t)
	registry[t] = c
	return nil
}

// New returns the registered codec for tag t.
func New(t Type) (Codec, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	if c, ok := registry[t]; ok {
		return c, nil
	}
	if reason, ok := rejected[t]; ok {
		return nil, apperrors.Newf(apperrors.ErrUnsupportedCodec, t.String(), "failed round-trip verification: %v", reason)
	}
	return nil, apperrors.Newf(apperrors.ErrUnsupportedCodec, t.String(), "codec tag %d is not registered", uint8(t))
}

// ByName returns the registered codec with the given name.
func ByName(name string) (Codec, error) {
	t, err := ParseType(name)
	if err != nil {
		return nil, err
	}
	return New(t)
}

// Registered returns the tags of all usable codecs in ascending order.
func Registered() []Type {
	registryMu.RLock()
	defer registryMu.RUnlock()
	types := make([]Type, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}
