package codec_test

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gozarr/gozarr/codec"
)

func roundTrip(t *testing.T, c codec.Codec, input []byte) {
	t.Helper()
	encoded, err := c.Encode(input)
	require.NoError(t, err)

	decoded, err := c.Decode(encoded, nil)
	require.NoError(t, err)
	require.True(t, bytes.Equal(decoded, input), "round trip mismatch")
}

func TestRegistry_RoundTrip(t *testing.T) {
	reg := codec.NewRegistry()
	rnd := rand.New(rand.NewSource(1))
	input := make([]byte, 4096)
	rnd.Read(input)

	for _, tt := range []struct {
		name   string
		config map[string]any
	}{
		{"zstd", map[string]any{"id": "zstd"}},
		{"zlib", map[string]any{"id": "zlib"}},
		{"delta-4", map[string]any{"id": "delta", "itemsize": 4}},
		{"delta-8", map[string]any{"id": "delta", "itemsize": 8}},
		{"noop", map[string]any{"id": "noop"}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			c, err := reg.Build(tt.config)
			require.NoError(t, err)
			roundTrip(t, c, input)
		})
	}
}

func TestRegistry_UnknownID(t *testing.T) {
	reg := codec.NewRegistry()
	_, err := reg.Build(map[string]any{"id": "made-up"})
	require.Error(t, err)
	require.True(t, errors.Is(err, codec.ErrCodec))
}

func TestRegistry_MissingID(t *testing.T) {
	reg := codec.NewRegistry()
	_, err := reg.Build(map[string]any{})
	require.Error(t, err)
	require.True(t, errors.Is(err, codec.ErrCodec))
}

func TestBlosc_SurfacesCodecError(t *testing.T) {
	reg := codec.NewRegistry()
	c, err := reg.Build(map[string]any{"id": "blosc"})
	require.NoError(t, err)

	_, err = c.Encode([]byte("x"))
	require.Error(t, err)
	require.True(t, errors.Is(err, codec.ErrCodec))
}

func TestDelta_PreservesDecodeIntoProvidedBuffer(t *testing.T) {
	reg := codec.NewRegistry()
	c, err := reg.Build(map[string]any{"id": "delta", "itemsize": 4})
	require.NoError(t, err)

	input := make([]byte, 32)
	for i := range input {
		input[i] = byte(i)
	}
	encoded, err := c.Encode(input)
	require.NoError(t, err)

	dst := make([]byte, 0, 32)
	decoded, err := c.Decode(encoded, dst)
	require.NoError(t, err)
	require.Equal(t, input, decoded)
}

func TestDelta_RejectsMisalignedInput(t *testing.T) {
	reg := codec.NewRegistry()
	c, err := reg.Build(map[string]any{"id": "delta", "itemsize": 4})
	require.NoError(t, err)

	_, err = c.Encode([]byte{1, 2, 3})
	require.Error(t, err)
}
