package zarr_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gozarr/gozarr/zarr"
)

func TestParseDType_Simple(t *testing.T) {
	for _, tt := range []struct {
		s      string
		kind   byte
		endian byte
		size   int
	}{
		{"<f4", 'f', '<', 4},
		{">i8", 'i', '>', 8},
		{"|b1", 'b', '|', 1},
		{"|S10", 'S', '|', 10},
		{"<u2", 'u', '<', 2},
	} {
		dt, err := zarr.ParseDType(tt.s)
		require.NoError(t, err, tt.s)
		require.Equal(t, tt.kind, dt.Kind)
		require.Equal(t, tt.endian, dt.Endian)
		require.Equal(t, tt.size, dt.Size)
		require.Equal(t, tt.s, dt.String())
	}
}

func TestParseDType_Invalid(t *testing.T) {
	for _, s := range []string{"", "f4", "<f", "<z4", "<f-1", "<f0"} {
		_, err := zarr.ParseDType(s)
		require.Error(t, err, s)
	}
}

func TestDType_JSONRoundTrip_Simple(t *testing.T) {
	dt, err := zarr.ParseDType("<f8")
	require.NoError(t, err)

	raw, err := json.Marshal(dt)
	require.NoError(t, err)
	// encoding/json HTML-escapes '<' in marshaled strings.
	require.Equal(t, "\"\\u003cf8\"", string(raw))

	var back zarr.DType
	require.NoError(t, json.Unmarshal(raw, &back))
	require.Equal(t, dt, back)
}

func TestDType_JSONRoundTrip_Structured(t *testing.T) {
	f32, err := zarr.ParseDType("<f4")
	require.NoError(t, err)
	i8, err := zarr.ParseDType("<i8")
	require.NoError(t, err)

	dt := zarr.DType{Fields: []zarr.Field{
		{Name: "x", Type: f32},
		{Name: "y", Type: f32},
		{Name: "id", Type: i8},
	}}
	require.True(t, dt.Structured())
	require.Equal(t, 16, dt.ItemSize())

	raw, err := json.Marshal(dt)
	require.NoError(t, err)

	var back zarr.DType
	require.NoError(t, json.Unmarshal(raw, &back))
	require.Equal(t, dt, back)
}

func TestDType_GoName(t *testing.T) {
	dt, err := zarr.ParseDType("<u4")
	require.NoError(t, err)
	require.Equal(t, "uint32", dt.GoName())
}
