package zarr_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gozarr/gozarr/zarr"
)

func TestArrayMetadata_RoundTrip(t *testing.T) {
	dt, err := zarr.ParseDType("<f4")
	require.NoError(t, err)

	m := zarr.ArrayMetadata{
		ZarrFormat:         zarr.ZarrFormat,
		Shape:              []int{10, 20},
		Chunks:             []int{5, 5},
		DType:              dt,
		Compressor:         map[string]any{"id": "zstd", "level": float64(5)},
		FillValue:          float64(0),
		Order:              zarr.OrderC,
		DimensionSeparator: ".",
	}

	encoded, err := zarr.EncodeArrayMetadata(m)
	require.NoError(t, err)

	decoded, err := zarr.DecodeArrayMetadata(encoded)
	require.NoError(t, err)
	require.Equal(t, m.Shape, decoded.Shape)
	require.Equal(t, m.Chunks, decoded.Chunks)
	require.Equal(t, m.DType, decoded.DType)
	require.Equal(t, m.Order, decoded.Order)
	require.Equal(t, ".", decoded.DimensionSeparator)
}

func TestArrayMetadata_RejectsUnsupportedFormat(t *testing.T) {
	_, err := zarr.DecodeArrayMetadata([]byte(`{"zarr_format": 3}`))
	require.Error(t, err)
}

func TestArrayMetadata_RejectsRankMismatch(t *testing.T) {
	_, err := zarr.DecodeArrayMetadata([]byte(`{
		"zarr_format": 2,
		"shape": [10, 20],
		"chunks": [5],
		"dtype": "<f4",
		"compressor": null,
		"fill_value": null,
		"order": "C",
		"filters": null
	}`))
	require.Error(t, err)
}

func TestGroupMetadata_RoundTrip(t *testing.T) {
	encoded, err := zarr.EncodeGroupMetadata(zarr.GroupMetadata{ZarrFormat: zarr.ZarrFormat})
	require.NoError(t, err)
	decoded, err := zarr.DecodeGroupMetadata(encoded)
	require.NoError(t, err)
	require.Equal(t, zarr.ZarrFormat, decoded.ZarrFormat)
}

func TestGroupMetadata_RejectsUnsupportedFormat(t *testing.T) {
	_, err := zarr.DecodeGroupMetadata([]byte(`{"zarr_format": 1}`))
	require.Error(t, err)
}
