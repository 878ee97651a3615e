package zarr_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gozarr/gozarr/zarr"
)

func TestGridShape(t *testing.T) {
	grid := zarr.GridShape([]int{10, 3}, []int{4, 2})
	require.Equal(t, []int{3, 2}, grid)
}

func TestChunkKey(t *testing.T) {
	require.Equal(t, "3.0.12", zarr.ChunkKey(zarr.ChunkIndex{3, 0, 12}))
	require.Equal(t, "0", zarr.ChunkKey(zarr.ChunkIndex{}))
	require.Equal(t, "3/0/12", zarr.ChunkKeySep(zarr.ChunkIndex{3, 0, 12}, "/"))
}

func TestParseChunkKey(t *testing.T) {
	idx, err := zarr.ParseChunkKey("3.0.12", 3)
	require.NoError(t, err)
	require.Equal(t, zarr.ChunkIndex{3, 0, 12}, idx)

	idx, err = zarr.ParseChunkKey("0", 0)
	require.NoError(t, err)
	require.Equal(t, zarr.ChunkIndex{}, idx)

	_, err = zarr.ParseChunkKey("1.2", 3)
	require.Error(t, err)
}
