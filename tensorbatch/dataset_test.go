package tensorbatch_test

import (
	"context"
	"encoding/binary"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gozarr/gozarr/store"
	"github.com/gozarr/gozarr/tensorbatch"
	"github.com/gozarr/gozarr/zarr"
)

func f4Bytes(vals ...float32) []byte {
	buf := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

func TestDataset_NextBatch(t *testing.T) {
	ctx := context.Background()
	dt, err := zarr.ParseDType("<f4")
	require.NoError(t, err)
	s := store.NewMemoryStore()
	a, err := zarr.CreateArray(ctx, s, "arr", zarr.CreateOptions{
		Shape:  []int{5, 2},
		Chunks: []int{2, 2},
		DType:  dt,
	}, nil)
	require.NoError(t, err)

	require.NoError(t, a.Set(ctx, []any{zarr.Slice{}, zarr.Slice{}}, f4Bytes(
		0, 1,
		2, 3,
		4, 5,
		6, 7,
		8, 9,
	)))

	ds, err := tensorbatch.NewDataset(a)
	require.NoError(t, err)

	b1, err := ds.NextBatch(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, []int{2, 2}, b1.Shape().Dimensions)

	b2, err := ds.NextBatch(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, []int{2, 2}, b2.Shape().Dimensions)

	b3, err := ds.NextBatch(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, b3.Shape().Dimensions)

	_, err = ds.NextBatch(ctx, 2)
	require.ErrorIs(t, err, io.EOF)
}

func TestDataset_RejectsScalarArray(t *testing.T) {
	ctx := context.Background()
	dt, err := zarr.ParseDType("<f4")
	require.NoError(t, err)
	s := store.NewMemoryStore()
	a, err := zarr.CreateArray(ctx, s, "scalar", zarr.CreateOptions{
		Shape: []int{}, Chunks: []int{}, DType: dt,
	}, nil)
	require.NoError(t, err)

	_, err = tensorbatch.NewDataset(a)
	require.Error(t, err)
}
