package zarr_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gozarr/gozarr/store"
	"github.com/gozarr/gozarr/zarr"
)

func TestGroup_CreateAndOpenSubgroup(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	root, err := zarr.CreateGroupRoot(ctx, s, nil, nil)
	require.NoError(t, err)

	sub, err := root.CreateGroup(ctx, "measurements")
	require.NoError(t, err)
	require.Equal(t, "measurements", sub.Path())

	reopened, err := root.OpenGroup(ctx, "measurements")
	require.NoError(t, err)
	require.Equal(t, sub.Path(), reopened.Path())
}

func TestGroup_CreateGroupRejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	root, err := zarr.CreateGroupRoot(ctx, s, nil, nil)
	require.NoError(t, err)
	_, err = root.CreateGroup(ctx, "a")
	require.NoError(t, err)

	_, err = root.CreateGroup(ctx, "a")
	require.True(t, errors.Is(err, zarr.ErrContainerExists))
}

func TestGroup_CreateUnderExistingArrayRejected(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	root, err := zarr.CreateGroupRoot(ctx, s, nil, nil)
	require.NoError(t, err)

	dt, err := zarr.ParseDType("<f4")
	require.NoError(t, err)
	_, err = root.CreateDataset(ctx, "foo", zarr.CreateOptions{Shape: []int{4}, Chunks: []int{2}, DType: dt})
	require.NoError(t, err)

	_, err = root.CreateGroup(ctx, "foo/bar")
	require.True(t, errors.Is(err, zarr.ErrContainerExists))

	_, err = root.CreateDataset(ctx, "foo/baz", zarr.CreateOptions{Shape: []int{4}, Chunks: []int{2}, DType: dt})
	require.True(t, errors.Is(err, zarr.ErrContainerExists))

	ok, err := s.Has(ctx, "foo/bar/.zgroup")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestGroup_RequireGroupCreatesOnce(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	root, err := zarr.CreateGroupRoot(ctx, s, nil, nil)
	require.NoError(t, err)

	first, err := root.RequireGroup(ctx, "nested")
	require.NoError(t, err)
	second, err := root.RequireGroup(ctx, "nested")
	require.NoError(t, err)
	require.Equal(t, first.Path(), second.Path())
}

func TestGroup_PathValidation(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	root, err := zarr.CreateGroupRoot(ctx, s, nil, nil)
	require.NoError(t, err)

	for _, bad := range []string{".", "..", "a/../b", "a//b"} {
		_, err := root.CreateGroup(ctx, bad)
		require.Error(t, err, bad)
	}
}

func TestGroup_CreateDatasetAndRequireDataset(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	root, err := zarr.CreateGroupRoot(ctx, s, nil, nil)
	require.NoError(t, err)

	dt, err := zarr.ParseDType("<f4")
	require.NoError(t, err)
	opts := zarr.CreateOptions{Shape: []int{10}, Chunks: []int{5}, DType: dt}

	a, err := root.CreateDataset(ctx, "temperature", opts)
	require.NoError(t, err)
	require.Equal(t, "temperature", a.Path())

	again, err := root.RequireDataset(ctx, "temperature", opts, true)
	require.NoError(t, err)
	require.Equal(t, a.Path(), again.Path())

	mismatch := opts
	mismatch.Shape = []int{20}
	_, err = root.RequireDataset(ctx, "temperature", mismatch, true)
	require.True(t, errors.Is(err, zarr.ErrShapeMismatch))
}

func TestGroup_KeysListsChildren(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	root, err := zarr.CreateGroupRoot(ctx, s, nil, nil)
	require.NoError(t, err)

	_, err = root.CreateGroup(ctx, "a")
	require.NoError(t, err)
	_, err = root.CreateGroup(ctx, "b")
	require.NoError(t, err)

	keys, err := root.Keys(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, keys)

	n, err := root.Len(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)
}

func TestGroup_OpenMissingSubgroup(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	root, err := zarr.CreateGroupRoot(ctx, s, nil, nil)
	require.NoError(t, err)

	_, err = root.OpenGroup(ctx, "missing")
	require.True(t, errors.Is(err, zarr.ErrKeyNotFound))
}
