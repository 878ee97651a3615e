package zarr

import "errors"

// Sentinel errors covering every failure kind the package reports.
// Callers use errors.Is to distinguish them; helpers in this package wrap
// them with fmt.Errorf's %w verb to attach context (key, path,
// coordinates) without losing errors.Is compatibility.
var (
	// ErrMetadata is returned when a descriptor is missing, malformed, or
	// names an unsupported zarr_format.
	ErrMetadata = errors.New("zarr: invalid metadata")

	// ErrIndexOutOfBounds is returned when an axis index lies beyond the
	// array's shape after wraparound.
	ErrIndexOutOfBounds = errors.New("zarr: index out of bounds")

	// ErrUnsupportedSlicing is returned for a slice step other than 1/nil.
	ErrUnsupportedSlicing = errors.New("zarr: unsupported slicing")

	// ErrShapeMismatch is returned when a write value's shape does not
	// match the selection's output shape.
	ErrShapeMismatch = errors.New("zarr: shape mismatch")

	// ErrReadOnly is returned on any mutation of a read-only handle.
	ErrReadOnly = errors.New("zarr: read-only")

	// ErrContainerExists is returned when creating a group or array at a
	// path already occupied by a group, array, or chunk.
	ErrContainerExists = errors.New("zarr: container already exists")

	// ErrKeyNotFound is returned when a group path lookup misses.
	ErrKeyNotFound = errors.New("zarr: key not found")

	// ErrInvalidPath is returned when a path contains a "." or ".."
	// segment.
	ErrInvalidPath = errors.New("zarr: invalid path")

	// ErrCodec is returned when a codec reports an encode/decode failure.
	// It is a sentinel of its own, distinct from codec.ErrCodec: the array
	// engine wraps every codec failure with it, so callers of this package
	// need not import codec directly just to check errors.Is.
	ErrCodec = errors.New("zarr: codec error")

	// ErrStore is returned when the underlying store reports an I/O
	// failure not explained by a missing key.
	ErrStore = errors.New("zarr: store error")

	// ErrTypeMismatch is returned by RequireDataset when an existing
	// array's dtype is not castable to (or, with exact=true, equal to)
	// the requested dtype.
	ErrTypeMismatch = errors.New("zarr: type mismatch")
)
