package zarr

// OpenMode names an h5py/zarr-python open mode. OpenArray and
// OpenGroupRoot take one; they always require the container to exist, and
// ModeReadOnly is the only mode that changes their behaviour. Every other
// mode opens the existing container read-write; no mode creates or
// overwrites a container.
type OpenMode string

const (
	// ModeReadOnly requires the container to already exist; mutations
	// fail with ErrReadOnly.
	ModeReadOnly OpenMode = "r"
	// ModeReadWrite requires the container to already exist and allows
	// mutation.
	ModeReadWrite OpenMode = "r+"
	// ModeCreate names the "w-" (create, fail if present) mode; the open
	// functions treat it as ModeReadWrite.
	ModeCreate OpenMode = "w-"
	// ModeCreateExclusive names the "x" mode, a synonym of "w-"; the open
	// functions treat it as ModeReadWrite.
	ModeCreateExclusive OpenMode = "x"
	// ModeOverwrite names the "w" (create, overwrite) mode; the open
	// functions treat it as ModeReadWrite.
	ModeOverwrite OpenMode = "w"
	// ModeAppend names the "a" (read-write, create if absent) mode; the
	// open functions treat it as ModeReadWrite.
	ModeAppend OpenMode = "a"
)

// CreateOptions configures CreateArray. Chunks (the whole shape as one
// chunk), Order (C), and DimensionSeparator (".") are defaulted by
// CreateArray when left zero; a nil Compressor, FillValue, or Filters
// means no compressor, no fill value, and no filters respectively.
type CreateOptions struct {
	Shape  []int
	Chunks []int
	DType  DType

	// Compressor is a codec config map (e.g. {"id": "zstd", "level": 5}),
	// or nil to request no compression (the descriptor records
	// "compressor": null and a "noop" codec is used internally).
	Compressor map[string]any

	// FillValue is the value returned for elements never written. nil
	// means "no fill value".
	FillValue any

	Order Order

	// Filters is applied in order on encode, and in reverse order on
	// decode, before/after the compressor respectively.
	Filters []map[string]any

	// DimensionSeparator is "." or "/"; defaults to ".".
	DimensionSeparator string

	Synchronizer Synchronizer
}

func (o *CreateOptions) applyDefaults() {
	if o.Order == 0 {
		o.Order = OrderC
	}
	if o.DimensionSeparator == "" {
		o.DimensionSeparator = "."
	}
	if len(o.Chunks) == 0 {
		o.Chunks = append([]int(nil), o.Shape...)
	}
}
