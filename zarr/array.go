package zarr

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/gozarr/gozarr/codec"
	"github.com/gozarr/gozarr/store"
)

var defaultCodecRegistry = codec.NewRegistry()

// joinKey concatenates a container path and a leaf name into a flat store
// key using a slash-delimited hierarchy. An empty prefix yields the bare
// leaf name (the root container).
func joinKey(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}

// Array is a handle on one chunked array: its descriptor, codec chain,
// and the store/synchronizer it reads and writes chunks through. The
// zero value is not usable; construct with CreateArray or OpenArray.
type Array struct {
	s          store.Store
	path       string
	meta       ArrayMetadata
	compressor codec.Codec
	filters    []codec.Codec
	fill       FillValue
	sync       Synchronizer
	readOnly   bool
	tel        telemetry

	mu sync.RWMutex // guards meta.Shape across Resize/Append vs. Get/Set
}

func (a *Array) metaKey() string { return joinKey(a.path, ".zarray") }

func (a *Array) chunkKey(idx ChunkIndex) string {
	return joinKey(a.path, ChunkKeySep(idx, a.meta.DimensionSeparator))
}

// Path returns the array's location within its store.
func (a *Array) Path() string { return a.path }

// Shape returns a copy of the array's current shape.
func (a *Array) Shape() []int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]int(nil), a.meta.Shape...)
}

// Chunks returns the array's fixed chunk shape.
func (a *Array) Chunks() []int { return append([]int(nil), a.meta.Chunks...) }

// DType returns the array's element type.
func (a *Array) DType() DType { return a.meta.DType }

// Attrs returns the mutable attributes view for this array.
func (a *Array) Attrs() *Attributes {
	return newAttributes(a.s, a.path, a.sync, a.readOnly, a.tel)
}

func buildCodecChain(compressorCfg map[string]any, filterCfgs []map[string]any) (codec.Codec, []codec.Codec, error) {
	var compressor codec.Codec
	if compressorCfg == nil {
		noop, err := defaultCodecRegistry.Build(map[string]any{"id": "noop"})
		if err != nil {
			return nil, nil, err
		}
		compressor = noop
	} else {
		c, err := defaultCodecRegistry.Build(compressorCfg)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrCodec, err)
		}
		compressor = c
	}

	filters := make([]codec.Codec, len(filterCfgs))
	for i, cfg := range filterCfgs {
		f, err := defaultCodecRegistry.Build(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrCodec, err)
		}
		filters[i] = f
	}
	return compressor, filters, nil
}

// CreateArray initializes a new array descriptor at path and returns a
// handle to it. It fails with ErrContainerExists if path already holds a
// ".zarray" or ".zgroup" key.
func CreateArray(ctx context.Context, s store.Store, path string, opts CreateOptions, log *zap.Logger) (*Array, error) {
	opts.applyDefaults()
	if len(opts.Shape) != len(opts.Chunks) {
		return nil, fmt.Errorf("%w: shape and chunks must have the same rank", ErrShapeMismatch)
	}

	exists, err := containerExists(ctx, s, path)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %q", ErrContainerExists, path)
	}

	compressor, filters, err := buildCodecChain(opts.Compressor, opts.Filters)
	if err != nil {
		return nil, err
	}

	fill, err := DecodeFillValue(opts.FillValue, opts.DType)
	if err != nil {
		return nil, err
	}

	meta := ArrayMetadata{
		ZarrFormat:         ZarrFormat,
		Shape:              append([]int(nil), opts.Shape...),
		Chunks:             append([]int(nil), opts.Chunks...),
		DType:              opts.DType,
		Compressor:         opts.Compressor,
		FillValue:          opts.FillValue,
		Order:              opts.Order,
		Filters:            opts.Filters,
		DimensionSeparator: opts.DimensionSeparator,
	}

	encoded, err := EncodeArrayMetadata(meta)
	if err != nil {
		return nil, errors.Wrap(err, "zarr: encoding array metadata")
	}

	sync := opts.Synchronizer
	if sync == nil {
		sync = NewThreadSynchronizer()
	}

	a := &Array{
		s:          s,
		path:       path,
		meta:       meta,
		compressor: compressor,
		filters:    filters,
		fill:       fill,
		sync:       sync,
		tel:        newTelemetry(log),
	}

	if err := s.Set(ctx, a.metaKey(), encoded); err != nil {
		return nil, fmt.Errorf("%w: writing array metadata: %w", ErrStore, err)
	}
	a.tel.log.Debug("created array", zap.String("path", path), zap.Ints("shape", meta.Shape))
	return a, nil
}

// OpenArray opens an existing array descriptor at path. mode controls
// read-only enforcement: ModeReadOnly produces a handle whose mutating
// methods return ErrReadOnly.
func OpenArray(ctx context.Context, s store.Store, path string, mode OpenMode, sync Synchronizer, log *zap.Logger) (*Array, error) {
	raw, err := s.Get(ctx, joinKey(path, ".zarray"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %q", ErrKeyNotFound, path)
		}
		return nil, fmt.Errorf("%w: reading array metadata: %w", ErrStore, err)
	}
	meta, err := DecodeArrayMetadata(raw)
	if err != nil {
		return nil, err
	}

	compressor, filters, err := buildCodecChain(meta.Compressor, meta.Filters)
	if err != nil {
		return nil, err
	}
	fill, err := DecodeFillValue(meta.FillValue, meta.DType)
	if err != nil {
		return nil, err
	}
	if sync == nil {
		sync = NewThreadSynchronizer()
	}

	return &Array{
		s:          s,
		path:       path,
		meta:       meta,
		compressor: compressor,
		filters:    filters,
		fill:       fill,
		sync:       sync,
		readOnly:   mode == ModeReadOnly,
		tel:        newTelemetry(log),
	}, nil
}

// containerExists reports whether path already holds a ".zarray" or
// ".zgroup" key, or whether any ancestor of path is already occupied by
// an array. Nesting a group or array under an existing group is the
// normal hierarchy; nesting under an existing array is not, since an
// array has no children of its own.
func containerExists(ctx context.Context, s store.Store, path string) (bool, error) {
	for _, leaf := range []string{".zarray", ".zgroup"} {
		ok, err := s.Has(ctx, joinKey(path, leaf))
		if err != nil {
			return false, fmt.Errorf("%w: checking %q: %w", ErrStore, path, err)
		}
		if ok {
			return true, nil
		}
	}
	for _, ancestor := range ancestorPaths(path) {
		ok, err := s.Has(ctx, joinKey(ancestor, ".zarray"))
		if err != nil {
			return false, fmt.Errorf("%w: checking %q: %w", ErrStore, ancestor, err)
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// ancestorPaths returns every strict ancestor prefix of a slash-delimited
// path, shallowest first: ancestorPaths("a/b/c") == []string{"a", "a/b"}.
func ancestorPaths(path string) []string {
	if path == "" {
		return nil
	}
	segments := strings.Split(path, "/")
	out := make([]string, 0, len(segments)-1)
	for i := 1; i < len(segments); i++ {
		out = append(out, strings.Join(segments[:i], "/"))
	}
	return out
}

func rowMajorStrides(shape []int) []int {
	strides := make([]int, len(shape))
	acc := 1
	for i := len(shape) - 1; i >= 0; i-- {
		strides[i] = acc
		acc *= shape[i]
	}
	return strides
}

func product(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}

func (a *Array) encodeChunk(raw []byte) ([]byte, error) {
	buf := raw
	for _, f := range a.filters {
		enc, err := f.Encode(buf)
		if err != nil {
			return nil, fmt.Errorf("%w: filter: %v", ErrCodec, err)
		}
		buf = enc
	}
	out, err := a.compressor.Encode(buf)
	if err != nil {
		return nil, fmt.Errorf("%w: compressor: %v", ErrCodec, err)
	}
	return out, nil
}

func (a *Array) decodeChunk(encoded []byte) ([]byte, error) {
	buf, err := a.compressor.Decode(encoded, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: compressor: %v", ErrCodec, err)
	}
	for i := len(a.filters) - 1; i >= 0; i-- {
		dec, err := a.filters[i].Decode(buf, nil)
		if err != nil {
			return nil, fmt.Errorf("%w: filter: %v", ErrCodec, err)
		}
		buf = dec
	}
	return buf, nil
}

// emptyChunk returns a freshly-materialized chunk buffer at the nominal
// chunk shape, filled with the array's fill pattern (or zero bytes if no
// fill value is set).
func (a *Array) emptyChunk() []byte {
	n := chunkElementCount(a.meta.Chunks) * a.meta.DType.ItemSize()
	buf := make([]byte, n)
	if a.fill.Present {
		item := a.meta.DType.ItemSize()
		for off := 0; off < n; off += item {
			copy(buf[off:off+item], a.fill.Pattern)
		}
	}
	return buf
}

func (a *Array) fetchChunk(ctx context.Context, idx ChunkIndex) ([]byte, error) {
	key := a.chunkKey(idx)
	encoded, err := a.s.Get(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			a.tel.chunkReads.Add(ctx, 1)
			return a.emptyChunk(), nil
		}
		return nil, fmt.Errorf("%w: reading chunk %q: %w", ErrStore, key, err)
	}
	a.tel.chunkReads.Add(ctx, 1)
	return a.decodeChunk(encoded)
}

// Get reads the elements selected by raw (a per-axis list of int, Slice,
// []bool, []int, or at most one Ellipsis) into a freshly allocated
// buffer, returning it alongside the selection's output shape.
func (a *Array) Get(ctx context.Context, raw []any) ([]byte, []int, error) {
	ctx, span := a.tel.tracer.Start(ctx, "zarr.Array.Get")
	defer span.End()

	a.mu.RLock()
	shape := append([]int(nil), a.meta.Shape...)
	a.mu.RUnlock()

	sel, err := NormalizeSelection(raw, shape)
	if err != nil {
		return nil, nil, err
	}
	outShape := sel.OutputShape()
	itemSize := a.meta.DType.ItemSize()
	out := make([]byte, product(outShape)*itemSize)
	if a.fill.Present {
		for off := 0; off < len(out); off += itemSize {
			copy(out[off:off+itemSize], a.fill.Pattern)
		}
	}

	chunkStride := rowMajorStrides(a.meta.Chunks)
	outStride := rowMajorStrides(outShape)

	err = Decompose(sel, a.meta.Chunks, func(proj chunkProjection) error {
		lock := a.sync.ChunkLock(a.chunkKey(proj.ChunkIndex))
		lock.Lock()
		defer lock.Unlock()

		chunkBuf, err := a.fetchChunk(ctx, proj.ChunkIndex)
		if err != nil {
			return err
		}
		copyProjected(sel, proj, chunkStride, outStride, itemSize, chunkBuf, out, true)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return out, outShape, nil
}

// Set writes src (whose length must equal product(outputShape)*itemSize
// for raw's selection) into the array. It fails with ErrReadOnly on a
// handle opened with ModeReadOnly.
func (a *Array) Set(ctx context.Context, raw []any, src []byte) error {
	if a.readOnly {
		return ErrReadOnly
	}
	ctx, span := a.tel.tracer.Start(ctx, "zarr.Array.Set")
	defer span.End()

	a.mu.RLock()
	shape := append([]int(nil), a.meta.Shape...)
	a.mu.RUnlock()

	sel, err := NormalizeSelection(raw, shape)
	if err != nil {
		return err
	}
	outShape := sel.OutputShape()
	itemSize := a.meta.DType.ItemSize()
	want := product(outShape) * itemSize
	if len(src) != want {
		return fmt.Errorf("%w: selection expects %d bytes, got %d", ErrShapeMismatch, want, len(src))
	}

	chunkStride := rowMajorStrides(a.meta.Chunks)
	outStride := rowMajorStrides(outShape)

	return Decompose(sel, a.meta.Chunks, func(proj chunkProjection) error {
		key := a.chunkKey(proj.ChunkIndex)
		lock := a.sync.ChunkLock(key)
		lock.Lock()
		defer lock.Unlock()

		var chunkBuf []byte
		if isFullChunkProjection(proj, a.meta.Chunks) {
			chunkBuf = make([]byte, chunkElementCount(a.meta.Chunks)*itemSize)
		} else {
			chunkBuf, err = a.fetchChunk(ctx, proj.ChunkIndex)
			if err != nil {
				return err
			}
		}
		copyProjected(sel, proj, chunkStride, outStride, itemSize, chunkBuf, src, false)

		encoded, err := a.encodeChunk(chunkBuf)
		if err != nil {
			return err
		}
		if err := a.s.Set(ctx, key, encoded); err != nil {
			return fmt.Errorf("%w: writing chunk %q: %w", ErrStore, key, err)
		}
		a.tel.chunkWrites.Add(ctx, 1)
		return nil
	})
}

// isFullChunkProjection reports whether proj covers every element of its
// chunk at the nominal chunk shape, letting Set skip the read half of a
// read-modify-write.
func isFullChunkProjection(proj chunkProjection, chunks []int) bool {
	for axis, positions := range proj.ChunkPositions {
		if len(positions) != chunks[axis] {
			return false
		}
		for i, p := range positions {
			if p != i {
				return false
			}
		}
	}
	return true
}

// copyProjected performs the element-wise gather (forward=true, chunk ->
// dst) or scatter (forward=false, src -> chunk) described by one chunk
// projection, iterating the Cartesian product of each axis's resolved
// position list.
func copyProjected(sel Selection, proj chunkProjection, chunkStride, outStride []int, itemSize int, chunkBuf, outBuf []byte, forward bool) {
	ndim := len(sel)
	if ndim == 0 {
		if forward {
			copy(outBuf[:itemSize], chunkBuf[:itemSize])
		} else {
			copy(chunkBuf[:itemSize], outBuf[:itemSize])
		}
		return
	}

	outAxisFor := make([]int, ndim)
	oa := 0
	for i, a := range sel {
		if a.kind == axisIndex {
			outAxisFor[i] = -1
		} else {
			outAxisFor[i] = oa
			oa++
		}
	}

	counts := make([]int, ndim)
	for i := range proj.ChunkPositions {
		counts[i] = len(proj.ChunkPositions[i])
	}
	idx := make([]int, ndim)

	for {
		chunkOff := 0
		outOff := 0
		for axis := 0; axis < ndim; axis++ {
			chunkOff += proj.ChunkPositions[axis][idx[axis]] * chunkStride[axis]
			if oAxis := outAxisFor[axis]; oAxis >= 0 {
				outOff += proj.OutputPositions[oAxis][idx[axis]] * outStride[oAxis]
			}
		}
		cStart, cEnd := chunkOff*itemSize, chunkOff*itemSize+itemSize
		oStart, oEnd := outOff*itemSize, outOff*itemSize+itemSize
		if forward {
			copy(outBuf[oStart:oEnd], chunkBuf[cStart:cEnd])
		} else {
			copy(chunkBuf[cStart:cEnd], outBuf[oStart:oEnd])
		}

		axis := ndim - 1
		for axis >= 0 {
			idx[axis]++
			if idx[axis] < counts[axis] {
				break
			}
			idx[axis] = 0
			axis--
		}
		if axis < 0 {
			return
		}
	}
}

// Resize changes the array's shape in place, then deletes every chunk
// that falls entirely outside the new chunk grid, so a shrink leaves no
// orphaned chunk keys behind.
func (a *Array) Resize(ctx context.Context, newShape []int) error {
	if a.readOnly {
		return ErrReadOnly
	}
	if len(newShape) != len(a.meta.Chunks) {
		return fmt.Errorf("%w: resize must preserve rank", ErrShapeMismatch)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.meta.Shape = append([]int(nil), newShape...)
	encoded, err := EncodeArrayMetadata(a.meta)
	if err != nil {
		return errors.Wrap(err, "zarr: encoding array metadata")
	}
	if err := a.s.Set(ctx, a.metaKey(), encoded); err != nil {
		return fmt.Errorf("%w: writing array metadata: %w", ErrStore, err)
	}
	return a.deleteChunksOutsideGrid(ctx, GridShape(newShape, a.meta.Chunks))
}

// deleteChunksOutsideGrid removes every stored chunk key under the
// array's path whose coordinate has any axis at or past grid[axis].
func (a *Array) deleteChunksOutsideGrid(ctx context.Context, grid []int) error {
	prefix := a.path
	if prefix != "" {
		prefix += "/"
	}
	keys, err := a.s.Keys(ctx, prefix)
	if err != nil {
		return fmt.Errorf("%w: listing %q: %w", ErrStore, a.path, err)
	}
	for _, key := range keys {
		rest := strings.TrimPrefix(key, prefix)
		if rest == ".zarray" || rest == ".zattrs" {
			continue
		}
		dotted := strings.ReplaceAll(rest, a.meta.DimensionSeparator, ".")
		idx, err := ParseChunkKey(dotted, len(a.meta.Chunks))
		if err != nil {
			continue
		}
		outside := false
		for axis, c := range idx {
			if c < 0 || c >= grid[axis] {
				outside = true
				break
			}
		}
		if !outside {
			continue
		}
		if err := a.s.Delete(ctx, key); err != nil {
			return fmt.Errorf("%w: deleting orphaned chunk %q: %w", ErrStore, key, err)
		}
	}
	return nil
}

// Append extends the array along axis by appending data (whose shape
// must match the array's shape on every other axis), then writes data
// into the newly grown region.
func (a *Array) Append(ctx context.Context, axis int, appendShape []int, data []byte) error {
	if a.readOnly {
		return ErrReadOnly
	}
	current := a.Shape()
	if len(appendShape) != len(current) {
		return fmt.Errorf("%w: append shape must have the same rank as the array", ErrShapeMismatch)
	}
	for i := range current {
		if i != axis && appendShape[i] != current[i] {
			return fmt.Errorf("%w: append shape disagrees with array shape on axis %d", ErrShapeMismatch, i)
		}
	}

	oldExtent := current[axis]
	newShape := append([]int(nil), current...)
	newShape[axis] += appendShape[axis]
	if err := a.Resize(ctx, newShape); err != nil {
		return err
	}

	selectors := make([]any, len(current))
	for i := range current {
		if i == axis {
			start, stop := oldExtent, newShape[axis]
			selectors[i] = Slice{Start: &start, Stop: &stop}
		} else {
			selectors[i] = Slice{}
		}
	}
	return a.Set(ctx, selectors, data)
}
