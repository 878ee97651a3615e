package zarr

import "fmt"

// Ellipsis is a selector placeholder standing for "as many full slices as
// needed to fill out the array's rank", mirroring numpy's "...". At most
// one may appear in a selection.
type Ellipsis struct{}

// Slice is a selector with an optional start/stop and a step that must be
// 1 (or unset) — non-unit steps are unsupported and raised as
// ErrUnsupportedSlicing.
type Slice struct {
	Start *int
	Stop  *int
	Step  *int
}

// axisKind tags the normalized form an axis selector took.
type axisKind int

const (
	axisIndex axisKind = iota
	axisSlice
	axisBoolMask
	axisIntArray
)

// axisSelection is one axis's selector after normalization against the
// array's shape on that axis: wraparound applied, bounds checked, and
// reduced to a concrete ascending-or-explicit list of positions.
type axisSelection struct {
	kind axisKind

	// index is the single resolved element position, valid when kind ==
	// axisIndex. This axis is dropped from the output.
	index int

	// positions holds the resolved element positions along this axis, in
	// output order, for axisSlice/axisBoolMask/axisIntArray.
	positions []int
}

func (a axisSelection) outputLen() int {
	if a.kind == axisIndex {
		return -1
	}
	return len(a.positions)
}

// Selection is a normalized, per-axis selector ready for chunk
// decomposition.
type Selection []axisSelection

// OutputShape returns the shape of the result of applying sel: one entry
// per axis that was not reduced by a scalar Int selector.
func (sel Selection) OutputShape() []int {
	shape := make([]int, 0, len(sel))
	for _, a := range sel {
		if a.kind != axisIndex {
			shape = append(shape, len(a.positions))
		}
	}
	return shape
}

func wrapIndex(i, n int) (int, error) {
	orig := i
	if i < 0 {
		i += n
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("%w: index %d out of bounds for axis of length %d", ErrIndexOutOfBounds, orig, n)
	}
	return i, nil
}

func normalizeAxis(raw any, n int) (axisSelection, error) {
	switch v := raw.(type) {
	case int:
		idx, err := wrapIndex(v, n)
		if err != nil {
			return axisSelection{}, err
		}
		return axisSelection{kind: axisIndex, index: idx}, nil

	case Slice:
		if v.Step != nil && *v.Step != 1 {
			return axisSelection{}, fmt.Errorf("%w: slice step %d is unsupported", ErrUnsupportedSlicing, *v.Step)
		}
		start, stop := 0, n
		if v.Start != nil {
			s := *v.Start
			if s < 0 {
				s += n
			}
			if s < 0 {
				s = 0
			}
			if s > n {
				s = n
			}
			start = s
		}
		if v.Stop != nil {
			s := *v.Stop
			if s < 0 {
				s += n
			}
			if s < 0 {
				s = 0
			}
			if s > n {
				s = n
			}
			stop = s
		}
		positions := make([]int, 0, stop-start)
		for i := start; i < stop; i++ {
			positions = append(positions, i)
		}
		return axisSelection{kind: axisSlice, positions: positions}, nil

	case []bool:
		if len(v) != n {
			return axisSelection{}, fmt.Errorf("%w: boolean mask length %d does not match axis length %d", ErrShapeMismatch, len(v), n)
		}
		positions := make([]int, 0, n)
		for i, keep := range v {
			if keep {
				positions = append(positions, i)
			}
		}
		return axisSelection{kind: axisBoolMask, positions: positions}, nil

	case []int:
		positions := make([]int, len(v))
		for i, idx := range v {
			p, err := wrapIndex(idx, n)
			if err != nil {
				return axisSelection{}, err
			}
			positions[i] = p
		}
		return axisSelection{kind: axisIntArray, positions: positions}, nil

	default:
		return axisSelection{}, fmt.Errorf("%w: unsupported selector type %T", ErrUnsupportedSlicing, raw)
	}
}

// expandEllipsis resolves at most one Ellipsis entry in raw against ndim
// axes, padding with full slices (raw[i] == Slice{}) for axes the caller
// did not mention.
func expandEllipsis(raw []any, ndim int) ([]any, error) {
	ellipsisAt := -1
	for i, r := range raw {
		if _, ok := r.(Ellipsis); ok {
			if ellipsisAt != -1 {
				return nil, fmt.Errorf("%w: at most one Ellipsis is allowed", ErrUnsupportedSlicing)
			}
			ellipsisAt = i
		}
	}

	if ellipsisAt == -1 {
		if len(raw) > ndim {
			return nil, fmt.Errorf("%w: selection has more elements than array dimensions", ErrIndexOutOfBounds)
		}
		out := make([]any, ndim)
		copy(out, raw)
		for i := len(raw); i < ndim; i++ {
			out[i] = Slice{}
		}
		return out, nil
	}

	explicit := len(raw) - 1
	if explicit > ndim {
		return nil, fmt.Errorf("%w: selection has more elements than array dimensions", ErrIndexOutOfBounds)
	}
	fill := ndim - explicit
	out := make([]any, 0, ndim)
	out = append(out, raw[:ellipsisAt]...)
	for i := 0; i < fill; i++ {
		out = append(out, Slice{})
	}
	out = append(out, raw[ellipsisAt+1:]...)
	return out, nil
}

// NormalizeSelection turns a raw, possibly ellipsis-containing per-axis
// selector list into a Selection, validated against shape.
func NormalizeSelection(raw []any, shape []int) (Selection, error) {
	if len(shape) == 0 {
		if len(raw) != 0 {
			return nil, fmt.Errorf("%w: cannot index a 0-dimensional array", ErrIndexOutOfBounds)
		}
		return Selection{}, nil
	}
	expanded, err := expandEllipsis(raw, len(shape))
	if err != nil {
		return nil, err
	}
	sel := make(Selection, len(shape))
	for i, r := range expanded {
		a, err := normalizeAxis(r, shape[i])
		if err != nil {
			return nil, err
		}
		sel[i] = a
	}
	return sel, nil
}

// chunkProjection is one (chunk_index, chunk_sub_selection,
// output_sub_selection) triple: the set of element positions to read
// from/write to within one chunk, and the corresponding positions in the
// caller's output/input buffer.
type chunkProjection struct {
	ChunkIndex ChunkIndex
	// ChunkPositions[i] holds, for every array axis i, the element
	// offsets within the chunk to visit, in output order. For an axis
	// reduced by a scalar Int selector, ChunkPositions[i] has exactly one
	// element and OutputPositions has no entry for that axis, so
	// OutputPositions is indexed by output axis.
	ChunkPositions  [][]int
	OutputPositions [][]int
}

// axisChunkEntry groups one axis selector's resolved positions by which
// chunk along that axis they fall into, preserving output order within
// each chunk.
type axisChunkEntry struct {
	chunkIdx        int
	chunkPositions  []int
	outputPositions []int // nil for axisIndex
}

func splitAxisByChunk(a axisSelection, chunkSize int) []axisChunkEntry {
	if a.kind == axisIndex {
		return []axisChunkEntry{{
			chunkIdx:       a.index / chunkSize,
			chunkPositions: []int{a.index % chunkSize},
		}}
	}

	byChunk := make(map[int]*axisChunkEntry)
	order := make([]int, 0)
	for outPos, p := range a.positions {
		c := p / chunkSize
		entry, ok := byChunk[c]
		if !ok {
			entry = &axisChunkEntry{chunkIdx: c}
			byChunk[c] = entry
			order = append(order, c)
		}
		entry.chunkPositions = append(entry.chunkPositions, p%chunkSize)
		entry.outputPositions = append(entry.outputPositions, outPos)
	}
	out := make([]axisChunkEntry, 0, len(order))
	for _, c := range order {
		out = append(out, *byChunk[c])
	}
	return out
}

// Decompose enumerates every chunk touched by sel against an array
// chunked with the given chunk shape, invoking visit once per chunk. The
// last axis varies fastest; along each axis, chunks come in the order the
// selection first reaches them (ascending for slices and masks, input
// order for integer arrays). This is a Cartesian-product decomposition
// across axes, computed lazily, one combination at a time, rather than
// materializing the full product up front. A selection that is empty
// along any axis touches no chunk.
func Decompose(sel Selection, chunks []int, visit func(chunkProjection) error) error {
	if len(sel) == 0 {
		return visit(chunkProjection{ChunkIndex: ChunkIndex{}})
	}

	perAxis := make([][]axisChunkEntry, len(sel))
	for i, a := range sel {
		perAxis[i] = splitAxisByChunk(a, chunks[i])
		if len(perAxis[i]) == 0 {
			return nil
		}
	}

	idx := make([]int, len(sel))
	for {
		chunkIdx := make(ChunkIndex, len(sel))
		chunkPos := make([][]int, 0, len(sel))
		outPos := make([][]int, 0, len(sel))
		for axis, entries := range perAxis {
			e := entries[idx[axis]]
			chunkIdx[axis] = e.chunkIdx
			chunkPos = append(chunkPos, e.chunkPositions)
			if sel[axis].kind != axisIndex {
				outPos = append(outPos, e.outputPositions)
			}
		}
		if err := visit(chunkProjection{ChunkIndex: chunkIdx, ChunkPositions: chunkPos, OutputPositions: outPos}); err != nil {
			return err
		}

		axis := len(sel) - 1
		for axis >= 0 {
			idx[axis]++
			if idx[axis] < len(perAxis[axis]) {
				break
			}
			idx[axis] = 0
			axis--
		}
		if axis < 0 {
			return nil
		}
	}
}
