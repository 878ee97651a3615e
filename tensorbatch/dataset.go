// Package tensorbatch streams an array's leading axis as a sequence of
// gomlx tensors, for callers that want to feed a Zarr array directly into
// a training loop rather than pulling raw bytes. Batch slicing is
// expressed as a single selection against the shared array engine.
// NextBatch converts bool, int8/32/64, uint8/32/64, and float32/64
// arrays; any other dtype (including structured, complex, byte-string,
// and 2-byte numeric dtypes) is rejected with an error.
package tensorbatch

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/gomlx/gomlx/pkg/core/tensors"

	"github.com/gozarr/gozarr/zarr"
)

// Dataset reads an array's axis-0 batches in order, holding a cursor into
// that axis.
type Dataset struct {
	array  *zarr.Array
	cursor int
}

// NewDataset wraps array for batched reading. array must have at least
// one dimension; batches are drawn along axis 0.
func NewDataset(array *zarr.Array) (*Dataset, error) {
	if len(array.Shape()) == 0 {
		return nil, fmt.Errorf("tensorbatch: array must have at least one dimension")
	}
	return &Dataset{array: array}, nil
}

// Reset rewinds the cursor to the start of the axis.
func (d *Dataset) Reset() { d.cursor = 0 }

// NextBatch reads up to batchSize elements along axis 0, returning them
// as a gomlx tensor shaped [n, shape[1], shape[2], ...] where n <=
// batchSize (n is smaller only for the final, partial batch). It returns
// io.EOF once the axis is exhausted.
func (d *Dataset) NextBatch(ctx context.Context, batchSize int) (*tensors.Tensor, error) {
	shape := d.array.Shape()
	if d.cursor >= shape[0] {
		return nil, io.EOF
	}

	start := d.cursor
	end := start + batchSize
	if end > shape[0] {
		end = shape[0]
	}

	selectors := make([]any, len(shape))
	s, e := start, end
	selectors[0] = zarr.Slice{Start: &s, Stop: &e}
	for i := 1; i < len(shape); i++ {
		selectors[i] = zarr.Slice{}
	}

	buf, outShape, err := d.array.Get(ctx, selectors)
	if err != nil {
		return nil, err
	}
	d.cursor = end

	tensor, err := bytesToTensor(buf, outShape, d.array.DType())
	if err != nil {
		return nil, err
	}
	return tensor, nil
}

// bytesToTensor decodes a little/big-endian flat byte buffer into the
// gomlx dtype closest to dt and wraps it in a Tensor at the given shape.
func bytesToTensor(buf []byte, shape []int, dt zarr.DType) (*tensors.Tensor, error) {
	if dt.Structured() {
		return nil, fmt.Errorf("tensorbatch: structured dtypes are not supported")
	}
	order := binary.ByteOrder(binary.LittleEndian)
	if dt.Endian == '>' {
		order = binary.BigEndian
	}
	n := product(shape)

	switch {
	case dt.Kind == 'f' && dt.Size == 4:
		out := make([]float32, n)
		for i := range out {
			out[i] = math.Float32frombits(order.Uint32(buf[i*4:]))
		}
		return tensors.FromFlatDataAndDimensions(out, shape...), nil

	case dt.Kind == 'f' && dt.Size == 8:
		out := make([]float64, n)
		for i := range out {
			out[i] = math.Float64frombits(order.Uint64(buf[i*8:]))
		}
		return tensors.FromFlatDataAndDimensions(out, shape...), nil

	case dt.Kind == 'i' && dt.Size == 4:
		out := make([]int32, n)
		for i := range out {
			out[i] = int32(order.Uint32(buf[i*4:]))
		}
		return tensors.FromFlatDataAndDimensions(out, shape...), nil

	case dt.Kind == 'i' && dt.Size == 8:
		out := make([]int64, n)
		for i := range out {
			out[i] = int64(order.Uint64(buf[i*8:]))
		}
		return tensors.FromFlatDataAndDimensions(out, shape...), nil

	case dt.Kind == 'i' && dt.Size == 1:
		out := make([]int8, n)
		for i := range out {
			out[i] = int8(buf[i])
		}
		return tensors.FromFlatDataAndDimensions(out, shape...), nil

	case dt.Kind == 'u' && dt.Size == 1:
		out := append([]uint8(nil), buf[:n]...)
		return tensors.FromFlatDataAndDimensions(out, shape...), nil

	case dt.Kind == 'u' && dt.Size == 4:
		out := make([]uint32, n)
		for i := range out {
			out[i] = order.Uint32(buf[i*4:])
		}
		return tensors.FromFlatDataAndDimensions(out, shape...), nil

	case dt.Kind == 'u' && dt.Size == 8:
		out := make([]uint64, n)
		for i := range out {
			out[i] = order.Uint64(buf[i*8:])
		}
		return tensors.FromFlatDataAndDimensions(out, shape...), nil

	case dt.Kind == 'b':
		out := make([]bool, n)
		for i := range out {
			out[i] = buf[i] != 0
		}
		return tensors.FromFlatDataAndDimensions(out, shape...), nil

	default:
		return nil, fmt.Errorf("tensorbatch: unsupported dtype %s for tensor conversion", dt.GoName())
	}
}

func product(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}
