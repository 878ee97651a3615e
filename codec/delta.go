package codec

import (
	"encoding/binary"
	"fmt"
)

// deltaCodec is a filter (applied before compression on encode, after
// decompression on decode) that stores successive differences of
// fixed-width elements instead of their raw values. It operates on the
// itemsize-byte little-endian integer view of a chunk, which is
// reversible by construction (modular subtraction/addition) regardless of
// whether the underlying dtype is integer or floating point — unlike a
// general-purpose compression algorithm, this is a few lines of
// arithmetic over a typed byte buffer, so it is implemented directly
// rather than sourced from a library; see DESIGN.md.
type deltaCodec struct {
	itemsize int
}

func newDelta(config map[string]any) (Codec, error) {
	itemsize := intOpt(config, "itemsize", 8)
	if itemsize <= 0 || itemsize > 8 {
		return nil, fmt.Errorf("%w: delta itemsize must be in 1..8, got %d", ErrCodec, itemsize)
	}
	return &deltaCodec{itemsize: itemsize}, nil
}

func (c *deltaCodec) Encode(input []byte) ([]byte, error) {
	if len(input)%c.itemsize != 0 {
		return nil, fmt.Errorf("%w: delta input length %d not a multiple of itemsize %d", ErrCodec, len(input), c.itemsize)
	}
	out := make([]byte, len(input))
	var prev uint64
	for off := 0; off < len(input); off += c.itemsize {
		v := readLE(input[off : off+c.itemsize])
		writeLE(out[off:off+c.itemsize], v-prev)
		prev = v
	}
	return out, nil
}

func (c *deltaCodec) Decode(input []byte, dst []byte) ([]byte, error) {
	if len(input)%c.itemsize != 0 {
		return nil, fmt.Errorf("%w: delta input length %d not a multiple of itemsize %d", ErrCodec, len(input), c.itemsize)
	}
	out := dst
	if cap(out) < len(input) {
		out = make([]byte, len(input))
	} else {
		out = out[:len(input)]
	}
	var prev uint64
	for off := 0; off < len(input); off += c.itemsize {
		d := readLE(input[off : off+c.itemsize])
		v := prev + d
		writeLE(out[off:off+c.itemsize], v)
		prev = v
	}
	return out, nil
}

func (c *deltaCodec) Config() map[string]any {
	return map[string]any{"id": "delta", "itemsize": c.itemsize}
}

func readLE(b []byte) uint64 {
	var buf [8]byte
	copy(buf[:], b)
	return binary.LittleEndian.Uint64(buf[:])
}

func writeLE(dst []byte, v uint64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	copy(dst, buf[:len(dst)])
}
