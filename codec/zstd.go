package codec

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// zstdCodec wraps github.com/klauspost/compress/zstd, grounded on
// zarr/dataset.go's use of zstd.NewReader/DecodeAll to decompress Zarr
// chunks compressed with the "zstd" compressor id.
type zstdCodec struct {
	level zstd.EncoderLevel
}

func newZstd(config map[string]any) (Codec, error) {
	level := zstd.SpeedDefault
	if l := intOpt(config, "level", -1); l >= 1 {
		level = zstd.EncoderLevel(l)
	}
	return &zstdCodec{level: level}, nil
}

func (c *zstdCodec) Encode(input []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(c.level))
	if err != nil {
		return nil, fmt.Errorf("%w: zstd encoder: %v", ErrCodec, err)
	}
	defer enc.Close()
	return enc.EncodeAll(input, make([]byte, 0, len(input))), nil
}

func (c *zstdCodec) Decode(input []byte, dst []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("%w: zstd decoder: %v", ErrCodec, err)
	}
	defer dec.Close()
	out, err := dec.DecodeAll(input, dst[:0])
	if err != nil {
		return nil, fmt.Errorf("%w: zstd decode: %v", ErrCodec, err)
	}
	return out, nil
}

func (c *zstdCodec) Config() map[string]any {
	return map[string]any{"id": "zstd", "level": int(c.level)}
}
