package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// zlibCodec wraps github.com/klauspost/compress/zlib, the ecosystem
// drop-in for the standard library's compress/zlib. This module already
// pulls in klauspost/compress for zstd, so the zlib variant from the same
// module handles the "zlib" compressor id rather than adding a second
// dependency.
type zlibCodec struct {
	level int
}

func newZlib(config map[string]any) (Codec, error) {
	level := intOpt(config, "level", zlib.DefaultCompression)
	return &zlibCodec{level: level}, nil
}

func (c *zlibCodec) Encode(input []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, c.level)
	if err != nil {
		return nil, fmt.Errorf("%w: zlib encoder: %v", ErrCodec, err)
	}
	if _, err := w.Write(input); err != nil {
		w.Close()
		return nil, fmt.Errorf("%w: zlib write: %v", ErrCodec, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%w: zlib close: %v", ErrCodec, err)
	}
	return buf.Bytes(), nil
}

func (c *zlibCodec) Decode(input []byte, dst []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(input))
	if err != nil {
		return nil, fmt.Errorf("%w: zlib reader: %v", ErrCodec, err)
	}
	defer r.Close()

	buf := bytes.NewBuffer(dst[:0])
	if _, err := io.Copy(buf, r); err != nil {
		return nil, fmt.Errorf("%w: zlib decompress: %v", ErrCodec, err)
	}
	return buf.Bytes(), nil
}

func (c *zlibCodec) Config() map[string]any {
	return map[string]any{"id": "zlib", "level": c.level}
}
