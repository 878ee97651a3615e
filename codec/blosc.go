package codec

import "fmt"

// blosc is recognized as a compressor id for metadata round-tripping (an
// array descriptor naming "blosc" must still decode/re-encode byte for
// byte), but has no working implementation in this build. Any attempt to
// actually encode/decode through it reports ErrCodec instead. See
// DESIGN.md.
type bloscCodec struct {
	cfg map[string]any
}

func newBlosc(config map[string]any) (Codec, error) {
	return &bloscCodec{cfg: config}, nil
}

func (c *bloscCodec) Encode([]byte) ([]byte, error) {
	return nil, fmt.Errorf("%w: blosc codec has no implementation in this build", ErrCodec)
}

func (c *bloscCodec) Decode([]byte, []byte) ([]byte, error) {
	return nil, fmt.Errorf("%w: blosc codec has no implementation in this build", ErrCodec)
}

func (c *bloscCodec) Config() map[string]any {
	out := map[string]any{"id": "blosc"}
	for k, v := range c.cfg {
		if k != "id" {
			out[k] = v
		}
	}
	return out
}
