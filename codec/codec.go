// Package codec defines the reversible byte-to-byte transform contract
// that the chunked-array engine applies to every chunk on its way to and
// from the store: compressors and filters alike. The engine only ever
// consumes this interface — the bit-exact behaviour of any particular
// codec is an external concern, supplied by the adapters in this package
// or by user-registered constructors.
package codec

import (
	"fmt"
	"sync"
)

// Codec is a pure, thread-safe, reversible byte-to-byte transform. Decode
// accepts an optional pre-allocated destination buffer so callers can
// decode directly into a chunk buffer without an intermediate allocation.
// The array engine itself always passes nil and decodes every chunk into
// a fresh buffer before copying out of it. When dst is nil, or too small,
// Decode allocates its own buffer and returns it.
type Codec interface {
	Encode(input []byte) ([]byte, error)
	Decode(input []byte, dst []byte) ([]byte, error)
	// Config returns a JSON-serialisable description of the codec's
	// identity and parameters. It always contains an "id" key.
	Config() map[string]any
}

// Constructor builds a Codec from a decoded configuration object (as
// produced by json.Unmarshal of a compressor/filter entry in an array
// descriptor).
type Constructor func(config map[string]any) (Codec, error)

// Registry maps codec "id" strings to constructors. The zero value is
// ready to use.
type Registry struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
}

// NewRegistry returns a Registry pre-populated with the codecs shipped by
// this package (zstd, zlib, delta, noop) plus a blosc placeholder that
// always reports CodecError — see DESIGN.md for why blosc has no working
// implementation here.
func NewRegistry() *Registry {
	r := &Registry{ctors: make(map[string]Constructor)}
	r.Register("zstd", newZstd)
	r.Register("zlib", newZlib)
	r.Register("delta", newDelta)
	r.Register("noop", newNoop)
	r.Register("blosc", newBlosc)
	return r
}

// Register adds or replaces the constructor for id.
func (r *Registry) Register(id string, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ctors == nil {
		r.ctors = make(map[string]Constructor)
	}
	r.ctors[id] = ctor
}

// Build constructs the codec named by config["id"].
func (r *Registry) Build(config map[string]any) (Codec, error) {
	id, _ := config["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("%w: config missing \"id\"", ErrCodec)
	}
	r.mu.RLock()
	ctor, ok := r.ctors[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: unregistered codec id %q", ErrCodec, id)
	}
	return ctor(config)
}

func intOpt(config map[string]any, key string, def int) int {
	v, ok := config[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	default:
		return def
	}
}

func stringOpt(config map[string]any, key, def string) string {
	v, ok := config[key]
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		return def
	}
	return s
}
