package codec

import "errors"

// ErrCodec is the sentinel wrapped by every codec-reported encode/decode
// failure.
var ErrCodec = errors.New("codec: operation failed")
