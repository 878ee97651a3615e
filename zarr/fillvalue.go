package zarr

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"math"
)

// FillValue is the opaque byte-pattern representation of an array's
// fill_value, materialised from JSON at descriptor load time: fill-value
// polymorphism over dtype is handled by storing the fill value as an
// opaque byte pattern of itemsize length rather than a typed Go value.
// Present is false when fill_value was JSON null, meaning "no fill
// value" — reads of uninitialised regions return the buffer's zero
// bytes.
type FillValue struct {
	Present bool
	Pattern []byte // len == dtype.ItemSize() when Present
}

func endianOrder(e byte) binary.ByteOrder {
	if e == '>' {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// DecodeFillValue converts a decoded JSON value (as produced by
// json.Unmarshal into interface{}: nil, float64, bool, or string) into a
// FillValue for dtype, applying the special encodings: "NaN"/"Infinity"/
// "-Infinity" for non-finite floats, a base64 string for byte/structured
// types, null for "no fill value".
func DecodeFillValue(raw any, dtype DType) (FillValue, error) {
	if raw == nil {
		return FillValue{Present: false}, nil
	}

	if dtype.Structured() || dtype.Kind == 'S' {
		s, ok := raw.(string)
		if !ok {
			return FillValue{}, fmt.Errorf("%w: fill_value for %s dtype must be a base64 string", ErrMetadata, dtype.GoName())
		}
		pattern, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return FillValue{}, fmt.Errorf("%w: invalid base64 fill_value: %v", ErrMetadata, err)
		}
		if want := dtype.ItemSize(); len(pattern) != want {
			return FillValue{}, fmt.Errorf("%w: fill_value has %d bytes, want %d", ErrMetadata, len(pattern), want)
		}
		return FillValue{Present: true, Pattern: pattern}, nil
	}

	order := endianOrder(dtype.Endian)
	pattern := make([]byte, dtype.Size)

	switch dtype.Kind {
	case 'b':
		switch v := raw.(type) {
		case bool:
			if v {
				pattern[0] = 1
			}
		case float64:
			if v != 0 {
				pattern[0] = 1
			}
		default:
			return FillValue{}, fmt.Errorf("%w: fill_value for bool dtype must be boolean or numeric", ErrMetadata)
		}

	case 'i':
		n, err := fillValueInt(raw)
		if err != nil {
			return FillValue{}, err
		}
		putIntLE(pattern, order, uint64(n))

	case 'u':
		n, err := fillValueInt(raw)
		if err != nil {
			return FillValue{}, err
		}
		putIntLE(pattern, order, uint64(n))

	case 'f':
		f, err := fillValueFloat(raw)
		if err != nil {
			return FillValue{}, err
		}
		putFloat(pattern, order, f)

	case 'c':
		// a JSON [re, im] pair or a bare real scalar with zero imaginary part.
		half := dtype.Size / 2
		switch v := raw.(type) {
		case []any:
			if len(v) != 2 {
				return FillValue{}, fmt.Errorf("%w: complex fill_value must be [re, im]", ErrMetadata)
			}
			re, err := fillValueFloat(v[0])
			if err != nil {
				return FillValue{}, err
			}
			im, err := fillValueFloat(v[1])
			if err != nil {
				return FillValue{}, err
			}
			putFloat(pattern[:half], order, re)
			putFloat(pattern[half:], order, im)
		default:
			re, err := fillValueFloat(raw)
			if err != nil {
				return FillValue{}, err
			}
			putFloat(pattern[:half], order, re)
		}

	default:
		return FillValue{}, fmt.Errorf("%w: unsupported dtype kind %q", ErrMetadata, string(dtype.Kind))
	}

	return FillValue{Present: true, Pattern: pattern}, nil
}

// EncodeFillValue is the inverse of DecodeFillValue: it produces the
// value to embed in the descriptor's JSON (nil, a number, a special
// non-finite string, or a base64 string).
func EncodeFillValue(fv FillValue, dtype DType) (any, error) {
	if !fv.Present {
		return nil, nil
	}

	if dtype.Structured() || dtype.Kind == 'S' {
		return base64.StdEncoding.EncodeToString(fv.Pattern), nil
	}

	order := endianOrder(dtype.Endian)

	switch dtype.Kind {
	case 'b':
		return fv.Pattern[0] != 0, nil
	case 'i':
		return int64FromPattern(fv.Pattern, order, true), nil
	case 'u':
		return int64FromPattern(fv.Pattern, order, false), nil
	case 'f':
		f := floatFromPattern(fv.Pattern, order)
		return encodeFloat(f), nil
	case 'c':
		half := len(fv.Pattern) / 2
		re := floatFromPattern(fv.Pattern[:half], order)
		im := floatFromPattern(fv.Pattern[half:], order)
		return []any{encodeFloat(re), encodeFloat(im)}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported dtype kind %q", ErrMetadata, string(dtype.Kind))
	}
}

func encodeFloat(f float64) any {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	default:
		return f
	}
}

func fillValueFloat(raw any) (float64, error) {
	switch v := raw.(type) {
	case string:
		switch v {
		case "NaN":
			return math.NaN(), nil
		case "Infinity":
			return math.Inf(1), nil
		case "-Infinity":
			return math.Inf(-1), nil
		default:
			return 0, fmt.Errorf("%w: unrecognised float fill_value string %q", ErrMetadata, v)
		}
	case float64:
		return v, nil
	default:
		return 0, fmt.Errorf("%w: fill_value for float dtype must be numeric or a special string", ErrMetadata)
	}
}

func fillValueInt(raw any) (int64, error) {
	f, ok := raw.(float64)
	if !ok {
		return 0, fmt.Errorf("%w: fill_value for integer dtype must be numeric", ErrMetadata)
	}
	return int64(f), nil
}

func putIntLE(pattern []byte, order binary.ByteOrder, v uint64) {
	var buf [8]byte
	order.PutUint64(buf[:], v)
	if order == binary.BigEndian {
		copy(pattern, buf[8-len(pattern):])
	} else {
		copy(pattern, buf[:len(pattern)])
	}
}

func int64FromPattern(pattern []byte, order binary.ByteOrder, signed bool) int64 {
	var buf [8]byte
	if order == binary.BigEndian {
		copy(buf[8-len(pattern):], pattern)
	} else {
		copy(buf[:len(pattern)], pattern)
	}
	u := order.Uint64(buf[:])
	if !signed || len(pattern) == 8 {
		return int64(u)
	}
	// sign-extend from len(pattern) bytes.
	shift := uint(64 - 8*len(pattern))
	return int64(u<<shift) >> shift
}

func putFloat(pattern []byte, order binary.ByteOrder, f float64) {
	switch len(pattern) {
	case 4:
		order.PutUint32(pattern, math.Float32bits(float32(f)))
	case 8:
		order.PutUint64(pattern, math.Float64bits(f))
	default:
		// unusual float width: best-effort store as float64 truncated to
		// the available bytes, least-significant first.
		var buf [8]byte
		order.PutUint64(buf[:], math.Float64bits(f))
		copy(pattern, buf[:])
	}
}

func floatFromPattern(pattern []byte, order binary.ByteOrder) float64 {
	switch len(pattern) {
	case 4:
		return float64(math.Float32frombits(order.Uint32(pattern)))
	case 8:
		return math.Float64frombits(order.Uint64(pattern))
	default:
		var buf [8]byte
		copy(buf[:], pattern)
		return math.Float64frombits(order.Uint64(buf[:]))
	}
}
