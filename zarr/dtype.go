package zarr

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// DType describes an array element type. It has two forms: a *simple*
// form (a primitive numeric/string kind with byte order and item size,
// e.g. little-endian 8-byte float) or a *structured* form (an ordered
// sequence of named fields, each itself a DType, possibly nested).
// Structured dtypes round-trip through JSON as a list of [name, subdtype]
// pairs, recursively, matching Zarr v2's dtype encoding.
type DType struct {
	// Kind is one of "b" (bool), "i" (signed int), "u" (unsigned int),
	// "f" (float), "c" (complex), "S" (fixed-width byte string). Empty
	// for a structured dtype.
	Kind byte
	// Endian is '<' (little), '>' (big), or '|' (not applicable, e.g.
	// single-byte kinds).
	Endian byte
	// Size is the item size in bytes of this (sub)dtype when Kind != 0.
	Size int
	// Fields holds the structured form; non-nil iff Kind == 0.
	Fields []Field
}

// Field is one named member of a structured DType.
type Field struct {
	Name string
	Type DType
}

// Structured reports whether d is a structured (record) dtype.
func (d DType) Structured() bool { return d.Fields != nil }

// ItemSize returns the total encoded size in bytes of one element.
func (d DType) ItemSize() int {
	if !d.Structured() {
		return d.Size
	}
	total := 0
	for _, f := range d.Fields {
		total += f.Type.ItemSize()
	}
	return total
}

// String renders the simple form's numpy-style code, e.g. "<f4", "|b1",
// "|S10". It panics if d is structured; use MarshalJSON for that case.
func (d DType) String() string {
	if d.Structured() {
		panic("zarr: String() called on a structured DType")
	}
	return fmt.Sprintf("%c%c%d", d.Endian, d.Kind, d.Size)
}

// ParseDType parses a numpy-style simple dtype string such as "<f4",
// ">i8", "|b1", or "|S10" into a DType. It accepts '<', '>', and '|'
// byte-order markers without restricting endianness.
func ParseDType(s string) (DType, error) {
	if len(s) < 3 {
		return DType{}, fmt.Errorf("%w: invalid dtype %q", ErrMetadata, s)
	}
	endian := s[0]
	if endian != '<' && endian != '>' && endian != '|' {
		return DType{}, fmt.Errorf("%w: unsupported byte order %q in dtype %q", ErrMetadata, string(endian), s)
	}
	kind := s[1]
	sizeStr := s[2:]
	size, err := strconv.Atoi(sizeStr)
	if err != nil || size <= 0 {
		return DType{}, fmt.Errorf("%w: invalid size in dtype %q", ErrMetadata, s)
	}
	switch kind {
	case 'b', 'i', 'u', 'f', 'c', 'S':
		return DType{Kind: kind, Endian: endian, Size: size}, nil
	default:
		return DType{}, fmt.Errorf("%w: unsupported dtype kind %q in %q", ErrMetadata, string(kind), s)
	}
}

// GoName returns a human-readable type name for a simple DType, e.g.
// "float32", "uint8", "bool", "bytes10".
func (d DType) GoName() string {
	switch d.Kind {
	case 'b':
		return "bool"
	case 'i':
		return fmt.Sprintf("int%d", d.Size*8)
	case 'u':
		return fmt.Sprintf("uint%d", d.Size*8)
	case 'f':
		return fmt.Sprintf("float%d", d.Size*8)
	case 'c':
		return fmt.Sprintf("complex%d", d.Size*8)
	case 'S':
		return fmt.Sprintf("bytes%d", d.Size)
	default:
		return "struct"
	}
}

// MarshalJSON implements the Zarr v2 dtype encoding: a compact string for
// simple dtypes, a list of [name, subdtype] pairs for structured dtypes,
// recursively.
func (d DType) MarshalJSON() ([]byte, error) {
	if !d.Structured() {
		return json.Marshal(d.String())
	}
	pairs := make([][2]any, len(d.Fields))
	for i, f := range d.Fields {
		var sub any
		if f.Type.Structured() {
			nested, err := f.Type.MarshalJSON()
			if err != nil {
				return nil, err
			}
			var v any
			if err := json.Unmarshal(nested, &v); err != nil {
				return nil, err
			}
			sub = v
		} else {
			sub = f.Type.String()
		}
		pairs[i] = [2]any{f.Name, sub}
	}
	return json.Marshal(pairs)
}

// UnmarshalJSON implements the inverse of MarshalJSON.
func (d *DType) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%w: %v", ErrMetadata, err)
		}
		parsed, err := ParseDType(s)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: invalid dtype encoding: %v", ErrMetadata, err)
	}
	fields := make([]Field, len(raw))
	for i, item := range raw {
		var pair []json.RawMessage
		if err := json.Unmarshal(item, &pair); err != nil || len(pair) != 2 {
			return fmt.Errorf("%w: invalid structured dtype field %d", ErrMetadata, i)
		}
		var name string
		if err := json.Unmarshal(pair[0], &name); err != nil {
			return fmt.Errorf("%w: invalid structured dtype field name: %v", ErrMetadata, err)
		}
		var sub DType
		if err := sub.UnmarshalJSON(pair[1]); err != nil {
			return err
		}
		fields[i] = Field{Name: name, Type: sub}
	}
	*d = DType{Fields: fields}
	return nil
}
