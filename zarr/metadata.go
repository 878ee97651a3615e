package zarr

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ZarrFormat is the only metadata schema version this package understands.
const ZarrFormat = 2

// Order is the in-memory/on-disk element layout of a chunk: row-major (C)
// or column-major (F).
type Order byte

const (
	OrderC Order = 'C'
	OrderF Order = 'F'
)

// ArrayMetadata is the decoded form of a ".zarray" descriptor.
type ArrayMetadata struct {
	ZarrFormat int            `json:"zarr_format"`
	Shape      []int          `json:"shape"`
	Chunks     []int          `json:"chunks"`
	DType      DType          `json:"dtype"`
	Compressor map[string]any `json:"compressor"`
	FillValue  any            `json:"fill_value"`
	Order      Order          `json:"order"`
	Filters    []map[string]any `json:"filters"`
	// DimensionSeparator is "." (default) or "/", selecting how chunk
	// coordinates are joined into a store key segment.
	DimensionSeparator string `json:"dimension_separator,omitempty"`
}

// GroupMetadata is the decoded form of a ".zgroup" descriptor.
type GroupMetadata struct {
	ZarrFormat int `json:"zarr_format"`
}

// arrayMetadataWire mirrors ArrayMetadata field-for-field but types Order
// and DType for their custom JSON forms, and lets fill_value and
// compressor/filters pass through as raw any/ map.
type arrayMetadataWire struct {
	ZarrFormat         int              `json:"zarr_format"`
	Shape              []int            `json:"shape"`
	Chunks             []int            `json:"chunks"`
	DType              DType            `json:"dtype"`
	Compressor         map[string]any   `json:"compressor"`
	FillValue          any              `json:"fill_value"`
	Order              string           `json:"order"`
	Filters            []map[string]any `json:"filters"`
	DimensionSeparator string           `json:"dimension_separator,omitempty"`
}

// EncodeArrayMetadata renders m as the canonical ".zarray" JSON document:
// keys sorted, 4-space indented, matching Zarr's
// json.dumps(..., indent=4, sort_keys=True) convention.
func EncodeArrayMetadata(m ArrayMetadata) ([]byte, error) {
	wire := arrayMetadataWire{
		ZarrFormat:         m.ZarrFormat,
		Shape:              m.Shape,
		Chunks:             m.Chunks,
		DType:              m.DType,
		Compressor:         m.Compressor,
		FillValue:          m.FillValue,
		Order:              string(m.Order),
		Filters:            m.Filters,
		DimensionSeparator: m.DimensionSeparator,
	}
	return marshalSortedIndent(wire)
}

// DecodeArrayMetadata parses a ".zarray" document.
func DecodeArrayMetadata(data []byte) (ArrayMetadata, error) {
	var wire arrayMetadataWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return ArrayMetadata{}, fmt.Errorf("%w: malformed array metadata: %v", ErrMetadata, err)
	}
	if wire.ZarrFormat != ZarrFormat {
		return ArrayMetadata{}, fmt.Errorf("%w: unsupported zarr_format %d", ErrMetadata, wire.ZarrFormat)
	}
	if len(wire.Shape) != len(wire.Chunks) {
		return ArrayMetadata{}, fmt.Errorf("%w: shape and chunks have different rank", ErrMetadata)
	}
	order := Order(OrderC)
	switch wire.Order {
	case "", "C":
		order = OrderC
	case "F":
		order = OrderF
	default:
		return ArrayMetadata{}, fmt.Errorf("%w: invalid order %q", ErrMetadata, wire.Order)
	}
	sep := wire.DimensionSeparator
	if sep == "" {
		sep = "."
	}
	if sep != "." && sep != "/" {
		return ArrayMetadata{}, fmt.Errorf("%w: invalid dimension_separator %q", ErrMetadata, sep)
	}
	return ArrayMetadata{
		ZarrFormat:         wire.ZarrFormat,
		Shape:              wire.Shape,
		Chunks:             wire.Chunks,
		DType:              wire.DType,
		Compressor:         wire.Compressor,
		FillValue:          wire.FillValue,
		Order:              order,
		Filters:            wire.Filters,
		DimensionSeparator: sep,
	}, nil
}

// EncodeGroupMetadata renders the canonical ".zgroup" document.
func EncodeGroupMetadata(m GroupMetadata) ([]byte, error) {
	return marshalSortedIndent(m)
}

// DecodeGroupMetadata parses a ".zgroup" document.
func DecodeGroupMetadata(data []byte) (GroupMetadata, error) {
	var m GroupMetadata
	if err := json.Unmarshal(data, &m); err != nil {
		return GroupMetadata{}, fmt.Errorf("%w: malformed group metadata: %v", ErrMetadata, err)
	}
	if m.ZarrFormat != ZarrFormat {
		return GroupMetadata{}, fmt.Errorf("%w: unsupported zarr_format %d", ErrMetadata, m.ZarrFormat)
	}
	return m, nil
}

// marshalSortedIndent produces deterministic, human-diffable descriptor
// bytes. Struct fields marshal in declaration order, so the document is
// decoded into a generic value (numbers kept as json.Number) and marshaled
// again, which sorts every object's keys, before indentation is added.
func marshalSortedIndent(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}
	sorted, err := json.Marshal(generic)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, sorted, "", "    "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
