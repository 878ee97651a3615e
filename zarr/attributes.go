package zarr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gozarr/gozarr/store"
)

// Attributes is a mutable-mapping view over one container's ".zattrs"
// document. Every method round-trips through the
// store; there is no implicit caching, so concurrent readers always see
// the latest committed value (subject to the synchronizer's attributes
// lock serializing writers).
type Attributes struct {
	s        store.Store
	path     string
	sync     Synchronizer
	readOnly bool
	tel      telemetry
}

func newAttributes(s store.Store, path string, sync Synchronizer, readOnly bool, tel telemetry) *Attributes {
	return &Attributes{s: s, path: path, sync: sync, readOnly: readOnly, tel: tel}
}

func (a *Attributes) key() string { return joinKey(a.path, ".zattrs") }

// Get loads the full attributes document as a map. A container with no
// ".zattrs" key yet has an empty, non-nil map.
func (a *Attributes) Get(ctx context.Context) (map[string]any, error) {
	raw, err := a.s.Get(ctx, a.key())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("%w: reading attributes: %w", ErrStore, err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("%w: malformed attributes: %v", ErrMetadata, err)
	}
	return m, nil
}

// GetKey loads a single attribute by name; ok is false if it is absent.
func (a *Attributes) GetKey(ctx context.Context, name string) (any, bool, error) {
	m, err := a.Get(ctx)
	if err != nil {
		return nil, false, err
	}
	v, ok := m[name]
	return v, ok, nil
}

// Set replaces the entire attributes document.
func (a *Attributes) Set(ctx context.Context, attrs map[string]any) error {
	if a.readOnly {
		return ErrReadOnly
	}
	lock := a.sync.AttributesLock(a.path)
	lock.Lock()
	defer lock.Unlock()

	raw, err := json.MarshalIndent(attrs, "", "    ")
	if err != nil {
		return fmt.Errorf("%w: encoding attributes: %v", ErrMetadata, err)
	}
	if err := a.s.Set(ctx, a.key(), raw); err != nil {
		return fmt.Errorf("%w: writing attributes: %w", ErrStore, err)
	}
	return nil
}

// SetKey sets a single attribute, read-modify-writing the document under
// the attributes lock so concurrent SetKey calls on different keys don't
// clobber each other.
func (a *Attributes) SetKey(ctx context.Context, name string, value any) error {
	if a.readOnly {
		return ErrReadOnly
	}
	lock := a.sync.AttributesLock(a.path)
	lock.Lock()
	defer lock.Unlock()

	m, err := a.getLocked(ctx)
	if err != nil {
		return err
	}
	m[name] = value
	return a.setLocked(ctx, m)
}

// DeleteKey removes a single attribute, failing with ErrKeyNotFound if
// it is absent.
func (a *Attributes) DeleteKey(ctx context.Context, name string) error {
	if a.readOnly {
		return ErrReadOnly
	}
	lock := a.sync.AttributesLock(a.path)
	lock.Lock()
	defer lock.Unlock()

	m, err := a.getLocked(ctx)
	if err != nil {
		return err
	}
	if _, ok := m[name]; !ok {
		return ErrKeyNotFound
	}
	delete(m, name)
	return a.setLocked(ctx, m)
}

func (a *Attributes) getLocked(ctx context.Context) (map[string]any, error) {
	raw, err := a.s.Get(ctx, a.key())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return map[string]any{}, nil
		}
		return nil, fmt.Errorf("%w: reading attributes: %w", ErrStore, err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("%w: malformed attributes: %v", ErrMetadata, err)
	}
	return m, nil
}

func (a *Attributes) setLocked(ctx context.Context, m map[string]any) error {
	raw, err := json.MarshalIndent(m, "", "    ")
	if err != nil {
		return fmt.Errorf("%w: encoding attributes: %v", ErrMetadata, err)
	}
	if err := a.s.Set(ctx, a.key(), raw); err != nil {
		return fmt.Errorf("%w: writing attributes: %w", ErrStore, err)
	}
	return nil
}
