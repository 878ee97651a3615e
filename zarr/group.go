package zarr

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/gozarr/gozarr/store"
)

// normalizePath validates and cleans a slash-delimited container path,
// rejecting "." and ".." segments.
func normalizePath(path string) (string, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return "", nil
	}
	segments := strings.Split(path, "/")
	for _, seg := range segments {
		if seg == "" {
			return "", fmt.Errorf("%w: %q has an empty path segment", ErrInvalidPath, path)
		}
		if seg == "." || seg == ".." {
			return "", fmt.Errorf("%w: %q contains a %q segment", ErrInvalidPath, path, seg)
		}
	}
	return strings.Join(segments, "/"), nil
}

// Group is a handle on one node of the slash-delimited container
// hierarchy: a flat store address space where ".zgroup"/".zarray" keys
// under a path prefix mark that prefix as a group or array respectively.
type Group struct {
	s        store.Store
	path     string
	sync     Synchronizer
	readOnly bool
	tel      telemetry
}

func (g *Group) groupMetaKey() string { return joinKey(g.path, ".zgroup") }

// Path returns the group's location within its store ("" for the root).
func (g *Group) Path() string { return g.path }

// CreateGroupRoot initializes the root group of a new hierarchy in s,
// failing with ErrContainerExists if the root already holds a group or
// array descriptor.
func CreateGroupRoot(ctx context.Context, s store.Store, sync Synchronizer, log *zap.Logger) (*Group, error) {
	return createGroupAt(ctx, s, "", sync, log)
}

// OpenGroupRoot opens an existing root group.
func OpenGroupRoot(ctx context.Context, s store.Store, mode OpenMode, sync Synchronizer, log *zap.Logger) (*Group, error) {
	return openGroupAt(ctx, s, "", mode, sync, log)
}

func createGroupAt(ctx context.Context, s store.Store, path string, sync Synchronizer, log *zap.Logger) (*Group, error) {
	exists, err := containerExists(ctx, s, path)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %q", ErrContainerExists, path)
	}
	encoded, err := EncodeGroupMetadata(GroupMetadata{ZarrFormat: ZarrFormat})
	if err != nil {
		return nil, err
	}
	if sync == nil {
		sync = NewThreadSynchronizer()
	}
	g := &Group{s: s, path: path, sync: sync, tel: newTelemetry(log)}
	if err := s.Set(ctx, g.groupMetaKey(), encoded); err != nil {
		return nil, fmt.Errorf("%w: writing group metadata: %w", ErrStore, err)
	}
	return g, nil
}

func openGroupAt(ctx context.Context, s store.Store, path string, mode OpenMode, sync Synchronizer, log *zap.Logger) (*Group, error) {
	raw, err := s.Get(ctx, joinKey(path, ".zgroup"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %q", ErrKeyNotFound, path)
		}
		return nil, fmt.Errorf("%w: reading group metadata: %w", ErrStore, err)
	}
	if _, err := DecodeGroupMetadata(raw); err != nil {
		return nil, err
	}
	if sync == nil {
		sync = NewThreadSynchronizer()
	}
	return &Group{s: s, path: path, sync: sync, readOnly: mode == ModeReadOnly, tel: newTelemetry(log)}, nil
}

// CreateGroup creates a new subgroup at name (relative to g), failing
// with ErrContainerExists if one already exists there.
func (g *Group) CreateGroup(ctx context.Context, name string) (*Group, error) {
	if g.readOnly {
		return nil, ErrReadOnly
	}
	rel, err := normalizePath(name)
	if err != nil {
		return nil, err
	}
	return createGroupAt(ctx, g.s, joinKey(g.path, rel), g.sync, g.tel.log)
}

// RequireGroup opens name if it already exists as a group, or creates it
// otherwise, matching h5py/zarr's require_group semantics.
func (g *Group) RequireGroup(ctx context.Context, name string) (*Group, error) {
	rel, err := normalizePath(name)
	if err != nil {
		return nil, err
	}
	full := joinKey(g.path, rel)
	sub, err := openGroupAt(ctx, g.s, full, ModeReadWrite, g.sync, g.tel.log)
	if err == nil {
		sub.readOnly = g.readOnly
		return sub, nil
	}
	if !errors.Is(err, ErrKeyNotFound) {
		return nil, err
	}
	return g.CreateGroup(ctx, name)
}

// CreateDataset creates a new array at name (relative to g).
func (g *Group) CreateDataset(ctx context.Context, name string, opts CreateOptions) (*Array, error) {
	if g.readOnly {
		return nil, ErrReadOnly
	}
	rel, err := normalizePath(name)
	if err != nil {
		return nil, err
	}
	if opts.Synchronizer == nil {
		opts.Synchronizer = g.sync
	}
	return CreateArray(ctx, g.s, joinKey(g.path, rel), opts, g.tel.log)
}

// RequireDataset opens name as an array if it exists, validating its
// shape and dtype against opts, or creates it otherwise. When exact is
// false, an existing dtype is accepted as long as its item size matches;
// when true, the dtype must match exactly.
func (g *Group) RequireDataset(ctx context.Context, name string, opts CreateOptions, exact bool) (*Array, error) {
	rel, err := normalizePath(name)
	if err != nil {
		return nil, err
	}
	full := joinKey(g.path, rel)
	existing, err := OpenArray(ctx, g.s, full, ModeReadWrite, g.sync, g.tel.log)
	if err == nil {
		if exact {
			if existing.meta.DType.String() != opts.DType.String() {
				return nil, fmt.Errorf("%w: existing dtype %s != requested %s", ErrTypeMismatch, existing.meta.DType.GoName(), opts.DType.GoName())
			}
		} else if existing.meta.DType.ItemSize() != opts.DType.ItemSize() {
			return nil, fmt.Errorf("%w: existing item size %d != requested %d", ErrTypeMismatch, existing.meta.DType.ItemSize(), opts.DType.ItemSize())
		}
		if len(opts.Shape) > 0 {
			if !intSliceEqual(existing.meta.Shape, opts.Shape) {
				return nil, fmt.Errorf("%w: existing shape %v != requested %v", ErrShapeMismatch, existing.meta.Shape, opts.Shape)
			}
		}
		existing.readOnly = g.readOnly
		return existing, nil
	}
	if !errors.Is(err, ErrKeyNotFound) {
		return nil, err
	}
	return g.CreateDataset(ctx, name, opts)
}

func intSliceEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// OpenGroup opens an existing subgroup by name.
func (g *Group) OpenGroup(ctx context.Context, name string) (*Group, error) {
	rel, err := normalizePath(name)
	if err != nil {
		return nil, err
	}
	mode := ModeReadWrite
	if g.readOnly {
		mode = ModeReadOnly
	}
	return openGroupAt(ctx, g.s, joinKey(g.path, rel), mode, g.sync, g.tel.log)
}

// OpenDataset opens an existing array by name.
func (g *Group) OpenDataset(ctx context.Context, name string) (*Array, error) {
	rel, err := normalizePath(name)
	if err != nil {
		return nil, err
	}
	mode := ModeReadWrite
	if g.readOnly {
		mode = ModeReadOnly
	}
	return OpenArray(ctx, g.s, joinKey(g.path, rel), mode, g.sync, g.tel.log)
}

// Keys lists the immediate children (groups and arrays) of g, sorted
// lexicographically.
func (g *Group) Keys(ctx context.Context) ([]string, error) {
	prefix := g.path
	if prefix != "" {
		prefix += "/"
	}
	all, err := g.s.Keys(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("%w: listing %q: %w", ErrStore, g.path, err)
	}
	seen := map[string]struct{}{}
	for _, key := range all {
		rest := strings.TrimPrefix(key, prefix)
		if idx := strings.Index(rest, "/"); idx >= 0 {
			seen[rest[:idx]] = struct{}{}
		} else if rest == ".zgroup" || rest == ".zarray" || rest == ".zattrs" {
			continue
		} else {
			seen[rest] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

// Len returns the number of immediate children of g.
func (g *Group) Len(ctx context.Context) (int, error) {
	keys, err := g.Keys(ctx)
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// Attrs returns the mutable attributes view for this group.
func (g *Group) Attrs() *Attributes {
	return newAttributes(g.s, g.path, g.sync, g.readOnly, g.tel)
}
