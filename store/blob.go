package store

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"
)

// BlobStore adapts a gocloud.dev/blob.Bucket to the Store contract,
// opening a bucket via blob.OpenBucket(ctx, url) and reading/writing
// keyed blobs from it (file://, mem://, s3://, gs://, ... are all the
// same code path through this one driver interface), so the full
// read/write array engine can run against any gocloud.dev/blob driver.
type BlobStore struct {
	bucket *blob.Bucket
}

// OpenBlobStore opens the bucket addressed by urlstr (e.g. "file:///data",
// "mem://", "s3://bucket-name") and returns a BlobStore backed by it.
func OpenBlobStore(ctx context.Context, urlstr string) (*BlobStore, error) {
	bucket, err := blob.OpenBucket(ctx, urlstr)
	if err != nil {
		return nil, errors.Wrapf(err, "store: open bucket %q", urlstr)
	}
	return &BlobStore{bucket: bucket}, nil
}

// NewBlobStore wraps an already-open bucket.
func NewBlobStore(bucket *blob.Bucket) *BlobStore {
	return &BlobStore{bucket: bucket}
}

// Close releases the underlying bucket.
func (b *BlobStore) Close() error {
	return b.bucket.Close()
}

func (b *BlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	r, err := b.bucket.NewReader(ctx, key, nil)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return nil, errors.Wrapf(err, "store: open %q", key)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrapf(err, "store: read %q", key)
	}
	return data, nil
}

func (b *BlobStore) Set(ctx context.Context, key string, value []byte) error {
	w, err := b.bucket.NewWriter(ctx, key, nil)
	if err != nil {
		return errors.Wrapf(err, "store: open writer %q", key)
	}
	if _, err := w.Write(value); err != nil {
		w.Close()
		return errors.Wrapf(err, "store: write %q", key)
	}
	if err := w.Close(); err != nil {
		return errors.Wrapf(err, "store: close writer %q", key)
	}
	return nil
}

func (b *BlobStore) Delete(ctx context.Context, key string) error {
	err := b.bucket.Delete(ctx, key)
	if err != nil && gcerrors.Code(err) != gcerrors.NotFound {
		return errors.Wrapf(err, "store: delete %q", key)
	}
	return nil
}

func (b *BlobStore) Has(ctx context.Context, key string) (bool, error) {
	ok, err := b.bucket.Exists(ctx, key)
	if err != nil {
		return false, errors.Wrapf(err, "store: exists %q", key)
	}
	return ok, nil
}

func (b *BlobStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := b.bucket.List(&blob.ListOptions{Prefix: prefix})
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "store: list")
		}
		if obj.IsDir {
			continue
		}
		if strings.HasPrefix(obj.Key, prefix) {
			keys = append(keys, obj.Key)
		}
	}
	return keys, nil
}

func (b *BlobStore) Len(ctx context.Context) (int, error) {
	keys, err := b.Keys(ctx, "")
	if err != nil {
		return 0, err
	}
	return len(keys), nil
}

// Size implements Sizer by summing the reported size of every blob.
func (b *BlobStore) Size(ctx context.Context) (int64, error) {
	var total int64
	iter := b.bucket.List(nil)
	for {
		obj, err := iter.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, errors.Wrap(err, "store: list")
		}
		if !obj.IsDir {
			total += obj.Size
		}
	}
	return total, nil
}
