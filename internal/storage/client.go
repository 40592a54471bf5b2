package storage

import (
	"context"
	"io"
	"time"
)

// PutOptions carries per-object attributes attached at write time.
type PutOptions struct {
	ContentType string
	// Tags is free-form user metadata stored alongside the object.
	Tags map[string]string
}

// Client is the common interface all object store clients must implement.
// Implementations perform no retries; retry policy belongs in a decorator
// (see RetryClient).
type Client interface {
	Put(ctx context.Context, bucket, object string, data io.Reader, size int64, opts PutOptions) (string, error)
	Get(ctx context.Context, bucket, object string) (io.ReadCloser, error)
	Delete(ctx context.Context, bucket, object string) error
	Exists(ctx context.Context, bucket, object string) (bool, error)

	// Presign issues a time-limited credential-free URL for the object.
	// It never validates that the object exists.
	Presign(ctx context.Context, bucket, object string, ttl time.Duration) (string, error)

	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string) error
}
