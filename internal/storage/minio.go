package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// compile-time check that MinIOClient satisfies Client.
var _ Client = (*MinIOClient)(nil)

// MinIOConfig holds connection settings for a MinIO-compatible endpoint.
type MinIOConfig struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
	PathStyle bool
}

// MinIOClient implements Client over the MinIO SDK.
type MinIOClient struct {
	cl     *minio.Client
	logger *zap.Logger
}

// NewMinIOClient creates a client for a MinIO-compatible object store.
func NewMinIOClient(cfg MinIOConfig, logger *zap.Logger) (*MinIOClient, error) {
	opts := &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	}
	if cfg.PathStyle {
		opts.BucketLookup = minio.BucketLookupPath
	}

	cl, err := minio.New(cfg.Endpoint, opts)
	if err != nil {
		return nil, fmt.Errorf("minio new client: %w", err)
	}

	return &MinIOClient{cl: cl, logger: logger}, nil
}

func (c *MinIOClient) Put(ctx context.Context, bucket, object string, data io.Reader, size int64, opts PutOptions) (string, error) {
	info, err := c.cl.PutObject(ctx, bucket, object, data, size, minio.PutObjectOptions{
		ContentType:  opts.ContentType,
		UserMetadata: opts.Tags,
	})
	if err != nil {
		return "", opError("put", bucket, object, translateMinioErr(err))
	}
	return info.ETag, nil
}

func (c *MinIOClient) Get(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
	obj, err := c.cl.GetObject(ctx, bucket, object, minio.GetObjectOptions{})
	if err != nil {
		return nil, opError("get", bucket, object, translateMinioErr(err))
	}
	// GetObject is lazy; Stat forces the round trip so a missing key
	// surfaces here instead of on first read.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, opError("get", bucket, object, translateMinioErr(err))
	}
	return obj, nil
}

func (c *MinIOClient) Delete(ctx context.Context, bucket, object string) error {
	if err := c.cl.RemoveObject(ctx, bucket, object, minio.RemoveObjectOptions{}); err != nil {
		return opError("delete", bucket, object, translateMinioErr(err))
	}
	return nil
}

func (c *MinIOClient) Exists(ctx context.Context, bucket, object string) (bool, error) {
	_, err := c.cl.StatObject(ctx, bucket, object, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, opError("stat", bucket, object, translateMinioErr(err))
	}
	return true, nil
}

func (c *MinIOClient) Presign(ctx context.Context, bucket, object string, ttl time.Duration) (string, error) {
	u, err := c.cl.PresignedGetObject(ctx, bucket, object, ttl, nil)
	if err != nil {
		return "", opError("presign", bucket, object, translateMinioErr(err))
	}
	return u.String(), nil
}

func (c *MinIOClient) BucketExists(ctx context.Context, bucket string) (bool, error) {
	ok, err := c.cl.BucketExists(ctx, bucket)
	if err != nil {
		return false, opError("bucket-exists", bucket, "", translateMinioErr(err))
	}
	return ok, nil
}

func (c *MinIOClient) MakeBucket(ctx context.Context, bucket string) error {
	err := c.cl.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
	if err != nil {
		// Another process may have created it between Exists and here.
		code := minio.ToErrorResponse(err).Code
		if code == "BucketAlreadyOwnedByYou" || code == "BucketAlreadyExists" {
			return nil
		}
		return opError("make-bucket", bucket, "", translateMinioErr(err))
	}
	return nil
}

func translateMinioErr(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return ErrObjectNotFound
	case "":
		// No S3 error response came back at all: the endpoint itself is
		// unreachable.
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return err
}
