// Package buckets maps logical content categories to physical bucket names
// and ensures the buckets exist at startup.
package buckets

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/camphub/assetstore/internal/storage"
)

// Category is a logical content category. The set is closed and fixed at
// process start.
type Category string

const (
	CampResources         Category = "camp-resources"
	UserUploads           Category = "user-uploads"
	Thumbnails            Category = "thumbnails"
	ProcessedMedia        Category = "processed-media"
	AssignmentSubmissions Category = "assignment-submissions"
)

// All returns every known category.
func All() []Category {
	return []Category{
		CampResources,
		UserUploads,
		Thumbnails,
		ProcessedMedia,
		AssignmentSubmissions,
	}
}

// Valid reports whether c is a known category.
func Valid(c Category) bool {
	switch c {
	case CampResources, UserUploads, Thumbnails, ProcessedMedia, AssignmentSubmissions:
		return true
	}
	return false
}

// Registry resolves categories to physical bucket names. It is the only
// place bucket names are spelled out.
type Registry struct {
	prefix string
	logger *zap.Logger
}

// NewRegistry creates a registry. A non-empty prefix namespaces buckets for
// multi-environment deployments (e.g. "staging-").
func NewRegistry(prefix string, logger *zap.Logger) *Registry {
	return &Registry{prefix: prefix, logger: logger}
}

// Name returns the physical bucket name for a category.
func (r *Registry) Name(c Category) string {
	return r.prefix + string(c)
}

// EnsureAll creates any missing bucket. Safe to run concurrently from
// multiple process instances: MakeBucket treats "already exists" as success.
func (r *Registry) EnsureAll(ctx context.Context, client storage.Client) error {
	for _, c := range All() {
		bucket := r.Name(c)

		exists, err := client.BucketExists(ctx, bucket)
		if err != nil {
			return fmt.Errorf("check bucket %s: %w", bucket, err)
		}
		if exists {
			continue
		}

		if err := client.MakeBucket(ctx, bucket); err != nil {
			return fmt.Errorf("create bucket %s: %w", bucket, err)
		}
		r.logger.Info("created bucket", zap.String("bucket", bucket))
	}
	return nil
}
