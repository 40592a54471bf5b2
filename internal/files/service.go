package files

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/camphub/assetstore/internal/buckets"
	"github.com/camphub/assetstore/internal/cache"
	"github.com/camphub/assetstore/internal/storage"
)

// DefaultPresignTTL is used when a caller does not ask for a specific
// expiry.
const DefaultPresignTTL = time.Hour

// Service orchestrates uploads, cache-first reads, deletes and presigned
// URLs over the object store.
type Service struct {
	store     storage.Client
	registry  *buckets.Registry
	caches    *Caches
	validator *Validator
	renderer  Renderer
	logger    *zap.Logger

	// group collapses concurrent media-cache misses for the same key into
	// a single store fetch.
	group singleflight.Group
}

// NewService creates the file storage service.
func NewService(store storage.Client, registry *buckets.Registry, caches *Caches,
	validator *Validator, renderer Renderer, logger *zap.Logger) *Service {
	return &Service{
		store:     store,
		registry:  registry,
		caches:    caches,
		validator: validator,
		renderer:  renderer,
		logger:    logger,
	}
}

// Validator exposes the ingestion validator for callers that validate
// request batches before streaming file bytes.
func (s *Service) Validator() *Validator { return s.validator }

// ObjectName builds a caller-unique object name: a random prefix plus the
// original filename, owner-scoped when ownerID is set.
func ObjectName(ownerID, filename string) string {
	name := uuid.NewString() + "-" + filename
	if ownerID != "" {
		return ownerID + "/" + name
	}
	return name
}

// Upload stores the object and caches its metadata. The media cache is not
// populated on write; payloads are cached lazily on first read. On failure
// nothing is cached.
func (s *Service) Upload(ctx context.Context, category buckets.Category, object string,
	data []byte, custom map[string]string) (*Metadata, error) {
	bucket := s.registry.Name(category)

	etag, err := s.store.Put(ctx, bucket, object, bytes.NewReader(data), int64(len(data)),
		storage.PutOptions{
			ContentType: custom[MetaContentType],
			Tags:        custom,
		})
	if err != nil {
		return nil, fmt.Errorf("upload %s/%s: %w", bucket, object, err)
	}

	meta := &Metadata{
		Bucket:     category,
		Object:     object,
		SizeBytes:  int64(len(data)),
		ETag:       etag,
		UploadedAt: time.Now().UTC(),
		Custom:     custom,
	}
	s.caches.Metadata.Set(cache.Key(bucket, object), meta)

	return meta, nil
}

// Fetch returns the object's bytes, served from the media cache when
// possible. On a miss the store fetch is coalesced across concurrent
// callers and the cache is repopulated.
func (s *Service) Fetch(ctx context.Context, category buckets.Category, object string) ([]byte, error) {
	bucket := s.registry.Name(category)
	key := cache.Key(bucket, object)

	if data, ok := s.caches.Media.Get(key); ok {
		return data, nil
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		// A concurrent caller may have filled the cache while this one
		// waited its turn.
		if data, ok := s.caches.Media.Get(key); ok {
			return data, nil
		}

		rc, err := s.store.Get(ctx, bucket, object)
		if err != nil {
			return nil, fmt.Errorf("fetch %s/%s: %w", bucket, object, err)
		}
		defer func() { _ = rc.Close() }()

		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("fetch %s/%s: read body: %w", bucket, object, err)
		}

		s.caches.Media.Set(key, data)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// ContentType reports the stored content type for an object when its
// metadata is still cached. It never consults the store; callers fall back
// to a generic type on a miss.
func (s *Service) ContentType(category buckets.Category, object string) (string, bool) {
	meta, ok := s.caches.Metadata.Get(cache.Key(s.registry.Name(category), object))
	if !ok || meta.Custom == nil {
		return "", false
	}
	ct := meta.Custom[MetaContentType]
	return ct, ct != ""
}

// Remove deletes the object from the store and evicts its cache entries.
// For non-thumbnail objects the derived thumbnail is deleted as well,
// best-effort.
func (s *Service) Remove(ctx context.Context, category buckets.Category, object string) error {
	bucket := s.registry.Name(category)

	if err := s.store.Delete(ctx, bucket, object); err != nil {
		return fmt.Errorf("remove %s/%s: %w", bucket, object, err)
	}

	key := cache.Key(bucket, object)
	s.caches.Metadata.Delete(key)
	s.caches.Media.Delete(key)

	if category != buckets.Thumbnails {
		s.removeThumbnail(ctx, object)
	}
	return nil
}

// removeThumbnail deletes the derived object for a source. Failure is
// logged, never propagated: an orphan thumbnail is harmless.
func (s *Service) removeThumbnail(ctx context.Context, object string) {
	thumbBucket := s.registry.Name(buckets.Thumbnails)
	thumbObject := ThumbnailName(object)

	if err := s.store.Delete(ctx, thumbBucket, thumbObject); err != nil && !storage.IsNotFound(err) {
		s.logger.Warn("failed to delete thumbnail",
			zap.String("object", thumbObject),
			zap.Error(err))
		return
	}

	key := cache.Key(thumbBucket, thumbObject)
	s.caches.Metadata.Delete(key)
	s.caches.Media.Delete(key)
}

// PresignedURL issues a shareable URL. It never consults or updates the
// caches and does not require the object to exist.
func (s *Service) PresignedURL(ctx context.Context, category buckets.Category, object string,
	ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultPresignTTL
	}

	url, err := s.store.Presign(ctx, s.registry.Name(category), object, ttl)
	if err != nil {
		return "", fmt.Errorf("presign %s/%s: %w", category, object, err)
	}
	return url, nil
}

// storeHealthKey indexes the reachability snapshot in the general tier.
const storeHealthKey = "store:reachable"

// StoreHealthy reports whether the object store is answering requests. The
// answer is snapshotted in the general cache tier so frequent health probes
// do not hammer the store.
func (s *Service) StoreHealthy(ctx context.Context) bool {
	if v, ok := s.caches.General.Get(storeHealthKey); ok {
		if reachable, ok := v.(bool); ok {
			return reachable
		}
	}

	_, err := s.store.BucketExists(ctx, s.registry.Name(buckets.CampResources))
	reachable := err == nil
	s.caches.General.Set(storeHealthKey, reachable)
	return reachable
}

// UploadRequest is one inbound file from the route layer.
type UploadRequest struct {
	Category    buckets.Category
	OwnerID     string
	FileName    string
	ContentType string
	Data        []byte
	// TypeTag optionally labels the asset (e.g. "profile-image").
	TypeTag string
}

// UploadResult is returned to the route layer after a successful upload.
type UploadResult struct {
	FileID       string  `json:"fileId"`
	URL          string  `json:"url"`
	ThumbnailURL *string `json:"thumbnailUrl"`
	ContentType  string  `json:"mimeType"`
	SizeBytes    int64   `json:"sizeBytes"`
}

// UploadFile validates, stores and (for images) derives a thumbnail for one
// file. A thumbnail failure leaves ThumbnailURL nil and does not fail the
// upload.
func (s *Service) UploadFile(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	if !buckets.Valid(req.Category) {
		return nil, &ValidationError{Reason: ErrUnknownCategory, Detail: string(req.Category)}
	}
	if err := s.validator.ValidateFile(req.ContentType, int64(len(req.Data))); err != nil {
		return nil, err
	}

	object := ObjectName(req.OwnerID, req.FileName)

	custom := map[string]string{
		MetaOriginalName: req.FileName,
		MetaContentType:  req.ContentType,
	}
	if req.OwnerID != "" {
		custom[MetaOwnerID] = req.OwnerID
	}
	if req.TypeTag != "" {
		custom[MetaType] = req.TypeTag
	}

	meta, err := s.Upload(ctx, req.Category, object, req.Data, custom)
	if err != nil {
		return nil, err
	}

	url, err := s.PresignedURL(ctx, req.Category, object, 0)
	if err != nil {
		return nil, err
	}

	result := &UploadResult{
		FileID:      object,
		URL:         url,
		ContentType: req.ContentType,
		SizeBytes:   meta.SizeBytes,
	}

	if IsImage(req.ContentType) {
		if res := s.deriveThumbnail(ctx, object, req.Data, custom); res.Err != nil {
			s.logger.Warn("thumbnail generation failed",
				zap.String("object", object),
				zap.Error(res.Err))
		} else if thumbURL, err := s.PresignedURL(ctx, buckets.Thumbnails, res.Meta.Object, 0); err == nil {
			result.ThumbnailURL = &thumbURL
		} else {
			s.logger.Warn("thumbnail presign failed",
				zap.String("object", res.Meta.Object),
				zap.Error(err))
		}
	}

	return result, nil
}

// deriveThumbnail renders and stores the derived asset for an image upload.
// It reports failure as a value; the decision to swallow it belongs to the
// caller.
func (s *Service) deriveThumbnail(ctx context.Context, object string, data []byte,
	parentCustom map[string]string) Result {
	rendered, err := s.renderer.Render(data)
	if err != nil {
		return Result{Err: fmt.Errorf("render thumbnail for %s: %w", object, err)}
	}

	custom := make(map[string]string, len(parentCustom)+1)
	for k, v := range parentCustom {
		custom[k] = v
	}
	custom[MetaType] = TypeThumbnail
	custom[MetaContentType] = "image/jpeg"

	meta, err := s.Upload(ctx, buckets.Thumbnails, ThumbnailName(object), rendered, custom)
	if err != nil {
		return Result{Err: fmt.Errorf("store thumbnail for %s: %w", object, err)}
	}
	return Result{Meta: meta}
}
