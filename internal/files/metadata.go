// Package files implements the file storage service: uploads, cache-first
// reads, deletes, presigned URLs and the thumbnail pipeline.
package files

import (
	"time"

	"github.com/camphub/assetstore/internal/buckets"
)

// Well-known keys in Metadata.Custom.
const (
	MetaOriginalName = "original-name"
	MetaContentType  = "content-type"
	MetaOwnerID      = "owner-id"
	MetaType         = "type"

	// TypeThumbnail marks a derived thumbnail object.
	TypeThumbnail = "thumbnail"
)

// Metadata describes one stored object. A new value is built on every
// successful upload and replaces the cached entry; it is never mutated in
// place.
type Metadata struct {
	Bucket     buckets.Category
	Object     string
	SizeBytes  int64
	ETag       string
	UploadedAt time.Time
	Custom     map[string]string
}
