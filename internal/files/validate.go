package files

import (
	"fmt"

	"github.com/camphub/assetstore/internal/buckets"
)

// DefaultMaxFileSize is the per-file ceiling: 50 MB.
const DefaultMaxFileSize = 50 << 20

// DefaultAllowedTypes is the MIME allowlist: common image, document, video
// and audio types.
func DefaultAllowedTypes() []string {
	return []string{
		"image/jpeg",
		"image/png",
		"image/gif",
		"image/webp",
		"application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.ms-powerpoint",
		"application/vnd.openxmlformats-officedocument.presentationml.presentation",
		"text/plain",
		"video/mp4",
		"video/webm",
		"video/quicktime",
		"audio/mpeg",
		"audio/wav",
		"audio/ogg",
	}
}

// Validator enforces the ingestion rules. Purely local: it must reject
// before any bytes reach the store.
type Validator struct {
	allowed     map[string]bool
	maxFileSize int64
	maxCount    map[buckets.Category]int
	defaultMax  int
}

// NewValidator builds a validator. Empty allowlist or zero maxFileSize fall
// back to the defaults.
func NewValidator(allowed []string, maxFileSize int64) *Validator {
	if len(allowed) == 0 {
		allowed = DefaultAllowedTypes()
	}
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}

	set := make(map[string]bool, len(allowed))
	for _, t := range allowed {
		set[t] = true
	}

	return &Validator{
		allowed:     set,
		maxFileSize: maxFileSize,
		maxCount: map[buckets.Category]int{
			buckets.AssignmentSubmissions: 3,
			buckets.UserUploads:           1, // profile images
		},
		defaultMax: 5,
	}
}

// MaxCount returns the per-request file-count ceiling for a category.
func (v *Validator) MaxCount(category buckets.Category) int {
	if n, ok := v.maxCount[category]; ok {
		return n
	}
	return v.defaultMax
}

// ValidateFile checks MIME type then size, in that order.
func (v *Validator) ValidateFile(contentType string, sizeBytes int64) error {
	if !v.allowed[contentType] {
		return &ValidationError{
			Reason: ErrUnsupportedMediaType,
			Detail: fmt.Sprintf("type %q is not allowed", contentType),
		}
	}
	if sizeBytes > v.maxFileSize {
		return &ValidationError{
			Reason: ErrPayloadTooLarge,
			Detail: fmt.Sprintf("%d bytes exceeds limit of %d", sizeBytes, v.maxFileSize),
		}
	}
	return nil
}

// ValidateCount checks the per-request file-count ceiling for a category.
func (v *Validator) ValidateCount(category buckets.Category, count int) error {
	limit := v.MaxCount(category)
	if count > limit {
		return &ValidationError{
			Reason: ErrTooManyFiles,
			Detail: fmt.Sprintf("%d files submitted, limit is %d", count, limit),
		}
	}
	return nil
}
