package files

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/disintegration/imaging"
)

// Thumbnail dimensions and encoding quality.
const (
	ThumbnailSize        = 256
	ThumbnailJPEGQuality = 80
)

// ThumbnailPrefix is prepended to the source object name to build the
// derived key.
const ThumbnailPrefix = "thumb-"

// ThumbnailName returns the derived object name for a source object.
func ThumbnailName(object string) string {
	return ThumbnailPrefix + object
}

// Result is the outcome of a derived-asset attempt. Exactly one of Meta and
// Err is set; callers decide what to do with Err, the pipeline never
// propagates it.
type Result struct {
	Meta *Metadata
	Err  error
}

// Renderer produces derived thumbnail bytes from source image bytes.
type Renderer interface {
	Render(src []byte) ([]byte, error)
}

// ImageRenderer resizes to a fixed square with a centered cover fit and
// re-encodes as JPEG.
type ImageRenderer struct {
	Size    int
	Quality int
}

// NewImageRenderer creates a renderer with the default size and quality.
func NewImageRenderer() *ImageRenderer {
	return &ImageRenderer{Size: ThumbnailSize, Quality: ThumbnailJPEGQuality}
}

func (r *ImageRenderer) Render(src []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	thumb := imaging.Fill(img, r.Size, r.Size, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(r.Quality)); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// IsImage reports whether a content type should enter the thumbnail
// pipeline.
func IsImage(contentType string) bool {
	return strings.HasPrefix(contentType, "image/")
}
