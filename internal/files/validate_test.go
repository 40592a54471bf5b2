package files

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/camphub/assetstore/internal/buckets"
)

func TestValidator_ValidateFile(t *testing.T) {
	v := NewValidator(nil, 0)

	t.Run("accepts allowlisted type under the size limit", func(t *testing.T) {
		err := v.ValidateFile("application/pdf", 10<<20)

		assert.NoError(t, err)
	})

	t.Run("rejects executable payload", func(t *testing.T) {
		err := v.ValidateFile("application/x-msdownload", 1024)

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnsupportedMediaType)
	})

	t.Run("rejects 60MB file", func(t *testing.T) {
		err := v.ValidateFile("video/mp4", 60<<20)

		require.Error(t, err)
		assert.ErrorIs(t, err, ErrPayloadTooLarge)
	})

	t.Run("type is checked before size", func(t *testing.T) {
		// An oversized disallowed file must report the type, not the size.
		err := v.ValidateFile("application/x-msdownload", 60<<20)

		assert.ErrorIs(t, err, ErrUnsupportedMediaType)
	})

	t.Run("custom allowlist replaces default", func(t *testing.T) {
		custom := NewValidator([]string{"image/png"}, 0)

		assert.NoError(t, custom.ValidateFile("image/png", 100))
		assert.ErrorIs(t, custom.ValidateFile("application/pdf", 100), ErrUnsupportedMediaType)
	})

	t.Run("custom size ceiling", func(t *testing.T) {
		small := NewValidator(nil, 1024)

		assert.ErrorIs(t, small.ValidateFile("image/png", 2048), ErrPayloadTooLarge)
	})
}

func TestValidator_ValidateCount(t *testing.T) {
	v := NewValidator(nil, 0)

	t.Run("generic categories allow five files", func(t *testing.T) {
		assert.NoError(t, v.ValidateCount(buckets.CampResources, 5))
		assert.ErrorIs(t, v.ValidateCount(buckets.CampResources, 6), ErrTooManyFiles)
	})

	t.Run("assignment submissions allow three", func(t *testing.T) {
		assert.NoError(t, v.ValidateCount(buckets.AssignmentSubmissions, 3))
		assert.ErrorIs(t, v.ValidateCount(buckets.AssignmentSubmissions, 4), ErrTooManyFiles)
	})

	t.Run("profile uploads allow one", func(t *testing.T) {
		assert.NoError(t, v.ValidateCount(buckets.UserUploads, 1))
		assert.ErrorIs(t, v.ValidateCount(buckets.UserUploads, 2), ErrTooManyFiles)
	})
}

func TestValidationError(t *testing.T) {
	t.Run("unwraps to its sentinel", func(t *testing.T) {
		err := &ValidationError{Reason: ErrTooManyFiles, Detail: "4 files submitted, limit is 3"}

		assert.True(t, errors.Is(err, ErrTooManyFiles))
		assert.True(t, IsValidationError(err))
		assert.Contains(t, err.Error(), "limit is 3")
	})

	t.Run("other errors are not validation errors", func(t *testing.T) {
		assert.False(t, IsValidationError(errors.New("boom")))
	})
}
