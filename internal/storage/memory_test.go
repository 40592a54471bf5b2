package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readerOf(s string) io.Reader {
	return strings.NewReader(s)
}

func TestMemClient(t *testing.T) {
	ctx := context.Background()

	t.Run("put get round trip", func(t *testing.T) {
		// Arrange
		m := NewMemClient()
		require.NoError(t, m.MakeBucket(ctx, "b"))

		// Act
		etag, err := m.Put(ctx, "b", "o", readerOf("hello"), 5, PutOptions{})
		require.NoError(t, err)

		rc, err := m.Get(ctx, "b", "o")

		// Assert
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(data))
		assert.NotEmpty(t, etag)
	})

	t.Run("get of absent object is not found", func(t *testing.T) {
		m := NewMemClient()

		_, err := m.Get(ctx, "b", "missing")

		assert.ErrorIs(t, err, ErrObjectNotFound)
	})

	t.Run("delete then exists reports false", func(t *testing.T) {
		m := NewMemClient()
		_, err := m.Put(ctx, "b", "o", readerOf("x"), 1, PutOptions{})
		require.NoError(t, err)

		require.NoError(t, m.Delete(ctx, "b", "o"))
		exists, err := m.Exists(ctx, "b", "o")

		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("presign returns a url with expiry", func(t *testing.T) {
		m := NewMemClient()

		url, err := m.Presign(ctx, "b", "o", 3600)

		require.NoError(t, err)
		assert.Contains(t, url, "b/o")
		assert.Contains(t, url, "expires=")
	})

	t.Run("counts calls per method", func(t *testing.T) {
		m := NewMemClient()
		_, _ = m.Put(ctx, "b", "o", readerOf("x"), 1, PutOptions{})
		_, _ = m.Get(ctx, "b", "o")
		_, _ = m.Get(ctx, "b", "o")

		calls := m.Calls()
		assert.Equal(t, 1, calls.Put)
		assert.Equal(t, 2, calls.Get)
		assert.Zero(t, calls.Delete)
	})
}

func TestStoreError(t *testing.T) {
	t.Run("carries coordinates and unwraps", func(t *testing.T) {
		err := opError("get", "bucket", "object", ErrObjectNotFound)

		assert.Contains(t, err.Error(), "bucket/object")
		assert.ErrorIs(t, err, ErrObjectNotFound)
	})

	t.Run("bucket-level errors omit the object", func(t *testing.T) {
		err := opError("make-bucket", "bucket", "", ErrStoreUnavailable)

		assert.Contains(t, err.Error(), "make-bucket bucket")
	})
}
