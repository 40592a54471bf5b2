package buckets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/camphub/assetstore/internal/storage"
)

func TestRegistry_Name(t *testing.T) {
	t.Run("resolves categories to bucket names", func(t *testing.T) {
		r := NewRegistry("", zap.NewNop())

		assert.Equal(t, "camp-resources", r.Name(CampResources))
		assert.Equal(t, "thumbnails", r.Name(Thumbnails))
	})

	t.Run("prefix namespaces every bucket", func(t *testing.T) {
		r := NewRegistry("staging-", zap.NewNop())

		assert.Equal(t, "staging-user-uploads", r.Name(UserUploads))
	})
}

func TestValid(t *testing.T) {
	for _, c := range All() {
		assert.True(t, Valid(c), string(c))
	}
	assert.False(t, Valid(Category("attic")))
}

func TestRegistry_EnsureAll(t *testing.T) {
	t.Run("creates all missing buckets", func(t *testing.T) {
		// Arrange
		store := storage.NewMemClient()
		r := NewRegistry("", zap.NewNop())

		// Act
		err := r.EnsureAll(context.Background(), store)

		// Assert
		require.NoError(t, err)
		for _, c := range All() {
			exists, err := store.BucketExists(context.Background(), r.Name(c))
			require.NoError(t, err)
			assert.True(t, exists, string(c))
		}
	})

	t.Run("is idempotent", func(t *testing.T) {
		store := storage.NewMemClient()
		r := NewRegistry("", zap.NewNop())
		ctx := context.Background()

		require.NoError(t, r.EnsureAll(ctx, store))
		created := store.Calls().MakeBucket

		require.NoError(t, r.EnsureAll(ctx, store))

		assert.Equal(t, created, store.Calls().MakeBucket,
			"second run must not recreate buckets")
	})
}
