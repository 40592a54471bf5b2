package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
)

func TestTranslateS3Err(t *testing.T) {
	t.Run("missing key maps to not found", func(t *testing.T) {
		err := translateS3Err(&types.NoSuchKey{})

		assert.ErrorIs(t, err, ErrObjectNotFound)
	})

	t.Run("transport failures map to store unavailable", func(t *testing.T) {
		err := translateS3Err(errors.New("dial tcp 10.0.0.5:443: i/o timeout"))

		assert.ErrorIs(t, err, ErrStoreUnavailable)
	})

	t.Run("context cancellation passes through", func(t *testing.T) {
		err := translateS3Err(context.Canceled)

		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, ErrStoreUnavailable)
	})

	t.Run("service errors pass through unchanged", func(t *testing.T) {
		err := translateS3Err(&types.BucketAlreadyExists{})

		assert.NotErrorIs(t, err, ErrObjectNotFound)
		assert.NotErrorIs(t, err, ErrStoreUnavailable)
	})
}
