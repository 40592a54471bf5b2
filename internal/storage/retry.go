package storage

import (
	"context"
	"errors"
	"io"
	"math"
	"math/rand"
	"time"

	"go.uber.org/zap"
)

// RetryPolicy defines how to retry failed store operations.
type RetryPolicy struct {
	maxAttempts  int
	initialDelay time.Duration
	maxDelay     time.Duration
	multiplier   float64
	jitter       bool
	logger       *zap.Logger
}

// RetryOption configures retry behavior.
type RetryOption func(*RetryPolicy)

// WithMaxAttempts sets maximum retry attempts.
func WithMaxAttempts(n int) RetryOption {
	return func(p *RetryPolicy) {
		p.maxAttempts = n
	}
}

// WithInitialDelay sets the initial retry delay.
func WithInitialDelay(d time.Duration) RetryOption {
	return func(p *RetryPolicy) {
		p.initialDelay = d
	}
}

// WithJitter enables jitter to prevent thundering herd.
func WithJitter(enabled bool) RetryOption {
	return func(p *RetryPolicy) {
		p.jitter = enabled
	}
}

// WithRetryLogger adds logging to retry attempts.
func WithRetryLogger(logger *zap.Logger) RetryOption {
	return func(p *RetryPolicy) {
		p.logger = logger
	}
}

// NewRetryPolicy creates a new retry policy.
func NewRetryPolicy(opts ...RetryOption) *RetryPolicy {
	p := &RetryPolicy{
		maxAttempts:  3,
		initialDelay: 100 * time.Millisecond,
		maxDelay:     10 * time.Second,
		multiplier:   2.0,
		jitter:       true,
		logger:       zap.NewNop(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Execute runs a function with retry logic. Not-found is never retried;
// the object will not appear by waiting.
func (p *RetryPolicy) Execute(ctx context.Context, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		err := fn()
		if err == nil {
			if attempt > 0 {
				p.logger.Debug("store operation succeeded after retry",
					zap.Int("attempt", attempt+1))
			}
			return nil
		}
		if IsNotFound(err) {
			return err
		}
		lastErr = err

		if attempt == p.maxAttempts-1 {
			break
		}

		delay := p.calculateDelay(attempt)
		p.logger.Debug("store operation failed, retrying",
			zap.Error(lastErr),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return lastErr
}

func (p *RetryPolicy) calculateDelay(attempt int) time.Duration {
	delay := float64(p.initialDelay) * math.Pow(p.multiplier, float64(attempt))

	if delay > float64(p.maxDelay) {
		delay = float64(p.maxDelay)
	}

	if p.jitter {
		// Jitter between 0.5x and 1.5x the delay
		delay = delay * (0.5 + rand.Float64()) // #nosec G404
	}

	return time.Duration(delay)
}

var _ Client = (*RetryClient)(nil)

// RetryClient wraps a Client with retry logic for idempotent operations.
// Put is never retried (a partial upload is not safe to replay) and
// Presign is local signing with nothing transient to retry.
type RetryClient struct {
	client Client
	policy *RetryPolicy
}

// NewRetryClient creates a client with retry capability.
func NewRetryClient(client Client, policy *RetryPolicy) *RetryClient {
	return &RetryClient{client: client, policy: policy}
}

func (r *RetryClient) Put(ctx context.Context, bucket, object string, data io.Reader, size int64, opts PutOptions) (string, error) {
	return r.client.Put(ctx, bucket, object, data, size, opts)
}

func (r *RetryClient) Get(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
	var result io.ReadCloser
	err := r.policy.Execute(ctx, func() error {
		var err error
		result, err = r.client.Get(ctx, bucket, object)
		return err
	})
	return result, err
}

func (r *RetryClient) Delete(ctx context.Context, bucket, object string) error {
	return r.policy.Execute(ctx, func() error {
		return r.client.Delete(ctx, bucket, object)
	})
}

func (r *RetryClient) Exists(ctx context.Context, bucket, object string) (bool, error) {
	var result bool
	err := r.policy.Execute(ctx, func() error {
		var err error
		result, err = r.client.Exists(ctx, bucket, object)
		return err
	})
	return result, err
}

func (r *RetryClient) Presign(ctx context.Context, bucket, object string, ttl time.Duration) (string, error) {
	return r.client.Presign(ctx, bucket, object, ttl)
}

func (r *RetryClient) BucketExists(ctx context.Context, bucket string) (bool, error) {
	var result bool
	err := r.policy.Execute(ctx, func() error {
		var err error
		result, err = r.client.BucketExists(ctx, bucket)
		return err
	})
	return result, err
}

func (r *RetryClient) MakeBucket(ctx context.Context, bucket string) error {
	return r.client.MakeBucket(ctx, bucket)
}

// IsNotFound reports whether err represents a missing object or bucket.
func IsNotFound(err error) bool {
	return err != nil && errors.Is(err, ErrObjectNotFound)
}
