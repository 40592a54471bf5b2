package storage

import (
	"bytes"
	"context"
	"crypto/md5" // #nosec G501 - etag parity with S3, not security
	"encoding/hex"
	"fmt"
	"io"
	"sync"
	"time"
)

var _ Client = (*MemClient)(nil)

// MemCalls counts Client method invocations, for call-count assertions.
type MemCalls struct {
	Put, Get, Delete, Exists, Presign, BucketExists, MakeBucket int
}

// MemClient is an in-memory Client used in tests and for local development
// without a running object store.
type MemClient struct {
	mu      sync.Mutex
	buckets map[string]map[string][]byte
	calls   MemCalls

	// Error injection hooks. When set, the corresponding method fails.
	PutErr    error
	GetErr    error
	DeleteErr error

	// GetDelay slows Get down, to widen race windows in concurrency tests.
	GetDelay time.Duration
}

// NewMemClient creates an empty in-memory store.
func NewMemClient() *MemClient {
	return &MemClient{buckets: make(map[string]map[string][]byte)}
}

// Calls returns a snapshot of the per-method call counters.
func (m *MemClient) Calls() MemCalls {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MemClient) Put(ctx context.Context, bucket, object string, data io.Reader, size int64, opts PutOptions) (string, error) {
	b, err := io.ReadAll(data)
	if err != nil {
		return "", opError("put", bucket, object, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Put++

	if m.PutErr != nil {
		return "", opError("put", bucket, object, m.PutErr)
	}

	objs, ok := m.buckets[bucket]
	if !ok {
		objs = make(map[string][]byte)
		m.buckets[bucket] = objs
	}
	objs[object] = b

	sum := md5.Sum(b) // #nosec G401
	return hex.EncodeToString(sum[:]), nil
}

func (m *MemClient) Get(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
	m.mu.Lock()
	m.calls.Get++
	err := m.GetErr
	delay := m.GetDelay
	b, ok := m.buckets[bucket][object]
	m.mu.Unlock()

	if err != nil {
		return nil, opError("get", bucket, object, err)
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if !ok {
		return nil, opError("get", bucket, object, ErrObjectNotFound)
	}

	cp := make([]byte, len(b))
	copy(cp, b)
	return io.NopCloser(bytes.NewReader(cp)), nil
}

func (m *MemClient) Delete(ctx context.Context, bucket, object string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Delete++

	if m.DeleteErr != nil {
		return opError("delete", bucket, object, m.DeleteErr)
	}
	delete(m.buckets[bucket], object)
	return nil
}

func (m *MemClient) Exists(ctx context.Context, bucket, object string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Exists++

	_, ok := m.buckets[bucket][object]
	return ok, nil
}

func (m *MemClient) Presign(ctx context.Context, bucket, object string, ttl time.Duration) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Presign++

	expires := time.Now().Add(ttl).Unix()
	return fmt.Sprintf("https://store.local/%s/%s?expires=%d", bucket, object, expires), nil
}

func (m *MemClient) BucketExists(ctx context.Context, bucket string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.BucketExists++

	_, ok := m.buckets[bucket]
	return ok, nil
}

func (m *MemClient) MakeBucket(ctx context.Context, bucket string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.MakeBucket++

	if _, ok := m.buckets[bucket]; !ok {
		m.buckets[bucket] = make(map[string][]byte)
	}
	return nil
}
