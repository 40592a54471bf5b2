package storage

import (
	"errors"
	"fmt"
)

// Sentinel conditions surfaced by the store clients; callers match them
// with errors.Is. Transport failures against a networked store carry
// ErrStoreUnavailable.
var (
	ErrObjectNotFound   = errors.New("object not found")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// StoreError wraps a failed store operation with its coordinates.
type StoreError struct {
	Op     string
	Bucket string
	Object string
	Err    error
}

func (e *StoreError) Error() string {
	if e.Object == "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Bucket, e.Err)
	}
	return fmt.Sprintf("%s %s/%s: %v", e.Op, e.Bucket, e.Object, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

func opError(op, bucket, object string, err error) error {
	return &StoreError{Op: op, Bucket: bucket, Object: object, Err: err}
}
