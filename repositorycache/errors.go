package repositorycache

import (
	"errors"
	"fmt"
)

var (
	// ErrNilEntity is returned by Add and Update for nil entities when strict nil checks are enabled.
	ErrNilEntity = errors.New("repositorycache: nil entity")

	// ErrCacheStore matches every *CacheError.
	ErrCacheStore = errors.New("repositorycache: cache store failure")

	// ErrPurgeUnsupported is returned by Purge when the cache store cannot delete by prefix.
	ErrPurgeUnsupported = errors.New("repositorycache: cache store does not support prefix deletion")
)

// CacheError describes a failed cache store call.
type CacheError struct {
	Op  string
	Key string
	Err error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("repositorycache: cache %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *CacheError) Unwrap() error { return e.Err }

// Is reports ErrCacheStore as a match so callers can test for any cache failure.
func (e *CacheError) Is(target error) bool { return target == ErrCacheStore }
