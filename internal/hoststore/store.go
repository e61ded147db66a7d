// Package hoststore provides the host durable key-value store the storage
// core persists into: string keys to string values with synchronous
// get/set/remove and an optional byte capacity beyond which writes fail.
package hoststore

import "errors"

// Store is the host key-value store.
type Store interface {
	// Get returns the value stored under key. ok is false when the key is absent.
	Get(key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value. It returns
	// ErrQuotaExceeded when the write would exceed the store's capacity.
	Set(key, value string) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(key string) error

	// Size reports the bytes key occupies (key plus value), 0 when absent.
	Size(key string) int
}

// Host store errors.
var (
	ErrQuotaExceeded = errors.New("host store quota exceeded")
	ErrClosed        = errors.New("host store is closed")
)

// entrySize is the accounting unit used for capacity and Size.
func entrySize(key, value string) int64 {
	return int64(len(key) + len(value))
}
