// Package kv wraps the capacity-bounded key-value storage the client
// persists into. Backends enforce a byte quota over all stored keys and
// values; a write that would breach it fails with ErrCapacityExceeded and
// changes nothing. The adapter never evicts or retries on its own.
package kv

import "errors"

// ErrCapacityExceeded is returned by Set when the write would push the
// store past its configured capacity.
var ErrCapacityExceeded = errors.New("kv: capacity exceeded")

// Keys used by the client. Drafts append their own key after DraftPrefix.
const (
	KeyTopics   = "topics"
	KeyActive   = "active"
	DraftPrefix = "draft:"
)

// Store is the bounded key-value storage interface.
//
// Get returns ok=false (and no error) for a never-written key. Set either
// stores the value atomically or returns an error; Delete of an absent key
// is a no-op.
type Store interface {
	Get(key string) ([]byte, bool, error)
	Set(key string, value []byte) error
	Delete(key string) error
	Close() error
}

// entrySize is the quota cost of one entry, key included, matching how
// browser storage quotas charge for both.
func entrySize(key string, value []byte) int {
	return len(key) + len(value)
}
