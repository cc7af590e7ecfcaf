// Package localstore provides the small synchronous key-value medium that
// holds the graph snapshot. Every medium enforces a byte quota over the sum of
// its keys and values.
package localstore

import (
	"errors"
	"fmt"
)

// DefaultQuota is the default byte budget of a medium.
const DefaultQuota int64 = 5 << 20

// ErrQuotaExceeded is matched by every *QuotaError.
var ErrQuotaExceeded = errors.New("storage quota exceeded")

// QuotaError reports a write that would not fit in the medium.
type QuotaError struct {
	Key   string
	Need  int64
	Used  int64
	Quota int64
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("writing %q needs %d bytes, %d of %d in use: %v", e.Key, e.Need, e.Used, e.Quota, ErrQuotaExceeded)
}

func (e *QuotaError) Unwrap() error { return ErrQuotaExceeded }

// Medium is a synchronous string-keyed store with a quota.
type Medium interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(key string) (value []byte, ok bool, err error)

	// Set writes value under key, returning a *QuotaError when the result
	// would exceed the quota. A failed Set leaves the previous value.
	Set(key string, value []byte) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(key string) error

	// Usage returns the bytes in use and the quota.
	Usage() (used, quota int64)
}

func entrySize(key string, value []byte) int64 {
	return int64(len(key) + len(value))
}

// checkQuota validates replacing key's current value (old, if present) with
// value given the current usage.
func checkQuota(key string, value, old []byte, hadOld bool, used, quota int64) error {
	next := used + entrySize(key, value)
	if hadOld {
		next -= entrySize(key, old)
	}
	if quota > 0 && next > quota {
		return &QuotaError{Key: key, Need: entrySize(key, value), Used: used, Quota: quota}
	}
	return nil
}
