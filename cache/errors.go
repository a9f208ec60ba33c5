package cache

import (
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

// TextCodeBackend marks errors raised by a cache backend.
const TextCodeBackend = "CACHE_BACKEND"

// NewBackendError wraps a failure of the cache backend. These errors are
// absorbed by the read path and only surface in logs and metrics.
func NewBackendError(driver, op, key string, err error) error {
	if err == nil {
		return nil
	}
	return goerrors.Wrap(err, goerrors.CategoryExternal, fmt.Sprintf("cache %s: %s failed", driver, op)).
		WithTextCode(TextCodeBackend).
		WithMetadata(map[string]any{
			"driver": driver,
			"op":     op,
			"key":    key,
		})
}

// IsBackendError reports whether err was produced by a cache backend.
func IsBackendError(err error) bool {
	var e *goerrors.Error
	if !goerrors.As(err, &e) {
		return false
	}
	return e.TextCode == TextCodeBackend
}
