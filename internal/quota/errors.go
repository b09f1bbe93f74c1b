// Package quota turns raw language server responses into normalized quota
// reports and orchestrates the detect-fetch-normalize pipeline.
package quota

import "errors"

// ErrNotFound reports that no language server process could be located or
// that none of its ports accepted a probe. Nothing changed, so callers
// should not retry immediately.
var ErrNotFound = errors.New("language server not found")

// RemoteError reports that the authenticated fetch failed even after one
// cache-reset-and-retry cycle.
type RemoteError struct {
	cause error
}

func (e *RemoteError) Error() string {
	return "quota fetch failed: " + e.cause.Error()
}

func (e *RemoteError) Unwrap() error {
	return e.cause
}
