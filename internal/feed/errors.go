package feed

import "errors"

// Load failure kinds. Callers match with errors.Is; the wrapped message
// is human-readable and safe to surface to the presentation layer.
var (
	// ErrConfiguration means the required sheet ID was not supplied. No
	// network call is attempted.
	ErrConfiguration = errors.New("events feed is not configured")

	// ErrNetwork means the feed transport reported a non-success status
	// or the request itself failed.
	ErrNetwork = errors.New("failed to fetch events feed")

	// ErrParse means the tabular structure itself was unreadable. This is
	// distinct from individual malformed rows, which are dropped silently.
	ErrParse = errors.New("failed to parse events feed")
)
