package backend

import "errors"

// Error taxonomy shared by all backend implementations. Callers match with
// errors.Is; the wrapped message carries the transport detail to surface.
var (
	// ErrUnauthenticated means no bearer token was held at call time.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrPayloadTooLarge means the artifact failed the client-side size
	// check; no network call was made.
	ErrPayloadTooLarge = errors.New("audio payload too large")
	// ErrUploadFailed wraps any transport or non-success response outcome
	// of an upload.
	ErrUploadFailed = errors.New("upload failed")
	// ErrFetchFailed wraps any transport or non-success response outcome
	// of a list or detail fetch.
	ErrFetchFailed = errors.New("fetch failed")
)
