package canvas

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure modes of the Canvas API client. Callers
// dispatch on these with errors.Is; the wrapped message preserves the
// upstream status code and response body for display.
var (
	// ErrAuth indicates the token was rejected by the profile probe.
	ErrAuth = errors.New("canvas: authentication failed")
	// ErrNotFound indicates the requested resource does not exist or is
	// not visible to the caller.
	ErrNotFound = errors.New("canvas: resource not found")
	// ErrUploadInit indicates the first upload phase (reserving an upload
	// slot) was rejected.
	ErrUploadInit = errors.New("canvas: file upload initialization failed")
	// ErrUploadTransfer indicates the multipart transfer to the returned
	// upload URL failed.
	ErrUploadTransfer = errors.New("canvas: file transfer failed")
	// ErrUploadFinalize indicates the upload completed but no durable
	// download URL could be extracted.
	ErrUploadFinalize = errors.New("canvas: file upload finalization failed")
	// ErrPost indicates the announcement creation call was rejected.
	ErrPost = errors.New("canvas: announcement creation failed")
)

func statusError(sentinel error, status int, body []byte) error {
	text := string(body)
	if len(text) > 2048 {
		text = text[:2048]
	}
	return fmt.Errorf("%w: status %d: %s", sentinel, status, text)
}
