package models

import (
	"errors"
	"fmt"
)

// Pipeline errors. Stages wrap these with context; callers match with errors.Is.
var (
	// ErrAuth indicates the token exchange failed or returned no access token.
	ErrAuth = errors.New("authentication failed")

	// ErrHTTP indicates a listing request returned a non-2xx status.
	ErrHTTP = errors.New("http request failed")

	// ErrMalformedResponse indicates the response body lacked the expected shape.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrInvalidListing indicates a listing type outside hot/new/top.
	ErrInvalidListing = errors.New("invalid listing type")

	// ErrItemNormalization indicates a required field could not be derived for one item.
	ErrItemNormalization = errors.New("item normalization failed")

	// ErrStorageWrite indicates an insert failed for a reason other than a duplicate.
	ErrStorageWrite = errors.New("storage write failed")

	// ErrDuplicate indicates the link_hash already exists in the store.
	// This is an expected outcome, not a failure.
	ErrDuplicate = errors.New("duplicate document")

	// ErrConfigStore indicates the connection registry could not be read.
	ErrConfigStore = errors.New("connection registry unavailable")
)

// HTTPError carries the status of a failed listing request
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Body)
}

func (e *HTTPError) Unwrap() error {
	return ErrHTTP
}
