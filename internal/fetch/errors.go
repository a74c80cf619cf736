package fetch

import (
	"errors"
	"fmt"
)

// Fetch errors. Every error returned by Fetcher.Fetch wraps exactly one of
// these, so callers can classify failures with errors.Is.
var (
	// ErrEmptyHost is returned when the URL does not decompose into a usable host.
	ErrEmptyHost = errors.New("no host in URL")

	// ErrConnect is returned when the transport connection cannot be established.
	ErrConnect = errors.New("connection failed")

	// ErrWrite is returned when the request cannot be written.
	ErrWrite = errors.New("failed to send request")

	// ErrRead is returned when the response cannot be read to end of stream.
	ErrRead = errors.New("failed to read response")

	// ErrProtocol is returned when the header/body boundary cannot be located.
	ErrProtocol = errors.New("malformed HTTP response")

	// ErrMissingDocumentMarker is returned in marker mode when the response
	// does not contain DocumentMarker. It wraps ErrProtocol.
	ErrMissingDocumentMarker = fmt.Errorf("%w: document marker %q not found", ErrProtocol, DocumentMarker)
)

// Error records the state a fetch was in when it failed.
type Error struct {
	// URL is the URL that was being fetched.
	URL string

	// State is the last state reached before the failure.
	State State

	// Err is the underlying error, wrapping one of the package sentinels.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("fetch %s (after %s): %v", e.URL, e.State, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}
