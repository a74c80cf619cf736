// Package fetch retrieves an HTML document over a raw plain-text HTTP/1.1
// connection.
//
// A fetch is a single synchronous exchange:
//
//	Idle -> AddressResolved -> Connected -> RequestSent -> ResponseReceived -> BodyExtracted
//
// The URL is split into host and path-query with SplitAddress, a TCP
// connection is opened to the host on the configured port (80 by default),
// a minimal GET request carrying "Connection: close" is written, and the
// response is read until the server closes the connection. The connection is
// closed on every exit path.
//
// # Body boundary
//
// BoundaryHeader (default) parses the status line and header block with
// net/http and treats everything after the first blank line as the body,
// decoding chunked transfer-encoding. BoundaryMarker reproduces the legacy
// behavior of discarding everything before the first literal
// "<!DOCTYPE html>"; a response without that marker fails with
// ErrMissingDocumentMarker instead of producing a truncated document.
//
// # Usage
//
//	f := fetch.New(fetch.WithPort(8080), fetch.WithTimeout(10*time.Second))
//	resp, err := f.Fetch(ctx, "http://example.com/index.html")
package fetch
