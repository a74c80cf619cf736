package fetch

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// DocumentMarker is the literal searched for by BoundaryMarker.
const DocumentMarker = "<!DOCTYPE html>"

// BoundaryMode selects how the response body is separated from the headers.
type BoundaryMode string

const (
	// BoundaryHeader parses the header block and splits at the first blank line.
	BoundaryHeader BoundaryMode = "header"

	// BoundaryMarker starts the body at the first DocumentMarker.
	BoundaryMarker BoundaryMode = "marker"
)

// ParseBoundaryMode converts a configuration string into a BoundaryMode.
func ParseBoundaryMode(s string) (BoundaryMode, error) {
	switch BoundaryMode(strings.ToLower(s)) {
	case BoundaryHeader:
		return BoundaryHeader, nil
	case BoundaryMarker:
		return BoundaryMarker, nil
	default:
		return "", fmt.Errorf("unknown boundary mode %q (want %q or %q)", s, BoundaryHeader, BoundaryMarker)
	}
}

// ExtractBody separates the document body from a complete raw response.
// It returns the body and the status code (0 if it could not be read).
func ExtractBody(raw []byte, mode BoundaryMode) ([]byte, int, error) {
	if mode == BoundaryMarker {
		return extractByMarker(raw)
	}
	return extractByHeader(raw)
}

// extractByMarker discards everything before DocumentMarker.
func extractByMarker(raw []byte) ([]byte, int, error) {
	status := parseStatusCode(raw)

	idx := bytes.Index(raw, []byte(DocumentMarker))
	if idx < 0 {
		return nil, status, ErrMissingDocumentMarker
	}
	return raw[idx:], status, nil
}

// extractByHeader reads the status line and header block with net/http.
// A body cut short by the size limit is returned as far as it was read.
func extractByHeader(raw []byte) ([]byte, int, error) {
	resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(raw)), nil)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrProtocol, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, resp.StatusCode, fmt.Errorf("%w: %w", ErrProtocol, err)
	}
	return body, resp.StatusCode, nil
}

// parseStatusCode reads the code from an "HTTP/1.x NNN reason" status line.
func parseStatusCode(raw []byte) int {
	line, _, _ := bytes.Cut(raw, []byte("\n"))
	fields := strings.Fields(string(line))
	if len(fields) < 2 || !strings.HasPrefix(fields[0], "HTTP/") {
		return 0
	}
	code, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0
	}
	return code
}
