package extractor

import (
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"testing"
	"time"

	"github.com/nao1215/linkmatch/internal/fetch"
	"github.com/nao1215/linkmatch/internal/matcher"
	"github.com/nao1215/linkmatch/internal/model"
)

// discardLogger returns a logger that writes nowhere.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// writeFile creates a file with content in a temporary directory.
func writeFile(t *testing.T, name string, content []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// serveOnce answers a single connection with response and returns the port.
func serveOnce(t *testing.T, response string) int {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		buf := make([]byte, 4096)
		_, _ = conn.Read(buf)
		_, _ = io.WriteString(conn, response)
	}()

	return ln.Addr().(*net.TCPAddr).Port
}

// closedPort returns a local port with nothing listening on it.
func closedPort(t *testing.T) int {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	_ = ln.Close()
	return port
}

func newTestExtractor(opts ...fetch.Option) *Extractor {
	logger := discardLogger()
	opts = append([]fetch.Option{fetch.WithLogger(logger), fetch.WithTimeout(5 * time.Second)}, opts...)
	return New(WithLogger(logger), WithFetcher(fetch.New(opts...)))
}

// TestExtractFile tests local extraction.
func TestExtractFile(t *testing.T) {
	t.Parallel()

	t.Run("extracts links from file", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, "index.html", []byte(
			"<html>\n<a href=\"http://a.com/x#top\">A</a>\n<a href=\"http://a.com/x/\">A again</a>\n</html>\n"))

		result := newTestExtractor().ExtractFile(path)

		if !result.Succeeded() {
			t.Fatalf("unexpected failure: %s", result.Error)
		}
		if result.Kind != model.SourceFile {
			t.Errorf("kind = %q", result.Kind)
		}
		if !slices.Equal(result.Links, []string{"http://a.com/x"}) {
			t.Errorf("links = %v", result.Links)
		}
		if result.BodyHash == "" || result.BodySize == 0 {
			t.Error("expected body size and hash to be recorded")
		}
	})

	t.Run("strips UTF-8 byte order mark", func(t *testing.T) {
		t.Parallel()

		content := append([]byte{0xEF, 0xBB, 0xBF}, []byte("<a href=\"https://b.org\">b</a>")...)
		path := writeFile(t, "bom.html", content)

		result := newTestExtractor().ExtractFile(path)

		if !slices.Equal(result.Links, []string{"https://b.org"}) {
			t.Errorf("links = %v", result.Links)
		}
		if result.BodySize != len(content)-3 {
			t.Errorf("body size = %d, want %d", result.BodySize, len(content)-3)
		}
	})

	t.Run("decodes UTF-16 announced by BOM", func(t *testing.T) {
		t.Parallel()

		text := "<a href=\"http://c.net\">c</a>"
		content := []byte{0xFF, 0xFE}
		for _, r := range text {
			content = append(content, byte(r), 0)
		}
		path := writeFile(t, "utf16.html", content)

		result := newTestExtractor().ExtractFile(path)

		if !slices.Equal(result.Links, []string{"http://c.net"}) {
			t.Errorf("links = %v", result.Links)
		}
	})

	t.Run("file without links succeeds with empty list", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, "empty.html", []byte("<p>nothing here</p>"))

		result := newTestExtractor().ExtractFile(path)

		if !result.Succeeded() {
			t.Fatalf("unexpected failure: %s", result.Error)
		}
		if result.Links == nil || len(result.Links) != 0 {
			t.Errorf("expected empty non-nil links, got %#v", result.Links)
		}
	})

	t.Run("missing file is resource unavailable", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "missing.html")

		result := newTestExtractor().ExtractFile(path)

		if result.Failure != model.FailureResourceUnavailable {
			t.Errorf("failure = %v, want %v", result.Failure, model.FailureResourceUnavailable)
		}
		if len(result.Links) != 0 {
			t.Errorf("expected no links, got %v", result.Links)
		}
		if result.Error == "" {
			t.Error("expected error message")
		}
	})

	t.Run("exact dedup keeps trailing slash variants", func(t *testing.T) {
		t.Parallel()

		path := writeFile(t, "slash.html", []byte(
			"<a href=\"http://a.com/x\">1</a><a href=\"http://a.com/x/\">2</a>"))
		e := New(WithLogger(discardLogger()), WithMatcherOptions(matcher.WithDedup(matcher.DedupExact)))

		result := e.ExtractFile(path)

		if !slices.Equal(result.Links, []string{"http://a.com/x", "http://a.com/x/"}) {
			t.Errorf("links = %v", result.Links)
		}
	})
}

// TestFetchAndExtract tests remote extraction against raw TCP servers.
func TestFetchAndExtract(t *testing.T) {
	t.Parallel()

	const doc = "<!DOCTYPE html><html><a href=\"http://a.com/p#s\">p</a><a href=\"http://b.com\">b</a></html>"

	t.Run("extracts links from body", func(t *testing.T) {
		t.Parallel()

		port := serveOnce(t, "HTTP/1.1 200 OK\r\nContent-Type: text/html\r\n\r\n"+doc)
		url := "http://127.0.0.1:" + strconv.Itoa(port) + "/"

		result := newTestExtractor().FetchAndExtract(context.Background(), url)

		if !result.Succeeded() {
			t.Fatalf("unexpected failure: %s", result.Error)
		}
		if result.Kind != model.SourceRemote {
			t.Errorf("kind = %q", result.Kind)
		}
		if result.StatusCode != 200 {
			t.Errorf("status = %d", result.StatusCode)
		}
		if !slices.Equal(result.Links, []string{"http://a.com/p", "http://b.com"}) {
			t.Errorf("links = %v", result.Links)
		}
	})

	t.Run("header text is never matched", func(t *testing.T) {
		t.Parallel()

		resp := "HTTP/1.1 200 OK\r\nX-Note: <a href=\"http://header.com\">h</a>\r\n\r\n" + doc
		port := serveOnce(t, resp)
		url := "http://127.0.0.1:" + strconv.Itoa(port) + "/"

		result := newTestExtractor().FetchAndExtract(context.Background(), url)

		if slices.Contains(result.Links, "http://header.com") {
			t.Errorf("header link leaked into %v", result.Links)
		}
	})

	t.Run("non-success status still extracts", func(t *testing.T) {
		t.Parallel()

		port := serveOnce(t, "HTTP/1.1 404 Not Found\r\n\r\n"+doc)
		url := "http://127.0.0.1:" + strconv.Itoa(port) + "/"

		result := newTestExtractor().FetchAndExtract(context.Background(), url)

		if !result.Succeeded() || result.StatusCode != 404 {
			t.Errorf("failure = %v, status = %d", result.Failure, result.StatusCode)
		}
		if len(result.Links) != 2 {
			t.Errorf("links = %v", result.Links)
		}
	})

	t.Run("missing marker is protocol failure", func(t *testing.T) {
		t.Parallel()

		port := serveOnce(t, "HTTP/1.1 200 OK\r\n\r\n<html><a href=\"http://a.com\">a</a></html>")
		url := "http://127.0.0.1:" + strconv.Itoa(port) + "/"

		result := newTestExtractor(fetch.WithBoundary(fetch.BoundaryMarker)).FetchAndExtract(context.Background(), url)

		if result.Failure != model.FailureProtocol {
			t.Errorf("failure = %v, want %v", result.Failure, model.FailureProtocol)
		}
		if len(result.Links) != 0 {
			t.Errorf("expected no links, got %v", result.Links)
		}
	})

	t.Run("refused connection is connection failure", func(t *testing.T) {
		t.Parallel()

		url := "http://127.0.0.1:" + strconv.Itoa(closedPort(t)) + "/"

		result := newTestExtractor().FetchAndExtract(context.Background(), url)

		if result.Failure != model.FailureConnection {
			t.Errorf("failure = %v, want %v", result.Failure, model.FailureConnection)
		}
	})

	t.Run("unusable host is connection failure", func(t *testing.T) {
		t.Parallel()

		result := newTestExtractor().FetchAndExtract(context.Background(), "http:///index.html")

		if result.Failure != model.FailureConnection {
			t.Errorf("failure = %v, want %v", result.Failure, model.FailureConnection)
		}
	})
}

// TestExtract tests source dispatch.
func TestExtract(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "page.html", []byte("<a href=\"http://a.com\">a</a>"))
	e := newTestExtractor()

	if got := e.Extract(context.Background(), path); got.Kind != model.SourceFile || !got.Succeeded() {
		t.Errorf("file source: kind = %q, failure = %v", got.Kind, got.Failure)
	}

	url := "http://127.0.0.1:" + strconv.Itoa(closedPort(t)) + "/"
	if got := e.Extract(context.Background(), url); got.Kind != model.SourceRemote {
		t.Errorf("remote source: kind = %q", got.Kind)
	}
}
