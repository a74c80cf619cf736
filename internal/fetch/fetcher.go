package fetch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"time"

	"golang.org/x/net/proxy"
)

// Defaults for a Fetcher.
const (
	// DefaultPort is the plain HTTP port.
	DefaultPort = 80

	// DefaultTimeout bounds a whole exchange, from dial to end of stream.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBodySize limits how much of a response is read.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB
)

// State is a step of a single fetch.
type State int

const (
	// StateIdle is the state before anything happened.
	StateIdle State = iota
	// StateAddressResolved means the URL was split into host and path-query.
	StateAddressResolved
	// StateConnected means the transport connection is open.
	StateConnected
	// StateRequestSent means the GET request was written and flushed.
	StateRequestSent
	// StateResponseReceived means the response was read to end of stream.
	StateResponseReceived
	// StateBodyExtracted means the header block was removed.
	StateBodyExtracted
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAddressResolved:
		return "address resolved"
	case StateConnected:
		return "connected"
	case StateRequestSent:
		return "request sent"
	case StateResponseReceived:
		return "response received"
	case StateBodyExtracted:
		return "body extracted"
	default:
		return "unknown"
	}
}

// Response is the outcome of a successful fetch.
type Response struct {
	// URL is the URL that was fetched.
	URL string

	// Address is the decomposed URL.
	Address RemoteAddress

	// Port is the port that was dialed.
	Port int

	// StatusCode is the HTTP status code, 0 if it could not be parsed.
	StatusCode int

	// Body is the document with the header block removed.
	Body []byte

	// RawSize is the number of bytes read from the connection.
	RawSize int

	// Truncated is true when the response exceeded the size limit.
	Truncated bool
}

// Fetcher performs raw HTTP GET exchanges. A Fetcher holds no per-request
// state and may be reused for any number of sequential or concurrent fetches.
type Fetcher struct {
	// dialer opens transport connections.
	dialer proxy.ContextDialer

	// port is dialed when the URL has no explicit port.
	port int

	// timeout bounds each exchange. Zero disables the bound.
	timeout time.Duration

	// maxBodySize limits the bytes read per response.
	maxBodySize int64

	// boundary selects the header/body split strategy.
	boundary BoundaryMode

	// userAgent is sent when non-empty.
	userAgent string

	// logger receives state transitions and the raw document at debug level.
	logger *slog.Logger

	// bodySink, when set, receives a copy of every extracted document.
	bodySink io.Writer
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithPort sets the port used when the URL does not name one.
func WithPort(port int) Option {
	return func(f *Fetcher) {
		f.port = port
	}
}

// WithTimeout sets the per-exchange timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = timeout
	}
}

// WithMaxBodySize sets the maximum number of response bytes read.
func WithMaxBodySize(size int64) Option {
	return func(f *Fetcher) {
		f.maxBodySize = size
	}
}

// WithBoundary sets the header/body split strategy.
func WithBoundary(mode BoundaryMode) Option {
	return func(f *Fetcher) {
		f.boundary = mode
	}
}

// WithUserAgent sets the User-Agent header. Empty omits the header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithDialer sets the transport dialer, e.g. a transport.Dialer for SOCKS5.
func WithDialer(d proxy.ContextDialer) Option {
	return func(f *Fetcher) {
		f.dialer = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// WithBodySink copies every extracted document to w.
func WithBodySink(w io.Writer) Option {
	return func(f *Fetcher) {
		f.bodySink = w
	}
}

// New creates a Fetcher with defaults overridden by opts.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		port:        DefaultPort,
		timeout:     DefaultTimeout,
		maxBodySize: DefaultMaxBodySize,
		boundary:    BoundaryHeader,
	}

	for _, opt := range opts {
		opt(f)
	}

	if f.dialer == nil {
		f.dialer = &net.Dialer{Timeout: f.timeout}
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	if f.maxBodySize <= 0 {
		f.maxBodySize = DefaultMaxBodySize
	}

	return f
}

// Port returns the default port dialed by the Fetcher.
func (f *Fetcher) Port() int {
	return f.port
}

// Boundary returns the configured boundary mode.
func (f *Fetcher) Boundary() BoundaryMode {
	return f.boundary
}

// Fetch retrieves rawURL and returns the document body.
// Errors are *Error values wrapping one of the package sentinels.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Response, error) {
	state := StateIdle
	fail := func(err error) (*Response, error) {
		f.logger.Debug("fetch failed", "url", rawURL, "state", state.String(), "error", err)
		return nil, &Error{URL: rawURL, State: state, Err: err}
	}

	addr := SplitAddress(rawURL)
	if !addr.Valid() {
		return fail(fmt.Errorf("%w: %q", ErrEmptyHost, rawURL))
	}
	port := f.port
	if addr.Port != 0 {
		port = addr.Port
	}
	state = StateAddressResolved
	f.logger.Debug("fetch state", "url", rawURL, "state", state.String(), "host", addr.Host, "port", port)

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	conn, err := f.dialer.DialContext(ctx, "tcp", net.JoinHostPort(addr.Host, strconv.Itoa(port)))
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrConnect, err))
	}
	defer conn.Close()

	// Unblock reads and writes when the context ends.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	state = StateConnected
	f.logger.Debug("fetch state", "url", rawURL, "state", state.String())

	w := bufio.NewWriter(conn)
	if _, err := w.Write(BuildRequest(addr, port, f.userAgent)); err != nil {
		return fail(fmt.Errorf("%w: %w", ErrWrite, err))
	}
	if err := w.Flush(); err != nil {
		return fail(fmt.Errorf("%w: %w", ErrWrite, err))
	}
	state = StateRequestSent
	f.logger.Debug("fetch state", "url", rawURL, "state", state.String(), "target", addr.RequestTarget())

	raw, err := io.ReadAll(io.LimitReader(conn, f.maxBodySize+1))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return fail(fmt.Errorf("%w: %w", ErrRead, err))
	}
	truncated := int64(len(raw)) > f.maxBodySize
	if truncated {
		raw = raw[:f.maxBodySize]
		f.logger.Warn("response truncated", "url", rawURL, "limit", f.maxBodySize)
	}
	state = StateResponseReceived
	f.logger.Debug("fetch state", "url", rawURL, "state", state.String(), "bytes", len(raw))

	body, status, err := ExtractBody(raw, f.boundary)
	if err != nil {
		return fail(err)
	}
	state = StateBodyExtracted
	f.logger.Debug("fetch state", "url", rawURL, "state", state.String(), "status", status, "body_bytes", len(body))

	f.emit(rawURL, body)

	return &Response{
		URL:        rawURL,
		Address:    addr,
		Port:       port,
		StatusCode: status,
		Body:       body,
		RawSize:    len(raw),
		Truncated:  truncated,
	}, nil
}

// emit writes the extracted document to the diagnostic channels.
func (f *Fetcher) emit(rawURL string, body []byte) {
	f.logger.Debug("document", "url", rawURL, "body", string(body))

	if f.bodySink == nil {
		return
	}
	if _, err := fmt.Fprintf(f.bodySink, "%s\n", body); err != nil {
		f.logger.Warn("failed to write document to sink", "url", rawURL, "error", err)
	}
}
