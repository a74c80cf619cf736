package log

import (
	"context"
	"io"
	"log/slog"
)

// SecureHandler wraps an slog.Handler and masks sensitive attribute values
// before the record reaches the wrapped handler.
//
// An attribute is replaced with MaskValue when its key names a secret
// (see isSensitiveKey) or when a string value looks like one, such as a
// bearer token or a JWT. URL values are not masked outright: they keep
// scheme, host and path so log lines still show which source was fetched,
// and only the userinfo password and sensitive query values are replaced.
//
// Groups are sanitized recursively. Attributes added through WithAttrs are
// sanitized once when they are added, not on every record.
type SecureHandler struct {
	// handler receives the sanitized records. It is never nil.
	handler slog.Handler
}

// NewSecureHandler creates a new SecureHandler wrapping handler.
// All attributes are sanitized before they are passed on.
// A nil handler wraps slog.Default().Handler().
func NewSecureHandler(handler slog.Handler) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SecureHandler{handler: handler}
}

// Enabled reports whether the wrapped handler handles records at level.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle sanitizes the record's attributes and passes it on. The record is
// copied; r itself is not modified.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	sanitized := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		sanitized.AddAttrs(sanitizeAttr(a))
		return true
	})
	return h.handler.Handle(ctx, sanitized)
}

// WithAttrs returns a handler with the sanitized attrs added.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sanitized := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		sanitized[i] = sanitizeAttr(a)
	}
	return &SecureHandler{handler: h.handler.WithAttrs(sanitized)}
}

// WithGroup returns a handler that nests attributes under name.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name)}
}

// sanitizeAttr masks a single attribute, descending into groups.
func sanitizeAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		sanitized := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			sanitized[i] = sanitizeAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(sanitized...)}
	}

	if isSensitiveKey(a.Key) {
		return slog.String(a.Key, MaskValue)
	}

	if a.Value.Kind() == slog.KindString {
		s := a.Value.String()
		if isSensitiveValue(s) {
			return slog.String(a.Key, MaskValue)
		}
		if redacted := redactURL(s); redacted != s {
			return slog.String(a.Key, redacted)
		}
	}

	return a
}

// level maps the verbose flag to a minimum level.
func level(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

// NewSecureLogger creates a text logger writing to w through a SecureHandler.
// verbose selects Debug, otherwise only warnings and errors are written.
//
// The handler issues one Write per record. Callers that share w with other
// writers running concurrently must serialize access to w themselves.
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level(verbose)})
	return slog.New(NewSecureHandler(h))
}

// NewSecureJSONLogger is NewSecureLogger with JSON output.
func NewSecureJSONLogger(w io.Writer, verbose bool) *slog.Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level(verbose)})
	return slog.New(NewSecureHandler(h))
}
