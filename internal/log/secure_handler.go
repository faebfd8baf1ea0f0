package log

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"
)

// MaskValue replaces redacted attribute values.
const MaskValue = "***REDACTED***"

// redactedKeys are attribute keys whose values never reach the output.
// Keys are compared lower-cased with '-' and '_' removed, so "firebase_id",
// "firebaseId" and "Firebase-ID" all match "firebaseid".
var redactedKeys = map[string]bool{
	"authorization":      true,
	"proxyauthorization": true,
	"cookie":             true,
	"setcookie":          true,
	"xapikey":            true,
	"apikey":             true,
	"bearer":             true,
	"password":           true,
	"email":              true,
	"firebaseid":         true,
	"joincode":           true,
}

// redactedKeywords mask any key that contains them.
var redactedKeywords = []string{"token", "secret", "password", "credential"}

// redactedPatterns mask string values regardless of their key.
var redactedPatterns = []*regexp.Regexp{
	// JWTs, including Firebase ID tokens
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`),
	regexp.MustCompile(`(?i)^bearer\s+.+`),
	regexp.MustCompile(`(?i)^basic\s+[A-Za-z0-9+/=]+$`),
	// email addresses
	regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[A-Za-z]{2,}$`),
	// long opaque keys
	regexp.MustCompile(`^[a-zA-Z0-9]{40,}$`),
}

// SecureHandler wraps an slog.Handler and masks credentials and personal
// data (tokens, emails, Firebase ids, join codes) before records reach
// the wrapped handler.
type SecureHandler struct {
	handler slog.Handler
}

// NewSecureHandler wraps handler. A nil handler means slog.Default().Handler().
func NewSecureHandler(handler slog.Handler) *SecureHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &SecureHandler{handler: handler}
}

// Enabled delegates to the wrapped handler.
func (h *SecureHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle masks the record's attributes and forwards it.
func (h *SecureHandler) Handle(ctx context.Context, r slog.Record) error {
	masked := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		masked.AddAttrs(redact(a))
		return true
	})
	return h.handler.Handle(ctx, masked)
}

// WithAttrs masks attrs before attaching them.
func (h *SecureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		masked[i] = redact(a)
	}
	return &SecureHandler{handler: h.handler.WithAttrs(masked)}
}

// WithGroup implements slog.Handler.
func (h *SecureHandler) WithGroup(name string) slog.Handler {
	return &SecureHandler{handler: h.handler.WithGroup(name)}
}

// redact masks a single attribute. Groups are walked recursively and
// LogValuers are resolved first so their output is inspected too.
func redact(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		masked := make([]slog.Attr, len(attrs))
		for i, ga := range attrs {
			masked[i] = redact(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(masked...)}
	}

	if isRedactedKey(a.Key) {
		return slog.String(a.Key, MaskValue)
	}
	if a.Value.Kind() == slog.KindString && isRedactedValue(a.Value.String()) {
		return slog.String(a.Key, MaskValue)
	}
	return a
}

func normalizeKey(key string) string {
	return strings.NewReplacer("-", "", "_", "").Replace(strings.ToLower(key))
}

func isRedactedKey(key string) bool {
	k := normalizeKey(key)
	if redactedKeys[k] {
		return true
	}
	for _, kw := range redactedKeywords {
		if strings.Contains(k, kw) {
			return true
		}
	}
	return false
}

func isRedactedValue(v string) bool {
	for _, p := range redactedPatterns {
		if p.MatchString(v) {
			return true
		}
	}
	return false
}

// Options selects the logger's level and output format.
type Options struct {
	// Verbose lowers the level from Warn to Debug.
	Verbose bool
	// JSON switches from text to JSON lines.
	JSON bool
}

// New returns a masking logger writing to w.
func New(w io.Writer, opts Options) *slog.Logger {
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	ho := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if opts.JSON {
		h = slog.NewJSONHandler(w, ho)
	} else {
		h = slog.NewTextHandler(w, ho)
	}
	return slog.New(NewSecureHandler(h))
}

// NewSecureLogger returns a text logger at Debug (verbose) or Warn level.
func NewSecureLogger(w io.Writer, verbose bool) *slog.Logger {
	return New(w, Options{Verbose: verbose})
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
