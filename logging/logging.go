// Package logging builds Fritter's structured logger.
//
// Records are fanned out to a console handler and, from a configurable level up,
// to an audit handler that turns each record into a domain.Log and hands it to a
// sink (normally the application's asynchronous database writer).
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	slogmulti "github.com/samber/slog-multi"
	"github.com/tfkr-ae/fritter/domain"
)

// UserIDKey is the attribute key whose value is lifted into domain.Log.UserID.
const UserIDKey = "user_id"

// Sink receives audit log entries.
type Sink func(log *domain.Log) error

// Options configures New.
type Options struct {
	Level      string // Console level: debug, info, warn or error.
	Format     string // Console format: text or json.
	AuditLevel string // Minimum level persisted through the sink.
}

// ParseLevel converts a level name into a slog.Level. Unknown names are an error.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("level should be either: debug, info, warn, error, got %q", name)
	}
}

// New returns a logger writing to w and, when sink is not nil, to the audit sink.
func New(w io.Writer, opts Options, sink Sink) (*slog.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	handlerOptions := &slog.HandlerOptions{Level: level}
	var console slog.Handler
	switch strings.ToLower(opts.Format) {
	case "", "text":
		console = slog.NewTextHandler(w, handlerOptions)
	case "json":
		console = slog.NewJSONHandler(w, handlerOptions)
	default:
		return nil, fmt.Errorf("log format should be either: text, json, got %q", opts.Format)
	}

	if sink == nil {
		return slog.New(console), nil
	}

	auditLevel, err := ParseLevel(opts.AuditLevel)
	if err != nil {
		return nil, fmt.Errorf("audit %w", err)
	}

	return slog.New(slogmulti.Fanout(console, NewAuditHandler(auditLevel, sink))), nil
}

// AuditHandler is a slog.Handler that converts records into domain.Log entries.
type AuditHandler struct {
	level  slog.Leveler
	sink   Sink
	prefix string      // Dotted path of the groups opened with WithGroup.
	preset *domain.Log // Context and user collected through WithAttrs.
}

var _ slog.Handler = (*AuditHandler)(nil)

// NewAuditHandler creates an AuditHandler passing records at or above level to sink.
func NewAuditHandler(level slog.Leveler, sink Sink) *AuditHandler {
	return &AuditHandler{
		level:  level,
		sink:   sink,
		preset: &domain.Log{Context: make(map[string]any)},
	}
}

func (h *AuditHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *AuditHandler) Handle(_ context.Context, record slog.Record) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generating new uuid : %w", err)
	}

	timestamp := record.Time
	if timestamp.IsZero() {
		timestamp = time.Now()
	}

	entry := &domain.Log{
		ID:        id,
		Timestamp: timestamp,
		Level:     record.Level.String(),
		Message:   record.Message,
		Context:   make(map[string]any, len(h.preset.Context)+record.NumAttrs()),
		UserID:    h.preset.UserID,
	}
	for key, value := range h.preset.Context {
		entry.Context[key] = value
	}

	record.Attrs(func(attr slog.Attr) bool {
		addAttr(entry, h.prefix, attr)
		return true
	})

	return h.sink(entry)
}

func (h *AuditHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.preset = &domain.Log{
		Context: make(map[string]any, len(h.preset.Context)+len(attrs)),
		UserID:  h.preset.UserID,
	}
	for key, value := range h.preset.Context {
		clone.preset.Context[key] = value
	}
	for _, attr := range attrs {
		addAttr(clone.preset, h.prefix, attr)
	}
	return &clone
}

func (h *AuditHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.prefix = joinKey(h.prefix, name)
	return &clone
}

// addAttr flattens attr into entry.Context under prefix. A top-level user_id
// attribute holding a UUID becomes entry.UserID instead.
func addAttr(entry *domain.Log, prefix string, attr slog.Attr) {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return
	}

	if attr.Key == UserIDKey && prefix == "" {
		if id, err := uuid.Parse(attr.Value.String()); err == nil {
			entry.UserID = &id
			return
		}
	}

	key := joinKey(prefix, attr.Key)
	switch attr.Value.Kind() {
	case slog.KindGroup:
		for _, child := range attr.Value.Group() {
			addAttr(entry, key, child)
		}
	case slog.KindTime:
		entry.Context[key] = attr.Value.Time().UTC().Format(time.RFC3339Nano)
	case slog.KindDuration:
		entry.Context[key] = attr.Value.Duration().String()
	default:
		value := attr.Value.Any()
		switch v := value.(type) {
		case error:
			value = v.Error()
		case fmt.Stringer:
			value = v.String()
		}
		entry.Context[key] = value
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	if key == "" {
		return prefix
	}
	return prefix + "." + key
}
