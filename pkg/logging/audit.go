package logging

import (
	"context"
	"log/slog"
	"unicode/utf8"
)

// sessionIDPrefixLength is how much of a session ID ends up in log output.
const sessionIDPrefixLength = 8

// AuditEvent describes a security-relevant action (login, logout, chat turn).
type AuditEvent struct {
	Action    string
	Outcome   string
	User      string
	SessionID string
	Detail    string
}

// Audit logs the event at INFO level with an [AUDIT] prefix.
func Audit(ev AuditEvent) {
	l := logger()
	if l == nil {
		return
	}
	attrs := []slog.Attr{
		slog.String("subsystem", "Audit"),
		slog.String("action", ev.Action),
		slog.String("outcome", ev.Outcome),
		slog.String("user", ev.User),
	}
	if ev.SessionID != "" {
		attrs = append(attrs, slog.String("session", TruncateSessionID(ev.SessionID)))
	}
	if ev.Detail != "" {
		attrs = append(attrs, slog.String("detail", ev.Detail))
	}
	l.LogAttrs(context.Background(), slog.LevelInfo, "[AUDIT] "+ev.Action, attrs...)
}

// TruncateSessionID keeps the first few characters of a session ID for correlation.
func TruncateSessionID(id string) string {
	if len(id) <= sessionIDPrefixLength {
		return id
	}
	return id[:sessionIDPrefixLength] + "..."
}

// Preview shortens user content for log lines, appending "..." when cut.
func Preview(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max]) + "..."
}
