// Package logging provides subsystem-tagged structured logging for chatgate.
//
// It is a thin layer over log/slog. Every entry carries a "subsystem" attribute
// so log aggregation can filter by component (Bootstrap, Config, OAuth, Session,
// Completion, HTTP).
//
// # Usage
//
//	logging.Init(logging.LevelInfo, logging.FormatJSON, os.Stdout)
//
//	logging.Info("Bootstrap", "Listening on %s", addr)
//	logging.Warn("OAuth", "State mismatch - possible CSRF attack")
//	logging.Error("Completion", err, "Model call failed for user=%s", user)
//
// # Audit Logging
//
// Login, logout and chat activity are recorded through Audit:
//
//	logging.Audit(logging.AuditEvent{
//	    Action:    "login",
//	    Outcome:   "success",
//	    User:      claims.Username(),
//	    SessionID: sess.ID,
//	})
//
// Session IDs are truncated to their first 8 characters and chat content is
// shortened with Preview. Access tokens, refresh tokens and client secrets are
// never logged.
package logging
