package server

import (
	"net/http"
	"strings"

	"chatgate/internal/session"
	"chatgate/pkg/logging"
)

// auditPreviewLength is how much of a message ends up in audit logs.
const auditPreviewLength = 100

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Load(r)
	if sess.Authenticated() {
		http.Redirect(w, r, "/chat", http.StatusFound)
		return
	}
	s.pages.RenderLogin(w, r, "")
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Load(r)
	if !sess.Authenticated() {
		logging.Warn("Server", "Unauthenticated access attempt to /chat")
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	token := s.tokens.Token(r.Context(), sess, s.client.Scopes())
	if token == nil {
		logging.Warn("Server", "Token expired for user=%s, redirecting to login", sess.User.Username())
		s.save(w, r, sess)
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}

	if r.Method == http.MethodPost {
		s.runTurn(r, sess)
	}

	if !s.save(w, r, sess) {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	s.pages.RenderChat(w, sess.User.DisplayName(), sess.History())
}

// runTurn appends the posted message and the model's answer to the transcript.
// Blank messages are ignored.
func (s *Server) runTurn(r *http.Request, sess *session.Session) {
	message := strings.TrimSpace(r.PostFormValue("message"))
	if message == "" {
		return
	}
	user := sess.User.Username()

	logging.Audit(logging.AuditEvent{
		Action:    "CHAT INPUT",
		Outcome:   "received",
		User:      user,
		SessionID: sess.ID,
		Detail:    logging.Preview(message, auditPreviewLength),
	})

	sess.Append(session.RoleUser, message)

	reply, err := s.gateway.Respond(r.Context(), sess)
	if err != nil {
		logging.Error("Completion", err, "Model call failed for user=%s", user)
		return
	}

	logging.Audit(logging.AuditEvent{
		Action:    "CHAT OUTPUT",
		Outcome:   "success",
		User:      user,
		SessionID: sess.ID,
		Detail:    logging.Preview(reply, auditPreviewLength),
	})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Load(r)
	if sess.Authenticated() {
		logging.Audit(logging.AuditEvent{
			Action:    "CHAT CLEARED",
			Outcome:   "success",
			User:      sess.User.Username(),
			SessionID: sess.ID,
		})
		sess.ClearHistory()
		s.save(w, r, sess)
	}
	http.Redirect(w, r, "/chat", http.StatusFound)
}

// save persists the session, logging failures. It reports whether the save succeeded.
func (s *Server) save(w http.ResponseWriter, r *http.Request, sess *session.Session) bool {
	if err := s.sessions.Save(r.Context(), w, sess); err != nil {
		logging.Error("Server", err, "Failed to save session=%s", logging.TruncateSessionID(sess.ID))
		return false
	}
	return true
}
