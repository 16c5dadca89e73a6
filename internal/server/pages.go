package server

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/Masterminds/sprig/v3"

	"chatgate/internal/session"
	"chatgate/pkg/logging"
)

//go:embed templates/*.html
var templateFS embed.FS

// Pages renders the HTML templates.
type Pages struct {
	title string
	login *template.Template
	chat  *template.Template
}

type loginData struct {
	Title string
	Error string
}

type chatData struct {
	Title   string
	User    string
	History []session.ChatMessage
}

// NewPages parses the embedded templates.
func NewPages(title string) (*Pages, error) {
	parse := func(name string) (*template.Template, error) {
		t, err := template.New(name).Funcs(sprig.FuncMap()).ParseFS(templateFS, "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		return t, nil
	}

	login, err := parse("login.html")
	if err != nil {
		return nil, err
	}
	chat, err := parse("chat.html")
	if err != nil {
		return nil, err
	}
	return &Pages{title: title, login: login, chat: chat}, nil
}

// RenderLogin renders the login page with an optional error message.
func (p *Pages) RenderLogin(w http.ResponseWriter, _ *http.Request, errMsg string) {
	p.render(w, p.login, loginData{Title: p.title, Error: errMsg})
}

// RenderChat renders the transcript for the signed-in user.
func (p *Pages) RenderChat(w http.ResponseWriter, user string, history []session.ChatMessage) {
	p.render(w, p.chat, chatData{Title: p.title, User: user, History: history})
}

func (p *Pages) render(w http.ResponseWriter, t *template.Template, data any) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		logging.Error("Server", err, "Failed to render template %s", t.Name())
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
