package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"golang.org/x/time/rate"

	"chatgate/internal/completion"
	"chatgate/internal/config"
	"chatgate/internal/oauth"
	"chatgate/internal/session"
	"chatgate/pkg/logging"
)

// AppTitle is shown in page titles and headers.
const AppTitle = "chatgate"

// Responder runs one chat turn against the model.
type Responder interface {
	Respond(ctx context.Context, t completion.Transcript) (string, error)
}

// Options are the collaborators of a Server.
type Options struct {
	Config   *config.Config
	Sessions *session.Manager
	Tokens   *oauth.Manager
	Gateway  Responder
}

// Server serves the login flow and the chat surface.
type Server struct {
	cfg        *config.Config
	sessions   *session.Manager
	tokens     *oauth.Manager
	client     *oauth.Client
	gateway    Responder
	pages      *Pages
	auth       *oauth.Handler
	limiter    *RateLimiter
	httpServer *http.Server
}

// New creates a Server.
func New(opts Options) (*Server, error) {
	pages, err := NewPages(AppTitle)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      opts.Config,
		sessions: opts.Sessions,
		tokens:   opts.Tokens,
		client:   opts.Tokens.Client(),
		gateway:  opts.Gateway,
		pages:    pages,
	}

	s.auth = oauth.NewHandler(oauth.HandlerConfig{
		Client:          s.client,
		Sessions:        opts.Sessions,
		Pages:           pages,
		BaseURL:         s.baseURL,
		RedirectPath:    opts.Config.Auth.RedirectPath,
		PendingLoginTTL: opts.Config.Auth.PendingLoginTTL,
		ChatPath:        "/chat",
	})

	if rl := opts.Config.Server.RateLimit; rl.Enabled {
		s.limiter = NewRateLimiter(rate.Limit(rl.RequestsPerSecond), rl.Burst, opts.Config.Platform.Hosted)
	}

	return s, nil
}

// Handler builds the routed and wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.Handle("GET /login", s.limited(http.HandlerFunc(s.auth.HandleLogin)))
	mux.Handle("GET "+s.cfg.Auth.RedirectPath, s.limited(http.HandlerFunc(s.auth.HandleCallback)))
	mux.HandleFunc("GET /logout", s.auth.HandleLogout)
	mux.HandleFunc("GET /chat", s.handleChat)
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("GET /clear", s.handleClear)

	var h http.Handler = mux
	h = securityHeaders(s.cfg.Platform.Hosted, h)
	h = requestLogging(h)
	h = recoverer(h)
	return h
}

func (s *Server) limited(h http.Handler) http.Handler {
	if s.limiter == nil {
		return h
	}
	return s.limiter.Middleware(h)
}

// baseURL returns the externally visible scheme://host for the request.
func (s *Server) baseURL(r *http.Request) string {
	if s.cfg.Server.PublicURL != "" {
		return strings.TrimSuffix(s.cfg.Server.PublicURL, "/")
	}
	scheme := "http"
	if s.cfg.Platform.Hosted || r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.ListenAddr(),
		Handler:           s.Handler(),
		ReadHeaderTimeout: s.cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      s.cfg.Server.WriteTimeout,
		IdleTimeout:       s.cfg.Server.IdleTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	if s.limiter != nil {
		go s.limiter.Run(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("Server", "Listening on http://%s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logging.Info("Server", "Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	return s.Shutdown(shutdownCtx)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
