// Package web serves the graphcal pages: sign-in, the week view and the
// new-event form.
package web

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/custodia-labs/graphcal/internal/core/ports/driving"
	"github.com/custodia-labs/graphcal/internal/logger"
)

// Defaults for Options.
const (
	DefaultCallbackPath  = "/signin-oidc"
	DefaultPruneSchedule = "@every 10m"
	shutdownTimeout      = 10 * time.Second
)

// Options configures the web server.
type Options struct {
	// CallbackPath is the OAuth redirect path.
	CallbackPath string
	// SecureCookies sets the Secure attribute on cookies.
	SecureCookies bool
	// TemplateDir loads templates from disk and reloads them on change.
	// Empty uses the embedded templates.
	TemplateDir string
	// PruneSchedule is the cron schedule for removing expired sessions.
	PruneSchedule string
}

// Server serves the graphcal web UI.
type Server struct {
	opts      Options
	calendar  driving.CalendarService
	signin    driving.SignInService
	templates *Templates
	mux       *http.ServeMux
	now       func() time.Time
}

// NewServer constructs a Server and parses its templates.
func NewServer(opts Options, calendar driving.CalendarService, signin driving.SignInService) (*Server, error) {
	if opts.CallbackPath == "" {
		opts.CallbackPath = DefaultCallbackPath
	}
	if opts.PruneSchedule == "" {
		opts.PruneSchedule = DefaultPruneSchedule
	}

	templates, err := NewTemplates(opts.TemplateDir)
	if err != nil {
		return nil, err
	}

	s := &Server{
		opts:      opts,
		calendar:  calendar,
		signin:    signin,
		templates: templates,
		mux:       http.NewServeMux(),
		now:       time.Now,
	}
	if err := s.registerRoutes(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Server) registerRoutes() error {
	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return err
	}
	files := http.FileServerFS(static)

	s.mux.HandleFunc("GET /{$}", s.handleHome)
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /signin", s.handleSignIn)
	s.mux.HandleFunc("GET "+s.opts.CallbackPath, s.handleCallback)
	s.mux.HandleFunc("GET /signout", s.handleSignOut)
	s.mux.HandleFunc("GET /calendar", s.requireSession(s.handleCalendar))
	s.mux.HandleFunc("GET /calendar/new", s.requireSession(s.handleNewEventForm))
	s.mux.HandleFunc("POST /calendar/new", s.requireSession(s.handleNewEventSubmit))
	s.mux.HandleFunc("GET /home/error", s.handleError)
	s.mux.Handle("GET /img/", files)
	s.mux.Handle("GET /css/", files)
	return nil
}

// Handler returns the root handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.recoverMiddleware(s.logMiddleware(s.sessionMiddleware(s.mux)))
}

// Run listens on addr and serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
// Session pruning and template watching run for the lifetime of the server.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	bgCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(s.opts.PruneSchedule, func() { s.prune(bgCtx) }); err != nil {
		return fmt.Errorf("invalid prune schedule %q: %w", s.opts.PruneSchedule, err)
	}
	scheduler.Start()
	defer func() {
		cancel()
		<-scheduler.Stop().Done()
	}()

	go func() {
		if err := s.templates.Watch(bgCtx); err != nil {
			logger.Warn("web: template reload disabled: %v", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	logger.Info("web: listening on http://%s", ln.Addr())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("web: shutting down")
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) prune(ctx context.Context) {
	if err := s.signin.PruneExpired(ctx); err != nil {
		logger.Warn("web: prune sessions: %v", err)
	}
}
