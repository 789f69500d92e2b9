// Package web serves the arith web application.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zephyrtronium/arith/internal/auth"
	"github.com/zephyrtronium/arith/internal/calc"
	"github.com/zephyrtronium/arith/internal/store"
)

//go:embed templates/*.html
var templateFiles embed.FS

// Users is the part of the store the server uses directly.
type Users interface {
	UserByID(ctx context.Context, id int64) (store.User, error)
	Ping(ctx context.Context) error
}

// Config holds the server's collaborators.
type Config struct {
	// Addr is the listen address.
	Addr     string
	Calc     *calc.Service
	Auth     *auth.Authenticator
	Sessions *auth.Sessions
	Users    Users
	// Metrics is served at /metrics. If nil, the default gatherer is used.
	Metrics prometheus.Gatherer
	// MaxExprLen is shown to browsers as the expression input's length limit.
	MaxExprLen int
	Log        *slog.Logger
}

// Server provides the HTTP interface of the application.
type Server struct {
	calc     *calc.Service
	auth     *auth.Authenticator
	sessions *auth.Sessions
	users    Users
	maxLen   int
	log      *slog.Logger

	pages  map[string]*template.Template
	router *httprouter.Router
	server *http.Server
}

// NewServer creates a server. It does not start listening.
func NewServer(cfg Config) (*Server, error) {
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	g := cfg.Metrics
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	s := &Server{
		calc:     cfg.Calc,
		auth:     cfg.Auth,
		sessions: cfg.Sessions,
		users:    cfg.Users,
		maxLen:   cfg.MaxExprLen,
		log:      cfg.Log,
		pages:    pages,
		router:   httprouter.New(),
	}
	s.setupRoutes(g)
	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	return s, nil
}

func parsePages() (map[string]*template.Template, error) {
	layout, err := template.ParseFS(templateFiles, "templates/layout.html")
	if err != nil {
		return nil, errors.Wrap(err, "parsing layout")
	}
	pages := make(map[string]*template.Template)
	for _, name := range []string{"login", "register", "dashboard"} {
		t, err := template.Must(layout.Clone()).ParseFS(templateFiles, "templates/"+name+".html")
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %s", name)
		}
		pages[name] = t
	}
	return pages, nil
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes(metrics prometheus.Gatherer) {
	s.router.GET("/", s.handleIndex)

	s.router.GET("/register", s.handleRegisterPage)
	s.router.POST("/register", s.handleRegister)
	s.router.GET("/login", s.handleLoginPage)
	s.router.POST("/login", s.handleLogin)

	s.router.GET("/dashboard", s.requireLogin(s.handleDashboard))
	s.router.POST("/submit_expression", s.requireLogin(s.handleSubmit))
	s.router.GET("/logout", s.requireLogin(s.handleLogout))

	s.router.GET("/health", s.handleHealth)
	s.router.Handler(http.MethodGet, "/metrics", promhttp.HandlerFor(metrics, promhttp.HandlerOpts{}))
}

// Handler returns the server's root handler.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.router)
}

// Start listens and serves until Stop is called. It returns nil after a
// clean shutdown.
func (s *Server) Start() error {
	s.log.Info("web server listening", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "serving")
	}
	return nil
}

// Stop gracefully shuts the server down, waiting up to five seconds for
// in-flight requests.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

type pageData struct {
	Title   string
	Flashes []string
	Email   string
	History []store.Expression
	MaxLen  int
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data pageData) {
	data.Flashes = s.sessions.Flashes(w, r)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.pages[name].ExecuteTemplate(w, "layout", data); err != nil {
		s.log.ErrorContext(r.Context(), "rendering page", "page", name, "err", err)
	}
}

// flash queues msg for the next page and redirects there.
func (s *Server) flash(w http.ResponseWriter, r *http.Request, msg, to string) {
	if err := s.sessions.AddFlash(w, r, msg); err != nil {
		s.fail(w, r, err)
		return
	}
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// fail logs an internal error and reports it without details.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	s.log.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	status, code := "ok", http.StatusOK
	if err := s.users.Ping(r.Context()); err != nil {
		s.log.ErrorContext(r.Context(), "health check", "err", err)
		status, code = "unavailable", http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	})
}
