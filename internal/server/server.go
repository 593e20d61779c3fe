// Package server assembles the site: middleware, CORS, the page routes, the
// demo hosting API and the account, progress and community endpoints.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/yavin-ai/yavin/internal/accounts"
	"github.com/yavin-ai/yavin/internal/chat"
	"github.com/yavin-ai/yavin/internal/db"
	"github.com/yavin-ai/yavin/internal/feedback"
	"github.com/yavin-ai/yavin/internal/newsletter"
	"github.com/yavin-ai/yavin/internal/pages"
	"github.com/yavin-ai/yavin/internal/search"
	"github.com/yavin-ai/yavin/internal/tracking"
	"github.com/yavin-ai/yavin/internal/viewer"
)

// sessionSweepInterval is how often expired login sessions are purged.
const sessionSweepInterval = time.Hour

// Config holds server configuration.
type Config struct {
	Host         string
	Port         int
	AllowAll     bool // allow all CORS origins (dev mode)
	CookieSecure bool // mark session cookies Secure (HTTPS deployments)
	Theme        string
}

// Deps are the components built outside the server. Nil fields disable the
// routes that need them, except Library which is required.
type Deps struct {
	Library   *pages.Library
	Index     *search.Index
	Viewer    *viewer.Registry
	Assistant *chat.Assistant
}

// Server is the yavin HTTP server.
type Server struct {
	cfg        Config
	db         *db.DB
	deps       Deps
	users      *accounts.Store
	chats      *chat.Store
	router     chi.Router
	httpServer *http.Server
	stop       context.CancelFunc
}

// New creates a server over database. The stores for accounts, progress,
// newsletter, feedback and chat are created here from database.
func New(cfg Config, database *db.DB, deps Deps) (*Server, error) {
	if deps.Library == nil {
		return nil, fmt.Errorf("server: lesson library is required")
	}
	s := &Server{
		cfg:   cfg,
		db:    database,
		deps:  deps,
		users: accounts.NewStore(database),
		chats: chat.NewStore(database),
	}
	if s.deps.Viewer == nil {
		s.deps.Viewer = viewer.NewRegistry(viewer.NewStore(database), viewer.DefaultSettings())
	}
	if s.deps.Assistant == nil {
		s.deps.Assistant = chat.NewAssistant(s.chats, nil, chat.DefaultOptions())
	}

	router, err := s.buildRouter()
	if err != nil {
		return nil, err
	}
	s.router = router
	return s, nil
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() (chi.Router, error) {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))
	r.Use(accounts.Middleware(s.users))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Websocket streams outlive any request timeout, so the demo API sits
	// outside the timeout group.
	viewer.RegisterRoutes(r, s.deps.Viewer)

	site, err := pages.NewSite(s.deps.Library, s.users, s.cfg.Theme)
	if err != nil {
		return nil, err
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		accounts.RegisterRoutes(r, s.users, s.cfg.CookieSecure)
		tracking.RegisterRoutes(r, tracking.NewStore(s.db), s.users)
		newsletter.RegisterRoutes(r, newsletter.NewStore(s.db))
		feedback.RegisterRoutes(r, feedback.NewStore(s.db))
		chat.RegisterRoutes(r, s.deps.Assistant, s.chats)
		if s.deps.Index != nil {
			search.RegisterRoutes(r, s.deps.Index)
		}
		pages.RegisterRoutes(r, site)
	})

	return r, nil
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() chi.Router { return s.router }

// Database returns the database connection.
func (s *Server) Database() *db.DB { return s.db }

// Viewer returns the demo registry.
func (s *Server) Viewer() *viewer.Registry { return s.deps.Viewer }

// Addr returns the host:port the server listens on.
func (s *Server) Addr() string {
	return net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
}

// Start begins listening on the configured address. It blocks until the
// server stops and returns http.ErrServerClosed after Shutdown.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.stop = cancel
	go s.sweepSessions(ctx)

	s.httpServer = &http.Server{
		Addr:              s.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("yavin server listening on http://%s", s.Addr())
	return s.httpServer.ListenAndServe()
}

func (s *Server) sweepSessions(ctx context.Context) {
	ticker := time.NewTicker(sessionSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.users.PurgeExpiredSessions(ctx)
			if err != nil {
				log.Printf("server: purging sessions: %v", err)
			} else if n > 0 {
				log.Printf("server: purged %d expired sessions", n)
			}
		}
	}
}

// Shutdown stops accepting requests, waits for in-flight ones and stops every
// running demo.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.stop != nil {
		s.stop()
	}
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	s.deps.Viewer.Close()
	return err
}
