// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer. It connects handlers, middleware, and routes,
// and it decides:
// - Which URL patterns map to which handler functions
// - What middleware runs on which routes
// - How the server starts and stops gracefully
//
// DEPENDENCY INJECTION FLOW:
// main.go loads config.Config and builds the logger, then
//
//	Server.New() creates: sqlite.DB → ImageStore → services → Renderer → handlers
//
// This is the "composition root" pattern: all dependencies are wired
// in one place (New/setupRoutes), rather than scattered across the codebase.
package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/blog/internal/auth"
	"github.com/sakif/blog/internal/config"
	"github.com/sakif/blog/internal/handler"
	"github.com/sakif/blog/internal/middleware"
	sqliteRepo "github.com/sakif/blog/internal/repository/sqlite"
	"github.com/sakif/blog/internal/service"
	"github.com/sakif/blog/internal/storage"
	"github.com/sakif/blog/web"
)

// Server represents the HTTP server and all its dependencies.
//
// RESOURCE MANAGEMENT:
// The Server owns the database connection. When the server shuts down we
// close it to flush the WAL and release the file lock (see Start and Close).
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	images storage.ImageStore
	cache  *middleware.PageCache
}

// New creates a Server from cfg.
//
// IMPORT ALIAS:
// We import repository/sqlite as `sqliteRepo` to avoid confusion with
// the sqlite driver package.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	images, err := newImageStore(cfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
		images: images,
		cache:  middleware.NewPageCache(cfg.IndexCacheTTL),
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// newImageStore picks S3 when a bucket is configured, the local media
// directory otherwise.
func newImageStore(cfg config.Config) (storage.ImageStore, error) {
	if cfg.S3.Enabled() {
		return storage.NewS3(storage.S3Options{
			Bucket:          cfg.S3.Bucket,
			Endpoint:        cfg.S3.Endpoint,
			Region:          cfg.S3.Region,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			PublicURL:       cfg.S3.PublicURL,
		}), nil
	}
	local, err := storage.NewLocal(cfg.MediaDir, cfg.MediaURL)
	if err != nil {
		return nil, fmt.Errorf("opening media directory: %w", err)
	}
	return local, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET       /                                 → latest posts (page cache)
//	GET       /group/{slug}/                    → one group's posts
//	GET, POST /new/                             → create a post          [login]
//	GET       /follow/                          → posts by followed authors [login]
//	GET       /about/author/, /about/tech/      → static pages
//	GET, POST /auth/signup/, /auth/login/       → account forms
//	GET, POST /auth/logout/                     → clear the session
//	GET       /auth/github/login, .../callback  → only with GitHub configured
//	GET       /static/*, /media/*               → assets and local images
//	GET       /healthz                          → database reachability for health checks
//	GET       /{username}/                      → profile
//	GET       /{username}/{postID}/             → post with comments
//	GET, POST /{username}/{postID}/edit/        → edit a post            [login, author]
//	GET, POST /{username}/{postID}/comment/     → add a comment          [login]
//	GET       /{username}/follow/, /unfollow/   → follow edges           [login]
//
// Chi matches static segments before {params}, so "/new/" never reaches
// the profile handler. Signup refuses usernames that would collide.
//
// MIDDLEWARE ORDER MATTERS:
// Middleware executes in the order it's added. Our order:
//  1. RequestID: assigns unique ID to each request (for tracing)
//  2. RealIP: extracts real client IP from proxy headers
//  3. Session: puts the signed-in user's ID into the context (if the account still exists)
//  4. Logger: logs each request with timing info (and the user from step 3)
//  5. Recover: catches panics and renders the 500 page instead of crashing
func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.SessionSecret, s.config.SessionTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	// === Services ===
	// s.db implements every repository interface.
	posts := service.NewPostService(s.db, s.db, s.db, s.images, s.config.PostsPerPage, s.logger)
	comments := service.NewCommentService(s.db, posts, s.logger)
	follows := service.NewFollowService(s.db, s.db, s.db, s.logger)
	accounts := service.NewAccountService(s.db, tokens, auth.NewPasswordService(), s.logger)

	// === Handlers ===
	render, err := handler.NewRenderer(web.Templates, posts.ImageURL, accounts, s.logger)
	if err != nil {
		return fmt.Errorf("parsing templates: %w", err)
	}

	var github *auth.GitHubProvider
	if s.config.GitHubEnabled() {
		github = auth.NewGitHubProvider(s.config.GitHubClientID, s.config.GitHubClientSecret, s.config.GitHubCallbackURL)
	}

	pages := handler.NewPageHandler(render)
	postHandler := handler.NewPostHandler(posts, comments, follows, render, s.logger)
	followHandler := handler.NewFollowHandler(follows, accounts, render, s.logger)
	authHandler := handler.NewAuthHandler(accounts, github, render, s.logger)

	// === Global Middleware ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(auth.Session(tokens, accounts.UserExists))
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Recover(s.logger, http.HandlerFunc(pages.HandleServerError)))

	s.router.NotFound(pages.HandleNotFound)

	// === Assets ===
	static, err := fs.Sub(web.Static, "static")
	if err != nil {
		return fmt.Errorf("opening static assets: %w", err)
	}
	s.router.Handle("/static/*", http.StripPrefix("/static/", noDirListing(http.FileServer(http.FS(static)), pages)))

	if local, ok := s.images.(*storage.Local); ok && strings.HasPrefix(s.config.MediaURL, "/") {
		files := http.FileServer(http.Dir(local.Dir()))
		s.router.Handle(s.config.MediaURL+"*", http.StripPrefix(s.config.MediaURL, noDirListing(files, pages)))
	}

	// === Pages ===
	if s.config.IndexCacheTTL > 0 {
		s.router.With(s.cache.Middleware).Get("/", postHandler.HandleIndex)
	} else {
		s.router.Get("/", postHandler.HandleIndex)
	}
	s.router.Get("/group/{slug}/", postHandler.HandleGroup)
	s.router.Get("/about/author/", pages.HandleAboutAuthor)
	s.router.Get("/about/tech/", pages.HandleAboutTech)
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/auth", func(r chi.Router) {
		r.Get("/signup/", authHandler.HandleSignup)
		r.Post("/signup/", authHandler.HandleSignup)
		r.Get("/login/", authHandler.HandleLogin)
		r.Post("/login/", authHandler.HandleLogin)
		r.Get("/logout/", authHandler.HandleLogout)
		r.Post("/logout/", authHandler.HandleLogout)
		if github != nil {
			r.Get("/github/login", authHandler.HandleGitHubLogin)
			r.Get("/github/callback", authHandler.HandleGitHubCallback)
		}
	})

	s.router.Get("/{username}/", postHandler.HandleProfile)
	s.router.Get("/{username}/{postID}/", postHandler.HandleView)

	// === Login required ===
	// auth.RequireLogin sends guests to /auth/login/?next=<this URL>.
	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireLogin)

		r.Get("/new/", postHandler.HandleNew)
		r.Post("/new/", postHandler.HandleNew)
		r.Get("/follow/", postHandler.HandleFeed)

		r.Get("/{username}/follow/", followHandler.HandleFollow)
		r.Get("/{username}/unfollow/", followHandler.HandleUnfollow)

		r.Get("/{username}/{postID}/edit/", postHandler.HandleEdit)
		r.Post("/{username}/{postID}/edit/", postHandler.HandleEdit)
		r.Get("/{username}/{postID}/comment/", postHandler.HandleComment)
		r.Post("/{username}/{postID}/comment/", postHandler.HandleComment)
	})

	return nil
}

// noDirListing answers directory URLs with the 404 page instead of an index
// of file names.
func noDirListing(next http.Handler, pages *handler.PageHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			pages.HandleNotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleHealth answers load balancer and container health checks. It is
// 200 "ok" while the database answers a ping, 503 otherwise.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := s.db.Ping(ctx); err != nil {
		s.logger.Error("health check failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("database unavailable\n"))
		return
	}
	w.Write([]byte("ok\n"))
}

// Handler is the fully wired router, for tests and for embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// DB is the server's database, for tests that need to seed data directly.
func (s *Server) DB() *sqliteRepo.DB {
	return s.db
}

// FlushCache drops every cached page.
func (s *Server) FlushCache() {
	s.cache.Flush()
}

// Close releases the database. Start calls it on shutdown.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Close the database connection (flushes WAL, releases file lock)
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
			slog.Bool("s3", s.config.S3.Enabled()),
			slog.Bool("github", s.config.GitHubEnabled()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
