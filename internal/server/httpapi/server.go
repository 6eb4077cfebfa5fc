// Package httpapi exposes the application core as an HTTP JSON API.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/spacebox-app/spacebox/internal/logging"
	"github.com/spacebox-app/spacebox/internal/server/services"
)

const (
	rateLimitRequests = 60
	rateLimitWindow   = time.Minute
	shutdownTimeout   = 10 * time.Second
)

type Server struct {
	address  string
	logger   logging.Logger
	users    *services.UserService
	spaces   *services.SpaceService
	uploads  *services.UploadService
	contents *services.ContentService
}

func NewServer(address string, logger logging.Logger, us *services.UserService, ss *services.SpaceService, ups *services.UploadService, cs *services.ContentService) *Server {
	return &Server{
		address:  address,
		logger:   logger.With("module", "http_server"),
		users:    us,
		spaces:   ss,
		uploads:  ups,
		contents: cs,
	}
}

// Router builds the chi router with all routes and middleware attached.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	// public read surface
	r.Get("/s/{slug}", s.handleSpaceBySlug)
	r.Get("/p/{slug}", s.handlePublicProfile)

	r.Route("/api", func(r chi.Router) {
		r.Use(httprate.Limit(
			rateLimitRequests,
			rateLimitWindow,
			httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
		))

		// pseudo-signup is the only unauthenticated mutation
		r.Post("/users", s.handleCreateUser)

		r.Group(func(r chi.Router) {
			r.Use(s.withAuth)

			r.Get("/me", s.handleGetMe)
			r.Patch("/me", s.handleUpdateMe)

			r.Post("/spaces", s.handleCreateSpace)
			r.Get("/spaces", s.handleListSpaces)
			r.Patch("/spaces/{id}", s.handleUpdateSpace)
			r.Delete("/spaces/{id}", s.handleDeleteSpace)
			r.Get("/spaces/{id}/contents", s.handleSpaceContents)

			r.Post("/uploads", s.handleOpenIntent)
			r.Get("/uploads/pending", s.handleListPending)
			r.Post("/uploads/{id}/finalize", s.handleFinalize)
			r.Post("/uploads/{id}/fail", s.handleMarkFailed)
			r.Post("/uploads/{id}/presign", s.handlePresign)
			r.Post("/upload", s.handleRelay)

			r.Post("/contents", s.handleCreateDirect)
			r.Delete("/contents/{id}", s.handleDeleteContent)
		})
	})

	return r
}

// Run starts the HTTP server and shuts it down gracefully when ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
