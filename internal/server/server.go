// Package server is the HTTP and WebSocket adapter of an editor session.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matthewbaird/pedigree/internal/activity"
	"github.com/matthewbaird/pedigree/internal/clinical"
	"github.com/matthewbaird/pedigree/internal/editor"
	"github.com/matthewbaird/pedigree/internal/menu"
	"github.com/matthewbaird/pedigree/internal/pedigree"
)

// Session is the editor surface the server drives.
type Session interface {
	AddPerson(ctx context.Context, id string) error
	RemovePerson(ctx context.Context, id string) error
	SetRelations(ctx context.Context, id string, r pedigree.Relations) error
	Document() pedigree.Document
	LoadDocument(ctx context.Context, doc pedigree.Document)
	Load(ctx context.Context) error
	Save(ctx context.Context) error
	Legends() []editor.LegendView

	ShowMenu(ctx context.Context, id string) error
	HideMenu(ctx context.Context)
	ClickOutside(ctx context.Context, r menu.Region)
	Input(ctx context.Context, field string, raw any) error
	View() menu.View

	Genes(ctx context.Context) ([]clinical.GeneOption, error)
	Disorders(ctx context.Context) ([]clinical.DisorderOption, error)
	HPOTerms(ctx context.Context) ([]clinical.HPOOption, error)
}

// Server routes requests to a session.
type Server struct {
	session Session
	store   activity.Store
	metrics http.Handler
	hub     *Hub
	logger  *slog.Logger
}

// New returns a server. metrics may be nil.
func New(session Session, store activity.Store, metrics http.Handler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if metrics == nil {
		metrics = http.NotFoundHandler()
	}
	return &Server{
		session: session,
		store:   store,
		metrics: metrics,
		hub:     NewHub(session, logger),
		logger:  logger.With("component", "server"),
	}
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *Hub { return s.hub }

// Handler returns the router with every route registered.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", s.metrics)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/ws", s.hub.ServeHTTP)

		r.Get("/catalog/genes", catalogHandler(s, s.session.Genes))
		r.Get("/catalog/disorders", catalogHandler(s, s.session.Disorders))
		r.Get("/catalog/hpo", catalogHandler(s, s.session.HPOTerms))

		r.Get("/pedigree", s.handleGetPedigree)
		r.Put("/pedigree", s.handlePutPedigree)
		r.Post("/pedigree/load", s.handleLoadPedigree)
		r.Post("/pedigree/save", s.handleSavePedigree)
		r.Get("/legends", s.handleLegends)

		r.Post("/persons", s.handleAddPerson)
		r.Delete("/persons/{id}", s.handleRemovePerson)
		r.Put("/persons/{id}/relations", s.handleSetRelations)

		r.Get("/menu", s.handleGetMenu)
		r.Post("/menu/show", s.handleShowMenu)
		r.Post("/menu/hide", s.handleHideMenu)
		r.Post("/menu/input", s.handleMenuInput)
		r.Post("/menu/click", s.handleMenuClick)

		r.Get("/activity/entity/{entity_type}/{entity_id}", s.handleEntityActivity)
		r.Post("/activity/search", s.handleSearchActivity)
	})
	return r
}

// Run serves h on addr until ctx is cancelled.
func Run(ctx context.Context, addr string, h http.Handler, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	server := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown", "err", err)
		}
	}()

	logger.Info("starting server", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
