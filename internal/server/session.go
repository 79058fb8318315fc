package server

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/matthewbaird/pedigree/internal/pedigree"
)

func catalogHandler[T any](s *Server, fetch func(context.Context) ([]T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		items, err := fetch(r.Context())
		if err != nil {
			s.logger.Warn("catalog unavailable", "path", r.URL.Path, "err", err)
			writeError(w, http.StatusBadGateway, "CATALOG_UNAVAILABLE", err.Error())
			return
		}
		if items == nil {
			items = []T{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})
	}
}

// GET /v1/pedigree
func (s *Server) handleGetPedigree(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Document())
}

// PUT /v1/pedigree replaces the pedigree with the request body.
func (s *Server) handlePutPedigree(w http.ResponseWriter, r *http.Request) {
	var doc pedigree.Document
	if err := decodeJSON(r, &doc); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid pedigree document")
		return
	}
	s.session.LoadDocument(r.Context(), doc)
	writeJSON(w, http.StatusOK, s.session.Document())
}

// POST /v1/pedigree/load reloads the pedigree stored in the registry.
func (s *Server) handleLoadPedigree(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Load(r.Context()); err != nil {
		s.domainErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.session.Document())
}

// POST /v1/pedigree/save
func (s *Server) handleSavePedigree(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Save(r.Context()); err != nil {
		s.domainErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /v1/legends
func (s *Server) handleLegends(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.Legends())
}

// POST /v1/persons
func (s *Server) handleAddPerson(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := decodeJSON(r, &req); err != nil || req.ID == "" {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "id is required")
		return
	}
	if err := s.session.AddPerson(r.Context(), req.ID); err != nil {
		s.domainErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": req.ID})
}

// DELETE /v1/persons/{id}
func (s *Server) handleRemovePerson(w http.ResponseWriter, r *http.Request) {
	if err := s.session.RemovePerson(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.domainErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PUT /v1/persons/{id}/relations
func (s *Server) handleSetRelations(w http.ResponseWriter, r *http.Request) {
	var rel pedigree.Relations
	if err := decodeJSON(r, &rel); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid relations")
		return
	}
	if err := s.session.SetRelations(r.Context(), chi.URLParam(r, "id"), rel); err != nil {
		s.domainErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /v1/menu
func (s *Server) handleGetMenu(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.session.View())
}

// POST /v1/menu/show
func (s *Server) handleShowMenu(w http.ResponseWriter, r *http.Request) {
	var req ShowData
	if err := decodeJSON(r, &req); err != nil || req.NodeID == "" {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "node_id is required")
		return
	}
	if err := s.session.ShowMenu(r.Context(), req.NodeID); err != nil {
		s.domainErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.session.View())
}

// POST /v1/menu/hide
func (s *Server) handleHideMenu(w http.ResponseWriter, r *http.Request) {
	s.session.HideMenu(r.Context())
	writeJSON(w, http.StatusOK, s.session.View())
}

// POST /v1/menu/input
func (s *Server) handleMenuInput(w http.ResponseWriter, r *http.Request) {
	var req InputData
	if err := decodeJSON(r, &req); err != nil || req.Field == "" {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "field is required")
		return
	}
	if err := s.session.Input(r.Context(), req.Field, req.Value); err != nil {
		s.domainErrorToHTTP(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.session.View())
}

// POST /v1/menu/click
func (s *Server) handleMenuClick(w http.ResponseWriter, r *http.Request) {
	var req ClickData
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", "Invalid request body")
		return
	}
	region, ok := regions[req.Region]
	if !ok {
		writeError(w, http.StatusBadRequest, "INVALID_REGION", "region must be menu, picker or canvas")
		return
	}
	s.session.ClickOutside(r.Context(), region)
	writeJSON(w, http.StatusOK, s.session.View())
}
