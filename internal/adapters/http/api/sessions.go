package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/gameday-grid/gameday/internal/domain/grid"
	"github.com/gameday-grid/gameday/internal/domain/types"
)

const maxActionBytes = 16 << 10

// SessionsHandler serves grid sessions and their actions.
type SessionsHandler struct {
	deps Dependencies
}

// NewSessionsHandler creates a new sessions handler.
func NewSessionsHandler(deps Dependencies) *SessionsHandler {
	return &SessionsHandler{deps: deps}
}

// actionRequest is the body of POST /sessions/{id}/actions.
type actionRequest struct {
	ActionID string `json:"action_id,omitempty"`
	grid.Action
}

type actionResponse struct {
	types.GridView
	Duplicate bool `json:"duplicate"`
}

type shareResponse struct {
	Query string `json:"query"`
}

// HandleCreate handles POST /sessions. Share-link parameters in the query
// string restore a grid.
func (h *SessionsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	id, s, err := h.deps.CreateSession(r.Context(), r.URL.Query())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Location", "/sessions/"+url.PathEscape(id))
	writeJSON(w, http.StatusCreated, types.NewGridView(id, s, h.deps.Catalog()))
}

// HandleGet handles GET /sessions/{id}.
func (h *SessionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s, err := h.deps.Session(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, types.NewGridView(id, s, h.deps.Catalog()))
}

// HandleDelete handles DELETE /sessions/{id}.
func (h *SessionsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.DeleteSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleShare handles GET /sessions/{id}/share.
func (h *SessionsHandler) HandleShare(w http.ResponseWriter, r *http.Request) {
	s, err := h.deps.Session(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, shareResponse{Query: grid.EncodeQuery(s).Encode()})
}

// HandleAction handles POST /sessions/{id}/actions.
func (h *SessionsHandler) HandleAction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req actionRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxActionBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeServiceError(w, fmt.Errorf("%w: invalid JSON: %w", ErrBadRequest, err))
		return
	}

	s, dup, err := h.deps.Apply(r.Context(), id, req.ActionID, req.Action)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, actionResponse{
		GridView:  types.NewGridView(id, s, h.deps.Catalog()),
		Duplicate: dup,
	})
}
