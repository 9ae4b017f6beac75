// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/felmahq/felma/internal/domain/model"
	"github.com/felmahq/felma/internal/domain/ranking"
)

// ItemHandler handles single-item requests: fetch, re-rate, stage advance.
type ItemHandler struct {
	deps     Dependencies
	profiles ProfileResolver
}

// NewItemHandler creates a new item handler.
func NewItemHandler(deps Dependencies, profiles ProfileResolver) *ItemHandler {
	return &ItemHandler{deps: deps, profiles: profiles}
}

// stageRequest mirrors the OpenAPI schema for POST /items/{id}/stage.
type stageRequest struct {
	Stage string `json:"stage"`
	Note  string `json:"note"`
}

// HandleItem dispatches requests under /items/{id}:
//
//	GET  /items/{id}
//	PUT  /items/{id}/ratings
//	POST /items/{id}/stage
func (h *ItemHandler) HandleItem(w http.ResponseWriter, r *http.Request) {
	// Extract path parameters after /items/
	rest := strings.TrimPrefix(r.URL.Path, "/items/")
	parts := strings.Split(rest, "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}

	id, err := uuid.Parse(parts[0])
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrap("invalid item id", err))
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		h.handleGet(w, r, id)
	case len(parts) == 2 && parts[1] == "ratings" && r.Method == http.MethodPut:
		h.handleRate(w, r, id)
	case len(parts) == 2 && parts[1] == "stage" && r.Method == http.MethodPost:
		h.handleStage(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

// handleGet handles GET /items/{id} requests.
func (h *ItemHandler) handleGet(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	const op = "api.get_item"
	item, err := h.deps.GetItem(r.Context(), id)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, itemView(r.Context(), h.profiles, item))
}

// handleRate handles PUT /items/{id}/ratings requests.
func (h *ItemHandler) handleRate(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	const op = "api.rate_item"
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req ranking.Ratings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrap(op, err))
		return
	}

	item, err := h.deps.RateItem(r.Context(), id, req)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, itemView(r.Context(), h.profiles, item))
}

// handleStage handles POST /items/{id}/stage requests.
func (h *ItemHandler) handleStage(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	const op = "api.advance_stage"
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req stageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrap(op, err))
		return
	}

	stage, err := model.ParseStage(req.Stage)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	item, err := h.deps.AdvanceStage(r.Context(), id, stage, req.Note)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, itemView(r.Context(), h.profiles, item))
}
