// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/felmahq/felma/internal/domain/ranking"
	"github.com/felmahq/felma/internal/domain/types"
)

// itemRequest mirrors the OpenAPI schema for POST /items.
type itemRequest struct {
	Content        string           `json:"content"`
	Title          string           `json:"title"`
	Originator     string           `json:"originator"`
	OriginatorName string           `json:"originator_name"`
	Org            string           `json:"org"`
	Ratings        *ranking.Ratings `json:"ratings"`
}

func (i itemRequest) validate() error {
	if strings.TrimSpace(i.Content) == "" {
		return wrap("missing content", ErrBadRequest)
	}
	return nil
}

// ItemsHandler handles the item collection: capture and listing.
type ItemsHandler struct {
	deps     Dependencies
	profiles ProfileResolver
}

// NewItemsHandler creates a new items handler.
func NewItemsHandler(deps Dependencies, profiles ProfileResolver) *ItemsHandler {
	return &ItemsHandler{deps: deps, profiles: profiles}
}

// HandleItems dispatches POST /items and GET /items requests.
func (h *ItemsHandler) HandleItems(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleCreate(w, r)
	case http.MethodGet:
		h.handleList(w, r)
	default:
		http.NotFound(w, r)
	}
}

// handleCreate handles POST /items requests.
func (h *ItemsHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_item"
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrap(op, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	item, err := h.deps.CreateItem(r.Context(), types.NewItem{
		Content:        req.Content,
		Title:          req.Title,
		Originator:     req.Originator,
		OriginatorName: req.OriginatorName,
		Org:            req.Org,
		Ratings:        req.Ratings,
	})
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, itemView(r.Context(), h.profiles, item))
}

// handleList handles GET /items?sort=&org=&limit= requests.
func (h *ItemsHandler) handleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_items"
	query := r.URL.Query()

	sort, err := types.ParseSort(query.Get("sort"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrap(op, err))
		return
	}

	// A missing limit falls back to the server maximum; a present but
	// unusable one is a client error.
	limit := 0
	if raw := query.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", wrap(op, ErrBadRequest))
			return
		}
	}

	items, err := h.deps.ListItems(r.Context(), types.ListQuery{
		Org:   strings.TrimSpace(query.Get("org")),
		Sort:  sort,
		Limit: limit,
	})
	if err != nil {
		writeDomainError(w, op, err)
		return
	}

	views := make([]itemResponse, len(items))
	for i, item := range items {
		views[i] = itemView(r.Context(), h.profiles, item)
	}
	writeJSON(w, http.StatusOK, views)
}
