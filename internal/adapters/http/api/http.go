// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/felmahq/felma/internal/adapters/repository"
	"github.com/felmahq/felma/internal/domain/model"
	"github.com/felmahq/felma/internal/domain/ranking"
	"github.com/felmahq/felma/internal/domain/types"
	"github.com/felmahq/felma/pkg/metrics"
)

// Request bodies are small JSON documents; anything past this is abuse.
const maxBodyBytes = 1 << 20

// timeLayout is the wire format for timestamps.
const timeLayout = time.RFC3339Nano

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// CreateItem captures a new item, ranking it when ratings are given.
	CreateItem(ctx context.Context, in types.NewItem) (model.Item, error)

	// GetItem returns a single item by id.
	GetItem(ctx context.Context, id uuid.UUID) (model.Item, error)

	// ListItems returns items for the query.
	ListItems(ctx context.Context, q types.ListQuery) ([]model.Item, error)

	// RateItem re-ranks an item with fresh ratings.
	RateItem(ctx context.Context, id uuid.UUID, r ranking.Ratings) (model.Item, error)

	// AdvanceStage moves an item to the next workflow stage.
	AdvanceStage(ctx context.Context, id uuid.UUID, stage model.Stage, note string) (model.Item, error)
}

// ProfileResolver resolves originator ids to display profiles.
type ProfileResolver interface {
	GetProfile(ctx context.Context, id string) (model.Profile, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	itemsHandler  *ItemsHandler
	itemHandler   *ItemHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, profiles ProfileResolver, stats StatsProvider) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(stats),
		itemsHandler:  NewItemsHandler(deps, profiles),
		itemHandler:   NewItemHandler(deps, profiles),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	// Specific paths first (most specific to least specific)
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/items", MetricsMiddleware(s.itemsHandler.HandleItems, "items"))
	mux.HandleFunc("/items/", MetricsMiddleware(s.itemHandler.HandleItem, "item"))
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
}

// itemResponse mirrors the OpenAPI schema for item payloads.
type itemResponse struct {
	ID             string                 `json:"id"`
	CreatedAt      string                 `json:"created_at"`
	Content        string                 `json:"content"`
	Title          string                 `json:"title,omitempty"`
	DisplayTitle   string                 `json:"display_title"`
	Originator     string                 `json:"originator,omitempty"`
	OriginatorName string                 `json:"originator_name,omitempty"`
	Org            string                 `json:"org,omitempty"`
	Rated          bool                   `json:"rated"`
	Ratings        *ranking.Ratings       `json:"ratings,omitempty"`
	PriorityRank   int                    `json:"priority_rank"`
	ActionTier     ranking.Tier           `json:"action_tier,omitempty"`
	EscalationFlag bool                   `json:"escalation_flag"`
	Stage          model.Stage            `json:"stage"`
	StageNotes     map[model.Stage]string `json:"stage_notes,omitempty"`
}

// itemView renders an item for the wire, resolving the originator's display
// name when a profile exists.
func itemView(ctx context.Context, profiles ProfileResolver, item model.Item) itemResponse {
	resp := itemResponse{
		ID:             item.ID.String(),
		CreatedAt:      item.CreatedAt.Format(timeLayout),
		Content:        item.Content,
		Title:          item.Title,
		DisplayTitle:   item.DisplayTitle(),
		Originator:     item.Originator,
		Org:            item.Org,
		Rated:          item.Rated,
		PriorityRank:   item.PriorityRank,
		EscalationFlag: item.EscalationFlag,
		Stage:          item.Stage,
		StageNotes:     item.StageNotes,
	}
	if item.Rated {
		r := item.Ratings
		resp.Ratings = &r
		resp.ActionTier = item.ActionTier
	}
	if item.Originator != "" && profiles != nil {
		if p, err := profiles.GetProfile(ctx, item.Originator); err == nil {
			resp.OriginatorName = p.Name
		}
	}
	return resp
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeDomainError translates service errors into the status codes and
// error codes the API promises.
func writeDomainError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ranking.ErrInvalidRating):
		writeError(w, http.StatusBadRequest, "invalid_rating", err)
	case errors.Is(err, model.ErrBlankContent),
		errors.Is(err, model.ErrUnknownStage),
		errors.Is(err, types.ErrUnknownSort),
		errors.Is(err, repository.ErrInvalidLimit):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, repository.ErrItemNotFound),
		errors.Is(err, repository.ErrProfileNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, repository.ErrStageOrder):
		writeError(w, http.StatusConflict, "stage_order", err)
	case errors.Is(err, repository.ErrItemExists):
		writeError(w, http.StatusConflict, "conflict", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", wrap(op, err))
	}
}
