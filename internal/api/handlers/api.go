package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/ps-vitor/car-comparator/internal/domain"
	"github.com/ps-vitor/car-comparator/internal/scraping/sources"
	"github.com/ps-vitor/car-comparator/pkg/logger"
)

// Searcher is what the handlers need from the search service.
type Searcher interface {
	Search(ctx context.Context, client string, q domain.Query) domain.Response
	SearchAll(ctx context.Context, client, brand, model string, maxPrice float64, sourceIDs []string) domain.BatchResponse
}

type APIHandler struct {
	searcher Searcher
	sources  []sources.Descriptor
	log      *logger.Logger
	started  time.Time
}

func NewAPIHandler(searcher Searcher, descriptors []sources.Descriptor, log *logger.Logger) *APIHandler {
	if log == nil {
		log = logger.Discard()
	}
	return &APIHandler{searcher: searcher, sources: descriptors, log: log, started: time.Now()}
}

// RegisterRoutes mounts the API on r. Every route answers CORS preflights.
func (h *APIHandler) RegisterRoutes(r *mux.Router) {
	r.Use(corsMiddleware)
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)
	r.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet, http.MethodOptions)
	r.HandleFunc("/api/search", h.handleSearch).Methods(http.MethodPost, http.MethodGet, http.MethodOptions)
	r.HandleFunc("/api/search/all", h.handleSearchAll).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/api/sources", h.handleSources).Methods(http.MethodGet, http.MethodOptions)
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, domain.Failed("", "", domain.ValidationError("Method %s not allowed", r.Method)))
}

func (h *APIHandler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"sources": len(h.sources),
		"uptime":  time.Since(h.started).Round(time.Second).String(),
	})
}

func (h *APIHandler) handleSources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"sources": h.sources,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
