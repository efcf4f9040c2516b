package server

import (
	"context"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/karaoke/internal/models"
)

// Searcher runs the aggregated search. [search.Aggregator] implements it.
type Searcher interface {
	Search(ctx context.Context, query string) (models.SearchResponse, error)
}

// SearchHandler serves GET /api/search.
type SearchHandler struct {
	searcher Searcher
	logger   *log.Logger
}

func NewSearchHandler(s Searcher, logger *log.Logger) *SearchHandler {
	return &SearchHandler{searcher: s, logger: logger}
}

func (h *SearchHandler) Routes() []Route {
	return []Route{{Method: http.MethodGet, Pattern: "/api/search", Handler: h.search}}
}

func (h *SearchHandler) search(w http.ResponseWriter, r *http.Request) {
	resp, err := h.searcher.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.logger.Error("search failed", "query", r.URL.Query().Get("q"), "error", err)
		WriteJSON(w, http.StatusInternalServerError, models.SearchResponse{
			Success: false,
			Results: []models.SearchResult{},
			Error:   "Failed to perform search",
		})
		return
	}
	WriteJSON(w, http.StatusOK, resp)
}
