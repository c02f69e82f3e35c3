package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/aitomarabdeljalil/42-Matcha/discovery"
	"github.com/aitomarabdeljalil/42-Matcha/logging"
)

type discoveryService interface {
	Suggestions(ctx context.Context, req discovery.SuggestionsRequest) (*discovery.Page, error)
	Search(ctx context.Context, req discovery.SearchRequest) (*discovery.Page, error)
}

// GET /api/discovery/suggestions
func suggestionsHandler(svc discoveryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me, _ := userIDFromContext(r.Context())
		p := discovery.SuggestionsConfig

		page, err := svc.Suggestions(r.Context(), discovery.SuggestionsRequest{
			ViewerID:      me,
			Page:          queryInt(r, "page", 1),
			MaxDistanceKm: queryFloat(r, "maxDistance", p.DefaultMaxDistanceKm),
			Weights: discovery.ScoreWeights{
				Distance:  queryWeight(r, "w_distance", p.Weights.Distance),
				Interests: queryWeight(r, "w_interests", p.Weights.Interests),
				Fame:      queryWeight(r, "w_fame", p.Weights.Fame),
				Recency:   queryWeight(r, "w_recency", p.Weights.Recency),
			},
			Sort: discovery.ParseSortKey(r.URL.Query().Get("sort")),
		})
		if err != nil {
			writeDiscoveryError(w, r, err, "Failed to compute suggestions")
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

// GET /api/discovery/search
func searchHandler(svc discoveryService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me, _ := userIDFromContext(r.Context())
		p := discovery.SearchConfig

		page, err := svc.Search(r.Context(), discovery.SearchRequest{
			ViewerID:      me,
			Page:          queryInt(r, "page", 1),
			PerPage:       queryInt(r, "limit", p.PerPage),
			MaxDistanceKm: queryFloat(r, "maxDistance", p.DefaultMaxDistanceKm),
			Filters: discovery.SearchFilters{
				MinAge:    queryInt(r, "minAge", 0),
				MaxAge:    queryInt(r, "maxAge", 0),
				MinFame:   queryOptionalFloat(r, "minFame"),
				MaxFame:   queryOptionalFloat(r, "maxFame"),
				Genders:   queryList(r, "gender"),
				Interests: queryList(r, "interests"),
			},
			Sort: discovery.ParseSortKey(r.URL.Query().Get("sort")),
		})
		if err != nil {
			writeDiscoveryError(w, r, err, "Failed to execute search")
			return
		}
		writeJSON(w, http.StatusOK, page)
	}
}

func writeDiscoveryError(w http.ResponseWriter, r *http.Request, err error, msg string) {
	if errors.Is(err, discovery.ErrViewerNotFound) {
		writeError(w, http.StatusNotFound, "Viewer not found")
		return
	}
	logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg(msg)
	writeError(w, http.StatusInternalServerError, msg)
}
