package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/aitomarabdeljalil/42-Matcha/discovery"
	"github.com/aitomarabdeljalil/42-Matcha/logging"
)

const maxNearbyLimit = 100

type nearbyFinder interface {
	FindNearby(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]*discovery.User, error)
}

type nearbyUser struct {
	User       *discovery.User `json:"user"`
	DistanceKm float64         `json:"distanceKm"`
}

// GET /api/me
func meHandler(users userBatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me, _ := userIDFromContext(r.Context())
		u, err := loadUser(r.Context(), users, me)
		if errors.Is(err, errUserNotFound) {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}
		if err != nil {
			logging.Ctx(r.Context()).Error().Err(err).Int("user_id", me).Msg("load current user")
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user": u})
	}
}

// GET /api/users/{id}
func userProfileHandler(users userBatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(r, "id")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_user_id")
			return
		}
		u, err := loadUser(r.Context(), users, id)
		if errors.Is(err, errUserNotFound) {
			writeError(w, http.StatusNotFound, "not_found")
			return
		}
		if err != nil {
			logging.Ctx(r.Context()).Error().Err(err).Int("user_id", id).Msg("load user")
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user": u, "online": isOnlineAt(u, time.Now())})
	}
}

// GET /api/users/nearby?lat=&lng=&radius=&limit=
func nearbyUsersHandler(store nearbyFinder) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		lat, latErr := strconv.ParseFloat(q.Get("lat"), 64)
		lng, lngErr := strconv.ParseFloat(q.Get("lng"), 64)
		if latErr != nil || lngErr != nil || lat < -90 || lat > 90 || lng < -180 || lng > 180 {
			writeError(w, http.StatusBadRequest, "missing_coordinates")
			return
		}
		radius := queryFloat(r, "radius", discovery.SuggestionsConfig.DefaultMaxDistanceKm)
		limit := min(queryInt(r, "limit", 20), maxNearbyLimit)

		found, err := store.FindNearby(r.Context(), lat, lng, radius, limit)
		if err != nil {
			logging.Ctx(r.Context()).Error().Err(err).Msg("nearby users")
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
		out := make([]nearbyUser, 0, len(found))
		for _, u := range found {
			if !u.HasLocation() {
				continue
			}
			out = append(out, nearbyUser{
				User:       u,
				DistanceKm: discovery.DistanceKm(&lat, &lng, u.Latitude, u.Longitude),
			})
		}
		writeJSON(w, http.StatusOK, map[string]any{"users": out, "count": len(out)})
	}
}
