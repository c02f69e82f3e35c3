package main

import (
	"net/http"
	"time"

	"github.com/aitomarabdeljalil/42-Matcha/discovery"
	"github.com/aitomarabdeljalil/42-Matcha/logging"
)

// onlineWindow is how long after its last request a user still counts as
// online.
const onlineWindow = 90 * time.Second

// POST /api/me/ping
func mePingHandler(presence presenceStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me, _ := userIDFromContext(r.Context())
		if err := presence.TouchLastOnline(r.Context(), me); err != nil {
			logging.Ctx(r.Context()).Error().Err(err).Int("user_id", me).Msg("ping")
			writeError(w, http.StatusInternalServerError, "db_error")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func isOnlineAt(u *discovery.User, now time.Time) bool {
	return u.LastOnline != nil && now.Sub(*u.LastOnline) <= onlineWindow
}
