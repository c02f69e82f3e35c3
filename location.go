package main

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/aitomarabdeljalil/42-Matcha/discovery"
	"github.com/aitomarabdeljalil/42-Matcha/logging"
	"github.com/aitomarabdeljalil/42-Matcha/metrics"
)

// locationMaxAge is how long a stored location is trusted before a
// profile request refreshes it.
const locationMaxAge = 24 * time.Hour

const (
	locationSourceManual = "manual"
	locationSourceGPS    = "gps"
	locationSourceIP     = "ip"
)

var errLocationFresh = errors.New("location is fresh")

// gpsHint is the optional position a client sends along with a profile
// mutation.
type gpsHint struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	City      string   `json:"city"`
	Country   string   `json:"country"`
}

func (g gpsHint) valid() bool {
	return g.Latitude != nil && g.Longitude != nil &&
		*g.Latitude >= -90 && *g.Latitude <= 90 &&
		*g.Longitude >= -180 && *g.Longitude <= 180
}

// peekGPSHint decodes coordinates from a JSON body without consuming it.
func peekGPSHint(r *http.Request) gpsHint {
	var hint gpsHint
	if r.Body == nil || r.Body == http.NoBody {
		return hint
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxJSONBody+1))
	r.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(raw), r.Body), r.Body}
	if err != nil || len(raw) > maxJSONBody {
		return hint
	}
	_ = json.Unmarshal(raw, &hint)
	return hint
}

// autoLocation refreshes the caller's location when it is older than
// locationMaxAge: GPS coordinates from the request body win, otherwise the
// refresh is recorded as an IP fallback that keeps the stored position.
// Failures are logged and never block the request.
func autoLocation(store profileStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if me, ok := userIDFromContext(r.Context()); ok {
				refreshLocation(r, store, me, time.Now())
			}
			next.ServeHTTP(w, r)
		})
	}
}

func refreshLocation(r *http.Request, store profileStore, id int, now time.Time) {
	hint := peekGPSHint(r)
	source := locationSourceIP
	if hint.valid() {
		source = locationSourceGPS
	}

	_, err := store.UpdateUser(r.Context(), id, func(u *discovery.User) error {
		if u.LocationUpdatedAt != nil && now.Sub(*u.LocationUpdatedAt) < locationMaxAge {
			return errLocationFresh
		}
		if source == locationSourceGPS {
			u.Latitude, u.Longitude = hint.Latitude, hint.Longitude
			u.City = strings.TrimSpace(hint.City)
			u.Country = strings.TrimSpace(hint.Country)
		}
		u.LocationSource = source
		u.LocationUpdatedAt = &now
		return nil
	})
	switch {
	case err == nil:
		metrics.LocationRefreshes.WithLabelValues(source).Inc()
	case errors.Is(err, errLocationFresh):
	default:
		logging.Ctx(r.Context()).Warn().Err(err).Int("user_id", id).Msg("auto location")
	}
}
