package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aitomarabdeljalil/42-Matcha/config"
)

// userRepository is everything the handlers need from the users table.
type userRepository interface {
	credentialStore
	presenceStore
	profileStore
	avatarStore
	userBatcher
	nearbyFinder
	userFinder
}

type routerDeps struct {
	Users     userRepository
	Likes     likeStore
	Discovery discoveryService
	Security  config.SecurityConfig
	Uploads   config.UploadsConfig
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(requestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(prometheusMetrics)
	r.Use(accessLog)
	r.Use(corsMiddleware(d.Security))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/avatars/{file}", serveAvatarHandler(d.Uploads.AvatarDir))

	r.Route("/api", func(r chi.Router) {
		r.Use(rateLimit(d.Security, d.Security.RateLimitRequests, "api"))
		r.Use(DataLoaderMiddleware(d.Users))

		r.Route("/auth", func(r chi.Router) {
			r.Use(rateLimit(d.Security, d.Security.AuthRateLimitRequests, "auth"))
			r.Post("/register", registerHandler(d.Users))
			r.Post("/login", loginHandler(d.Users, d.Users))
			r.Post("/refresh", refreshHandler(d.Users))
		})

		r.Get("/users/nearby", nearbyUsersHandler(d.Users))
		r.Get("/users/{id}", userProfileHandler(d.Users))

		r.Group(func(r chi.Router) {
			r.Use(requireAuth(d.Users))

			r.Get("/me", meHandler(d.Users))
			r.Post("/me/ping", mePingHandler(d.Users))

			r.Get("/discovery/suggestions", suggestionsHandler(d.Discovery))
			r.Get("/discovery/search", searchHandler(d.Discovery))

			r.Route("/profile", func(r chi.Router) {
				r.Group(func(r chi.Router) {
					r.Use(autoLocation(d.Users))
					r.Patch("/", updateProfileHandler(d.Users))
					r.Put("/location", setLocationHandler(d.Users))
					r.Post("/photos", managePhotosHandler(d.Users))
					r.Post("/view/{userId}", viewProfileHandler(d.Users))
					r.Post("/like/{userId}", toggleLikeHandler(d.Likes))
				})

				r.Get("/likes", likeListHandler(d.Likes.LikedIDsBy, d.Users))
				r.Get("/liked-by", likeListHandler(d.Likes.LikedByIDs, d.Users))
				r.Get("/matches", likeListHandler(d.Likes.MatchedIDs, d.Users))

				r.Get("/avatar", getAvatarHandler(d.Users))
				r.Post("/avatar", uploadAvatarHandler(d.Users, d.Uploads.AvatarDir, d.Uploads.MaxAvatarBytes))
				r.Delete("/avatar", deleteAvatarHandler(d.Users, d.Uploads.AvatarDir))
			})
		})
	})

	return r
}
