package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aitomarabdeljalil/42-Matcha/discovery"
	"github.com/aitomarabdeljalil/42-Matcha/logging"
	"github.com/aitomarabdeljalil/42-Matcha/metrics"
)

const maxInterests = 20

var (
	errTooYoung     = errors.New("user is under the minimum age")
	errMaxPhotos    = errors.New("photo limit reached")
	errMissingPhoto = errors.New("photo is required")
	errInvalidIndex = errors.New("photo index out of range")
	errInvalidOrder = errors.New("order is not a permutation of the photos")
)

type profileStore interface {
	UpdateUser(ctx context.Context, id int, fn func(u *discovery.User) error) (*discovery.User, error)
	RecordView(ctx context.Context, viewerID, viewedID int) (*discovery.User, error)
}

type likeStore interface {
	ToggleLike(ctx context.Context, likerID, likedID int) (likeResult, error)
	LikedIDsBy(ctx context.Context, viewerID int) ([]int, error)
	LikedByIDs(ctx context.Context, userID int) ([]int, error)
	MatchedIDs(ctx context.Context, userID int) ([]int, error)
}

// Absent fields are left untouched.
type profilePatch struct {
	Gender            *string   `json:"gender" validate:"omitempty,oneof=male female other"`
	PreferredGender   *string   `json:"preferredGender" validate:"omitempty,oneof=male female other"`
	SexualPreferences *[]string `json:"sexualPreferences" validate:"omitempty,max=3,dive,oneof=male female other"`
	Biography         *string   `json:"biography" validate:"omitempty,max=2000"`
	Interests         *[]string `json:"interests" validate:"omitempty,max=20,dive,max=50"`
	BirthDate         *string   `json:"birthDate" validate:"omitempty,datetime=2006-01-02"`
}

func (p profilePatch) apply(u *discovery.User, now time.Time) error {
	if p.BirthDate != nil {
		if *p.BirthDate == "" {
			u.BirthDate = nil
		} else {
			birth, err := time.Parse(time.DateOnly, *p.BirthDate)
			if err != nil {
				return err
			}
			if birth.AddDate(minAge, 0, 0).After(now) {
				return errTooYoung
			}
			u.BirthDate = &birth
		}
	}
	if p.Gender != nil {
		u.Gender = *p.Gender
	}
	if p.PreferredGender != nil {
		u.PreferredGender = *p.PreferredGender
	}
	if p.SexualPreferences != nil {
		u.SexualPreferences = discovery.Distinct(discovery.StringList(*p.SexualPreferences))
	}
	if p.Biography != nil {
		u.Biography = strings.TrimSpace(*p.Biography)
	}
	if p.Interests != nil {
		tags := make(discovery.StringList, 0, len(*p.Interests))
		for _, tag := range *p.Interests {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
		u.Interests = discovery.Distinct(tags)
		if len(u.Interests) > maxInterests {
			u.Interests = u.Interests[:maxInterests]
		}
	}
	return nil
}

type locationRequest struct {
	Latitude  *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
	City      string   `json:"city" validate:"max=255"`
	Country   string   `json:"country" validate:"max=255"`
}

type photosRequest struct {
	Action string `json:"action" validate:"required,oneof=add remove reorder"`
	Photo  string `json:"photo" validate:"max=512"`
	Index  *int   `json:"index"`
	Order  []int  `json:"order"`
}

// applyPhotoAction returns the photo list after req. The input is not
// modified.
func applyPhotoAction(photos []string, req photosRequest) ([]string, error) {
	out := append([]string(nil), photos...)
	switch req.Action {
	case "add":
		photo := strings.TrimSpace(req.Photo)
		if photo == "" {
			return nil, errMissingPhoto
		}
		if len(out) >= maxPhotos {
			return nil, errMaxPhotos
		}
		return append(out, photo), nil
	case "remove":
		if req.Index == nil || *req.Index < 0 || *req.Index >= len(out) {
			return nil, errInvalidIndex
		}
		return append(out[:*req.Index], out[*req.Index+1:]...), nil
	case "reorder":
		if len(req.Order) != len(out) {
			return nil, errInvalidOrder
		}
		seen := make([]bool, len(out))
		reordered := make([]string, len(out))
		for i, idx := range req.Order {
			if idx < 0 || idx >= len(out) || seen[idx] {
				return nil, errInvalidOrder
			}
			seen[idx] = true
			reordered[i] = out[idx]
		}
		return reordered, nil
	}
	return nil, errInvalidOrder
}

// PATCH /api/profile
func updateProfileHandler(store profileStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me, _ := userIDFromContext(r.Context())
		var req profilePatch
		if !decodeJSON(w, r, &req) {
			return
		}
		u, err := store.UpdateUser(r.Context(), me, func(u *discovery.User) error {
			return req.apply(u, time.Now())
		})
		if err != nil {
			writeProfileError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user": u})
	}
}

// PUT /api/profile/location
func setLocationHandler(store profileStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me, _ := userIDFromContext(r.Context())
		var req locationRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		u, err := store.UpdateUser(r.Context(), me, func(u *discovery.User) error {
			now := time.Now()
			u.Latitude, u.Longitude = req.Latitude, req.Longitude
			u.City = strings.TrimSpace(req.City)
			u.Country = strings.TrimSpace(req.Country)
			u.LocationSource = locationSourceManual
			u.LocationUpdatedAt = &now
			return nil
		})
		if err != nil {
			writeProfileError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user": u})
	}
}

// POST /api/profile/photos
func managePhotosHandler(store profileStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me, _ := userIDFromContext(r.Context())
		var req photosRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		u, err := store.UpdateUser(r.Context(), me, func(u *discovery.User) error {
			photos, err := applyPhotoAction(u.Photos, req)
			if err != nil {
				return err
			}
			u.Photos = photos
			return nil
		})
		if err != nil {
			writeProfileError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user": u})
	}
}

// POST /api/profile/view/{userId}
func viewProfileHandler(store profileStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me, _ := userIDFromContext(r.Context())
		target, ok := pathID(r, "userId")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_user_id")
			return
		}
		if target == me {
			writeError(w, http.StatusBadRequest, "cannot_view_self")
			return
		}
		u, err := store.RecordView(r.Context(), me, target)
		if err != nil {
			writeProfileError(w, r, err)
			return
		}
		metrics.ProfileViews.Inc()
		writeJSON(w, http.StatusOK, map[string]any{"user": u})
	}
}

// POST /api/profile/like/{userId}
func toggleLikeHandler(store likeStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me, _ := userIDFromContext(r.Context())
		target, ok := pathID(r, "userId")
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_user_id")
			return
		}
		if target == me {
			writeError(w, http.StatusBadRequest, "cannot_like_self")
			return
		}
		res, err := store.ToggleLike(r.Context(), me, target)
		if err != nil {
			writeProfileError(w, r, err)
			return
		}
		metrics.RecordLike(res.Liked)
		writeJSON(w, http.StatusOK, map[string]any{"user": res.User, "liked": res.Liked, "match": res.Match})
	}
}

// likeListHandler serves one of the like relations of the caller as
// hydrated users:
//
//	GET /api/profile/likes     users the caller liked
//	GET /api/profile/liked-by  users who liked the caller
//	GET /api/profile/matches   mutual likes
func likeListHandler(list func(ctx context.Context, id int) ([]int, error), users userBatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		me, _ := userIDFromContext(r.Context())
		ids, err := list(r.Context(), me)
		if err != nil {
			writeProfileError(w, r, err)
			return
		}
		out, err := loadUsers(r.Context(), users, ids)
		if err != nil {
			writeProfileError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"users": out, "count": len(out)})
	}
}

func writeProfileError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, errUserNotFound):
		writeError(w, http.StatusNotFound, "not_found")
	case errors.Is(err, errTooYoung):
		writeError(w, http.StatusBadRequest, "too_young")
	case errors.Is(err, errMaxPhotos):
		writeError(w, http.StatusBadRequest, "max_photos")
	case errors.Is(err, errMissingPhoto):
		writeError(w, http.StatusBadRequest, "missing_photo")
	case errors.Is(err, errInvalidIndex):
		writeError(w, http.StatusBadRequest, "invalid_index")
	case errors.Is(err, errInvalidOrder):
		writeError(w, http.StatusBadRequest, "invalid_order")
	default:
		logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("profile request failed")
		writeError(w, http.StatusInternalServerError, "db_error")
	}
}
