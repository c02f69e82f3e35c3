package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aitomarabdeljalil/42-Matcha/discovery"
)

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestApplyPhotoAction(t *testing.T) {
	three := []string{"a", "b", "c"}
	five := []string{"1", "2", "3", "4", "5"}

	tests := []struct {
		name    string
		photos  []string
		req     photosRequest
		want    []string
		wantErr error
	}{
		{"add", three, photosRequest{Action: "add", Photo: " d "}, []string{"a", "b", "c", "d"}, nil},
		{"add to empty", nil, photosRequest{Action: "add", Photo: "x"}, []string{"x"}, nil},
		{"add blank", three, photosRequest{Action: "add", Photo: "  "}, nil, errMissingPhoto},
		{"add over limit", five, photosRequest{Action: "add", Photo: "6"}, nil, errMaxPhotos},
		{"remove middle", three, photosRequest{Action: "remove", Index: ptr(1)}, []string{"a", "c"}, nil},
		{"remove without index", three, photosRequest{Action: "remove"}, nil, errInvalidIndex},
		{"remove out of range", three, photosRequest{Action: "remove", Index: ptr(3)}, nil, errInvalidIndex},
		{"remove negative", three, photosRequest{Action: "remove", Index: ptr(-1)}, nil, errInvalidIndex},
		{"reorder", three, photosRequest{Action: "reorder", Order: []int{2, 0, 1}}, []string{"c", "a", "b"}, nil},
		{"reorder short", three, photosRequest{Action: "reorder", Order: []int{0, 1}}, nil, errInvalidOrder},
		{"reorder duplicate", three, photosRequest{Action: "reorder", Order: []int{0, 0, 1}}, nil, errInvalidOrder},
		{"reorder out of range", three, photosRequest{Action: "reorder", Order: []int{0, 1, 3}}, nil, errInvalidOrder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := append([]string(nil), tt.photos...)
			got, err := applyPhotoAction(tt.photos, tt.req)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, before, append([]string(nil), tt.photos...), "input must not change")
		})
	}
}

func TestProfilePatchApply(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("absent fields are untouched", func(t *testing.T) {
		u := discovery.User{Gender: "male", Biography: "keep"}
		require.NoError(t, profilePatch{}.apply(&u, now))
		assert.Equal(t, "male", u.Gender)
		assert.Equal(t, "keep", u.Biography)
	})

	t.Run("sets and normalizes", func(t *testing.T) {
		u := discovery.User{}
		p := profilePatch{
			Gender:            ptr("female"),
			SexualPreferences: &[]string{"male", "male", "other"},
			Biography:         ptr("  hello  "),
			Interests:         &[]string{" vegan", "geek", "", "vegan"},
			BirthDate:         ptr("1990-02-03"),
		}
		require.NoError(t, p.apply(&u, now))
		assert.Equal(t, "female", u.Gender)
		assert.Equal(t, discovery.StringList{"male", "other"}, u.SexualPreferences)
		assert.Equal(t, "hello", u.Biography)
		assert.Equal(t, discovery.StringList{"vegan", "geek"}, u.Interests)
		require.NotNil(t, u.BirthDate)
		assert.Equal(t, time.Date(1990, 2, 3, 0, 0, 0, 0, time.UTC), *u.BirthDate)
	})

	t.Run("empty birth date clears it", func(t *testing.T) {
		birth := now.AddDate(-30, 0, 0)
		u := discovery.User{BirthDate: &birth}
		require.NoError(t, profilePatch{BirthDate: ptr("")}.apply(&u, now))
		assert.Nil(t, u.BirthDate)
	})

	t.Run("minor birth date", func(t *testing.T) {
		u := discovery.User{}
		err := profilePatch{BirthDate: ptr("2010-01-01")}.apply(&u, now)
		assert.ErrorIs(t, err, errTooYoung)
		assert.Nil(t, u.BirthDate)
	})
}

func TestUpdateProfileHandler(t *testing.T) {
	store := newFakeUsers(testUser(1, ""))

	patch := func(body any) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := asUser(httptest.NewRequest(http.MethodPatch, "/api/profile", jsonBody(t, body)), 1)
		updateProfileHandler(store).ServeHTTP(w, req)
		return w
	}

	w := patch(map[string]any{"gender": "female", "biography": "hi", "interests": []string{"go"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	user := decodeBody(t, w)["user"].(map[string]any)
	assert.Equal(t, "female", user["gender"])
	assert.Equal(t, float64(50), user["profile_completion"])
	assert.Equal(t, 50, store.users[1].ProfileCompletion)

	w = patch(map[string]any{"gender": "robot"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_fields", decodeBody(t, w)["error"])

	w = patch(map[string]any{"birthDate": time.Now().AddDate(-10, 0, 0).Format(time.DateOnly)})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "too_young", decodeBody(t, w)["error"])
	assert.Equal(t, "female", store.users[1].Gender, "failed patch leaves the profile unchanged")
}

func TestSetLocationHandler(t *testing.T) {
	store := newFakeUsers(testUser(1, "male"))

	put := func(body any) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := asUser(httptest.NewRequest(http.MethodPut, "/api/profile/location", jsonBody(t, body)), 1)
		setLocationHandler(store).ServeHTTP(w, req)
		return w
	}

	w := put(map[string]any{"latitude": 48.85, "longitude": 0, "city": " Paris "})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	u := store.users[1]
	require.True(t, u.HasLocation())
	assert.Equal(t, 48.85, *u.Latitude)
	assert.Equal(t, 0.0, *u.Longitude)
	assert.Equal(t, "Paris", u.City)
	assert.Equal(t, "manual", u.LocationSource)
	assert.NotNil(t, u.LocationUpdatedAt)

	assert.Equal(t, http.StatusBadRequest, put(map[string]any{"city": "Nowhere"}).Code)
	assert.Equal(t, http.StatusBadRequest, put(map[string]any{"latitude": 91, "longitude": 0}).Code)
	assert.Equal(t, http.StatusBadRequest, put(map[string]any{"latitude": 0, "longitude": -181}).Code)
}

func TestManagePhotosHandler(t *testing.T) {
	store := newFakeUsers(testUser(1, "male"))

	post := func(body any) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := asUser(httptest.NewRequest(http.MethodPost, "/api/profile/photos", jsonBody(t, body)), 1)
		managePhotosHandler(store).ServeHTTP(w, req)
		return w
	}

	require.Equal(t, http.StatusOK, post(map[string]any{"action": "add", "photo": "a.jpg"}).Code)
	require.Equal(t, http.StatusOK, post(map[string]any{"action": "add", "photo": "b.jpg"}).Code)
	require.Equal(t, http.StatusOK, post(map[string]any{"action": "reorder", "order": []int{1, 0}}).Code)
	assert.Equal(t, discovery.StringList{"b.jpg", "a.jpg"}, store.users[1].Photos)
	assert.Equal(t, 29, store.users[1].ProfileCompletion)

	w := post(map[string]any{"action": "remove", "index": 5})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_index", decodeBody(t, w)["error"])

	w = post(map[string]any{"action": "shuffle"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_fields", decodeBody(t, w)["error"])
}

func TestViewProfileHandler(t *testing.T) {
	store := newFakeUsers(testUser(1, "male"), testUser(2, "female"))

	view := func(me int, target string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/profile/view/"+target, nil)
		viewProfileHandler(store).ServeHTTP(w, withURLParam(asUser(req, me), "userId", target))
		return w
	}

	w := view(1, "2")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeBody(t, w)["user"].(map[string]any)["profile_views"])
	assert.Equal(t, [][2]int{{1, 2}}, store.views)

	assert.Equal(t, "cannot_view_self", decodeBody(t, view(1, "1"))["error"])
	assert.Equal(t, "invalid_user_id", decodeBody(t, view(1, "abc"))["error"])
	assert.Equal(t, http.StatusNotFound, view(1, "99").Code)
}

func TestToggleLikeHandler(t *testing.T) {
	users := newFakeUsers(testUser(1, "male"), testUser(2, "female"))
	likes := &fakeLikes{users: users}

	like := func(me int, target string) map[string]any {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/profile/like/"+target, nil)
		toggleLikeHandler(likes).ServeHTTP(w, withURLParam(asUser(req, me), "userId", target))
		return decodeBody(t, w)
	}

	resp := like(1, "2")
	assert.Equal(t, true, resp["liked"])
	assert.Equal(t, false, resp["match"])
	assert.Equal(t, float64(1), resp["user"].(map[string]any)["likes_count"])

	resp = like(2, "1")
	assert.Equal(t, true, resp["liked"])
	assert.Equal(t, true, resp["match"], "liking back is a match")

	resp = like(1, "2")
	assert.Equal(t, false, resp["liked"])
	assert.Equal(t, false, resp["match"])
	assert.Equal(t, float64(0), resp["user"].(map[string]any)["likes_count"])

	assert.Equal(t, "cannot_like_self", like(1, "1")["error"])
	assert.Equal(t, "invalid_user_id", like(1, "0")["error"])
	assert.Equal(t, "not_found", like(1, "42")["error"])

	likes.err = errors.New("deadlock")
	assert.Equal(t, "db_error", like(1, "2")["error"])
}

func TestLikedProfileLeavesSuggestions(t *testing.T) {
	users := newFakeUsers(testUser(1, "male"), testUser(2, "female"), testUser(3, "female"))
	likes := &fakeLikes{users: users}
	svc := discovery.NewService(users, likes)

	suggested := func() []int {
		w := httptest.NewRecorder()
		suggestionsHandler(svc).ServeHTTP(w, asUser(httptest.NewRequest(http.MethodGet, "/api/discovery/suggestions", nil), 1))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var ids []int
		for _, r := range decodeBody(t, w)["results"].([]any) {
			ids = append(ids, int(r.(map[string]any)["user"].(map[string]any)["id"].(float64)))
		}
		return ids
	}
	toggle := func() {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/profile/like/2", nil)
		toggleLikeHandler(likes).ServeHTTP(w, withURLParam(asUser(req, 1), "userId", "2"))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	}

	assert.ElementsMatch(t, []int{2, 3}, suggested())

	toggle()
	assert.Equal(t, []int{3}, suggested())

	toggle()
	assert.ElementsMatch(t, []int{2, 3}, suggested(), "unliking brings the profile back")
}

func TestLikeListHandlers(t *testing.T) {
	users := newFakeUsers(testUser(1, "male"), testUser(2, "female"), testUser(3, "female"), testUser(4, "other"))
	likes := &fakeLikes{users: users, likes: [][2]int{{1, 2}, {1, 3}, {2, 1}, {4, 1}, {1, 99}}}

	list := func(fn func(context.Context, int) ([]int, error)) []int {
		w := httptest.NewRecorder()
		req := asUser(httptest.NewRequest(http.MethodGet, "/api/profile/likes", nil), 1)
		likeListHandler(fn, users).ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		resp := decodeBody(t, w)
		var ids []int
		for _, u := range resp["users"].([]any) {
			ids = append(ids, int(u.(map[string]any)["id"].(float64)))
		}
		assert.Equal(t, float64(len(ids)), resp["count"])
		return ids
	}

	assert.Equal(t, []int{2, 3}, list(likes.LikedIDsBy), "deleted users are dropped")
	assert.Equal(t, []int{4, 2}, list(likes.LikedByIDs))
	assert.Equal(t, []int{2}, list(likes.MatchedIDs))

	likes.err = errors.New("timeout")
	w := httptest.NewRecorder()
	likeListHandler(likes.MatchedIDs, users).ServeHTTP(w, asUser(httptest.NewRequest(http.MethodGet, "/", nil), 1))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
