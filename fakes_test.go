package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"github.com/aitomarabdeljalil/42-Matcha/discovery"
)

func init() {
	jwtSecret = []byte("test-secret-key-for-testing")
	refreshSecret = []byte("test-refresh-key-for-testing")
}

// fakeUsers is an in-memory userRepository.
type fakeUsers struct {
	mu      sync.Mutex
	users   map[int]*discovery.User
	hashes  map[int]string
	avatars map[int]*time.Time
	touched []int
	views   [][2]int
	nextID  int
	err     error
	now     func() time.Time
}

func newFakeUsers(users ...*discovery.User) *fakeUsers {
	f := &fakeUsers{
		users:   make(map[int]*discovery.User),
		hashes:  make(map[int]string),
		avatars: make(map[int]*time.Time),
		nextID:  1,
		now:     time.Now,
	}
	for _, u := range users {
		f.users[u.ID] = u
		if u.ID >= f.nextID {
			f.nextID = u.ID + 1
		}
	}
	return f
}

func (f *fakeUsers) CreateUser(_ context.Context, nu newUser) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	for _, u := range f.users {
		if u.Email == nu.Email {
			return 0, errEmailTaken
		}
		if u.Username == nu.Username {
			return 0, errUsernameTaken
		}
	}
	id := f.nextID
	f.nextID++
	f.users[id] = &discovery.User{
		ID:        id,
		Email:     nu.Email,
		Username:  nu.Username,
		FirstName: nu.FirstName,
		LastName:  nu.LastName,
		BirthDate: nu.BirthDate,
		Gender:    nu.Gender,
		CreatedAt: f.now(),
	}
	f.hashes[id] = nu.PasswordHash
	return id, nil
}

func (f *fakeUsers) FindCredentials(_ context.Context, email string) (int, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, "", f.err
	}
	for id, u := range f.users {
		if u.Email == email {
			return id, f.hashes[id], nil
		}
	}
	return 0, "", errUserNotFound
}

func (f *fakeUsers) TouchLastOnline(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.touched = append(f.touched, id)
	if u, ok := f.users[id]; ok {
		now := f.now()
		u.LastOnline = &now
	}
	return nil
}

func (f *fakeUsers) UpdateUser(_ context.Context, id int, fn func(u *discovery.User) error) (*discovery.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	cur, ok := f.users[id]
	if !ok {
		return nil, errUserNotFound
	}
	u := *cur
	if err := fn(&u); err != nil {
		return nil, err
	}
	refreshStats(&u, f.now())
	f.users[id] = &u
	return &u, nil
}

func (f *fakeUsers) RecordView(_ context.Context, viewerID, viewedID int) (*discovery.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[viewedID]
	if !ok {
		return nil, errUserNotFound
	}
	f.views = append(f.views, [2]int{viewerID, viewedID})
	u.ProfileViews++
	refreshStats(u, f.now())
	return u, nil
}

func (f *fakeUsers) SetAvatar(_ context.Context, id int, url string) (string, error) {
	return f.swapAvatar(id, url)
}

func (f *fakeUsers) ClearAvatar(_ context.Context, id int) (string, error) {
	return f.swapAvatar(id, "")
}

func (f *fakeUsers) swapAvatar(id int, url string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	u, ok := f.users[id]
	if !ok {
		return "", errUserNotFound
	}
	old := u.AvatarURL
	u.AvatarURL = url
	now := f.now()
	f.avatars[id] = &now
	return old, nil
}

func (f *fakeUsers) AvatarInfo(_ context.Context, id int) (string, *time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return "", nil, errUserNotFound
	}
	return u.AvatarURL, f.avatars[id], nil
}

func (f *fakeUsers) FindByIDs(_ context.Context, ids []int) ([]*discovery.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*discovery.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	// Stores give no ordering guarantee.
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeUsers) FindByID(_ context.Context, id int) (*discovery.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.users[id], nil
}

func (f *fakeUsers) FindAllExcept(_ context.Context, id int, limit int) ([]*discovery.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*discovery.User, 0, len(f.users))
	for _, u := range f.users {
		if u.ID != id {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeUsers) FindNearby(_ context.Context, lat, lon, radiusKm float64, limit int) ([]*discovery.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*discovery.User, 0)
	for _, u := range f.users {
		if !u.HasLocation() || discovery.DistanceKm(&lat, &lon, u.Latitude, u.Longitude) > radiusKm {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// fakeLikes is an in-memory likeStore over a fakeUsers.
type fakeLikes struct {
	users *fakeUsers
	likes [][2]int
	err   error
}

func (f *fakeLikes) has(liker, liked int) int {
	for i, l := range f.likes {
		if l == [2]int{liker, liked} {
			return i
		}
	}
	return -1
}

func (f *fakeLikes) ToggleLike(_ context.Context, likerID, likedID int) (likeResult, error) {
	if f.err != nil {
		return likeResult{}, f.err
	}
	f.users.mu.Lock()
	defer f.users.mu.Unlock()
	u, ok := f.users.users[likedID]
	if !ok {
		return likeResult{}, errUserNotFound
	}
	var res likeResult
	if i := f.has(likerID, likedID); i >= 0 {
		f.likes = append(f.likes[:i], f.likes[i+1:]...)
		u.LikesCount--
	} else {
		f.likes = append(f.likes, [2]int{likerID, likedID})
		u.LikesCount++
		res.Liked = true
		res.Match = f.has(likedID, likerID) >= 0
	}
	refreshStats(u, f.users.now())
	res.User = u
	return res, nil
}

func (f *fakeLikes) LikedIDsBy(_ context.Context, viewerID int) ([]int, error) {
	if f.err != nil {
		return nil, f.err
	}
	ids := make([]int, 0)
	for _, l := range f.likes {
		if l[0] == viewerID {
			ids = append(ids, l[1])
		}
	}
	return ids, nil
}

func (f *fakeLikes) LikedByIDs(_ context.Context, userID int) ([]int, error) {
	if f.err != nil {
		return nil, f.err
	}
	ids := make([]int, 0)
	for i := len(f.likes) - 1; i >= 0; i-- {
		if f.likes[i][1] == userID {
			ids = append(ids, f.likes[i][0])
		}
	}
	return ids, nil
}

func (f *fakeLikes) MatchedIDs(_ context.Context, userID int) ([]int, error) {
	if f.err != nil {
		return nil, f.err
	}
	ids := make([]int, 0)
	for _, l := range f.likes {
		if l[0] == userID && f.has(l[1], userID) >= 0 {
			ids = append(ids, l[1])
		}
	}
	return ids, nil
}

// fakeDiscovery records the last request it received.
type fakeDiscovery struct {
	suggestions discovery.SuggestionsRequest
	search      discovery.SearchRequest
	page        *discovery.Page
	err         error
}

func (f *fakeDiscovery) Suggestions(_ context.Context, req discovery.SuggestionsRequest) (*discovery.Page, error) {
	f.suggestions = req
	if f.err != nil {
		return nil, f.err
	}
	return f.page, nil
}

func (f *fakeDiscovery) Search(_ context.Context, req discovery.SearchRequest) (*discovery.Page, error) {
	f.search = req
	if f.err != nil {
		return nil, f.err
	}
	return f.page, nil
}

// --- helpers ---

func ptr[T any](v T) *T { return &v }

func testUser(id int, gender string) *discovery.User {
	return &discovery.User{
		ID:        id,
		Email:     "user" + strconv.Itoa(id) + "@test.local",
		Username:  "user" + strconv.Itoa(id),
		FirstName: "Test",
		LastName:  "User",
		Gender:    gender,
		CreatedAt: time.Now().Add(-24 * time.Hour),
	}
}

func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// asUser attaches an authenticated caller to r, as requireAuth would.
func asUser(r *http.Request, id int) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), userIDKey, id))
}
