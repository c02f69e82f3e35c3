package discovery

import (
	"context"
	"fmt"
	"slices"
)

//go:generate mockgen -source=fetcher.go -destination=discoverymock/store_mock.go -package=discoverymock

// UserStore reads candidate profiles.
type UserStore interface {
	// FindByID returns (nil, nil) when no user has the id.
	FindByID(ctx context.Context, id int) (*User, error)
	FindNearby(ctx context.Context, lat, lon, radiusKm float64, limit int) ([]*User, error)
	FindAllExcept(ctx context.Context, id int, limit int) ([]*User, error)
}

// LikeStore reads the directed like relation.
type LikeStore interface {
	LikedIDsBy(ctx context.Context, viewerID int) ([]int, error)
}

// Fetcher builds the candidate pool for a viewer.
type Fetcher struct {
	users UserStore
	likes LikeStore
}

func NewFetcher(users UserStore, likes LikeStore) *Fetcher {
	return &Fetcher{users: users, likes: likes}
}

// Fetch queries a radius pool when the viewer has a location and
// maxDistanceKm > 0, otherwise an unfiltered pool. Both are capped by the
// preset. The viewer and everyone they liked are removed from the result.
func (f *Fetcher) Fetch(ctx context.Context, viewer *User, maxDistanceKm float64, p Preset) ([]*User, error) {
	var (
		pool []*User
		err  error
	)
	if viewer.HasLocation() && maxDistanceKm > 0 {
		pool, err = f.users.FindNearby(ctx, *viewer.Latitude, *viewer.Longitude, maxDistanceKm, p.NearbyPoolLimit)
	} else {
		pool, err = f.users.FindAllExcept(ctx, viewer.ID, p.FallbackPoolLimit)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch candidate pool: %w", err)
	}

	liked, err := f.likes.LikedIDsBy(ctx, viewer.ID)
	if err != nil {
		return nil, fmt.Errorf("load liked ids: %w", err)
	}
	return Exclude(pool, append(slices.Clip(liked), viewer.ID)), nil
}

// Exclude drops the users whose id is in ids.
func Exclude(users []*User, ids []int) []*User {
	skip := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		skip[id] = struct{}{}
	}
	out := make([]*User, 0, len(users))
	for _, u := range users {
		if u == nil {
			continue
		}
		if _, ok := skip[u.ID]; ok {
			continue
		}
		out = append(out, u)
	}
	return out
}
