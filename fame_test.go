package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aitomarabdeljalil/42-Matcha/discovery"
)

func TestProfileCompletion(t *testing.T) {
	tests := []struct {
		name string
		user discovery.User
		want int
	}{
		{"empty", discovery.User{}, 0},
		{"gender only", discovery.User{Gender: "male"}, 15},
		{"orientation via preferred gender", discovery.User{PreferredGender: "female"}, 15},
		{"orientation via preferences", discovery.User{SexualPreferences: discovery.StringList{"male"}}, 15},
		{"bio and interests", discovery.User{Biography: "hi", Interests: discovery.StringList{"go"}}, 35},
		{"two photos", discovery.User{Photos: discovery.StringList{"a", "b"}}, 14},
		{"full", discovery.User{
			Gender:            "female",
			SexualPreferences: discovery.StringList{"male"},
			Biography:         "hello",
			Interests:         discovery.StringList{"go"},
			Photos:            discovery.StringList{"1", "2", "3", "4", "5"},
		}, 100},
		{"photos are capped", discovery.User{Photos: discovery.StringList{"1", "2", "3", "4", "5", "6", "7"}}, 35},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, profileCompletion(&tt.user))
		})
	}
}

func TestFameRating(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("new empty profile", func(t *testing.T) {
		u := discovery.User{CreatedAt: now}
		assert.Equal(t, 0, fameRating(&u, now))
	})

	t.Run("saturated profile", func(t *testing.T) {
		u := discovery.User{
			ProfileViews:      5000,
			LikesCount:        5000,
			ProfileCompletion: 100,
			CreatedAt:         now.AddDate(-3, 0, 0),
		}
		assert.Equal(t, 100, fameRating(&u, now))
	})

	t.Run("weighted blend", func(t *testing.T) {
		// views 10, likes 5, completion 50, age 50 -> 3 + 2 + 10 + 5
		u := discovery.User{
			ProfileViews:      100,
			LikesCount:        50,
			ProfileCompletion: 50,
			CreatedAt:         now.Add(-time.Duration(182.5*24) * time.Hour),
		}
		assert.Equal(t, 20, fameRating(&u, now))
	})

	t.Run("future creation date counts as new", func(t *testing.T) {
		u := discovery.User{ProfileCompletion: 100, CreatedAt: now.Add(48 * time.Hour)}
		assert.Equal(t, 20, fameRating(&u, now))
	})
}

func TestRefreshStats(t *testing.T) {
	now := time.Now()
	u := discovery.User{Gender: "male", Biography: "bio", LikesCount: 1000, CreatedAt: now}
	refreshStats(&u, now)
	assert.Equal(t, 35, u.ProfileCompletion)
	// likes 100*0.4 + completion 35*0.2
	assert.Equal(t, 47, u.FameRating)
}
