package main

import (
	"math"
	"time"

	"github.com/aitomarabdeljalil/42-Matcha/discovery"
)

const maxPhotos = 5

// profileCompletion scores how filled-in a profile is, 0..100.
func profileCompletion(u *discovery.User) int {
	score := 0
	if u.Gender != "" {
		score += 15
	}
	if u.PreferredGender != "" || len(u.SexualPreferences) > 0 {
		score += 15
	}
	if u.Biography != "" {
		score += 20
	}
	if len(u.Interests) > 0 {
		score += 15
	}
	photos := int(math.Round(float64(len(u.Photos)) / maxPhotos * 35))
	score += min(35, photos)
	return score
}

// fameRating blends views, likes, completion and account age into 0..100.
// Views and likes saturate at 1000, account age at one year.
func fameRating(u *discovery.User, now time.Time) int {
	views := min(100, math.Round(float64(u.ProfileViews)/1000*100))
	likes := min(100, math.Round(float64(u.LikesCount)/1000*100))

	days := math.Floor(now.Sub(u.CreatedAt).Hours() / 24)
	days = math.Max(0, math.Min(days, 365))
	age := math.Round(days / 365 * 100)

	fame := math.Round(0.30*views + 0.40*likes + 0.20*float64(u.ProfileCompletion) + 0.10*age)
	return int(math.Max(0, math.Min(100, fame)))
}

// refreshStats recomputes the derived profile fields in place.
func refreshStats(u *discovery.User, now time.Time) {
	u.ProfileCompletion = profileCompletion(u)
	u.FameRating = fameRating(u, now)
}
