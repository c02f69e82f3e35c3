// Package discovery ranks candidate profiles for a viewer: it fetches a
// bounded pool, drops self and already-liked users, keeps only mutually
// compatible profiles, scores them and returns one page.
package discovery

import "time"

const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// Genders lists the accepted values of User.Gender.
var Genders = []string{GenderMale, GenderFemale, GenderOther}

// User is the profile shape the discovery pipeline reads. Stores fill it,
// handlers serialize it.
type User struct {
	ID                int        `json:"id"`
	Email             string     `json:"-"`
	Username          string     `json:"username"`
	FirstName         string     `json:"first_name"`
	LastName          string     `json:"last_name"`
	BirthDate         *time.Time `json:"birth_date"`
	Gender            string     `json:"gender"`
	PreferredGender   string     `json:"preferred_gender"`
	SexualPreferences StringList `json:"sexual_preferences"`
	Interests         StringList `json:"interests"`
	Photos            StringList `json:"photos"`
	Biography         string     `json:"biography"`
	Latitude          *float64   `json:"latitude"`
	Longitude         *float64   `json:"longitude"`
	City              string     `json:"city"`
	Country           string     `json:"country"`
	LocationSource    string     `json:"location_source"`
	LocationUpdatedAt *time.Time `json:"location_updated_at"`
	FameRating        int        `json:"fame_rating"`
	ProfileViews      int        `json:"profile_views"`
	LikesCount        int        `json:"likes_count"`
	ProfileCompletion int        `json:"profile_completion"`
	AvatarURL         string     `json:"avatar_url"`
	LastOnline        *time.Time `json:"last_online"`
	CreatedAt         time.Time  `json:"created_at"`
}

// HasLocation reports whether both coordinates are known.
func (u *User) HasLocation() bool {
	return u.Latitude != nil && u.Longitude != nil
}

// ValidGender reports whether g is one of Genders.
func ValidGender(g string) bool {
	for _, v := range Genders {
		if v == g {
			return true
		}
	}
	return false
}
