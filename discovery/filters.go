package discovery

import (
	"math"
	"time"
)

const yearDuration = time.Duration(365.25 * 24 * float64(time.Hour))

// SearchFilters are the attribute filters of the search flow. Zero values
// disable a filter. The filters are independent intersections, so the
// order they run in does not change the result.
type SearchFilters struct {
	MinAge    int
	MaxAge    int
	MinFame   *float64
	MaxFame   *float64
	Genders   []string
	Interests []string
}

// AgeAt returns whole years between birth and now, counting 365.25 days
// per year.
func AgeAt(birth, now time.Time) int {
	return int(math.Floor(float64(now.Sub(birth)) / float64(yearDuration)))
}

// Match reports whether u passes every enabled filter. An age filter drops
// users without a birth date.
func (f SearchFilters) Match(u *User, now time.Time) bool {
	if f.MinAge > 0 || f.MaxAge > 0 {
		if u.BirthDate == nil {
			return false
		}
		age := AgeAt(*u.BirthDate, now)
		if f.MinAge > 0 && age < f.MinAge {
			return false
		}
		if f.MaxAge > 0 && age > f.MaxAge {
			return false
		}
	}
	fame := float64(u.FameRating)
	if f.MinFame != nil && fame < *f.MinFame {
		return false
	}
	if f.MaxFame != nil && fame > *f.MaxFame {
		return false
	}
	if len(f.Genders) > 0 && !Contains(StringList(f.Genders), u.Gender) {
		return false
	}
	if len(f.Interests) > 0 {
		for _, tag := range f.Interests {
			if Contains(u.Interests, tag) {
				return true
			}
		}
		return false
	}
	return true
}

// Apply keeps the users that Match.
func (f SearchFilters) Apply(users []*User, now time.Time) []*User {
	out := make([]*User, 0, len(users))
	for _, u := range users {
		if f.Match(u, now) {
			out = append(out, u)
		}
	}
	return out
}
