package discovery

import "sort"

// SortKey selects the ordering of a result list.
type SortKey string

const (
	SortCompatibility   SortKey = "compatibility"
	SortDistance        SortKey = "distance"
	SortFame            SortKey = "fame"
	SortCommonInterests SortKey = "commonInterests"
	SortRecent          SortKey = "recent"
)

// ParseSortKey maps a query value to a SortKey, defaulting to
// SortCompatibility.
func ParseSortKey(s string) SortKey {
	switch k := SortKey(s); k {
	case SortDistance, SortFame, SortCommonInterests, SortRecent:
		return k
	default:
		return SortCompatibility
	}
}

// Rank orders list in place and returns it. Ties keep their input order;
// unknown distances and missing last_online sort last.
func Rank(list []Scored, key SortKey) []Scored {
	var less func(a, b Scored) bool
	switch key {
	case SortDistance:
		less = func(a, b Scored) bool {
			if a.DistanceKm == nil || b.DistanceKm == nil {
				return a.DistanceKm != nil && b.DistanceKm == nil
			}
			return *a.DistanceKm < *b.DistanceKm
		}
	case SortFame:
		less = func(a, b Scored) bool { return a.User.FameRating > b.User.FameRating }
	case SortCommonInterests:
		less = func(a, b Scored) bool { return a.CommonInterests > b.CommonInterests }
	case SortRecent:
		less = func(a, b Scored) bool {
			if a.User.LastOnline == nil || b.User.LastOnline == nil {
				return a.User.LastOnline != nil && b.User.LastOnline == nil
			}
			return a.User.LastOnline.After(*b.User.LastOnline)
		}
	default:
		less = func(a, b Scored) bool { return a.Score > b.Score }
	}
	sort.SliceStable(list, func(i, j int) bool { return less(list[i], list[j]) })
	return list
}

// Paginate returns the 1-indexed page of list. Pages past the end are empty,
// never nil; page < 1 is treated as 1.
func Paginate[T any](list []T, page, perPage int) []T {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		return []T{}
	}
	if page-1 > len(list)/perPage {
		return []T{}
	}
	start := (page - 1) * perPage
	if start >= len(list) {
		return []T{}
	}
	end := min(start+perPage, len(list))
	return list[start:end]
}
