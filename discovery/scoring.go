package discovery

import (
	"math"
	"time"
)

const (
	// DistanceHorizonKm is where the distance score reaches zero.
	DistanceHorizonKm = 200.0
	// RecencyWindow is where the recency score reaches zero.
	RecencyWindow = 30 * 24 * time.Hour
)

// SubScores are the four normalized factors, each in [0, 1].
type SubScores struct {
	Distance  float64 `json:"distance"`
	Interests float64 `json:"interests"`
	Fame      float64 `json:"fame"`
	Recency   float64 `json:"recency"`
}

// Scored is one ranked candidate. DistanceKm is nil when either side has no
// location.
type Scored struct {
	User            *User     `json:"user"`
	Score           float64   `json:"score"`
	DistanceKm      *float64  `json:"distanceKm"`
	CommonInterests int       `json:"commonInterests"`
	Sub             SubScores `json:"-"`
}

// Score rates candidate for viewer at instant now.
func Score(viewer, candidate *User, w ScoreWeights, now time.Time) Scored {
	s := Scored{User: candidate}

	s.CommonInterests, s.Sub.Interests = interestScore(viewer.Interests, candidate.Interests)
	s.Sub.Fame = fameScore(viewer.FameRating, candidate.FameRating)

	if viewer.HasLocation() && candidate.HasLocation() {
		d := DistanceBetween(viewer, candidate)
		s.DistanceKm = &d
		s.Sub.Distance = distanceScore(d)
	}

	if candidate.LastOnline != nil {
		s.Sub.Recency = recencyScore(now.Sub(*candidate.LastOnline))
	}

	s.Score = s.Sub.Distance*w.Distance +
		s.Sub.Interests*w.Interests +
		s.Sub.Fame*w.Fame +
		s.Sub.Recency*w.Recency
	return s
}

// ScoreAll scores every candidate in order.
func ScoreAll(viewer *User, candidates []*User, w ScoreWeights, now time.Time) []Scored {
	out := make([]Scored, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, Score(viewer, c, w, now))
	}
	return out
}

// interestScore returns the shared tag count and |shared| / max(|a|, |b|)
// over distinct tags. A viewer without interests scores 0.
func interestScore(viewer, candidate StringList) (int, float64) {
	v := Distinct(viewer)
	if len(v) == 0 {
		return 0, 0
	}
	c := Distinct(candidate)
	common := 0
	for _, tag := range v {
		if Contains(c, tag) {
			common++
		}
	}
	return common, float64(common) / float64(max(len(v), len(c)))
}

func fameScore(a, b int) float64 {
	diff := math.Abs(float64(b - a))
	return 1 - math.Min(100, diff)/100
}

func distanceScore(km float64) float64 {
	return math.Max(0, 1-km/DistanceHorizonKm)
}

// recencyScore decays linearly over RecencyWindow. A timestamp in the
// future counts as now.
func recencyScore(idle time.Duration) float64 {
	if idle < 0 {
		return 1
	}
	return math.Max(0, 1-float64(idle)/float64(RecencyWindow))
}
