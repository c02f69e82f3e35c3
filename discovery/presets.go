package discovery

// ScoreWeights multiplies each sub-score. Weights are taken as given; they
// do not have to sum to 1.
type ScoreWeights struct {
	Distance  float64
	Interests float64
	Fame      float64
	Recency   float64
}

// DefaultWeights weighs the four factors equally.
func DefaultWeights() ScoreWeights {
	return ScoreWeights{Distance: 0.25, Interests: 0.25, Fame: 0.25, Recency: 0.25}
}

// Preset holds the per-flow defaults of a discovery endpoint.
type Preset struct {
	Name string

	// NearbyPoolLimit caps the radius query, FallbackPoolLimit the
	// unfiltered pool used when no radius applies.
	NearbyPoolLimit   int
	FallbackPoolLimit int

	PerPage int

	// DefaultMaxDistanceKm applies when the caller sends none; 0 means
	// no radius.
	DefaultMaxDistanceKm float64

	Weights ScoreWeights
}

var SuggestionsConfig = Preset{
	Name:                 "suggestions",
	NearbyPoolLimit:      200,
	FallbackPoolLimit:    500,
	PerPage:              20,
	DefaultMaxDistanceKm: 50,
	Weights:              ScoreWeights{Distance: 0.3, Interests: 0.3, Fame: 0.2, Recency: 0.2},
}

var SearchConfig = Preset{
	Name:              "search",
	NearbyPoolLimit:   1000,
	FallbackPoolLimit: 1000,
	PerPage:           20,
	Weights:           ScoreWeights{Distance: 0.25, Interests: 0.35, Fame: 0.2, Recency: 0.2},
}
