package discovery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aitomarabdeljalil/42-Matcha/logging"
	"github.com/aitomarabdeljalil/42-Matcha/metrics"
)

// ErrViewerNotFound is returned when the requesting user id does not
// resolve to a profile.
var ErrViewerNotFound = errors.New("viewer not found")

// Page is one page of ranked candidates. Total counts the whole scored
// set, not just this page.
type Page struct {
	Page    int      `json:"page"`
	PerPage int      `json:"perPage"`
	Results []Scored `json:"results"`
	Total   int      `json:"total"`
}

// SuggestionsRequest drives the suggestions flow. Zero values take the
// SuggestionsConfig defaults.
type SuggestionsRequest struct {
	ViewerID      int
	Page          int
	MaxDistanceKm float64
	Weights       ScoreWeights
	Sort          SortKey
}

// SearchRequest drives the search flow. MaxDistanceKm 0 means no radius.
type SearchRequest struct {
	ViewerID      int
	Page          int
	PerPage       int
	MaxDistanceKm float64
	Filters       SearchFilters
	Sort          SortKey
}

type Service struct {
	users   UserStore
	fetcher *Fetcher
	now     func() time.Time
}

func NewService(users UserStore, likes LikeStore) *Service {
	return &Service{
		users:   users,
		fetcher: NewFetcher(users, likes),
		now:     time.Now,
	}
}

// WithClock overrides the time source used for recency and age.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Suggestions ranks compatible candidates around the viewer.
func (s *Service) Suggestions(ctx context.Context, req SuggestionsRequest) (*Page, error) {
	p := SuggestionsConfig
	maxDistance := req.MaxDistanceKm
	if maxDistance <= 0 {
		maxDistance = p.DefaultMaxDistanceKm
	}
	w := req.Weights
	if w == (ScoreWeights{}) {
		w = p.Weights
	}
	return s.run(ctx, p, req.ViewerID, maxDistance, w, nil, req.Sort, req.Page, p.PerPage)
}

// Search is Suggestions with attribute filters, a caller page size and
// the search weights.
func (s *Service) Search(ctx context.Context, req SearchRequest) (*Page, error) {
	p := SearchConfig
	perPage := req.PerPage
	if perPage < 1 {
		perPage = p.PerPage
	}
	filters := req.Filters
	return s.run(ctx, p, req.ViewerID, req.MaxDistanceKm, p.Weights, &filters, req.Sort, req.Page, perPage)
}

func (s *Service) run(ctx context.Context, p Preset, viewerID int, maxDistanceKm float64,
	w ScoreWeights, filters *SearchFilters, sortKey SortKey, page, perPage int) (_ *Page, err error) {
	started := time.Now()
	defer func() { metrics.RecordDiscovery(p.Name, time.Since(started), err) }()

	viewer, err := s.users.FindByID(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("load viewer %d: %w", viewerID, err)
	}
	if viewer == nil {
		return nil, ErrViewerNotFound
	}

	candidates, err := s.fetcher.Fetch(ctx, viewer, maxDistanceKm, p)
	if err != nil {
		return nil, err
	}
	metrics.ObserveCandidates(p.Name, "fetched", len(candidates))

	candidates = FilterCompatible(viewer, candidates)
	metrics.ObserveCandidates(p.Name, "compatible", len(candidates))

	now := s.now()
	if filters != nil {
		candidates = filters.Apply(candidates, now)
		metrics.ObserveCandidates(p.Name, "filtered", len(candidates))
	}

	scored := Rank(ScoreAll(viewer, candidates, w, now), sortKey)
	if page < 1 {
		page = 1
	}

	logging.Ctx(ctx).Debug().
		Str("flow", p.Name).
		Int("viewer_id", viewer.ID).
		Int("candidates", len(scored)).
		Str("sort", string(sortKey)).
		Msg("discovery page built")

	return &Page{
		Page:    page,
		PerPage: perPage,
		Results: Paginate(scored, page, perPage),
		Total:   len(scored),
	}, nil
}
