package explore

import (
	"context"
	"log/slog"
	"time"

	"dorm-listing-portal/internal/models"

	"github.com/jellydator/ttlcache/v3"
)

// Store runs the structured listing query
type Store interface {
	QueryListings(ctx context.Context, f models.ListingFilter) ([]models.Listing, error)
}

// Searcher runs a full-text query restricted by the same filter
type Searcher interface {
	FilterSearch(ctx context.Context, f models.ListingFilter, limit int64) ([]models.Listing, error)
}

type Service struct {
	store    Store
	searcher Searcher
	cache    *ttlcache.Cache[string, []models.Listing]
	logger   *slog.Logger
}

// NewService creates the explore service. searcher may be nil, in which case the
// text query is ignored. A ttl of zero disables result caching.
func NewService(store Store, searcher Searcher, ttl time.Duration, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{store: store, searcher: searcher, logger: logger}
	if ttl > 0 {
		s.cache = ttlcache.New(
			ttlcache.WithTTL[string, []models.Listing](ttl),
			ttlcache.WithDisableTouchOnHit[string, []models.Listing](),
		)
		go s.cache.Start()
	}
	return s
}

// Query returns the listings matching every set field of f, newest first.
// An empty filter returns every listing.
func (s *Service) Query(ctx context.Context, f models.ListingFilter) ([]models.Listing, error) {
	key := f.Key()
	if s.cache != nil {
		if item := s.cache.Get(key); item != nil {
			return item.Value(), nil
		}
	}

	var (
		listings []models.Listing
		err      error
	)
	if f.Query != "" && s.searcher != nil {
		listings, err = s.searcher.FilterSearch(ctx, f, 0)
	} else {
		listings, err = s.store.QueryListings(ctx, f)
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "explore query failed", "filter", key, "error", err)
		return nil, err
	}
	if listings == nil {
		listings = []models.Listing{}
	}

	if s.cache != nil {
		s.cache.Set(key, listings, ttlcache.DefaultTTL)
	}
	return listings, nil
}

// Invalidate drops every cached result, e.g. after a new listing is created
func (s *Service) Invalidate() {
	if s.cache != nil {
		s.cache.DeleteAll()
	}
}

func (s *Service) Close() {
	if s.cache != nil {
		s.cache.Stop()
	}
}
