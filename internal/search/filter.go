package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"dorm-listing-portal/internal/models"

	"github.com/meilisearch/meilisearch-go"
)

// DefaultLimit caps full-text results when the caller sets no limit
const DefaultLimit = 100

// BuildFilter translates the listing filter into Meilisearch filter expressions,
// one per predicate, to be joined with AND.
func BuildFilter(f models.ListingFilter) []string {
	var filters []string

	if f.DormType != nil {
		filters = append(filters, "type = "+quote(string(*f.DormType)))
	}
	if f.GenderPref != nil {
		filters = append(filters, "gender_pref = "+quote(string(*f.GenderPref)))
	}

	// Price range filter
	if f.MinPrice != nil {
		filters = append(filters, "monthly_price >= "+formatNumber(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		filters = append(filters, "monthly_price <= "+formatNumber(*f.MaxPrice))
	}

	// Each amenity must be present, so one clause per amenity
	for _, a := range f.Amenities {
		filters = append(filters, "amenities = "+quote(string(a)))
	}

	if f.MinRooms != nil {
		filters = append(filters, fmt.Sprintf("room_count >= %d", *f.MinRooms))
	}

	return filters
}

// FilterSearch performs a full-text search restricted by the listing filter
func (s *SearchClient) FilterSearch(ctx context.Context, f models.ListingFilter, limit int64) ([]models.Listing, error) {
	if limit == 0 {
		limit = DefaultLimit
	}

	searchReq := &meilisearch.SearchRequest{
		Limit: limit,
	}
	if filters := BuildFilter(f); len(filters) > 0 {
		searchReq.Filter = strings.Join(filters, " AND ")
	}

	searchRes, err := s.client.Index(s.index).Search(f.Query, searchReq)
	if err != nil {
		return nil, err
	}

	return hitsToListings(searchRes.Hits), nil
}

func quote(v string) string {
	return strconv.Quote(v)
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
