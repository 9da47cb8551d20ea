package explore

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"dorm-listing-portal/internal/models"
)

// ParseFilter reads the explore query string. Unknown keys and values that do
// not parse or are outside their enumerated set are ignored. Price bounds are
// applied in the order monthly_price, pricing, min_price/max_price so the most
// explicit key wins.
func ParseFilter(values url.Values) models.ListingFilter {
	var f models.ListingFilter

	f.Query = strings.TrimSpace(values.Get("q"))

	for _, key := range []string{"type", "dorm_type"} {
		if v := strings.TrimSpace(values.Get(key)); v != "" {
			if t := models.DormType(v); t.Valid() {
				f.DormType = &t
			}
		}
	}

	if v := strings.TrimSpace(values.Get("gender_pref")); v != "" {
		if g := models.GenderPreference(v); g.Valid() {
			f.GenderPref = &g
		}
	}

	seen := make(map[models.Amenity]bool)
	for _, raw := range values["amenities"] {
		for _, part := range strings.Split(raw, ",") {
			if a, ok := models.ParseAmenity(part); ok && !seen[a] {
				seen[a] = true
				f.Amenities = append(f.Amenities, a)
			}
		}
	}

	// monthly_price is the most a student wants to pay
	if p, ok := parsePrice(values.Get("monthly_price")); ok {
		f.MaxPrice = &p
	}
	if v := strings.TrimSpace(values.Get("pricing")); v != "" {
		lo, hi, _ := strings.Cut(v, "-")
		if p, ok := parsePrice(lo); ok {
			f.MinPrice = &p
		}
		if p, ok := parsePrice(hi); ok {
			f.MaxPrice = &p
		}
	}
	if p, ok := parsePrice(values.Get("min_price")); ok {
		f.MinPrice = &p
	}
	if p, ok := parsePrice(values.Get("max_price")); ok {
		f.MaxPrice = &p
	}

	if v := strings.TrimSpace(values.Get("rooms")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			f.MinRooms = &n
		}
	}

	return f
}

func parsePrice(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	p, err := strconv.ParseFloat(s, 64)
	if err != nil || p < 0 || math.IsNaN(p) || math.IsInf(p, 0) {
		return 0, false
	}
	return p, true
}
