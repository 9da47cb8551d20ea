package models

import (
	"fmt"
	"sort"
	"strings"
)

// ListingFilter is the explore page filter set. Nil or empty fields are not applied;
// the rest are combined with AND.
type ListingFilter struct {
	Query      string            `json:"q,omitempty"`
	DormType   *DormType         `json:"dorm_type,omitempty"`
	GenderPref *GenderPreference `json:"gender_pref,omitempty"`
	Amenities  []Amenity         `json:"amenities,omitempty"`
	MinPrice   *float64          `json:"min_price,omitempty"`
	MaxPrice   *float64          `json:"max_price,omitempty"`
	MinRooms   *int              `json:"min_rooms,omitempty"`
}

// IsEmpty reports whether no predicate would be applied
func (f ListingFilter) IsEmpty() bool {
	return f.Query == "" && f.DormType == nil && f.GenderPref == nil && len(f.Amenities) == 0 &&
		f.MinPrice == nil && f.MaxPrice == nil && f.MinRooms == nil
}

// Key returns a stable string for the filter, used as a cache key.
func (f ListingFilter) Key() string {
	var parts []string
	if f.Query != "" {
		parts = append(parts, "q="+f.Query)
	}
	if f.DormType != nil {
		parts = append(parts, "type="+string(*f.DormType))
	}
	if f.GenderPref != nil {
		parts = append(parts, "gender="+string(*f.GenderPref))
	}
	if len(f.Amenities) > 0 {
		names := make([]string, len(f.Amenities))
		for i, a := range f.Amenities {
			names[i] = string(a)
		}
		sort.Strings(names)
		parts = append(parts, "amenities="+strings.Join(names, ","))
	}
	if f.MinPrice != nil {
		parts = append(parts, fmt.Sprintf("min=%g", *f.MinPrice))
	}
	if f.MaxPrice != nil {
		parts = append(parts, fmt.Sprintf("max=%g", *f.MaxPrice))
	}
	if f.MinRooms != nil {
		parts = append(parts, fmt.Sprintf("rooms=%d", *f.MinRooms))
	}
	return strings.Join(parts, "&")
}

// AmenityDisplays returns the stored phrases of the filter's amenities
func (f ListingFilter) AmenityDisplays() []string {
	out := make([]string, len(f.Amenities))
	for i, a := range f.Amenities {
		out[i] = a.Display()
	}
	return out
}
