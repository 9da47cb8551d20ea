package models

import "strings"

// ListingAmenity is an amenity tag stored in its display form ("Includes Parking")
type ListingAmenity struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" db:"id" json:"id"`
	ListingID string `gorm:"type:varchar(36);not null;index:idx_amenity_lookup" db:"listing_id" json:"listing_id"`
	Amenity   string `gorm:"type:varchar(100);not null;index:idx_amenity_lookup" db:"amenity" json:"amenity"`

	// Relationship
	Listing Listing `gorm:"foreignKey:ListingID;references:ID;constraint:OnDelete:CASCADE" db:"-" json:"-"`
}

// TableName specifies the table name
func (ListingAmenity) TableName() string {
	return "listings_amenities"
}

// Amenity is one of the fixed amenities an owner can advertise.
type Amenity string

const (
	AmenityInternet         Amenity = "Wi-Fi/Internet"
	AmenityWaterBills       Amenity = "Water Bills"
	AmenityElectricityBills Amenity = "Electricity Bills"
	AmenityAirConditioning  Amenity = "Air-Conditioning"
	AmenityParking          Amenity = "Parking"
	AmenityPetsAllowed      Amenity = "Pets Allowed"
	AmenityVisitorsAllowed  Amenity = "Visitors Allowed"
)

var Amenities = []Amenity{
	AmenityInternet,
	AmenityWaterBills,
	AmenityElectricityBills,
	AmenityAirConditioning,
	AmenityParking,
	AmenityPetsAllowed,
	AmenityVisitorsAllowed,
}

const amenityPrefix = "Includes "

func (a Amenity) Valid() bool {
	for _, known := range Amenities {
		if a == known {
			return true
		}
	}
	return false
}

// Display returns the phrase persisted in listings_amenities.amenity.
func (a Amenity) Display() string {
	return amenityPrefix + string(a)
}

// ParseAmenity accepts either the bare name or its display phrase.
func ParseAmenity(s string) (Amenity, bool) {
	a := Amenity(strings.TrimPrefix(strings.TrimSpace(s), amenityPrefix))
	if !a.Valid() {
		return "", false
	}
	return a, true
}
