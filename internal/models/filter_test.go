package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListingFilterKeyIsOrderIndependent(t *testing.T) {
	a := ListingFilter{Amenities: []Amenity{AmenityParking, AmenityInternet}}
	b := ListingFilter{Amenities: []Amenity{AmenityInternet, AmenityParking}}

	assert.Equal(t, a.Key(), b.Key())
	assert.True(t, ListingFilter{}.IsEmpty())
	assert.False(t, a.IsEmpty())
}

func TestParseAmenity(t *testing.T) {
	a, ok := ParseAmenity("Includes Parking")
	assert.True(t, ok)
	assert.Equal(t, AmenityParking, a)

	a, ok = ParseAmenity(" Wi-Fi/Internet ")
	assert.True(t, ok)
	assert.Equal(t, "Includes Wi-Fi/Internet", a.Display())

	_, ok = ParseAmenity("Pool")
	assert.False(t, ok)
}

func TestRoomAvailableBeds(t *testing.T) {
	r := ListingRoom{TotalBeds: 4, OccupiedBeds: 1}
	assert.Equal(t, 3, r.AvailableBeds())
	assert.Equal(t, "Room 2", DefaultRoomName(1))
}
