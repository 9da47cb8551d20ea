package models

import "fmt"

// ListingRoom is a bed-holding unit of a listing
type ListingRoom struct {
	ID           int64  `gorm:"primaryKey;autoIncrement" db:"id" json:"id"`
	ListingID    string `gorm:"type:varchar(36);not null;index" db:"listing_id" json:"listing_id"`
	Name         string `gorm:"type:varchar(100);not null" db:"name" json:"name"`
	TotalBeds    int    `gorm:"not null;default:0" db:"total_beds" json:"total_beds"`
	OccupiedBeds int    `gorm:"not null;default:0" db:"occupied_beds" json:"occupied_beds"`

	// Relationship
	Listing Listing `gorm:"foreignKey:ListingID;references:ID;constraint:OnDelete:CASCADE" db:"-" json:"-"`
}

// TableName specifies the table name
func (ListingRoom) TableName() string {
	return "listings_rooms"
}

// DefaultRoomName returns the display name given to the room at zero-based position i.
func DefaultRoomName(i int) string {
	return fmt.Sprintf("Room %d", i+1)
}

// AvailableBeds returns the number of beds not yet occupied
func (r *ListingRoom) AvailableBeds() int {
	if r.OccupiedBeds >= r.TotalBeds {
		return 0
	}
	return r.TotalBeds - r.OccupiedBeds
}
