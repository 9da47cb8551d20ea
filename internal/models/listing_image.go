package models

import "time"

// ListingImage links an uploaded object key to its listing
type ListingImage struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" db:"id" json:"id"`
	ListingID string    `gorm:"type:varchar(36);not null;index" db:"listing_id" json:"listing_id"`
	ImageURL  string    `gorm:"type:varchar(255);not null;uniqueIndex" db:"image_url" json:"image_url"`
	CreatedAt time.Time `gorm:"autoCreateTime" db:"created_at" json:"created_at"`

	// Relationship
	Listing Listing `gorm:"foreignKey:ListingID;references:ID;constraint:OnDelete:CASCADE" db:"-" json:"-"`
}

// TableName specifies the table name for ListingImage
func (ListingImage) TableName() string {
	return "listings_images"
}
