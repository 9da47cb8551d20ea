package models

// ListingConvenience is a free-text perk an owner adds beyond the fixed amenities
type ListingConvenience struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" db:"id" json:"id"`
	ListingID string `gorm:"type:varchar(36);not null;index" db:"listing_id" json:"listing_id"`
	Title     string `gorm:"type:varchar(255);not null" db:"title" json:"title"`

	// Relationship
	Listing Listing `gorm:"foreignKey:ListingID;references:ID;constraint:OnDelete:CASCADE" db:"-" json:"-"`
}

func (ListingConvenience) TableName() string {
	return "listings_conveniences"
}
