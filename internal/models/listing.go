package models

import "time"

type Listing struct {
	// 基本情報
	ID      string `gorm:"type:varchar(36);primaryKey" db:"id" json:"id"`
	OwnerID string `gorm:"type:varchar(64);not null;index" db:"owner_id" json:"owner_id"`

	// フィルタ用属性
	Type         DormType          `gorm:"column:type;type:varchar(20);not null;index" db:"type" json:"type"`
	MonthlyPrice float64           `gorm:"type:decimal(10,2);not null;index" db:"monthly_price" json:"monthly_price"`
	Location     *string           `gorm:"type:text" db:"location" json:"location,omitempty"`
	GenderPref   *GenderPreference `gorm:"type:varchar(20);index" db:"gender_pref" json:"gender_pref,omitempty"`

	Title       string `gorm:"type:text;not null" db:"title" json:"title"`
	Description string `gorm:"type:text" db:"description" json:"description"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime;index:idx_listings_created_at,sort:desc" db:"created_at" json:"created_at"`
}

// TableName はテーブル名を明示的に指定
func (Listing) TableName() string {
	return "listings"
}

// MaxMonthlyPrice is the upper bound accepted for a listing's monthly price.
const MaxMonthlyPrice = 9999

// DormType is the kind of accommodation a listing offers.
type DormType string

const (
	DormTypeShared  DormType = "Shared"
	DormTypePrivate DormType = "Private"
)

// DormTypes lists every accepted dorm type in display order.
var DormTypes = []DormType{DormTypeShared, DormTypePrivate}

// Valid reports whether t is a known dorm type.
func (t DormType) Valid() bool {
	for _, known := range DormTypes {
		if t == known {
			return true
		}
	}
	return false
}

// GenderPreference restricts who a listing is offered to.
type GenderPreference string

const (
	GenderFemaleOnly GenderPreference = "Female Only"
	GenderMaleOnly   GenderPreference = "Male Only"
	GenderBoth       GenderPreference = "Both"
)

var GenderPreferences = []GenderPreference{GenderFemaleOnly, GenderMaleOnly, GenderBoth}

func (g GenderPreference) Valid() bool {
	for _, known := range GenderPreferences {
		if g == known {
			return true
		}
	}
	return false
}

// ListingDetail is a listing together with every child row it owns.
type ListingDetail struct {
	Listing      Listing              `json:"listing"`
	Rooms        []ListingRoom        `json:"rooms"`
	Amenities    []ListingAmenity     `json:"amenities"`
	Conveniences []ListingConvenience `json:"conveniences"`
	Images       []ListingImage       `json:"images"`
}
