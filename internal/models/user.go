package models

import "time"

// User is the marketplace profile attached to an authenticated account
type User struct {
	ID              string    `gorm:"type:varchar(64);primaryKey" db:"id" json:"id"`
	Email           string    `gorm:"type:varchar(255);not null;uniqueIndex" db:"email" json:"email"`
	Role            *UserRole `gorm:"type:varchar(20)" db:"role" json:"role"`
	RoleInitialized bool      `gorm:"not null;default:false" db:"role_initialized" json:"role_initialized"`
	CreatedAt       time.Time `gorm:"autoCreateTime" db:"created_at" json:"created_at"`
}

// TableName specifies the table name
func (User) TableName() string {
	return "users"
}

// UserRole is chosen once by the user after registration
type UserRole string

const (
	RoleStudent UserRole = "Student"
	RoleOwner   UserRole = "Owner"
)

var UserRoles = []UserRole{RoleStudent, RoleOwner}

func (r UserRole) Valid() bool {
	return r == RoleStudent || r == RoleOwner
}

// HasRole reports whether the user has picked the given role
func (u *User) HasRole(role UserRole) bool {
	return u.Role != nil && *u.Role == role
}
