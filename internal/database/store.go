package database

import (
	"context"
	"errors"
	"fmt"

	"dorm-listing-portal/internal/config"
	"dorm-listing-portal/internal/models"
)

// ErrNotFound is returned when a keyed select or update matches no row.
var ErrNotFound = errors.New("record not found")

// Store is the record store gateway shared by the mysql, postgres and memory backends.
type Store interface {
	InitSchema() error
	Close() error

	InsertListing(ctx context.Context, l *models.Listing) error
	InsertRoom(ctx context.Context, r *models.ListingRoom) error
	InsertAmenity(ctx context.Context, a *models.ListingAmenity) error
	InsertConvenience(ctx context.Context, c *models.ListingConvenience) error
	InsertImage(ctx context.Context, img *models.ListingImage) error

	GetListingDetail(ctx context.Context, id string) (*models.ListingDetail, error)
	QueryListings(ctx context.Context, f models.ListingFilter) ([]models.Listing, error)

	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	UpdateUserRole(ctx context.Context, id string, role models.UserRole) error
}

// Open connects to the backend selected by cfg.Type. Env values win over empty config fields.
func Open(cfg config.DatabaseConfig, env func(key, configValue, defaultValue string) string) (Store, error) {
	switch cfg.Type {
	case "mysql":
		c := cfg.MySQL
		return NewGormDB(
			env("DB_HOST", c.Host, "mysql"),
			env("DB_PORT", portString(c.Port), "3306"),
			env("DB_USER", c.User, "dorm_user"),
			env("DB_PASSWORD", c.Password, "dorm_pass"),
			env("DB_NAME", c.Database, "dorm_listings"),
		)
	case "", "postgres":
		c := cfg.Postgres
		return NewDB(
			env("DB_HOST", c.Host, "db"),
			env("DB_PORT", portString(c.Port), "5432"),
			env("DB_USER", c.User, "dorm_user"),
			env("DB_PASSWORD", c.Password, "dorm_pass"),
			env("DB_NAME", c.Database, "dorm_listings"),
			env("DB_SSLMODE", c.SSLMode, "disable"),
		)
	case "memory":
		return NewMemoryDB(), nil
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}

// Get port as string, handle 0 as empty
func portString(port int) string {
	if port > 0 {
		return fmt.Sprintf("%d", port)
	}
	return ""
}

// uniqueAmenityDisplays dedupes the filter's amenities so HAVING COUNT matches.
func uniqueAmenityDisplays(f models.ListingFilter) []string {
	seen := make(map[string]bool, len(f.Amenities))
	var out []string
	for _, d := range f.AmenityDisplays() {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}
