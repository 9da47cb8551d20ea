package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"dorm-listing-portal/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type DB struct {
	conn *sqlx.DB
}

func NewDB(host, port, user, password, dbname, sslmode string) (*DB, error) {
	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		host, port, user, password, dbname, sslmode)

	conn, err := sqlx.Connect("postgres", connStr)
	if err != nil {
		return nil, err
	}

	return &DB{conn: conn}, nil
}

// NewDBFromSQL wraps an already opened *sql.DB (used by tests with sqlmock)
func NewDBFromSQL(db *sql.DB) *DB {
	return &DB{conn: sqlx.NewDb(db, "postgres")}
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// InitSchema creates the marketplace tables if they don't exist
func (db *DB) InitSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id VARCHAR(64) PRIMARY KEY,
		email VARCHAR(255) NOT NULL UNIQUE,
		role VARCHAR(20),
		role_initialized BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS listings (
		id VARCHAR(36) PRIMARY KEY,
		owner_id VARCHAR(64) NOT NULL,
		type VARCHAR(20) NOT NULL,
		monthly_price DECIMAL(10, 2) NOT NULL CHECK (monthly_price >= 0 AND monthly_price <= 9999),
		location TEXT,
		gender_pref VARCHAR(20),
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS listings_rooms (
		id BIGSERIAL PRIMARY KEY,
		listing_id VARCHAR(36) NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
		name VARCHAR(100) NOT NULL,
		total_beds INTEGER NOT NULL DEFAULT 0 CHECK (total_beds >= 0),
		occupied_beds INTEGER NOT NULL DEFAULT 0 CHECK (occupied_beds >= 0 AND occupied_beds <= total_beds)
	);

	CREATE TABLE IF NOT EXISTS listings_amenities (
		id BIGSERIAL PRIMARY KEY,
		listing_id VARCHAR(36) NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
		amenity VARCHAR(100) NOT NULL
	);

	CREATE TABLE IF NOT EXISTS listings_conveniences (
		id BIGSERIAL PRIMARY KEY,
		listing_id VARCHAR(36) NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
		title VARCHAR(255) NOT NULL
	);

	CREATE TABLE IF NOT EXISTS listings_images (
		id BIGSERIAL PRIMARY KEY,
		listing_id VARCHAR(36) NOT NULL REFERENCES listings(id) ON DELETE CASCADE,
		image_url VARCHAR(255) NOT NULL UNIQUE,
		created_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	-- Create indexes for filtering
	CREATE INDEX IF NOT EXISTS idx_listings_created_at ON listings(created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_listings_type ON listings(type);
	CREATE INDEX IF NOT EXISTS idx_listings_monthly_price ON listings(monthly_price);
	CREATE INDEX IF NOT EXISTS idx_listings_owner_id ON listings(owner_id);
	CREATE INDEX IF NOT EXISTS idx_rooms_listing_id ON listings_rooms(listing_id);
	CREATE INDEX IF NOT EXISTS idx_amenities_lookup ON listings_amenities(listing_id, amenity);
	CREATE INDEX IF NOT EXISTS idx_conveniences_listing_id ON listings_conveniences(listing_id);
	CREATE INDEX IF NOT EXISTS idx_images_listing_id ON listings_images(listing_id);
	`
	_, err := db.conn.Exec(query)
	return err
}

const listingColumns = `id, owner_id, type, monthly_price, location, gender_pref, title, description, created_at`

// InsertListing saves the parent listing row
func (db *DB) InsertListing(ctx context.Context, l *models.Listing) error {
	query := `
	INSERT INTO listings (id, owner_id, type, monthly_price, location, gender_pref, title, description)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING created_at
	`
	return db.conn.QueryRowxContext(ctx, query,
		l.ID, l.OwnerID, string(l.Type), l.MonthlyPrice, l.Location, l.GenderPref, l.Title, l.Description,
	).Scan(&l.CreatedAt)
}

func (db *DB) InsertRoom(ctx context.Context, r *models.ListingRoom) error {
	query := `INSERT INTO listings_rooms (listing_id, name, total_beds, occupied_beds) VALUES ($1, $2, $3, $4) RETURNING id`
	return db.conn.QueryRowxContext(ctx, query, r.ListingID, r.Name, r.TotalBeds, r.OccupiedBeds).Scan(&r.ID)
}

func (db *DB) InsertAmenity(ctx context.Context, a *models.ListingAmenity) error {
	query := `INSERT INTO listings_amenities (listing_id, amenity) VALUES ($1, $2) RETURNING id`
	return db.conn.QueryRowxContext(ctx, query, a.ListingID, a.Amenity).Scan(&a.ID)
}

func (db *DB) InsertConvenience(ctx context.Context, c *models.ListingConvenience) error {
	query := `INSERT INTO listings_conveniences (listing_id, title) VALUES ($1, $2) RETURNING id`
	return db.conn.QueryRowxContext(ctx, query, c.ListingID, c.Title).Scan(&c.ID)
}

func (db *DB) InsertImage(ctx context.Context, img *models.ListingImage) error {
	query := `INSERT INTO listings_images (listing_id, image_url) VALUES ($1, $2) RETURNING id, created_at`
	return db.conn.QueryRowxContext(ctx, query, img.ListingID, img.ImageURL).Scan(&img.ID, &img.CreatedAt)
}

// GetListingDetail retrieves a listing by ID with its rooms, amenities, conveniences and images
func (db *DB) GetListingDetail(ctx context.Context, id string) (*models.ListingDetail, error) {
	var detail models.ListingDetail

	err := db.conn.GetContext(ctx, &detail.Listing, `SELECT `+listingColumns+` FROM listings WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := db.conn.SelectContext(ctx, &detail.Rooms,
		`SELECT id, listing_id, name, total_beds, occupied_beds FROM listings_rooms WHERE listing_id = $1 ORDER BY id`, id); err != nil {
		return nil, err
	}
	if err := db.conn.SelectContext(ctx, &detail.Amenities,
		`SELECT id, listing_id, amenity FROM listings_amenities WHERE listing_id = $1 ORDER BY id`, id); err != nil {
		return nil, err
	}
	if err := db.conn.SelectContext(ctx, &detail.Conveniences,
		`SELECT id, listing_id, title FROM listings_conveniences WHERE listing_id = $1 ORDER BY id`, id); err != nil {
		return nil, err
	}
	if err := db.conn.SelectContext(ctx, &detail.Images,
		`SELECT id, listing_id, image_url, created_at FROM listings_images WHERE listing_id = $1 ORDER BY id`, id); err != nil {
		return nil, err
	}

	return &detail, nil
}

// QueryListings retrieves listings matching every set field of f, newest first
func (db *DB) QueryListings(ctx context.Context, f models.ListingFilter) ([]models.Listing, error) {
	query, args := buildListingQuery(f)

	var listings []models.Listing
	if err := db.conn.SelectContext(ctx, &listings, query, args...); err != nil {
		return nil, err
	}
	return listings, nil
}

// buildListingQuery translates the filter into a SELECT with AND-combined predicates
func buildListingQuery(f models.ListingFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.DormType != nil {
		conditions = append(conditions, "type = "+arg(string(*f.DormType)))
	}
	if f.GenderPref != nil {
		conditions = append(conditions, "gender_pref = "+arg(string(*f.GenderPref)))
	}
	if f.MinPrice != nil {
		conditions = append(conditions, "monthly_price >= "+arg(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		conditions = append(conditions, "monthly_price <= "+arg(*f.MaxPrice))
	}
	if amenities := uniqueAmenityDisplays(f); len(amenities) > 0 {
		conditions = append(conditions, fmt.Sprintf(
			"id IN (SELECT listing_id FROM listings_amenities WHERE amenity = ANY(%s) GROUP BY listing_id HAVING COUNT(DISTINCT amenity) = %s)",
			arg(pq.Array(amenities)), arg(len(amenities))))
	}
	if f.MinRooms != nil && *f.MinRooms > 0 {
		conditions = append(conditions, fmt.Sprintf(
			"id IN (SELECT listing_id FROM listings_rooms GROUP BY listing_id HAVING COUNT(*) >= %s)",
			arg(*f.MinRooms)))
	}

	query := `SELECT ` + listingColumns + ` FROM listings`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"
	return query, args
}

func (db *DB) CreateUser(ctx context.Context, u *models.User) error {
	query := `INSERT INTO users (id, email) VALUES ($1, $2) RETURNING role, role_initialized, created_at`
	return db.conn.QueryRowxContext(ctx, query, u.ID, u.Email).Scan(&u.Role, &u.RoleInitialized, &u.CreatedAt)
}

func (db *DB) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := db.conn.GetContext(ctx, &user, `SELECT id, email, role, role_initialized, created_at FROM users WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUserRole sets the role and marks it initialized in one statement
func (db *DB) UpdateUserRole(ctx context.Context, id string, role models.UserRole) error {
	result, err := db.conn.ExecContext(ctx,
		`UPDATE users SET role = $1, role_initialized = TRUE WHERE id = $2`, string(role), id)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
