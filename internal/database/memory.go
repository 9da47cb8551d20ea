package database

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"dorm-listing-portal/internal/models"
)

// MemoryDB is an in-process Store for local development and tests. Like the SQL
// backends it rejects child rows whose listing has not been inserted.
type MemoryDB struct {
	mu sync.RWMutex

	listings     map[string]models.Listing
	rooms        []models.ListingRoom
	amenities    []models.ListingAmenity
	conveniences []models.ListingConvenience
	images       []models.ListingImage
	users        map[string]models.User

	nextID int64
	now    func() time.Time
}

func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		listings: make(map[string]models.Listing),
		users:    make(map[string]models.User),
		now:      time.Now,
	}
}

func (m *MemoryDB) InitSchema() error { return nil }
func (m *MemoryDB) Close() error      { return nil }

// ForeignKeyError is returned when a child row references a listing that does not exist.
type ForeignKeyError struct {
	Table     string
	ListingID string
}

func (e *ForeignKeyError) Error() string {
	return fmt.Sprintf("insert into %s violates foreign key: listing %q does not exist", e.Table, e.ListingID)
}

func (m *MemoryDB) InsertListing(ctx context.Context, l *models.Listing) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.listings[l.ID]; exists {
		return fmt.Errorf("duplicate key value violates unique constraint listings_pkey: %s", l.ID)
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = m.now()
	}
	m.listings[l.ID] = *l
	return nil
}

// checkListing must be called with m.mu held
func (m *MemoryDB) checkListing(table, listingID string) error {
	if _, ok := m.listings[listingID]; !ok {
		return &ForeignKeyError{Table: table, ListingID: listingID}
	}
	return nil
}

func (m *MemoryDB) InsertRoom(ctx context.Context, r *models.ListingRoom) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkListing("listings_rooms", r.ListingID); err != nil {
		return err
	}
	if r.OccupiedBeds > r.TotalBeds || r.TotalBeds < 0 || r.OccupiedBeds < 0 {
		return fmt.Errorf("insert into listings_rooms violates check constraint: occupied_beds %d, total_beds %d",
			r.OccupiedBeds, r.TotalBeds)
	}
	m.nextID++
	r.ID = m.nextID
	m.rooms = append(m.rooms, *r)
	return nil
}

func (m *MemoryDB) InsertAmenity(ctx context.Context, a *models.ListingAmenity) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkListing("listings_amenities", a.ListingID); err != nil {
		return err
	}
	m.nextID++
	a.ID = m.nextID
	m.amenities = append(m.amenities, *a)
	return nil
}

func (m *MemoryDB) InsertConvenience(ctx context.Context, c *models.ListingConvenience) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkListing("listings_conveniences", c.ListingID); err != nil {
		return err
	}
	m.nextID++
	c.ID = m.nextID
	m.conveniences = append(m.conveniences, *c)
	return nil
}

func (m *MemoryDB) InsertImage(ctx context.Context, img *models.ListingImage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkListing("listings_images", img.ListingID); err != nil {
		return err
	}
	for _, existing := range m.images {
		if existing.ImageURL == img.ImageURL {
			return fmt.Errorf("duplicate key value violates unique constraint listings_images_image_url_key: %s", img.ImageURL)
		}
	}
	m.nextID++
	img.ID = m.nextID
	if img.CreatedAt.IsZero() {
		img.CreatedAt = m.now()
	}
	m.images = append(m.images, *img)
	return nil
}

func (m *MemoryDB) GetListingDetail(ctx context.Context, id string) (*models.ListingDetail, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	l, ok := m.listings[id]
	if !ok {
		return nil, ErrNotFound
	}
	detail := &models.ListingDetail{Listing: l}
	for _, r := range m.rooms {
		if r.ListingID == id {
			detail.Rooms = append(detail.Rooms, r)
		}
	}
	for _, a := range m.amenities {
		if a.ListingID == id {
			detail.Amenities = append(detail.Amenities, a)
		}
	}
	for _, c := range m.conveniences {
		if c.ListingID == id {
			detail.Conveniences = append(detail.Conveniences, c)
		}
	}
	for _, img := range m.images {
		if img.ListingID == id {
			detail.Images = append(detail.Images, img)
		}
	}
	return detail, nil
}

func (m *MemoryDB) QueryListings(ctx context.Context, f models.ListingFilter) ([]models.Listing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	roomCounts := make(map[string]int)
	for _, r := range m.rooms {
		roomCounts[r.ListingID]++
	}
	amenitySets := make(map[string]map[string]bool)
	for _, a := range m.amenities {
		if amenitySets[a.ListingID] == nil {
			amenitySets[a.ListingID] = make(map[string]bool)
		}
		amenitySets[a.ListingID][a.Amenity] = true
	}
	wanted := uniqueAmenityDisplays(f)

	var out []models.Listing
	for _, l := range m.listings {
		if f.DormType != nil && l.Type != *f.DormType {
			continue
		}
		if f.GenderPref != nil && (l.GenderPref == nil || *l.GenderPref != *f.GenderPref) {
			continue
		}
		if f.MinPrice != nil && l.MonthlyPrice < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && l.MonthlyPrice > *f.MaxPrice {
			continue
		}
		if f.MinRooms != nil && roomCounts[l.ID] < *f.MinRooms {
			continue
		}
		if !hasAll(amenitySets[l.ID], wanted) {
			continue
		}
		out = append(out, l)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func hasAll(set map[string]bool, wanted []string) bool {
	for _, w := range wanted {
		if !set[w] {
			return false
		}
	}
	return true
}

func (m *MemoryDB) CreateUser(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.users[u.ID]; exists {
		return fmt.Errorf("duplicate key value violates unique constraint users_pkey: %s", u.ID)
	}
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return fmt.Errorf("duplicate key value violates unique constraint users_email_key: %s", u.Email)
		}
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = m.now()
	}
	m.users[u.ID] = *u
	return nil
}

func (m *MemoryDB) GetUser(ctx context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *MemoryDB) UpdateUserRole(ctx context.Context, id string, role models.UserRole) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return ErrNotFound
	}
	r := role
	u.Role = &r
	u.RoleInitialized = true
	m.users[id] = u
	return nil
}

// Counts returns the number of rows per table, for tests and diagnostics.
func (m *MemoryDB) Counts() map[string]int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]int{
		"listings":              len(m.listings),
		"listings_rooms":        len(m.rooms),
		"listings_amenities":    len(m.amenities),
		"listings_conveniences": len(m.conveniences),
		"listings_images":       len(m.images),
		"users":                 len(m.users),
	}
}
