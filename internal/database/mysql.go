package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dorm-listing-portal/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type GormDB struct {
	db *gorm.DB
}

func NewGormDB(host, port, user, password, dbname string) (*GormDB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		user, password, host, port, dbname)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
		NowFunc: func() time.Time {
			return time.Now().Local()
		},
	})
	if err != nil {
		return nil, err
	}

	// Test connection
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, err
	}

	return &GormDB{db: db}, nil
}

// NewGormDBFromDB creates a GormDB wrapper from an existing gorm.DB instance
func NewGormDBFromDB(db *gorm.DB) *GormDB {
	return &GormDB{db: db}
}

// DB returns the underlying gorm.DB instance
func (gdb *GormDB) DB() *gorm.DB {
	return gdb.db
}

func (gdb *GormDB) Close() error {
	sqlDB, err := gdb.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// InitSchema creates tables using GORM AutoMigrate
func (gdb *GormDB) InitSchema() error {
	return gdb.db.AutoMigrate(
		&models.User{},
		&models.Listing{},
		&models.ListingRoom{},
		&models.ListingAmenity{},
		&models.ListingConvenience{},
		&models.ListingImage{},
	)
}

// InsertListing creates the parent listing row
func (gdb *GormDB) InsertListing(ctx context.Context, l *models.Listing) error {
	return gdb.db.WithContext(ctx).Create(l).Error
}

func (gdb *GormDB) InsertRoom(ctx context.Context, r *models.ListingRoom) error {
	return gdb.db.WithContext(ctx).Omit("Listing").Create(r).Error
}

func (gdb *GormDB) InsertAmenity(ctx context.Context, a *models.ListingAmenity) error {
	return gdb.db.WithContext(ctx).Omit("Listing").Create(a).Error
}

func (gdb *GormDB) InsertConvenience(ctx context.Context, c *models.ListingConvenience) error {
	return gdb.db.WithContext(ctx).Omit("Listing").Create(c).Error
}

func (gdb *GormDB) InsertImage(ctx context.Context, img *models.ListingImage) error {
	return gdb.db.WithContext(ctx).Omit("Listing").Create(img).Error
}

// GetListingDetail retrieves a listing and all of its child rows
func (gdb *GormDB) GetListingDetail(ctx context.Context, id string) (*models.ListingDetail, error) {
	tx := gdb.db.WithContext(ctx)

	var detail models.ListingDetail
	if err := tx.Where("id = ?", id).First(&detail.Listing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := tx.Where("listing_id = ?", id).Order("id ASC").Find(&detail.Rooms).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("listing_id = ?", id).Order("id ASC").Find(&detail.Amenities).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("listing_id = ?", id).Order("id ASC").Find(&detail.Conveniences).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("listing_id = ?", id).Order("id ASC").Find(&detail.Images).Error; err != nil {
		return nil, err
	}
	return &detail, nil
}

// QueryListings retrieves listings matching every set field of f, newest first
func (gdb *GormDB) QueryListings(ctx context.Context, f models.ListingFilter) ([]models.Listing, error) {
	var listings []models.Listing
	err := gdb.applyListingFilter(gdb.db.WithContext(ctx), f).Find(&listings).Error
	return listings, err
}

// applyListingFilter translates the filter into WHERE clauses combined with AND
func (gdb *GormDB) applyListingFilter(tx *gorm.DB, f models.ListingFilter) *gorm.DB {
	tx = tx.Model(&models.Listing{})

	if f.DormType != nil {
		tx = tx.Where("type = ?", string(*f.DormType))
	}
	if f.GenderPref != nil {
		tx = tx.Where("gender_pref = ?", string(*f.GenderPref))
	}
	if f.MinPrice != nil {
		tx = tx.Where("monthly_price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		tx = tx.Where("monthly_price <= ?", *f.MaxPrice)
	}

	// Listing must carry every requested amenity
	if amenities := uniqueAmenityDisplays(f); len(amenities) > 0 {
		sub := gdb.db.Model(&models.ListingAmenity{}).
			Select("listing_id").
			Where("amenity IN ?", amenities).
			Group("listing_id").
			Having("COUNT(DISTINCT amenity) = ?", len(amenities))
		tx = tx.Where("id IN (?)", sub)
	}

	if f.MinRooms != nil && *f.MinRooms > 0 {
		sub := gdb.db.Model(&models.ListingRoom{}).
			Select("listing_id").
			Group("listing_id").
			Having("COUNT(*) >= ?", *f.MinRooms)
		tx = tx.Where("id IN (?)", sub)
	}

	return tx.Order("created_at DESC")
}

func (gdb *GormDB) CreateUser(ctx context.Context, u *models.User) error {
	return gdb.db.WithContext(ctx).Create(u).Error
}

func (gdb *GormDB) GetUser(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := gdb.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUserRole sets the role and marks it initialized in one statement
func (gdb *GormDB) UpdateUserRole(ctx context.Context, id string, role models.UserRole) error {
	tx := gdb.db.WithContext(ctx)
	result := tx.Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"role":             string(role),
			"role_initialized": true,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	// MySQL reports 0 affected rows when the values are unchanged
	var count int64
	if err := tx.Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}
