package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"dorm-listing-portal/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryDB_RejectsOrphanChildren(t *testing.T) {
	db := NewMemoryDB()
	ctx := context.Background()

	err := db.InsertRoom(ctx, &models.ListingRoom{ListingID: "missing", Name: "Room 1", TotalBeds: 1})
	var fkErr *ForeignKeyError
	require.True(t, errors.As(err, &fkErr))
	assert.Equal(t, "listings_rooms", fkErr.Table)

	assert.Error(t, db.InsertAmenity(ctx, &models.ListingAmenity{ListingID: "missing", Amenity: "Includes Parking"}))
	assert.Error(t, db.InsertConvenience(ctx, &models.ListingConvenience{ListingID: "missing", Title: "Laundry"}))
	assert.Error(t, db.InsertImage(ctx, &models.ListingImage{ListingID: "missing", ImageURL: "k"}))
	assert.Zero(t, db.Counts()["listings_rooms"])
}

func TestMemoryDB_QueryListings(t *testing.T) {
	db := NewMemoryDB()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	both := models.GenderBoth
	add := func(id string, typ models.DormType, price float64, rooms int, amenities ...models.Amenity) {
		l := &models.Listing{ID: id, OwnerID: "o", Type: typ, MonthlyPrice: price, GenderPref: &both, Title: "title " + id,
			CreatedAt: base.Add(time.Duration(len(db.listings)) * time.Hour)}
		require.NoError(t, db.InsertListing(ctx, l))
		for i := 0; i < rooms; i++ {
			require.NoError(t, db.InsertRoom(ctx, &models.ListingRoom{ListingID: id, Name: models.DefaultRoomName(i), TotalBeds: 2}))
		}
		for _, a := range amenities {
			require.NoError(t, db.InsertAmenity(ctx, &models.ListingAmenity{ListingID: id, Amenity: a.Display()}))
		}
	}
	add("a", models.DormTypeShared, 1500, 1, models.AmenityParking)
	add("b", models.DormTypeShared, 3000, 3, models.AmenityParking, models.AmenityInternet)
	add("c", models.DormTypePrivate, 5000, 2, models.AmenityInternet)

	all, err := db.QueryListings(ctx, models.ListingFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].ID) // newest first

	shared := models.DormTypeShared
	maxPrice := 2000.0
	got, err := db.QueryListings(ctx, models.ListingFilter{DormType: &shared, MaxPrice: &maxPrice})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)

	got, err = db.QueryListings(ctx, models.ListingFilter{Amenities: []models.Amenity{models.AmenityParking, models.AmenityInternet}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].ID)

	minRooms := 2
	got, err = db.QueryListings(ctx, models.ListingFilter{MinRooms: &minRooms})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestMemoryDB_UpdateUserRole(t *testing.T) {
	db := NewMemoryDB()
	ctx := context.Background()

	assert.ErrorIs(t, db.UpdateUserRole(ctx, "ghost", models.RoleOwner), ErrNotFound)

	require.NoError(t, db.CreateUser(ctx, &models.User{ID: "u1", Email: "u1@example.com"}))
	require.NoError(t, db.UpdateUserRole(ctx, "u1", models.RoleOwner))

	u, err := db.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, u.HasRole(models.RoleOwner))
	assert.True(t, u.RoleInitialized)
}
