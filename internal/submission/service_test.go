package submission

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"dorm-listing-portal/internal/database"
	"dorm-listing-portal/internal/models"
	"dorm-listing-portal/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingStore forwards to a MemoryDB, counting calls and failing the
// methods named in failOn.
type recordingStore struct {
	*database.MemoryDB

	mu     sync.Mutex
	calls  map[string]int
	failOn map[string]error
}

func newRecordingStore() *recordingStore {
	return &recordingStore{
		MemoryDB: database.NewMemoryDB(),
		calls:    make(map[string]int),
		failOn:   make(map[string]error),
	}
}

func (r *recordingStore) record(method string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[method]++
	return r.failOn[method]
}

func (r *recordingStore) callCount(method string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[method]
}

func (r *recordingStore) childCalls() int {
	return r.callCount("InsertRoom") + r.callCount("InsertAmenity") +
		r.callCount("InsertConvenience") + r.callCount("InsertImage")
}

func (r *recordingStore) InsertListing(ctx context.Context, l *models.Listing) error {
	if err := r.record("InsertListing"); err != nil {
		return err
	}
	return r.MemoryDB.InsertListing(ctx, l)
}

func (r *recordingStore) InsertRoom(ctx context.Context, room *models.ListingRoom) error {
	if err := r.record("InsertRoom"); err != nil {
		return err
	}
	return r.MemoryDB.InsertRoom(ctx, room)
}

func (r *recordingStore) InsertAmenity(ctx context.Context, a *models.ListingAmenity) error {
	if err := r.record("InsertAmenity"); err != nil {
		return err
	}
	return r.MemoryDB.InsertAmenity(ctx, a)
}

func (r *recordingStore) InsertConvenience(ctx context.Context, c *models.ListingConvenience) error {
	if err := r.record("InsertConvenience"); err != nil {
		return err
	}
	return r.MemoryDB.InsertConvenience(ctx, c)
}

func (r *recordingStore) InsertImage(ctx context.Context, img *models.ListingImage) error {
	if err := r.record("InsertImage"); err != nil {
		return err
	}
	return r.MemoryDB.InsertImage(ctx, img)
}

type fakeObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: make(map[string][]byte)}
}

func (f *fakeObjectStore) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.objects[key] = data
	return key, nil
}

func (f *fakeObjectStore) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return data, nil
}

func (f *fakeObjectStore) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.objects))
	for k := range f.objects {
		out = append(out, k)
	}
	return out
}

type staticSession string

func (s staticSession) CurrentUserID(ctx context.Context) (string, bool) {
	return string(s), s != ""
}

type recordingIndexer struct {
	mu      sync.Mutex
	indexed []*models.ListingDetail
	err     error
}

func (r *recordingIndexer) IndexListing(ctx context.Context, d *models.ListingDetail) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.indexed = append(r.indexed, d)
	return r.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validPayload() ListingPayload {
	loc := "Sampaloc, Manila"
	pref := models.GenderBoth
	return ListingPayload{
		Type:         models.DormTypeShared,
		MonthlyPrice: 4500,
		Location:     &loc,
		GenderPref:   &pref,
		Title:        "  Sunny bedspace near UST  ",
		Description:  "Walking distance to campus.",
		Rooms: []RoomPayload{
			{TotalBeds: 4, OccupiedBeds: 2},
			{Name: "Loft", TotalBeds: 2, OccupiedBeds: 2},
		},
		Amenities:    []string{"Wi-Fi/Internet", "Includes Water Bills", "Parking"},
		Conveniences: []string{"Near 7-Eleven", "Laundry nearby"},
	}
}

func images(n int) []ImageFile {
	out := make([]ImageFile, n)
	for i := range out {
		out[i] = ImageFile{Filename: "photo.png", ContentType: "image/png", Data: []byte(fmt.Sprintf("png-%d", i))}
	}
	return out
}

type fixture struct {
	store   *recordingStore
	objects *fakeObjectStore
	indexer *recordingIndexer
	svc     *Service
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	f := &fixture{
		store:   newRecordingStore(),
		objects: newFakeObjectStore(),
		indexer: &recordingIndexer{},
	}
	if opts.Logger == nil {
		opts.Logger = discardLogger()
	}
	if opts.Indexer == nil {
		opts.Indexer = f.indexer
	}
	f.svc = NewService(f.store, f.objects, staticSession("owner-1"), opts)
	return f
}

func TestSubmitWritesEveryChildRow(t *testing.T) {
	f := newFixture(t, Options{})

	res, err := f.svc.Submit(context.Background(), validPayload(), images(3))
	require.NoError(t, err)
	require.NotEmpty(t, res.ListingID)

	counts := f.store.Counts()
	assert.Equal(t, 1, counts["listings"])
	assert.Equal(t, 2, counts["listings_rooms"])
	assert.Equal(t, 3, counts["listings_amenities"])
	assert.Equal(t, 2, counts["listings_conveniences"])
	assert.Equal(t, 3, counts["listings_images"])
	assert.Len(t, f.objects.keys(), 3)

	detail, err := f.store.GetListingDetail(context.Background(), res.ListingID)
	require.NoError(t, err)
	assert.Equal(t, "owner-1", detail.Listing.OwnerID)
	assert.Equal(t, "Sunny bedspace near UST", detail.Listing.Title)
	for _, r := range detail.Rooms {
		assert.Equal(t, res.ListingID, r.ListingID)
	}
	for _, a := range detail.Amenities {
		assert.Equal(t, res.ListingID, a.ListingID)
		assert.True(t, strings.HasPrefix(a.Amenity, "Includes "))
	}
	for _, c := range detail.Conveniences {
		assert.Equal(t, res.ListingID, c.ListingID)
	}
	for _, img := range detail.Images {
		assert.Equal(t, res.ListingID, img.ListingID)
		_, err := f.objects.Get(context.Background(), img.ImageURL)
		assert.NoError(t, err)
	}

	names := []string{detail.Rooms[0].Name, detail.Rooms[1].Name}
	assert.ElementsMatch(t, []string{"Room 1", "Loft"}, names)
}

func TestSubmitNeverWritesChildBeforeListing(t *testing.T) {
	// MemoryDB rejects children of unknown listings with a ForeignKeyError;
	// with a concurrency of one and many units any ordering slip would surface.
	for _, limit := range []int{1, 8} {
		f := newFixture(t, Options{MaxConcurrency: limit})
		_, err := f.svc.Submit(context.Background(), validPayload(), images(3))
		require.NoError(t, err)

		var fkErr *database.ForeignKeyError
		assert.False(t, errors.As(err, &fkErr))
	}
}

func TestSubmitDistinctImageKeys(t *testing.T) {
	f := newFixture(t, Options{})

	imgs := []ImageFile{
		{Filename: "room.jpg", ContentType: "image/jpeg", Data: []byte("a")},
		{Filename: "room.jpg", ContentType: "image/jpeg", Data: []byte("b")},
		{Filename: "room.jpg", ContentType: "image/jpeg", Data: []byte("c")},
	}
	res, err := f.svc.Submit(context.Background(), validPayload(), imgs)
	require.NoError(t, err)

	keys := f.objects.keys()
	require.Len(t, keys, 3)
	for _, k := range keys {
		assert.True(t, strings.HasPrefix(k, "listing_image_"), k)
		assert.True(t, strings.HasSuffix(k, ".jpg"), k)
	}

	detail, err := f.store.GetListingDetail(context.Background(), res.ListingID)
	require.NoError(t, err)
	require.Len(t, detail.Images, 3)
	seen := map[string]bool{}
	for _, img := range detail.Images {
		seen[img.ImageURL] = true
	}
	assert.Len(t, seen, 3)
}

func TestSubmitListingInsertFailureWritesNoChildren(t *testing.T) {
	f := newFixture(t, Options{})
	f.store.failOn["InsertListing"] = errors.New("connection refused")

	_, err := f.svc.Submit(context.Background(), validPayload(), images(2))

	var storeErr *StoreWriteError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "listings", storeErr.Table)
	assert.ErrorContains(t, err, "connection refused")
	assert.Zero(t, f.store.childCalls())
	assert.Empty(t, f.objects.keys())
	assert.Empty(t, f.indexer.indexed)
}

func TestSubmitChildFailureKeepsListing(t *testing.T) {
	f := newFixture(t, Options{})
	f.store.failOn["InsertAmenity"] = errors.New("deadlock detected")
	ids := []string{"11111111-1111-4111-8111-111111111111"}
	f.svc.newID = func() string { return ids[0] }

	_, err := f.svc.Submit(context.Background(), validPayload(), images(1))

	var storeErr *StoreWriteError
	require.ErrorAs(t, err, &storeErr)
	assert.Equal(t, "listings_amenities", storeErr.Table)

	_, getErr := f.store.GetListingDetail(context.Background(), ids[0])
	assert.NoError(t, getErr)
	assert.Equal(t, 1, f.store.Counts()["listings"])
	assert.Empty(t, f.indexer.indexed)
}

func TestSubmitNoUnitStartsAfterFailure(t *testing.T) {
	f := newFixture(t, Options{MaxConcurrency: 1})
	f.store.failOn["InsertRoom"] = errors.New("disk full")

	_, err := f.svc.Submit(context.Background(), validPayload(), images(2))
	require.Error(t, err)

	// rooms are scheduled first; with one slot the second room and everything
	// after it sees the cancelled group before touching the store
	assert.Equal(t, 1, f.store.callCount("InsertRoom"))
	assert.Zero(t, f.store.callCount("InsertAmenity"))
	assert.Zero(t, f.store.callCount("InsertConvenience"))
	assert.Zero(t, f.store.callCount("InsertImage"))
	assert.Empty(t, f.objects.keys())
}

func TestSubmitUploadFailure(t *testing.T) {
	f := newFixture(t, Options{})
	f.objects.err = errors.New("bucket not found")

	_, err := f.svc.Submit(context.Background(), validPayload(), images(1))

	var uploadErr *UploadError
	require.ErrorAs(t, err, &uploadErr)
	assert.True(t, strings.HasPrefix(uploadErr.Key, "listing_image_"))
	assert.Zero(t, f.store.callCount("InsertImage"))
}

func TestSubmitLinkFailureLeavesOrphanedBlob(t *testing.T) {
	f := newFixture(t, Options{})
	f.store.failOn["InsertImage"] = errors.New("value too long for type character varying(255)")

	_, err := f.svc.Submit(context.Background(), validPayload(), images(1))

	var linkErr *LinkError
	require.ErrorAs(t, err, &linkErr)
	_, getErr := f.objects.Get(context.Background(), linkErr.Key)
	assert.NoError(t, getErr, "uploaded blob is not deleted")
	assert.Zero(t, f.store.Counts()["listings_images"])
}

func TestSubmitRejectsOverbookedRoomBeforeStoreCalls(t *testing.T) {
	f := newFixture(t, Options{})
	p := validPayload()
	p.Rooms[1].OccupiedBeds = 3

	_, err := f.svc.Submit(context.Background(), p, images(1))

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "rooms[1].occupied_beds", vErr.Field)
	assert.Zero(t, f.store.callCount("InsertListing"))
	assert.Zero(t, f.store.childCalls())
}

func TestSubmitTwiceCreatesTwoListings(t *testing.T) {
	f := newFixture(t, Options{})

	first, err := f.svc.Submit(context.Background(), validPayload(), images(1))
	require.NoError(t, err)
	second, err := f.svc.Submit(context.Background(), validPayload(), images(1))
	require.NoError(t, err)

	assert.NotEqual(t, first.ListingID, second.ListingID)
	assert.Equal(t, 2, f.store.Counts()["listings"])
}

func TestSubmitUnauthenticated(t *testing.T) {
	store := newRecordingStore()
	svc := NewService(store, newFakeObjectStore(), staticSession(""), Options{Logger: discardLogger()})

	_, err := svc.Submit(context.Background(), validPayload(), images(1))
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Zero(t, store.callCount("InsertListing"))
}

func TestSubmitIndexesListingBestEffort(t *testing.T) {
	f := newFixture(t, Options{})
	f.indexer.err = errors.New("meilisearch down")

	res, err := f.svc.Submit(context.Background(), validPayload(), images(2))
	require.NoError(t, err)

	require.Len(t, f.indexer.indexed, 1)
	d := f.indexer.indexed[0]
	assert.Equal(t, res.ListingID, d.Listing.ID)
	assert.Len(t, d.Rooms, 2)
	assert.Len(t, d.Images, 2)
	for _, r := range d.Rooms {
		assert.NotZero(t, r.ID)
	}
}

func TestSubmitDetectsContentType(t *testing.T) {
	f := newFixture(t, Options{})
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

	_, err := f.svc.Submit(context.Background(), validPayload(), []ImageFile{{Filename: "upload", Data: png}})
	require.NoError(t, err)

	keys := f.objects.keys()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasSuffix(keys[0], ".png"), keys[0])
}
