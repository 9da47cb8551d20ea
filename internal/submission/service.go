package submission

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"dorm-listing-portal/internal/models"
	"dorm-listing-portal/internal/storage"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// RecordStore is the subset of the record store the orchestrator writes to
type RecordStore interface {
	InsertListing(ctx context.Context, l *models.Listing) error
	InsertRoom(ctx context.Context, r *models.ListingRoom) error
	InsertAmenity(ctx context.Context, a *models.ListingAmenity) error
	InsertConvenience(ctx context.Context, c *models.ListingConvenience) error
	InsertImage(ctx context.Context, img *models.ListingImage) error
}

// SessionResolver returns the authenticated user behind ctx
type SessionResolver interface {
	CurrentUserID(ctx context.Context) (string, bool)
}

// Indexer receives every successfully submitted listing
type Indexer interface {
	IndexListing(ctx context.Context, d *models.ListingDetail) error
}

const (
	DefaultMaxConcurrency = 4
	imageKeyPrefix        = "listing_image_"
)

type Options struct {
	MaxConcurrency int
	Indexer        Indexer
	Logger         *slog.Logger
	// NewID overrides listing id generation in tests
	NewID func() string
}

// Service is the listing submission orchestrator
type Service struct {
	records  RecordStore
	objects  storage.ObjectStore
	sessions SessionResolver

	maxConcurrency int
	indexer        Indexer
	logger         *slog.Logger
	newID          func() string
}

func NewService(records RecordStore, objects storage.ObjectStore, sessions SessionResolver, opts Options) *Service {
	s := &Service{
		records:        records,
		objects:        objects,
		sessions:       sessions,
		maxConcurrency: opts.MaxConcurrency,
		indexer:        opts.Indexer,
		logger:         opts.Logger,
		newID:          opts.NewID,
	}
	if s.maxConcurrency <= 0 {
		s.maxConcurrency = DefaultMaxConcurrency
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	return s
}

// Result confirms a submitted listing
type Result struct {
	ListingID string `json:"listing_id"`
}

// Submit creates a listing and all of its child rows and images.
//
// The listing row is inserted first; rooms, amenities, conveniences and images
// are then written as independent units, at most maxConcurrency at a time.
// The first failing unit's error is returned after every started unit has
// finished, and no unit starts once a failure has been observed. Nothing that
// was already written is rolled back. Calling Submit twice creates two listings.
func (s *Service) Submit(ctx context.Context, payload ListingPayload, images []ImageFile) (Result, error) {
	p, err := prepare(payload, images)
	if err != nil {
		return Result{}, err
	}

	listingID := s.newID()

	userID, ok := s.sessions.CurrentUserID(ctx)
	if !ok || userID == "" {
		return Result{}, ErrUnauthenticated
	}

	listing := p.listing(listingID, userID)
	if err := s.records.InsertListing(ctx, listing); err != nil {
		s.logger.ErrorContext(ctx, "listing insert failed", "listing_id", listingID, "error", err)
		return Result{}, &StoreWriteError{Table: "listings", Err: err}
	}

	detail := &models.ListingDetail{
		Listing:      *listing,
		Rooms:        make([]models.ListingRoom, len(p.Rooms)),
		Amenities:    make([]models.ListingAmenity, len(p.amenities)),
		Conveniences: make([]models.ListingConvenience, len(p.Conveniences)),
		Images:       make([]models.ListingImage, len(images)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrency)

	// gctx only gates the start of a unit; store calls use ctx so units
	// already in flight are not aborted by a sibling's failure
	start := func(unit func() error) {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return unit()
		})
	}

	for i, r := range p.Rooms {
		room := &detail.Rooms[i]
		*room = models.ListingRoom{
			ListingID:    listingID,
			Name:         r.Name,
			TotalBeds:    r.TotalBeds,
			OccupiedBeds: r.OccupiedBeds,
		}
		start(func() error {
			if err := s.records.InsertRoom(ctx, room); err != nil {
				return &StoreWriteError{Table: "listings_rooms", Err: err}
			}
			return nil
		})
	}

	for i, a := range p.amenities {
		amenity := &detail.Amenities[i]
		*amenity = models.ListingAmenity{ListingID: listingID, Amenity: a.Display()}
		start(func() error {
			if err := s.records.InsertAmenity(ctx, amenity); err != nil {
				return &StoreWriteError{Table: "listings_amenities", Err: err}
			}
			return nil
		})
	}

	for i, title := range p.Conveniences {
		convenience := &detail.Conveniences[i]
		*convenience = models.ListingConvenience{ListingID: listingID, Title: title}
		start(func() error {
			if err := s.records.InsertConvenience(ctx, convenience); err != nil {
				return &StoreWriteError{Table: "listings_conveniences", Err: err}
			}
			return nil
		})
	}

	for i := range images {
		img := images[i]
		row := &detail.Images[i]
		start(func() error {
			return s.storeImage(ctx, listingID, img, row)
		})
	}

	if err := g.Wait(); err != nil {
		s.logger.WarnContext(ctx, "listing submission incomplete",
			"listing_id", listingID,
			"error", err,
		)
		return Result{}, err
	}

	s.logger.InfoContext(ctx, "listing submitted",
		"listing_id", listingID,
		"owner_id", userID,
		"rooms", len(detail.Rooms),
		"amenities", len(detail.Amenities),
		"conveniences", len(detail.Conveniences),
		"images", len(detail.Images),
	)

	if s.indexer != nil {
		if err := s.indexer.IndexListing(ctx, detail); err != nil {
			s.logger.WarnContext(ctx, "failed to index listing", "listing_id", listingID, "error", err)
		}
	}

	return Result{ListingID: listingID}, nil
}

// storeImage uploads one image under a fresh key, then links it to the listing
func (s *Service) storeImage(ctx context.Context, listingID string, img ImageFile, row *models.ListingImage) error {
	contentType := img.ContentType
	if contentType == "" {
		contentType = mimetype.Detect(img.Data).String()
	}
	key := NewImageKey(contentType, img.Filename)

	stored, err := s.objects.Upload(ctx, key, img.Data, contentType)
	if err != nil {
		return &UploadError{Key: key, Err: err}
	}

	*row = models.ListingImage{ListingID: listingID, ImageURL: stored}
	if err := s.records.InsertImage(ctx, row); err != nil {
		s.logger.WarnContext(ctx, "orphaned image blob",
			"listing_id", listingID,
			"key", stored,
			"error", err,
		)
		return &LinkError{Key: stored, Err: err}
	}
	return nil
}

// NewImageKey returns a unique object key for one image. The extension comes
// from the content type, falling back to the filename.
func NewImageKey(contentType, filename string) string {
	ext := ""
	if m := mimetype.Lookup(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])); m != nil {
		ext = m.Extension()
	}
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(filename))
	}
	return imageKeyPrefix + uuid.NewString() + ext
}
