package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"dorm-listing-portal/internal/models"

	"github.com/meilisearch/meilisearch-go"
)

type SearchClient struct {
	client *meilisearch.Client
	index  string
	logger *slog.Logger
}

func NewSearchClient(host, apiKey, index string, logger *slog.Logger) *SearchClient {
	client := meilisearch.NewClient(meilisearch.ClientConfig{
		Host:   host,
		APIKey: apiKey,
	})
	if index == "" {
		index = "listings"
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &SearchClient{
		client: client,
		index:  index,
		logger: logger,
	}
}

// ListingDocument is the flattened form of a listing stored in the index
type ListingDocument struct {
	ID            string   `json:"id"`
	OwnerID       string   `json:"owner_id"`
	Type          string   `json:"type"`
	MonthlyPrice  float64  `json:"monthly_price"`
	Location      string   `json:"location,omitempty"`
	GenderPref    string   `json:"gender_pref,omitempty"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Amenities     []string `json:"amenities"`
	Conveniences  []string `json:"conveniences"`
	RoomCount     int      `json:"room_count"`
	AvailableBeds int      `json:"available_beds"`
	ImageKeys     []string `json:"image_keys"`
	CreatedAt     int64    `json:"created_at"`
}

// NewListingDocument flattens a listing and its children for indexing
func NewListingDocument(d *models.ListingDetail) ListingDocument {
	doc := ListingDocument{
		ID:           d.Listing.ID,
		OwnerID:      d.Listing.OwnerID,
		Type:         string(d.Listing.Type),
		MonthlyPrice: d.Listing.MonthlyPrice,
		Title:        d.Listing.Title,
		Description:  d.Listing.Description,
		Amenities:    []string{},
		Conveniences: []string{},
		ImageKeys:    []string{},
		RoomCount:    len(d.Rooms),
		CreatedAt:    d.Listing.CreatedAt.Unix(),
	}
	if d.Listing.Location != nil {
		doc.Location = *d.Listing.Location
	}
	if d.Listing.GenderPref != nil {
		doc.GenderPref = string(*d.Listing.GenderPref)
	}
	for _, a := range d.Amenities {
		// index bare names so filters match the explore query values
		if amenity, ok := models.ParseAmenity(a.Amenity); ok {
			doc.Amenities = append(doc.Amenities, string(amenity))
		}
	}
	for _, c := range d.Conveniences {
		doc.Conveniences = append(doc.Conveniences, c.Title)
	}
	for i := range d.Rooms {
		doc.AvailableBeds += d.Rooms[i].AvailableBeds()
	}
	for _, img := range d.Images {
		doc.ImageKeys = append(doc.ImageKeys, img.ImageURL)
	}
	return doc
}

// Listing converts the document back to the listing row it was built from
func (doc ListingDocument) Listing() models.Listing {
	l := models.Listing{
		ID:           doc.ID,
		OwnerID:      doc.OwnerID,
		Type:         models.DormType(doc.Type),
		MonthlyPrice: doc.MonthlyPrice,
		Title:        doc.Title,
		Description:  doc.Description,
		CreatedAt:    time.Unix(doc.CreatedAt, 0),
	}
	if doc.Location != "" {
		location := doc.Location
		l.Location = &location
	}
	if doc.GenderPref != "" {
		pref := models.GenderPreference(doc.GenderPref)
		l.GenderPref = &pref
	}
	return l
}

// InitIndex initializes the Meilisearch index
func (s *SearchClient) InitIndex() error {
	// Create index if it doesn't exist
	_, err := s.client.CreateIndex(&meilisearch.IndexConfig{
		Uid:        s.index,
		PrimaryKey: "id",
	})
	// Ignore error if index already exists
	if err != nil && err.Error() != "index already exists" {
		return err
	}

	_, err = s.client.Index(s.index).UpdateSearchableAttributes(&[]string{
		"title",
		"description",
		"location",
		"amenities",
		"conveniences",
	})
	if err != nil {
		return err
	}

	_, err = s.client.Index(s.index).UpdateFilterableAttributes(&[]string{
		"id",
		"type",
		"gender_pref",
		"monthly_price",
		"amenities",
		"room_count",
	})
	if err != nil {
		return err
	}

	_, err = s.client.Index(s.index).UpdateSortableAttributes(&[]string{
		"monthly_price",
		"created_at",
	})
	return err
}

// IndexListing indexes a single listing
func (s *SearchClient) IndexListing(ctx context.Context, d *models.ListingDetail) error {
	_, err := s.client.Index(s.index).AddDocuments([]ListingDocument{NewListingDocument(d)})
	if err != nil {
		return fmt.Errorf("index listing %s: %w", d.Listing.ID, err)
	}
	return nil
}

// IndexListings indexes multiple listings
func (s *SearchClient) IndexListings(ctx context.Context, details []models.ListingDetail) error {
	if len(details) == 0 {
		return nil
	}
	docs := make([]ListingDocument, len(details))
	for i := range details {
		docs[i] = NewListingDocument(&details[i])
	}
	_, err := s.client.Index(s.index).AddDocuments(docs)
	if err != nil {
		return err
	}
	s.logger.DebugContext(ctx, "queued listings for indexing", "count", len(docs))
	return nil
}

// hitsToListings converts raw search hits to listings, skipping malformed hits
func hitsToListings(hits []interface{}) []models.Listing {
	listings := make([]models.Listing, 0, len(hits))
	for _, hit := range hits {
		// Convert hit to JSON then to ListingDocument
		hitJSON, err := json.Marshal(hit)
		if err != nil {
			continue
		}
		var doc ListingDocument
		if err := json.Unmarshal(hitJSON, &doc); err != nil {
			continue
		}
		listings = append(listings, doc.Listing())
	}
	return listings
}
