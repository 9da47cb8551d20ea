package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"dorm-listing-portal/internal/database"
	"dorm-listing-portal/internal/explore"
	"dorm-listing-portal/internal/models"
	"dorm-listing-portal/internal/storage"
	"dorm-listing-portal/internal/submission"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
)

// Submitter creates listings
type Submitter interface {
	Submit(ctx context.Context, payload submission.ListingPayload, images []submission.ImageFile) (submission.Result, error)
}

// Explorer answers explore page queries
type Explorer interface {
	Query(ctx context.Context, f models.ListingFilter) ([]models.Listing, error)
	Invalidate()
}

// ListingReader loads a single listing with its children
type ListingReader interface {
	GetListingDetail(ctx context.Context, id string) (*models.ListingDetail, error)
}

// accepted image types for listing photos
var imageTypes = []string{"image/png", "image/jpeg"}

// ListingHandler handles listing-related requests
type ListingHandler struct {
	submitter     Submitter
	explorer      Explorer
	listings      ListingReader
	objects       storage.ObjectStore
	maxImages     int
	maxImageBytes int64
	logger        *slog.Logger
}

type ListingHandlerConfig struct {
	MaxImages     int
	MaxImageBytes int64
	Logger        *slog.Logger
}

// NewListingHandler creates a new listing handler
func NewListingHandler(submitter Submitter, explorer Explorer, listings ListingReader, objects storage.ObjectStore, cfg ListingHandlerConfig) *ListingHandler {
	h := &ListingHandler{
		submitter:     submitter,
		explorer:      explorer,
		listings:      listings,
		objects:       objects,
		maxImages:     cfg.MaxImages,
		maxImageBytes: cfg.MaxImageBytes,
		logger:        cfg.Logger,
	}
	if h.maxImages <= 0 {
		h.maxImages = 3
	}
	if h.maxImageBytes <= 0 {
		h.maxImageBytes = 5 << 20
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h
}

// Explore returns the listings matching the query string filters
func (h *ListingHandler) Explore(c *gin.Context) {
	filter := explore.ParseFilter(c.Request.URL.Query())

	listings, err := h.explorer.Query(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "Failed to fetch listings",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": listings})
}

// GetListing returns one listing with its rooms, amenities, conveniences and images
func (h *ListingHandler) GetListing(c *gin.Context) {
	id := c.Param("id")

	detail, err := h.listings.GetListingDetail(c.Request.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Listing not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch listing", "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, detail)
}

// CreateListing accepts a multipart form with a JSON "payload" field and one
// or more "images" files
func (h *ListingHandler) CreateListing(c *gin.Context) {
	var payload submission.ListingPayload
	raw := c.PostForm("payload")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing listing payload"})
		return
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Malformed listing payload", "error": err.Error()})
		return
	}

	images, err := h.readImages(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid images", "error": err.Error()})
		return
	}

	result, err := h.submitter.Submit(c.Request.Context(), payload, images)
	if err != nil {
		h.writeSubmitError(c, err)
		return
	}

	h.explorer.Invalidate()
	c.JSON(http.StatusCreated, result)
}

func (h *ListingHandler) readImages(c *gin.Context) ([]submission.ImageFile, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}

	files := form.File["images"]
	if len(files) == 0 {
		return nil, errors.New("at least one image is required")
	}
	if len(files) > h.maxImages {
		return nil, fmt.Errorf("at most %d images are allowed", h.maxImages)
	}

	images := make([]submission.ImageFile, 0, len(files))
	for _, fh := range files {
		if fh.Size > h.maxImageBytes {
			return nil, fmt.Errorf("image %s exceeds %d bytes", fh.Filename, h.maxImageBytes)
		}

		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(io.LimitReader(f, h.maxImageBytes+1))
		f.Close()
		if err != nil {
			return nil, err
		}
		if int64(len(data)) > h.maxImageBytes {
			return nil, fmt.Errorf("image %s exceeds %d bytes", fh.Filename, h.maxImageBytes)
		}

		mtype := mimetype.Detect(data)
		if !mimetype.EqualsAny(mtype.String(), imageTypes...) {
			return nil, fmt.Errorf("image %s has unsupported type %s", fh.Filename, mtype.String())
		}

		images = append(images, submission.ImageFile{
			Filename:    fh.Filename,
			ContentType: mtype.String(),
			Data:        data,
		})
	}
	return images, nil
}

func (h *ListingHandler) writeSubmitError(c *gin.Context, err error) {
	var (
		validationErr *submission.ValidationError
		storeErr      *submission.StoreWriteError
		uploadErr     *submission.UploadError
		linkErr       *submission.LinkError
	)

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"message": "Invalid listing",
			"field":   validationErr.Field,
			"error":   err.Error(),
		})
	case errors.Is(err, submission.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Not authenticated", "error": err.Error()})
	case errors.As(err, &storeErr), errors.As(err, &uploadErr), errors.As(err, &linkErr):
		h.logger.ErrorContext(c.Request.Context(), "listing submission failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"message": "Failed to create listing", "error": err.Error()})
	default:
		h.logger.ErrorContext(c.Request.Context(), "listing submission failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to create listing", "error": err.Error()})
	}
}

// GetImage streams a stored listing image
func (h *ListingHandler) GetImage(c *gin.Context) {
	key := c.Param("key")
	if err := storage.ValidateKey(key); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid image key", "error": err.Error()})
		return
	}

	data, err := h.objects.Get(c.Request.Context(), key)
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Image not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to fetch image", "error": err.Error()})
		return
	}

	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, mimetype.Detect(data).String(), data)
}
