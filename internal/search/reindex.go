package search

import (
	"context"
	"fmt"
	"log/slog"

	"dorm-listing-portal/internal/models"
)

// ListingSource is the part of the record store a full reindex reads from
type ListingSource interface {
	QueryListings(ctx context.Context, f models.ListingFilter) ([]models.Listing, error)
	GetListingDetail(ctx context.Context, id string) (*models.ListingDetail, error)
}

// ListingIndexer is implemented by SearchClient
type ListingIndexer interface {
	IndexListings(ctx context.Context, details []models.ListingDetail) error
}

// ReindexResult summarizes a full reindex run
type ReindexResult struct {
	Total   int `json:"total"`
	Indexed int `json:"indexed"`
	Failed  int `json:"failed"`
}

const reindexBatchSize = 100

// ReindexAll re-reads every listing from the record store and pushes it to the index in batches.
// A listing that cannot be loaded is counted as failed and skipped.
func ReindexAll(ctx context.Context, src ListingSource, idx ListingIndexer, logger *slog.Logger) (ReindexResult, error) {
	listings, err := src.QueryListings(ctx, models.ListingFilter{})
	if err != nil {
		return ReindexResult{}, fmt.Errorf("failed to fetch listings: %w", err)
	}

	result := ReindexResult{Total: len(listings)}
	logger.InfoContext(ctx, "reindex started", "total", result.Total)

	batch := make([]models.ListingDetail, 0, reindexBatchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := idx.IndexListings(ctx, batch); err != nil {
			return err
		}
		result.Indexed += len(batch)
		batch = batch[:0]
		return nil
	}

	for _, l := range listings {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		detail, err := src.GetListingDetail(ctx, l.ID)
		if err != nil {
			logger.WarnContext(ctx, "reindex skipped listing", "listing_id", l.ID, "error", err)
			result.Failed++
			continue
		}
		batch = append(batch, *detail)
		if len(batch) == reindexBatchSize {
			if err := flush(); err != nil {
				return result, fmt.Errorf("failed to index batch: %w", err)
			}
			logger.InfoContext(ctx, "reindex progress", "indexed", result.Indexed, "total", result.Total)
		}
	}
	if err := flush(); err != nil {
		return result, fmt.Errorf("failed to index batch: %w", err)
	}

	logger.InfoContext(ctx, "reindex complete", "indexed", result.Indexed, "failed", result.Failed)
	return result, nil
}
