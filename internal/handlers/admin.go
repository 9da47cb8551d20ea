package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"dorm-listing-portal/internal/auth"
	"dorm-listing-portal/internal/ratelimit"
	"dorm-listing-portal/internal/search"

	"github.com/gin-gonic/gin"
)

// Reindexer runs a full search reindex
type Reindexer interface {
	RunNow(ctx context.Context) (search.ReindexResult, error)
}

// AdminHandler handles operational requests
type AdminHandler struct {
	reindexer Reindexer
	limiter   *ratelimit.RateLimiter
	logger    *slog.Logger
}

// NewAdminHandler creates a new admin handler. reindexer is nil when search is disabled.
func NewAdminHandler(reindexer Reindexer, limiter *ratelimit.RateLimiter, logger *slog.Logger) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandler{reindexer: reindexer, limiter: limiter, logger: logger}
}

func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now(),
	})
}

// TriggerReindex re-indexes all listings from the record store into Meilisearch
func (h *AdminHandler) TriggerReindex(c *gin.Context) {
	if h.reindexer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"message": "Search is not enabled",
		})
		return
	}

	h.logger.InfoContext(c.Request.Context(), "manual reindex requested")

	result, err := h.reindexer.RunNow(c.Request.Context())
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "manual reindex failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"message": "Reindex failed",
			"error":   err.Error(),
			"total":   result.Total,
			"indexed": result.Indexed,
			"failed":  result.Failed,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Reindex complete",
		"total":   result.Total,
		"indexed": result.Indexed,
		"failed":  result.Failed,
	})
}

// GetRateLimitStats returns the authenticated user's submission rate limit state
func (h *AdminHandler) GetRateLimitStats(c *gin.Context) {
	userID, _ := auth.UserIDFromContext(c.Request.Context())
	c.JSON(http.StatusOK, h.limiter.GetStats(userID))
}
