package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"dorm-listing-portal/internal/config"
	"dorm-listing-portal/internal/search"

	"github.com/robfig/cron/v3"
)

// Scheduler runs the nightly search reindex
type Scheduler struct {
	cron      *cron.Cron
	source    search.ListingSource
	indexer   search.ListingIndexer
	config    config.SchedulerConfig
	logger    *slog.Logger
	mu        sync.Mutex
	isRunning bool
}

// NewScheduler creates a new scheduler
func NewScheduler(source search.ListingSource, indexer search.ListingIndexer, cfg config.SchedulerConfig, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:    cron.New(),
		source:  source,
		indexer: indexer,
		config:  cfg,
		logger:  logger.With("component", "scheduler"),
	}
}

// Start registers the reindex job and starts the cron loop
func (s *Scheduler) Start() error {
	if !s.config.ReindexEnabled {
		s.logger.Info("reindex job is disabled in configuration")
		return nil
	}

	cronSpec := s.parseDailyRunTime(s.config.ReindexTime)

	_, err := s.cron.AddFunc(cronSpec, func() {
		if _, err := s.RunNow(context.Background()); err != nil {
			s.logger.Error("scheduled reindex failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.mu.Lock()
	s.isRunning = true
	s.mu.Unlock()
	s.logger.Info("started", "reindex_time", s.config.ReindexTime, "cron", cronSpec)

	return nil
}

// Stop stops the cron loop and waits for a running job to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		<-s.cron.Stop().Done()
		s.isRunning = false
		s.logger.Info("stopped")
	}
}

// RunNow immediately executes the reindex job (for manual trigger)
func (s *Scheduler) RunNow(ctx context.Context) (search.ReindexResult, error) {
	s.logger.InfoContext(ctx, "starting reindex job")
	return search.ReindexAll(ctx, s.source, s.indexer, s.logger)
}

// parseDailyRunTime converts HH:MM format to cron specification
// Example: "03:00" -> "0 3 * * *" (run at 3:00 AM every day)
func (s *Scheduler) parseDailyRunTime(timeStr string) string {
	var hour, minute int
	n, _ := fmt.Sscanf(timeStr, "%d:%d", &hour, &minute)
	if n == 2 && hour >= 0 && hour < 24 && minute >= 0 && minute < 60 {
		return fmt.Sprintf("%d %d * * *", minute, hour)
	}

	// Default to 3:00 AM if parsing fails
	s.logger.Warn("failed to parse reindex time, using default 03:00", "value", timeStr)
	return "0 3 * * *"
}
