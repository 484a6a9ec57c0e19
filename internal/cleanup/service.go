package cleanup

import (
	"os"
	"path/filepath"
	"time"

	"visitor-track-go/internal/db/repository"

	log "github.com/sirupsen/logrus"
)

// Service handles the automatic cleanup of old events and their images.
// With retention disabled the event store stays strictly append-only.
type Service struct {
	repo          repository.EventRepository
	retentionDays int
	snapshotDir   string
	checkInterval time.Duration
	stopChan      chan struct{}
}

// NewService creates a new cleanup service. Returns nil if cleanup is
// disabled (retentionDays <= 0).
func NewService(repo repository.EventRepository, retentionDays int, snapshotDir string, checkInterval time.Duration) *Service {
	if retentionDays <= 0 {
		log.Info("Automatic cleanup disabled (retention_days <= 0).")
		return nil
	}
	log.Infof("Initializing cleanup service: RetentionDays=%d, SnapshotDir='%s', CheckInterval=%s",
		retentionDays, snapshotDir, checkInterval)
	return &Service{
		repo:          repo,
		retentionDays: retentionDays,
		snapshotDir:   snapshotDir,
		checkInterval: checkInterval,
		stopChan:      make(chan struct{}),
	}
}

// StartBackgroundCleanup starts a goroutine that periodically runs the
// cleanup cycle.
func (s *Service) StartBackgroundCleanup() {
	if s == nil {
		return // Service was not initialized (cleanup disabled)
	}
	log.Info("Starting background cleanup routine...")

	go func() {
		// Run cleanup once immediately on start
		s.RunCleanupCycle()

		ticker := time.NewTicker(s.checkInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.RunCleanupCycle()
			case <-s.stopChan:
				log.Info("Stopping background cleanup routine.")
				return
			}
		}
	}()
}

// StopBackgroundCleanup signals the background cleanup routine to stop.
func (s *Service) StopBackgroundCleanup() {
	if s == nil || s.stopChan == nil {
		return
	}
	close(s.stopChan)
}

// RunCleanupCycle removes all events older than the retention period
// together with their stored images.
func (s *Service) RunCleanupCycle() {
	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)
	log.Infof("Running cleanup cycle, removing events before %s", cutoff.Format(time.RFC3339))

	events, err := s.repo.FindEventsBefore(cutoff)
	if err != nil {
		log.Errorf("Cleanup: failed to find old events: %v", err)
		return
	}
	if len(events) == 0 {
		log.Debug("Cleanup: nothing to remove")
		return
	}

	// Remove images first; a missing file is not an error
	var removedImages int
	for _, event := range events {
		if event.ImagePath == "" {
			continue
		}
		fullPath := filepath.Join(s.snapshotDir, event.ImagePath)
		if err := os.Remove(fullPath); err != nil {
			if !os.IsNotExist(err) {
				log.Warnf("Cleanup: failed to remove image %s: %v", fullPath, err)
			}
			continue
		}
		removedImages++
	}

	deleted, err := s.repo.DeleteEventsBefore(cutoff)
	if err != nil {
		log.Errorf("Cleanup: failed to delete old events: %v", err)
		return
	}

	log.Infof("Cleanup cycle finished: %d events deleted, %d images removed", deleted, removedImages)
}
