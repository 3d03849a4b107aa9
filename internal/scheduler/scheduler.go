// Package scheduler runs periodic fleet syncs on a fixed interval.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"prboard/internal/application"
	"prboard/internal/domain/model"
)

// Scheduler drives the sync service on a cron schedule. A single entry fires
// every configured interval; overlapping runs are already prevented by the
// sync service's running guard.
type Scheduler struct {
	cron     *cron.Cron
	syncSvc  *application.SyncService
	interval time.Duration
	logger   *slog.Logger
}

// New builds a scheduler that triggers a full sync every interval.
func New(syncSvc *application.SyncService, interval time.Duration, logger *slog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:     cron.New(),
		syncSvc:  syncSvc,
		interval: interval,
		logger:   logger,
	}

	if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", interval), s.runSync); err != nil {
		return nil, fmt.Errorf("registering sync schedule: %w", err)
	}

	return s, nil
}

// Start begins firing scheduled syncs. It returns immediately; jobs run on
// the cron goroutine.
func (s *Scheduler) Start() {
	s.logger.Info("scheduler started", "interval", s.interval.String())
	s.cron.Start()
}

// Stop halts the schedule and waits for any in-flight run to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

func (s *Scheduler) runSync() {
	results, err := s.syncSvc.SyncAll(context.Background(), model.TriggerScheduled)
	if err != nil {
		s.logger.Error("scheduled sync failed", "error", err)
		return
	}
	if len(results) == 0 {
		// Another sync was already running; skip this tick.
		return
	}

	failed := 0
	for _, r := range results {
		if r.Status == model.SyncStatusFailure {
			failed++
		}
	}
	s.logger.Info("scheduled sync finished", "repos", len(results), "failed", failed)
}
