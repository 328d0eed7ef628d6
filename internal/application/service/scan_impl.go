package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avilar/recordatorio-bot/internal/domain/entity"
	"github.com/avilar/recordatorio-bot/internal/domain/repository"
	"github.com/avilar/recordatorio-bot/internal/infrastructure/scheduler"
	appErrors "github.com/avilar/recordatorio-bot/internal/pkg/errors"
	"github.com/avilar/recordatorio-bot/internal/pkg/logger"
)

type scanService struct {
	store     repository.ReminderStore
	sender    Sender
	scheduler *scheduler.Scheduler
	cadence   int
	now       func() time.Time
	log       logger.Logger
}

// NewScanService creates the periodic scan service. cadenceSeconds is the
// wall-clock spacing between ticks.
func NewScanService(
	store repository.ReminderStore,
	sender Sender,
	sched *scheduler.Scheduler,
	cadenceSeconds int,
	log logger.Logger,
) ScanService {
	return &scanService{
		store:     store,
		sender:    sender,
		scheduler: sched,
		cadence:   cadenceSeconds,
		now:       time.Now,
		log:       log,
	}
}

// Start registers the scan with the cron scheduler.
func (s *scanService) Start() error {
	spec := fmt.Sprintf("*/%d * * * * *", s.cadence)
	_, err := s.scheduler.AddJob(spec, func() {
		s.RunOnce(context.Background())
	})
	return err
}

// Stop stops the underlying scheduler.
func (s *scanService) Stop() {
	s.scheduler.Stop()
}

// RunOnce executes a single tick over every user's reminders.
func (s *scanService) RunOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Panic during reminder scan", fmt.Errorf("%v", r))
		}
	}()

	users, err := s.store.Users(ctx)
	if err != nil {
		s.log.Error("Failed to list users for scan", err)
		return
	}

	now := s.now()
	for _, userID := range users {
		s.scanUser(ctx, userID, now)
	}
}

// scanUser evaluates one user's list. It walks a snapshot taken at tick
// start and keeps a count of entries removed so far, so each reminder is
// visited exactly once even while the live list shrinks.
func (s *scanService) scanUser(ctx context.Context, userID string, now time.Time) {
	list, err := s.store.ListFor(ctx, userID)
	if err != nil {
		s.log.Error(fmt.Sprintf("Failed to list reminders for %s during scan", userID), err)
		return
	}

	removed := 0
	for i := range list {
		r := list[i]
		idx := i - removed

		if r.Due(now) {
			// Deadline reached: notify once, then drop the reminder. The
			// interval branch never fires on the same tick.
			s.notify(userID, fmt.Sprintf("✅ Entrega alcanzada para: %s", r.Nombre))
			if err := s.store.RemoveAt(ctx, userID, idx); err != nil && !errors.Is(err, appErrors.ErrPersistSnapshot) {
				s.log.Error(fmt.Sprintf("Failed to remove expired reminder %d for %s", idx, userID), err)
				continue
			} else if err != nil {
				s.log.Error(fmt.Sprintf("Snapshot write failed after removing expired reminder for %s", userID), err)
			}
			removed++
			continue
		}

		if r.IntervalDue(now) {
			s.notify(userID, fmt.Sprintf("⏰ Recordatorio: %s", r.Nombre))
			proxima := now.Add(r.Interval())
			err := s.store.UpdateAt(ctx, userID, idx, func(rem *entity.Reminder) {
				rem.Proxima = proxima
			})
			if err != nil && !errors.Is(err, appErrors.ErrPersistSnapshot) {
				s.log.Error(fmt.Sprintf("Failed to re-arm reminder %d for %s", idx, userID), err)
			} else if err != nil {
				s.log.Error(fmt.Sprintf("Snapshot write failed after re-arming reminder for %s", userID), err)
			}
		}
	}
}

// notify sends best effort; a failed send never blocks the store mutation
// that follows it.
func (s *scanService) notify(userID, text string) {
	if err := s.sender.Send(userID, text); err != nil {
		s.log.Error(fmt.Sprintf("Failed to send notification to %s", userID), err)
	}
}
